// cmd/gate/main.go
//
// Kalako gate – HTTP entry point.
//
// Request life-cycle
// ------------------
//
//  1. Load env vars (jail-wide file → conf/.env fallback) and the layered
//     config.  Vault references resolve when VAULT_ADDR is set.
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Build the status checker and the gate from config.
//
//  4. Expose Prometheus /metrics and /healthz on the ops listener.
//
//  5. Public handler flow:
//
//     • HTTPS enforcement        – optional 308 for routable hosts
//     • request id, recoverer    – chi middleware
//     • request info             – UA and geo for the decision log
//     • gate                     – redirect, or forward with tenant context
//     • reverse proxy            – page server
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/kalako-gate/internal/bootstrap"
	"github.com/yanizio/kalako-gate/internal/config"
	"github.com/yanizio/kalako-gate/internal/logger"
	"github.com/yanizio/kalako-gate/internal/middleware"
	"github.com/yanizio/kalako-gate/internal/requestinfo"
	"github.com/yanizio/kalako-gate/internal/server"
	"github.com/yanizio/kalako-gate/internal/tenant"
	"github.com/yanizio/kalako-gate/internal/upstream"
)

const (
	serverEnvPath   = "/usr/local/etc/kalako-gate/global.env"
	shutdownTimeout = 15 * time.Second
)

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boot, err := logger.Console("info")
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	//
	// ── 1.  Config (Vault first, so references resolve) ─────────────────
	//
	secrets, err := bootstrap.Secrets(ctx, boot)
	if err != nil {
		boot.Fatalf("secrets: %v", err)
	}
	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		boot.Fatalf("config: %v", err)
	}

	logDir := cfg.Log.Dir
	if !filepath.IsAbs(logDir) {
		logDir = filepath.Join(cfg.Paths.Root, logDir)
	}
	sugar, err := logger.New(logDir, cfg.Log.Level, runningInTTY())
	if err != nil {
		boot.Fatalf("start logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()
	zl := sugar.Desugar()

	//
	// ── 2.  Gate and upstream ───────────────────────────────────────────
	//
	g, cleanup, err := bootstrap.Gate(ctx, cfg, zl)
	if err != nil {
		sugar.Fatalf("build gate: %v", err)
	}
	defer cleanup()
	sugar.Infow("gate ready",
		"base_domain", cfg.Gate.BaseDomain,
		"status_source", cfg.Status.Source,
		"status_cache_ttl", cfg.Status.CacheTTL,
	)

	proxy, err := upstream.New(cfg.Upstream.URL, cfg.Status.TenantHeader, zl)
	if err != nil {
		sugar.Fatalf("upstream: %v", err)
	}

	var geo requestinfo.GeoLookup
	if cfg.Geo.DBPath != "" {
		if rdr, err := requestinfo.OpenGeo(cfg.Geo.DBPath); err != nil {
			sugar.Warnw("geo lookup disabled", "err", err)
		} else {
			defer rdr.Close()
			geo = rdr
		}
	}

	//
	// ── 3.  Public router ───────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestinfo.NewEnricher(geo).Middleware)
	r.Use(g.Middleware)
	r.Handle("/*", proxy)

	var public http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		public = middleware.ForceHTTPS(tenant.NewClassifier(cfg.Gate.BaseDomain), public)
	}

	timeouts := server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	}
	servers := []*http.Server{server.New(cfg.HTTP.ListenAddr, public, timeouts)}

	//
	// ── 4.  Ops router (metrics, health) ────────────────────────────────
	//
	if cfg.HTTP.MetricsAddr != "" {
		ops := chi.NewRouter()
		ops.Handle("/metrics", promhttp.Handler())
		ops.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("ok\n"))
		})
		servers = append(servers, server.New(cfg.HTTP.MetricsAddr, ops, timeouts))
	}

	//
	// ── 5.  Serve until signalled ───────────────────────────────────────
	//
	eg, egCtx := errgroup.WithContext(ctx)
	for _, s := range servers {
		s := s
		eg.Go(func() error {
			sugar.Infof("listening on %s", s.Addr)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	eg.Go(func() error {
		<-egCtx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, s := range servers {
			if err := s.Shutdown(sctx); err != nil {
				sugar.Warnw("shutdown", "addr", s.Addr, "err", err)
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		sugar.Errorf("http server: %v", err)
	}
	sugar.Info("gate stopped")
}
