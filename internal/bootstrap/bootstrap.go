// internal/bootstrap/bootstrap.go
//
// Shared wiring for cmd/gate and cmd/gatectl.
//
// Context
// -------
// Both binaries turn one *config.Config into the same object graph:
//
//	secrets  → config.Load → status source → StatusGate → (StatusCache) → gate.Gate
//
// Keeping that in one place means the CLI answers exactly what the server
// would.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/kalako-gate/internal/config"
	"github.com/yanizio/kalako-gate/internal/database"
	"github.com/yanizio/kalako-gate/internal/gate"
	"github.com/yanizio/kalako-gate/internal/session"
	"github.com/yanizio/kalako-gate/internal/tenant"
	"github.com/yanizio/kalako-gate/internal/vault"
)

// Secrets returns a Vault client when VAULT_ADDR is set, otherwise nil.
func Secrets(ctx context.Context, log *zap.SugaredLogger) (config.SecretResolver, error) {
	if !vault.Configured() {
		return nil, nil
	}
	c, err := vault.New(ctx, log.Infof)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	return c, nil
}

// EngineOptions maps the gate section of cfg onto engine options.
func EngineOptions(cfg *config.Config) gate.Options {
	return gate.Options{
		BypassPrefixes:       cfg.Gate.BypassPrefixes,
		TenantPublicPrefixes: cfg.Gate.TenantPublicPrefixes,
		NotFoundPath:         cfg.Gate.NotFoundPath,
		AdminLoginRewrite:    cfg.Gate.AdminLoginRewrite,
	}
}

// StatusSource builds the source selected by status.source.  The returned
// cleanup closes any database pool.
func StatusSource(ctx context.Context, cfg *config.Config) (tenant.Source, func(), error) {
	switch cfg.Status.Source {
	case "db":
		db, err := database.Open(ctx, cfg.Database.DSN, cfg.Database.Password)
		if err != nil {
			return nil, nil, fmt.Errorf("status database: %w", err)
		}
		return tenant.NewDBSource(db), func() { _ = db.Close() }, nil
	default:
		src, err := tenant.NewHTTPSource(tenant.HTTPOptions{
			APIBase:      cfg.Status.APIBase,
			EndpointPath: cfg.Status.EndpointPath,
			TenantHeader: cfg.Status.TenantHeader,
			Token:        cfg.Status.APIToken,
		})
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	}
}

// StatusChecker wraps src with the fail-open gate and, when
// status.cache_ttl is positive, the verdict cache.
func StatusChecker(cfg *config.Config, src tenant.Source, log *zap.Logger) (tenant.Checker, func(), error) {
	var checker tenant.Checker = tenant.NewStatusGate(src, cfg.Status.Timeout, log)
	if cfg.Status.CacheTTL <= 0 {
		return checker, func() {}, nil
	}
	cache, err := tenant.NewStatusCache(checker, cfg.Status.CacheTTL, cfg.Status.CacheMaxEntries)
	if err != nil {
		return nil, nil, err
	}
	return cache, cache.Close, nil
}

// Gate builds the full gate for cfg.  Call the returned cleanup on
// shutdown.
func Gate(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gate.Gate, func(), error) {
	src, closeSrc, err := StatusSource(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	checker, closeChecker, err := StatusChecker(cfg, src, log)
	if err != nil {
		closeSrc()
		return nil, nil, err
	}

	g := gate.New(
		tenant.NewClassifier(cfg.Gate.BaseDomain),
		gate.NewEngine(EngineOptions(cfg)),
		checker,
		gate.WithCookieNames(session.CookieNames{Tenant: cfg.Gate.TenantCookie, Admin: cfg.Gate.AdminCookie}),
		gate.WithLogger(log),
	)
	return g, func() { closeChecker(); closeSrc() }, nil
}
