// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from `Defaults()` plus three
layers (highest precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `KALAKO_`, where `__` maps to "."
     (e.g., `KALAKO_GATE__BASE_DOMAIN → gate.base_domain`).

After merging, every `vault:` reference is swapped for its secret, the tree
is unmarshalled over the defaults, validated, enriched with the runtime
root path, and cached in an `atomic.Pointer` for lock-free reads.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read.
  • ERROR spans: YAML parse, env overlay, secret, unmarshal, validation.
  • INFO  span: final "config loaded" with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface before the file logger is installed.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/kalako-gate/internal/vault"
)

const envPrefix = "KALAKO_"

// secretTTL bounds how long a resolved secret is reused by the resolver.
const secretTTL = 10 * time.Minute

// ErrNoSecretResolver is returned when the config holds a `vault:` value
// but no resolver was supplied.
var ErrNoSecretResolver = errors.New("config: vault reference found but no secret resolver configured")

// SecretResolver fetches one key from a secret store.  *vault.Client
// satisfies it.
type SecretResolver interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────────*/

// RootDir resolves KALAKO_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to the executable heuristic for the production
// layout (`<root>/bin/gate`).
func RootDir() string {
	if r := os.Getenv("KALAKO_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads config from RootDir().  secrets may be nil when no value in
// the tree is a Vault reference.
func Load(ctx context.Context, secrets SecretResolver) (*Config, error) {
	return LoadFrom(ctx, RootDir(), secrets)
}

// LoadFrom reads .env, YAML, and env overrides rooted at root, resolves
// secrets, validates, and caches the result.
func LoadFrom(ctx context.Context, root string, secrets SecretResolver) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, fmt.Errorf("load %s: %w", yamlPath, err)
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// KALAKO_GATE__BASE_DOMAIN → gate.base_domain
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, fmt.Errorf("env overlay: %w", err)
	}

	if err := resolveSecrets(ctx, k, secrets); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Paths.Root = root
	cfg.Gate.BaseDomain = strings.ToLower(strings.TrimSuffix(cfg.Gate.BaseDomain, "."))
	if cfg.Status.APIBase == "" && cfg.Gate.BaseDomain != "" {
		cfg.Status.APIBase = "https://api." + cfg.Gate.BaseDomain
	}

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, fmt.Errorf("validate config: %w", err)
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"base_domain", cfg.Gate.BaseDomain,
		"status_source", cfg.Status.Source,
		"status_cache_ttl", cfg.Status.CacheTTL,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// envKey maps KALAKO_STATUS__CACHE_TTL to status.cache_ttl.
func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

// resolveSecrets replaces every `vault:` string in k with its secret.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, secrets SecretResolver) error {
	for key, val := range k.All() {
		s, ok := val.(string)
		if !ok {
			continue
		}
		path, field, isRef, err := vault.ParseRef(s)
		if !isRef {
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if secrets == nil {
			return fmt.Errorf("%s: %w", key, ErrNoSecretResolver)
		}
		plain, err := secrets.GetKV(ctx, path, field, secretTTL)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := k.Set(key, plain); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// Get returns the last successfully loaded Config, or nil.
func Get() *Config { return current.Load() }
