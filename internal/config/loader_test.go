// internal/config/loader_test.go
//
// Unit-tests for the koanf loader: YAML, env overrides, validation.
//
// Run: go test ./internal/config -v

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	v, ok := f[path+"#"+key]
	if !ok {
		return "", errors.New("no such secret")
	}
	return v, nil
}

func writeConf(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestLoadFrom_DefaultsAndDerivedAPIBase(t *testing.T) {
	root := writeConf(t, `
gate:
  base_domain: Example.com.
`)
	cfg, err := LoadFrom(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Gate.BaseDomain != "example.com" {
		t.Errorf("base domain = %q", cfg.Gate.BaseDomain)
	}
	if cfg.Status.APIBase != "https://api.example.com" {
		t.Errorf("api base = %q", cfg.Status.APIBase)
	}
	if cfg.Gate.TenantCookie != "token" || cfg.Gate.AdminCookie != "admin_token" {
		t.Errorf("cookie defaults lost: %+v", cfg.Gate)
	}
	if cfg.Status.Timeout != 3*time.Second || cfg.Status.CacheTTL != 0 {
		t.Errorf("status defaults lost: %+v", cfg.Status)
	}
	if len(cfg.Gate.BypassPrefixes) != 5 {
		t.Errorf("bypass defaults lost: %v", cfg.Gate.BypassPrefixes)
	}
	if Get() != cfg {
		t.Errorf("Get() did not return the cached config")
	}
}

func TestLoadFrom_YAMLAndEnvOverlay(t *testing.T) {
	root := writeConf(t, `
gate:
  base_domain: portorey.my.id
  not_found_path: /not-found
status:
  timeout: 1500ms
  cache_ttl: 5s
`)
	t.Setenv("KALAKO_STATUS__API_BASE", "http://127.0.0.1:4000")
	t.Setenv("KALAKO_HTTP__LISTEN_ADDR", ":9000")

	cfg, err := LoadFrom(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Gate.NotFoundPath != "/not-found" {
		t.Errorf("not found path = %q", cfg.Gate.NotFoundPath)
	}
	if cfg.Status.Timeout != 1500*time.Millisecond || cfg.Status.CacheTTL != 5*time.Second {
		t.Errorf("durations = %v / %v", cfg.Status.Timeout, cfg.Status.CacheTTL)
	}
	if cfg.Status.APIBase != "http://127.0.0.1:4000" {
		t.Errorf("env overlay ignored: api base = %q", cfg.Status.APIBase)
	}
	if cfg.HTTP.ListenAddr != ":9000" {
		t.Errorf("env overlay ignored: listen addr = %q", cfg.HTTP.ListenAddr)
	}
}

func TestLoadFrom_VaultReference(t *testing.T) {
	root := writeConf(t, `
gate:
  base_domain: example.com
status:
  api_token: "vault:kv/kalako/status#api_token"
`)
	secrets := fakeSecrets{"kv/kalako/status#api_token": "s3cret"}

	cfg, err := LoadFrom(context.Background(), root, secrets)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Status.APIToken != "s3cret" {
		t.Fatalf("api token = %q, want resolved secret", cfg.Status.APIToken)
	}

	if _, err := LoadFrom(context.Background(), root, nil); !errors.Is(err, ErrNoSecretResolver) {
		t.Fatalf("err = %v, want ErrNoSecretResolver", err)
	}
}

func TestLoadFrom_ValidationFailures(t *testing.T) {
	cases := map[string]string{
		"missing base domain": `
gate:
  tenant_cookie: token
`,
		"db source without dsn": `
gate:
  base_domain: example.com
status:
  source: db
`,
		"unknown source": `
gate:
  base_domain: example.com
status:
  source: carrier-pigeon
`,
		"relative public prefix": `
gate:
  base_domain: example.com
  tenant_public_prefixes: ["login"]
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			root := writeConf(t, body)
			if _, err := LoadFrom(context.Background(), root, nil); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	if _, err := LoadFrom(context.Background(), t.TempDir(), nil); err == nil {
		t.Fatal("expected error for missing global.yaml")
	}
}

func TestEnvKey(t *testing.T) {
	if got := envKey("KALAKO_STATUS__CACHE_TTL"); got != "status.cache_ttl" {
		t.Fatalf("envKey = %q", got)
	}
}
