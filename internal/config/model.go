// internal/config/model.go
//
// Typed configuration model for the Kalako gate.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/global.yaml`                       – primary static file,
//   • `KALAKO_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with `vault:` is resolved through the
// secret resolver *before* unmarshalling, so the model never stores Vault
// references, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • `Paths` is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds listener tunables for the public gate and the ops endpoint.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	MetricsAddr  string        `koanf:"metrics_addr"  validate:"omitempty,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gt=0"`
}

//
// Upstream section
//

// Upstream points at the page server that renders every allowed request.
type Upstream struct {
	URL string `koanf:"url" validate:"required,url"`
}

//
// Gate section
//

// Gate carries the routing surface: which hosts are root vs. tenant, which
// paths skip the rules, and which tenant paths stay reachable without a
// session.
type Gate struct {
	BaseDomain           string   `koanf:"base_domain"            validate:"required,hostname_rfc1123"`
	BypassPrefixes       []string `koanf:"bypass_prefixes"        validate:"dive,startswith=/"`
	TenantPublicPrefixes []string `koanf:"tenant_public_prefixes" validate:"dive,startswith=/"`
	TenantCookie         string   `koanf:"tenant_cookie"          validate:"required"`
	AdminCookie          string   `koanf:"admin_cookie"           validate:"required"`
	NotFoundPath         string   `koanf:"not_found_path"         validate:"required,startswith=/"`
	AdminLoginRewrite    string   `koanf:"admin_login_rewrite"    validate:"omitempty,startswith=/"`
}

//
// Status section
//

// Status selects and tunes the tenant status source.
//
// CacheTTL of zero keeps the per-request re-check.  A positive value turns
// on the in-process verdict cache.
type Status struct {
	Source          string        `koanf:"source"            validate:"oneof=http db"`
	APIBase         string        `koanf:"api_base"          validate:"omitempty,url"`
	EndpointPath    string        `koanf:"endpoint_path"     validate:"required,startswith=/"`
	TenantHeader    string        `koanf:"tenant_header"     validate:"required"`
	APIToken        string        `koanf:"api_token"`
	Timeout         time.Duration `koanf:"timeout"           validate:"gt=0"`
	CacheTTL        time.Duration `koanf:"cache_ttl"         validate:"gte=0"`
	CacheMaxEntries int64         `koanf:"cache_max_entries" validate:"gte=0"`
}

//
// Database section
//

// Database points at the control-plane schema holding the `site` table.
// Only required when Status.Source is "db".  The password is kept apart
// from the DSN so it can live in Vault.
type Database struct {
	DSN      string `koanf:"dsn"`
	Password string `koanf:"password"`
}

//
// Geo and Log sections
//

// Geo is optional; an empty DBPath disables the lookup.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

// Log selects the minimum level and the directory for daily files.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	Dir   string `koanf:"dir"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // KALAKO_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Upstream Upstream `koanf:"upstream"`
	Gate     Gate     `koanf:"gate"`
	Status   Status   `koanf:"status"`
	Database Database `koanf:"database"`
	Geo      Geo      `koanf:"geo"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`
}

// Defaults returns the baseline every layer overlays.  The path lists
// mirror the page server's static folders and its lock-out pages.
func Defaults() Config {
	return Config{
		HTTP: HTTP{
			ListenAddr:   ":8080",
			MetricsAddr:  ":9090",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Upstream: Upstream{URL: "http://127.0.0.1:3000"},
		Gate: Gate{
			BypassPrefixes:       []string{"/_next", "/favicon.ico", "/assets", "/public", "/landingpage"},
			TenantPublicPrefixes: []string{"/login", "/suspended", "/payments", "/api"},
			TenantCookie:         "token",
			AdminCookie:          "admin_token",
			NotFoundPath:         "/not",
		},
		Status: Status{
			Source:          "http",
			EndpointPath:    "/api/tenant/status",
			TenantHeader:    "X-Tenant",
			Timeout:         3 * time.Second,
			CacheMaxEntries: 10000,
		},
		Log: Log{Level: "info", Dir: "logs"},
	}
}
