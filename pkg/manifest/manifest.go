// manifest/manifest.go
package manifest

/* ===========================
   Top-level config
   =========================== */

// Config is the bridge.toml document. Every section is optional; zero
// values are filled in by Validate.
type Config struct {
	Bridge      Bridge      `toml:"bridge"`
	Log         Log         `toml:"log"`
	Diagnostics Diagnostics `toml:"diagnostics"`
}

/* ===========================
   Correlation / requests
   =========================== */

type Bridge struct {
	// TimeoutMS bounds each request; 0 waits until the host answers.
	TimeoutMS int `toml:"timeout_ms"`
	// CancelOnStop fails every pending request when the app stops.
	CancelOnStop *bool `toml:"cancel_on_stop"`
}

/* ===========================
   Logging
   =========================== */

type Log struct {
	Dir        string `toml:"dir"`   // default "log"
	File       string `toml:"file"`  // default "bridge.log"
	Level      string `toml:"level"` // debug|info|warn|error (default info)
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Console    *bool  `toml:"console"` // default true
}

/* ===========================
   Diagnostics HTTP surface
   =========================== */

type Diagnostics struct {
	Enable      bool       `toml:"enable"`
	Address     string     `toml:"address"` // default "127.0.0.1:9464"
	RequireAuth bool       `toml:"require_auth"`
	JWT         *JWTConfig `toml:"jwt"`
}

type JWTConfig struct {
	SecretEnv string `toml:"secret_env"` // env var holding the HMAC secret (default BRIDGE_JWT_SECRET)
	Issuer    string `toml:"issuer"`
	Audience  string `toml:"audience"`
	LeewaySec int    `toml:"leeway_seconds"`
}

// Defaults.
const (
	DefaultLogDir       = "log"
	DefaultLogFile      = "bridge.log"
	DefaultLogLevel     = "info"
	DefaultMaxSizeMB    = 50
	DefaultMaxBackups   = 3
	DefaultMaxAgeDays   = 7
	DefaultDiagAddress  = "127.0.0.1:9464"
	DefaultJWTSecretEnv = "BRIDGE_JWT_SECRET"
	DefaultJWTLeewaySec = 60
)

// Default returns a validated config with every default applied.
func Default() Config {
	var c Config
	_ = c.Validate()
	return c
}

func (b Bridge) ShouldCancelOnStop() bool {
	return b.CancelOnStop == nil || *b.CancelOnStop
}

func (l Log) ConsoleEnabled() bool {
	return l.Console == nil || *l.Console
}
