// pkg/manifest/load.go
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Env keys that override the file.
const (
	EnvManifest   = "BRIDGE_MANIFEST"
	EnvTimeoutMS  = "BRIDGE_TIMEOUT_MS"
	EnvLogLevel   = "BRIDGE_LOG_LEVEL"
	EnvLogDir     = "BRIDGE_LOG_DIR"
	EnvDiagListen = "BRIDGE_DIAGNOSTICS_ADDRESS"
)

// Load reads and validates a TOML config. A missing file yields the
// defaults, since an embedding host may ship without one.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes and validates TOML bytes. Unknown keys are rejected.
func Parse(b []byte) (Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by BRIDGE_MANIFEST (or def), then
// applies env overrides and re-validates.
func LoadFromEnv(def string) (Config, error) {
	cfg, err := Load(envOr(EnvManifest, def))
	if err != nil {
		return Config{}, err
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeoutMS)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvTimeoutMS, err)
		}
		cfg.Bridge.TimeoutMS = n
	}
	cfg.Log.Level = envOr(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Dir = envOr(EnvLogDir, cfg.Log.Dir)
	cfg.Diagnostics.Address = envOr(EnvDiagListen, cfg.Diagnostics.Address)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
