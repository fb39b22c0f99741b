package manifest

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
)

// Validate normalizes the config in place and range-checks it.
func (c *Config) Validate() error {
	if err := c.Bridge.validate(); err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	if err := c.Log.validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Diagnostics.validate(); err != nil {
		return fmt.Errorf("diagnostics: %w", err)
	}
	return nil
}

func (b *Bridge) validate() error {
	if b.TimeoutMS < 0 {
		return errors.New("timeout_ms must be >= 0")
	}
	return nil
}

func (l *Log) validate() error {
	l.Dir = strings.TrimSpace(l.Dir)
	if l.Dir == "" {
		l.Dir = DefaultLogDir
	}
	l.File = strings.TrimSpace(l.File)
	if l.File == "" {
		l.File = DefaultLogFile
	}
	if filepath.Base(l.File) != l.File {
		return fmt.Errorf("file %q must be a bare file name; use dir for the location", l.File)
	}
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	switch l.Level {
	case "":
		l.Level = DefaultLogLevel
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level %q invalid", l.Level)
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return errors.New("max_size_mb, max_backups and max_age_days must be >= 0")
	}
	if l.MaxSizeMB == 0 {
		l.MaxSizeMB = DefaultMaxSizeMB
	}
	if l.MaxBackups == 0 {
		l.MaxBackups = DefaultMaxBackups
	}
	if l.MaxAgeDays == 0 {
		l.MaxAgeDays = DefaultMaxAgeDays
	}
	return nil
}

func (d *Diagnostics) validate() error {
	d.Address = strings.TrimSpace(d.Address)
	if d.Address == "" {
		d.Address = DefaultDiagAddress
	}
	if _, _, err := net.SplitHostPort(d.Address); err != nil {
		return fmt.Errorf("address %q: %w", d.Address, err)
	}
	if d.RequireAuth && d.JWT == nil {
		d.JWT = &JWTConfig{}
	}
	if j := d.JWT; j != nil {
		j.SecretEnv = strings.TrimSpace(j.SecretEnv)
		if j.SecretEnv == "" {
			j.SecretEnv = DefaultJWTSecretEnv
		}
		if j.LeewaySec < 0 {
			return errors.New("jwt.leeway_seconds must be >= 0")
		}
		if j.LeewaySec == 0 {
			j.LeewaySec = DefaultJWTLeewaySec
		}
	}
	return nil
}
