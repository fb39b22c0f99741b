package auth

import (
	"os"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-bridge/pkg/manifest"
)

// ProvideAuthentication wires the diagnostics token check from config.
// The HMAC secret is read from the env var named in [diagnostics.jwt].
func ProvideAuthentication(cfg manifest.Config, log *zap.Logger) *Middleware {
	m := &Middleware{
		adminRole: strings.TrimSpace(os.Getenv("ADMIN_ROLE_NAME")),
		devBypass: os.Getenv("BRIDGE_AUTH_DEV_BYPASS") == "true",
	}
	j := cfg.Diagnostics.JWT
	if j == nil {
		return m
	}
	m.secret = []byte(strings.TrimSpace(os.Getenv(j.SecretEnv)))
	m.issuer = j.Issuer
	m.audience = j.Audience
	m.leeway = time.Duration(j.LeewaySec) * time.Second

	if !m.Enabled() && cfg.Diagnostics.RequireAuth {
		// Non-fatal: every protected request will be refused.
		log.Error("diagnostics require_auth set but token secret is empty", zap.String("env", j.SecretEnv))
	}
	return m
}

var Module = fx.Options(
	fx.Provide(ProvideAuthentication),
)
