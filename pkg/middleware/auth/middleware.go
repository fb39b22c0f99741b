package auth

import "time"

// Middleware verifies HS256 bearer tokens for the diagnostics server.
// A nil secret means no token can ever validate.
type Middleware struct {
	secret    []byte
	issuer    string
	audience  string
	leeway    time.Duration
	adminRole string
	devBypass bool
}

// New builds a Middleware directly; ProvideAuthentication is the fx path.
func New(secret []byte, issuer, audience string, leeway time.Duration) *Middleware {
	return &Middleware{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		leeway:   leeway,
	}
}

func (m *Middleware) Enabled() bool { return len(m.secret) > 0 }
