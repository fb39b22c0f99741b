package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/auth"
)

var secret = []byte("test-secret")

func sign(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func serve(m *auth.Middleware, token string) (*httptest.ResponseRecorder, auth.User) {
	var seen auth.User
	h := m.Middleware()(m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = m.GetUser(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))
	req := httptest.NewRequest(http.MethodGet, "/pending", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestValidToken(t *testing.T) {
	t.Parallel()

	m := auth.New(secret, "unity", "bridge", time.Minute)
	tok := sign(t, secret, jwt.MapClaims{
		"sub":  "ops",
		"iss":  "unity",
		"aud":  "bridge",
		"role": "viewer",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, u := serve(m, tok)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "ops", u.Username)
	require.Equal(t, "viewer", u.Role.Name)
	require.Equal(t, "bearer", u.AuthenticationSource.Provider)
}

func TestRejectedTokens(t *testing.T) {
	t.Parallel()

	m := auth.New(secret, "unity", "", time.Second)
	now := time.Now()

	cases := map[string]string{
		"missing":      "",
		"wrong key":    sign(t, []byte("other"), jwt.MapClaims{"sub": "ops", "iss": "unity"}),
		"wrong issuer": sign(t, secret, jwt.MapClaims{"sub": "ops", "iss": "someone"}),
		"expired":      sign(t, secret, jwt.MapClaims{"sub": "ops", "iss": "unity", "exp": now.Add(-time.Hour).Unix()}),
		"no subject":   sign(t, secret, jwt.MapClaims{"iss": "unity"}),
		"garbage":      "not-a-jwt",
	}
	for name, tok := range cases {
		rec, _ := serve(m, tok)
		require.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestDisabledSecretRejectsEverything(t *testing.T) {
	t.Parallel()

	m := auth.New(nil, "", "", 0)
	require.False(t, m.Enabled())
	rec, _ := serve(m, sign(t, secret, jwt.MapClaims{"sub": "ops"}))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
