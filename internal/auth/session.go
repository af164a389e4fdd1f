package auth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// insecureFallbackSecret keeps the session manager functional when no signing
// secret is configured. Tokens signed with it are worthless; startup code must
// check Insecure() and refuse production traffic.
const insecureFallbackSecret = "sitec-insecure-session-secret"

type SessionClaims struct {
	// Authenticated is a fixed marker. Its presence as exactly true is what
	// verification checks; there are no per-user claims for a single admin.
	Authenticated bool `json:"authenticated"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies the signed admin session token. Sessions
// are stateless: validity is signature plus expiry, nothing is stored server
// side and nothing survives to revoke a stolen token before it expires.
type SessionManager struct {
	secret   []byte
	maxAge   time.Duration
	insecure bool
	now      func() time.Time
}

func NewSessionManager(secret string, maxAge time.Duration) *SessionManager {
	insecure := secret == ""
	if insecure {
		slog.Warn("SESSION SECRET NOT CONFIGURED: falling back to a built-in insecure secret, admin sessions are NOT secure")
		secret = insecureFallbackSecret
	}
	return &SessionManager{
		secret:   []byte(secret),
		maxAge:   maxAge,
		insecure: insecure,
		now:      time.Now,
	}
}

// Insecure reports whether the manager is running on the fallback secret.
func (m *SessionManager) Insecure() bool {
	return m.insecure
}

func (m *SessionManager) MaxAge() time.Duration {
	return m.maxAge
}

// Issue creates a signed session token asserting a successful admin login at
// the current time, expiring maxAge later.
func (m *SessionManager) Issue() (string, error) {
	now := m.now()
	claims := SessionClaims{
		Authenticated: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify validates signature, expiry and payload shape in one step. Malformed,
// tampered and expired tokens all come back as nil; no failure detail crosses
// this boundary.
func (m *SessionManager) Verify(tokenStr string) *SessionClaims {
	claims := SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil
	}
	if !claims.Authenticated || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil
	}
	return &claims
}
