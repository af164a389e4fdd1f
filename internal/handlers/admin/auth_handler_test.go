package admin

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edupegoretti/sitec/internal/audit"
	"github.com/edupegoretti/sitec/internal/auth"
	"github.com/edupegoretti/sitec/internal/middlewares"
	"github.com/edupegoretti/sitec/internal/ratelimit"
	"github.com/gofiber/fiber/v2"
)

const (
	testPassword   = "open sesame, but longer"
	testCookieName = "sitec_admin_session"
)

var (
	testCredential     string
	testCredentialOnce sync.Once
)

// credential derivation is deliberately slow, hash once for the whole package
func credentialRecord(t *testing.T) string {
	t.Helper()
	testCredentialOnce.Do(func() {
		record, err := auth.HashPassword(testPassword)
		if err != nil {
			t.Fatalf("HashPassword error: %v", err)
		}
		testCredential = record
	})
	return testCredential
}

type testEnv struct {
	app      *fiber.App
	sessions *auth.SessionManager
	limiter  *ratelimit.Limiter
	handler  *AuthHandler
}

func newTestEnv(t *testing.T, config AuthHandlerConfig) *testEnv {
	t.Helper()
	audit.Initialize(audit.NewLogOnlyRepository())

	if config.Cookie.Name == "" {
		config.Cookie = auth.CookieConfig{Name: testCookieName, MaxAge: 8 * time.Hour}
	}
	sessions := auth.NewSessionManager("handler-test-secret", 8*time.Hour)
	limiter := ratelimit.New(time.Minute, 5, ratelimit.WithGCProbability(0))
	handler := NewAuthHandler(config, sessions, limiter)

	app := fiber.New()
	app.Use(middlewares.AdminGate(testCookieName))
	app.Post("/api/admin/login", handler.PostLogin)
	app.Post("/api/admin/logout", handler.PostLogout)
	app.Get("/api/admin/session", middlewares.RequireSession(sessions, testCookieName), handler.GetSession)

	return &testEnv{app: app, sessions: sessions, limiter: limiter, handler: handler}
}

func loginRequestFrom(ip string, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", ip)
	return req
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t, AuthHandlerConfig{Credential: credentialRecord(t)})

	resp, err := env.app.Test(loginRequestFrom("1.2.3.4", `{"password":"`+testPassword+`"}`))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got %d want 200", resp.StatusCode)
	}
	setCookie := resp.Header.Get("Set-Cookie")
	if !strings.Contains(setCookie, testCookieName+"=") {
		t.Fatalf("success must set the session cookie, got %q", setCookie)
	}
	if !strings.Contains(setCookie, "HttpOnly") || !strings.Contains(setCookie, "SameSite=Strict") {
		t.Fatalf("cookie attributes missing: %q", setCookie)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t, AuthHandlerConfig{Credential: credentialRecord(t)})

	resp, err := env.app.Test(loginRequestFrom("1.2.3.4", `{"password":"nope"}`))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("got %d want 401", resp.StatusCode)
	}
	if resp.Header.Get("Set-Cookie") != "" {
		t.Fatalf("failed login must not set a cookie")
	}
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t, AuthHandlerConfig{Credential: credentialRecord(t)})

	for i := 0; i < 5; i++ {
		resp, err := env.app.Test(loginRequestFrom("1.2.3.4", `{"password":"wrong"}`), 5000)
		if err != nil {
			t.Fatalf("attempt %d: app.Test error: %v", i+1, err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: got %d want 401", i+1, resp.StatusCode)
		}
	}

	resp, err := env.app.Test(loginRequestFrom("1.2.3.4", `{"password":"wrong"}`))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("6th attempt: got %d want 429", resp.StatusCode)
	}
	retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || retryAfter < 1 {
		t.Fatalf("Retry-After must be a positive integer, got %q", resp.Header.Get("Retry-After"))
	}

	// a different client is unaffected
	resp, err = env.app.Test(loginRequestFrom("5.6.7.8", `{"password":"`+testPassword+`"}`), 5000)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("other client: got %d want 200", resp.StatusCode)
	}

	// after the window resets the correct password goes through
	env.limiter.Reset("login:1.2.3.4")
	resp, err = env.app.Test(loginRequestFrom("1.2.3.4", `{"password":"`+testPassword+`"}`), 5000)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("after reset: got %d want 200", resp.StatusCode)
	}
}

func TestLoginMissingCredentialConfig(t *testing.T) {
	env := newTestEnv(t, AuthHandlerConfig{Credential: ""})

	resp, err := env.app.Test(loginRequestFrom("1.2.3.4", `{"password":"anything"}`))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("got %d want 500", resp.StatusCode)
	}
}

func TestLoginMalformedBody(t *testing.T) {
	env := newTestEnv(t, AuthHandlerConfig{Credential: credentialRecord(t)})

	resp, err := env.app.Test(loginRequestFrom("1.2.3.4", `{not json`))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("got %d want 400", resp.StatusCode)
	}
}

func TestLoginFailureDelayBounds(t *testing.T) {
	env := newTestEnv(t, AuthHandlerConfig{
		Credential:   credentialRecord(t),
		FailDelayMin: 1000 * time.Millisecond,
		FailDelayMax: 1500 * time.Millisecond,
	})

	var slept time.Duration
	env.handler.sleep = func(d time.Duration) { slept = d }

	// delay applies to the wrong-password path
	resp, err := env.app.Test(loginRequestFrom("1.2.3.4", `{"password":"wrong"}`), 5000)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("got %d want 401", resp.StatusCode)
	}
	if slept < 1000*time.Millisecond || slept > 1500*time.Millisecond {
		t.Fatalf("failure delay out of bounds: %v", slept)
	}

	// and identically to the corrupt-record path
	env.handler.config.Credential = "not-a-valid-record"
	slept = 0
	resp, err = env.app.Test(loginRequestFrom("1.2.3.4", `{"password":"wrong"}`), 5000)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("corrupt record: got %d want 401, corrupt records must look like wrong passwords", resp.StatusCode)
	}
	if slept < 1000*time.Millisecond || slept > 1500*time.Millisecond {
		t.Fatalf("corrupt-record delay out of bounds: %v", slept)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	env := newTestEnv(t, AuthHandlerConfig{Credential: credentialRecord(t)})

	// no session at all: still 200, still clears the cookie
	req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got %d want 200", resp.StatusCode)
	}
	setCookie := resp.Header.Get("Set-Cookie")
	if !strings.Contains(setCookie, testCookieName+"=;") && !strings.Contains(setCookie, testCookieName+"=\"\"") {
		t.Fatalf("logout must clear the cookie, got %q", setCookie)
	}
}

func TestSessionEndpointFullVerification(t *testing.T) {
	env := newTestEnv(t, AuthHandlerConfig{Credential: credentialRecord(t)})

	// no cookie: stopped by the gate
	req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no cookie: got %d want 401", resp.StatusCode)
	}

	// expired-but-well-formed cookie: the gate lets it through, the full
	// verification layer is what rejects it
	expired := auth.NewSessionManager("handler-test-secret", -time.Hour)
	token, err := expired.Issue()
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	resp, err = env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expired cookie: got %d want 401", resp.StatusCode)
	}

	// valid session passes both layers
	token, err = env.sessions.Issue()
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	resp, err = env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("valid cookie: got %d want 200", resp.StatusCode)
	}
}

func TestClientIPDerivation(t *testing.T) {
	env := newTestEnv(t, AuthHandlerConfig{Credential: credentialRecord(t)})

	// X-Forwarded-For takes the first entry; exhausting one identity must not
	// affect the others
	for i := 0; i < 5; i++ {
		req := loginRequestFrom("9.9.9.9, 10.0.0.1", `{"password":"wrong"}`)
		if _, err := env.app.Test(req, 5000); err != nil {
			t.Fatalf("app.Test error: %v", err)
		}
	}
	resp, err := env.app.Test(loginRequestFrom("9.9.9.9", `{"password":"wrong"}`))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("same first-entry ip must share the bucket: got %d want 429", resp.StatusCode)
	}

	// X-Real-IP is the fallback
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Real-IP", "9.9.9.9")
	resp, err = env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("X-Real-IP must map to the same bucket: got %d want 429", resp.StatusCode)
	}
}
