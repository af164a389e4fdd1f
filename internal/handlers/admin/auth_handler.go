package admin

import (
	"log/slog"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/edupegoretti/sitec/internal/audit"
	"github.com/edupegoretti/sitec/internal/auth"
	"github.com/edupegoretti/sitec/internal/middlewares"
	"github.com/edupegoretti/sitec/internal/ratelimit"
	"github.com/gofiber/fiber/v2"
)

const (
	MsgIncorrectPassword = "Incorrect password."
	MsgTooManyAttempts   = "Too many attempts, try again later."
	MsgNotConfigured     = "Login is not available."
)

type AuthHandlerConfig struct {
	// Credential is the stored admin credential record. Empty means login is
	// unconfigured and every attempt answers 500.
	Credential string
	Cookie     auth.CookieConfig
	// FailDelay bounds the artificial pause on the failure path. The pause is
	// applied for every failure cause so response time carries no hint of why
	// verification failed.
	FailDelayMin time.Duration
	FailDelayMax time.Duration
}

// AuthHandler owns the admin login, logout and session endpoints.
type AuthHandler struct {
	config   AuthHandlerConfig
	sessions *auth.SessionManager
	limiter  *ratelimit.Limiter
	sleep    func(time.Duration)
}

func NewAuthHandler(config AuthHandlerConfig, sessions *auth.SessionManager, limiter *ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{
		config:   config,
		sessions: sessions,
		limiter:  limiter,
		sleep:    time.Sleep,
	}
}

// clientIP derives the throttling identifier from proxy headers. Anything
// without one lands in a shared "unknown" bucket.
func clientIP(ctx *fiber.Ctx) string {
	if fwd := ctx.Get(fiber.HeaderXForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if real := ctx.Get("X-Real-IP"); real != "" {
		return real
	}
	return "unknown"
}

func (h *AuthHandler) failDelay() {
	delay := h.config.FailDelayMin
	if jitter := h.config.FailDelayMax - h.config.FailDelayMin; jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(jitter)))
	}
	if delay > 0 {
		h.sleep(delay)
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AuthHandler) PostLogin(ctx *fiber.Ctx) error {
	var req loginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}

	ip := clientIP(ctx)
	res := h.limiter.Allow("login:" + ip)
	if !res.Allowed {
		retryAfter := int(math.Ceil(res.ResetIn.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		audit.RecordLogin(ctx.Context(), audit.LoginRecord{
			IP: ip, UserAgent: string(ctx.Request().Header.UserAgent()), Throttled: true,
		})
		return ctx.Status(fiber.StatusTooManyRequests).JSON(
			NewErrorResponse(fiber.StatusTooManyRequests, MsgTooManyAttempts),
		)
	}

	if h.config.Credential == "" {
		slog.Error("Admin credential is not configured, rejecting login")
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, MsgNotConfigured),
		)
	}

	if !auth.VerifyPassword(req.Password, h.config.Credential) {
		// same pause whether the password was wrong or the stored record is
		// corrupt, so timing reveals nothing about the cause
		h.failDelay()
		audit.RecordLogin(ctx.Context(), audit.LoginRecord{
			IP: ip, UserAgent: string(ctx.Request().Header.UserAgent()), Reason: "verification failed",
		})
		return ctx.Status(fiber.StatusUnauthorized).JSON(
			NewErrorResponse(fiber.StatusUnauthorized, MsgIncorrectPassword),
		)
	}

	token, err := h.sessions.Issue()
	if err != nil {
		slog.Error("Could not issue session token", "error", err)
		return fiber.ErrInternalServerError
	}
	auth.SetSessionCookie(ctx, h.config.Cookie, token)
	audit.RecordLogin(ctx.Context(), audit.LoginRecord{
		IP: ip, UserAgent: string(ctx.Request().Header.UserAgent()), Success: true,
	})
	return ctx.JSON(NewDataResponse(loginResponse{
		Success:   true,
		ExpiresAt: time.Now().Add(h.sessions.MaxAge()),
	}))
}

// PostLogout always clears the cookie and always reports success, even for
// anonymous callers. The cleared cookie is the outcome that matters.
func (h *AuthHandler) PostLogout(ctx *fiber.Ctx) error {
	auth.ClearSessionCookie(ctx, h.config.Cookie)
	return ctx.JSON(NewDataResponse(loginResponse{Success: true}))
}

type sessionResponse struct {
	Authenticated bool      `json:"authenticated"`
	IssuedAt      time.Time `json:"issuedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// GetSession reports the verified session behind RequireSession.
func (h *AuthHandler) GetSession(ctx *fiber.Ctx) error {
	claims := middlewares.SessionClaims(ctx)
	if claims == nil {
		return fiber.ErrUnauthorized
	}
	return ctx.JSON(NewDataResponse(sessionResponse{
		Authenticated: true,
		IssuedAt:      claims.IssuedAt.Time,
		ExpiresAt:     claims.ExpiresAt.Time,
	}))
}
