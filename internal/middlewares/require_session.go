package middlewares

import (
	"net/url"
	"strings"

	"github.com/edupegoretti/sitec/internal/auth"
	"github.com/edupegoretti/sitec/params"
	"github.com/gofiber/fiber/v2"
)

const sessionClaimsKey = "adminSessionClaims"

// RequireSession is the authoritative check behind AdminGate: it verifies the
// session token cryptographically and rejects anything the cheap
// presence-only gate let through.
func RequireSession(sessions *auth.SessionManager, cookieName string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims := sessions.Verify(ctx.Cookies(cookieName))
		if claims == nil {
			if strings.HasPrefix(ctx.Path(), params.AdminAPIPrefix) {
				return unauthorizedJSON(ctx)
			}
			return ctx.Redirect(params.AdminPagePrefix + "/login?redirect=" + url.QueryEscape(ctx.Path()))
		}
		ctx.Locals(sessionClaimsKey, claims)
		return ctx.Next()
	}
}

// SessionClaims returns the verified claims stored by RequireSession, or nil
// when the request never passed it.
func SessionClaims(ctx *fiber.Ctx) *auth.SessionClaims {
	claims, _ := ctx.Locals(sessionClaimsKey).(*auth.SessionClaims)
	return claims
}
