package middlewares

import (
	"net/url"
	"strings"

	"github.com/edupegoretti/sitec/params"
	"github.com/gofiber/fiber/v2"
)

// login and logout stay reachable without a cookie: login obviously, logout
// because it must succeed and clear the cookie even for an anonymous caller
var gateExemptPaths = map[string]bool{
	params.AdminPagePrefix + "/login": true,
	params.AdminAPIPrefix + "/login":  true,
	params.AdminAPIPrefix + "/logout": true,
}

func isAdminPath(path string) bool {
	return path == params.AdminPagePrefix ||
		strings.HasPrefix(path, params.AdminPagePrefix+"/") ||
		path == params.AdminAPIPrefix ||
		strings.HasPrefix(path, params.AdminAPIPrefix+"/")
}

// AdminGate short-circuits requests to admin paths that carry no session
// cookie at all. It checks presence only; verifying the signature and expiry
// is RequireSession's job inside the handler chain. A forged-but-present
// cookie passes the gate and fails there, so the gate stays fast and
// side-effect free without being the security boundary.
func AdminGate(cookieName string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		path := ctx.Path()
		if !isAdminPath(path) || gateExemptPaths[path] {
			return ctx.Next()
		}
		if ctx.Cookies(cookieName) != "" {
			return ctx.Next()
		}

		if strings.HasPrefix(path, params.AdminAPIPrefix) {
			return unauthorizedJSON(ctx)
		}
		return ctx.Redirect(params.AdminPagePrefix + "/login?redirect=" + url.QueryEscape(path))
	}
}

func unauthorizedJSON(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    fiber.StatusUnauthorized,
			"message": "Unauthorized",
		},
	})
}
