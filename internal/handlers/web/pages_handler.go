package web

import (
	"time"

	"github.com/edupegoretti/sitec/internal/auth"
	"github.com/edupegoretti/sitec/internal/middlewares"
	"github.com/edupegoretti/sitec/internal/render"
	"github.com/gofiber/fiber/v2"
)

// PagesHandler renders the handful of server-side pages: the public home
// shell and the admin login/dashboard.
type PagesHandler struct {
	siteName   string
	sessions   *auth.SessionManager
	cookieName string
}

func NewPagesHandler(siteName string, sessions *auth.SessionManager, cookieName string) *PagesHandler {
	return &PagesHandler{
		siteName:   siteName,
		sessions:   sessions,
		cookieName: cookieName,
	}
}

func (h *PagesHandler) GetHome(ctx *fiber.Ctx) error {
	return ctx.Render("home", fiber.Map{
		"siteName": h.siteName,
	})
}

func (h *PagesHandler) GetLogin(ctx *fiber.Ctx) error {
	// an already authenticated admin has no business on the login page
	if h.sessions.Verify(ctx.Cookies(h.cookieName)) != nil {
		return ctx.Redirect("/admin")
	}
	return render.RenderLoginPage(ctx, render.LoginPageData{
		Redirect: ctx.Query("redirect"),
	})
}

func (h *PagesHandler) GetDashboard(ctx *fiber.Ctx) error {
	claims := middlewares.SessionClaims(ctx)
	if claims == nil {
		return fiber.ErrUnauthorized
	}
	return render.RenderDashboardPage(ctx, render.DashboardPageData{
		SessionIssuedAt: claims.IssuedAt.Time.Format(time.RFC1123),
		SessionExpires:  claims.ExpiresAt.Time.Format(time.RFC1123),
	})
}
