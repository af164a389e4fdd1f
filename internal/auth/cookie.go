package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// SetSessionCookie binds a session token to the browser as an HTTP-only,
// same-site-strict cookie scoped to the whole site.
func SetSessionCookie(ctx *fiber.Ctx, config CookieConfig, token string) {
	fcookie := fasthttp.AcquireCookie()
	fcookie.SetKey(config.Name)
	fcookie.SetValue(token)
	fcookie.SetPath("/")
	fcookie.SetSecure(config.Secure)
	fcookie.SetHTTPOnly(true)
	fcookie.SetSameSite(fasthttp.CookieSameSiteStrictMode)
	fcookie.SetMaxAge(int(config.MaxAge.Seconds()))
	fcookie.SetExpire(time.Now().Add(config.MaxAge))
	ctx.Response().Header.SetCookie(fcookie)
	fasthttp.ReleaseCookie(fcookie)
}

// ClearSessionCookie overwrites the session cookie with an empty, already
// expired value. The browser deleting it is the only logout mechanism; a
// captured token stays valid elsewhere until its natural expiry.
func ClearSessionCookie(ctx *fiber.Ctx, config CookieConfig) {
	fcookie := fasthttp.AcquireCookie()
	fcookie.SetKey(config.Name)
	fcookie.SetValue("")
	fcookie.SetPath("/")
	fcookie.SetSecure(config.Secure)
	fcookie.SetHTTPOnly(true)
	fcookie.SetSameSite(fasthttp.CookieSameSiteStrictMode)
	fcookie.SetMaxAge(-1)
	fcookie.SetExpire(time.Unix(0, 0))
	ctx.Response().Header.SetCookie(fcookie)
	fasthttp.ReleaseCookie(fcookie)
}
