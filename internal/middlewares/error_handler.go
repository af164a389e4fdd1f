package middlewares

import (
	"log/slog"
	"strings"

	"github.com/edupegoretti/sitec/internal/render"
	"github.com/gofiber/fiber/v2"
)

func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// API consumers get generic JSON, browsers get rendered error pages.
	// Neither carries failure detail beyond the status.
	if strings.HasPrefix(ctx.Path(), "/api/") {
		if code == fiber.StatusInternalServerError {
			slog.Error("unhandled error", "path", ctx.Path(), "code", code, "error", err)
		}
		return ctx.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    code,
				"message": fiber.NewError(code).Message,
			},
		})
	}

	switch code {
	case fiber.StatusBadRequest:
		return render.RenderBadRequestErrorPage(ctx)
	case fiber.StatusForbidden:
		return render.RenderForbiddenErrorPage(ctx)
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return render.RenderNotFoundErrorPage(ctx)
	default:
		slog.Error("unhandled error", "path", ctx.Path(), "code", code, "error", err)
		return render.RenderInternalServerErrorPage(ctx)
	}
}
