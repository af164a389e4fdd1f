package web

import (
	"errors"
	"log/slog"

	"github.com/edupegoretti/sitec/internal/content"
	"github.com/gofiber/fiber/v2"
)

// ContentHandler serves CMS-backed pages and blog posts as JSON for the
// frontend to render.
type ContentHandler struct {
	contentService ContentService
}

func NewContentHandler(contentService ContentService) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
	}
}

func mapContentError(err error) error {
	switch {
	case errors.Is(err, content.ErrNotFound):
		return fiber.ErrNotFound
	case errors.Is(err, content.ErrUnavailable):
		slog.Error("Content store unavailable", "error", err)
		return fiber.ErrBadGateway
	default:
		return err
	}
}

func (h *ContentHandler) GetPage(ctx *fiber.Ctx) error {
	page, err := h.contentService.GetPage(ctx.Context(), ctx.Params("slug"))
	if err != nil {
		return mapContentError(err)
	}
	return ctx.JSON(NewDataResponse(page))
}

func (h *ContentHandler) GetPost(ctx *fiber.Ctx) error {
	post, err := h.contentService.GetPost(ctx.Context(), ctx.Params("slug"))
	if err != nil {
		return mapContentError(err)
	}
	return ctx.JSON(NewDataResponse(post))
}

func (h *ContentHandler) ListPosts(ctx *fiber.Ctx) error {
	posts, err := h.contentService.ListPosts(ctx.Context())
	if err != nil {
		return mapContentError(err)
	}
	return ctx.JSON(NewDataResponse(posts))
}
