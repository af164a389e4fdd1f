package admin

import (
	"github.com/edupegoretti/sitec/internal/audit"
	"github.com/gofiber/fiber/v2"
)

// CacheHandler exposes content-cache invalidation to authenticated admins.
type CacheHandler struct {
	contentService ContentService
}

func NewCacheHandler(contentService ContentService) *CacheHandler {
	return &CacheHandler{
		contentService: contentService,
	}
}

type revalidateRequest struct {
	// Slugs limits invalidation to the listed content entries. Empty means
	// drop everything cached.
	Slugs []string `json:"slugs"`
}

type revalidateResponse struct {
	Revalidated bool     `json:"revalidated"`
	Slugs       []string `json:"slugs,omitempty"`
}

func (h *CacheHandler) PostRevalidate(ctx *fiber.Ctx) error {
	var req revalidateRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.ErrBadRequest
		}
	}

	h.contentService.Invalidate(ctx.Context(), req.Slugs...)
	audit.RecordRevalidate(ctx.Context(), audit.RevalidateRecord{
		IP:     clientIP(ctx),
		Source: "admin",
		Slugs:  req.Slugs,
	})
	return ctx.JSON(NewDataResponse(revalidateResponse{
		Revalidated: true,
		Slugs:       req.Slugs,
	}))
}
