package web

import (
	"encoding/json"

	"github.com/edupegoretti/sitec/internal/audit"
	"github.com/edupegoretti/sitec/internal/common"
	"github.com/gofiber/fiber/v2"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body,
// computed by the CMS with the shared webhook secret.
const SignatureHeader = "X-Sitec-Signature"

// WebhookHandler receives content-change notifications from the headless CMS
// and invalidates the affected cache entries.
type WebhookHandler struct {
	secret         string
	contentService ContentService
}

func NewWebhookHandler(secret string, contentService ContentService) *WebhookHandler {
	return &WebhookHandler{
		secret:         secret,
		contentService: contentService,
	}
}

type webhookPayload struct {
	Event string   `json:"event"`
	Slugs []string `json:"slugs"`
}

func (h *WebhookHandler) PostRevalidate(ctx *fiber.Ctx) error {
	if h.secret == "" {
		// without a shared secret the webhook cannot be authenticated at all
		return fiber.ErrServiceUnavailable
	}

	body := ctx.Body()
	if !common.VerifyHash(h.secret, ctx.Get(SignatureHeader), body) {
		return fiber.ErrUnauthorized
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fiber.ErrBadRequest
	}

	h.contentService.Invalidate(ctx.Context(), payload.Slugs...)
	audit.RecordRevalidate(ctx.Context(), audit.RevalidateRecord{
		IP:     ctx.IP(),
		Source: "webhook",
		Slugs:  payload.Slugs,
	})
	return ctx.JSON(NewDataResponse(fiber.Map{"revalidated": true}))
}
