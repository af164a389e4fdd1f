package web

import (
	"errors"
	"log/slog"

	"github.com/edupegoretti/sitec/internal/leads"
	"github.com/gofiber/fiber/v2"
)

const MsgInvalidLead = "Please provide a name and a valid email address."

type LeadHandler struct {
	leadService LeadService
}

func NewLeadHandler(leadService LeadService) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
	}
}

type leadRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Company    string `json:"company"`
	Message    string `json:"message"`
	SourcePage string `json:"sourcePage"`
}

type leadResponse struct {
	ID string `json:"id"`
}

func (h *LeadHandler) PostLead(ctx *fiber.Ctx) error {
	var req leadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}

	lead, err := h.leadService.Submit(ctx.Context(), leads.Submission{
		Name:       req.Name,
		Email:      req.Email,
		Company:    req.Company,
		Message:    req.Message,
		SourcePage: req.SourcePage,
		IP:         ctx.IP(),
	})
	if err != nil {
		if errors.Is(err, leads.ErrInvalidSubmission) {
			return ctx.Status(fiber.StatusBadRequest).JSON(
				NewErrorResponse(fiber.StatusBadRequest, MsgInvalidLead),
			)
		}
		slog.Error("Could not store lead", "error", err)
		return fiber.ErrInternalServerError
	}
	return ctx.Status(fiber.StatusCreated).JSON(NewDataResponse(leadResponse{ID: lead.PublicID}))
}
