package mail

import (
	"fmt"

	"github.com/edupegoretti/sitec/internal/render"
	"github.com/gofiber/fiber/v2"
)

type LeadNotification struct {
	Name       string
	Email      string
	Company    string
	Message    string
	SourcePage string
}

func SendLeadNotification(sender MailSender, toEmail string, lead LeadNotification) error {
	params := fiber.Map{
		"name":       lead.Name,
		"email":      lead.Email,
		"company":    lead.Company,
		"message":    lead.Message,
		"sourcePage": lead.SourcePage,
	}
	body, err := render.RenderHTML("mail/lead-notification", params)
	if err != nil {
		return err
	}
	return sender.Send(&Message{
		To:      []string{toEmail},
		Subject: fmt.Sprintf("New lead: %s", lead.Name),
		Body:    body,
		IsHTML:  true,
	})
}
