package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	sitecmail "github.com/edupegoretti/sitec/internal/mail"
	"github.com/edupegoretti/sitec/model"
	"github.com/google/uuid"
)

var (
	ErrInvalidSubmission = errors.New("invalid lead submission")
)

// Submission is a contact-form payload from the public site.
type Submission struct {
	Name       string
	Email      string
	Company    string
	Message    string
	SourcePage string
	IP         string
}

func (s *Submission) validate() error {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSubmission)
	}
	if _, err := mail.ParseAddress(s.Email); err != nil {
		return fmt.Errorf("%w: email is not valid", ErrInvalidSubmission)
	}
	return nil
}

type Config struct {
	// CRMWebhookURL receives each lead as JSON. Empty disables forwarding.
	CRMWebhookURL string
	CRMAuthToken  string
	// NotifyEmail receives a mail notification per lead. Empty disables mail.
	NotifyEmail string
}

// Service persists leads and fans them out to the CRM webhook sink and the
// notification mailbox. The database row is the source of truth; fan-out
// failures are logged and retried never, not surfaced to the visitor.
type Service struct {
	config     Config
	repo       LeadRepository
	mailSender sitecmail.MailSender
	httpClient *http.Client
}

func NewService(config Config, repo LeadRepository, mailSender sitecmail.MailSender) *Service {
	return &Service{
		config:     config,
		repo:       repo,
		mailSender: mailSender,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Submit validates and stores a lead, then forwards it. The returned lead
// carries the public id the CRM will see.
func (s *Service) Submit(ctx context.Context, sub Submission) (*model.Lead, error) {
	if err := sub.validate(); err != nil {
		return nil, err
	}

	lead := &model.Lead{
		ID:         model.GenerateID(),
		PublicID:   uuid.NewString(),
		Name:       sub.Name,
		Email:      sub.Email,
		Company:    strings.TrimSpace(sub.Company),
		Message:    strings.TrimSpace(sub.Message),
		SourcePage: sub.SourcePage,
		IP:         sub.IP,
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, err
	}

	if err := s.forwardToCRM(ctx, lead); err != nil {
		slog.Error("Could not forward lead to CRM", "lead", lead.PublicID, "error", err)
	} else if s.config.CRMWebhookURL != "" {
		if err := s.repo.MarkForwarded(ctx, lead.PublicID, time.Now()); err != nil {
			slog.Error("Could not mark lead as forwarded", "lead", lead.PublicID, "error", err)
		}
	}

	if err := s.notify(lead); err != nil {
		slog.Error("Could not send lead notification mail", "lead", lead.PublicID, "error", err)
	}
	return lead, nil
}

type crmLeadPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Company    string `json:"company,omitempty"`
	Message    string `json:"message,omitempty"`
	SourcePage string `json:"sourcePage,omitempty"`
}

func (s *Service) forwardToCRM(ctx context.Context, lead *model.Lead) error {
	if s.config.CRMWebhookURL == "" {
		return nil
	}
	payload, err := json.Marshal(crmLeadPayload{
		ID:         lead.PublicID,
		Name:       lead.Name,
		Email:      lead.Email,
		Company:    lead.Company,
		Message:    lead.Message,
		SourcePage: lead.SourcePage,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.CRMWebhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-ID", uuid.NewString())
	if s.config.CRMAuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.CRMAuthToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("crm webhook responded %d", resp.StatusCode)
	}
	return nil
}

func (s *Service) notify(lead *model.Lead) error {
	if s.mailSender == nil || s.config.NotifyEmail == "" {
		return nil
	}
	return sitecmail.SendLeadNotification(s.mailSender, s.config.NotifyEmail, sitecmail.LeadNotification{
		Name:       lead.Name,
		Email:      lead.Email,
		Company:    lead.Company,
		Message:    lead.Message,
		SourcePage: lead.SourcePage,
	})
}
