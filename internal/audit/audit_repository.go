package audit

import (
	"context"
	"log/slog"

	"github.com/edupegoretti/sitec/model"
	"gorm.io/gorm"
)

type AuditEventRepository interface {
	RecordEvent(ctx context.Context, event *model.AuditEvent) error
}

type auditEventRepository struct {
	db *gorm.DB
}

func (r *auditEventRepository) RecordEvent(ctx context.Context, event *model.AuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func NewAuditEventRepository(db *gorm.DB) AuditEventRepository {
	return &auditEventRepository{
		db: db,
	}
}

// logOnlyRepository is the fallback when no database is configured: events go
// to the structured log and nowhere else.
type logOnlyRepository struct{}

func (logOnlyRepository) RecordEvent(_ context.Context, event *model.AuditEvent) error {
	slog.Info("Audit event", "type", event.EventType, "ip", event.IP, "reason", event.Reason)
	return nil
}

func NewLogOnlyRepository() AuditEventRepository {
	return logOnlyRepository{}
}
