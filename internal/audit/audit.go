package audit

import (
	"context"
	"strings"
	"sync"

	"github.com/edupegoretti/sitec/model"
)

var auditRepo AuditEventRepository
var initOnce sync.Once

func Initialize(repo AuditEventRepository) {
	initOnce.Do(func() {
		auditRepo = repo
	})
}

const (
	EventTypeLoginSuccess    = "login_success"
	EventTypeLoginFailure    = "login_failure"
	EventTypeLoginThrottled  = "login_throttled"
	EventTypeCacheRevalidate = "cache_revalidate"
)

type LoginRecord struct {
	IP        string
	UserAgent string
	Success   bool
	Throttled bool
	Reason    string
}

type RevalidateRecord struct {
	IP     string
	Source string // admin or webhook
	Slugs  []string
}

func RecordLogin(ctx context.Context, record LoginRecord) error {
	eventType := EventTypeLoginFailure
	if record.Success {
		eventType = EventTypeLoginSuccess
	}
	if record.Throttled {
		eventType = EventTypeLoginThrottled
	}
	return auditRepo.RecordEvent(ctx, &model.AuditEvent{
		EventType: eventType,
		IP:        record.IP,
		UserAgent: record.UserAgent,
		Reason:    record.Reason,
	})
}

func RecordRevalidate(ctx context.Context, record RevalidateRecord) error {
	reason := record.Source + ": all"
	if len(record.Slugs) > 0 {
		reason = record.Source + ": " + strings.Join(record.Slugs, ",")
	}
	return auditRepo.RecordEvent(ctx, &model.AuditEvent{
		EventType: EventTypeCacheRevalidate,
		IP:        record.IP,
		Reason:    reason,
	})
}
