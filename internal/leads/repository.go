package leads

import (
	"context"
	"sync"
	"time"

	"github.com/edupegoretti/sitec/model"
	"gorm.io/gorm"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *model.Lead) error
	MarkForwarded(ctx context.Context, publicID string, at time.Time) error
}

type leadRepository struct {
	db *gorm.DB
}

func (r *leadRepository) Create(ctx context.Context, lead *model.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *leadRepository) MarkForwarded(ctx context.Context, publicID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Lead{}).
		Where("public_id = ?", publicID).
		Updates(map[string]any{"forwarded": true, "forwarded_at": at}).Error
}

func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{
		db: db,
	}
}

// memoryLeadRepository backs the service when no database is configured and
// in tests. Leads are lost on restart; the forwarded CRM copy is then the
// only durable record.
type memoryLeadRepository struct {
	mu    sync.Mutex
	leads []*model.Lead
}

func (r *memoryLeadRepository) Create(_ context.Context, lead *model.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *lead
	r.leads = append(r.leads, &stored)
	return nil
}

func (r *memoryLeadRepository) MarkForwarded(_ context.Context, publicID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lead := range r.leads {
		if lead.PublicID == publicID {
			lead.Forwarded = true
			lead.ForwardedAt = at
		}
	}
	return nil
}

// All returns a snapshot of stored leads, used by tests.
func (r *memoryLeadRepository) All() []*model.Lead {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		stored := *lead
		out = append(out, &stored)
	}
	return out
}

func NewMemoryLeadRepository() *memoryLeadRepository {
	return &memoryLeadRepository{}
}
