package model

import "time"

type AuditEvent struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	EventType string    `gorm:"size:64;not null;index"` // login_success, login_failure, cache_revalidate...
	Reason    string    `gorm:"size:512"`               // failure reason or context
	IP        string    `gorm:"size:45;not null"`       // IPv4/IPv6
	UserAgent string    `gorm:"size:512"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (AuditEvent) TableName() string {
	return "audit"
}
