package model

import "time"

// Lead is a contact-form submission from the public site. The database row is
// the source of truth; CRM forwarding and mail notification are best-effort.
type Lead struct {
	ID          uint      `gorm:"primaryKey"`
	PublicID    string    `gorm:"size:36;uniqueIndex;not null"` // uuid exposed to the CRM
	Name        string    `gorm:"size:128;not null"`
	Email       string    `gorm:"size:254;not null;index"`
	Company     string    `gorm:"size:128"`
	Message     string    `gorm:"size:4096"`
	SourcePage  string    `gorm:"size:512"` // page the form was submitted from
	IP          string    `gorm:"size:45"`
	Forwarded   bool      `gorm:"not null;default:false"` // delivered to the CRM webhook
	ForwardedAt time.Time `gorm:""`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Lead) TableName() string {
	return "lead"
}
