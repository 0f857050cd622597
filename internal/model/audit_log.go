package model

import (
	"errors"
	"time"
)

// AuditLogModel records every mutating operation on a permit or
// intervention record: who did what, to which resource, from where.
type AuditLogModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	UserID       string    `gorm:"type:varchar(128);not null;index"`
	Action       string    `gorm:"type:varchar(64);not null;index"` // create/update/delete/submit/validate_chef/validate_hse/reject/start/close/expire
	ResourceType string    `gorm:"type:varchar(32);not null"`       // permit/daily_validation/take5
	ResourceID   string    `gorm:"type:varchar(64);not null;index"`
	RequestID    string    `gorm:"type:varchar(64);index"`
	IP           string    `gorm:"type:varchar(45)"` // IPv4 or IPv6
	UserAgent    string    `gorm:"type:text"`
	Details      []byte    `gorm:"type:jsonb"`
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName returns the audit logs table name.
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// Validate checks the required fields.
func (alm *AuditLogModel) Validate() error {
	if alm.ID == "" {
		return errors.New("audit log ID is required")
	}
	if alm.UserID == "" {
		return errors.New("user ID is required")
	}
	if alm.Action == "" {
		return errors.New("action is required")
	}
	if alm.ResourceType == "" {
		return errors.New("resource type is required")
	}
	if alm.ResourceID == "" {
		return errors.New("resource ID is required")
	}
	return nil
}
