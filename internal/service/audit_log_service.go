package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/thierry1804/toa-permit/internal/model"
	"github.com/thierry1804/toa-permit/internal/repository"
)

// AuditLogService writes the append-only audit trail. Recording failures
// never block the operation being audited; callers ignore the error at
// their discretion.
type AuditLogService interface {
	RecordAction(ctx context.Context, userID string, action string, resourceType string, resourceID string, details interface{}) error
}

// auditLogService is the repository-backed implementation.
type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService creates the audit log service.
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

// RecordAction appends one audit entry, pulling request metadata from the
// context when the HTTP middleware put it there.
func (s *auditLogService) RecordAction(
	ctx context.Context,
	userID string,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	if s.auditRepo == nil {
		return nil
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    stringFromContext(ctx, "request_id"),
		IP:           stringFromContext(ctx, "ip"),
		UserAgent:    stringFromContext(ctx, "user_agent"),
		Details:      detailsJSON,
		CreatedAt:    time.Now(),
	}

	return s.auditRepo.Save(auditLog)
}

// stringFromContext reads a string value from the context, empty if unset.
func stringFromContext(ctx context.Context, key string) string {
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
