package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thierry1804/toa-permit/internal/metrics"
	"github.com/thierry1804/toa-permit/internal/model"
	"github.com/thierry1804/toa-permit/internal/notify"
	"github.com/thierry1804/toa-permit/internal/repository"
	"github.com/thierry1804/toa-permit/internal/utils"
	"github.com/thierry1804/toa-permit/internal/workflow"
)

// PermitService exposes permit CRUD and the workflow commands. All status
// changes go through the workflow engine; the service adds audit logging,
// metrics and status-change notifications around it.
type PermitService interface {
	Create(ctx context.Context, req *CreatePermitRequest) (*PermitView, error)
	Get(id string) (*PermitView, error)
	List(filter *repository.PermitFilter) ([]*PermitView, error)
	Update(ctx context.Context, id string, req *UpdatePermitRequest) (*PermitView, error)
	Delete(ctx context.Context, id string, actor workflow.Actor) error

	Submit(ctx context.Context, id string, actor workflow.Actor) (*PermitView, error)
	ValidateByChef(ctx context.Context, id string, actor workflow.Actor, comment string) (*PermitView, error)
	ValidateByHSE(ctx context.Context, id string, actor workflow.Actor, comment string) (*PermitView, error)
	Reject(ctx context.Context, id string, actor workflow.Actor, reason string) (*PermitView, error)
	Start(ctx context.Context, id string, actor workflow.Actor) (*PermitView, error)
	Close(ctx context.Context, id string, actor workflow.Actor, comment string) (*PermitView, error)

	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// CreatePermitRequest creates a permit or prevention plan in draft.
type CreatePermitRequest struct {
	Category         string          `json:"category" binding:"required"`
	Title            string          `json:"title" binding:"required"`
	SiteCode         string          `json:"site_code"`
	SiteName         string          `json:"site_name"`
	Region           string          `json:"region"`
	Contractor       string          `json:"contractor"`
	WorkerCount      int             `json:"worker_count"`
	PlanPreventionID string          `json:"plan_prevention_id,omitempty"`
	StartDate        time.Time       `json:"start_date" binding:"required"`
	EndDate          time.Time       `json:"end_date" binding:"required"`
	SubmittedBy      string          `json:"submitted_by" binding:"required"`
	Payload          json.RawMessage `json:"payload,omitempty"` // category-specific form content
}

// UpdatePermitRequest edits a draft. Nil fields are left untouched.
type UpdatePermitRequest struct {
	Title       *string         `json:"title,omitempty"`
	SiteCode    *string         `json:"site_code,omitempty"`
	SiteName    *string         `json:"site_name,omitempty"`
	Region      *string         `json:"region,omitempty"`
	Contractor  *string         `json:"contractor,omitempty"`
	WorkerCount *int            `json:"worker_count,omitempty"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Notifier receives status-change events; satisfied by *notify.Hub.
type Notifier interface {
	BroadcastEvent(event notify.Event)
}

// permitService is the default implementation.
type permitService struct {
	engine      *workflow.Engine
	permitRepo  repository.PermitRepository
	auditLogSvc AuditLogService
	notifier    Notifier
}

// NewPermitService creates the permit service. notifier may be nil.
func NewPermitService(engine *workflow.Engine, permitRepo repository.PermitRepository, auditLogSvc AuditLogService, notifier Notifier) PermitService {
	return &permitService{
		engine:      engine,
		permitRepo:  permitRepo,
		auditLogSvc: auditLogSvc,
		notifier:    notifier,
	}
}

// Create mints an internal number and stores the record in draft.
func (s *permitService) Create(ctx context.Context, req *CreatePermitRequest) (*PermitView, error) {
	prefix, ok := model.NumberPrefixes[req.Category]
	if !ok {
		return nil, fmt.Errorf("%w: unknown permit category %q", ErrValidation, req.Category)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("%w: end_date must be after start_date", ErrValidation)
	}
	title, err := cleanTitle(req.Title)
	if err != nil {
		return nil, err
	}
	siteName, err := cleanOptional(req.SiteName)
	if err != nil {
		return nil, fmt.Errorf("%w: site_name: %s", ErrValidation, err)
	}
	contractor, err := cleanOptional(req.Contractor)
	if err != nil {
		return nil, fmt.Errorf("%w: contractor: %s", ErrValidation, err)
	}

	now := time.Now()
	number, err := s.permitRepo.NextNumber(prefix, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mint permit number: %w", err)
	}

	permit := &model.PermitModel{
		ID:               uuid.New().String(),
		Category:         req.Category,
		Number:           number,
		Status:           string(workflow.StatusDraft),
		SubmittedBy:      req.SubmittedBy,
		Title:            title,
		SiteCode:         req.SiteCode,
		SiteName:         siteName,
		Region:           req.Region,
		Contractor:       contractor,
		WorkerCount:      req.WorkerCount,
		PlanPreventionID: req.PlanPreventionID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Payload:          []byte(req.Payload),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.permitRepo.Create(permit); err != nil {
		return nil, fmt.Errorf("failed to create permit: %w", err)
	}

	metrics.RecordPermitCreated(req.Category)
	s.audit(ctx, req.SubmittedBy, "create", permit.ID, map[string]string{
		"category": permit.Category,
		"number":   permit.Number,
		"site":     permit.SiteCode,
	})

	return NewPermitView(permit), nil
}

// Get returns one record.
func (s *permitService) Get(id string) (*PermitView, error) {
	permit, err := s.permitRepo.Get(id)
	if err != nil {
		return nil, err
	}
	return NewPermitView(permit), nil
}

// List returns records matching the filter.
func (s *permitService) List(filter *repository.PermitFilter) ([]*PermitView, error) {
	permits, err := s.permitRepo.FindByFilter(filter)
	if err != nil {
		return nil, err
	}
	views := make([]*PermitView, 0, len(permits))
	for _, p := range permits {
		views = append(views, NewPermitView(p))
	}
	return views, nil
}

// Update edits a draft. Records past draft are frozen for the submitter;
// only workflow commands may touch them.
func (s *permitService) Update(ctx context.Context, id string, req *UpdatePermitRequest) (*PermitView, error) {
	permit, err := s.permitRepo.Get(id)
	if err != nil {
		return nil, err
	}
	if workflow.Status(permit.Status) != workflow.StatusDraft {
		return nil, fmt.Errorf("%w: only drafts can be edited, status is %q", workflow.ErrInvalidState, permit.Status)
	}

	if req.Title != nil {
		title, err := cleanTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		permit.Title = title
	}
	if req.SiteCode != nil {
		permit.SiteCode = *req.SiteCode
	}
	if req.SiteName != nil {
		siteName, err := cleanOptional(*req.SiteName)
		if err != nil {
			return nil, fmt.Errorf("%w: site_name: %s", ErrValidation, err)
		}
		permit.SiteName = siteName
	}
	if req.Region != nil {
		permit.Region = *req.Region
	}
	if req.Contractor != nil {
		contractor, err := cleanOptional(*req.Contractor)
		if err != nil {
			return nil, fmt.Errorf("%w: contractor: %s", ErrValidation, err)
		}
		permit.Contractor = contractor
	}
	if req.WorkerCount != nil {
		permit.WorkerCount = *req.WorkerCount
	}
	if req.StartDate != nil {
		permit.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		permit.EndDate = *req.EndDate
	}
	if req.Payload != nil {
		permit.Payload = []byte(req.Payload)
	}
	permit.UpdatedAt = time.Now()

	if err := s.permitRepo.Update(permit); err != nil {
		return nil, fmt.Errorf("failed to update permit: %w", err)
	}

	s.audit(ctx, permit.SubmittedBy, "update", permit.ID, map[string]string{"number": permit.Number})
	return NewPermitView(permit), nil
}

// Delete removes a draft. Anything past draft is part of the audit trail
// and is never physically deleted.
func (s *permitService) Delete(ctx context.Context, id string, actor workflow.Actor) error {
	permit, err := s.permitRepo.Get(id)
	if err != nil {
		return err
	}
	if workflow.Status(permit.Status) != workflow.StatusDraft {
		return fmt.Errorf("%w: only drafts can be deleted, status is %q", workflow.ErrInvalidState, permit.Status)
	}

	if err := s.permitRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete permit: %w", err)
	}

	s.audit(ctx, actor.Name, "delete", id, map[string]string{"number": permit.Number})
	return nil
}

// Submit moves a draft into the approval chain.
func (s *permitService) Submit(ctx context.Context, id string, actor workflow.Actor) (*PermitView, error) {
	permit, err := s.engine.Submit(id, actor)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, permit, "submit", actor)
	return NewPermitView(permit), nil
}

// ValidateByChef records the chef de projet approval.
func (s *permitService) ValidateByChef(ctx context.Context, id string, actor workflow.Actor, comment string) (*PermitView, error) {
	permit, err := s.engine.ValidateByChef(id, actor, comment)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, permit, "validate_chef", actor)
	return NewPermitView(permit), nil
}

// ValidateByHSE records the HSE approval and the assigned reference.
func (s *permitService) ValidateByHSE(ctx context.Context, id string, actor workflow.Actor, comment string) (*PermitView, error) {
	permit, err := s.engine.ValidateByHSE(id, actor, comment)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, permit, "validate_hse", actor)
	return NewPermitView(permit), nil
}

// Reject terminates a record awaiting approval.
func (s *permitService) Reject(ctx context.Context, id string, actor workflow.Actor, reason string) (*PermitView, error) {
	permit, err := s.engine.Reject(id, actor, reason)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, permit, "reject", actor)
	return NewPermitView(permit), nil
}

// Start marks field work as begun.
func (s *permitService) Start(ctx context.Context, id string, actor workflow.Actor) (*PermitView, error) {
	permit, err := s.engine.Start(id, actor)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, permit, "start", actor)
	return NewPermitView(permit), nil
}

// Close ends the permit lifecycle.
func (s *permitService) Close(ctx context.Context, id string, actor workflow.Actor, comment string) (*PermitView, error) {
	permit, err := s.engine.Close(id, actor, comment)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, permit, "close", actor)
	return NewPermitView(permit), nil
}

// ExpireDue expires every validated or in-progress permit whose end date
// has passed, returning how many were expired. Called by the sweeper.
func (s *permitService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.permitRepo.FindExpirable(now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expirable permits: %w", err)
	}

	expired := 0
	for _, p := range due {
		permit, err := s.engine.Expire(p.ID)
		if err != nil {
			// another actor may have closed it meanwhile; skip, keep sweeping
			continue
		}
		expired++
		s.afterTransition(ctx, permit, "expire", workflow.Actor{Name: "system"})
	}
	return expired, nil
}

// afterTransition records audit, metrics and notifications for a
// successful status change.
func (s *permitService) afterTransition(ctx context.Context, permit *model.PermitModel, action string, actor workflow.Actor) {
	metrics.RecordTransition(action)

	s.audit(ctx, actor.Name, action, permit.ID, map[string]string{
		"number":    permit.Number,
		"status":    permit.Status,
		"reference": permit.Reference,
	})

	if s.notifier != nil {
		s.notifier.BroadcastEvent(notify.Event{
			PermitID:  permit.ID,
			Number:    permit.Number,
			Reference: permit.Reference,
			Action:    action,
			Status:    permit.Status,
			Actor:     actor.Name,
			Timestamp: time.Now(),
		})
	}
}

// audit writes an audit entry, never failing the caller.
func (s *permitService) audit(ctx context.Context, userID string, action string, permitID string, details interface{}) {
	if s.auditLogSvc == nil || userID == "" {
		return
	}
	_ = s.auditLogSvc.RecordAction(ctx, userID, action, "permit", permitID, details)
}

// cleanTitle validates and sanitizes a user-supplied title.
func cleanTitle(title string) (string, error) {
	if err := utils.ValidateTitle(title); err != nil {
		return "", fmt.Errorf("%w: title: %s", ErrValidation, err)
	}
	clean, err := utils.TrimAndValidate(title, 255)
	if err != nil {
		return "", fmt.Errorf("%w: title: %s", ErrValidation, err)
	}
	return clean, nil
}

// cleanOptional sanitizes a free-text field that may be empty.
func cleanOptional(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return utils.TrimAndValidate(s, 255)
}
