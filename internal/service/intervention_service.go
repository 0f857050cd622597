package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thierry1804/toa-permit/internal/model"
	"github.com/thierry1804/toa-permit/internal/repository"
	"github.com/thierry1804/toa-permit/internal/workflow"
)

// InterventionService records field interventions against active permits:
// daily control sheets and Take 5 checklists.
type InterventionService interface {
	AddDailyValidation(ctx context.Context, permitID string, req *DailyValidationRequest) (*model.DailyValidationModel, error)
	ListDailyValidations(permitID string) ([]*model.DailyValidationModel, error)
	AddTake5(ctx context.Context, permitID string, req *Take5Request) (*model.Take5Model, error)
	ListTake5(permitID string) ([]*model.Take5Model, error)
}

// DailyValidationRequest is one daily control sheet.
type DailyValidationRequest struct {
	Date              time.Time `json:"date" binding:"required"`
	WindSpeed         *float64  `json:"wind_speed,omitempty"`
	Workers           string    `json:"workers"`
	MeasuresConfirmed bool      `json:"measures_confirmed"`

	OpeningRequesterSignature string `json:"opening_requester_signature"`
	OpeningWorkerSignature    string `json:"opening_worker_signature"`
	ClosingRequesterSignature string `json:"closing_requester_signature"`
	ClosingWorkerSignature    string `json:"closing_worker_signature"`

	CreatedBy string `json:"created_by" binding:"required"`
}

// Take5Request is one 5-step risk check.
type Take5Request struct {
	Date        time.Time `json:"date" binding:"required"`
	PerformedBy string    `json:"performed_by" binding:"required"`

	Stop    bool `json:"stop"`
	Observe bool `json:"observe"`
	Analyze bool `json:"analyze"`
	Control bool `json:"control"`
	Proceed bool `json:"proceed"`

	Hazards []string `json:"hazards,omitempty"`
	Comment string   `json:"comment,omitempty"`
}

// Wind above this threshold blocks height work.
const maxWindSpeedKmh = 40.0

// interventionService is the default implementation.
type interventionService struct {
	engine           *workflow.Engine
	permitRepo       repository.PermitRepository
	interventionRepo repository.InterventionRepository
	auditLogSvc      AuditLogService
}

// NewInterventionService creates the intervention service.
func NewInterventionService(engine *workflow.Engine, permitRepo repository.PermitRepository, interventionRepo repository.InterventionRepository, auditLogSvc AuditLogService) InterventionService {
	return &interventionService{
		engine:           engine,
		permitRepo:       permitRepo,
		interventionRepo: interventionRepo,
		auditLogSvc:      auditLogSvc,
	}
}

// AddDailyValidation appends a daily sheet. The first sheet on a validated
// permit moves it to in_progress.
func (s *interventionService) AddDailyValidation(ctx context.Context, permitID string, req *DailyValidationRequest) (*model.DailyValidationModel, error) {
	permit, err := s.activePermit(permitID)
	if err != nil {
		return nil, err
	}
	if permit.Category == model.CategoryHauteur {
		if req.WindSpeed == nil {
			return nil, fmt.Errorf("%w: wind_speed is required for height work", ErrValidation)
		}
		if *req.WindSpeed > maxWindSpeedKmh {
			return nil, fmt.Errorf("%w: wind speed %.1f km/h exceeds the %.0f km/h limit", ErrValidation, *req.WindSpeed, maxWindSpeedKmh)
		}
	}
	if permit.Category == model.CategoryElectrique && !req.MeasuresConfirmed {
		return nil, fmt.Errorf("%w: safety measures must be confirmed for electrical work", ErrValidation)
	}

	validation := &model.DailyValidationModel{
		ID:                uuid.New().String(),
		PermitID:          permit.ID,
		Date:              req.Date,
		SiteCode:          permit.SiteCode,
		WindSpeed:         req.WindSpeed,
		Workers:           req.Workers,
		MeasuresConfirmed: req.MeasuresConfirmed,

		OpeningRequesterSignature: req.OpeningRequesterSignature,
		OpeningWorkerSignature:    req.OpeningWorkerSignature,
		ClosingRequesterSignature: req.ClosingRequesterSignature,
		ClosingWorkerSignature:    req.ClosingWorkerSignature,

		CreatedBy: req.CreatedBy,
		CreatedAt: time.Now(),
	}
	if err := s.interventionRepo.SaveDailyValidation(validation); err != nil {
		return nil, fmt.Errorf("failed to save daily validation: %w", err)
	}

	// First sheet on a freshly validated permit means work has begun.
	if workflow.Status(permit.Status) == workflow.StatusValidated {
		if _, err := s.engine.Start(permit.ID, workflow.Actor{Name: req.CreatedBy, Role: workflow.RolePrestataire}); err == nil {
			s.audit(ctx, req.CreatedBy, "start", "permit", permit.ID, map[string]string{"trigger": "daily_validation"})
		}
	}

	s.audit(ctx, req.CreatedBy, "create", "daily_validation", validation.ID, map[string]string{
		"permit_id": permit.ID,
		"number":    permit.Number,
	})
	return validation, nil
}

// ListDailyValidations returns a permit's daily sheets, oldest first.
func (s *interventionService) ListDailyValidations(permitID string) ([]*model.DailyValidationModel, error) {
	if _, err := s.permitRepo.Get(permitID); err != nil {
		return nil, err
	}
	return s.interventionRepo.FindDailyValidations(permitID)
}

// AddTake5 appends a 5-step risk check.
func (s *interventionService) AddTake5(ctx context.Context, permitID string, req *Take5Request) (*model.Take5Model, error) {
	permit, err := s.activePermit(permitID)
	if err != nil {
		return nil, err
	}

	record := &model.Take5Model{
		ID:          uuid.New().String(),
		PermitID:    permit.ID,
		SiteCode:    permit.SiteCode,
		Date:        req.Date,
		PerformedBy: req.PerformedBy,
		Stop:        req.Stop,
		Observe:     req.Observe,
		Analyze:     req.Analyze,
		Control:     req.Control,
		Proceed:     req.Proceed,
		Comment:     req.Comment,
		CreatedAt:   time.Now(),
	}
	if len(req.Hazards) > 0 {
		hazards, err := json.Marshal(req.Hazards)
		if err != nil {
			return nil, fmt.Errorf("failed to encode hazards: %w", err)
		}
		record.Hazards = hazards
	}
	if !record.Completed() {
		return nil, fmt.Errorf("%w: all five steps must be checked before work can proceed", ErrValidation)
	}

	if err := s.interventionRepo.SaveTake5(record); err != nil {
		return nil, fmt.Errorf("failed to save take5 record: %w", err)
	}

	s.audit(ctx, req.PerformedBy, "create", "take5", record.ID, map[string]string{
		"permit_id": permit.ID,
		"number":    permit.Number,
	})
	return record, nil
}

// ListTake5 returns a permit's Take 5 records, oldest first.
func (s *interventionService) ListTake5(permitID string) ([]*model.Take5Model, error) {
	if _, err := s.permitRepo.Get(permitID); err != nil {
		return nil, err
	}
	return s.interventionRepo.FindTake5(permitID)
}

// activePermit loads a permit and checks it is in a status that accepts
// field interventions.
func (s *interventionService) activePermit(permitID string) (*model.PermitModel, error) {
	permit, err := s.permitRepo.Get(permitID)
	if err != nil {
		return nil, err
	}
	status := workflow.Status(permit.Status)
	if status != workflow.StatusValidated && status != workflow.StatusInProgress {
		return nil, fmt.Errorf("%w: permit is %q, interventions need a validated or in_progress permit", workflow.ErrInvalidState, permit.Status)
	}
	return permit, nil
}

// audit writes an audit entry, never failing the caller.
func (s *interventionService) audit(ctx context.Context, userID string, action string, resourceType string, resourceID string, details interface{}) {
	if s.auditLogSvc == nil || userID == "" {
		return
	}
	_ = s.auditLogSvc.RecordAction(ctx, userID, action, resourceType, resourceID, details)
}
