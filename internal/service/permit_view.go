package service

import (
	"encoding/json"
	"time"

	"github.com/thierry1804/toa-permit/internal/model"
)

// PermitView is the wire representation of a permit. Approval details are
// nested objects, absent until the matching step has happened.
type PermitView struct {
	ID               string          `json:"id"`
	Category         string          `json:"category"`
	Number           string          `json:"number"`
	Reference        string          `json:"reference,omitempty"`
	Status           string          `json:"status"`
	SubmittedBy      string          `json:"submitted_by"`
	Title            string          `json:"title"`
	SiteCode         string          `json:"site_code,omitempty"`
	SiteName         string          `json:"site_name,omitempty"`
	Region           string          `json:"region,omitempty"`
	Contractor       string          `json:"contractor,omitempty"`
	WorkerCount      int             `json:"worker_count,omitempty"`
	PlanPreventionID string          `json:"plan_prevention_id,omitempty"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
	Payload          json.RawMessage `json:"payload,omitempty"`

	ChefValidation *ValidationView    `json:"chef_validation,omitempty"`
	HSEValidation  *HSEValidationView `json:"hse_validation,omitempty"`
	Rejection      *RejectionView     `json:"rejection,omitempty"`
	Execution      *ExecutionView     `json:"execution,omitempty"`
	Closure        *ClosureView       `json:"closure,omitempty"`
	ExpiredAt      *time.Time         `json:"expired_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidationView is the chef de projet approval record.
type ValidationView struct {
	ValidatedBy string    `json:"validated_by"`
	ValidatedAt time.Time `json:"validated_at"`
	Comment     string    `json:"comment,omitempty"`
}

// HSEValidationView is the HSE approval record, carrying the reference
// assigned at that moment.
type HSEValidationView struct {
	ValidatedBy       string    `json:"validated_by"`
	ValidatedAt       time.Time `json:"validated_at"`
	Comment           string    `json:"comment,omitempty"`
	AssignedReference string    `json:"assigned_reference"`
}

// RejectionView is the rejection record.
type RejectionView struct {
	RejectedBy string    `json:"rejected_by"`
	RejectedAt time.Time `json:"rejected_at"`
	Reason     string    `json:"reason"`
}

// ExecutionView records when field work actually began.
type ExecutionView struct {
	StartedBy string    `json:"started_by"`
	StartedAt time.Time `json:"started_at"`
}

// ClosureView is the closure record.
type ClosureView struct {
	ClosedBy string    `json:"closed_by"`
	ClosedAt time.Time `json:"closed_at"`
	Comment  string    `json:"comment,omitempty"`
}

// NewPermitView maps the stored flat columns into the nested wire shape.
func NewPermitView(p *model.PermitModel) *PermitView {
	view := &PermitView{
		ID:               p.ID,
		Category:         p.Category,
		Number:           p.Number,
		Reference:        p.Reference,
		Status:           p.Status,
		SubmittedBy:      p.SubmittedBy,
		Title:            p.Title,
		SiteCode:         p.SiteCode,
		SiteName:         p.SiteName,
		Region:           p.Region,
		Contractor:       p.Contractor,
		WorkerCount:      p.WorkerCount,
		PlanPreventionID: p.PlanPreventionID,
		StartDate:        p.StartDate,
		EndDate:          p.EndDate,
		Payload:          json.RawMessage(p.Payload),
		ExpiredAt:        p.ExpiredAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}

	if p.ChefDate != nil {
		view.ChefValidation = &ValidationView{
			ValidatedBy: p.ChefName,
			ValidatedAt: *p.ChefDate,
			Comment:     p.ChefComment,
		}
	}
	if p.HSEDate != nil {
		view.HSEValidation = &HSEValidationView{
			ValidatedBy:       p.HSEName,
			ValidatedAt:       *p.HSEDate,
			Comment:           p.HSEComment,
			AssignedReference: p.Reference,
		}
	}
	if p.RejectedAt != nil {
		view.Rejection = &RejectionView{
			RejectedBy: p.RejectedBy,
			RejectedAt: *p.RejectedAt,
			Reason:     p.RejectionReason,
		}
	}
	if p.StartedAt != nil {
		view.Execution = &ExecutionView{
			StartedBy: p.StartedBy,
			StartedAt: *p.StartedAt,
		}
	}
	if p.ClosedAt != nil {
		view.Closure = &ClosureView{
			ClosedBy: p.ClosedBy,
			ClosedAt: *p.ClosedAt,
			Comment:  p.ClosureComment,
		}
	}
	return view
}
