package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// Permit categories. Every category shares the same workflow envelope;
// the category-specific form content lives in Payload.
const (
	CategoryGeneral        = "general"
	CategoryHauteur        = "hauteur"
	CategoryElectrique     = "electrique"
	CategoryPlanPrevention = "plan_prevention"
)

// NumberPrefixes maps a category to the prefix of its internal tracking number.
var NumberPrefixes = map[string]string{
	CategoryGeneral:        "PTW",
	CategoryHauteur:        "PTWH",
	CategoryElectrique:     "PTWE",
	CategoryPlanPrevention: "PP",
}

// PermitModel is the persisted envelope for work permits and prevention
// plans. The workflow engine only touches the status, reference and
// validation/rejection/closure columns; everything under Payload is opaque.
type PermitModel struct {
	ID        string `gorm:"primaryKey;type:varchar(64)"`
	Category  string `gorm:"type:varchar(32);not null;index"`
	Number    string `gorm:"type:varchar(32);not null;index"` // internal tracking code, set at creation
	Reference string `gorm:"type:varchar(32);index"`          // HSE reference, empty until final validation

	Status      string `gorm:"type:varchar(32);not null;index"`
	SubmittedBy string `gorm:"type:varchar(128);not null;index"`

	Title       string `gorm:"type:varchar(255);not null"`
	SiteCode    string `gorm:"type:varchar(32);index"`
	SiteName    string `gorm:"type:varchar(255)"`
	Region      string `gorm:"type:varchar(128)"`
	Contractor  string `gorm:"type:varchar(255)"`
	WorkerCount int    `gorm:"type:int"`

	PlanPreventionID string `gorm:"type:varchar(64);index"` // linked plan, permits only

	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null;index"`

	// Category-specific form content (risk checklists, equipment lists, ...).
	Payload datatypes.JSON

	// Chef de projet validation (first approval stage).
	ChefName    string `gorm:"type:varchar(128)"`
	ChefDate    *time.Time
	ChefComment string `gorm:"type:text"`

	// HSE validation (final approval stage, assigns Reference).
	HSEName    string `gorm:"type:varchar(128)"`
	HSEDate    *time.Time
	HSEComment string `gorm:"type:text"`

	// Rejection (terminal).
	RejectedBy      string `gorm:"type:varchar(128)"`
	RejectedAt      *time.Time
	RejectionReason string `gorm:"type:text"`

	// Work start.
	StartedBy string `gorm:"type:varchar(128)"`
	StartedAt *time.Time

	// Closure.
	ClosedBy       string `gorm:"type:varchar(128)"`
	ClosedAt       *time.Time
	ClosureComment string `gorm:"type:text"`

	// Expiry (sweeper).
	ExpiredAt *time.Time

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the permits table name.
func (PermitModel) TableName() string {
	return "permits"
}

// Validate checks the required envelope fields.
func (pm *PermitModel) Validate() error {
	if pm.ID == "" {
		return errors.New("permit ID is required")
	}
	if _, ok := NumberPrefixes[pm.Category]; !ok {
		return errors.New("unknown permit category")
	}
	if pm.Number == "" {
		return errors.New("permit number is required")
	}
	if pm.Status == "" {
		return errors.New("permit status is required")
	}
	if pm.SubmittedBy == "" {
		return errors.New("permit submitter is required")
	}
	if pm.Title == "" {
		return errors.New("permit title is required")
	}
	return nil
}
