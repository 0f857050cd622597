package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// Take5Model is the on-site 5-step risk check performed before starting a
// task: stop, observe, analyze, control, proceed.
type Take5Model struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	PermitID    string    `gorm:"type:varchar(64);not null;index"`
	SiteCode    string    `gorm:"type:varchar(32)"`
	Date        time.Time `gorm:"not null;index"`
	PerformedBy string    `gorm:"type:varchar(128);not null"`

	Stop    bool
	Observe bool
	Analyze bool
	Control bool
	Proceed bool

	// Hazards spotted during the observe step, free-form list.
	Hazards datatypes.JSON

	Comment   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the take5 records table name.
func (Take5Model) TableName() string {
	return "take5_records"
}

// Validate checks the required fields.
func (tm *Take5Model) Validate() error {
	if tm.ID == "" {
		return errors.New("take5 ID is required")
	}
	if tm.PermitID == "" {
		return errors.New("permit ID is required")
	}
	if tm.PerformedBy == "" {
		return errors.New("performer is required")
	}
	if tm.Date.IsZero() {
		return errors.New("date is required")
	}
	return nil
}

// Completed reports whether all five steps were checked off.
func (tm *Take5Model) Completed() bool {
	return tm.Stop && tm.Observe && tm.Analyze && tm.Control && tm.Proceed
}
