package model

import (
	"errors"
	"time"
)

// DailyValidationModel is one daily control sheet recorded against an
// active permit. Height permits track wind speed; electrical permits track
// the measures-confirmed flag. Both use the same table.
type DailyValidationModel struct {
	ID       string    `gorm:"primaryKey;type:varchar(64)"`
	PermitID string    `gorm:"type:varchar(64);not null;index"`
	Date     time.Time `gorm:"not null;index"`
	SiteCode string    `gorm:"type:varchar(32)"`

	WindSpeed         *float64 // km/h, height work only
	Workers           string   `gorm:"type:text"` // names of the day's crew
	MeasuresConfirmed bool     // electrical work only

	// Signatures collected at opening and closing of the work day.
	OpeningRequesterSignature string `gorm:"type:varchar(128)"`
	OpeningWorkerSignature    string `gorm:"type:varchar(128)"`
	ClosingRequesterSignature string `gorm:"type:varchar(128)"`
	ClosingWorkerSignature    string `gorm:"type:varchar(128)"`

	CreatedBy string    `gorm:"type:varchar(128);not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the daily validations table name.
func (DailyValidationModel) TableName() string {
	return "daily_validations"
}

// Validate checks the required fields.
func (dvm *DailyValidationModel) Validate() error {
	if dvm.ID == "" {
		return errors.New("daily validation ID is required")
	}
	if dvm.PermitID == "" {
		return errors.New("permit ID is required")
	}
	if dvm.Date.IsZero() {
		return errors.New("date is required")
	}
	if dvm.CreatedBy == "" {
		return errors.New("creator is required")
	}
	return nil
}
