package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validPermit() *PermitModel {
	now := time.Now()
	return &PermitModel{
		ID:          "p-1",
		Category:    CategoryHauteur,
		Number:      "PTWH-20251013-001",
		Status:      "draft",
		SubmittedBy: "rakoto",
		Title:       "Maintenance pylône",
		StartDate:   now,
		EndDate:     now.Add(48 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TestPermitValidate checks the envelope validation.
func TestPermitValidate(t *testing.T) {
	assert.NoError(t, validPermit().Validate())

	p := validPermit()
	p.ID = ""
	assert.Error(t, p.Validate())

	p = validPermit()
	p.Category = "plomberie"
	assert.Error(t, p.Validate())

	p = validPermit()
	p.Title = ""
	assert.Error(t, p.Validate())

	p = validPermit()
	p.SubmittedBy = ""
	assert.Error(t, p.Validate())
}

// TestTableNames checks the storage table names.
func TestTableNames(t *testing.T) {
	assert.Equal(t, "permits", PermitModel{}.TableName())
	assert.Equal(t, "sequences", SequenceModel{}.TableName())
	assert.Equal(t, "daily_validations", DailyValidationModel{}.TableName())
	assert.Equal(t, "take5_records", Take5Model{}.TableName())
	assert.Equal(t, "audit_logs", AuditLogModel{}.TableName())
}

// TestNumberPrefixes checks the category numbering map.
func TestNumberPrefixes(t *testing.T) {
	assert.Equal(t, "PTW", NumberPrefixes[CategoryGeneral])
	assert.Equal(t, "PTWH", NumberPrefixes[CategoryHauteur])
	assert.Equal(t, "PTWE", NumberPrefixes[CategoryElectrique])
	assert.Equal(t, "PP", NumberPrefixes[CategoryPlanPrevention])
	assert.Len(t, NumberPrefixes, 4)
}

// TestTake5Completed checks the all-steps gate.
func TestTake5Completed(t *testing.T) {
	record := &Take5Model{Stop: true, Observe: true, Analyze: true, Control: true, Proceed: true}
	assert.True(t, record.Completed())

	record.Control = false
	assert.False(t, record.Completed())
}
