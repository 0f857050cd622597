package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thierry1804/toa-permit/internal/model"
)

// TestDailyValidations covers save, list order and the daily count.
func TestDailyValidations(t *testing.T) {
	repo := NewInterventionRepository(newTestDB(t))
	wind := 25.0
	base := time.Date(2025, 10, 13, 7, 0, 0, 0, time.UTC)

	later := &model.DailyValidationModel{
		ID:        "dv-2",
		PermitID:  "p-1",
		Date:      base.Add(24 * time.Hour),
		WindSpeed: &wind,
		CreatedBy: "rakoto",
		CreatedAt: base,
	}
	earlier := &model.DailyValidationModel{
		ID:        "dv-1",
		PermitID:  "p-1",
		Date:      base,
		CreatedBy: "rakoto",
		CreatedAt: base,
	}
	require.NoError(t, repo.SaveDailyValidation(later))
	require.NoError(t, repo.SaveDailyValidation(earlier))

	validations, err := repo.FindDailyValidations("p-1")
	require.NoError(t, err)
	require.Len(t, validations, 2)
	assert.Equal(t, "dv-1", validations[0].ID)
	assert.Equal(t, "dv-2", validations[1].ID)

	count, err := repo.CountDailyValidationsSince(base.Add(12 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// TestDailyValidationRequiresFields checks the model gate.
func TestDailyValidationRequiresFields(t *testing.T) {
	repo := NewInterventionRepository(newTestDB(t))

	err := repo.SaveDailyValidation(&model.DailyValidationModel{ID: "dv-1", PermitID: "p-1"})
	assert.Error(t, err)
}

// TestTake5Records covers save and list.
func TestTake5Records(t *testing.T) {
	repo := NewInterventionRepository(newTestDB(t))

	record := &model.Take5Model{
		ID:          "t5-1",
		PermitID:    "p-1",
		Date:        time.Now(),
		PerformedBy: "rakoto",
		Stop:        true,
		Observe:     true,
		Analyze:     true,
		Control:     true,
		Proceed:     true,
		Hazards:     []byte(`["chute","électrisation"]`),
	}
	require.NoError(t, repo.SaveTake5(record))
	assert.True(t, record.Completed())

	records, err := repo.FindTake5("p-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "t5-1", records[0].ID)

	none, err := repo.FindTake5("p-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
