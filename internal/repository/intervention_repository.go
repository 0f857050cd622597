package repository

import (
	"time"

	"github.com/thierry1804/toa-permit/internal/model"
	"gorm.io/gorm"
)

// InterventionRepository stores the permit-scoped intervention records:
// daily validation sheets and Take 5 checklists.
type InterventionRepository interface {
	SaveDailyValidation(v *model.DailyValidationModel) error
	FindDailyValidations(permitID string) ([]*model.DailyValidationModel, error)
	CountDailyValidationsSince(since time.Time) (int64, error)
	SaveTake5(t *model.Take5Model) error
	FindTake5(permitID string) ([]*model.Take5Model, error)
}

// interventionRepository is the gorm implementation.
type interventionRepository struct {
	db *gorm.DB
}

// NewInterventionRepository creates the intervention store.
func NewInterventionRepository(db *gorm.DB) InterventionRepository {
	return &interventionRepository{db: db}
}

// SaveDailyValidation appends a daily control sheet.
func (r *interventionRepository) SaveDailyValidation(v *model.DailyValidationModel) error {
	if err := v.Validate(); err != nil {
		return err
	}
	return r.db.Save(v).Error
}

// FindDailyValidations lists a permit's daily sheets, oldest first.
func (r *interventionRepository) FindDailyValidations(permitID string) ([]*model.DailyValidationModel, error) {
	var validations []*model.DailyValidationModel
	err := r.db.Where("permit_id = ?", permitID).Order("date ASC").Find(&validations).Error
	return validations, err
}

// CountDailyValidationsSince counts daily sheets recorded since the given
// instant, across all permits.
func (r *interventionRepository) CountDailyValidationsSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.DailyValidationModel{}).Where("date >= ?", since).Count(&count).Error
	return count, err
}

// SaveTake5 appends a Take 5 checklist.
func (r *interventionRepository) SaveTake5(t *model.Take5Model) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return r.db.Save(t).Error
}

// FindTake5 lists a permit's Take 5 records, oldest first.
func (r *interventionRepository) FindTake5(permitID string) ([]*model.Take5Model, error) {
	var records []*model.Take5Model
	err := r.db.Where("permit_id = ?", permitID).Order("date ASC").Find(&records).Error
	return records, err
}
