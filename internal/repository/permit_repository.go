package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/thierry1804/toa-permit/internal/model"
	"github.com/thierry1804/toa-permit/internal/workflow"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PermitRepository is the record store for permit envelopes. It satisfies
// workflow.Store and adds the query surface used by services.
type PermitRepository interface {
	Create(p *model.PermitModel) error
	Get(id string) (*model.PermitModel, error)
	Update(p *model.PermitModel) error
	UpdateWithReference(p *model.PermitModel, scope string, assign func(seq int64)) error
	Delete(id string) error
	FindByFilter(filter *PermitFilter) ([]*model.PermitModel, error)
	CountReferencedInYear(year int) (int64, error)
	CountByStatus() (map[string]int64, error)
	CountByCategory() (map[string]int64, error)
	CountBySite() (map[string]int64, error)
	FindExpirable(now time.Time) ([]*model.PermitModel, error)
	NextNumber(prefix string, day time.Time) (string, error)
}

// PermitFilter narrows list queries. Nil fields are ignored.
type PermitFilter struct {
	Status    *string
	Submitter *string
	Category  *string
	SiteCode  *string
}

// permitRepository is the gorm implementation.
type permitRepository struct {
	db *gorm.DB
}

// NewPermitRepository creates the permit record store.
func NewPermitRepository(db *gorm.DB) PermitRepository {
	return &permitRepository{db: db}
}

// Create persists a new record.
func (r *permitRepository) Create(p *model.PermitModel) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return r.db.Create(p).Error
}

// Get returns the record by id, or workflow.ErrNotFound.
func (r *permitRepository) Get(id string) (*model.PermitModel, error) {
	var p model.PermitModel
	if err := r.db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Update saves the full record in one write.
func (r *permitRepository) Update(p *model.PermitModel) error {
	return r.db.Save(p).Error
}

// UpdateWithReference advances the named sequence and saves the record in
// a single transaction. On postgres the sequence row is locked FOR UPDATE
// so concurrent HSE validations serialize; sqlite serializes writers on
// its own.
func (r *permitRepository) UpdateWithReference(p *model.PermitModel, scope string, assign func(seq int64)) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		seq, err := nextSequence(tx, scope)
		if err != nil {
			return err
		}
		assign(seq)
		return tx.Save(p).Error
	})
}

// Delete removes the record. Services only allow this for drafts.
func (r *permitRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.PermitModel{}).Error
}

// FindByFilter lists records matching the filter, newest first.
func (r *permitRepository) FindByFilter(filter *PermitFilter) ([]*model.PermitModel, error) {
	var permits []*model.PermitModel
	query := r.db.Model(&model.PermitModel{})

	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.Submitter != nil {
			query = query.Where("submitted_by = ?", *filter.Submitter)
		}
		if filter.Category != nil {
			query = query.Where("category = ?", *filter.Category)
		}
		if filter.SiteCode != nil {
			query = query.Where("site_code = ?", *filter.SiteCode)
		}
	}

	err := query.Order("created_at DESC").Find(&permits).Error
	return permits, err
}

// CountReferencedInYear counts records across all categories whose HSE
// reference was assigned in the given year.
func (r *permitRepository) CountReferencedInYear(year int) (int64, error) {
	var count int64
	prefix := fmt.Sprintf("%04d/", year)
	err := r.db.Model(&model.PermitModel{}).
		Where("reference <> '' AND reference LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

// CountByStatus returns record counts grouped by status.
func (r *permitRepository) CountByStatus() (map[string]int64, error) {
	return r.countGrouped("status")
}

// CountByCategory returns record counts grouped by category.
func (r *permitRepository) CountByCategory() (map[string]int64, error) {
	return r.countGrouped("category")
}

// CountBySite returns record counts grouped by site code.
func (r *permitRepository) CountBySite() (map[string]int64, error) {
	return r.countGrouped("site_code")
}

type groupCount struct {
	Key   string
	Count int64
}

func (r *permitRepository) countGrouped(column string) (map[string]int64, error) {
	var rows []groupCount
	err := r.db.Model(&model.PermitModel{}).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}

// FindExpirable lists validated or in-progress permits past their end date.
func (r *permitRepository) FindExpirable(now time.Time) ([]*model.PermitModel, error) {
	var permits []*model.PermitModel
	err := r.db.
		Where("status IN ?", []string{string(workflow.StatusValidated), string(workflow.StatusInProgress)}).
		Where("end_date < ?", now).
		Find(&permits).Error
	return permits, err
}

// NextNumber mints the next internal tracking code for a category on a
// given day, e.g. "PTWH-20251013-003". Uses the same sequence table as
// the reference generator so numbers never collide within a day.
func (r *permitRepository) NextNumber(prefix string, day time.Time) (string, error) {
	scope := fmt.Sprintf("num/%s/%s", prefix, day.Format("20060102"))
	var seq int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		seq, txErr = nextSequence(tx, scope)
		return txErr
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%03d", prefix, day.Format("20060102"), seq), nil
}

// nextSequence increments and returns the counter for scope. Must run
// inside a transaction.
func nextSequence(tx *gorm.DB, scope string) (int64, error) {
	query := tx
	if tx.Dialector.Name() == "postgres" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var counter model.SequenceModel
	err := query.Where("scope = ?", scope).First(&counter).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		counter = model.SequenceModel{Scope: scope, Value: 1}
		if err := tx.Create(&counter).Error; err != nil {
			return 0, fmt.Errorf("failed to create sequence %q: %w", scope, err)
		}
		return counter.Value, nil
	case err != nil:
		return 0, fmt.Errorf("failed to read sequence %q: %w", scope, err)
	}

	counter.Value++
	if err := tx.Save(&counter).Error; err != nil {
		return 0, fmt.Errorf("failed to advance sequence %q: %w", scope, err)
	}
	return counter.Value, nil
}
