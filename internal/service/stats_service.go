package service

import (
	"time"

	"github.com/thierry1804/toa-permit/internal/metrics"
	"github.com/thierry1804/toa-permit/internal/repository"
	"github.com/thierry1804/toa-permit/internal/workflow"
)

// DashboardStats is the aggregate view backing the HSE dashboard.
type DashboardStats struct {
	Total            int64            `json:"total"`
	ByStatus         map[string]int64 `json:"by_status"`
	ByCategory       map[string]int64 `json:"by_category"`
	BySite           map[string]int64 `json:"by_site"`
	Active             int64            `json:"active"`
	PendingApproval    int64            `json:"pending_approval"`
	ValidationsToday   int64            `json:"validations_today"`
	ReferencesThisYear int64            `json:"references_this_year"`
	GeneratedAt        time.Time        `json:"generated_at"`
}

// StatsService computes dashboard aggregates.
type StatsService interface {
	Dashboard() (*DashboardStats, error)
}

// statsService is the default implementation.
type statsService struct {
	permitRepo       repository.PermitRepository
	interventionRepo repository.InterventionRepository
	now              func() time.Time
}

// NewStatsService creates the stats service.
func NewStatsService(permitRepo repository.PermitRepository, interventionRepo repository.InterventionRepository) StatsService {
	return &statsService{
		permitRepo:       permitRepo,
		interventionRepo: interventionRepo,
		now:              time.Now,
	}
}

// Dashboard builds the aggregate view and refreshes the status gauges.
func (s *statsService) Dashboard() (*DashboardStats, error) {
	byStatus, err := s.permitRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	byCategory, err := s.permitRepo.CountByCategory()
	if err != nil {
		return nil, err
	}
	bySite, err := s.permitRepo.CountBySite()
	if err != nil {
		return nil, err
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	validationsToday, err := s.interventionRepo.CountDailyValidationsSince(startOfDay)
	if err != nil {
		return nil, err
	}

	referencesThisYear, err := s.permitRepo.CountReferencedInYear(now.Year())
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range byStatus {
		total += c
	}

	metrics.SetPermitsByStatus(byStatus)

	return &DashboardStats{
		Total:      total,
		ByStatus:   byStatus,
		ByCategory: byCategory,
		BySite:     bySite,
		Active: byStatus[string(workflow.StatusValidated)] +
			byStatus[string(workflow.StatusInProgress)],
		PendingApproval: byStatus[string(workflow.StatusPendingChef)] +
			byStatus[string(workflow.StatusPendingHSE)],
		ValidationsToday:   validationsToday,
		ReferencesThisYear: referencesThisYear,
		GeneratedAt:        now,
	}, nil
}
