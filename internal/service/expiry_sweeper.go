package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ExpirySweeper periodically expires validated and in-progress permits
// whose end date has passed.
type ExpirySweeper struct {
	permitSvc PermitService
	schedule  string
	cron      *cron.Cron
	logger    *logrus.Logger
}

// NewExpirySweeper creates a sweeper on the given cron schedule.
func NewExpirySweeper(permitSvc PermitService, schedule string, logger *logrus.Logger) *ExpirySweeper {
	if schedule == "" {
		schedule = "0 * * * *" // hourly
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ExpirySweeper{
		permitSvc: permitSvc,
		schedule:  schedule,
		logger:    logger,
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *ExpirySweeper) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.WithField("schedule", s.schedule).Info("expiry sweeper started")
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *ExpirySweeper) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("expiry sweeper stopped")
}

// Sweep runs one expiry pass immediately.
func (s *ExpirySweeper) Sweep() (int, error) {
	return s.permitSvc.ExpireDue(context.Background(), time.Now())
}

func (s *ExpirySweeper) sweep() {
	expired, err := s.Sweep()
	if err != nil {
		s.logger.WithError(err).Error("expiry sweep failed")
		return
	}
	if expired > 0 {
		s.logger.WithField("expired", expired).Info("permits expired by sweep")
	}
}
