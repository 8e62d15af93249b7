package scheduler

import (
	"fmt"
	"time"

	"github.com/amaumene/moviepick/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron        *cron.Cron
	backlog     *controllers.BacklogController
	rituals     *controllers.RitualController
	idleTimeout time.Duration
	logger      *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(
	backlog *controllers.BacklogController,
	rituals *controllers.RitualController,
	idleTimeout time.Duration,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		backlog:     backlog,
		rituals:     rituals,
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Every 15 minutes: drop abandoned rituals
	if _, err := s.cron.AddFunc("*/15 * * * *", s.runPrune); err != nil {
		return fmt.Errorf("failed to add prune job: %w", err)
	}

	// Every hour: log a backlog summary
	if _, err := s.cron.AddFunc("0 * * * *", s.runSummary); err != nil {
		return fmt.Errorf("failed to add summary job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	go s.runSummary()

	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// runPrune executes the idle ritual cleanup job
func (s *Scheduler) runPrune() {
	removed := s.rituals.PruneIdle(s.idleTimeout)
	if removed == 0 {
		s.logger.Debug("No idle rituals to prune")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"removed": removed,
		"active":  s.rituals.Active(),
	}).Info("Pruned idle rituals")
}

// runSummary executes the backlog summary job
func (s *Scheduler) runSummary() {
	stats, err := s.backlog.Stats()
	if err != nil {
		s.logger.WithError(err).Error("Backlog summary failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"total":         stats.Total,
		"viewed":        stats.Viewed,
		"missing_votes": stats.MissingVotes,
		"scheduled":     stats.Scheduled,
		"eligible":      stats.Eligible,
	}).Info("Backlog summary")
}
