package scheduler

import (
	"fmt"

	"github.com/nookly/threadwatch/internal/config"
	"github.com/nookly/threadwatch/internal/monitoring"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Service fires pipeline ticks on the configured polling interval. Digest
// timing lives inside the tick itself, so a single cron entry is enough and
// the digest can never overlap a polling cycle.
type Service struct {
	cfg               *config.Config
	monitoringService *monitoring.Service
	cron              *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(cfg *config.Config, monitoringService *monitoring.Service) *Service {
	return &Service{
		cfg:               cfg,
		monitoringService: monitoringService,
		cron: cron.New(
			cron.WithLocation(cfg.Schedule.Location()),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
}

// Start begins the scheduled ticking.
func (s *Service) Start() error {
	spec := fmt.Sprintf("@every %s", s.cfg.Schedule.PollInterval)

	_, err := s.cron.AddFunc(spec, func() {
		if err := s.monitoringService.Tick(); err != nil {
			logrus.Errorf("Scheduled tick failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule polling: %w", err)
	}

	s.cron.Start()
	logrus.Infof("Scheduler started: polling every %s, digest at %s %s",
		s.cfg.Schedule.PollInterval, s.cfg.Schedule.DigestTime, s.cfg.Schedule.Timezone)
	return nil
}

// Stop stops the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
