package scheduler

import (
	"context"

	"medshare-backend/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ExpiryScheduler fires the workflow engine's sweep on a fixed daily
// schedule. RunOnce exists for operational use (and the admin's manual
// sweep endpoint); the cron entry and a manual run may overlap safely
// because the sweep is idempotent.
type ExpiryScheduler struct {
	workflow service.WorkflowService
	cron     *cron.Cron
	spec     string
	log      zerolog.Logger
}

func New(workflow service.WorkflowService, spec string, log zerolog.Logger) *ExpiryScheduler {
	return &ExpiryScheduler{
		workflow: workflow,
		cron:     cron.New(),
		spec:     spec,
		log:      log,
	}
}

// Start registers the sweep job and launches the cron loop.
func (s *ExpiryScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.spec).Msg("expiry scheduler started")
	return nil
}

// Stop halts the cron loop; a sweep already in flight finishes.
func (s *ExpiryScheduler) Stop() {
	s.cron.Stop()
}

// RunOnce executes a single sweep immediately.
func (s *ExpiryScheduler) RunOnce(ctx context.Context) service.SweepResult {
	result, err := s.workflow.Sweep(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("expiry sweep failed")
		return result
	}
	return result
}
