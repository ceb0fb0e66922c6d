package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/service/reporting"
)

const (
	reportTitle   = "Daily feeding report"
	reportTimeout = 2 * time.Minute
)

// Reporter builds and exports the status report.
type Reporter interface {
	BatchStatusReport(ctx context.Context, at time.Time) (*models.StatusReport, error)
	ExportToSheet(ctx context.Context, report *models.StatusReport) error
}

// Broadcaster fans a message out to registered devices.
type Broadcaster interface {
	Broadcast(ctx context.Context, title, body string) (models.BroadcastResult, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron        *cron.Cron
	schedule    string
	reporter    Reporter
	broadcaster Broadcaster
	logger      *zap.Logger
	now         func() time.Time
}

// NewScheduler creates a scheduler that runs the report on schedule (standard
// five-field cron) in the given timezone.
func NewScheduler(schedule string, loc *time.Location, reporter Reporter, broadcaster Broadcaster, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:        cron.New(cron.WithLocation(loc)),
		schedule:    schedule,
		reporter:    reporter,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

// Start registers the report job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("schedule report %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if _, err := s.RunReport(ctx); err != nil {
		s.logger.Error("scheduled report failed", zap.Error(err))
	}
}

// RunReport builds the status report, exports it when a spreadsheet is
// configured and broadcasts it. Export failures do not stop the broadcast.
func (s *Scheduler) RunReport(ctx context.Context) (models.BroadcastResult, error) {
	s.logger.Info("generating status report")

	report, err := s.reporter.BatchStatusReport(ctx, s.now())
	if err != nil {
		return models.BroadcastResult{}, fmt.Errorf("generate report: %w", err)
	}

	switch err := s.reporter.ExportToSheet(ctx, report); {
	case errors.Is(err, reporting.ErrExportDisabled):
		s.logger.Debug("sheets export disabled")
	case err != nil:
		s.logger.Error("failed to export report", zap.Error(err))
	}

	result, err := s.broadcaster.Broadcast(ctx, reportTitle, reporting.RenderText(report))
	if err != nil {
		return result, fmt.Errorf("broadcast report: %w", err)
	}

	s.logger.Info("status report sent", zap.Int("sent", result.Sent), zap.Int("failed", result.Failed))
	return result, nil
}
