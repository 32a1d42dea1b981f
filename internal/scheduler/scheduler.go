package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"weather-grid-ingest/internal/ingest"
)

// StatsReporter periodically logs a snapshot of the ingest loop's progress,
// so a long-running deployment leaves a heartbeat trail in the logs even
// between milestones.
type StatsReporter struct {
	scheduler *gocron.Scheduler
	interval  time.Duration
	stats     func() ingest.Stats
	logger    *zap.Logger
}

// New creates a StatsReporter emitting one log line per interval.
func New(interval time.Duration, stats func() ingest.Stats, logger *zap.Logger) *StatsReporter {
	return &StatsReporter{
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
		stats:     stats,
		logger:    logger,
	}
}

// Start schedules the report job and starts the underlying scheduler.
func (r *StatsReporter) Start() error {
	_, err := r.scheduler.Every(r.interval).Do(func() {
		s := r.stats()
		r.logger.Info("ingest progress",
			zap.String("run_id", s.RunID),
			zap.Int64("processed", s.Processed),
			zap.Int64("skipped", s.Skipped),
			zap.Int64("cycles", s.Cycles),
			zap.Time("last_insert_at", s.LastInsertAt),
		)
	})
	if err != nil {
		return err
	}

	r.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (r *StatsReporter) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}
