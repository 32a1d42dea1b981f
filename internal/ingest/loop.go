package ingest

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"weather-grid-ingest/internal/geo"
	"weather-grid-ingest/internal/weather"
)

// Fetcher returns the reading for one grid point, or an error the loop
// treats as "skip this point for the current cycle".
type Fetcher interface {
	Fetch(ctx context.Context, coord geo.Coordinate, extra url.Values) (weather.Reading, error)
}

// Persister writes one reading, retrying transient storage failures itself.
type Persister interface {
	Insert(ctx context.Context, reading weather.Reading, maxRetries int) (interface{}, error)
}

// LivenessReporter signals that ingestion is still making progress.
type LivenessReporter interface {
	Ping(ctx context.Context)
}

// Config carries the fixed loop parameters.
type Config struct {
	Grid           []geo.Coordinate
	MaxRetries     int           // persistence retries per reading
	MilestoneEvery int64         // liveness ping cadence in successful writes
	ReadInterval   time.Duration // pacing between grid points; <= 0 disables pacing
	ExtraQuery     url.Values    // optional upstream query overrides
}

// Stats is a point-in-time snapshot of loop progress.
type Stats struct {
	RunID        string    `json:"run_id"`
	Processed    int64     `json:"processed"`
	Skipped      int64     `json:"skipped"`
	Cycles       int64     `json:"cycles"`
	LastInsertAt time.Time `json:"last_insert_at,omitempty"`
}

// Loop walks the grid in a fixed order, fetching and persisting one reading
// per point, indefinitely. Strictly sequential: at most one fetch or write
// is in flight at any time.
type Loop struct {
	cfg      Config
	fetcher  Fetcher
	store    Persister
	liveness LivenessReporter
	limiter  *rate.Limiter
	logger   *zap.Logger
	runID    string

	processed  atomic.Int64
	skipped    atomic.Int64
	cycles     atomic.Int64
	lastInsert atomic.Int64 // unix nanos, 0 until the first insert
}

// New creates a Loop. Each process run gets a fresh run ID carried on every
// log line the loop emits.
func New(cfg Config, fetcher Fetcher, store Persister, liveness LivenessReporter, logger *zap.Logger) *Loop {
	limit := rate.Inf
	if cfg.ReadInterval > 0 {
		limit = rate.Every(cfg.ReadInterval)
	}
	runID := uuid.NewString()
	return &Loop{
		cfg:      cfg,
		fetcher:  fetcher,
		store:    store,
		liveness: liveness,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger.With(zap.String("run_id", runID)),
		runID:    runID,
	}
}

// Run executes the ingest loop until the context is canceled (returns nil)
// or persistence fails fatally (returns the storage error, letting the
// caller decide crash-vs-restart policy). Fetch failures never stop the
// loop; the affected grid point is skipped for the cycle.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("ingest loop starting",
		zap.Int("grid_points", len(l.cfg.Grid)),
		zap.Duration("read_interval", l.cfg.ReadInterval),
	)

	for {
		for _, coord := range l.cfg.Grid {
			if err := l.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					l.logger.Info("ingest loop stopping", zap.Int64("processed", l.processed.Load()))
					return nil
				}
				return err
			}

			reading, err := l.fetcher.Fetch(ctx, coord, l.cfg.ExtraQuery)
			if err != nil {
				l.skipped.Add(1)
				l.logger.Error("no reading for grid point, skipping",
					zap.Float64("lat", coord.Lat),
					zap.Float64("lon", coord.Lon),
					zap.Error(err),
				)
				continue
			}
			l.logger.Debug("api request finished",
				zap.Int("fields", len(reading)),
				zap.Float64("lat", coord.Lat),
				zap.Float64("lon", coord.Lon),
			)

			if _, err := l.store.Insert(ctx, reading, l.cfg.MaxRetries); err != nil {
				return fmt.Errorf("persisting reading for (%v, %v): %w", coord.Lat, coord.Lon, err)
			}

			n := l.processed.Add(1)
			l.lastInsert.Store(time.Now().UnixNano())

			if l.cfg.MilestoneEvery > 0 && n%l.cfg.MilestoneEvery == 0 {
				l.logger.Info("milestone reached, pinging healthcheck", zap.Int64("processed", n))
				l.liveness.Ping(ctx)
			}
		}
		l.cycles.Add(1)
	}
}

// Stats returns a snapshot of the loop's progress counters.
func (l *Loop) Stats() Stats {
	s := Stats{
		RunID:     l.runID,
		Processed: l.processed.Load(),
		Skipped:   l.skipped.Load(),
		Cycles:    l.cycles.Load(),
	}
	if ns := l.lastInsert.Load(); ns > 0 {
		s.LastInsertAt = time.Unix(0, ns).UTC()
	}
	return s
}
