// Package scheduler drives the periodic refresh pipeline: fetch a fresh
// aggregate snapshot, install it, recompute the prediction through the
// lifecycle, and publish instrumentation. Each tick is a complete independent
// run producing whole replacement values; an interrupted run leaves the
// previous snapshot and prediction untouched.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/aggregator"
	"github.com/samqbush/dp-soda-sub005/internal/prediction"
	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// MetricPublisher receives pipeline instrumentation. *metrics.Publisher
// satisfies it; a nil publisher disables instrumentation.
type MetricPublisher interface {
	ObserveRefresh(d time.Duration, ok bool)
	RecordPrediction(p types.Prediction)
}

// SnapshotSaver persists fetched snapshots so the pressure trend survives a
// restart. *db.SnapshotRepository satisfies it; nil disables persistence.
type SnapshotSaver interface {
	Save(ctx context.Context, s *types.AggregateSnapshot) error
}

// Refresher runs the fetch-analyze pipeline on a fixed interval plus a
// forced refresh at a configured evening hour, which captures the full day's
// thermal cycle before tomorrow's prediction is labeled refined.
type Refresher struct {
	agg       *aggregator.Aggregator
	holder    *aggregator.SnapshotHolder
	lifecycle *prediction.Lifecycle
	publisher MetricPublisher
	snapshots SnapshotSaver
	clock     types.Clock
	tz        *time.Location

	interval    time.Duration
	eveningHour int
	logger      *slog.Logger
}

// Config holds the construction parameters for Refresher.
type Config struct {
	Aggregator *aggregator.Aggregator
	Holder     *aggregator.SnapshotHolder
	Lifecycle  *prediction.Lifecycle
	Publisher  MetricPublisher
	Snapshots  SnapshotSaver
	Clock      types.Clock
	Timezone   *time.Location
	// Interval between scheduled refreshes.
	Interval time.Duration
	// EveningHour is the local hour of the forced daily refresh.
	EveningHour int
	Logger      *slog.Logger
}

// New creates a Refresher.
func New(cfg Config) *Refresher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	tz := cfg.Timezone
	if tz == nil {
		tz = time.UTC
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	eveningHour := cfg.EveningHour
	if eveningHour <= 0 {
		eveningHour = 18
	}
	return &Refresher{
		agg:         cfg.Aggregator,
		holder:      cfg.Holder,
		lifecycle:   cfg.Lifecycle,
		publisher:   cfg.Publisher,
		snapshots:   cfg.Snapshots,
		clock:       clock,
		tz:          tz,
		interval:    interval,
		eveningHour: eveningHour,
		logger:      logger,
	}
}

// Run blocks, refreshing immediately and then on every tick until ctx is
// canceled. The forced evening refresh fires on the first tick at or after
// the configured hour each day.
func (r *Refresher) Run(ctx context.Context) {
	r.RefreshNow(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	lastEvening := ""
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "refresh loop stopping")
			return
		case <-ticker.C:
			r.RefreshNow(ctx)

			now := r.clock.Now().In(r.tz)
			if now.Hour() >= r.eveningHour && lastEvening != types.CivilDate(now) {
				lastEvening = types.CivilDate(now)
				r.logger.InfoContext(ctx, "forced evening refresh", "date", lastEvening)
				r.RefreshNow(ctx)
			}
		}
	}
}

// RefreshNow runs one complete pipeline pass: fetch, install, recompute.
// Safe to call concurrently with the scheduled loop; the holder's
// last-writer-wins replacement keeps state consistent.
func (r *Refresher) RefreshNow(ctx context.Context) {
	start := r.clock.Now()

	snapshot := r.agg.Fetch(ctx)
	r.holder.Set(snapshot)

	if r.snapshots != nil {
		if err := r.snapshots.Save(ctx, snapshot); err != nil {
			r.logger.WarnContext(ctx, "persisting snapshot", "error", err)
		}
	}

	p, err := r.lifecycle.Today(ctx)
	ok := err == nil
	if err != nil {
		r.logger.ErrorContext(ctx, "recomputing today after refresh", "error", err)
	} else if r.publisher != nil {
		r.publisher.RecordPrediction(p)
	}

	if r.publisher != nil {
		r.publisher.ObserveRefresh(r.clock.Now().Sub(start), ok)
	}
	r.logger.InfoContext(ctx, "refresh complete",
		"duration", r.clock.Now().Sub(start),
		"reliability", snapshot.Reliability,
		"ok", ok,
	)
}
