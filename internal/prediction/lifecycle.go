package prediction

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/factors"
	"github.com/samqbush/dp-soda-sub005/internal/types"
	"github.com/samqbush/dp-soda-sub005/internal/wind"
)

// liveLookback bounds how much station history the in-window cross-check
// reads.
const liveLookback = time.Hour

// maxDayOffset bounds how far ahead a forecast-day prediction may reach.
// Provider hourly forecasts run out of useful resolution past two days.
const maxDayOffset = 2

// refinedCutoverHour is the local hour after which tomorrow's prediction is
// labeled refined instead of preliminary. Overnight-cooling factors need a
// nearly complete day of forecast history to be trustworthy.
const refinedCutoverHour = 18

// SnapshotSource yields the latest aggregated snapshots.
// *aggregator.SnapshotHolder satisfies it.
type SnapshotSource interface {
	Current() *types.AggregateSnapshot
	Previous() *types.AggregateSnapshot
}

// FrozenStore persists frozen predictions keyed by calendar date.
type FrozenStore interface {
	// SaveFrozen stores the prediction for its date. If a frozen prediction
	// already exists for that date, the existing one is kept and returned;
	// a frozen value is never overwritten.
	SaveFrozen(ctx context.Context, p types.Prediction) (types.Prediction, error)
	// GetByDate returns the frozen prediction for a date, or a not-found
	// AppError.
	GetByDate(ctx context.Context, date string) (types.Prediction, error)
}

// Lifecycle is the time-aware owner of "today's prediction". Before the dawn
// window it recomputes freely; during the window it keeps recomputing; after
// the window closes the value freezes until local midnight. Every consumer of
// today's call goes through Today, so a frozen value can never fork.
type Lifecycle struct {
	synth     *Synthesizer
	snapshots SnapshotSource
	store     FrozenStore
	clock     types.Clock
	tz        *time.Location
	window    types.TimeWindow
	sensor    types.SensorSource
	analyzer  *wind.Analyzer
	criteria  types.AlarmCriteria
	logger    *slog.Logger

	mu     sync.Mutex
	frozen *types.Prediction
}

// LifecycleConfig holds the construction parameters for Lifecycle.
type LifecycleConfig struct {
	Synthesizer *Synthesizer
	Snapshots   SnapshotSource
	Store       FrozenStore
	Clock       types.Clock
	Timezone    *time.Location
	Window      types.TimeWindow
	// Sensor and Analyzer enable the live station cross-check while the
	// window is open. Either nil disables it.
	Sensor   types.SensorSource
	Analyzer *wind.Analyzer
	// Criteria grades the live reading. The zero value falls back to the
	// documented defaults.
	Criteria types.AlarmCriteria
	Logger   *slog.Logger
}

// NewLifecycle wires the lifecycle state machine.
func NewLifecycle(cfg LifecycleConfig) *Lifecycle {
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
	criteria := cfg.Criteria
	if criteria == (types.AlarmCriteria{}) {
		criteria = types.DefaultAlarmCriteria()
	}
	return &Lifecycle{
		synth:     cfg.Synthesizer,
		snapshots: cfg.Snapshots,
		store:     cfg.Store,
		clock:     clock,
		tz:        tz,
		window:    cfg.Window,
		sensor:    cfg.Sensor,
		analyzer:  cfg.Analyzer,
		criteria:  criteria,
		logger:    logger,
	}
}

// Phase reports the current lifecycle phase from wall-clock time alone.
func (l *Lifecycle) Phase() types.LifecyclePhase {
	now := l.clock.Now().In(l.tz)
	switch {
	case now.Hour() < l.window.StartHour:
		return types.PhasePrediction
	case now.Hour() < l.window.EndHour:
		return types.PhaseVerification
	default:
		return types.PhaseFrozen
	}
}

// Today is the single authoritative accessor for today's prediction. All
// derived views (day tables, verification, API responses) route through it
// for day-offset zero.
func (l *Lifecycle) Today(ctx context.Context) (types.Prediction, error) {
	now := l.clock.Now().In(l.tz)
	date := types.CivilDate(now)

	phase := l.Phase()
	if phase != types.PhaseFrozen {
		l.dropStaleFrozen(date)
		p := l.compute(now, types.QualityRefined)
		if phase == types.PhaseVerification {
			l.crossCheck(ctx, &p)
		}
		return p, nil
	}
	return l.frozenToday(ctx, now, date)
}

// crossCheck attaches the current station reading to an in-window
// prediction and flags disagreement with the forecast. Sensor trouble
// degrades to the forecast-only value rather than failing the request.
func (l *Lifecycle) crossCheck(ctx context.Context, p *types.Prediction) {
	if l.sensor == nil || l.analyzer == nil {
		return
	}
	samples, err := l.sensor.RecentSamples(ctx, liveLookback)
	if err != nil {
		l.logger.WarnContext(ctx, "live cross-check unavailable",
			"source", l.sensor.Name(),
			"error", err,
		)
		return
	}
	if len(samples) == 0 {
		return
	}
	analysis := l.analyzer.Analyze(samples, l.criteria)
	p.LiveWind = &analysis
	if analysis.IsAlarmWorthy != (p.Recommendation == types.RecommendGo) {
		p.Explanation += " Live station reading currently disagrees with the forecast."
	}
}

// ForOffset returns the prediction for today plus offset days. Offset zero
// delegates to Today; future days always recompute and are never frozen.
func (l *Lifecycle) ForOffset(ctx context.Context, offset int) (types.Prediction, error) {
	if offset < 0 || offset > maxDayOffset {
		return types.Prediction{}, types.NewAppError(
			types.ErrCodeValidationInvalidOffset,
			fmt.Sprintf("day offset must be between 0 and %d", maxDayOffset),
			nil,
		)
	}
	if offset == 0 {
		return l.Today(ctx)
	}

	now := l.clock.Now().In(l.tz)
	quality := types.QualityPreliminary
	if now.Hour() >= refinedCutoverHour {
		quality = types.QualityRefined
	}
	day := now.AddDate(0, 0, offset)
	return l.compute(day, quality), nil
}

// frozenToday resolves today's frozen value: the in-memory cache first, then
// the store, and only if neither has one does it compute and persist the
// freeze. The store's no-overwrite semantics make concurrent freezers
// converge on one value.
func (l *Lifecycle) frozenToday(ctx context.Context, now time.Time, date string) (types.Prediction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen != nil && l.frozen.Date == date {
		return *l.frozen, nil
	}
	l.frozen = nil

	stored, err := l.store.GetByDate(ctx, date)
	if err == nil {
		l.frozen = &stored
		return stored, nil
	}
	if !types.IsNotFound(err) {
		return types.Prediction{}, err
	}

	p := l.compute(now, types.QualityFinal)
	persisted, err := l.store.SaveFrozen(ctx, p)
	if err != nil {
		return types.Prediction{}, err
	}
	l.frozen = &persisted
	l.logger.InfoContext(ctx, "prediction frozen",
		"date", persisted.Date,
		"probability", persisted.Probability,
		"recommendation", persisted.Recommendation,
	)
	return persisted, nil
}

// dropStaleFrozen clears yesterday's cached freeze once a new calendar day
// begins.
func (l *Lifecycle) dropStaleFrozen(today string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen != nil && l.frozen.Date != today {
		l.frozen = nil
	}
}

func (l *Lifecycle) compute(day time.Time, quality types.ForecastQuality) types.Prediction {
	in := factors.Input{
		Snapshot: l.snapshots.Current(),
		Previous: l.snapshots.Previous(),
		Day:      day,
	}
	return l.synth.Analyze(in, quality)
}
