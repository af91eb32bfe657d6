// Package verification reconciles frozen predictions against observed sensor
// wind, producing graded accuracy verdicts with recalibration hints. The
// verdicts are what make threshold tuning an evidence-driven loop instead of
// guesswork.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// Wind quality classification thresholds, applied to average speed. Peak
// gusts never drive classification; brief gusts are not representative of
// sustained rideable conditions.
const (
	goodWindMph     = 15.0
	marginalWindMph = 10.0
)

// Probability bands for the decision matrix.
const (
	highProbability = 70.0
	lowProbability  = 30.0
)

// RecordStore persists verification records keyed by date. Records are
// append-only; a past record is never overwritten.
type RecordStore interface {
	Save(ctx context.Context, rec types.VerificationRecord) error
	GetByDate(ctx context.Context, date string) (types.VerificationRecord, error)
}

// Engine verifies frozen predictions against sensor ground truth.
type Engine struct {
	sensor types.SensorSource
	store  RecordStore
	window types.TimeWindow
	tz     *time.Location
	clock  types.Clock
	logger *slog.Logger
}

// Config holds the construction parameters for Engine.
type Config struct {
	Sensor types.SensorSource
	Store  RecordStore
	Window types.TimeWindow
	// Timezone anchors the decision window on the verified calendar day.
	Timezone *time.Location
	Clock    types.Clock
	Logger   *slog.Logger
}

// NewEngine creates a verification engine.
func NewEngine(cfg Config) *Engine {
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
	return &Engine{
		sensor: cfg.Sensor,
		store:  cfg.Store,
		window: cfg.Window,
		tz:     tz,
		clock:  clock,
		logger: logger,
	}
}

// Verify reconciles the frozen prediction against sensor wind observed during
// its decision window and persists the resulting record. If a record already
// exists for the date it is returned unchanged. Without any sensor samples in
// the window no record is produced.
func (e *Engine) Verify(ctx context.Context, p types.Prediction) (types.VerificationRecord, error) {
	if existing, err := e.store.GetByDate(ctx, p.Date); err == nil {
		return existing, nil
	} else if !types.IsNotFound(err) {
		return types.VerificationRecord{}, err
	}

	day, err := time.ParseInLocation("2006-01-02", p.Date, e.tz)
	if err != nil {
		return types.VerificationRecord{}, types.NewAppError(
			types.ErrCodeValidationInvalidDate,
			fmt.Sprintf("prediction carries unparseable date %q", p.Date),
			err,
		)
	}
	start, end := e.window.Bounds(day)

	lookback := e.clock.Now().Sub(start)
	if lookback <= 0 {
		return types.VerificationRecord{}, types.NewAppError(
			types.ErrCodeValidationInvalidDate,
			"decision window has not opened yet",
			nil,
		)
	}
	samples, err := e.sensor.RecentSamples(ctx, lookback)
	if err != nil {
		return types.VerificationRecord{}, err
	}

	windowed := samplesBetween(samples, start, end)
	if len(windowed) == 0 {
		return types.VerificationRecord{}, types.NewAppError(
			types.ErrCodeUpstreamSensor,
			fmt.Sprintf("no sensor samples in decision window for %s", p.Date),
			nil,
		)
	}

	avg, peak, dir := summarize(windowed)
	quality := classifyWind(avg)
	outcome, rationale, hint := classify(p.Probability, quality)

	rec := types.VerificationRecord{
		ID:                 uuid.NewString(),
		Date:               p.Date,
		Prediction:         p,
		ActualAvgMph:       avg,
		ActualPeakMph:      peak,
		ActualDirectionDeg: dir,
		ActualQuality:      quality,
		Outcome:            outcome,
		Rationale:          rationale,
		RecalibrationHint:  hint,
		SampleCount:        len(windowed),
		VerifiedAt:         e.clock.Now(),
	}
	if err := e.store.Save(ctx, rec); err != nil {
		return types.VerificationRecord{}, err
	}

	e.logger.InfoContext(ctx, "prediction verified",
		"date", rec.Date,
		"predicted_probability", p.Probability,
		"actual_avg_mph", avg,
		"outcome", outcome,
	)
	return rec, nil
}

func classifyWind(avgMph float64) types.WindQuality {
	switch {
	case avgMph >= goodWindMph:
		return types.WindGood
	case avgMph >= marginalWindMph:
		return types.WindMarginal
	default:
		return types.WindPoor
	}
}

// classify crosses the predicted probability band against the observed wind
// quality. Every cell yields a verdict, a rationale, and an actionable
// recalibration suggestion.
func classify(probability float64, quality types.WindQuality) (types.VerificationOutcome, string, string) {
	switch {
	case probability >= highProbability:
		switch quality {
		case types.WindGood:
			return types.OutcomeExcellent,
				"high probability predicted and strong wind delivered",
				"no change needed; current calibration performed well"
		case types.WindMarginal:
			return types.OutcomePartialCredit,
				"high probability predicted but wind was only marginal",
				"consider raising the GO probability band or tightening the wave score threshold"
		default:
			return types.OutcomeFalsePositive,
				"high probability predicted but wind never materialized",
				"review which factors passed; tighten the loosest passing threshold"
		}
	case probability < lowProbability:
		switch quality {
		case types.WindGood:
			return types.OutcomeMajorMiss,
				"low probability predicted but strong wind delivered",
				"a factor vetoed a good day; loosen the factor that failed with high confidence"
		case types.WindMarginal:
			return types.OutcomePartialCredit,
				"low probability predicted and wind was marginal",
				"borderline call; watch for a pattern before adjusting thresholds"
		default:
			return types.OutcomeCorrectSkip,
				"low probability predicted and wind stayed weak",
				"no change needed; skip call was correct"
		}
	default:
		switch quality {
		case types.WindGood:
			return types.OutcomePartialCredit,
				"moderate probability understated a strong day",
				"consider increasing the multi-factor bonus; interactions may be underweighted"
		case types.WindMarginal:
			return types.OutcomePartialCredit,
				"moderate probability matched marginal wind",
				"no change needed; mid-band call matched mid-band conditions"
		default:
			return types.OutcomePartialCredit,
				"moderate probability overstated a weak day",
				"consider lowering the precipitation or sky-clearness confidence weighting"
		}
	}
}

func samplesBetween(samples []types.WindSample, start, end time.Time) []types.WindSample {
	var out []types.WindSample
	for _, s := range samples {
		if !s.Time.Before(start) && s.Time.Before(end) {
			out = append(out, s)
		}
	}
	return out
}

// summarize computes average speed, peak speed, and circular mean direction.
func summarize(samples []types.WindSample) (avgMph, peakMph, dirDeg float64) {
	var speedSum, sinSum, cosSum float64
	for _, s := range samples {
		speedSum += s.SpeedMph
		if s.SpeedMph > peakMph {
			peakMph = s.SpeedMph
		}
		if s.GustMph > peakMph {
			peakMph = s.GustMph
		}
		rad := s.DirectionDeg * math.Pi / 180
		sinSum += math.Sin(rad)
		cosSum += math.Cos(rad)
	}
	avgMph = speedSum / float64(len(samples))
	dirDeg = math.Atan2(sinSum, cosSum) * 180 / math.Pi
	if dirDeg < 0 {
		dirDeg += 360
	}
	return avgMph, peakMph, dirDeg
}
