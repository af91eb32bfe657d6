// Package wind analyzes live lake-sensor wind. It runs on a pipeline fed
// directly by the station, independent of forecasting, and feeds both the
// dawn alarm decision and the verification engine's ground-truth side.
package wind

import (
	"math"
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// analysisWindow is the default span of samples analyzed, ending at now.
const analysisWindow = time.Hour

// fallbackSampleCount is how many of the most recent samples are analyzed
// when the last-hour window is empty.
const fallbackSampleCount = 10

// Analyzer scores recent sensor samples against alarm criteria.
type Analyzer struct {
	clock types.Clock
}

// NewAnalyzer creates an Analyzer. A nil clock defaults to the real UTC
// clock.
func NewAnalyzer(clock types.Clock) *Analyzer {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Analyzer{clock: clock}
}

// Analyze examines time-ordered samples against the criteria. It analyzes
// the samples from the last hour; when none fall there it falls back to the
// most recent ten and reports the fallback in the result rather than
// swapping it in silently.
func (a *Analyzer) Analyze(samples []types.WindSample, criteria types.AlarmCriteria) types.WindAnalysis {
	window, usedFallback := a.selectWindow(samples)
	if len(window) == 0 {
		return types.WindAnalysis{UsedFallbackWindow: usedFallback}
	}

	var speedSum float64
	consistent := 0
	maxRun := 0
	run := 0
	for _, s := range window {
		speedSum += s.SpeedMph
		inSector := directionOK(s.DirectionDeg, criteria)
		if inSector {
			consistent++
		}
		if goodPoint(s, criteria, inSector) {
			run++
			if run > maxRun {
				maxRun = run
			}
		} else {
			run = 0
		}
	}

	avg := speedSum / float64(len(window))
	consistency := 100 * float64(consistent) / float64(len(window))

	return types.WindAnalysis{
		IsAlarmWorthy: avg >= criteria.MinAvgSpeedMph &&
			consistency >= criteria.DirectionConsistency &&
			maxRun >= criteria.MinConsecutivePoints,
		AverageSpeedMph:          avg,
		DirectionConsistency:     consistency,
		MaxConsecutiveGoodPoints: maxRun,
		SampleCount:              len(window),
		UsedFallbackWindow:       usedFallback,
	}
}

func (a *Analyzer) selectWindow(samples []types.WindSample) ([]types.WindSample, bool) {
	cutoff := a.clock.Now().Add(-analysisWindow)
	var recent []types.WindSample
	for _, s := range samples {
		if !s.Time.Before(cutoff) {
			recent = append(recent, s)
		}
	}
	if len(recent) > 0 {
		return recent, false
	}
	if len(samples) > fallbackSampleCount {
		samples = samples[len(samples)-fallbackSampleCount:]
	}
	return samples, true
}

// goodPoint tests one sample: fast enough, and inside the preferred sector
// when direction gating is enabled.
func goodPoint(s types.WindSample, c types.AlarmCriteria, inSector bool) bool {
	if s.SpeedMph < c.MinAvgSpeedMph {
		return false
	}
	if c.UseWindDirection && !inSector {
		return false
	}
	return true
}

func directionOK(dirDeg float64, c types.AlarmCriteria) bool {
	if !c.UseWindDirection {
		return true
	}
	diff := math.Mod(math.Abs(dirDeg-c.PreferredDirectionDeg), 360)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff <= c.DirectionRangeDeg
}
