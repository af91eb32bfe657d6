package factors

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// pressureTrendBand is the neutral band around zero; deltas inside it
// classify as stable.
const pressureTrendBand = 1.0

// pressureMatchTolerance bounds how far from the ideal lookback instant the
// comparison sample may sit.
const pressureMatchTolerance = 3 * time.Hour

// PressureChangeAnalyzer compares the latest valley pressure against the
// reading from roughly half a day earlier. Synoptic pressure movement signals
// the air-mass change that either reinforces or kills the overnight drainage
// flow. The previous snapshot extends the history when the current fetch does
// not reach far enough back.
type PressureChangeAnalyzer struct {
	Thresholds Thresholds
}

func (a *PressureChangeAnalyzer) Kind() types.FactorKind { return types.FactorPressure }

func (a *PressureChangeAnalyzer) Analyze(in Input) types.FactorResult {
	threshold := a.Thresholds.MinPressureChangeHpa
	if !in.Snapshot.HasAnyData() {
		return absent(a.Kind(), threshold, "no forecast data available")
	}

	history := a.pressureHistory(in)
	if len(history) == 0 {
		return absent(a.Kind(), threshold, "providers reported no pressure")
	}

	latest := history[len(history)-1]
	target := latest.Time.Add(-a.Thresholds.PressureLookback)
	earlier, ok := nearestPressure(history, target, pressureMatchTolerance)
	if !ok || earlier.Time.Equal(latest.Time) {
		return types.FactorResult{
			Kind:       a.Kind(),
			Meets:      false,
			Value:      0,
			Threshold:  threshold,
			Confidence: 30,
			Detail:     "insufficient pressure history for trend",
		}
	}

	delta := latest.PressureHpa - earlier.PressureHpa
	trend := classifyTrend(delta)
	span := latest.Time.Sub(earlier.Time)

	return types.FactorResult{
		Kind:       a.Kind(),
		Meets:      math.Abs(delta) >= threshold,
		Value:      math.Abs(delta),
		Threshold:  threshold,
		Confidence: 80,
		Detail:     fmt.Sprintf("pressure %s %.1f hPa over %.0fh", trend, math.Abs(delta), span.Hours()),
	}
}

// pressureHistory gathers every pressure-bearing valley sample from the
// previous and current snapshots, time-ordered.
func (a *PressureChangeAnalyzer) pressureHistory(in Input) []types.WeatherSample {
	var history []types.WeatherSample
	collect := func(snap *types.AggregateSnapshot) {
		if snap == nil {
			return
		}
		series, ok := snap.SeriesByName(a.Thresholds.ValleyLocation)
		if !ok {
			return
		}
		for _, s := range series.Samples {
			if s.HasPressure {
				history = append(history, s)
			}
		}
	}
	collect(in.Previous)
	collect(in.Snapshot)

	sort.Slice(history, func(i, j int) bool { return history[i].Time.Before(history[j].Time) })
	return dedupeByTime(history)
}

func dedupeByTime(samples []types.WeatherSample) []types.WeatherSample {
	out := samples[:0]
	for i, s := range samples {
		if i > 0 && s.Time.Equal(samples[i-1].Time) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func nearestPressure(history []types.WeatherSample, target time.Time, tolerance time.Duration) (types.WeatherSample, bool) {
	best := -1
	var bestDiff time.Duration
	for i, s := range history {
		diff := s.Time.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolerance && (best < 0 || diff < bestDiff) {
			best = i
			bestDiff = diff
		}
	}
	if best < 0 {
		return types.WeatherSample{}, false
	}
	return history[best], true
}

func classifyTrend(delta float64) types.TrendDirection {
	switch {
	case delta > pressureTrendBand:
		return types.TrendRising
	case delta < -pressureTrendBand:
		return types.TrendFalling
	default:
		return types.TrendStable
	}
}
