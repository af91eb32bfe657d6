package factors

import (
	"fmt"
	"math"
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// WaveStabilityAnalyzer scores the chance that mountain-wave activity and a
// stable low-level airmass reinforce the surface flow. Moderate ridge-top
// transport wind from the favorable sector over a calm valley gives the
// highest score. Without ridge-top data the factor degrades to a low score
// that is explicitly labeled uncertain; it never substitutes a guess at full
// confidence.
type WaveStabilityAnalyzer struct {
	Thresholds Thresholds
}

func (a *WaveStabilityAnalyzer) Kind() types.FactorKind { return types.FactorWave }

func (a *WaveStabilityAnalyzer) Analyze(in Input) types.FactorResult {
	threshold := a.Thresholds.MinWaveScore
	if !in.Snapshot.HasAnyData() {
		return absent(a.Kind(), threshold, "no forecast data available")
	}

	start, end := a.Thresholds.ClearSkyWindow.Bounds(in.Day)

	mountain, ok := in.Snapshot.SeriesByName(a.Thresholds.MountainLocation)
	if !ok || mountain.Empty() {
		return types.FactorResult{
			Kind:       a.Kind(),
			Meets:      false,
			Value:      25,
			Threshold:  threshold,
			Confidence: 25,
			Detail:     "no ridge-top transport data; wave enhancement uncertain",
		}
	}

	transport := mountain.SamplesBetween(start, end)
	if len(transport) == 0 {
		transport = mountain.Samples
	}

	speed, dir := meanWind(transport)
	speedScore := bandScore(speed, a.Thresholds.MinTransportWindMph, a.Thresholds.MaxTransportWindMph)
	dirScore := sectorScore(dir, a.Thresholds.PreferredTransportDirDeg, a.Thresholds.TransportDirRangeDeg)
	stabilityScore := a.valleyStability(in, start, end)

	score := 0.4*speedScore + 0.3*dirScore + 0.3*stabilityScore

	return types.FactorResult{
		Kind:       a.Kind(),
		Meets:      score >= threshold,
		Value:      score,
		Threshold:  threshold,
		Confidence: 70,
		Detail: fmt.Sprintf("transport %.0f mph @ %.0f deg, composite %.0f/100 (speed %.0f, direction %.0f, stability %.0f)",
			speed, dir, score, speedScore, dirScore, stabilityScore),
	}
}

// valleyStability scores how undisturbed the valley airmass is. Calm surface
// wind pre-dawn indicates the decoupled stable layer wave energy rides on;
// a stirred-up valley erodes the score. Without valley data the component
// scores a neutral 50 rather than penalizing the composite.
func (a *WaveStabilityAnalyzer) valleyStability(in Input, start, end time.Time) float64 {
	valley, ok := in.Snapshot.SeriesByName(a.Thresholds.ValleyLocation)
	if !ok || valley.Empty() {
		return 50
	}
	samples := valley.SamplesBetween(start, end)
	if len(samples) == 0 {
		samples = valley.Samples
	}
	speed, _ := meanWind(samples)
	switch {
	case speed <= 5:
		return 100
	case speed >= 15:
		return 0
	default:
		return 100 * (15 - speed) / 10
	}
}

// bandScore is 100 inside [lo, hi] and decays linearly to 0 over a band-width
// outside it.
func bandScore(v, lo, hi float64) float64 {
	width := hi - lo
	if width <= 0 {
		return 0
	}
	switch {
	case v >= lo && v <= hi:
		return 100
	case v < lo:
		return clampScore(100 * (1 - (lo-v)/width))
	default:
		return clampScore(100 * (1 - (v-hi)/width))
	}
}

// sectorScore is 100 inside the preferred sector and decays linearly to 0 at
// twice the sector half-width.
func sectorScore(dirDeg, preferredDeg, rangeDeg float64) float64 {
	if rangeDeg <= 0 {
		return 0
	}
	diff := angularDiff(dirDeg, preferredDeg)
	if diff <= rangeDeg {
		return 100
	}
	return clampScore(100 * (1 - (diff-rangeDeg)/rangeDeg))
}

// angularDiff returns the smallest absolute angle between two bearings.
func angularDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func meanWind(samples []types.WeatherSample) (speedMph, dirDeg float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	var speedSum, sinSum, cosSum float64
	for _, s := range samples {
		speedSum += s.WindSpeedMph
		rad := s.WindDirectionDeg * math.Pi / 180
		sinSum += math.Sin(rad)
		cosSum += math.Cos(rad)
	}
	speedMph = speedSum / float64(len(samples))
	dirDeg = math.Atan2(sinSum, cosSum) * 180 / math.Pi
	if dirDeg < 0 {
		dirDeg += 360
	}
	return speedMph, dirDeg
}
