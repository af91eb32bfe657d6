package aggregator

import (
	"sort"
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// mergeTolerance is how close two samples from different providers must be
// before the lower-priority one is considered a duplicate and dropped.
const mergeTolerance = 30 * time.Minute

// MergeSamples overlays extra onto base. Base samples always survive and
// keep their values; an extra sample within tolerance of a base sample is
// collapsed into it, filling only the optional fields the base sample
// lacks. Extra samples with no base neighbor are admitted whole. The result
// is time-ordered.
func MergeSamples(base, extra []types.WeatherSample, tolerance time.Duration) []types.WeatherSample {
	if len(base) == 0 {
		out := make([]types.WeatherSample, len(extra))
		copy(out, extra)
		sortSamples(out)
		return out
	}

	out := make([]types.WeatherSample, len(base), len(base)+len(extra))
	copy(out, base)

	for _, e := range extra {
		if i := nearestWithin(out[:len(base)], e.Time, tolerance); i >= 0 {
			fillGaps(&out[i], e)
			continue
		}
		out = append(out, e)
	}
	sortSamples(out)
	return out
}

// nearestWithin returns the index of the sample closest to t inside
// tolerance, or -1.
func nearestWithin(samples []types.WeatherSample, t time.Time, tolerance time.Duration) int {
	best := -1
	var bestDiff time.Duration
	for i, s := range samples {
		diff := s.Time.Sub(t)
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolerance && (best < 0 || diff < bestDiff) {
			best = i
			bestDiff = diff
		}
	}
	return best
}

// fillGaps copies donor fields into dst where dst reports none. Only the
// optional fields carry presence flags; always-reported fields keep the
// higher-priority provider's value.
func fillGaps(dst *types.WeatherSample, donor types.WeatherSample) {
	if !dst.HasPrecipProb && donor.HasPrecipProb {
		dst.PrecipProbPct = donor.PrecipProbPct
		dst.HasPrecipProb = true
	}
	if !dst.HasCloudCover && donor.HasCloudCover {
		dst.CloudCoverPct = donor.CloudCoverPct
		dst.HasCloudCover = true
	}
	if !dst.HasPressure && donor.HasPressure {
		dst.PressureHpa = donor.PressureHpa
		dst.HasPressure = true
	}
}

func sortSamples(samples []types.WeatherSample) {
	sort.Slice(samples, func(i, j int) bool { return samples[i].Time.Before(samples[j].Time) })
}
