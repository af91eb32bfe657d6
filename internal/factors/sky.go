package factors

import (
	"fmt"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// SkyClearnessAnalyzer measures pre-dawn sky clearness. Radiative cooling in
// the 02:00-05:00 window is what drives the density current, so cloud cover
// during those hours matters far more than the daytime forecast.
type SkyClearnessAnalyzer struct {
	Thresholds Thresholds
}

func (a *SkyClearnessAnalyzer) Kind() types.FactorKind { return types.FactorSkyClearness }

func (a *SkyClearnessAnalyzer) Analyze(in Input) types.FactorResult {
	threshold := a.Thresholds.MinSkyClearnessPct
	if !in.Snapshot.HasAnyData() {
		return absent(a.Kind(), threshold, "no forecast data available")
	}

	start, end := a.Thresholds.ClearSkyWindow.Bounds(in.Day)

	var windowSum float64
	windowCount := 0
	var anySum float64
	anyCount := 0
	for i := range in.Snapshot.Locations {
		for _, s := range in.Snapshot.Locations[i].Samples {
			if !s.HasCloudCover {
				continue
			}
			anySum += s.CloudCoverPct
			anyCount++
			if !s.Time.Before(start) && s.Time.Before(end) {
				windowSum += s.CloudCoverPct
				windowCount++
			}
		}
	}

	if anyCount == 0 {
		return absent(a.Kind(), threshold, "providers reported no cloud cover")
	}

	var clearness, confidence float64
	var detail string
	switch {
	case windowCount >= 3:
		clearness = 100 - windowSum/float64(windowCount)
		confidence = 80
		detail = fmt.Sprintf("%.0f%% clear over pre-dawn window (%d samples)", clearness, windowCount)
	case windowCount > 0:
		clearness = 100 - windowSum/float64(windowCount)
		confidence = 60
		detail = fmt.Sprintf("%.0f%% clear over pre-dawn window (sparse, %d samples)", clearness, windowCount)
	default:
		// Window uncovered; approximate from whatever cloud data exists.
		clearness = 100 - anySum/float64(anyCount)
		confidence = 40
		detail = fmt.Sprintf("pre-dawn window uncovered; %.0f%% clear from available forecast", clearness)
	}

	return types.FactorResult{
		Kind:       a.Kind(),
		Meets:      clearness >= threshold,
		Value:      clearness,
		Threshold:  threshold,
		Confidence: confidence,
		Detail:     detail,
	}
}
