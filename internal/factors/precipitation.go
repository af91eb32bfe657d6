package factors

import (
	"fmt"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// PrecipitationAnalyzer checks that rain chances stay low through the dawn
// window. Precipitation probability is reliably reported by providers when
// present, so confidence is high whenever any data exists.
type PrecipitationAnalyzer struct {
	Thresholds Thresholds
}

func (a *PrecipitationAnalyzer) Kind() types.FactorKind { return types.FactorPrecipitation }

func (a *PrecipitationAnalyzer) Analyze(in Input) types.FactorResult {
	threshold := a.Thresholds.MaxPrecipProbPct
	if !in.Snapshot.HasAnyData() {
		return absent(a.Kind(), threshold, "no forecast data available")
	}

	start, end := a.Thresholds.DecisionWindow.Bounds(in.Day)

	maxProb := 0.0
	windowed := 0
	anywhere := 0
	for i := range in.Snapshot.Locations {
		series := &in.Snapshot.Locations[i]
		for _, s := range series.Samples {
			if !s.HasPrecipProb {
				continue
			}
			anywhere++
			if !s.Time.Before(start) && s.Time.Before(end) {
				windowed++
				if s.PrecipProbPct > maxProb {
					maxProb = s.PrecipProbPct
				}
			}
		}
	}

	if anywhere == 0 {
		return absent(a.Kind(), threshold, "providers reported no precipitation probability")
	}

	confidence := 85.0
	detail := fmt.Sprintf("max precip probability %.0f%% in dawn window", maxProb)
	if windowed == 0 {
		// Dawn window not covered; fall back to the worst value anywhere in
		// the forecast and dock confidence.
		for i := range in.Snapshot.Locations {
			for _, s := range in.Snapshot.Locations[i].Samples {
				if s.HasPrecipProb && s.PrecipProbPct > maxProb {
					maxProb = s.PrecipProbPct
				}
			}
		}
		confidence = 60
		detail = fmt.Sprintf("dawn window uncovered; max precip probability %.0f%% overall", maxProb)
	}

	return types.FactorResult{
		Kind:       a.Kind(),
		Meets:      maxProb <= threshold,
		Value:      maxProb,
		Threshold:  threshold,
		Confidence: confidence,
		Detail:     detail,
	}
}
