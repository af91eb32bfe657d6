// Package factors implements the five independent analyzers that inspect an
// aggregated weather snapshot and score the ingredients of a katabatic dawn
// flow: dry air, clear pre-dawn sky, pressure movement, mountain-valley
// temperature contrast, and wave/stability enhancement aloft.
//
// Each analyzer is pure: same snapshot and thresholds in, same FactorResult
// out. Confidence reflects how much data backed the measurement and is 0 when
// the underlying data is entirely absent.
package factors

import (
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// Input carries everything an analyzer may consult. Previous is only used by
// the pressure-change analyzer to extend its lookback history; the other
// analyzers ignore it.
type Input struct {
	Snapshot *types.AggregateSnapshot
	Previous *types.AggregateSnapshot
	// Day anchors the local-time analysis windows. It is any instant on the
	// target calendar day, expressed in the lake's timezone.
	Day time.Time
}

// Analyzer inspects aggregated data for one factor.
type Analyzer interface {
	Kind() types.FactorKind
	Analyze(in Input) types.FactorResult
}

// All returns the five analyzers in canonical synthesis order.
func All(t Thresholds) []Analyzer {
	return []Analyzer{
		&PrecipitationAnalyzer{Thresholds: t},
		&SkyClearnessAnalyzer{Thresholds: t},
		&PressureChangeAnalyzer{Thresholds: t},
		&TemperatureDiffAnalyzer{Thresholds: t},
		&WaveStabilityAnalyzer{Thresholds: t},
	}
}

// absent builds the canonical zero-confidence result for a factor whose
// underlying data is entirely missing.
func absent(kind types.FactorKind, threshold float64, detail string) types.FactorResult {
	return types.FactorResult{
		Kind:       kind,
		Meets:      false,
		Value:      0,
		Threshold:  threshold,
		Confidence: 0,
		Detail:     detail,
	}
}
