package factors

import (
	"fmt"
	"math"
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// tempMatchTolerance bounds the timestamp mismatch allowed between the
// mountain and valley readings being contrasted.
const tempMatchTolerance = 6 * time.Hour

// TemperatureDiffAnalyzer measures the mountain-valley temperature contrast
// near the end of the cooling night. A strong contrast is the engine of the
// katabatic flow; without it there is nothing to drain downslope.
type TemperatureDiffAnalyzer struct {
	Thresholds Thresholds
}

func (a *TemperatureDiffAnalyzer) Kind() types.FactorKind { return types.FactorTemperature }

func (a *TemperatureDiffAnalyzer) Analyze(in Input) types.FactorResult {
	threshold := a.Thresholds.MinTempDiffF
	if !in.Snapshot.HasAnyData() {
		return absent(a.Kind(), threshold, "no forecast data available")
	}

	valley, vok := in.Snapshot.SeriesByName(a.Thresholds.ValleyLocation)
	mountain, mok := in.Snapshot.SeriesByName(a.Thresholds.MountainLocation)
	if !vok || !mok || valley.Empty() || mountain.Empty() {
		return absent(a.Kind(), threshold, "missing mountain or valley series")
	}

	// Contrast is read at the end of the pre-dawn cooling window, when the
	// differential peaks.
	_, ref := a.Thresholds.ClearSkyWindow.Bounds(in.Day)

	vSample, vFound := valley.NearestSample(ref, tempMatchTolerance)
	mSample, mFound := mountain.NearestSample(ref, tempMatchTolerance)
	if !vFound || !mFound {
		return types.FactorResult{
			Kind:       a.Kind(),
			Meets:      false,
			Value:      0,
			Threshold:  threshold,
			Confidence: 30,
			Detail:     "no samples near the pre-dawn reference time",
		}
	}

	diff := math.Abs(mSample.TemperatureF - vSample.TemperatureF)
	return types.FactorResult{
		Kind:       a.Kind(),
		Meets:      diff >= threshold,
		Value:      diff,
		Threshold:  threshold,
		Confidence: 85,
		Detail: fmt.Sprintf("mountain %.0fF / valley %.0fF, differential %.1fF",
			mSample.TemperatureF, vSample.TemperatureF, diff),
	}
}
