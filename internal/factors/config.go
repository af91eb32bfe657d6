package factors

import (
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// Thresholds is the single named structure holding every tunable number the
// analyzers consume. Recalibration is a configuration change, never a code
// change; the defaults below are calibration starting points.
type Thresholds struct {
	// MaxPrecipProbPct is the highest acceptable precipitation probability.
	MaxPrecipProbPct float64
	// MinSkyClearnessPct is the minimum pre-dawn clearness (100 - cloud cover).
	MinSkyClearnessPct float64
	// MinPressureChangeHpa is the minimum pressure movement magnitude over the
	// lookback period.
	MinPressureChangeHpa float64
	// MinTempDiffF is the minimum mountain-valley temperature contrast.
	MinTempDiffF float64
	// MinWaveScore is the minimum wave/stability composite score.
	MinWaveScore float64

	// DecisionWindow is the dawn patrol riding window, local hours.
	DecisionWindow types.TimeWindow
	// ClearSkyWindow is the pre-dawn radiative cooling window, local hours.
	ClearSkyWindow types.TimeWindow
	// PressureLookback is how far back the pressure comparison reaches.
	PressureLookback time.Duration

	// ValleyLocation and MountainLocation name the two configured stations
	// whose contrast drives the temperature and wave factors.
	ValleyLocation   string
	MountainLocation string

	// Transport-wind calibration for the wave factor. The favorable sector is
	// PreferredTransportDirDeg plus or minus TransportDirRangeDeg.
	MinTransportWindMph      float64
	MaxTransportWindMph      float64
	PreferredTransportDirDeg float64
	TransportDirRangeDeg     float64
}

// DefaultThresholds returns the documented safe defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxPrecipProbPct:     25,
		MinSkyClearnessPct:   45,
		MinPressureChangeHpa: 1.0,
		MinTempDiffF:         6,
		MinWaveScore:         60,

		DecisionWindow:   types.TimeWindow{StartHour: 6, EndHour: 8},
		ClearSkyWindow:   types.TimeWindow{StartHour: 2, EndHour: 5},
		PressureLookback: 12 * time.Hour,

		ValleyLocation:   "valley",
		MountainLocation: "mountain",

		MinTransportWindMph:      10,
		MaxTransportWindMph:      25,
		PreferredTransportDirDeg: 290,
		TransportDirRangeDeg:     40,
	}
}
