package types

import (
	"context"
	"time"
)

// Clock abstracts time for testability. Lifecycle transitions, factor
// windows, and verification all read the clock through this interface so the
// PREDICTION/VERIFICATION/FROZEN transitions can be tested without waiting
// for real time to pass.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// ForecastProvider retrieves a normalized forecast time series for one
// location. Implementations absorb vendor-specific units and payload shapes
// at a strongly-typed parse boundary; everything they return is canonical.
type ForecastProvider interface {
	// Name returns the provider's source label (e.g. "openweathermap").
	Name() string
	// Fetch returns time-ordered normalized samples for the location.
	Fetch(ctx context.Context, loc Location) ([]WeatherSample, error)
}

// SensorSource retrieves recent raw wind samples from the lake station.
// It is the ground-truth side of verification and the live analyzer's feed.
type SensorSource interface {
	Name() string
	// RecentSamples returns time-ordered samples covering at most the given
	// lookback window, ending at the present.
	RecentSamples(ctx context.Context, lookback time.Duration) ([]WindSample, error)
}
