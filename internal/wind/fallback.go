package wind

import (
	"context"
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// FallbackSource layers two sensor sources: the primary (the local MQTT ring
// store) answers when it has samples, otherwise the secondary (the station's
// cloud history API) is consulted. A cloud failure with an empty ring is
// surfaced, not swallowed.
type FallbackSource struct {
	primary   types.SensorSource
	secondary types.SensorSource
}

// NewFallbackSource creates a layered sensor source.
func NewFallbackSource(primary, secondary types.SensorSource) *FallbackSource {
	return &FallbackSource{primary: primary, secondary: secondary}
}

// Name returns the primary source's label.
func (f *FallbackSource) Name() string { return f.primary.Name() }

// RecentSamples serves from the primary when it has data, otherwise from the
// secondary.
func (f *FallbackSource) RecentSamples(ctx context.Context, lookback time.Duration) ([]types.WindSample, error) {
	samples, err := f.primary.RecentSamples(ctx, lookback)
	if err == nil && len(samples) > 0 {
		return samples, nil
	}
	return f.secondary.RecentSamples(ctx, lookback)
}
