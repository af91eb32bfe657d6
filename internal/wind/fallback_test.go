package wind

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

type stubSource struct {
	name    string
	samples []types.WindSample
	err     error
	calls   int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) RecentSamples(context.Context, time.Duration) ([]types.WindSample, error) {
	s.calls++
	return s.samples, s.err
}

func TestFallbackPrefersPrimary(t *testing.T) {
	primary := &stubSource{name: "station", samples: []types.WindSample{{SpeedMph: 12}}}
	secondary := &stubSource{name: "ecowitt", samples: []types.WindSample{{SpeedMph: 99}}}
	f := NewFallbackSource(primary, secondary)

	got, err := f.RecentSamples(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 12.0, got[0].SpeedMph)
	assert.Zero(t, secondary.calls)
	assert.Equal(t, "station", f.Name())
}

func TestFallbackConsultsSecondaryWhenPrimaryEmpty(t *testing.T) {
	primary := &stubSource{name: "station"}
	secondary := &stubSource{name: "ecowitt", samples: []types.WindSample{{SpeedMph: 11}}}
	f := NewFallbackSource(primary, secondary)

	got, err := f.RecentSamples(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 11.0, got[0].SpeedMph)
}

func TestFallbackSurfacesSecondaryError(t *testing.T) {
	primary := &stubSource{name: "station"}
	secondary := &stubSource{name: "ecowitt", err: errors.New("cloud down")}
	f := NewFallbackSource(primary, secondary)

	_, err := f.RecentSamples(context.Background(), time.Hour)
	assert.Error(t, err)
}
