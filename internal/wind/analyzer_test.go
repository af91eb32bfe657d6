package wind

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

type mockClock struct {
	now time.Time
}

func (c *mockClock) Now() time.Time {
	return c.now
}

func samplesAt(now time.Time, speeds ...float64) []types.WindSample {
	out := make([]types.WindSample, 0, len(speeds))
	for i, s := range speeds {
		out = append(out, types.WindSample{
			Time:         now.Add(-time.Duration(len(speeds)-i) * time.Minute),
			SpeedMph:     s,
			DirectionDeg: 315,
		})
	}
	return out
}

func TestAnalyzeConsecutiveGoodPoints(t *testing.T) {
	now := time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC)
	a := NewAnalyzer(&mockClock{now: now})

	criteria := types.AlarmCriteria{
		MinAvgSpeedMph:       10,
		UseWindDirection:     false,
		MinConsecutivePoints: 4,
		DirectionConsistency: 0,
	}
	got := a.Analyze(samplesAt(now, 8, 12, 15, 14, 9, 13, 16), criteria)

	assert.Equal(t, 3, got.MaxConsecutiveGoodPoints)
	assert.Equal(t, 7, got.SampleCount)
	assert.False(t, got.UsedFallbackWindow)
	assert.False(t, got.IsAlarmWorthy, "longest run is 3, criteria need 4")
	assert.InDelta(t, 12.428571, got.AverageSpeedMph, 0.001)
}

func TestAnalyzeAlarmWorthy(t *testing.T) {
	now := time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC)
	a := NewAnalyzer(&mockClock{now: now})

	criteria := types.DefaultAlarmCriteria()
	got := a.Analyze(samplesAt(now, 12, 13, 14, 15, 13, 12), criteria)

	assert.True(t, got.IsAlarmWorthy)
	assert.Equal(t, 6, got.MaxConsecutiveGoodPoints)
	assert.InDelta(t, 100, got.DirectionConsistency, 1e-9)
}

func TestAnalyzeDirectionGatingBreaksStreak(t *testing.T) {
	now := time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC)
	a := NewAnalyzer(&mockClock{now: now})

	samples := samplesAt(now, 12, 13, 14, 15)
	samples[2].DirectionDeg = 120 // out of the northwest sector

	criteria := types.DefaultAlarmCriteria()
	got := a.Analyze(samples, criteria)

	assert.Equal(t, 2, got.MaxConsecutiveGoodPoints)
	assert.InDelta(t, 75, got.DirectionConsistency, 1e-9)
	assert.False(t, got.IsAlarmWorthy)
}

func TestAnalyzeFallbackWindowSurfaced(t *testing.T) {
	now := time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC)
	a := NewAnalyzer(&mockClock{now: now})

	// All samples are hours old, so none land in the last-hour window.
	old := make([]types.WindSample, 0, 12)
	for i := 0; i < 12; i++ {
		old = append(old, types.WindSample{
			Time:         now.Add(-5*time.Hour + time.Duration(i)*time.Minute),
			SpeedMph:     11,
			DirectionDeg: 315,
		})
	}

	criteria := types.DefaultAlarmCriteria()
	got := a.Analyze(old, criteria)

	assert.True(t, got.UsedFallbackWindow)
	assert.Equal(t, fallbackSampleCount, got.SampleCount)
	assert.InDelta(t, 11, got.AverageSpeedMph, 1e-9)
}

func TestAnalyzeNoSamples(t *testing.T) {
	now := time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC)
	a := NewAnalyzer(&mockClock{now: now})

	got := a.Analyze(nil, types.DefaultAlarmCriteria())

	assert.True(t, got.UsedFallbackWindow)
	assert.Zero(t, got.SampleCount)
	assert.False(t, got.IsAlarmWorthy)
}

func TestDirectionOKWrapsAroundNorth(t *testing.T) {
	c := types.AlarmCriteria{
		UseWindDirection:      true,
		PreferredDirectionDeg: 350,
		DirectionRangeDeg:     30,
	}
	assert.True(t, directionOK(10, c))
	assert.True(t, directionOK(330, c))
	assert.False(t, directionOK(60, c))
}
