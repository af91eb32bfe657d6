package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

type mockClock struct {
	now time.Time
}

func (c *mockClock) Now() time.Time {
	return c.now
}

// fakeProvider serves canned samples per location name, or fails outright.
type fakeProvider struct {
	name    string
	samples map[string][]types.WeatherSample
	err     error
	fetched int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(_ context.Context, loc types.Location) ([]types.WeatherSample, error) {
	f.fetched++
	if f.err != nil {
		return nil, f.err
	}
	return f.samples[loc.Name], nil
}

var (
	valley   = types.Location{Name: "valley", Lat: 39.653, Lon: -105.191}
	mountain = types.Location{Name: "mountain", Lat: 39.634, Lon: -105.321}
)

func sampleAt(t time.Time, temp float64) types.WeatherSample {
	return types.WeatherSample{Time: t, TemperatureF: temp}
}

func newTestAggregator(clock types.Clock, providers ...types.ForecastProvider) *Aggregator {
	return New(Config{
		Providers: providers,
		Locations: []types.Location{valley, mountain},
		Clock:     clock,
	})
}

func TestFetchAllProvidersHealthy(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	primary := &fakeProvider{
		name: "openweather",
		samples: map[string][]types.WeatherSample{
			"valley":   {sampleAt(now, 70)},
			"mountain": {sampleAt(now, 55)},
		},
	}

	snap := newTestAggregator(&mockClock{now: now}, primary).Fetch(context.Background())

	require.Len(t, snap.Locations, 2)
	assert.Equal(t, types.ReliabilityHigh, snap.Reliability)
	assert.Equal(t, []string{"openweather"}, snap.Sources)
	assert.Equal(t, now, snap.FetchedAt)

	series, ok := snap.SeriesByName("valley")
	require.True(t, ok)
	assert.Equal(t, "openweather", series.Source)
	require.Len(t, series.Samples, 1)
}

func TestFetchFallsBackToSecondaryProvider(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	primary := &fakeProvider{name: "openweather", err: errors.New("upstream down")}
	secondary := &fakeProvider{
		name: "noaa",
		samples: map[string][]types.WeatherSample{
			"valley":   {sampleAt(now, 68)},
			"mountain": {sampleAt(now, 52)},
		},
	}

	snap := newTestAggregator(&mockClock{now: now}, primary, secondary).Fetch(context.Background())

	assert.Equal(t, types.ReliabilityMedium, snap.Reliability, "fallback data is never rated high")
	series, ok := snap.SeriesByName("valley")
	require.True(t, ok)
	assert.Equal(t, "noaa", series.Source)
}

func TestFetchSecondaryFillsGaps(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	primary := &fakeProvider{
		name: "openweather",
		samples: map[string][]types.WeatherSample{
			"valley":   {sampleAt(now, 70)},
			"mountain": {sampleAt(now, 55)},
		},
	}
	secondary := &fakeProvider{
		name: "noaa",
		samples: map[string][]types.WeatherSample{
			// One duplicate within tolerance, one genuinely new hour.
			"valley": {sampleAt(now.Add(10*time.Minute), 69), sampleAt(now.Add(3*time.Hour), 66)},
		},
	}

	snap := newTestAggregator(&mockClock{now: now}, primary, secondary).Fetch(context.Background())

	series, ok := snap.SeriesByName("valley")
	require.True(t, ok)
	assert.Equal(t, "openweather", series.Source, "base provider keeps the label")
	require.Len(t, series.Samples, 2)
	assert.Equal(t, 70.0, series.Samples[0].TemperatureF, "primary sample wins inside tolerance")
	assert.Equal(t, 66.0, series.Samples[1].TemperatureF)
}

func TestFetchTotalOutageYieldsEmptySeries(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	primary := &fakeProvider{name: "openweather", err: errors.New("down")}
	secondary := &fakeProvider{name: "noaa", err: errors.New("also down")}

	snap := newTestAggregator(&mockClock{now: now}, primary, secondary).Fetch(context.Background())

	require.Len(t, snap.Locations, 2, "failed locations still appear as empty series")
	assert.Equal(t, types.ReliabilityLow, snap.Reliability)
	assert.Empty(t, snap.Sources)
	assert.False(t, snap.HasAnyData())
}

func TestFetchPartialOutageIsMedium(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	primary := &fakeProvider{
		name: "openweather",
		samples: map[string][]types.WeatherSample{
			"valley": {sampleAt(now, 70)},
			// mountain intentionally missing
		},
	}

	snap := newTestAggregator(&mockClock{now: now}, primary).Fetch(context.Background())

	assert.Equal(t, types.ReliabilityMedium, snap.Reliability)
	mtn, ok := snap.SeriesByName("mountain")
	require.True(t, ok)
	assert.True(t, mtn.Empty())
}

func TestMergeSamples(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	base := []types.WeatherSample{sampleAt(now, 70), sampleAt(now.Add(time.Hour), 69)}
	extra := []types.WeatherSample{
		sampleAt(now.Add(20*time.Minute), 99), // duplicate of base within tolerance
		sampleAt(now.Add(2*time.Hour), 65),
	}

	got := MergeSamples(base, extra, 30*time.Minute)

	require.Len(t, got, 3)
	assert.Equal(t, 70.0, got[0].TemperatureF)
	assert.Equal(t, 69.0, got[1].TemperatureF)
	assert.Equal(t, 65.0, got[2].TemperatureF)
}

func TestMergeSamplesFillsOptionalFieldGaps(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	base := []types.WeatherSample{{Time: now, TemperatureF: 70, HasPrecipProb: true, PrecipProbPct: 15}}
	extra := []types.WeatherSample{{
		Time:          now.Add(10 * time.Minute),
		TemperatureF:  99,
		HasPrecipProb: true,
		PrecipProbPct: 80,
		HasCloudCover: true,
		CloudCoverPct: 40,
		HasPressure:   true,
		PressureHpa:   1012,
	}}

	got := MergeSamples(base, extra, 30*time.Minute)

	require.Len(t, got, 1)
	assert.Equal(t, 70.0, got[0].TemperatureF, "base values win at matched timestamps")
	assert.Equal(t, 15.0, got[0].PrecipProbPct, "present base fields are never overwritten")
	require.True(t, got[0].HasCloudCover)
	assert.Equal(t, 40.0, got[0].CloudCoverPct)
	require.True(t, got[0].HasPressure)
	assert.Equal(t, 1012.0, got[0].PressureHpa)
}

func TestMergeSamplesFillsNearestNeighbor(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	base := []types.WeatherSample{sampleAt(now, 70), sampleAt(now.Add(time.Hour), 69)}
	extra := []types.WeatherSample{{
		Time:        now.Add(50 * time.Minute),
		HasPressure: true,
		PressureHpa: 1008,
	}}

	got := MergeSamples(base, extra, 30*time.Minute)

	require.Len(t, got, 2)
	assert.False(t, got[0].HasPressure)
	require.True(t, got[1].HasPressure, "the closer base sample receives the fill")
	assert.Equal(t, 1008.0, got[1].PressureHpa)
}

func TestMergeSamplesEmptyBase(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	extra := []types.WeatherSample{sampleAt(now.Add(time.Hour), 65), sampleAt(now, 70)}

	got := MergeSamples(nil, extra, 30*time.Minute)

	require.Len(t, got, 2)
	assert.True(t, got[0].Time.Before(got[1].Time), "merged output is time-ordered")
}

func TestSnapshotHolder(t *testing.T) {
	h := &SnapshotHolder{}
	assert.Nil(t, h.Current())
	assert.Nil(t, h.Previous())

	first := &types.AggregateSnapshot{FetchedAt: time.Unix(1, 0)}
	second := &types.AggregateSnapshot{FetchedAt: time.Unix(2, 0)}
	third := &types.AggregateSnapshot{FetchedAt: time.Unix(3, 0)}

	h.Set(first)
	assert.Same(t, first, h.Current())
	assert.Nil(t, h.Previous())

	h.Set(second)
	assert.Same(t, second, h.Current())
	assert.Same(t, first, h.Previous())

	h.Set(third)
	assert.Same(t, third, h.Current())
	assert.Same(t, second, h.Previous(), "only one prior snapshot is retained")
}
