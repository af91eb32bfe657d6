package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

const owmFixture = `{
	"hourly": [
		{
			"dt": 1750000000,
			"temp": 283.15,
			"feels_like": 280.15,
			"pressure": 1013,
			"humidity": 40,
			"uvi": 2.5,
			"clouds": 25,
			"visibility": 16093.44,
			"wind_speed": 4.4704,
			"wind_gust": 8.9408,
			"wind_deg": 290,
			"pop": 0.15
		}
	]
}`

func TestOpenWeatherFetchNormalizes(t *testing.T) {
	var gotAppID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAppID = r.URL.Query().Get("appid")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(owmFixture))
	}))
	defer srv.Close()

	c := NewOpenWeatherClient(srv.Client(), OpenWeatherConfig{
		APIKey:  types.SecretString("secret"),
		BaseURL: srv.URL,
	})

	samples, err := c.Fetch(context.Background(), types.Location{Name: "valley", Lat: 39.6530, Lon: -105.1910})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "secret", gotAppID)

	s := samples[0]
	assert.Equal(t, int64(1750000000), s.Time.Unix())
	assert.InDelta(t, 50, s.TemperatureF, 0.001, "283.15 K is 50 F")
	assert.InDelta(t, 44.6, s.FeelsLikeF, 0.001)
	assert.InDelta(t, 10, s.WindSpeedMph, 0.001, "4.4704 m/s is 10 mph")
	assert.InDelta(t, 20, s.WindGustMph, 0.001)
	assert.InDelta(t, 290, s.WindDirectionDeg, 1e-9)
	assert.InDelta(t, 15, s.PrecipProbPct, 1e-9, "pop fraction scales to percent")
	assert.InDelta(t, 25, s.CloudCoverPct, 1e-9)
	assert.InDelta(t, 1013, s.PressureHpa, 1e-9)
	assert.InDelta(t, 10, s.VisibilityMiles, 0.001)
	assert.True(t, s.HasPrecipProb)
	assert.True(t, s.HasCloudCover)
	assert.True(t, s.HasPressure)
}

func TestOpenWeatherFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewOpenWeatherClient(srv.Client(), OpenWeatherConfig{
		APIKey:  types.SecretString("bad"),
		BaseURL: srv.URL,
	})

	_, err := c.Fetch(context.Background(), types.Location{Name: "valley"})
	require.Error(t, err)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamWeather, appErr.Code)
}

func TestOpenWeatherFetchMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hourly": "not an array"`))
	}))
	defer srv.Close()

	c := NewOpenWeatherClient(srv.Client(), OpenWeatherConfig{BaseURL: srv.URL})

	_, err := c.Fetch(context.Background(), types.Location{Name: "valley"})
	require.Error(t, err)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamWeather, appErr.Code)
}
