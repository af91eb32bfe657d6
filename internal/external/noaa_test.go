package external

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

func TestNOAAFetchTwoHops(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/points/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"properties": {"forecastHourly": %q}}`, srv.URL+"/gridpoints/BOU/1,2/forecast/hourly")
	})
	mux.HandleFunc("/gridpoints/BOU/1,2/forecast/hourly", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"properties": {
				"periods": [
					{
						"startTime": "2025-06-15T06:00:00-06:00",
						"temperature": 48,
						"temperatureUnit": "F",
						"windSpeed": "10 mph",
						"windDirection": "NW",
						"probabilityOfPrecipitation": {"value": 10},
						"relativeHumidity": {"value": 55},
						"shortForecast": "Mostly Clear"
					}
				]
			}
		}`))
	})

	c := NewNOAAClient(srv.Client(), "dp-soda test", srv.URL)

	samples, err := c.Fetch(context.Background(), types.Location{Name: "valley", Lat: 39.6530, Lon: -105.1910})
	require.NoError(t, err)
	require.Len(t, samples, 1)

	s := samples[0]
	assert.Equal(t, 48.0, s.TemperatureF)
	assert.Equal(t, 10.0, s.WindSpeedMph)
	assert.Equal(t, 315.0, s.WindDirectionDeg)
	assert.Equal(t, 10.0, s.PrecipProbPct)
	assert.True(t, s.HasPrecipProb)
	assert.Equal(t, 55.0, s.HumidityPct)
	assert.Equal(t, 20.0, s.CloudCoverPct)
	assert.True(t, s.HasCloudCover)
	assert.False(t, s.HasPressure, "the hourly product carries no pressure")
}

func TestNOAAFetchMissingHourlyURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"properties": {}}`))
	}))
	defer srv.Close()

	c := NewNOAAClient(srv.Client(), "dp-soda test", srv.URL)

	_, err := c.Fetch(context.Background(), types.Location{Name: "valley"})
	require.Error(t, err)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamWeather, appErr.Code)
}

func TestParseWindSpeedMph(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"10 mph", 10},
		{"5 to 10 mph", 10},
		{"", 0},
		{"16.09344 km/h", 10},
	}
	for _, tt := range tests {
		got, err := parseWindSpeedMph(tt.raw)
		require.NoError(t, err, "input %q", tt.raw)
		assert.InDelta(t, tt.want, got, 0.001, "input %q", tt.raw)
	}

	_, err := parseWindSpeedMph("calm")
	assert.Error(t, err)
}

func TestCompassToDegrees(t *testing.T) {
	assert.Equal(t, 0.0, compassToDegrees("N"))
	assert.Equal(t, 315.0, compassToDegrees("NW"))
	assert.Equal(t, 202.5, compassToDegrees("ssw"))
	assert.Equal(t, 0.0, compassToDegrees("??"))
}

func TestCloudCoverFromShortForecast(t *testing.T) {
	tests := []struct {
		short  string
		want   float64
		wantOK bool
	}{
		{"Sunny", 5, true},
		{"Clear", 5, true},
		{"Mostly Sunny", 20, true},
		{"Partly Cloudy", 45, true},
		{"Mostly Cloudy", 75, true},
		{"Cloudy", 95, true},
		{"Overcast", 95, true},
		{"Slight Chance Rain Showers", 0, false},
	}
	for _, tt := range tests {
		got, ok := cloudCoverFromShortForecast(tt.short)
		assert.Equal(t, tt.wantOK, ok, tt.short)
		assert.Equal(t, tt.want, got, tt.short)
	}
}
