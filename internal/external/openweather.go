package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
	"github.com/samqbush/dp-soda-sub005/internal/units"
)

// SourceOpenWeatherMap is the source label attached to series fetched from
// OpenWeatherMap.
const SourceOpenWeatherMap = "openweathermap"

// owmBaseURL is the One Call API endpoint. Overridable for tests.
const owmBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

// owmResponse is the strongly-typed parse boundary for the One Call payload.
// Only the fields this system consumes are declared; unknown fields are
// ignored by encoding/json. OpenWeatherMap reports metric-standard units:
// Kelvin, m/s, hPa, meters, pop as a 0-1 fraction.
type owmResponse struct {
	Hourly []owmHourly `json:"hourly"`
}

type owmHourly struct {
	Dt         int64   `json:"dt"`
	Temp       float64 `json:"temp"`
	FeelsLike  float64 `json:"feels_like"`
	Pressure   float64 `json:"pressure"`
	Humidity   float64 `json:"humidity"`
	UVI        float64 `json:"uvi"`
	Clouds     float64 `json:"clouds"`
	Visibility float64 `json:"visibility"`
	WindSpeed  float64 `json:"wind_speed"`
	WindGust   float64 `json:"wind_gust"`
	WindDeg    float64 `json:"wind_deg"`
	Pop        float64 `json:"pop"`
}

// OpenWeatherClient implements types.ForecastProvider against the
// OpenWeatherMap One Call API.
type OpenWeatherClient struct {
	base    *BaseClient
	apiKey  types.SecretString
	baseURL string
}

// OpenWeatherConfig holds the construction parameters for OpenWeatherClient.
type OpenWeatherConfig struct {
	APIKey    types.SecretString
	UserAgent string
	// BaseURL overrides the vendor endpoint; used by tests.
	BaseURL string
}

// NewOpenWeatherClient creates a provider client backed by the given
// http.Client with the shared resilience stack.
func NewOpenWeatherClient(httpClient *http.Client, cfg OpenWeatherConfig) *OpenWeatherClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = owmBaseURL
	}
	return &OpenWeatherClient{
		base:    NewBaseClient(httpClient, "openweathermap", DefaultRetryPolicy(), cfg.UserAgent),
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
	}
}

// Name returns the provider's source label.
func (c *OpenWeatherClient) Name() string { return SourceOpenWeatherMap }

// Fetch retrieves the hourly forecast for the location and normalizes it
// into canonical WeatherSamples.
func (c *OpenWeatherClient) Fetch(ctx context.Context, loc types.Location) ([]types.WeatherSample, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", loc.Lat))
	q.Set("lon", fmt.Sprintf("%.4f", loc.Lon))
	q.Set("exclude", "minutely,daily,alerts")
	q.Set("appid", c.apiKey.Unmask())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building openweathermap request: %w", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			fmt.Sprintf("openweathermap returned status %d for %s", resp.StatusCode, loc.Name),
			nil,
		)
	}

	var payload owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			"malformed openweathermap payload",
			err,
		)
	}

	return normalizeOWM(payload)
}

// normalizeOWM converts the vendor payload into canonical samples.
// Unit conversions go through the units package so that an unexpected unit
// code fails loudly instead of leaking into factor math.
func normalizeOWM(payload owmResponse) ([]types.WeatherSample, error) {
	samples := make([]types.WeatherSample, 0, len(payload.Hourly))
	for _, h := range payload.Hourly {
		tempF, err := units.ToFahrenheit(h.Temp, "k")
		if err != nil {
			return nil, err
		}
		feelsF, err := units.ToFahrenheit(h.FeelsLike, "k")
		if err != nil {
			return nil, err
		}
		windMph, err := units.ToMph(h.WindSpeed, "m/s")
		if err != nil {
			return nil, err
		}
		gustMph, err := units.ToMph(h.WindGust, "m/s")
		if err != nil {
			return nil, err
		}
		pressureHpa, err := units.ToHpa(h.Pressure, "hpa")
		if err != nil {
			return nil, err
		}

		samples = append(samples, types.WeatherSample{
			Time:             time.Unix(h.Dt, 0).UTC(),
			TemperatureF:     tempF,
			FeelsLikeF:       feelsF,
			HumidityPct:      h.Humidity,
			PressureHpa:      pressureHpa,
			WindSpeedMph:     windMph,
			WindGustMph:      gustMph,
			WindDirectionDeg: h.WindDeg,
			PrecipProbPct:    h.Pop * 100,
			CloudCoverPct:    h.Clouds,
			VisibilityMiles:  units.MetersToMiles(h.Visibility),
			UVIndex:          h.UVI,
			HasPrecipProb:    true,
			HasCloudCover:    true,
			HasPressure:      true,
		})
	}
	return samples, nil
}
