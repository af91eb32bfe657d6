package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// SourceNOAA is the source label attached to series fetched from the
// National Weather Service API.
const SourceNOAA = "noaa"

const noaaBaseURL = "https://api.weather.gov"

// The NWS API resolves a lat/lon to a gridpoint first, then serves the
// hourly forecast from a gridpoint-specific URL. Both hops go through the
// same resilience stack.

type noaaPointsResponse struct {
	Properties struct {
		ForecastHourly string `json:"forecastHourly"`
	} `json:"properties"`
}

type noaaForecastResponse struct {
	Properties struct {
		Periods []noaaPeriod `json:"periods"`
	} `json:"properties"`
}

type noaaPeriod struct {
	StartTime   time.Time `json:"startTime"`
	Temperature float64   `json:"temperature"`
	TempUnit    string    `json:"temperatureUnit"`
	// WindSpeed arrives as prose such as "10 mph" or "5 to 10 mph".
	WindSpeed     string `json:"windSpeed"`
	WindDirection string `json:"windDirection"`
	PrecipProb    struct {
		Value *float64 `json:"value"`
	} `json:"probabilityOfPrecipitation"`
	RelativeHumidity struct {
		Value *float64 `json:"value"`
	} `json:"relativeHumidity"`
	ShortForecast string `json:"shortForecast"`
}

// NOAAClient implements types.ForecastProvider against api.weather.gov.
// It is the fallback provider: free, no key, but coarser than OpenWeatherMap
// (no pressure, no numeric cloud cover in the hourly product).
type NOAAClient struct {
	base    *BaseClient
	baseURL string
}

// NewNOAAClient creates an NWS forecast client. The NWS API requires a
// descriptive User-Agent and rejects anonymous callers.
func NewNOAAClient(httpClient *http.Client, userAgent, baseURL string) *NOAAClient {
	if baseURL == "" {
		baseURL = noaaBaseURL
	}
	return &NOAAClient{
		base:    NewBaseClient(httpClient, "noaa", DefaultRetryPolicy(), userAgent),
		baseURL: baseURL,
	}
}

// Name returns the provider's source label.
func (c *NOAAClient) Name() string { return SourceNOAA }

// Fetch resolves the location to its gridpoint and retrieves the hourly
// forecast, normalized into canonical WeatherSamples.
func (c *NOAAClient) Fetch(ctx context.Context, loc types.Location) ([]types.WeatherSample, error) {
	pointsURL := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, loc.Lat, loc.Lon)
	var points noaaPointsResponse
	if err := c.getJSON(ctx, pointsURL, &points); err != nil {
		return nil, err
	}
	if points.Properties.ForecastHourly == "" {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			fmt.Sprintf("noaa gridpoint lookup returned no hourly forecast URL for %s", loc.Name),
			nil,
		)
	}

	var forecast noaaForecastResponse
	if err := c.getJSON(ctx, points.Properties.ForecastHourly, &forecast); err != nil {
		return nil, err
	}

	return normalizeNOAA(forecast.Properties.Periods)
}

func (c *NOAAClient) getJSON(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building noaa request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.NewAppError(
			types.ErrCodeUpstreamWeather,
			fmt.Sprintf("noaa returned status %d for %s", resp.StatusCode, rawURL),
			nil,
		)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamWeather, "malformed noaa payload", err)
	}
	return nil
}

func normalizeNOAA(periods []noaaPeriod) ([]types.WeatherSample, error) {
	samples := make([]types.WeatherSample, 0, len(periods))
	for _, p := range periods {
		tempF := p.Temperature
		if strings.EqualFold(p.TempUnit, "C") {
			tempF = p.Temperature*9/5 + 32
		}

		windMph, err := parseWindSpeedMph(p.WindSpeed)
		if err != nil {
			return nil, err
		}

		s := types.WeatherSample{
			Time:             p.StartTime.UTC(),
			TemperatureF:     tempF,
			FeelsLikeF:       tempF,
			WindSpeedMph:     windMph,
			WindDirectionDeg: compassToDegrees(p.WindDirection),
		}
		if p.PrecipProb.Value != nil {
			s.PrecipProbPct = *p.PrecipProb.Value
			s.HasPrecipProb = true
		}
		if p.RelativeHumidity.Value != nil {
			s.HumidityPct = *p.RelativeHumidity.Value
		}
		if pct, ok := cloudCoverFromShortForecast(p.ShortForecast); ok {
			s.CloudCoverPct = pct
			s.HasCloudCover = true
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// parseWindSpeedMph parses NWS prose wind speeds. A range like "5 to 10 mph"
// resolves to its upper bound; the hourly product virtually always reports a
// single value.
func parseWindSpeedMph(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	fields := strings.Fields(raw)
	var last float64
	found := false
	for _, f := range fields {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			last = v
			found = true
		}
	}
	if !found {
		return 0, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			fmt.Sprintf("unparseable noaa wind speed %q", raw),
			nil,
		)
	}
	if strings.Contains(strings.ToLower(raw), "km/h") {
		last = last / 1.609344
	}
	return last, nil
}

// compassToDegrees maps 16-point compass abbreviations to degrees.
// Unknown or empty directions map to 0.
func compassToDegrees(dir string) float64 {
	points := map[string]float64{
		"N": 0, "NNE": 22.5, "NE": 45, "ENE": 67.5,
		"E": 90, "ESE": 112.5, "SE": 135, "SSE": 157.5,
		"S": 180, "SSW": 202.5, "SW": 225, "WSW": 247.5,
		"W": 270, "WNW": 292.5, "NW": 315, "NNW": 337.5,
	}
	return points[strings.ToUpper(strings.TrimSpace(dir))]
}

// cloudCoverFromShortForecast derives an approximate numeric cover from the
// NWS sky-condition vocabulary. The mapping follows the standard NWS
// coverage buckets.
func cloudCoverFromShortForecast(short string) (float64, bool) {
	s := strings.ToLower(short)
	switch {
	case strings.Contains(s, "sunny") && !strings.Contains(s, "mostly") && !strings.Contains(s, "partly"):
		return 5, true
	case strings.Contains(s, "clear") && !strings.Contains(s, "mostly") && !strings.Contains(s, "partly"):
		return 5, true
	case strings.Contains(s, "mostly sunny"), strings.Contains(s, "mostly clear"):
		return 20, true
	case strings.Contains(s, "partly sunny"), strings.Contains(s, "partly cloudy"):
		return 45, true
	case strings.Contains(s, "mostly cloudy"):
		return 75, true
	case strings.Contains(s, "cloudy"), strings.Contains(s, "overcast"):
		return 95, true
	default:
		return 0, false
	}
}
