package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
	"github.com/samqbush/dp-soda-sub005/internal/units"
)

// SourceEcowitt is the source label for the lake-side Ecowitt station.
const SourceEcowitt = "ecowitt"

const ecowittBaseURL = "https://api.ecowitt.net/api/v3/device/history"

// ecowittResponse is the parse boundary for the Ecowitt cloud history API.
// Measurement values arrive as strings keyed by epoch-second strings.
type ecowittResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Wind struct {
			WindSpeed     ecowittSeries `json:"wind_speed"`
			WindGust      ecowittSeries `json:"wind_gust"`
			WindDirection ecowittSeries `json:"wind_direction"`
		} `json:"wind"`
	} `json:"data"`
}

type ecowittSeries struct {
	Unit string            `json:"unit"`
	List map[string]string `json:"list"`
}

// EcowittClient implements types.SensorSource against the Ecowitt cloud
// history API for a single station identified by MAC address.
type EcowittClient struct {
	base    *BaseClient
	baseURL string
	cfg     EcowittConfig
	clock   types.Clock
}

// EcowittConfig holds the Ecowitt cloud credentials and station identity.
type EcowittConfig struct {
	ApplicationKey types.SecretString
	APIKey         types.SecretString
	MACAddress     string
	UserAgent      string
	// BaseURL overrides the vendor endpoint; used by tests.
	BaseURL string
}

// NewEcowittClient creates a station history client. A nil clock defaults to
// the real UTC clock.
func NewEcowittClient(httpClient *http.Client, cfg EcowittConfig, clock types.Clock) *EcowittClient {
	if clock == nil {
		clock = types.RealClock{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = ecowittBaseURL
	}
	return &EcowittClient{
		base:    NewBaseClient(httpClient, "ecowitt", DefaultRetryPolicy(), cfg.UserAgent),
		baseURL: baseURL,
		cfg:     cfg,
		clock:   clock,
	}
}

// Name returns the sensor source label.
func (c *EcowittClient) Name() string { return SourceEcowitt }

// RecentSamples fetches station wind history covering the lookback period
// ending now, returned time-ordered in canonical units.
func (c *EcowittClient) RecentSamples(ctx context.Context, lookback time.Duration) ([]types.WindSample, error) {
	now := c.clock.Now()
	start := now.Add(-lookback)

	q := url.Values{}
	q.Set("application_key", c.cfg.ApplicationKey.Unmask())
	q.Set("api_key", c.cfg.APIKey.Unmask())
	q.Set("mac", c.cfg.MACAddress)
	q.Set("start_date", start.Format("2006-01-02 15:04:05"))
	q.Set("end_date", now.Format("2006-01-02 15:04:05"))
	q.Set("cycle_type", "auto")
	q.Set("call_back", "wind")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building ecowitt request: %w", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, wrapSensorErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamSensor,
			fmt.Sprintf("ecowitt returned status %d", resp.StatusCode),
			nil,
		)
	}

	var payload ecowittResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSensor, "malformed ecowitt payload", err)
	}
	if payload.Code != 0 {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamSensor,
			fmt.Sprintf("ecowitt error %d: %s", payload.Code, payload.Msg),
			nil,
		)
	}

	return normalizeEcowitt(payload)
}

// wrapSensorErr relabels generic upstream failures as sensor failures so the
// API error taxonomy distinguishes forecast outages from sensor outages.
func wrapSensorErr(err error) error {
	var appErr *types.AppError
	if errors.As(err, &appErr) && appErr.Code == types.ErrCodeUpstreamWeather {
		return types.NewAppError(types.ErrCodeUpstreamSensor, appErr.Message, appErr.Err)
	}
	return err
}

func normalizeEcowitt(payload ecowittResponse) ([]types.WindSample, error) {
	speeds := payload.Data.Wind.WindSpeed
	gusts := payload.Data.Wind.WindGust
	dirs := payload.Data.Wind.WindDirection

	speedUnit := speeds.Unit
	if speedUnit == "" {
		speedUnit = "mph"
	}
	gustUnit := gusts.Unit
	if gustUnit == "" {
		gustUnit = speedUnit
	}

	samples := make([]types.WindSample, 0, len(speeds.List))
	for epochStr, speedStr := range speeds.List {
		epoch, err := strconv.ParseInt(epochStr, 10, 64)
		if err != nil {
			continue
		}
		speed, err := strconv.ParseFloat(speedStr, 64)
		if err != nil {
			continue
		}
		speedMph, err := units.ToMph(speed, speedUnit)
		if err != nil {
			return nil, err
		}

		s := types.WindSample{
			Time:     time.Unix(epoch, 0).UTC(),
			SpeedMph: speedMph,
		}
		if raw, ok := gusts.List[epochStr]; ok {
			if gust, err := strconv.ParseFloat(raw, 64); err == nil {
				if gustMph, err := units.ToMph(gust, gustUnit); err == nil {
					s.GustMph = gustMph
				}
			}
		}
		if raw, ok := dirs.List[epochStr]; ok {
			if deg, err := strconv.ParseFloat(raw, 64); err == nil {
				s.DirectionDeg = deg
			}
		}
		samples = append(samples, s)
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].Time.Before(samples[j].Time) })
	return samples, nil
}
