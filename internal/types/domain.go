package types

import (
	"time"
)

// Location is a geographic coordinate with a display name. Named locations
// (valley station, mountain station) are configured once and referenced by
// name throughout the pipeline.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// WeatherSample is one normalized observation/forecast point for one location.
// All units are canonical regardless of source: mph, degrees Fahrenheit, hPa,
// UTC timestamps. Samples are immutable once produced; a new fetch cycle
// supersedes them with a fresh snapshot rather than mutating in place.
type WeatherSample struct {
	Time              time.Time `json:"time"`
	TemperatureF      float64   `json:"temperature_f"`
	FeelsLikeF        float64   `json:"feels_like_f"`
	HumidityPct       float64   `json:"humidity_pct"`
	PressureHpa       float64   `json:"pressure_hpa"`
	WindSpeedMph      float64   `json:"wind_speed_mph"`
	WindGustMph       float64   `json:"wind_gust_mph,omitempty"`
	WindDirectionDeg  float64   `json:"wind_direction_deg"`
	PrecipProbPct     float64   `json:"precip_prob_pct"`
	CloudCoverPct     float64   `json:"cloud_cover_pct"`
	VisibilityMiles   float64   `json:"visibility_miles,omitempty"`
	UVIndex           float64   `json:"uv_index,omitempty"`
	HasPrecipProb     bool      `json:"has_precip_prob"`
	HasCloudCover     bool      `json:"has_cloud_cover"`
	HasPressure       bool      `json:"has_pressure"`
}

// LocationSeries is a named location plus its time-ordered samples.
// A series may be empty (source failure for that location) without
// invalidating the enclosing snapshot; downstream factor analyzers treat an
// empty series as "insufficient data", never as a fatal error.
type LocationSeries struct {
	Location Location        `json:"location"`
	Source   string          `json:"source"` // provider that supplied the data, "" if none succeeded
	Samples  []WeatherSample `json:"samples"`
}

// Empty reports whether the series carries no samples.
func (s *LocationSeries) Empty() bool { return len(s.Samples) == 0 }

// SamplesBetween returns the samples with timestamps in [start, end).
// Samples are assumed time-ordered, which the aggregator guarantees.
func (s *LocationSeries) SamplesBetween(start, end time.Time) []WeatherSample {
	var out []WeatherSample
	for _, smp := range s.Samples {
		if !smp.Time.Before(start) && smp.Time.Before(end) {
			out = append(out, smp)
		}
	}
	return out
}

// NearestSample returns the sample closest to t within the given tolerance.
func (s *LocationSeries) NearestSample(t time.Time, tolerance time.Duration) (WeatherSample, bool) {
	best := -1
	var bestDiff time.Duration
	for i, smp := range s.Samples {
		diff := smp.Time.Sub(t)
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolerance && (best < 0 || diff < bestDiff) {
			best = i
			bestDiff = diff
		}
	}
	if best < 0 {
		return WeatherSample{}, false
	}
	return s.Samples[best], true
}

// AggregateSnapshot is the set of LocationSeries fetched together in one
// refresh cycle. It is created fresh on every scheduled or manual refresh and
// replaced wholesale, never mutated field by field. Only the current and the
// immediately preceding snapshot are retained (the previous one feeds the
// pressure-change trend).
type AggregateSnapshot struct {
	Locations   []LocationSeries `json:"locations"`
	FetchedAt   time.Time        `json:"fetched_at"`
	Sources     []string         `json:"sources"`
	Reliability Reliability      `json:"reliability"`
}

// SeriesByName finds a location series by its configured name.
func (a *AggregateSnapshot) SeriesByName(name string) (*LocationSeries, bool) {
	for i := range a.Locations {
		if a.Locations[i].Location.Name == name {
			return &a.Locations[i], true
		}
	}
	return nil, false
}

// HasAnyData reports whether at least one series carries samples.
func (a *AggregateSnapshot) HasAnyData() bool {
	if a == nil {
		return false
	}
	for i := range a.Locations {
		if !a.Locations[i].Empty() {
			return true
		}
	}
	return false
}

// FactorResult is the output of one factor analyzer. Confidence reflects
// data quality and quantity on a 0-100 scale and MUST be 0 when the
// underlying data is entirely absent; it is never fabricated.
type FactorResult struct {
	Kind       FactorKind `json:"kind"`
	Meets      bool       `json:"meets"`
	Value      float64    `json:"value"`
	Threshold  float64    `json:"threshold"`
	Confidence float64    `json:"confidence"`
	Detail     string     `json:"detail"`
}

// TimeWindow is a local-time window expressed as clock hours [StartHour, EndHour).
type TimeWindow struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// Contains reports whether the local clock hour of t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	h := t.Hour()
	return h >= w.StartHour && h < w.EndHour
}

// Bounds returns the concrete start and end instants of the window on the
// calendar day of `day` in day's location.
func (w TimeWindow) Bounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	loc := day.Location()
	start := time.Date(y, m, d, w.StartHour, 0, 0, 0, loc)
	end := time.Date(y, m, d, w.EndHour, 0, 0, 0, loc)
	return start, end
}

// Prediction is the synthesized dawn-patrol call for one calendar day.
// Once the decision window for "today" has passed, the lifecycle freezes this
// exact value; it is never recomputed for the same day after freezing, only
// superseded by tomorrow's prediction.
type Prediction struct {
	Date           string          `json:"date"` // calendar date in the lake's timezone, YYYY-MM-DD
	GeneratedAt    time.Time       `json:"generated_at"`
	Probability    float64         `json:"probability"` // 0-100
	Confidence     float64         `json:"confidence"`  // 0-100
	Factors        []FactorResult  `json:"factors"`
	Recommendation Recommendation  `json:"recommendation"`
	Explanation    string          `json:"explanation"`
	BestWindow     *TimeWindow     `json:"best_window,omitempty"`
	Quality        ForecastQuality `json:"quality"`
	Reliability    Reliability     `json:"reliability"`
	// LiveWind carries the station reading cross-checked against an
	// in-window prediction. Absent outside the dawn window and on frozen
	// values.
	LiveWind *WindAnalysis `json:"live_wind,omitempty"`
}

// FavorableCount returns how many factors met their thresholds.
func (p *Prediction) FavorableCount() int {
	n := 0
	for _, f := range p.Factors {
		if f.Meets {
			n++
		}
	}
	return n
}

// VerificationRecord reconciles a frozen Prediction against observed sensor
// wind for the same decision window. Created once, after the window closes and
// sensor data is available; immutable thereafter.
type VerificationRecord struct {
	ID                  string              `json:"id"`
	Date                string              `json:"date"`
	Prediction          Prediction          `json:"prediction"`
	ActualAvgMph        float64             `json:"actual_avg_mph"`
	ActualPeakMph       float64             `json:"actual_peak_mph"`
	ActualDirectionDeg  float64             `json:"actual_direction_deg"`
	ActualQuality       WindQuality         `json:"actual_quality"`
	Outcome             VerificationOutcome `json:"outcome"`
	Rationale           string              `json:"rationale"`
	RecalibrationHint   string              `json:"recalibration_hint"`
	SampleCount         int                 `json:"sample_count"`
	VerifiedAt          time.Time           `json:"verified_at"`
}

// WindSample is one raw sensor observation of lake wind.
type WindSample struct {
	Time         time.Time `json:"time"`
	SpeedMph     float64   `json:"speed_mph"`
	GustMph      float64   `json:"gust_mph,omitempty"`
	DirectionDeg float64   `json:"direction_deg"`
}

// AlarmCriteria holds the user-tunable thresholds consumed read-only by the
// live wind analyzer. Factor thresholds share defaults with these values but
// are independently overridable in configuration.
type AlarmCriteria struct {
	MinAvgSpeedMph         float64 `json:"min_avg_speed_mph"`
	DirectionConsistency   float64 `json:"direction_consistency_pct"` // 0-100
	MinConsecutivePoints   int     `json:"min_consecutive_points"`
	MaxSpeedDeviationMph   float64 `json:"max_speed_deviation_mph"`
	PreferredDirectionDeg  float64 `json:"preferred_direction_deg"`
	DirectionRangeDeg      float64 `json:"direction_range_deg"`
	UseWindDirection       bool    `json:"use_wind_direction"`
	Enabled                bool    `json:"enabled"`
	AlarmHour              int     `json:"alarm_hour"`
	AlarmMinute            int     `json:"alarm_minute"`
}

// DefaultAlarmCriteria returns the documented safe defaults. These are
// calibration starting points, not physical constants.
func DefaultAlarmCriteria() AlarmCriteria {
	return AlarmCriteria{
		MinAvgSpeedMph:        10,
		DirectionConsistency:  70,
		MinConsecutivePoints:  4,
		MaxSpeedDeviationMph:  5,
		PreferredDirectionDeg: 315, // downslope northwest flow at the lake
		DirectionRangeDeg:     45,
		UseWindDirection:      true,
		Enabled:               false,
		AlarmHour:             5,
		AlarmMinute:           0,
	}
}

// WindAnalysis is the result of running the live wind analyzer over recent
// sensor samples.
type WindAnalysis struct {
	IsAlarmWorthy            bool    `json:"is_alarm_worthy"`
	AverageSpeedMph          float64 `json:"average_speed_mph"`
	DirectionConsistency     float64 `json:"direction_consistency_pct"`
	MaxConsecutiveGoodPoints int     `json:"max_consecutive_good_points"`
	SampleCount              int     `json:"sample_count"`
	// UsedFallbackWindow is true when no samples fell inside the last-hour
	// analysis window and the analyzer fell back to the most recent 10
	// samples. The fallback is surfaced, never silently swapped.
	UsedFallbackWindow bool `json:"used_fallback_window"`
}

// CivilDate formats t as a YYYY-MM-DD calendar date in t's location.
func CivilDate(t time.Time) string {
	return t.Format("2006-01-02")
}
