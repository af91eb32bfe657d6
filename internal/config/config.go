// Package config defines the global configuration structure for the dawn
// patrol service. Configuration is loaded once at process initialization and
// is immutable thereafter. It follows 12-Factor App principles by strictly
// separating code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// Any missing required value or invalid format causes the application to fail
// immediately on startup. Factor thresholds are the exception: they have
// documented safe defaults and are tunable without a rebuild.
package config

import (
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. It is populated once during
// process initialization and never modified. Sub-components receive only the
// specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"dp-soda"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server    ServerConfig
	Database  DatabaseConfig
	AWS       AWSConfig
	Weather   WeatherConfig
	Sensor    SensorConfig
	MQTT      MQTTConfig
	Locations LocationsConfig
	Factors   FactorsConfig
	Alarm     AlarmConfig
	Scheduler SchedulerConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	EnableMetrics   bool          `envconfig:"ENABLE_METRICS" default:"true"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	// Resolved from SSM or Env
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	// Tuning Parameters
	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds AWS regional configuration for SSM secret resolution.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-west-2"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// WeatherConfig holds forecast provider credentials and fetch tuning.
type WeatherConfig struct {
	OpenWeatherAPIKey SecretString  `envconfig:"OPENWEATHER_API_KEY" validate:"required"`
	UserAgent         string        `envconfig:"WEATHER_USER_AGENT" default:"dp-soda/1.0 (dawn patrol)"`
	FetchTimeout      time.Duration `envconfig:"WEATHER_FETCH_TIMEOUT" default:"15s"`
}

// SensorConfig holds the Ecowitt station cloud credentials. The cloud API is
// the fallback ground-truth source when MQTT telemetry is idle.
type SensorConfig struct {
	EcowittApplicationKey SecretString `envconfig:"ECOWITT_APPLICATION_KEY"`
	EcowittAPIKey         SecretString `envconfig:"ECOWITT_API_KEY"`
	EcowittMAC            string       `envconfig:"ECOWITT_MAC"`
}

// MQTTConfig holds the station telemetry broker settings. An empty broker URL
// disables local ingestion.
type MQTTConfig struct {
	BrokerURL string       `envconfig:"MQTT_BROKER_URL"`
	ClientID  string       `envconfig:"MQTT_CLIENT_ID" default:"dp-soda-server"`
	Username  string       `envconfig:"MQTT_USERNAME"`
	Password  SecretString `envconfig:"MQTT_PASSWORD"`
	WindTopic string       `envconfig:"MQTT_WIND_TOPIC" default:"station/soda-lake/wind"`
	// StoreCapacity bounds the in-memory sample ring.
	StoreCapacity int `envconfig:"MQTT_STORE_CAPACITY" default:"720"`
}

// LocationsConfig names the two stations whose contrast drives the factor
// model. Defaults are the Soda Lakes site below Green Mountain.
type LocationsConfig struct {
	Timezone string `envconfig:"SITE_TIMEZONE" default:"America/Denver"`

	ValleyName string  `envconfig:"VALLEY_NAME" default:"valley"`
	ValleyLat  float64 `envconfig:"VALLEY_LAT" default:"39.653"`
	ValleyLon  float64 `envconfig:"VALLEY_LON" default:"-105.191"`

	MountainName string  `envconfig:"MOUNTAIN_NAME" default:"mountain"`
	MountainLat  float64 `envconfig:"MOUNTAIN_LAT" default:"39.634"`
	MountainLon  float64 `envconfig:"MOUNTAIN_LON" default:"-105.321"`
}

// FactorsConfig holds the tunable factor thresholds, all defaulted so a bare
// environment still produces a working calibration.
type FactorsConfig struct {
	MaxPrecipProbPct     float64 `envconfig:"FACTOR_MAX_PRECIP_PCT" default:"25"`
	MinSkyClearnessPct   float64 `envconfig:"FACTOR_MIN_CLEARNESS_PCT" default:"45"`
	MinPressureChangeHpa float64 `envconfig:"FACTOR_MIN_PRESSURE_HPA" default:"1.0"`
	MinTempDiffF         float64 `envconfig:"FACTOR_MIN_TEMP_DIFF_F" default:"6"`
	MinWaveScore         float64 `envconfig:"FACTOR_MIN_WAVE_SCORE" default:"60"`

	DecisionWindowStart int `envconfig:"DECISION_WINDOW_START" default:"6"`
	DecisionWindowEnd   int `envconfig:"DECISION_WINDOW_END" default:"8"`
	ClearSkyWindowStart int `envconfig:"CLEAR_SKY_WINDOW_START" default:"2"`
	ClearSkyWindowEnd   int `envconfig:"CLEAR_SKY_WINDOW_END" default:"5"`

	PressureLookback time.Duration `envconfig:"PRESSURE_LOOKBACK" default:"12h"`
}

// AlarmConfig holds the live wind alarm thresholds.
type AlarmConfig struct {
	Enabled               bool    `envconfig:"ALARM_ENABLED" default:"false"`
	MinAvgSpeedMph        float64 `envconfig:"ALARM_MIN_AVG_MPH" default:"10"`
	DirectionConsistency  float64 `envconfig:"ALARM_DIR_CONSISTENCY_PCT" default:"70"`
	MinConsecutivePoints  int     `envconfig:"ALARM_MIN_CONSECUTIVE" default:"4"`
	PreferredDirectionDeg float64 `envconfig:"ALARM_PREFERRED_DIR_DEG" default:"315"`
	DirectionRangeDeg     float64 `envconfig:"ALARM_DIR_RANGE_DEG" default:"45"`
	UseWindDirection      bool    `envconfig:"ALARM_USE_DIRECTION" default:"true"`
	AlarmHour             int     `envconfig:"ALARM_HOUR" default:"5"`
	AlarmMinute           int     `envconfig:"ALARM_MINUTE" default:"0"`
}

// SchedulerConfig holds the refresh cadence.
type SchedulerConfig struct {
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"30m"`
	EveningHour     int           `envconfig:"EVENING_REFRESH_HOUR" default:"18"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)

// AlarmCriteria converts the alarm configuration into the domain criteria
// structure consumed by the analyzer.
func (c AlarmConfig) AlarmCriteria() types.AlarmCriteria {
	criteria := types.DefaultAlarmCriteria()
	criteria.Enabled = c.Enabled
	criteria.MinAvgSpeedMph = c.MinAvgSpeedMph
	criteria.DirectionConsistency = c.DirectionConsistency
	criteria.MinConsecutivePoints = c.MinConsecutivePoints
	criteria.PreferredDirectionDeg = c.PreferredDirectionDeg
	criteria.DirectionRangeDeg = c.DirectionRangeDeg
	criteria.UseWindDirection = c.UseWindDirection
	criteria.AlarmHour = c.AlarmHour
	criteria.AlarmMinute = c.AlarmMinute
	return criteria
}
