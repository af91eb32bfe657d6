package wind

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/samqbush/dp-soda-sub005/internal/types"
	"github.com/samqbush/dp-soda-sub005/internal/units"
)

// stationReading is the telemetry payload the lake station publishes on its
// wind topic.
type stationReading struct {
	Timestamp  int64   `json:"timestamp"`
	WindSpeed  float64 `json:"wind_speed"`
	WindGust   float64 `json:"wind_gust"`
	WindDirDeg float64 `json:"wind_dir"`
	SpeedUnit  string  `json:"speed_unit"`
}

// Ingester subscribes to the station's MQTT wind topic and feeds parsed
// samples into a Store. Malformed messages are logged and dropped; they never
// stall the subscription.
type Ingester struct {
	client mqtt.Client
	store  *Store
	topic  string
	logger *slog.Logger
}

// IngesterConfig holds the MQTT connection and topic settings.
type IngesterConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  types.SecretString
	Topic     string
	Logger    *slog.Logger
}

// NewIngester connects to the broker. Subscription happens in Start so the
// store can be fully wired first.
func NewIngester(cfg IngesterConfig, store *Store) (*Ingester, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password.Unmask())
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.BrokerURL)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to mqtt broker: %w", token.Error())
	}

	return &Ingester{
		client: client,
		store:  store,
		topic:  cfg.Topic,
		logger: logger,
	}, nil
}

// Start subscribes to the wind topic.
func (i *Ingester) Start() error {
	token := i.client.Subscribe(i.topic, 1, i.handleMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribing to %s: %w", i.topic, token.Error())
	}
	i.logger.Info("subscribed to wind topic", "topic", i.topic)
	return nil
}

// Close disconnects from the broker.
func (i *Ingester) Close() {
	i.client.Disconnect(250)
}

func (i *Ingester) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var reading stationReading
	if err := json.Unmarshal(msg.Payload(), &reading); err != nil {
		i.logger.Warn("dropping malformed station payload", "topic", msg.Topic(), "error", err)
		return
	}

	unit := reading.SpeedUnit
	if unit == "" {
		unit = "mph"
	}
	speedMph, err := units.ToMph(reading.WindSpeed, unit)
	if err != nil {
		i.logger.Warn("dropping station payload with unknown unit", "unit", unit, "error", err)
		return
	}
	gustMph, err := units.ToMph(reading.WindGust, unit)
	if err != nil {
		gustMph = 0
	}

	i.store.Add(types.WindSample{
		Time:         time.Unix(reading.Timestamp, 0).UTC(),
		SpeedMph:     speedMph,
		GustMph:      gustMph,
		DirectionDeg: reading.WindDirDeg,
	})
}
