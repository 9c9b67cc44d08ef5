package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/ericogr/ads1115-pressure/pkg/config"
	"github.com/ericogr/ads1115-pressure/pkg/output"
)

const (
	// defaults
	DefaultServer     = "tcp://localhost:1883"
	DefaultClientID   = "ads1115-pressure"
	DefaultStateTopic = "pressure_sensor/%s"
	// discovery payload keys/values
	keyName                = "name"
	keyStateTopic          = "state_topic"
	keyUnitOfMeasurement   = "unit_of_measurement"
	keyDeviceClass         = "device_class"
	keyStateClass          = "state_class"
	keyValueTemplate       = "value_template"
	keyJSONAttributesTopic = "json_attributes_topic"
	keyUniqueID            = "unique_id"
	unitMillivolts         = "mV"
	deviceClassVoltage     = "voltage"
	stateClassMeasurement  = "measurement"
	valueTemplatePressure  = "{{ value_json.Pressure_mV }}"

	disconnectQuiesceMs = 250
)

type MQTTOutput struct {
	client     mqtt.Client
	stateTopic string
}

// NewMQTT connects to the broker and, when a discovery topic is configured,
// publishes a retained Home Assistant discovery payload for the sensor.
func NewMQTT(cfg config.MQTTConfig, host string, logger *zap.SugaredLogger) (output.Output, error) {
	cfg = withDefaults(cfg)
	opts := mqtt.NewClientOptions().AddBroker(cfg.Server).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warnw("mqtt connection lost", "server", cfg.Server, "error", err)
	})
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	m := &MQTTOutput{client: client, stateTopic: formatStateTopic(cfg.StateTopic, host)}

	// Publish Home Assistant discovery payload if requested
	if cfg.DiscoveryTopic != "" {
		payload := baseDiscoveryPayload(discoveryName(cfg, host), m.stateTopic, discoveryUniqueID(cfg, host))
		if err := publishJSON(client, cfg.DiscoveryTopic, true, payload); err != nil {
			logger.Warnw("mqtt discovery publish error", "topic", cfg.DiscoveryTopic, "error", err)
		}
	}

	return m, nil
}

func (m *MQTTOutput) Publish(r output.Record) error {
	token := m.client.Publish(m.stateTopic, 0, false, statePayload(r))
	token.Wait()
	return token.Error()
}

func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(disconnectQuiesceMs)
	}
	return nil
}

func withDefaults(cfg config.MQTTConfig) config.MQTTConfig {
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.StateTopic == "" {
		cfg.StateTopic = DefaultStateTopic
	}
	return cfg
}

// statePayload carries the same fields as the time-series record, plus the
// host and sample time.
func statePayload(r output.Record) []byte {
	payload := r.Fields()
	payload[output.TagHost] = r.Host
	payload["timestamp"] = r.Time.UTC().Format(time.RFC3339Nano)
	b, _ := json.Marshal(payload)
	return b
}

// helper: state topic with an optional %s formatter for the host
func formatStateTopic(base, host string) string {
	if strings.Contains(base, "%s") {
		return fmt.Sprintf(base, host)
	}
	return base
}

func discoveryName(cfg config.MQTTConfig, host string) string {
	if cfg.DiscoveryName != "" {
		return cfg.DiscoveryName
	}
	return fmt.Sprintf("Pressure sensor %s", host)
}

func discoveryUniqueID(cfg config.MQTTConfig, host string) string {
	if cfg.DiscoveryUniqueID != "" {
		return cfg.DiscoveryUniqueID
	}
	return fmt.Sprintf("%s_%s", cfg.ClientID, host)
}

// helper: base discovery payload map
func baseDiscoveryPayload(name, stateTopic, uniqueID string) map[string]interface{} {
	payload := map[string]interface{}{
		keyName:                name,
		keyStateTopic:          stateTopic,
		keyUnitOfMeasurement:   unitMillivolts,
		keyDeviceClass:         deviceClassVoltage,
		keyStateClass:          stateClassMeasurement,
		keyValueTemplate:       valueTemplatePressure,
		keyJSONAttributesTopic: stateTopic,
	}
	if uniqueID != "" {
		payload[keyUniqueID] = uniqueID
	}
	return payload
}

// helper: marshal and publish JSON payload
func publishJSON(client mqtt.Client, topic string, retained bool, payload map[string]interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	token := client.Publish(topic, 0, retained, b)
	token.Wait()
	return token.Error()
}
