package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ericogr/ads1115-pressure/pkg/config"
	"github.com/ericogr/ads1115-pressure/pkg/output"
)

func TestStatePayload(t *testing.T) {
	ts := time.Date(2025, 9, 19, 14, 41, 54, 0, time.UTC)
	b := statePayload(output.Record{Raw: 291, PressureMV: 9.09375, Host: "pi", Time: ts})
	var got map[string]interface{}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["raw_int"] != 291.0 || got["Pressure_mV"] != 9.09375 {
		t.Fatalf("fields: %v", got)
	}
	if got["host"] != "pi" || got["timestamp"] != "2025-09-19T14:41:54Z" {
		t.Fatalf("host/timestamp: %v", got)
	}
}

func TestFormatStateTopic(t *testing.T) {
	if got := formatStateTopic(DefaultStateTopic, "pi"); got != "pressure_sensor/pi" {
		t.Fatalf("default topic: %q", got)
	}
	if got := formatStateTopic("plant/pressure", "pi"); got != "plant/pressure" {
		t.Fatalf("fixed topic: %q", got)
	}
}

func TestDiscovery(t *testing.T) {
	cfg := withDefaults(config.MQTTConfig{})
	if cfg.Server != DefaultServer || cfg.ClientID != DefaultClientID {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if got := discoveryName(cfg, "pi"); got != "Pressure sensor pi" {
		t.Fatalf("name: %q", got)
	}
	if got := discoveryUniqueID(cfg, "pi"); got != "ads1115-pressure_pi" {
		t.Fatalf("unique id: %q", got)
	}
	cfg.DiscoveryName, cfg.DiscoveryUniqueID = "Line 1", "line1"
	p := baseDiscoveryPayload(discoveryName(cfg, "pi"), "t", discoveryUniqueID(cfg, "pi"))
	if p[keyName] != "Line 1" || p[keyUniqueID] != "line1" || p[keyUnitOfMeasurement] != "mV" {
		t.Fatalf("payload: %v", p)
	}
	if p[keyValueTemplate] != "{{ value_json.Pressure_mV }}" {
		t.Fatalf("value template: %v", p[keyValueTemplate])
	}
	if _, ok := baseDiscoveryPayload("n", "t", "")[keyUniqueID]; ok {
		t.Fatalf("empty unique id must be omitted")
	}
}
