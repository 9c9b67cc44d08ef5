package config

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalConfigJSON(t *testing.T) {
	js := `{
        "i2c": { "bus": "1", "address": 72 },
        "sensor_type": "real",
        "interval_ms": 1000,
        "on_sample_error": "exit",
        "outputs": [
            {"type": "console"},
            {"type": "influx", "async": true, "buffer": 32,
             "influx": {"addr": "http://127.0.0.1:8086", "database": "pi_DB", "username": "pi", "batch_size": 10}},
            {"type": "mqtt", "mqtt": {"server": "tcp://localhost:1883", "discovery_topic": "homeassistant/sensor/pressure/config"}}
        ]
    }`

	var cfg Config
	if err := json.Unmarshal([]byte(js), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.I2C.Address != 72 || cfg.I2C.Bus != "1" {
		t.Fatalf("i2c: got %+v", cfg.I2C)
	}
	if cfg.SensorType != SensorReal {
		t.Fatalf("sensor_type: got %q", cfg.SensorType)
	}
	if cfg.OnSampleError != OnSampleErrorExit {
		t.Fatalf("on_sample_error: got %q", cfg.OnSampleError)
	}
	if len(cfg.Outputs) != 3 || cfg.Outputs[0].Type != OutputConsole {
		t.Fatalf("outputs: %+v", cfg.Outputs)
	}
	in := cfg.Outputs[1]
	if !in.Async || in.Buffer != 32 || in.Influx == nil || in.Influx.Database != "pi_DB" || in.Influx.BatchSize != 10 {
		t.Fatalf("influx output incorrect: %+v %+v", in, in.Influx)
	}
	if m := cfg.Outputs[2].MQTT; m == nil || m.DiscoveryTopic != "homeassistant/sensor/pressure/config" {
		t.Fatalf("mqtt output incorrect: %+v", cfg.Outputs[2])
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
