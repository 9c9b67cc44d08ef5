package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseIntOrHex(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"72", 72, true},
		{"0x48", 0x48, true},
		{"0X4a", 0x4A, true},
		{"0xZZ", 0, false},
		{"bad", 0, false},
	}
	for _, tt := range tests {
		got, err := parseIntOrHex(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("parseIntOrHex(%q) ok=%v err=%v", tt.in, tt.ok, err)
		}
		if tt.ok && got != tt.want {
			t.Fatalf("parseIntOrHex(%q) = %d; want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"console", []string{"console"}},
		{" console , influx,,mqtt ", []string{"console", "influx", "mqtt"}},
	}
	for _, tt := range tests {
		if got := parseCSV(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("parseCSV(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Fatalf("defaults: got %+v want %+v", cfg, DefaultConfig())
	}
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	js := `{"i2c":{"bus":"2","address":73},"interval_ms":500,"outputs":[{"type":"influx","influx":{"database":"pi_DB"}}]}`
	if err := os.WriteFile(path, []byte(js), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load([]string{"-config", path, "-i2c-address", "0x48", "-influx-user", "pi", "-on-sample-error", "continue"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.I2C.Bus != "2" || cfg.I2C.Address != 0x48 {
		t.Fatalf("i2c: %+v", cfg.I2C)
	}
	if cfg.IntervalMs != 500 {
		t.Fatalf("interval: %d", cfg.IntervalMs)
	}
	if cfg.OnSampleError != OnSampleErrorContinue {
		t.Fatalf("on_sample_error: %q", cfg.OnSampleError)
	}
	if len(cfg.Outputs) != 1 || cfg.Outputs[0].Influx == nil {
		t.Fatalf("outputs: %+v", cfg.Outputs)
	}
	if ic := cfg.Outputs[0].Influx; ic.Database != "pi_DB" || ic.Username != "pi" {
		t.Fatalf("influx: %+v", ic)
	}
}

func TestLoadMQTTFlagsCreateOutput(t *testing.T) {
	cfg, err := Load([]string{"-outputs", "console", "-mqtt-server", "tcp://broker:1883", "-mqtt-topic", "plant/p"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Outputs) != 2 || cfg.Outputs[1].Type != OutputMQTT {
		t.Fatalf("outputs: %+v", cfg.Outputs)
	}
	if mc := cfg.Outputs[1].MQTT; mc.Server != "tcp://broker:1883" || mc.StateTopic != "plant/p" {
		t.Fatalf("mqtt: %+v", mc)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"simulation without bus", func(c *Config) { c.SensorType = SensorSimulation; c.I2C.Bus = "" }, true},
		{"real without bus", func(c *Config) { c.I2C.Bus = "" }, false},
		{"10-bit address", func(c *Config) { c.I2C.Address = 0x100 }, false},
		{"zero interval", func(c *Config) { c.IntervalMs = 0 }, false},
		{"bad sensor", func(c *Config) { c.SensorType = "fake" }, false},
		{"bad policy", func(c *Config) { c.OnSampleError = "retry" }, false},
		{"bad output", func(c *Config) { c.Outputs = []OutputConfig{{Type: "kafka"}} }, false},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		if err := cfg.Validate(); (err == nil) != tt.ok {
			t.Fatalf("%s: ok=%v err=%v", tt.name, tt.ok, err)
		}
	}
}

func TestLoadRejectsBadFlags(t *testing.T) {
	if _, err := Load([]string{"-i2c-address", "nope"}); err == nil {
		t.Fatalf("expected error for bad address")
	}
	if _, err := Load([]string{"-interval-ms", "0"}); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if _, err := Load([]string{"-config", "/does/not/exist.json"}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
