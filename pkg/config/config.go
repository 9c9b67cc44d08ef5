package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	SensorReal       = "real"
	SensorSimulation = "simulation"

	OnSampleErrorExit     = "exit"
	OnSampleErrorContinue = "continue"

	OutputConsole = "console"
	OutputInflux  = "influx"
	OutputMQTT    = "mqtt"
)

type I2CConfig struct {
	Bus     string `json:"bus"`
	Address int    `json:"address"`
}

type InfluxConfig struct {
	Addr      string `json:"addr"`
	Database  string `json:"database"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Precision string `json:"precision,omitempty"`
	TimeoutMs int    `json:"timeout_ms,omitempty"`
	BatchSize int    `json:"batch_size,omitempty"`
}

type MQTTConfig struct {
	Server            string `json:"server"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	ClientID          string `json:"client_id"`
	StateTopic        string `json:"state_topic"`
	DiscoveryTopic    string `json:"discovery_topic,omitempty"`
	DiscoveryName     string `json:"discovery_name,omitempty"`
	DiscoveryUniqueID string `json:"discovery_unique_id,omitempty"`
}

type OutputConfig struct {
	Type   string        `json:"type"`
	Async  bool          `json:"async,omitempty"`
	Buffer int           `json:"buffer,omitempty"`
	Influx *InfluxConfig `json:"influx,omitempty"`
	MQTT   *MQTTConfig   `json:"mqtt,omitempty"`
}

// Config is read once at startup. The converter gain and data rate are
// fixed by the driver.
type Config struct {
	I2C           I2CConfig      `json:"i2c"`
	SensorType    string         `json:"sensor_type"`
	IntervalMs    int            `json:"interval_ms"`
	Host          string         `json:"host,omitempty"`
	OnSampleError string         `json:"on_sample_error"`
	LogLevel      string         `json:"log_level"`
	Outputs       []OutputConfig `json:"outputs"`
}

func DefaultConfig() Config {
	return Config{
		I2C:           I2CConfig{Bus: "1", Address: 0x48},
		SensorType:    SensorReal,
		IntervalMs:    1000,
		OnSampleError: OnSampleErrorExit,
		LogLevel:      "info",
		Outputs:       []OutputConfig{{Type: OutputConsole}},
	}
}

// Load reads a JSON file (optional, -config) and applies flags on top.
// Flags override values present in the JSON file.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("ads1115-pressure", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to JSON config file")
	flagI2CBus := fs.String("i2c-bus", "", "I2C bus (e.g., '1' -> /dev/i2c-1)")
	flagI2CAddStr := fs.String("i2c-address", "", "I2C address (decimal or 0x hex)")
	flagSensorType := fs.String("sensor-type", "", "sensor type: real|simulation")
	flagInterval := fs.Int("interval-ms", -1, "Sampling interval in ms")
	flagHost := fs.String("host", "", "host tag (defaults to the hostname)")
	flagOnSampleError := fs.String("on-sample-error", "", "behaviour on a failed sample: exit|continue")
	flagLogLevel := fs.String("log-level", "", "log level: debug|info|warn|error")
	flagOutputs := fs.String("outputs", "", "Comma-separated outputs (console,influx,mqtt)")
	flagInfluxAddr := fs.String("influx-addr", "", "InfluxDB address (http://host:port)")
	flagInfluxDB := fs.String("influx-db", "", "InfluxDB database")
	flagInfluxUser := fs.String("influx-user", "", "InfluxDB username")
	flagInfluxPass := fs.String("influx-pass", "", "InfluxDB password")
	flagMQTTServer := fs.String("mqtt-server", "", "MQTT server (tcp://host:port)")
	flagMQTTUser := fs.String("mqtt-user", "", "MQTT username")
	flagMQTTPass := fs.String("mqtt-pass", "", "MQTT password")
	flagClientID := fs.String("mqtt-client-id", "", "MQTT client id")
	flagTopic := fs.String("mqtt-topic", "", "MQTT state topic")

	cfg := DefaultConfig()
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if *cfgPath != "" {
		b, err := os.ReadFile(*cfgPath)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if *flagI2CBus != "" {
		cfg.I2C.Bus = *flagI2CBus
	}
	if *flagI2CAddStr != "" {
		v, err := parseIntOrHex(*flagI2CAddStr)
		if err != nil {
			return cfg, fmt.Errorf("i2c-address: %w", err)
		}
		cfg.I2C.Address = v
	}
	if *flagSensorType != "" {
		cfg.SensorType = *flagSensorType
	}
	if *flagInterval != -1 {
		cfg.IntervalMs = *flagInterval
	}
	if *flagHost != "" {
		cfg.Host = *flagHost
	}
	if *flagOnSampleError != "" {
		cfg.OnSampleError = *flagOnSampleError
	}
	if *flagLogLevel != "" {
		cfg.LogLevel = *flagLogLevel
	}
	if *flagOutputs != "" {
		// convert simple CSV of types into structured OutputConfig entries
		parts := parseCSV(*flagOutputs)
		outs := make([]OutputConfig, 0, len(parts))
		for _, p := range parts {
			outs = append(outs, OutputConfig{Type: strings.ToLower(p)})
		}
		cfg.Outputs = outs
	}

	// map influx flags into every influx output (create one if missing)
	if *flagInfluxAddr != "" || *flagInfluxDB != "" || *flagInfluxUser != "" || *flagInfluxPass != "" {
		apply := func(ic *InfluxConfig) {
			if *flagInfluxAddr != "" {
				ic.Addr = *flagInfluxAddr
			}
			if *flagInfluxDB != "" {
				ic.Database = *flagInfluxDB
			}
			if *flagInfluxUser != "" {
				ic.Username = *flagInfluxUser
			}
			if *flagInfluxPass != "" {
				ic.Password = *flagInfluxPass
			}
		}
		applied := false
		for i := range cfg.Outputs {
			if cfg.Outputs[i].Type == OutputInflux {
				if cfg.Outputs[i].Influx == nil {
					cfg.Outputs[i].Influx = &InfluxConfig{}
				}
				apply(cfg.Outputs[i].Influx)
				applied = true
			}
		}
		if !applied {
			out := OutputConfig{Type: OutputInflux, Influx: &InfluxConfig{}}
			apply(out.Influx)
			cfg.Outputs = append(cfg.Outputs, out)
		}
	}

	// map mqtt flags into every mqtt output (create one if missing)
	if *flagMQTTServer != "" || *flagMQTTUser != "" || *flagMQTTPass != "" || *flagClientID != "" || *flagTopic != "" {
		apply := func(mc *MQTTConfig) {
			if *flagMQTTServer != "" {
				mc.Server = *flagMQTTServer
			}
			if *flagMQTTUser != "" {
				mc.Username = *flagMQTTUser
			}
			if *flagMQTTPass != "" {
				mc.Password = *flagMQTTPass
			}
			if *flagClientID != "" {
				mc.ClientID = *flagClientID
			}
			if *flagTopic != "" {
				mc.StateTopic = *flagTopic
			}
		}
		applied := false
		for i := range cfg.Outputs {
			if cfg.Outputs[i].Type == OutputMQTT {
				if cfg.Outputs[i].MQTT == nil {
					cfg.Outputs[i].MQTT = &MQTTConfig{}
				}
				apply(cfg.Outputs[i].MQTT)
				applied = true
			}
		}
		if !applied {
			out := OutputConfig{Type: OutputMQTT, MQTT: &MQTTConfig{}}
			apply(out.MQTT)
			cfg.Outputs = append(cfg.Outputs, out)
		}
	}

	return cfg, cfg.Validate()
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	if c.I2C.Address < 0 || c.I2C.Address > 0x7F {
		return fmt.Errorf("i2c address 0x%x is not a 7-bit address", c.I2C.Address)
	}
	if c.I2C.Bus == "" && c.SensorType == SensorReal {
		return errors.New("i2c bus must be set")
	}
	if c.IntervalMs <= 0 {
		return errors.New("interval-ms must be > 0")
	}
	switch c.SensorType {
	case SensorReal, SensorSimulation:
	default:
		return fmt.Errorf("unknown sensor type %q", c.SensorType)
	}
	switch c.OnSampleError {
	case OnSampleErrorExit, OnSampleErrorContinue:
	default:
		return fmt.Errorf("unknown on-sample-error %q", c.OnSampleError)
	}
	for _, o := range c.Outputs {
		switch o.Type {
		case OutputConsole, OutputInflux, OutputMQTT:
		default:
			return fmt.Errorf("unknown output type %q", o.Type)
		}
	}
	return nil
}

func parseIntOrHex(s string) (int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 0)
		return int(v), err
	}
	v, err := strconv.Atoi(s)
	return v, err
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
