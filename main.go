package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ericogr/ads1115-pressure/pkg/bus"
	"github.com/ericogr/ads1115-pressure/pkg/config"
	"github.com/ericogr/ads1115-pressure/pkg/output"
	"github.com/ericogr/ads1115-pressure/pkg/output/console"
	"github.com/ericogr/ads1115-pressure/pkg/output/influx"
	"github.com/ericogr/ads1115-pressure/pkg/output/mqtt"
	"github.com/ericogr/ads1115-pressure/pkg/sampler"
	"github.com/ericogr/ads1115-pressure/pkg/sensor"
)

// process exit codes
const (
	exitOK     = 0
	exitError  = 1
	exitSetup  = 2
	exitConfig = 3
	exitSample = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitError
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return exitError
	}
	defer func() { _ = logger.Sync() }()

	host := cfg.Host
	if host == "" {
		if host, err = os.Hostname(); err != nil {
			logger.Errorw("hostname lookup failed", "error", err)
			return exitError
		}
	}

	outputs, err := initOutputs(cfg, host, logger)
	if err != nil {
		logger.Errorw("output init failed", "error", err)
		return exitError
	}

	tr, err := openTransport(cfg)
	if err != nil {
		logger.Errorw("bus open failed", "bus", cfg.I2C.Bus, "error", err)
		return exitCode(err, logger, closeAll(outputs, nil))
	}

	logger.Infow("starting", "bus", cfg.I2C.Bus, "address", fmt.Sprintf("0x%02x", cfg.I2C.Address),
		"sensor_type", cfg.SensorType, "host", host, "outputs", len(outputs))

	var runErr error
	drv, err := sensor.Setup(tr, uint16(cfg.I2C.Address), sensor.PressureConfig())
	if err != nil {
		runErr = err
	} else {
		s := sampler.New(drv, sampler.Options{
			Interval:              time.Duration(cfg.IntervalMs) * time.Millisecond,
			Host:                  host,
			ContinueOnSampleError: cfg.OnSampleError == config.OnSampleErrorContinue,
		}, outputs, clock.New(), logger)
		runErr = s.Run(ctx)
	}
	if runErr != nil {
		logger.Errorw("sampling failed", "error", runErr)
	}
	return exitCode(runErr, logger, closeAll(outputs, tr))
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableStacktrace = true
	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func openTransport(cfg config.Config) (bus.Transport, error) {
	if cfg.SensorType == config.SensorSimulation {
		return bus.NewSimulator(300, 150, 3, time.Now().UnixNano()), nil
	}
	tr, err := bus.Open(cfg.I2C.Bus)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sensor.ErrSetup, err)
	}
	return tr, nil
}

// initOutputs builds every configured output. On failure the outputs
// already created are closed.
func initOutputs(cfg config.Config, host string, logger *zap.SugaredLogger) ([]output.Output, error) {
	outs := make([]output.Output, 0, len(cfg.Outputs))
	for _, oc := range cfg.Outputs {
		var (
			o   output.Output
			err error
		)
		switch oc.Type {
		case config.OutputConsole:
			o = console.NewConsole()
		case config.OutputInflux:
			ic := config.InfluxConfig{}
			if oc.Influx != nil {
				ic = *oc.Influx
			}
			o, err = influx.NewInflux(ic)
		case config.OutputMQTT:
			mc := config.MQTTConfig{}
			if oc.MQTT != nil {
				mc = *oc.MQTT
			}
			o, err = mqtt.NewMQTT(mc, host, logger)
		default:
			err = fmt.Errorf("unknown output type %q", oc.Type)
		}
		if err != nil {
			_ = closeAll(outs, nil)
			return nil, fmt.Errorf("output %s: %w", oc.Type, err)
		}
		if oc.Async {
			o = output.Async(o, oc.Buffer, logger.With("output", oc.Type))
		}
		outs = append(outs, o)
	}
	return outs, nil
}

// closeAll releases the transport first, then flushes the outputs.
func closeAll(outs []output.Output, tr bus.Transport) error {
	var err error
	if tr != nil {
		err = multierr.Append(err, tr.Close())
	}
	for _, o := range outs {
		err = multierr.Append(err, o.Close())
	}
	return err
}

func exitCode(err error, logger *zap.SugaredLogger, closeErr error) int {
	if closeErr != nil {
		logger.Warnw("shutdown", "error", closeErr)
	}
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, sensor.ErrSetup):
		return exitSetup
	case errors.Is(err, sensor.ErrConfig):
		return exitConfig
	case errors.Is(err, sensor.ErrSample):
		return exitSample
	}
	return exitError
}
