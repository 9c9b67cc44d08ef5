// Package sampler drives the converter at a fixed cadence and hands every
// sample to the configured outputs.
package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/ericogr/ads1115-pressure/pkg/output"
	"github.com/ericogr/ads1115-pressure/pkg/sensor"
)

const DefaultInterval = time.Second

type Options struct {
	Interval time.Duration
	Host     string
	// ContinueOnSampleError logs failed samples and keeps the loop running
	// instead of returning the error.
	ContinueOnSampleError bool
}

type Sampler struct {
	sensor  sensor.Sensor
	outputs []output.Output
	opts    Options
	clock   clock.Clock
	logger  *zap.SugaredLogger
}

func New(s sensor.Sensor, opts Options, outputs []output.Output, clk clock.Clock, logger *zap.SugaredLogger) *Sampler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Sampler{sensor: s, outputs: outputs, opts: opts, clock: clk, logger: logger}
}

// Run configures the converter, then samples once per interval until ctx is
// done or a sample fails. A canceled context is a normal stop and returns
// nil. Configuration and sample failures are returned unchanged.
func (s *Sampler) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	if err := s.sensor.Configure(); err != nil {
		return err
	}
	cfg := s.sensor.Config()
	frame := cfg.Encode()
	s.logger.Infow("converter configured", "frame", fmt.Sprintf("% X", frame[:]), "full_scale_v", cfg.Gain.FullScale(),
		"sps", cfg.DataRate.SPS(), "interval", s.opts.Interval)

	ticker := s.clock.Ticker(s.opts.Interval)
	defer ticker.Stop()

	for cycle := uint64(1); ; cycle++ {
		if err := s.sample(); err != nil {
			if !s.opts.ContinueOnSampleError {
				return err
			}
			s.logger.Warnw("sample failed, skipping cycle", "cycle", cycle, "error", err)
		}
		select {
		case <-ctx.Done():
			s.logger.Infow("sampling stopped", "cycles", cycle)
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Sampler) sample() error {
	raw, err := s.sensor.ReadSample()
	if err != nil {
		return err
	}
	rec := output.Record{
		Raw:        raw,
		PressureMV: s.sensor.Config().Millivolts(raw),
		Host:       s.opts.Host,
		Time:       s.clock.Now(),
	}
	s.logger.Debugw("sample", "raw", rec.Raw, "mV", rec.PressureMV)
	for _, o := range s.outputs {
		if err := o.Publish(rec); err != nil {
			s.logger.Warnw("publish failed", "output", fmt.Sprintf("%T", o), "error", err)
		}
	}
	return nil
}
