// Package influx writes records to an InfluxDB 1.x database using the line
// protocol HTTP API.
package influx

import (
	"fmt"
	"sync"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/ericogr/ads1115-pressure/pkg/config"
	"github.com/ericogr/ads1115-pressure/pkg/output"
)

const (
	DefaultAddr      = "http://127.0.0.1:8086"
	DefaultDatabase  = "pi_DB"
	DefaultPrecision = "ms"
)

type InfluxOutput struct {
	client    client.Client
	database  string
	precision string
	batchSize int

	mu      sync.Mutex
	pending client.BatchPoints
}

func NewInflux(cfg config.InfluxConfig) (output.Output, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	db := cfg.Database
	if db == "" {
		db = DefaultDatabase
	}
	precision := cfg.Precision
	if precision == "" {
		precision = DefaultPrecision
	}
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     addr,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  time.Duration(cfg.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("influx client: %w", err)
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 1
	}
	return &InfluxOutput{client: c, database: db, precision: precision, batchSize: batch}, nil
}

// Publish queues the record and writes the batch once it holds BatchSize
// points. A failed write drops the batch.
func (o *InfluxOutput) Publish(r output.Record) error {
	pt, err := client.NewPoint(output.MeasurementName, r.Tags(), r.Fields(), r.Time)
	if err != nil {
		return fmt.Errorf("influx point: %w", err)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		bp, err := client.NewBatchPoints(client.BatchPointsConfig{Database: o.database, Precision: o.precision})
		if err != nil {
			return fmt.Errorf("influx batch: %w", err)
		}
		o.pending = bp
	}
	o.pending.AddPoint(pt)
	if len(o.pending.Points()) < o.batchSize {
		return nil
	}
	return o.flush()
}

func (o *InfluxOutput) flush() error {
	bp := o.pending
	o.pending = nil
	if bp == nil || len(bp.Points()) == 0 {
		return nil
	}
	if err := o.client.Write(bp); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

// Close writes any partial batch and releases the client.
func (o *InfluxOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	err := o.flush()
	if cerr := o.client.Close(); err == nil {
		err = cerr
	}
	return err
}
