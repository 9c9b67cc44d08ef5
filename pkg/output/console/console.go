package console

import (
	"fmt"
	"time"

	"github.com/ericogr/ads1115-pressure/pkg/output"
)

type ConsoleOutput struct{}

func NewConsole() output.Output { return &ConsoleOutput{} }

func (c *ConsoleOutput) Publish(r output.Record) error {
	fmt.Printf("%s Conversion number HEX 0x%02x DEC %d %4.4f mVolts.\n", r.Time.Format(time.RFC3339), uint16(r.Raw), r.Raw, r.PressureMV)
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }
