// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/minemo/huion-solar-getter/internal/config"
	pmodbus "github.com/minemo/huion-solar-getter/internal/poller/modbus"
	"github.com/minemo/huion-solar-getter/internal/signal"
)

// NewClientFactory returns a factory making ONE connection attempt per call.
func NewClientFactory(src cfg.SourceConfig) func() (Client, error) {
	return func() (Client, error) {
		c, err := pmodbus.New(pmodbus.Config{
			Mode:     src.Mode,
			Endpoint: src.Endpoint,
			UnitID:   src.UnitID,
			Timeout:  time.Duration(src.TimeoutMs) * time.Millisecond,
			BaudRate: src.BaudRate,
			DataBits: src.DataBits,
			Parity:   src.Parity,
			StopBits: src.StopBits,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Build constructs a Poller around an already connected client.
// Connection is reused while healthy.
// On transport death, Poller discards the client and uses factory on the next attempt.
func Build(c *cfg.Config, cat *signal.Catalog, client Client, factory func() (Client, error)) (*Poller, error) {
	return New(
		Config{
			Interval: time.Duration(c.Poll.IntervalMs) * time.Millisecond,
			Retry: RetryPolicy{
				MaxAttempts: c.Retry.MaxAttempts,
				Initial:     time.Duration(c.Retry.InitialMs) * time.Millisecond,
				Max:         time.Duration(c.Retry.MaxMs) * time.Millisecond,
			},
		},
		cat,
		client,
		factory,
	)
}
