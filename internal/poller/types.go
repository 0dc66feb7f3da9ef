// internal/poller/types.go
package poller

import (
	"time"

	"github.com/minemo/huion-solar-getter/internal/signal"
)

// Block is the raw result of reading one group: the concatenation of one
// register read per signal, in group order.
type Block struct {
	Group     *signal.Group
	Words     []uint16
	FetchedAt []time.Time // one entry per signal
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	At       time.Time
	Groups   int
	Signals  int
	Attempts int

	Err error // non-nil means the poll cycle failed
}

// RetryPolicy bounds retries of transport, decode and store failures.
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
}
