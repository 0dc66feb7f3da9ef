// internal/poller/runner.go
package poller

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"k8s.io/klog/v2"

	"github.com/minemo/huion-solar-getter/internal/signal"
)

// Sink consumes a freshly decoded catalog. It runs synchronously inside
// the cycle, so the next read never starts before it returns.
type Sink interface {
	Sync(ctx context.Context, cat *signal.Catalog) error
}

// Cycle polls every group and hands the catalog to sink. A failed poll or
// sync repeats the whole cycle with exponential backoff, so retried samples
// always carry fresh timestamps.
func (p *Poller) Cycle(ctx context.Context, sink Sink) PollResult {
	var res PollResult
	attempts := 0

	op := func() error {
		attempts++
		res = p.PollOnce()
		if res.Err != nil {
			return res.Err
		}
		if sink != nil {
			res.Err = sink.Sync(ctx, p.catalog)
		}
		return res.Err
	}

	notify := func(err error, wait time.Duration) {
		klog.Errorf("cycle attempt %d failed, retrying in %s: %v", attempts, wait.Round(time.Millisecond), err)
	}

	if err := backoff.RetryNotify(op, p.backOff(ctx), notify); err != nil {
		res.Err = err
	}
	res.Attempts = attempts
	return res
}

func (p *Poller) backOff(ctx context.Context) backoff.BackOff {
	r := p.cfg.Retry

	eb := backoff.NewExponentialBackOff()
	if r.Initial > 0 {
		eb.InitialInterval = r.Initial
	}
	if r.Max > 0 {
		eb.MaxInterval = r.Max
	}
	eb.MaxElapsedTime = 0

	retries := 0
	if r.MaxAttempts > 1 {
		retries = r.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}

// Run performs one cycle immediately and then one per tick.
// One goroutine. No overlap: a slow cycle drops ticks instead of queueing.
// Run returns when ctx ends or a cycle fails after all retries.
func (p *Poller) Run(ctx context.Context, sink Sink, observe func(PollResult)) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		klog.V(2).Info("starting new gathering cycle")

		res := p.Cycle(ctx, sink)
		if observe != nil {
			observe(res)
		}
		if res.Err != nil {
			return res.Err
		}
		klog.Infof("cycle ok: %d signals in %d groups (attempts=%d)", res.Signals, res.Groups, res.Attempts)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
