// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"io"
	"time"

	"k8s.io/klog/v2"

	"github.com/minemo/huion-solar-getter/internal/decode"
	"github.com/minemo/huion-solar-getter/internal/signal"
	"github.com/minemo/huion-solar-getter/internal/status"
)

// Client abstracts the fieldbus operation the poller needs.
// It must return exactly qty words or an error.
type Client interface {
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Interval time.Duration
	Retry    RetryPolicy
}

// Poller reads every group of a catalog, one round trip per signal,
// and decodes the results in place.
type Poller struct {
	cfg     Config
	catalog *signal.Catalog
	client  Client
	factory func() (Client, error)
	now     func() time.Time
}

// New creates a poller. factory may be nil, in which case a dead client
// is never replaced.
func New(cfg Config, cat *signal.Catalog, client Client, factory func() (Client, error)) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cat == nil || len(cat.Groups) == 0 {
		return nil, errors.New("poller: at least one signal group required")
	}
	if client == nil && factory == nil {
		return nil, errors.New("poller: client or factory required")
	}
	return &Poller{
		cfg:     cfg,
		catalog: cat,
		client:  client,
		factory: factory,
		now:     time.Now,
	}, nil
}

// Catalog returns the catalog the poller decodes into.
func (p *Poller) Catalog() *signal.Catalog { return p.catalog }

// ReadBlock fetches the registers of one group without decoding them.
func ReadBlock(c Client, g *signal.Group, now func() time.Time) (Block, error) {
	b := Block{
		Group:     g,
		Words:     make([]uint16, 0, g.Words()),
		FetchedAt: make([]time.Time, 0, len(g.Readings)),
	}

	for _, r := range g.Readings {
		klog.V(4).Infof("reading %s at %d (%d regs)", r.Name, r.Address, r.Length)

		regs, err := c.ReadHoldingRegisters(r.Address, r.Length)
		if err != nil {
			return b, status.Wrap(status.CodeTransport, fmt.Sprintf("read %s@%d", r.Name, r.Address), err)
		}
		if len(regs) != int(r.Length) {
			return b, status.Wrap(status.CodeTransport, fmt.Sprintf("read %s@%d", r.Name, r.Address),
				fmt.Errorf("got %d registers, want %d", len(regs), r.Length))
		}

		b.Words = append(b.Words, regs...)
		b.FetchedAt = append(b.FetchedAt, now())
	}
	return b, nil
}

// ReadGroup reads and decodes one group.
func (p *Poller) ReadGroup(g *signal.Group) error {
	c, err := p.ensureClient()
	if err != nil {
		return err
	}

	b, err := ReadBlock(c, g, p.now)
	if err != nil {
		p.dropClient()
		return err
	}

	if err := decode.Group(g, b.Words, b.FetchedAt); err != nil {
		return status.Wrap(status.CodeDecode, "decode "+g.Name, err)
	}
	return nil
}

// PollOnce performs exactly one poll cycle.
// Groups are read in catalog order; the first failure aborts the cycle.
// Groups decoded before the failure keep their new values.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{At: p.now(), Attempts: 1}

	for _, g := range p.catalog.Groups {
		if err := p.ReadGroup(g); err != nil {
			res.Err = err
			return res
		}
		res.Groups++
		res.Signals += len(g.Readings)
	}
	return res
}

// ---- client lifecycle ----

func (p *Poller) ensureClient() (Client, error) {
	if p.client != nil {
		return p.client, nil
	}
	if p.factory == nil {
		return nil, status.Wrap(status.CodeTransport, "connect", errors.New("no client and no factory"))
	}
	c, err := p.factory()
	if err != nil {
		return nil, status.Wrap(status.CodeTransport, "connect", err)
	}
	klog.Info("fieldbus client reconnected")
	p.client = c
	return c, nil
}

// Close closes the current client, if it can be closed.
func (p *Poller) Close() error {
	if cl, ok := p.client.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// dropClient discards the client after a transport failure so the next
// read goes through the factory.
func (p *Poller) dropClient() {
	if p.factory == nil || p.client == nil {
		return
	}
	if cl, ok := p.client.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			klog.V(2).Infof("closing dead fieldbus client: %v", err)
		}
	}
	p.client = nil
}
