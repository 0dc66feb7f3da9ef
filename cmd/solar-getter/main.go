// cmd/solar-getter/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/minemo/huion-solar-getter/internal/catalog"
	"github.com/minemo/huion-solar-getter/internal/config"
	"github.com/minemo/huion-solar-getter/internal/poller"
	"github.com/minemo/huion-solar-getter/internal/status"
	"github.com/minemo/huion-solar-getter/internal/tsdb"
	"github.com/minemo/huion-solar-getter/internal/tssync"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if flag.NArg() < 1 {
		klog.Exit("usage: solar-getter [klog flags] <config.yaml>")
	}

	cfgPath := flag.Arg(0)

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		klog.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		klog.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Definitions (fatal if missing or malformed)
	// --------------------

	defs, err := catalog.LoadDefinitions(cfg.Schema.Definitions)
	if err != nil {
		klog.Fatalf("definitions: %v", status.Wrap(status.CodeSchema, cfg.Schema.Definitions, err))
	}
	builder, err := catalog.NewBuilder(defs)
	if err != nil {
		klog.Fatalf("definitions: %v", err)
	}

	// --------------------
	// Fieldbus (long-lived)
	// --------------------

	klog.Infof("connecting to %s (%s, unit %d)", cfg.Source.Endpoint, cfg.Source.Mode, cfg.Source.UnitID)

	factory := poller.NewClientFactory(cfg.Source)
	client, err := factory()
	if err != nil {
		klog.Fatalf("fieldbus connect failed: %v", err)
	}

	klog.V(2).Infof("waiting %dms for the device to settle", cfg.Source.SettleMs)
	time.Sleep(time.Duration(cfg.Source.SettleMs) * time.Millisecond)

	model, err := poller.ReadModel(client)
	if err != nil {
		klog.Fatalf("reading device identity failed: %v", err)
	}
	klog.Infof("device model: %s", model)

	pvCount, err := poller.ReadPVCount(client)
	if err != nil {
		klog.Fatalf("reading pv string count failed: %v", err)
	}
	klog.Infof("device reports %d pv strings", pvCount)

	// --------------------
	// Catalog
	// --------------------

	layout := catalog.Layout{PackBases: cfg.Schema.PackBases}
	for _, c := range cfg.Schema.Categories {
		layout.Categories = append(layout.Categories, catalog.Category(c))
	}

	cat, err := catalog.Assemble(builder, layout, pvCount)
	if err != nil {
		klog.Fatalf("catalog: %v", status.Wrap(status.CodeSchema, "assemble", err))
	}
	klog.Infof("catalog: %d signals in %d groups", cat.Len(), len(cat.Groups))

	// --------------------
	// Store (scoped per cycle)
	// --------------------

	dialer, err := tsdb.NewDialer(tsdb.Config{
		Addr:     cfg.Store.Addr,
		Password: cfg.Store.Password,
		DB:       cfg.Store.DB,
		Timeout:  time.Duration(cfg.Store.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		klog.Fatalf("store config: %v", err)
	}

	if err := selfTest(ctx, dialer); err != nil {
		klog.Fatalf("store self-test failed: %v", status.Wrap(status.CodeStore, "self-test", err))
	}

	syncer, err := tssync.New(cfg.Store.BaseKey, tssync.OpenerFunc(func(ctx context.Context) (tssync.Session, error) {
		c, err := dialer.Open(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	}))
	if err != nil {
		klog.Fatalf("synchronizer: %v", err)
	}

	// --------------------
	// Poll loop
	// --------------------

	p, err := poller.Build(cfg, cat, client, factory)
	if err != nil {
		klog.Fatalf("poller build failed: %v", err)
	}
	defer p.Close()

	tracker := status.NewTracker(model)
	observe := func(res poller.PollResult) {
		snap, changed := tracker.Observe(res.Err, res.At)
		if !changed {
			return
		}
		// Best effort: the store may be the thing that is down.
		if err := syncer.WriteStatus(ctx, snap); err != nil {
			klog.Errorf("status write failed: %v", err)
		}
	}

	err = p.Run(ctx, syncer, observe)
	if ctx.Err() != nil {
		klog.Info("shutting down")
		return
	}
	klog.Fatalf("giving up (code=%d): %v", status.CodeOf(err), err)
}

func selfTest(ctx context.Context, d *tsdb.Dialer) error {
	c, err := d.Open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.SelfTest(ctx)
}
