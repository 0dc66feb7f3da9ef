// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minemo/huion-solar-getter/internal/signal"
	"github.com/minemo/huion-solar-getter/internal/status"
)

// fakeClient serves registers from a map and records every read.
type fakeClient struct {
	regs   map[uint16]uint16
	failAt uint16 // address whose read fails; 0 = never
	short  bool   // return one word fewer than asked
	reads  []uint16
	closed bool
}

func (f *fakeClient) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	f.reads = append(f.reads, addr)
	if f.failAt != 0 && addr == f.failAt {
		return nil, errors.New("fail read")
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = f.regs[addr+uint16(i)]
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

type fakeSink struct {
	calls int
	fail  int // fail the first n calls
}

func (s *fakeSink) Sync(context.Context, *signal.Catalog) error {
	s.calls++
	if s.calls <= s.fail {
		return status.Wrap(status.CodeStore, "sync", errors.New("store down"))
	}
	return nil
}

func testCatalog() *signal.Catalog {
	return &signal.Catalog{Groups: []*signal.Group{
		signal.NewGroup("general", "general", []signal.Schema{
			{Name: "input_power", Address: 200, Length: 2, Gain: 1000, Kind: signal.KindI32},
			{Name: "grid_voltage", Address: 100, Length: 1, Gain: 10, Kind: signal.KindU16},
		}),
		signal.NewGroup("pv_0", "pv", []signal.Schema{
			{Name: "pv_0_voltage", Address: 32016, Length: 1, Gain: 10, Kind: signal.KindI16},
			{Name: "pv_0_current", Address: 32017, Length: 1, Gain: 100, Kind: signal.KindI16},
		}),
	}}
}

func testConfig() Config {
	return Config{
		Interval: time.Second,
		Retry:    RetryPolicy{MaxAttempts: 3, Initial: time.Millisecond, Max: time.Millisecond},
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}, testCatalog(), &fakeClient{}, nil); err == nil {
		t.Fatalf("expected interval error")
	}
	if _, err := New(testConfig(), &signal.Catalog{}, &fakeClient{}, nil); err == nil {
		t.Fatalf("expected empty catalog error")
	}
	if _, err := New(testConfig(), testCatalog(), nil, nil); err == nil {
		t.Fatalf("expected missing client error")
	}
}

func TestPollOnce_Success(t *testing.T) {
	cli := &fakeClient{regs: map[uint16]uint16{
		200: 0xFFFF, 201: 0xFFFE,
		100:   2301,
		32016: 3805,
		32017: 912,
	}}

	cat := testCatalog()
	p, err := New(testConfig(), cat, cli, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce()
	if res.Err != nil {
		t.Fatalf("PollOnce err=%v", res.Err)
	}
	if res.Groups != 2 || res.Signals != 4 {
		t.Fatalf("expected 2 groups / 4 signals, got %d / %d", res.Groups, res.Signals)
	}

	// one round trip per signal, in group order
	want := []uint16{200, 100, 32016, 32017}
	if len(cli.reads) != len(want) {
		t.Fatalf("expected %d reads, got %d", len(want), len(cli.reads))
	}
	for i := range want {
		if cli.reads[i] != want[i] {
			t.Fatalf("read %d: got addr %d want %d", i, cli.reads[i], want[i])
		}
	}

	if n, _ := cat.Groups[0].Readings[0].Value().Int(); n != -2 {
		t.Fatalf("input_power: got=%d want=-2", n)
	}
	if n, _ := cat.Groups[0].Readings[1].Value().Int(); n != 2301 {
		t.Fatalf("grid_voltage: got=%d want=2301", n)
	}
	if cat.Groups[1].Readings[1].ObservedAt.IsZero() {
		t.Fatalf("observedAt not set")
	}
}

func TestPollOnce_TransportFailure(t *testing.T) {
	cli := &fakeClient{failAt: 100}
	p, err := New(testConfig(), testCatalog(), cli, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce()
	if res.Err == nil {
		t.Fatalf("expected error, got nil")
	}
	if code := status.CodeOf(res.Err); code != status.CodeTransport {
		t.Fatalf("expected transport code, got %d", code)
	}
}

func TestPollOnce_ShortReadRejected(t *testing.T) {
	cat := testCatalog()
	p, err := New(testConfig(), cat, &fakeClient{short: true}, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	if res := p.PollOnce(); res.Err == nil {
		t.Fatalf("expected short read error")
	}
	if !cat.Groups[0].Readings[0].ObservedAt.IsZero() {
		t.Fatalf("reading must stay unchanged after a failed read")
	}
}

func TestPollOnce_FactoryReplacesDeadClient(t *testing.T) {
	dead := &fakeClient{failAt: 200}
	fresh := &fakeClient{}
	made := 0
	factory := func() (Client, error) {
		made++
		return fresh, nil
	}

	p, err := New(testConfig(), testCatalog(), dead, factory)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	if res := p.PollOnce(); res.Err == nil {
		t.Fatalf("expected first poll to fail")
	}
	if !dead.closed {
		t.Fatalf("dead client must be closed")
	}

	if res := p.PollOnce(); res.Err != nil {
		t.Fatalf("second poll err=%v", res.Err)
	}
	if made != 1 {
		t.Fatalf("expected factory to be used once, got %d", made)
	}
}

func TestCycle_RetriesWholeCycle(t *testing.T) {
	cli := &fakeClient{}
	sink := &fakeSink{fail: 2}
	p, err := New(testConfig(), testCatalog(), cli, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.Cycle(context.Background(), sink)
	if res.Err != nil {
		t.Fatalf("Cycle err=%v", res.Err)
	}
	if res.Attempts != 3 || sink.calls != 3 {
		t.Fatalf("expected 3 attempts, got attempts=%d sync calls=%d", res.Attempts, sink.calls)
	}
	if len(cli.reads) != 3*4 {
		t.Fatalf("each attempt must re-read all signals, got %d reads", len(cli.reads))
	}
}

func TestCycle_GivesUpAfterMaxAttempts(t *testing.T) {
	sink := &fakeSink{fail: 100}
	p, err := New(testConfig(), testCatalog(), &fakeClient{}, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.Cycle(context.Background(), sink)
	if res.Err == nil {
		t.Fatalf("expected error after retries")
	}
	if sink.calls != 3 {
		t.Fatalf("expected 3 sync calls, got %d", sink.calls)
	}
	if code := status.CodeOf(res.Err); code != status.CodeStore {
		t.Fatalf("expected store code, got %d", code)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sink := &fakeSink{}
	p, err := New(Config{Interval: time.Hour}, testCatalog(), &fakeClient{}, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	var results []PollResult
	observe := func(r PollResult) {
		results = append(results, r)
		cancel()
	}

	if err := p.Run(ctx, sink, observe); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("expected one successful cycle, got %+v", results)
	}
}

func TestReadModel(t *testing.T) {
	regs := map[uint16]uint16{30000: 0x5355, 30001: 0x4E32, 30002: 0x3030, 30003: 0x3000}
	model, err := ReadModel(&fakeClient{regs: regs})
	if err != nil {
		t.Fatalf("ReadModel err=%v", err)
	}
	if model != "SUN2000" {
		t.Fatalf("got %q want %q", model, "SUN2000")
	}
}

func TestReadPVCount(t *testing.T) {
	n, err := ReadPVCount(&fakeClient{regs: map[uint16]uint16{30071: 2}})
	if err != nil {
		t.Fatalf("ReadPVCount err=%v", err)
	}
	if n != 2 {
		t.Fatalf("got %d want 2", n)
	}
}
