// internal/tssync/sync.go
package tssync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"github.com/minemo/huion-solar-getter/internal/signal"
	"github.com/minemo/huion-solar-getter/internal/status"
)

const (
	// LabelType marks every series written by this program.
	LabelType  = "type"
	LabelData  = "data"
	LabelBase  = "base"
	LabelName  = "name"
	LabelUnit  = "unit"
	TypeSolar  = "solar"
	lookupPart = "lookup"
	statusPart = "status"
)

// LookupEntry is the per-signal display metadata in the lookup hash.
// Samples are raw register integers; consumers divide by Gain.
type LookupEntry struct {
	Unit string `json:"unit"`
	Gain uint16 `json:"gain"`
}

// Synchronizer keeps the time-series store consistent with a catalog and
// appends one sample per numeric signal per cycle.
type Synchronizer struct {
	baseKey string
	opener  Opener
}

func New(baseKey string, opener Opener) (*Synchronizer, error) {
	if baseKey == "" {
		return nil, errors.New("tssync: base key required")
	}
	if strings.Contains(baseKey, ":") {
		return nil, fmt.Errorf("tssync: base key %q must not contain ':'", baseKey)
	}
	if opener == nil {
		return nil, errors.New("tssync: store opener required")
	}
	return &Synchronizer{baseKey: baseKey, opener: opener}, nil
}

// SeriesKey returns <baseKey>:<categoryKey>:<signalName>.
func (s *Synchronizer) SeriesKey(g *signal.Group, r *signal.Reading) string {
	return s.baseKey + ":" + g.Key + ":" + r.Name
}

// LookupKey returns <baseKey>:lookup.
func (s *Synchronizer) LookupKey() string { return s.baseKey + ":" + lookupPart }

// StatusKey returns <baseKey>:status.
func (s *Synchronizer) StatusKey() string { return s.baseKey + ":" + statusPart }

// Sync runs one full store pass on a fresh session:
// probe, provision when needed, rewrite the lookup hash, append samples.
func (s *Synchronizer) Sync(ctx context.Context, cat *signal.Catalog) error {
	st, err := s.opener.Open(ctx)
	if err != nil {
		return status.Wrap(status.CodeStore, "store open", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			klog.V(2).Infof("store close: %v", err)
		}
	}()

	existing, provisioned, err := s.Probe(ctx, st, cat)
	if err != nil {
		return err
	}

	var errs []string

	if !provisioned {
		created, err := s.Provision(ctx, st, cat, existing)
		klog.Infof("provisioned %d series (store had %d, catalog has %d)", created, len(existing), cat.Len())
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if err := s.WriteLookup(ctx, st, cat); err != nil {
		errs = append(errs, err.Error())
	}

	n, err := s.AppendSamples(ctx, st, cat)
	if err != nil {
		errs = append(errs, err.Error())
	}
	klog.V(2).Infof("appended %d samples", n)

	if len(errs) > 0 {
		return status.Wrap(status.CodeStore, "sync", errors.New(strings.Join(errs, " | ")))
	}
	return nil
}

// Probe lists the series already tagged for this device. The store counts
// as provisioned when the number of series equals the catalog size.
// Equal counts are not a structural comparison: a renamed signal with the
// same cardinality goes unnoticed.
func (s *Synchronizer) Probe(ctx context.Context, st Store, cat *signal.Catalog) ([]string, bool, error) {
	keys, err := st.QueryIndex(ctx,
		LabelType+"="+TypeSolar,
		LabelBase+"="+s.baseKey,
	)
	if err != nil {
		return nil, false, status.Wrap(status.CodeStore, "ts.queryindex", err)
	}
	return keys, len(keys) == cat.Len(), nil
}

// Provision creates every series missing from existing. Every signal is
// attempted even after a failure; the returned error joins all failures.
func (s *Synchronizer) Provision(ctx context.Context, st Store, cat *signal.Catalog, existing []string) (int, error) {
	have := make(map[string]struct{}, len(existing))
	for _, k := range existing {
		have[k] = struct{}{}
	}

	var errs []string
	created := 0

	for _, g := range cat.Groups {
		for _, r := range g.Readings {
			key := s.SeriesKey(g, r)
			if _, ok := have[key]; ok {
				continue
			}

			labels := map[string]string{
				LabelType: TypeSolar,
				LabelData: g.Key,
				LabelBase: s.baseKey,
				LabelName: r.Name,
			}
			if r.Unit != "" {
				labels[LabelUnit] = r.Unit
			}

			if err := st.CreateSeries(ctx, key, labels); err != nil {
				errs = append(errs, fmt.Sprintf("ts.create %s: %v", key, err))
				continue
			}
			klog.V(4).Infof("created series %s", key)
			created++
		}
	}

	if len(errs) > 0 {
		return created, status.Wrap(status.CodeStore, "provision", errors.New(strings.Join(errs, " | ")))
	}
	return created, nil
}

// WriteLookup rewrites the whole name -> {unit, gain} hash. Signals that
// left the catalog lose their field.
func (s *Synchronizer) WriteLookup(ctx context.Context, st Store, cat *signal.Catalog) error {
	fields := make(map[string]string, cat.Len())

	for _, g := range cat.Groups {
		for _, r := range g.Readings {
			b, err := json.Marshal(LookupEntry{Unit: r.Unit, Gain: r.Gain})
			if err != nil {
				return fmt.Errorf("lookup %q: %w", r.Name, err)
			}
			fields[r.Name] = string(b)
		}
	}

	if err := st.ReplaceHash(ctx, s.LookupKey(), fields); err != nil {
		return status.Wrap(status.CodeStore, "hset "+s.LookupKey(), err)
	}
	return nil
}

// AppendSamples appends the raw integer of every numeric reading at its
// observed time. Text and Unknown readings are never appended.
func (s *Synchronizer) AppendSamples(ctx context.Context, st Store, cat *signal.Catalog) (int, error) {
	var errs []string
	appended := 0

	for _, g := range cat.Groups {
		for _, r := range g.Readings {
			v := r.Value()

			var raw int64
			switch v.Kind() {
			case signal.KindU16, signal.KindI16, signal.KindU32, signal.KindI32:
				raw, _ = v.Int()
			case signal.KindText, signal.KindUnknown:
				klog.V(4).Infof("skipping non-numeric %s (%s)", r.Name, v.Kind())
				continue
			default:
				continue
			}

			if r.ObservedAt.IsZero() {
				klog.V(2).Infof("skipping %s: never read", r.Name)
				continue
			}

			key := s.SeriesKey(g, r)
			if err := st.Add(ctx, key, r.ObservedAt.UnixMilli(), float64(raw)); err != nil {
				errs = append(errs, fmt.Sprintf("ts.add %s: %v", key, err))
				continue
			}
			appended++
		}
	}

	if len(errs) > 0 {
		return appended, status.Wrap(status.CodeStore, "append", errors.New(strings.Join(errs, " | ")))
	}
	return appended, nil
}

// WriteStatus delivers a health snapshot into <baseKey>:status.
func (s *Synchronizer) WriteStatus(ctx context.Context, snap status.Snapshot) error {
	st, err := s.opener.Open(ctx)
	if err != nil {
		return status.Wrap(status.CodeStore, "store open", err)
	}
	defer st.Close()

	if err := st.SetHash(ctx, s.StatusKey(), status.Encode(snap)); err != nil {
		return status.Wrap(status.CodeStore, "hset "+s.StatusKey(), err)
	}
	return nil
}
