// internal/signal/schema.go
package signal

import (
	"fmt"
	"time"
)

// Schema describes one addressable quantity in the device register map.
type Schema struct {
	Address  uint16
	Length   uint16
	Name     string
	Unit     string
	Gain     uint16
	Category string
	Kind     Kind
}

// End returns the first register after the schema's range.
func (s Schema) End() uint32 {
	return uint32(s.Address) + uint32(s.Length)
}

// Reading is a schema plus its most recently decoded value.
type Reading struct {
	Schema

	value      Value
	ObservedAt time.Time
}

// NewReading creates a reading holding the zero value of the schema's kind.
func NewReading(s Schema) *Reading {
	return &Reading{Schema: s, value: Zero(s.Kind)}
}

func (r *Reading) Value() Value { return r.value }

// Set replaces the payload. The kind is fixed for the reading's lifetime,
// and ObservedAt never moves backwards.
func (r *Reading) Set(v Value, at time.Time) error {
	if v.Kind() != r.Kind {
		return fmt.Errorf("signal %q: kind %s cannot hold %s", r.Name, r.Kind, v.Kind())
	}
	r.value = v
	if at.After(r.ObservedAt) {
		r.ObservedAt = at
	}
	return nil
}

// Group is an ordered batch of readings fetched together.
// Order is the register fetch order and the order words are sliced back out.
type Group struct {
	Name     string // e.g. general, pack0, pv_1
	Key      string // store category key: general|storage|pgs|pv
	Readings []*Reading
}

// NewGroup builds a group with fresh readings for the given schemas.
func NewGroup(name, key string, schemas []Schema) *Group {
	g := &Group{Name: name, Key: key, Readings: make([]*Reading, 0, len(schemas))}
	for _, s := range schemas {
		g.Readings = append(g.Readings, NewReading(s))
	}
	return g
}

// Words returns the number of registers one read of the group yields.
func (g *Group) Words() int {
	n := 0
	for _, r := range g.Readings {
		n += int(r.Length)
	}
	return n
}

// Schemas returns a copy of the group's schemas in order.
func (g *Group) Schemas() []Schema {
	out := make([]Schema, 0, len(g.Readings))
	for _, r := range g.Readings {
		out = append(out, r.Schema)
	}
	return out
}

// Validate checks per-signal geometry and that no two register ranges
// in the group overlap.
func (g *Group) Validate() error {
	type span struct {
		start uint32
		end   uint32 // exclusive
		name  string
	}

	spans := make([]span, 0, len(g.Readings))

	for _, r := range g.Readings {
		if r.Name == "" {
			return fmt.Errorf("group %q: signal at address %d has no name", g.Name, r.Address)
		}
		if r.Length == 0 {
			return fmt.Errorf("group %q: signal %q has zero length", g.Name, r.Name)
		}
		if r.End() > 1<<16 {
			return fmt.Errorf("group %q: signal %q range %d+%d exceeds register space", g.Name, r.Name, r.Address, r.Length)
		}
		if want := r.Kind.Registers(r.Length); r.Kind != KindUnknown && want != r.Length {
			return fmt.Errorf("group %q: signal %q of kind %s needs length %d, got %d", g.Name, r.Name, r.Kind, want, r.Length)
		}

		start, end := uint32(r.Address), r.End()
		for _, s := range spans {
			if start < s.end && s.start < end {
				return fmt.Errorf(
					"group %q: signal %q range=%d-%d overlaps %q range=%d-%d",
					g.Name, r.Name, start, end-1, s.name, s.start, s.end-1,
				)
			}
		}
		spans = append(spans, span{start: start, end: end, name: r.Name})
	}
	return nil
}

// Catalog is every group polled from one device.
type Catalog struct {
	Groups []*Group
}

// Len returns the number of signals across all groups.
func (c *Catalog) Len() int {
	n := 0
	for _, g := range c.Groups {
		n += len(g.Readings)
	}
	return n
}

// Validate validates every group and requires names to be unique
// across the catalog.
func (c *Catalog) Validate() error {
	seen := make(map[string]string)
	for _, g := range c.Groups {
		if err := g.Validate(); err != nil {
			return err
		}
		for _, r := range g.Readings {
			if prev, ok := seen[r.Name]; ok {
				return fmt.Errorf("signal name %q used in groups %q and %q", r.Name, prev, g.Name)
			}
			seen[r.Name] = g.Name
		}
	}
	return nil
}
