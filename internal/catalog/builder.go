// internal/catalog/builder.go
package catalog

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/minemo/huion-solar-getter/internal/signal"
)

// ---- hand-authored register map entries ----

const (
	// PVCountAddress holds the number of PV strings the inverter reports.
	PVCountAddress uint16 = 30071

	// PVBaseAddress is the voltage register of string 0; strings are
	// laid out as voltage/current pairs.
	PVBaseAddress uint16 = 32016

	KeyPV = "pv"
)

// ModelIdentity is the device model string. It is read once at startup
// for the status hash and polled with the general group every cycle.
var ModelIdentity = signal.Schema{
	Address:  30000,
	Length:   15,
	Name:     "model_ident",
	Gain:     1,
	Category: string(CategoryGeneral),
	Kind:     signal.KindText,
}

// Builder turns definitions into signal groups.
// It holds no state beyond the definitions and never does I/O.
type Builder struct {
	defs *Definitions
}

func NewBuilder(defs *Definitions) (*Builder, error) {
	if defs == nil {
		return nil, fmt.Errorf("%w: nil definitions", ErrDefinitions)
	}
	return &Builder{defs: defs}, nil
}

// BuildGroup returns the const fields of one category in file order.
// Fields whose dtype is not recognised are left out of the catalog.
func (b *Builder) BuildGroup(category Category) *signal.Group {
	var schemas []signal.Schema

	for _, c := range b.defs.Const {
		if c.Category != category {
			continue
		}
		kind, ok := signal.ParseKind(c.DType)
		if !ok {
			klog.V(2).Infof("catalog: dropping %q, unrecognised dtype %q", c.Name, c.DType)
			continue
		}
		schemas = append(schemas, signal.Schema{
			Address:  *c.Addr,
			Length:   c.Len,
			Name:     c.Name,
			Unit:     c.Unit,
			Gain:     c.Gain,
			Category: string(category),
			Kind:     kind,
		})
	}

	return signal.NewGroup(string(category), string(category), schemas)
}

// InstantiateTemplate places the battery pack template at base and prefixes
// every name with pack<id>_. Fields whose dtype is not recognised are kept
// as Unknown.
func (b *Builder) InstantiateTemplate(base uint16, id int) (*signal.Group, error) {
	name := fmt.Sprintf("pack%d", id)
	schemas := make([]signal.Schema, 0, len(b.defs.Scheme.Bat))

	for _, f := range b.defs.Scheme.Bat {
		addr := uint32(base) + uint32(*f.Addr)
		if addr > 0xFFFF {
			return nil, fmt.Errorf("%w: %s_%s: address %d+%d out of range", ErrDefinitions, name, f.Name, base, *f.Addr)
		}

		kind, ok := signal.ParseKind(f.DType)
		if !ok {
			kind = signal.KindUnknown
		}

		schemas = append(schemas, signal.Schema{
			Address:  uint16(addr),
			Length:   f.Len,
			Name:     name + "_" + f.Name,
			Unit:     f.Unit,
			Gain:     f.Gain,
			Category: name,
			Kind:     kind,
		})
	}

	return signal.NewGroup(name, string(CategoryStorage), schemas), nil
}

// BuildPerStringGroups returns one voltage/current group per PV string.
// The count comes from the device, so a value that would run the pairs past
// the end of the register space is rejected instead of wrapping.
func BuildPerStringGroups(count int) ([]*signal.Group, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative pv string count %d", ErrDefinitions, count)
	}
	if end := uint64(PVBaseAddress) + 2*uint64(count); end > 0x10000 {
		return nil, fmt.Errorf("%w: %d pv strings from %d run past register 65535", ErrDefinitions, count, PVBaseAddress)
	}

	groups := make([]*signal.Group, 0, count)

	for i := 0; i < count; i++ {
		name := fmt.Sprintf("%s_%d", KeyPV, i)
		voltage := PVBaseAddress + uint16(2*i)

		groups = append(groups, signal.NewGroup(name, KeyPV, []signal.Schema{
			{
				Address:  voltage,
				Length:   1,
				Name:     name + "_voltage",
				Unit:     "V",
				Gain:     10,
				Category: KeyPV,
				Kind:     signal.KindI16,
			},
			{
				Address:  voltage + 1,
				Length:   1,
				Name:     name + "_current",
				Unit:     "A",
				Gain:     100,
				Category: KeyPV,
				Kind:     signal.KindI16,
			},
		}))
	}

	return groups, nil
}
