// internal/catalog/assemble.go
package catalog

import (
	"fmt"

	"github.com/minemo/huion-solar-getter/internal/signal"
)

// Layout says which parts of the definitions make up one device.
type Layout struct {
	// Categories of const fields, in read order.
	Categories []Category
	// PackBases holds one base address per battery pack; pack ids follow
	// slice order.
	PackBases []uint16
}

// DefaultLayout matches an inverter with three battery packs.
func DefaultLayout() Layout {
	return Layout{
		Categories: []Category{CategoryGeneral, CategoryStorage, CategoryPGS},
		PackBases:  []uint16{38200, 38242, 38284},
	}
}

// Assemble builds and validates the full catalog: const categories,
// then battery packs, then PV strings. The general group always ends with
// the model identity. Empty groups are omitted.
func Assemble(b *Builder, layout Layout, pvCount int) (*signal.Catalog, error) {
	pv, err := BuildPerStringGroups(pvCount)
	if err != nil {
		return nil, err
	}

	cat := &signal.Catalog{}

	for _, c := range layout.Categories {
		g := b.BuildGroup(c)
		if c == CategoryGeneral {
			withModelIdentity(g)
		}
		if len(g.Readings) > 0 {
			cat.Groups = append(cat.Groups, g)
		}
	}

	for id, base := range layout.PackBases {
		g, err := b.InstantiateTemplate(base, id)
		if err != nil {
			return nil, err
		}
		if len(g.Readings) > 0 {
			cat.Groups = append(cat.Groups, g)
		}
	}

	cat.Groups = append(cat.Groups, pv...)

	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDefinitions, err)
	}
	return cat, nil
}

// withModelIdentity appends model_ident unless the definitions already
// declare it.
func withModelIdentity(g *signal.Group) {
	for _, r := range g.Readings {
		if r.Name == ModelIdentity.Name {
			return
		}
	}
	g.Readings = append(g.Readings, signal.NewReading(ModelIdentity))
}
