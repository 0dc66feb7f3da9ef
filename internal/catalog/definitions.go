// internal/catalog/definitions.go
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrDefinitions marks a definition source that cannot produce a catalog.
var ErrDefinitions = errors.New("catalog: invalid definitions")

// Definitions is the declarative register map loaded at startup.
//
//	{
//	  "const":  [{"dtype":"U32","addr":32106,"len":2,"gain":100,"name":"acc_energy_yield","unit":"kWh","category":"general"}],
//	  "scheme": {"bat": [{"dtype":"U16","addr":0,"len":1,"gain":10,"name":"soc","unit":"%"}]}
//	}
type Definitions struct {
	Const  []ConstField `json:"const"`
	Scheme Scheme       `json:"scheme"`
}

// ConstField is one fixed-address signal.
type ConstField struct {
	DType    string   `json:"dtype"`
	Addr     *uint16  `json:"addr"`
	Len      uint16   `json:"len"`
	Gain     uint16   `json:"gain"`
	Name     string   `json:"name"`
	Unit     string   `json:"unit"`
	Category Category `json:"category"`
}

// Scheme holds the templates repeated per sub-unit.
type Scheme struct {
	Bat []TemplateField `json:"bat"`
}

// TemplateField is one signal of a sub-unit; Addr is an offset from
// the sub-unit's base address.
type TemplateField struct {
	DType string  `json:"dtype"`
	Addr  *uint16 `json:"addr"`
	Len   uint16  `json:"len"`
	Gain  uint16  `json:"gain"`
	Name  string  `json:"name"`
	Unit  string  `json:"unit"`
}

// Category is a const field's logical group.
// Older definition files use numeric codes.
type Category string

const (
	CategoryGeneral Category = "general"
	CategoryStorage Category = "storage"
	CategoryPGS     Category = "pgs"
)

var categoryCodes = map[int]Category{
	1: CategoryGeneral,
	2: CategoryStorage,
	3: CategoryPGS,
}

func (c *Category) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Category(s)
		return nil
	}

	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("category %s: not a string or integer", b)
	}
	cat, ok := categoryCodes[n]
	if !ok {
		return fmt.Errorf("category code %d is not defined", n)
	}
	*c = cat
	return nil
}

// LoadDefinitions reads and validates a definitions file.
func LoadDefinitions(path string) (*Definitions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDefinitions, err)
	}
	return ParseDefinitions(b)
}

// ParseDefinitions decodes and validates a definitions document.
func ParseDefinitions(b []byte) (*Definitions, error) {
	var d Definitions
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDefinitions, err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// validate checks required fields only. Unknown dtypes are accepted here;
// the builder decides what happens to them.
func (d *Definitions) validate() error {
	for i, c := range d.Const {
		switch {
		case c.Name == "":
			return fmt.Errorf("%w: const[%d]: name required", ErrDefinitions, i)
		case c.DType == "":
			return fmt.Errorf("%w: const[%d] %q: dtype required", ErrDefinitions, i, c.Name)
		case c.Addr == nil:
			return fmt.Errorf("%w: const[%d] %q: addr required", ErrDefinitions, i, c.Name)
		case c.Len == 0:
			return fmt.Errorf("%w: const[%d] %q: len must be >= 1", ErrDefinitions, i, c.Name)
		case c.Gain == 0:
			return fmt.Errorf("%w: const[%d] %q: gain must be >= 1", ErrDefinitions, i, c.Name)
		case c.Category == "":
			return fmt.Errorf("%w: const[%d] %q: category required", ErrDefinitions, i, c.Name)
		}
	}

	for i, b := range d.Scheme.Bat {
		switch {
		case b.Name == "":
			return fmt.Errorf("%w: scheme.bat[%d]: name required", ErrDefinitions, i)
		case b.DType == "":
			return fmt.Errorf("%w: scheme.bat[%d] %q: dtype required", ErrDefinitions, i, b.Name)
		case b.Addr == nil:
			return fmt.Errorf("%w: scheme.bat[%d] %q: addr required", ErrDefinitions, i, b.Name)
		case b.Len == 0:
			return fmt.Errorf("%w: scheme.bat[%d] %q: len must be >= 1", ErrDefinitions, i, b.Name)
		case b.Gain == 0:
			return fmt.Errorf("%w: scheme.bat[%d] %q: gain must be >= 1", ErrDefinitions, i, b.Name)
		}
	}
	return nil
}
