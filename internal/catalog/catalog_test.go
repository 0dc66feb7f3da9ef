// internal/catalog/catalog_test.go
package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minemo/huion-solar-getter/internal/signal"
)

func loadTestBuilder(t *testing.T) *Builder {
	t.Helper()
	defs, err := LoadDefinitions("testdata/definitions.json")
	require.NoError(t, err)
	b, err := NewBuilder(defs)
	require.NoError(t, err)
	return b
}

func names(g *signal.Group) []string {
	out := make([]string, 0, len(g.Readings))
	for _, r := range g.Readings {
		out = append(out, r.Name)
	}
	return out
}

func TestBuildGroup_DropsUnrecognisedDType(t *testing.T) {
	b := loadTestBuilder(t)

	g := b.BuildGroup(CategoryGeneral)
	assert.Equal(t, []string{"grid_voltage", "input_power", "model"}, names(g))
	assert.Equal(t, "general", g.Key)

	assert.Equal(t, signal.KindU16, g.Readings[0].Kind)
	assert.Equal(t, signal.KindI32, g.Readings[1].Kind)
	assert.Equal(t, signal.KindText, g.Readings[2].Kind)
	assert.Equal(t, uint16(200), g.Readings[1].Address)
}

func TestBuildGroup_NumericCategoryCodes(t *testing.T) {
	b := loadTestBuilder(t)

	g := b.BuildGroup(CategoryStorage)
	assert.Equal(t, []string{"charge_discharge_power"}, names(g))
	assert.Empty(t, b.BuildGroup(CategoryPGS).Readings)
}

func TestInstantiateTemplate_UnrecognisedBecomesUnknown(t *testing.T) {
	b := loadTestBuilder(t)

	g, err := b.InstantiateTemplate(38242, 1)
	require.NoError(t, err)

	assert.Equal(t, "pack1", g.Name)
	assert.Equal(t, "storage", g.Key)
	assert.Equal(t, []string{"pack1_soc", "pack1_alarm", "pack1_total_charge"}, names(g))
	assert.Equal(t, []uint16{38242, 38243, 38244}, []uint16{
		g.Readings[0].Address, g.Readings[1].Address, g.Readings[2].Address,
	})
	assert.Equal(t, signal.KindUnknown, g.Readings[1].Kind)
	assert.Equal(t, signal.KindU32, g.Readings[2].Kind)
}

func TestInstantiateTemplate_AddressOverflow(t *testing.T) {
	b := loadTestBuilder(t)

	_, err := b.InstantiateTemplate(0xFFFF, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDefinitions))
}

func TestBuildPerStringGroups_AddressOverflow(t *testing.T) {
	// 16760 strings end exactly at register 65535
	groups, err := BuildPerStringGroups(16760)
	require.NoError(t, err)
	last := groups[len(groups)-1].Readings
	assert.Equal(t, uint16(0xFFFE), last[0].Address)
	assert.Equal(t, uint16(0xFFFF), last[1].Address)

	_, err = BuildPerStringGroups(16761)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDefinitions))

	_, err = BuildPerStringGroups(-1)
	assert.True(t, errors.Is(err, ErrDefinitions))
}

func TestAssemble_RejectsBogusPVCount(t *testing.T) {
	b := loadTestBuilder(t)

	cat, err := Assemble(b, Layout{}, 16761)
	require.Error(t, err)
	assert.Nil(t, cat)
	assert.True(t, errors.Is(err, ErrDefinitions))
}

func TestBuildPerStringGroups(t *testing.T) {
	groups, err := BuildPerStringGroups(2)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	var got []signal.Schema
	for _, g := range groups {
		assert.Equal(t, KeyPV, g.Key)
		got = append(got, g.Schemas()...)
	}

	require.Len(t, got, 4)
	wantNames := []string{"pv_0_voltage", "pv_0_current", "pv_1_voltage", "pv_1_current"}
	wantAddrs := []uint16{32016, 32017, 32018, 32019}
	wantGains := []uint16{10, 100, 10, 100}
	for i, s := range got {
		assert.Equal(t, wantNames[i], s.Name)
		assert.Equal(t, wantAddrs[i], s.Address)
		assert.Equal(t, wantGains[i], s.Gain)
		assert.Equal(t, uint16(1), s.Length)
		assert.Equal(t, signal.KindI16, s.Kind)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	b := loadTestBuilder(t)

	a1, err := Assemble(b, DefaultLayout(), 2)
	require.NoError(t, err)
	a2, err := Assemble(b, DefaultLayout(), 2)
	require.NoError(t, err)

	require.Equal(t, len(a1.Groups), len(a2.Groups))
	for i := range a1.Groups {
		assert.Equal(t, a1.Groups[i].Schemas(), a2.Groups[i].Schemas())
	}
}

func TestAssemble_Order(t *testing.T) {
	b := loadTestBuilder(t)

	cat, err := Assemble(b, DefaultLayout(), 1)
	require.NoError(t, err)

	var groupNames []string
	for _, g := range cat.Groups {
		groupNames = append(groupNames, g.Name)
	}
	// pgs has no fields and is omitted
	assert.Equal(t, []string{"general", "storage", "pack0", "pack1", "pack2", "pv_0"}, groupNames)
	// general carries model_ident on top of its const fields
	assert.Equal(t, 3+1+1+3*3+2, cat.Len())
}

func TestAssemble_GeneralEndsWithModelIdentity(t *testing.T) {
	b := loadTestBuilder(t)

	cat, err := Assemble(b, DefaultLayout(), 0)
	require.NoError(t, err)

	general := cat.Groups[0]
	require.Equal(t, "general", general.Name)
	assert.Equal(t, []string{"grid_voltage", "input_power", "model", "model_ident"}, names(general))

	last := general.Readings[len(general.Readings)-1]
	assert.Equal(t, ModelIdentity, last.Schema)
	assert.Equal(t, signal.KindText, last.Value().Kind())
}

func TestAssemble_ModelIdentityNotDuplicated(t *testing.T) {
	b := loadTestBuilder(t)
	b.defs.Const = append(b.defs.Const, ConstField{
		DType: "STR", Addr: ptr(30000), Len: 15, Gain: 1, Name: "model_ident", Category: CategoryGeneral,
	})

	cat, err := Assemble(b, DefaultLayout(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"grid_voltage", "input_power", "model", "model_ident"}, names(cat.Groups[0]))
}

func TestAssemble_NoGeneralNoModelIdentity(t *testing.T) {
	b := loadTestBuilder(t)

	cat, err := Assemble(b, Layout{Categories: []Category{CategoryStorage}}, 0)
	require.NoError(t, err)
	require.Len(t, cat.Groups, 1)
	assert.Equal(t, []string{"charge_discharge_power"}, names(cat.Groups[0]))
}

func TestAssemble_OverlappingPacksRejected(t *testing.T) {
	b := loadTestBuilder(t)
	layout := Layout{PackBases: []uint16{1000}}

	// offset 3 is the low word of total_charge
	b.defs.Scheme.Bat = append(b.defs.Scheme.Bat, TemplateField{
		DType: "U16", Addr: ptr(3), Len: 1, Gain: 1, Name: "clash",
	})

	_, err := Assemble(b, layout, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDefinitions))
}

func TestParseDefinitions_MissingFields(t *testing.T) {
	cases := map[string]string{
		"bad json":     `{"const": [`,
		"no name":      `{"const":[{"dtype":"U16","addr":1,"len":1,"gain":1,"category":"general"}]}`,
		"no addr":      `{"const":[{"dtype":"U16","name":"x","len":1,"gain":1,"category":"general"}]}`,
		"zero gain":    `{"const":[{"dtype":"U16","addr":1,"name":"x","len":1,"gain":0,"category":"general"}]}`,
		"no category":  `{"const":[{"dtype":"U16","addr":1,"name":"x","len":1,"gain":1}]}`,
		"bad code":     `{"const":[{"dtype":"U16","addr":1,"name":"x","len":1,"gain":1,"category":9}]}`,
		"template len": `{"scheme":{"bat":[{"dtype":"U16","addr":0,"name":"x","len":0,"gain":1}]}}`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDefinitions([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDefinitions))
		})
	}
}

func TestLoadDefinitions_Missing(t *testing.T) {
	_, err := LoadDefinitions("testdata/does-not-exist.json")
	assert.True(t, errors.Is(err, ErrDefinitions))
}

func TestShippedDefinitionsAssemble(t *testing.T) {
	defs, err := LoadDefinitions("../../configs/definitions.json")
	require.NoError(t, err)
	b, err := NewBuilder(defs)
	require.NoError(t, err)

	cat, err := Assemble(b, DefaultLayout(), 4)
	require.NoError(t, err)
	assert.NotZero(t, cat.Len())
}

func ptr(v uint16) *uint16 { return &v }
