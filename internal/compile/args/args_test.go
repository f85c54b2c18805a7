package args

import (
	"testing"

	"nnrt/internal/compile/plan"
	"nnrt/internal/graph"
	"nnrt/internal/registry"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *registry.Registry {
	return must.M1(registry.New(&registry.Op{
		Type:    "Abc",
		Inputs:  []registry.Port{{Name: "x"}},
		Outputs: []registry.Port{{Name: "y"}},
		Args: []registry.ArgSpec{
			{Name: "a", Type: registry.Int64},
			{Name: "b", Type: registry.Shape},
			{Name: "c", Type: registry.Bool, Default: graph.Bool(true)},
			{Name: "d", Type: registry.Float},
			{Name: "e", Type: registry.Int64s},
		},
	}, &registry.Op{
		Type:    "Plain",
		Inputs:  []registry.Port{{Name: "x"}},
		Outputs: []registry.Port{{Name: "y"}},
	}))
}

func names(cfg *plan.Config) []string {
	var out []string
	for _, a := range cfg.InitArgs {
		out = append(out, a.Name)
	}
	return out
}

func TestEncodeFollowsSchemaOrder(t *testing.T) {
	op := must.M1(testRegistry().Lookup("Abc"))
	fn := &graph.Function{
		Name: "f",
		Type: "Abc",
		Args: []graph.Arg{
			{Name: "e", Value: graph.Ints{}},
			{Name: "d", Value: graph.Float(0.1)},
			{Name: "b", Value: graph.ShapeValue{3, 3}},
			{Name: "a", Value: graph.Int(-2)},
		},
	}
	cfg, err := Encode(fn, op)
	require.NoError(t, err)
	assert.Equal(t, "abc_config_t", cfg.Type)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names(cfg))

	assert.Equal(t, []plan.Field{
		{Name: "a", Lit: "-2"},
		{Name: "c", Lit: "1"},
		{Name: "d", Lit: "1e-01f"},
	}, cfg.Fields)
	assert.Equal(t, []plan.Vector{
		{Name: "b", Elems: []int64{3, 3}},
		{Name: "e", Elems: []int64{}},
	}, cfg.Vectors)

	args := cfg.InitArgs
	assert.Equal(t, "-2", args[0].Lit)
	assert.Equal(t, -1, args[0].Vector)
	assert.Equal(t, 0, args[1].Vector)
	assert.Equal(t, "1", args[2].Lit)
	assert.Equal(t, 1, args[4].Vector)
}

func TestEncodeScalars(t *testing.T) {
	op := must.M1(testRegistry().Lookup("Abc"))
	base := func(extra ...graph.Arg) *graph.Function {
		return &graph.Function{Name: "f", Args: append([]graph.Arg{
			{Name: "b", Value: graph.ShapeValue{1}},
			{Name: "e", Value: graph.Ints{1}},
		}, extra...)}
	}
	cfg, err := Encode(base(
		graph.Arg{Name: "a", Value: graph.Float(7)},
		graph.Arg{Name: "c", Value: graph.Bool(false)},
		graph.Arg{Name: "d", Value: graph.Int(2)},
	), op)
	require.NoError(t, err)
	assert.Equal(t, "7", cfg.InitArgs[0].Lit)
	assert.Equal(t, "0", cfg.InitArgs[2].Lit)
	assert.Equal(t, "2e+00f", cfg.InitArgs[3].Lit)

	_, err = Encode(base(
		graph.Arg{Name: "a", Value: graph.Float(7.5)},
		graph.Arg{Name: "d", Value: graph.Int(2)},
	), op)
	assert.Error(t, err, "non-integral int64")

	_, err = Encode(base(
		graph.Arg{Name: "a", Value: graph.Int(1)},
		graph.Arg{Name: "d", Value: graph.Bool(true)},
	), op)
	assert.Error(t, err, "bool for float")

	_, err = Encode(base(graph.Arg{Name: "d", Value: graph.Int(1)}), op)
	assert.Error(t, err, "missing required a")

	_, err = Encode(base(
		graph.Arg{Name: "a", Value: graph.Int(1)},
		graph.Arg{Name: "d", Value: graph.Int(1)},
		graph.Arg{Name: "zzz", Value: graph.Int(1)},
	), op)
	assert.Error(t, err, "unknown argument")

	_, err = Encode(&graph.Function{Name: "f", Args: []graph.Arg{
		{Name: "a", Value: graph.Int(1)},
		{Name: "d", Value: graph.Int(1)},
		{Name: "b", Value: graph.Ints{1 << 40}},
		{Name: "e", Value: graph.Ints{1}},
	}}, op)
	assert.Error(t, err, "vector element overflow")

	for _, a := range []graph.Value{graph.Int(1 << 31), graph.Int(-1<<31 - 1), graph.Float(1 << 40)} {
		_, err = Encode(base(
			graph.Arg{Name: "a", Value: a},
			graph.Arg{Name: "d", Value: graph.Int(1)},
		), op)
		assert.Error(t, err, "int64 scalar %s overflows int", a)
	}
	cfg, err = Encode(base(
		graph.Arg{Name: "a", Value: graph.Int(-1 << 31)},
		graph.Arg{Name: "d", Value: graph.Int(1)},
	), op)
	require.NoError(t, err)
	assert.Equal(t, "-2147483648", cfg.Fields[0].Lit)
}

func TestEncodeNoConfig(t *testing.T) {
	op := must.M1(testRegistry().Lookup("Plain"))
	cfg, err := Encode(&graph.Function{Name: "f"}, op)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	_, err = Encode(&graph.Function{Name: "f", Args: []graph.Arg{{Name: "x", Value: graph.Int(1)}}}, op)
	assert.Error(t, err)
}
