package schema

import (
	"testing"

	"nnrt/internal/graph"
	"nnrt/internal/registry"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *registry.Registry {
	return must.M1(registry.New(
		&registry.Op{
			Type:    "Mix",
			Inputs:  []registry.Port{{Name: "x"}, {Name: "w", Optional: true}},
			Outputs: []registry.Port{{Name: "y"}},
			Args:    []registry.ArgSpec{{Name: "k", Type: registry.Int64, Default: graph.Int(3)}},
		},
		&registry.Op{
			Type:    "Cat",
			Inputs:  []registry.Port{{Name: "x", Variadic: true}},
			Outputs: []registry.Port{{Name: "y"}},
		},
	))
}

func testNet(fns ...graph.Function) *graph.Network {
	return &graph.Network{
		Name:      "n",
		BatchSize: 3,
		Variables: []graph.Variable{
			{Name: "a", Shape: graph.Shape{-1, 2}},
			{Name: "b", Shape: graph.Shape{-1, 2}},
			{Name: "c", Shape: graph.Shape{}},
		},
		Functions: fns,
	}
}

func TestVars(t *testing.T) {
	vs := Vars(testNet())
	require.Len(t, vs, 3)
	assert.Equal(t, 1, vs[1].Slot)
	assert.Equal(t, "b", vs[1].Name)
	assert.Equal(t, []int{3, 2}, vs[1].Dims)
	assert.Empty(t, vs[2].Dims)
}

func TestFuncs(t *testing.T) {
	net := testNet(
		graph.Function{Name: "m", Type: "Mix", Inputs: []string{"a"}, Outputs: []string{"b"}},
		graph.Function{Name: "j", Type: "Cat", Inputs: []string{"a", "b", "a"}, Outputs: []string{"c"}},
	)
	fs, err := Funcs(net, testRegistry())
	require.NoError(t, err)
	require.Len(t, fs, 2)

	assert.Equal(t, []int{0}, fs[0].Inputs)
	assert.Equal(t, []int{1}, fs[0].Outputs)
	assert.Equal(t, 2, fs[0].InputCap)
	assert.Equal(t, 1, fs[0].OutputCap)
	require.NotNil(t, fs[0].Config)
	assert.Equal(t, "mix_config_t", fs[0].Config.Type)
	assert.Equal(t, "3", fs[0].Config.InitArgs[0].Lit)

	assert.Equal(t, []int{0, 1, 0}, fs[1].Inputs)
	assert.Equal(t, 3, fs[1].InputCap)
	assert.Nil(t, fs[1].Config)
}

func TestFuncsErrors(t *testing.T) {
	for name, fn := range map[string]graph.Function{
		"unknown type":   {Name: "f", Type: "Nope", Inputs: []string{"a"}, Outputs: []string{"b"}},
		"too few inputs": {Name: "f", Type: "Mix", Outputs: []string{"b"}},
		"too many":       {Name: "f", Type: "Mix", Inputs: []string{"a", "a", "a"}, Outputs: []string{"b"}},
		"outputs":        {Name: "f", Type: "Mix", Inputs: []string{"a"}, Outputs: []string{"b", "c"}},
		"unknown arg": {Name: "f", Type: "Mix", Inputs: []string{"a"}, Outputs: []string{"b"},
			Args: []graph.Arg{{Name: "zz", Value: graph.Int(1)}}},
	} {
		_, err := Funcs(testNet(fn), testRegistry())
		assert.Error(t, err, name)
	}
}
