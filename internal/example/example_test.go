package example

import (
	"testing"

	"nnrt/internal/compile"
	"nnrt/internal/config"
	"nnrt/internal/load"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExamplesCompile(t *testing.T) {
	require.Equal(t, []string{"identity", "affine", "mlp"}, Names())
	for _, name := range Names() {
		text, params := Generate(name, true)
		require.NotNil(t, text, name)
		m, err := load.Model(text, name+".hcl")
		require.NoError(t, err, name)
		require.Equal(t, len(params), len(m.Parameters), name)
		for i, p := range params {
			assert.Equal(t, p.Variable, m.Parameters[i].Variable)
			assert.Equal(t, p.Data, m.Parameters[i].Data, "%s: %s", name, p.Variable)
		}
		res, err := compile.Compile(m, config.Default())
		require.NoError(t, err, name)
		assert.Equal(t, len(params) > 0, len(res.Files) == 6, name)
	}
}

func TestSeparateParameterTable(t *testing.T) {
	text, params := Generate("mlp", false)
	m, err := load.Model(text, "mlp.hcl")
	require.NoError(t, err)
	assert.Empty(t, m.Parameters)
	m.Parameters, err = load.Params(load.AppendParams(nil, params))
	require.NoError(t, err)
	pl, err := compile.Plan(m, config.Default())
	require.NoError(t, err)
	assert.Len(t, pl.Params, 4)
	assert.Equal(t, "mlp", pl.Name)
}

func TestUnknown(t *testing.T) {
	text, params := Generate("LeNet", true)
	assert.Nil(t, text)
	assert.Nil(t, params)
}
