package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, text string) string {
	path := filepath.Join(t.TempDir(), name)
	must.M(os.WriteFile(path, []byte(text), 0o666))
	return path
}

func TestLoadAndResolve(t *testing.T) {
	reg := write(t, "ops.yaml", "functions:\n  - name: Only\n    inputs: [{name: x}]\n    outputs: [{name: y}]\n")
	path := write(t, "nnrt.yaml", "executor: runtime\nprefix: demo\nregistry: "+reg+"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "runtime", cfg.Executor)
	assert.Equal(t, "demo", cfg.Prefix)
	assert.Nil(t, cfg.Registry)

	require.NoError(t, cfg.Resolve())
	assert.Equal(t, []string{"Only"}, cfg.Registry.Types())
}

func TestResolveBuiltin(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Resolve())
	_, err := cfg.Registry.Lookup("Affine")
	assert.NoError(t, err)
	assert.NotNil(t, Default().Registry)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	_, err = Load(write(t, "bad.yaml", "nonsense: 1\n"))
	assert.Error(t, err)
	cfg := &Config{RegistryFile: filepath.Join(t.TempDir(), "missing.yaml")}
	assert.Error(t, cfg.Resolve())
}
