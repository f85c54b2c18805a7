package main

import (
	"os"
	"strings"
	"testing"

	"nnrt/internal/compile"
	"nnrt/internal/config"
	"nnrt/internal/example"
	"nnrt/internal/load"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutTable(t *testing.T) {
	text, _ := example.Generate("affine", true)
	m := must.M1(load.Model(text, "affine.hcl"))
	pl, err := compile.Plan(m, config.Default())
	require.NoError(t, err)
	table := layoutTable(pl)
	for _, want := range []string{"Slot", "affine1/W", "affine1/b", "parameter", "caller", "heap", "input"} {
		assert.Contains(t, table, want)
	}
	assert.Contains(t, table, "nnablart_affine: 1 calls, heap ")
}

func TestResolveOverrides(t *testing.T) {
	s := settings{executor: "runtime", prefix: "edge"}
	cfg, err := s.resolve()
	require.NoError(t, err)
	assert.Equal(t, "runtime", cfg.Executor)
	assert.Equal(t, "edge", cfg.Prefix)
	assert.NotNil(t, cfg.Registry)

	s = settings{config: "no/such/file.yaml"}
	_, err = s.resolve()
	assert.Error(t, err)
}

func TestLicenseHeader(t *testing.T) {
	src := string(must.M1(os.ReadFile("main.go")))
	head := src[:strings.Index(src, "package main")]
	assert.True(t, strings.HasPrefix(head, "// nnrt: "))
	assert.Contains(t, head, "Copyright (C) 2026 The nnrt Authors.")
	assert.NotContains(t, head, "NN-512")
}
