package doc

import (
	"strings"
	"testing"

	"nnrt/internal/registry"

	"github.com/stretchr/testify/assert"
)

func TestBytes(t *testing.T) {
	text := string(Bytes(registry.Builtin()))
	assert.Contains(t, text, `network "<name>"`+"\n")
	assert.Contains(t, text, "    batch_size = 1\n")
	assert.Contains(t, text, "Affine(x, weight, bias?) -> y\n")
	assert.Contains(t, text, "    base_axis int64 = 1\n")
	assert.Contains(t, text, "Concatenate(x...) -> y\n")
	assert.Contains(t, text, "Runtime: init_affine_config, init_affine_local_context, exec_affine.\n")
	assert.Contains(t, text, "Runtime: init_identity_local_context, exec_identity.\n")
	for _, l := range strings.Split(text, "\n") {
		if !strings.Contains(l, " = ") {
			assert.LessOrEqual(t, len(l), width, l)
		}
	}
}
