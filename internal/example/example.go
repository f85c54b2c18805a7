package example

import (
	"nnrt/internal/example/dense"
	"nnrt/internal/graph"
)

var menu = [...]struct {
	name string
	call func(inline bool) ([]byte, []*graph.Parameter)
}{
	{"identity", dense.Identity},
	{"affine", dense.Affine},
	{"mlp", dense.MLP},
}

func Names() []string {
	names := make([]string, len(menu))
	for i := range &menu {
		names[i] = menu[i].name
	}
	return names
}

// Generate returns the HCL text of the named example model and its
// parameters. With inline set the parameters are also written into the
// text as parameter blocks. An unknown name yields nil text.
func Generate(name string, inline bool) ([]byte, []*graph.Parameter) {
	for i := range &menu {
		if menu[i].name == name {
			return menu[i].call(inline)
		}
	}
	return nil, nil
}
