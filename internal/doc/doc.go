package doc

import (
	"strings"
	"unicode"

	"nnrt/internal/registry"
)

const (
	empty   = ""
	space   = " "
	dash    = "-"
	newline = "\n"
	indent  = space + space + space + space
	divider = dash + dash + dash + dash + newline
	binder  = " = "
	width   = 80
)

type seg struct {
	label string
	eg    string
	doc   string
}

type block struct {
	head string
	doc  string
	segs []seg
}

var guide = [...]block{
	{
		head: `network "<name>"`,
		doc: "A network is a graph of variables and functions. Variables are " +
			"declared in slot order; functions run in declaration order, so each " +
			"function must come after the functions that produce its inputs.",
		segs: []seg{
			{"batch_size", "1", "Substituted for every negative dimension of every variable shape. Defaults to 1."},
		},
	},
	{
		head: `variable "<name>"`,
		doc:  "A tensor of 32-bit floats. Nested in a network block.",
		segs: []seg{
			{"shape", "[-1, 3, 28, 28]", "Dimensions, outermost first. A negative dimension is the batch placeholder; an empty list is a scalar."},
		},
	},
	{
		head: `function "<name>"`,
		doc: "One operator application. Nested in a network block. Arguments are " +
			`given as arg "<name>" "<kind>" { value = ... } blocks, where kind is ` +
			"int, float, bool, shape or ints. Omitted arguments take the operator default.",
		segs: []seg{
			{"type", `"Affine"`, "Operator type, looked up in the operator catalog below."},
			{"inputs", `["x", "affine/W", "affine/b"]`, "Input variables in operator port order. Trailing optional inputs may be left out."},
			{"outputs", `["y"]`, "Output variables in operator port order."},
		},
	},
	{
		head: `executor "<name>"`,
		doc: "Selects a network and fixes the data the generated code exchanges " +
			"with its caller. The first executor is used unless one is named on the command line.",
		segs: []seg{
			{"network", `"mlp"`, "Name of the network to generate."},
			{"inputs", `["x"]`, "Variables the caller fills before inference, in accessor index order."},
			{"outputs", `["y"]`, "Variables the caller reads after inference, in accessor index order."},
			{"params", `["affine/W"]`, "Variables loaded from trained parameters. Each must have values in the parameter table."},
		},
	},
	{
		head: `parameter "<variable>"`,
		doc: "Trained values of one variable. The order of parameter blocks is " +
			"the parameter serialization order of the generated code. A parameter " +
			"file given on the command line replaces every parameter block.",
		segs: []seg{
			{"shape", "[4, 3]", "Dimensions; must hold as many values as the variable."},
			{"data", "[0.5, -1.25, ...]", "Values in row-major order, rounded to the nearest float32."},
		},
	},
}

func line(to []byte, dent, text string) []byte {
	to = append(to, dent...)
	to = append(to, text...)
	to = append(to, newline...)
	return to
}

func para(to []byte, dent, text string) []byte {
	to = append(to, newline...)
	fit := width - len(dent)
	var i, j, ij, ik int
	for k, r := range text {
		if unicode.IsSpace(r) {
			if ik > fit && ij != 0 {
				to = line(to, dent, text[i:j])
				i = j + 1
				ik -= ij + 1
			}
			j, ij = k, ik
		}
		ik += 1
	}
	if ik > fit && ij != 0 {
		to = line(to, dent, text[i:j])
		i = j + 1
		ik -= ij + 1
	}
	if ik != 0 {
		to = line(to, dent, text[i:])
	}
	return to
}

func ports(ps []registry.Port) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
		switch {
		case p.Variadic:
			names[i] += "..."
		case p.Optional:
			names[i] += "?"
		}
	}
	return strings.Join(names, ", ")
}

// Bytes documents the model file format followed by every operator of reg.
func Bytes(reg *registry.Registry) (to []byte) {
	for i := range &guide {
		b := &guide[i]
		if i != 0 {
			to = append(to, newline+divider+newline...)
		}
		to = append(to, b.head+newline...)
		for _, s := range b.segs {
			to = append(to, indent+s.label+binder+s.eg+newline...)
		}
		to = para(to, empty, b.doc)
		for _, s := range b.segs {
			to = para(to, indent, s.label+":"+space+s.doc)
		}
	}
	for _, typ := range reg.Types() {
		op, err := reg.Lookup(typ)
		if err != nil {
			continue
		}
		to = append(to, newline+divider+newline...)
		to = append(to, typ+"("+ports(op.Inputs)+") -> "+ports(op.Outputs)+newline...)
		for _, a := range op.Args {
			def := "required"
			if a.Default != nil {
				def = a.Default.String()
			}
			to = append(to, indent+a.Name+space+string(a.Type)+binder+def+newline...)
		}
		hooks := []string{op.LocalInit, op.Exec}
		if op.HasConfig() {
			hooks = append([]string{op.ConfigInit}, hooks...)
		}
		to = para(to, empty, "Runtime: "+strings.Join(hooks, ", ")+".")
	}
	return
}
