package dense

import (
	"math/rand"
	"strconv"
	"strings"

	"nnrt/internal/graph"
	"nnrt/internal/nmsrc"
)

type state struct {
	name   string
	batch  int
	inline bool
	vars   []byte
	funcs  []byte
	inputs []string
	params []*graph.Parameter
	nms    nmsrc.Src
	rng    *rand.Rand
}

func newState(name string, batch int, inline bool) *state {
	return &state{
		name:   name,
		batch:  batch,
		inline: inline,
		nms:    nmsrc.New(),
		rng:    rand.New(rand.NewSource(1)),
	}
}

func quote(s string) string {
	return strconv.Quote(s)
}

func dims(shape graph.Shape) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func names(ns []string) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = quote(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (st *state) variable(name string, shape graph.Shape) string {
	st.vars = append(st.vars, "  variable "+quote(name)+" { shape = "+dims(shape)+" }\n"...)
	return name
}

func (st *state) input(width int) string {
	x := st.variable(st.nms.Name("x"), graph.Shape{-1, width})
	st.inputs = append(st.inputs, x)
	return x
}

func (st *state) param(name string, shape graph.Shape, scale float64) string {
	st.variable(name, shape)
	n := 1
	for _, d := range shape {
		n *= d
	}
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(st.rng.NormFloat64() * scale)
	}
	st.params = append(st.params, &graph.Parameter{Variable: name, Shape: shape, Data: data})
	return name
}

func (st *state) function(name, typ string, in []string, out string, args ...string) {
	st.funcs = append(st.funcs, "  function "+quote(name)+" {\n"...)
	st.funcs = append(st.funcs, "    type    = "+quote(typ)+"\n"...)
	st.funcs = append(st.funcs, "    inputs  = "+names(in)+"\n"...)
	st.funcs = append(st.funcs, "    outputs = "+names([]string{out})+"\n"...)
	for _, a := range args {
		st.funcs = append(st.funcs, "    "+a+"\n"...)
	}
	st.funcs = append(st.funcs, "  }\n"...)
}

func (st *state) affine(x string, from, to int) string {
	name := st.nms.Name("affine")
	w := st.param(name+"/W", graph.Shape{from, to}, 1/float64(from))
	b := st.param(name+"/b", graph.Shape{to}, 0.1)
	y := st.variable(name+"/y", graph.Shape{-1, to})
	st.function(name, "Affine", []string{x, w, b}, y, `arg "base_axis" "int" { value = 1 }`)
	return y
}

func (st *state) unary(typ, prefix, x string, width int, args ...string) string {
	name := st.nms.Name(prefix)
	y := st.variable(name+"/y", graph.Shape{-1, width})
	st.function(name, typ, []string{x}, y, args...)
	return y
}

func floats(data []float32) string {
	var b strings.Builder
	for i, f := range data {
		switch {
		case i == 0:
		case i%8 == 0:
			b.WriteString(",\n    ")
		default:
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	return b.String()
}

// text renders the model. Parameter blocks are emitted only when inline.
func (st *state) text(outputs ...string) []byte {
	var to []byte
	to = append(to, "network "+quote(st.name)+" {\n"...)
	to = append(to, "  batch_size = "+strconv.Itoa(st.batch)+"\n\n"...)
	to = append(to, st.vars...)
	to = append(to, '\n')
	to = append(to, st.funcs...)
	to = append(to, "}\n\n"...)
	pnames := make([]string, len(st.params))
	for i, p := range st.params {
		pnames[i] = p.Variable
	}
	to = append(to, "executor \"runtime\" {\n"...)
	to = append(to, "  network = "+quote(st.name)+"\n"...)
	to = append(to, "  inputs  = "+names(st.inputs)+"\n"...)
	to = append(to, "  outputs = "+names(outputs)+"\n"...)
	if len(pnames) != 0 {
		to = append(to, "  params  = "+names(pnames)+"\n"...)
	}
	to = append(to, "}\n"...)
	if !st.inline {
		return to
	}
	for _, p := range st.params {
		to = append(to, "\nparameter "+quote(p.Variable)+" {\n"...)
		to = append(to, "  shape = "+dims(p.Shape)+"\n"...)
		to = append(to, "  data = [\n    "+floats(p.Data)+",\n  ]\n}\n"...)
	}
	return to
}

// Identity copies a 3x3 input to its output.
func Identity(inline bool) ([]byte, []*graph.Parameter) {
	st := newState("identity", 1, inline)
	x := st.variable(st.nms.Name("x"), graph.Shape{1, 3, 3})
	st.inputs = append(st.inputs, x)
	y := st.variable("y", graph.Shape{1, 3, 3})
	st.function("identity", "Identity", []string{x}, y)
	return st.text(y), st.params
}

// Affine is a single fully connected layer.
func Affine(inline bool) ([]byte, []*graph.Parameter) {
	st := newState("affine", 1, inline)
	y := st.affine(st.input(4), 4, 3)
	return st.text(y), st.params
}

// MLP is a two-layer perceptron with a softmax head.
func MLP(inline bool) ([]byte, []*graph.Parameter) {
	st := newState("mlp", 2, inline)
	h := st.affine(st.input(16), 16, 8)
	h = st.unary("ReLU", "relu", h, 8)
	h = st.affine(h, 8, 4)
	y := st.unary("Softmax", "softmax", h, 4, `arg "axis" "int" { value = 1 }`)
	return st.text(y), st.params
}
