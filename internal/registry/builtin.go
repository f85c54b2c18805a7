package registry

import (
	"nnrt/internal/graph"

	"github.com/gomlx/exceptions"
)

func in(names ...string) []Port {
	ports := make([]Port, len(names))
	for i, name := range names {
		ports[i] = Port{Name: name}
	}
	return ports
}

func opt(name string) Port { return Port{Name: name, Optional: true} }

func arg(name string, typ ArgType, def graph.Value) ArgSpec {
	return ArgSpec{Name: name, Type: typ, Default: def}
}

// builtin mirrors the argument order of the runtime's function catalog.
func builtin() []*Op {
	x := in("x")
	y := in("y")
	return []*Op{
		{Type: "Identity", Inputs: x, Outputs: y},
		{Type: "ReLU", Snake: "relu", Inputs: x, Outputs: y},
		{Type: "LeakyReLU", Snake: "leaky_relu", Inputs: x, Outputs: y, Args: []ArgSpec{
			arg("alpha", Float, graph.Float(0.1)),
		}},
		{Type: "ELU", Inputs: x, Outputs: y, Args: []ArgSpec{
			arg("alpha", Double, graph.Float(1)),
		}},
		{Type: "Sigmoid", Inputs: x, Outputs: y},
		{Type: "Tanh", Inputs: x, Outputs: y},
		{Type: "Softmax", Inputs: x, Outputs: y, Args: []ArgSpec{
			arg("axis", Int64, nil),
		}},
		{Type: "Affine", Inputs: append(in("x", "weight"), opt("bias")), Outputs: y, Args: []ArgSpec{
			arg("base_axis", Int64, graph.Int(1)),
		}},
		{Type: "Convolution", Inputs: append(in("x", "weight"), opt("bias")), Outputs: y, Args: []ArgSpec{
			arg("base_axis", Int64, graph.Int(1)),
			arg("pad", Shape, nil),
			arg("stride", Shape, nil),
			arg("dilation", Shape, nil),
			arg("group", Int64, graph.Int(1)),
		}},
		{Type: "MaxPooling", Inputs: x, Outputs: y, Args: []ArgSpec{
			arg("kernel", Shape, nil),
			arg("stride", Shape, nil),
			arg("ignore_border", Bool, graph.Bool(true)),
			arg("pad", Shape, nil),
		}},
		{Type: "AveragePooling", Inputs: x, Outputs: y, Args: []ArgSpec{
			arg("kernel", Shape, nil),
			arg("stride", Shape, nil),
			arg("ignore_border", Bool, graph.Bool(true)),
			arg("pad", Shape, nil),
			arg("including_pad", Bool, graph.Bool(true)),
		}},
		{Type: "GlobalAveragePooling", Inputs: x, Outputs: y},
		{Type: "BatchNormalization", Inputs: in("x", "beta", "gamma", "mean", "variance"), Outputs: y, Args: []ArgSpec{
			arg("axes", Int64s, graph.Ints{1}),
			arg("decay_rate", Float, graph.Float(0.9)),
			arg("eps", Float, graph.Float(1e-5)),
			arg("batch_stat", Bool, graph.Bool(true)),
		}},
		{Type: "Reshape", Inputs: x, Outputs: y, Args: []ArgSpec{
			arg("shape", Shape, nil),
		}},
		{Type: "Transpose", Inputs: x, Outputs: y, Args: []ArgSpec{
			arg("axes", Int64s, nil),
		}},
		{Type: "Concatenate", Inputs: []Port{{Name: "x", Variadic: true}}, Outputs: y, Args: []ArgSpec{
			arg("axis", Int64, nil),
		}},
		{Type: "Add2", Snake: "add2", Inputs: in("x0", "x1"), Outputs: y},
		{Type: "Sub2", Snake: "sub2", Inputs: in("x0", "x1"), Outputs: y},
		{Type: "Mul2", Snake: "mul2", Inputs: in("x0", "x1"), Outputs: y},
		{Type: "AddScalar", Inputs: x, Outputs: y, Args: []ArgSpec{
			arg("val", Double, graph.Float(1)),
		}},
		{Type: "MulScalar", Inputs: x, Outputs: y, Args: []ArgSpec{
			arg("val", Double, graph.Float(1)),
		}},
		{Type: "Dropout", Inputs: x, Outputs: y, Args: []ArgSpec{
			arg("p", Double, graph.Float(0.5)),
			arg("seed", Int64, graph.Int(-1)),
		}},
	}
}

// Builtin returns a registry holding the operators every runtime build
// provides.
func Builtin() *Registry {
	r, err := New(builtin()...)
	if err != nil {
		exceptions.Panicf("builtin operator catalog: %+v", err)
	}
	return r
}
