package load

import (
	"math/big"
	"os"

	"nnrt/internal/graph"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"k8s.io/klog/v2"
)

type hclFile struct {
	Networks   []*hclNetwork   `hcl:"network,block"`
	Executors  []*hclExecutor  `hcl:"executor,block"`
	Parameters []*hclParameter `hcl:"parameter,block"`
}

type hclNetwork struct {
	Name      string         `hcl:"name,label"`
	BatchSize *int           `hcl:"batch_size,optional"`
	Variables []*hclVariable `hcl:"variable,block"`
	Functions []*hclFunction `hcl:"function,block"`
}

type hclVariable struct {
	Name  string `hcl:"name,label"`
	Shape []int  `hcl:"shape"`
}

type hclFunction struct {
	Name    string    `hcl:"name,label"`
	Type    string    `hcl:"type"`
	Inputs  []string  `hcl:"inputs,optional"`
	Outputs []string  `hcl:"outputs"`
	Args    []*hclArg `hcl:"arg,block"`
}

// hclArg is `arg "<name>" "<kind>" { value = ... }` where kind is one of
// int, float, bool, shape or ints.
type hclArg struct {
	Name  string         `hcl:"name,label"`
	Kind  string         `hcl:"kind,label"`
	Value hcl.Expression `hcl:"value,attr"`
}

type hclExecutor struct {
	Name    string   `hcl:"name,label"`
	Network string   `hcl:"network"`
	Inputs  []string `hcl:"inputs"`
	Outputs []string `hcl:"outputs"`
	Params  []string `hcl:"params,optional"`
}

type hclParameter struct {
	Variable string         `hcl:"variable,label"`
	Shape    []int          `hcl:"shape"`
	Data     hcl.Expression `hcl:"data,attr"`
}

// File reads an HCL model file.
func File(path string) (*graph.Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading model %q", path)
	}
	return Model(src, path)
}

// Model decodes an HCL model. filename is used in diagnostics only.
func Model(src []byte, filename string) (*graph.Model, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "parsing model %q", filename)
	}
	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, errors.Wrapf(diags, "decoding model %q", filename)
	}
	m := &graph.Model{}
	for _, n := range parsed.Networks {
		net, err := network(n)
		if err != nil {
			return nil, errors.WithMessagef(err, "model %q", filename)
		}
		m.Networks = append(m.Networks, net)
	}
	for _, e := range parsed.Executors {
		m.Executors = append(m.Executors, &graph.Executor{
			Name:    e.Name,
			Network: e.Network,
			Inputs:  e.Inputs,
			Outputs: e.Outputs,
			Params:  e.Params,
		})
	}
	for _, p := range parsed.Parameters {
		data, err := floats(p.Data)
		if err != nil {
			return nil, errors.WithMessagef(err, "model %q: parameter %q", filename, p.Variable)
		}
		m.Parameters = append(m.Parameters, &graph.Parameter{
			Variable: p.Variable,
			Shape:    graph.Shape(p.Shape),
			Data:     data,
		})
	}
	klog.V(1).Infof("loaded %q: %d networks, %d executors, %d parameters",
		filename, len(m.Networks), len(m.Executors), len(m.Parameters))
	return m, nil
}

func network(n *hclNetwork) (*graph.Network, error) {
	net := &graph.Network{Name: n.Name, BatchSize: 1}
	if n.BatchSize != nil {
		net.BatchSize = *n.BatchSize
	}
	for _, v := range n.Variables {
		net.Variables = append(net.Variables, graph.Variable{
			Name:  v.Name,
			Shape: graph.Shape(v.Shape),
		})
	}
	for _, f := range n.Functions {
		fn := graph.Function{
			Name:    f.Name,
			Type:    f.Type,
			Inputs:  f.Inputs,
			Outputs: f.Outputs,
		}
		for _, a := range f.Args {
			v, err := argValue(a)
			if err != nil {
				return nil, errors.WithMessagef(err, "network %q: function %q: argument %q",
					n.Name, f.Name, a.Name)
			}
			fn.Args = append(fn.Args, graph.Arg{Name: a.Name, Value: v})
		}
		net.Functions = append(net.Functions, fn)
	}
	return net, nil
}

func eval(expr hcl.Expression) (cty.Value, error) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	if v.IsNull() || !v.IsWhollyKnown() {
		return cty.NilVal, errors.New("value is null or unknown")
	}
	return v, nil
}

func number(v cty.Value) (*big.Float, error) {
	if !v.Type().Equals(cty.Number) {
		return nil, errors.Errorf("%s is not a number", v.Type().FriendlyName())
	}
	return v.AsBigFloat(), nil
}

func integer(v cty.Value) (int64, error) {
	f, err := number(v)
	if err != nil {
		return 0, err
	}
	i, acc := f.Int64()
	if acc != big.Exact {
		return 0, errors.Errorf("%s is not an int64", f.Text('g', -1))
	}
	return i, nil
}

func elements(v cty.Value) ([]cty.Value, error) {
	t := v.Type()
	if !t.IsTupleType() && !t.IsListType() {
		return nil, errors.Errorf("%s is not a list", t.FriendlyName())
	}
	return v.AsValueSlice(), nil
}

func integers(v cty.Value) ([]int64, error) {
	elems, err := elements(v)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(elems))
	for i, e := range elems {
		if out[i], err = integer(e); err != nil {
			return nil, errors.WithMessagef(err, "element %d", i)
		}
	}
	return out, nil
}

func argValue(a *hclArg) (graph.Value, error) {
	v, err := eval(a.Value)
	if err != nil {
		return nil, err
	}
	switch a.Kind {
	case "int":
		i, err := integer(v)
		return graph.Int(i), err
	case "float":
		f, err := number(v)
		if err != nil {
			return nil, err
		}
		x, _ := f.Float64()
		return graph.Float(x), nil
	case "bool":
		if !v.Type().Equals(cty.Bool) {
			return nil, errors.Errorf("%s is not a bool", v.Type().FriendlyName())
		}
		return graph.Bool(v.True()), nil
	case "shape":
		is, err := integers(v)
		return graph.ShapeValue(is), err
	case "ints":
		is, err := integers(v)
		return graph.Ints(is), err
	}
	return nil, errors.Errorf("unknown argument kind %q (want int, float, bool, shape or ints)", a.Kind)
}

// floats rounds every number of a list expression to the nearest float32
// straight from its decimal text.
func floats(expr hcl.Expression) ([]float32, error) {
	v, err := eval(expr)
	if err != nil {
		return nil, err
	}
	elems, err := elements(v)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(elems))
	for i, e := range elems {
		f, err := number(e)
		if err != nil {
			return nil, errors.WithMessagef(err, "element %d", i)
		}
		out[i], _ = f.Float32()
	}
	return out, nil
}
