package registry

import (
	"io"
	"math"

	"nnrt/internal/graph"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type yamlPort struct {
	Name     string `yaml:"name"`
	Optional bool   `yaml:"optional"`
	Variadic bool   `yaml:"variadic"`
}

type yamlArg struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Default yaml.Node `yaml:"default"`
}

type yamlOp struct {
	Name       string     `yaml:"name"`
	SnakeName  string     `yaml:"snake_name"`
	Inputs     []yamlPort `yaml:"inputs"`
	Outputs    []yamlPort `yaml:"outputs"`
	Arguments  []yamlArg  `yaml:"arguments"`
	ConfigInit string     `yaml:"config_init"`
	LocalInit  string     `yaml:"local_init"`
	Exec       string     `yaml:"exec"`
}

type yamlCatalog struct {
	Functions []yamlOp `yaml:"functions"`
}

// Load reads a YAML operator catalog:
//
//	functions:
//	  - name: Affine
//	    inputs: [{name: x}, {name: weight}, {name: bias, optional: true}]
//	    outputs: [{name: y}]
//	    arguments:
//	      - {name: base_axis, type: int64, default: 1}
//
// Arguments are kept in document order; that order is the positional order
// of the configuration initializer's parameters.
func Load(r io.Reader) (*Registry, error) {
	var cat yamlCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, errors.Wrap(err, "decoding operator catalog")
	}
	ops := make([]*Op, len(cat.Functions))
	for i := range cat.Functions {
		op, err := cat.Functions[i].op()
		if err != nil {
			return nil, errors.Wrapf(err, "operator catalog entry %d (%q)", i, cat.Functions[i].Name)
		}
		ops[i] = op
	}
	return New(ops...)
}

func (y *yamlOp) op() (*Op, error) {
	ports := func(from []yamlPort) []Port {
		to := make([]Port, len(from))
		for i, p := range from {
			to[i] = Port(p)
		}
		return to
	}
	op := &Op{
		Type:       y.Name,
		Snake:      y.SnakeName,
		Inputs:     ports(y.Inputs),
		Outputs:    ports(y.Outputs),
		ConfigInit: y.ConfigInit,
		LocalInit:  y.LocalInit,
		Exec:       y.Exec,
	}
	for _, a := range y.Arguments {
		spec := ArgSpec{Name: a.Name, Type: ArgType(a.Type)}
		if !a.Default.IsZero() {
			v, err := decodeDefault(spec.Type, &a.Default)
			if err != nil {
				return nil, errors.Wrapf(err, "argument %q default", a.Name)
			}
			spec.Default = v
		}
		op.Args = append(op.Args, spec)
	}
	return op, nil
}

func decodeDefault(t ArgType, node *yaml.Node) (graph.Value, error) {
	switch t {
	case Int64:
		var v int64
		err := node.Decode(&v)
		return graph.Int(v), err
	case Float, Double:
		var v float64
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		if t == Float && math.Abs(v) > math.MaxFloat32 && !math.IsInf(v, 0) {
			return nil, errors.Errorf("%v overflows float", v)
		}
		return graph.Float(v), nil
	case Bool:
		var v bool
		err := node.Decode(&v)
		return graph.Bool(v), err
	case Shape:
		var v []int64
		err := node.Decode(&v)
		return graph.ShapeValue(v), err
	case Int64s:
		var v []int64
		err := node.Decode(&v)
		return graph.Ints(v), err
	}
	return nil, errors.Errorf("unsupported type %q", t)
}
