package args

import (
	"math"
	"strconv"

	"nnrt/internal/compile/params"
	"nnrt/internal/compile/plan"
	"nnrt/internal/graph"
	"nnrt/internal/registry"

	"github.com/pkg/errors"
)

// Encode resolves the configuration of one function node against its
// operator's argument schema. The returned record lists fields, vectors
// and initializer arguments in schema order, whatever order the graph
// gave the arguments in. Operators without a schema yield nil.
func Encode(fn *graph.Function, op *registry.Op) (*plan.Config, error) {
	known := make(map[string]bool, len(op.Args))
	for _, spec := range op.Args {
		known[spec.Name] = true
	}
	for _, a := range fn.Args {
		if !known[a.Name] {
			return nil, errors.Errorf("function %q: operator %s has no argument %q",
				fn.Name, op.Type, a.Name)
		}
	}
	if !op.HasConfig() {
		return nil, nil
	}
	cfg := &plan.Config{Type: op.ConfigType()}
	for _, spec := range op.Args {
		v := spec.Default
		if a, ok := fn.Arg(spec.Name); ok {
			v = a.Value
		}
		if v == nil {
			return nil, errors.Errorf("function %q: argument %q is required by %s",
				fn.Name, spec.Name, op.Type)
		}
		if err := encode(cfg, spec, v); err != nil {
			return nil, errors.Wrapf(err, "function %q: argument %q", fn.Name, spec.Name)
		}
	}
	return cfg, nil
}

func encode(cfg *plan.Config, spec registry.ArgSpec, v graph.Value) error {
	want, _ := spec.Type.Kind()
	switch want {
	case graph.Scalar, graph.Boolean:
		lit, err := scalar(spec.Type, v)
		if err != nil {
			return err
		}
		cfg.Fields = append(cfg.Fields, plan.Field{
			Name: spec.Name,
			Lit:  lit,
		})
		cfg.InitArgs = append(cfg.InitArgs, plan.InitArg{
			Name:   spec.Name,
			Lit:    lit,
			Vector: -1,
		})
		return nil
	}
	var elems []int64
	switch x := v.(type) {
	case graph.ShapeValue:
		elems = x
	case graph.Ints:
		elems = x
	default:
		return errors.Errorf("%s value %s given for %s", v.Kind(), v, spec.Type)
	}
	for i, e := range elems {
		if e < math.MinInt32 || e > math.MaxInt32 {
			return errors.Errorf("element %d (%d) does not fit int", i, e)
		}
	}
	cfg.InitArgs = append(cfg.InitArgs, plan.InitArg{
		Name:   spec.Name,
		Vector: len(cfg.Vectors),
	})
	vec := plan.Vector{Name: spec.Name, Elems: make([]int64, len(elems))}
	copy(vec.Elems, elems)
	cfg.Vectors = append(cfg.Vectors, vec)
	return nil
}

func scalar(t registry.ArgType, v graph.Value) (string, error) {
	switch t {
	case registry.Bool:
		b, ok := v.(graph.Bool)
		if !ok {
			return "", errors.Errorf("%s value %s given for bool", v.Kind(), v)
		}
		if b {
			return "1", nil
		}
		return "0", nil
	case registry.Int64:
		switch x := v.(type) {
		case graph.Int:
			return integer(int64(x))
		case graph.Float:
			f := float64(x)
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return "", errors.Errorf("%v is not an int64", f)
			}
			return integer(int64(f))
		}
	case registry.Float:
		switch x := v.(type) {
		case graph.Int:
			return params.Literal(float32(x)), nil
		case graph.Float:
			return params.Literal(float32(x)), nil
		}
	case registry.Double:
		switch x := v.(type) {
		case graph.Int:
			return double(float64(x)), nil
		case graph.Float:
			return double(float64(x)), nil
		}
	}
	return "", errors.Errorf("%s value %s given for %s", v.Kind(), v, t)
}

// integer renders an int64 argument, which the runtime stores in an int.
func integer(i int64) (string, error) {
	if i < math.MinInt32 || i > math.MaxInt32 {
		return "", errors.Errorf("%d does not fit int", i)
	}
	return strconv.FormatInt(i, 10), nil
}

func double(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INFINITY"
	case math.IsInf(f, -1):
		return "-INFINITY"
	}
	return strconv.FormatFloat(f, 'e', -1, 64)
}
