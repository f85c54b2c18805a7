package registry

import (
	"sort"
	"strings"
	"unicode"

	"nnrt/internal/graph"

	"github.com/pkg/errors"
)

// ArgType names an argument type the way the runtime's function catalog
// does.
type ArgType string

const (
	Int64  ArgType = "int64"
	Float  ArgType = "float"
	Double ArgType = "double"
	Bool   ArgType = "bool"
	Shape  ArgType = "Shape"
	Int64s ArgType = "repeated int64"
)

// Kind maps an argument type to the graph value kind it accepts.
func (t ArgType) Kind() (graph.Kind, bool) {
	switch t {
	case Int64, Float, Double:
		return graph.Scalar, true
	case Bool:
		return graph.Boolean, true
	case Shape:
		return graph.ShapeVector, true
	case Int64s:
		return graph.IntegerList, true
	}
	return 0, false
}

type Port struct {
	Name     string
	Optional bool
	Variadic bool
}

type ArgSpec struct {
	Name    string
	Type    ArgType
	Default graph.Value
}

// Op describes one operator type: its ports, the ordered schema of its
// configuration arguments and the names of its runtime hooks.
type Op struct {
	Type       string
	Snake      string
	Inputs     []Port
	Outputs    []Port
	Args       []ArgSpec
	ConfigInit string
	LocalInit  string
	Exec       string
}

// HasConfig reports whether instances of the operator carry a
// configuration record.
func (o *Op) HasConfig() bool { return len(o.Args) != 0 }

func (o *Op) ConfigType() string { return o.Snake + "_config_t" }

// InputRange returns the smallest and largest accepted input count;
// max is -1 when the last input is variadic.
func (o *Op) InputRange() (min, max int) {
	for _, p := range o.Inputs {
		switch {
		case p.Variadic:
			return min + 1, -1
		case !p.Optional:
			min++
		}
	}
	return min, len(o.Inputs)
}

func (o *Op) Variadic() bool {
	n := len(o.Inputs)
	return n != 0 && o.Inputs[n-1].Variadic
}

// Registry is an immutable catalog of operator types. Build one with New
// and pass it to every component that needs operator contracts.
type Registry struct {
	ops   map[string]*Op
	types []string
}

// New validates ops and fills in default snake-case and hook names.
func New(ops ...*Op) (*Registry, error) {
	r := &Registry{ops: make(map[string]*Op, len(ops))}
	for _, op := range ops {
		if op.Type == "" {
			return nil, errors.New("operator with empty type")
		}
		if _, ok := r.ops[op.Type]; ok {
			return nil, errors.Errorf("operator %q registered twice", op.Type)
		}
		if err := fill(op); err != nil {
			return nil, errors.Wrapf(err, "operator %q", op.Type)
		}
		r.ops[op.Type] = op
		r.types = append(r.types, op.Type)
	}
	sort.Strings(r.types)
	return r, nil
}

func fill(op *Op) error {
	if op.Snake == "" {
		op.Snake = Snake(op.Type)
	}
	if op.HasConfig() && op.ConfigInit == "" {
		op.ConfigInit = "init_" + op.Snake + "_config"
	}
	if op.LocalInit == "" {
		op.LocalInit = "init_" + op.Snake + "_local_context"
	}
	if op.Exec == "" {
		op.Exec = "exec_" + op.Snake
	}
	for _, name := range [...]string{op.Snake, op.ConfigInit, op.LocalInit, op.Exec} {
		if name != "" && !ident(name) {
			return errors.Errorf("%q is not a C identifier", name)
		}
	}
	for i, p := range op.Inputs {
		if p.Variadic && i != len(op.Inputs)-1 {
			return errors.Errorf("input %q: only the last input may be variadic", p.Name)
		}
	}
	for _, p := range op.Outputs {
		if p.Optional || p.Variadic {
			return errors.Errorf("output %q: outputs are fixed", p.Name)
		}
	}
	seen := make(map[string]bool, len(op.Args))
	for _, a := range op.Args {
		if seen[a.Name] {
			return errors.Errorf("argument %q declared twice", a.Name)
		}
		seen[a.Name] = true
		if !ident(a.Name) {
			return errors.Errorf("argument %q is not a C identifier", a.Name)
		}
		kind, ok := a.Type.Kind()
		if !ok {
			return errors.Errorf("argument %q: unsupported type %q", a.Name, a.Type)
		}
		if a.Default != nil && !accepts(a.Type, kind, a.Default) {
			return errors.Errorf("argument %q: default %s does not fit type %q",
				a.Name, a.Default, a.Type)
		}
	}
	return nil
}

func accepts(t ArgType, kind graph.Kind, v graph.Value) bool {
	if t == Int64 {
		_, ok := v.(graph.Int)
		return ok
	}
	switch kind {
	case graph.ShapeVector, graph.IntegerList:
		k := v.Kind()
		return k == graph.ShapeVector || k == graph.IntegerList
	}
	return v.Kind() == kind
}

// Lookup returns the contract of an operator type.
func (r *Registry) Lookup(typ string) (*Op, error) {
	if op, ok := r.ops[typ]; ok {
		return op, nil
	}
	return nil, errors.Errorf("operator type %q is not in the registry", typ)
}

// Types lists the registered operator types in sorted order.
func (r *Registry) Types() []string {
	return append([]string(nil), r.types...)
}

// Snake converts a CamelCase operator type to snake_case, keeping runs of
// capitals together (BatchNormalization -> batch_normalization,
// ELU -> elu). Catalog entries whose runtime name differs set Op.Snake.
func Snake(name string) string {
	rs := []rune(name)
	var b strings.Builder
	for i, r := range rs {
		if unicode.IsUpper(r) && i != 0 {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func ident(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
