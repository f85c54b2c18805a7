package graph

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound is wrapped by lookups that fail to find a requested
// executor or network.
var ErrNotFound = errors.New("not found")

// Shape lists the dimensions of a tensor, outermost first. A negative
// dimension is a placeholder for the network's batch size.
type Shape []int

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, dim := range s {
		parts[i] = strconv.Itoa(dim)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

type Variable struct {
	Name  string
	Shape Shape
}

type Function struct {
	Name    string
	Type    string
	Inputs  []string
	Outputs []string
	Args    []Arg
}

// Arg returns the argument with the given name.
func (f *Function) Arg(name string) (Arg, bool) {
	for _, arg := range f.Args {
		if arg.Name == name {
			return arg, true
		}
	}
	return Arg{}, false
}

type Network struct {
	Name      string
	BatchSize int
	Variables []Variable
	Functions []Function
}

// VariableIndex maps each variable name to its position in
// n.Variables. Call Validate first; duplicate names are not detected here.
func (n *Network) VariableIndex() map[string]int {
	m := make(map[string]int, len(n.Variables))
	for i := range n.Variables {
		m[n.Variables[i].Name] = i
	}
	return m
}

// Validate reports the first structural defect in the network. A function
// that names an undeclared variable is always an error.
func (n *Network) Validate() error {
	if n.BatchSize < 1 {
		return errors.Errorf("network %q: batch size %d is not positive", n.Name, n.BatchSize)
	}
	seen := make(map[string]int, len(n.Variables))
	for i := range n.Variables {
		v := &n.Variables[i]
		if v.Name == "" {
			return errors.Errorf("network %q: variable %d has no name", n.Name, i)
		}
		if j, ok := seen[v.Name]; ok {
			return errors.Errorf("network %q: variable %q declared twice (positions %d and %d)",
				n.Name, v.Name, j, i)
		}
		seen[v.Name] = i
	}
	for i := range n.Functions {
		f := &n.Functions[i]
		check := func(what string, names []string) error {
			for j, name := range names {
				if _, ok := seen[name]; !ok {
					return errors.Errorf("network %q: function %q (%s) %s %d: undeclared variable %q",
						n.Name, f.Name, f.Type, what, j, name)
				}
			}
			return nil
		}
		if err := check("input", f.Inputs); err != nil {
			return err
		}
		if err := check("output", f.Outputs); err != nil {
			return err
		}
		args := make(map[string]bool, len(f.Args))
		for _, arg := range f.Args {
			if args[arg.Name] {
				return errors.Errorf("network %q: function %q: argument %q given twice",
					n.Name, f.Name, arg.Name)
			}
			args[arg.Name] = true
			if arg.Value == nil {
				return errors.Errorf("network %q: function %q: argument %q has no value",
					n.Name, f.Name, arg.Name)
			}
		}
	}
	return nil
}

// Executor designates which variables of a network are fed by the caller,
// read back by the caller, and loaded from trained parameters.
type Executor struct {
	Name    string
	Network string
	Inputs  []string
	Outputs []string
	Params  []string
}

type Parameter struct {
	Variable string
	Shape    Shape
	Data     []float32
}

// Model is a loaded model container. The order of Parameters is the
// parameter serialization order.
type Model struct {
	Networks   []*Network
	Executors  []*Executor
	Parameters []*Parameter
}

// Executor returns the executor with the given name, or the first
// executor when name is empty.
func (m *Model) Executor(name string) (*Executor, error) {
	if name == "" {
		if len(m.Executors) == 0 {
			return nil, errors.Wrap(ErrNotFound, "model has no executor")
		}
		return m.Executors[0], nil
	}
	for _, e := range m.Executors {
		if e.Name == name {
			return e, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "executor %q", name)
}

func (m *Model) Network(name string) (*Network, error) {
	for _, n := range m.Networks {
		if n.Name == name {
			return n, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "network %q", name)
}

// Validate checks every network and rejects a parameter table that names
// the same variable twice.
func (m *Model) Validate() error {
	names := make(map[string]bool, len(m.Networks))
	for _, n := range m.Networks {
		if names[n.Name] {
			return errors.Errorf("network %q declared twice", n.Name)
		}
		names[n.Name] = true
		if err := n.Validate(); err != nil {
			return err
		}
	}
	seen := make(map[string]bool, len(m.Parameters))
	for _, p := range m.Parameters {
		if seen[p.Variable] {
			return errors.Errorf("parameter table lists %q twice", p.Variable)
		}
		seen[p.Variable] = true
	}
	return nil
}
