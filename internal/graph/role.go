package graph

import "github.com/pkg/errors"

type Role int

const (
	Intermediate Role = iota
	Input
	Output
	Param
)

var roleStrings = [...]string{
	Intermediate: "intermediate",
	Input:        "input",
	Output:       "output",
	Param:        "parameter",
}

func (r Role) String() string { return roleStrings[r] }

// Roles derives the role of every variable of net, index-aligned with
// net.Variables. Parameter membership (in the table or in the executor's
// parameter binding) wins over the input/output bindings.
func Roles(net *Network, exec *Executor, params []*Parameter) ([]Role, error) {
	index := net.VariableIndex()
	roles := make([]Role, len(net.Variables))
	bind := func(what string, names []string, role Role) error {
		for i, name := range names {
			j, ok := index[name]
			if !ok {
				return errors.Errorf("executor %q: %s %d: network %q has no variable %q",
					exec.Name, what, i, net.Name, name)
			}
			if roles[j] != Param {
				roles[j] = role
			}
		}
		return nil
	}
	if err := bind("input", exec.Inputs, Input); err != nil {
		return nil, err
	}
	if err := bind("output", exec.Outputs, Output); err != nil {
		return nil, err
	}
	if err := bind("parameter", exec.Params, Param); err != nil {
		return nil, err
	}
	for _, p := range params {
		if j, ok := index[p.Variable]; ok {
			roles[j] = Param
		}
	}
	return roles, nil
}
