package schema

import (
	"strconv"

	"nnrt/internal/compile/args"
	"nnrt/internal/compile/layout"
	"nnrt/internal/compile/plan"
	"nnrt/internal/graph"
	"nnrt/internal/registry"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Vars builds one descriptor per variable, aliasing slot i for variable i.
func Vars(net *graph.Network) []plan.VarDesc {
	vs := make([]plan.VarDesc, len(net.Variables))
	for i := range net.Variables {
		v := &net.Variables[i]
		vs[i] = plan.VarDesc{
			Slot: i,
			Name: v.Name,
			Dims: layout.Dims(v.Shape, net.BatchSize),
		}
	}
	return vs
}

// Funcs builds one descriptor per function node, in declaration order.
func Funcs(net *graph.Network, reg *registry.Registry) ([]plan.FuncDesc, error) {
	index := net.VariableIndex()
	fs := make([]plan.FuncDesc, len(net.Functions))
	for i := range net.Functions {
		fn := &net.Functions[i]
		op, err := reg.Lookup(fn.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "function %q", fn.Name)
		}
		inCap, err := inputCap(fn, op)
		if err != nil {
			return nil, err
		}
		if len(fn.Outputs) != len(op.Outputs) {
			return nil, errors.Errorf("function %q: %s produces %d outputs, graph binds %d",
				fn.Name, op.Type, len(op.Outputs), len(fn.Outputs))
		}
		cfg, err := args.Encode(fn, op)
		if err != nil {
			return nil, err
		}
		slots := func(names []string) []int {
			s := make([]int, len(names))
			for j, name := range names {
				k, ok := index[name]
				if !ok {
					exceptions.Panicf("function %q: variable %q escaped validation", fn.Name, name)
				}
				s[j] = k
			}
			return s
		}
		fs[i] = plan.FuncDesc{
			Index:     i,
			Name:      fn.Name,
			Op:        op,
			Inputs:    slots(fn.Inputs),
			Outputs:   slots(fn.Outputs),
			InputCap:  inCap,
			OutputCap: len(op.Outputs),
			Config:    cfg,
		}
		klog.V(2).Infof("function %d: %q %s inputs=%v outputs=%v", i, fn.Name, op.Type,
			fs[i].Inputs, fs[i].Outputs)
	}
	return fs, nil
}

// inputCap checks the input count against the operator's arity and
// returns the size of the input pointer array.
func inputCap(fn *graph.Function, op *registry.Op) (int, error) {
	n := len(fn.Inputs)
	min, max := op.InputRange()
	if n < min || (max >= 0 && n > max) {
		want := "at least " + strconv.Itoa(min)
		if max >= 0 && max == min {
			want = strconv.Itoa(min)
		} else if max >= 0 {
			want = strconv.Itoa(min) + " to " + strconv.Itoa(max)
		}
		return 0, errors.Errorf("function %q: %s takes %s inputs, graph binds %d",
			fn.Name, op.Type, want, n)
	}
	if max < 0 {
		return n, nil
	}
	return max, nil
}
