package params

import (
	"math"
	"strconv"

	"nnrt/internal/compile/layout"
	"nnrt/internal/compile/plan"
	"nnrt/internal/graph"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Emit selects the parameter-table entries that belong to net, keeping
// table order. That order is the parameter serialization order used by the
// pointer table, the caller-supplied array and the parameter accessor.
func Emit(net *graph.Network, exec *graph.Executor, table []*graph.Parameter) ([]plan.Param, error) {
	index := net.VariableIndex()
	var ps []plan.Param
	have := make(map[string]bool, len(table))
	for _, p := range table {
		slot, ok := index[p.Variable]
		if !ok {
			klog.Warningf("parameter %q is not a variable of network %q; not embedded", p.Variable, net.Name)
			continue
		}
		count := layout.Count(p.Shape, 1)
		if count != len(p.Data) {
			return nil, errors.Errorf("parameter %q: shape %s holds %d values, table has %d",
				p.Variable, p.Shape, count, len(p.Data))
		}
		if want := layout.Count(net.Variables[slot].Shape, net.BatchSize); want != count {
			return nil, errors.Errorf("parameter %q: %d values for a variable of %d elements",
				p.Variable, count, want)
		}
		have[p.Variable] = true
		ps = append(ps, plan.Param{
			Index:    len(ps),
			Variable: p.Variable,
			Shape:    p.Shape,
			Count:    count,
			Data:     p.Data,
			Slot:     slot,
		})
	}
	for _, name := range exec.Params {
		if !have[name] {
			return nil, errors.Errorf("executor %q binds parameter %q but the parameter table has no values for it",
				exec.Name, name)
		}
	}
	return ps, nil
}

// Index maps each parameter's variable name to its serialization index.
func Index(ps []plan.Param) map[string]int {
	m := make(map[string]int, len(ps))
	for i := range ps {
		m[ps[i].Variable] = ps[i].Index
	}
	return m
}

// Bytes is the total size of the embedded parameter data.
func Bytes(ps []plan.Param) uint64 {
	var n uint64
	for i := range ps {
		n += uint64(len(ps[i].Data)) * 4
	}
	return n
}

// Literal renders f as C source that evaluates to exactly f. Finite values
// use the shortest decimal that parses back to the same float32.
func Literal(f float32) string {
	switch {
	case math.IsNaN(float64(f)):
		return "NAN"
	case math.IsInf(float64(f), 1):
		return "INFINITY"
	case math.IsInf(float64(f), -1):
		return "-INFINITY"
	}
	return strconv.FormatFloat(float64(f), 'e', -1, 32) + "f"
}
