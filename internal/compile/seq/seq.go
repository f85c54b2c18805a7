package seq

import "nnrt/internal/compile/plan"

// Sequence emits one executor call per function node in declaration
// order. Data-flow order is trusted as given.
func Sequence(funcs []plan.FuncDesc) []plan.Call {
	calls := make([]plan.Call, len(funcs))
	for i := range funcs {
		calls[i] = plan.Call{
			Func: funcs[i].Index,
			Hook: funcs[i].Op.Exec,
		}
	}
	return calls
}
