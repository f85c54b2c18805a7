package layout

import (
	"nnrt/internal/compile/plan"
	"nnrt/internal/graph"

	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"
)

// Count is the element count of a tensor of the given shape, with every
// negative (batch placeholder) dimension replaced by batch. A rank 0 shape
// holds one element.
func Count(shape graph.Shape, batch int) int {
	n := 1
	for _, dim := range shape {
		if dim < 0 {
			dim = batch
		}
		n *= dim
	}
	return n
}

// Dims is shape with the batch placeholder substituted.
func Dims(shape graph.Shape, batch int) []int {
	dims := make([]int, len(shape))
	for i, dim := range shape {
		if dim < 0 {
			dim = batch
		}
		dims[i] = dim
	}
	return dims
}

// Plan assigns one slot per variable, index-aligned with net.Variables.
// paramIndex maps a parameter variable's name to its position in
// parameter serialization order.
func Plan(net *graph.Network, roles []graph.Role, paramIndex map[string]int) plan.Layout {
	if len(roles) != len(net.Variables) {
		exceptions.Panicf("layout: %d roles for %d variables", len(roles), len(net.Variables))
	}
	slots := make([]plan.Slot, len(net.Variables))
	for i := range net.Variables {
		v := &net.Variables[i]
		param := -1
		if k, ok := paramIndex[v.Name]; ok {
			param = k
		}
		slots[i] = plan.Slot{
			Index:    i,
			Variable: v.Name,
			Count:    Count(v.Shape, net.BatchSize),
			Role:     roles[i],
			Param:    param,
		}
		if klog.V(2).Enabled() {
			klog.Infof("slot %d: %q %s count=%d role=%s param=%d",
				i, v.Name, v.Shape, slots[i].Count, roles[i], param)
		}
	}
	return plan.Layout{Slots: slots}
}
