package plan

import (
	"nnrt/internal/graph"
	"nnrt/internal/registry"
)

type Provenance int

const (
	HeapAllocated Provenance = iota
	CallerSupplied
)

var provenanceStrings = [...]string{
	HeapAllocated:  "heap",
	CallerSupplied: "caller",
}

func (p Provenance) String() string { return provenanceStrings[p] }

// Slot is the buffer assigned to one variable. Param is the variable's
// index in parameter serialization order, or -1.
type Slot struct {
	Index    int
	Variable string
	Count    int
	Role     graph.Role
	Param    int
}

type Layout struct {
	Slots []Slot
}

// Provenance returns the provenance of every slot when the context is
// constructed with (supplied) or without a caller parameter array.
func (l *Layout) Provenance(supplied bool) []Provenance {
	ps := make([]Provenance, len(l.Slots))
	if supplied {
		for i := range l.Slots {
			if l.Slots[i].Param >= 0 {
				ps[i] = CallerSupplied
			}
		}
	}
	return ps
}

type Param struct {
	Index    int
	Variable string
	Shape    graph.Shape
	Count    int
	Data     []float32
	Slot     int
}

// VarDesc is the runtime descriptor of one variable.
type VarDesc struct {
	Slot int
	Name string
	Dims []int
}

// Field is one scalar member of a configuration record.
type Field struct {
	Name string
	Lit  string
}

// Vector is the inline storage of one vector-typed argument.
type Vector struct {
	Name  string
	Elems []int64
}

// InitArg is one positional argument of a configuration initializer call:
// either a literal (Lit) or the list descriptor of Vector.
type InitArg struct {
	Name   string
	Lit    string
	Vector int
}

type Config struct {
	Type     string
	Fields   []Field
	Vectors  []Vector
	InitArgs []InitArg
}

// FuncDesc is the runtime descriptor of one function node. Inputs and
// Outputs hold slot indices; -1 marks an omitted optional input.
type FuncDesc struct {
	Index     int
	Name      string
	Op        *registry.Op
	Inputs    []int
	Outputs   []int
	InputCap  int
	OutputCap int
	Config    *Config
}

// Call is one entry of the execution sequence.
type Call struct {
	Func int
	Hook string
}

type Plan struct {
	Name      string
	Prefix    string
	BatchSize int
	Layout    Layout
	Params    []Param
	Vars      []VarDesc
	Funcs     []FuncDesc
	Seq       []Call
	Inputs    []int
	Outputs   []int
}
