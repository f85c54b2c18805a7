package net

import (
	"strconv"
	"strings"

	"nnrt/internal/compile/author/cgen"
	"nnrt/internal/compile/plan"
	"nnrt/internal/nmsrc"

	"github.com/gomlx/exceptions"
)

const (
	allocateType = "rt_buffer_allocate_type_t"
	typeMalloc   = "RT_BUFFER_ALLOCATE_TYPE_MALLOC"
	typeCaller   = "RT_BUFFER_ALLOCATE_TYPE_ALLOCATED"
	buffers      = "variable_buffers"
	buffersType  = "variable_buffers_allocate_type"
	dataType     = "NN_DATA_TYPE_FLOAT"
)

func vb(s string) cgen.Gen {
	return cgen.Vb(s)
}

func il(i int) cgen.Gen {
	return cgen.IntLit(i)
}

func atLeast1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

type Ctx struct {
	pl           *plan.Plan
	nms          nmsrc.Src
	Macro        string
	StructName   string
	AllocateName string
	FreeName     string
	InputName    string
	OutputName   string
	ParamName    string
}

func NewCtx(pl *plan.Plan, nms nmsrc.Src) *Ctx {
	return &Ctx{
		pl:           pl,
		nms:          nms,
		Macro:        strings.ToUpper(pl.Prefix),
		StructName:   pl.Prefix + "_local_context_t",
		AllocateName: pl.Prefix + "_allocate_context",
		FreeName:     pl.Prefix + "_free_context",
		InputName:    pl.Prefix + "_input_buffer",
		OutputName:   pl.Prefix + "_output_buffer",
		ParamName:    pl.Prefix + "_param_buffer",
	}
}

func (c *Ctx) InputSize(i int) string {
	return c.Macro + "_INPUT" + strconv.Itoa(i) + "_SIZE"
}

func (c *Ctx) OutputSize(i int) string {
	return c.Macro + "_OUTPUT" + strconv.Itoa(i) + "_SIZE"
}

func (c *Ctx) ParamSize(i int) string {
	return c.Macro + "_PARAM" + strconv.Itoa(i) + "_SIZE"
}

func (c *Ctx) NumInputs() string  { return c.Macro + "_NUM_OF_INPUT_BUFFERS" }
func (c *Ctx) NumOutputs() string { return c.Macro + "_NUM_OF_OUTPUT_BUFFERS" }
func (c *Ctx) NumParams() string  { return c.Macro + "_NUM_OF_PARAM_BUFFERS" }

func (c *Ctx) InputDefs() cgen.Gen {
	gs := cgen.Gens{
		cgen.Comment{"Number of input buffers and the float count of each."},
		cgen.Define{Name: c.NumInputs(), Value: il(len(c.pl.Inputs))},
	}
	for i, slot := range c.pl.Inputs {
		gs = append(gs, cgen.Define{
			Name:  c.InputSize(i),
			Value: il(c.pl.Layout.Slots[slot].Count),
		})
	}
	return gs
}

func (c *Ctx) OutputDefs() cgen.Gen {
	gs := cgen.Gens{
		cgen.Comment{"Number of output buffers and the float count of each."},
		cgen.Define{Name: c.NumOutputs(), Value: il(len(c.pl.Outputs))},
	}
	for i, slot := range c.pl.Outputs {
		gs = append(gs, cgen.Define{
			Name:  c.OutputSize(i),
			Value: il(c.pl.Layout.Slots[slot].Count),
		})
	}
	return gs
}

// ParamDefs is nil when no parameters are embedded.
func (c *Ctx) ParamDefs() cgen.Gen {
	if len(c.pl.Params) == 0 {
		return nil
	}
	gs := cgen.Gens{
		cgen.Comment{"Number of parameter buffers and the float count of each."},
		cgen.Define{Name: c.NumParams(), Value: il(len(c.pl.Params))},
	}
	for i := range c.pl.Params {
		gs = append(gs, cgen.Define{
			Name:  c.ParamSize(i),
			Value: il(c.pl.Params[i].Count),
		})
	}
	return gs
}

func (c *Ctx) Comment() cgen.Gen {
	const indent = "    "
	lines := cgen.Comment{
		`A context owns every buffer and descriptor of one inference instance.`,
	}
	if len(c.pl.Params) == 0 {
		lines = append(lines, `The network has no parameters; params is ignored:`)
	} else {
		lines = append(lines,
			`Pass null to heap-allocate all buffers (parameters start zeroed and`,
			`are filled through ` + c.ParamName + `), or pass an array of`,
			`parameter pointers to run on caller storage in place:`,
		)
	}
	lines = append(lines,
		``,
		indent + `void* ctx = ` + c.AllocateName + `(params);`,
		indent + `... fill ` + c.InputName + `(ctx, i) ...`,
		indent + c.pl.Prefix + `_inference(ctx);`,
		indent + `... read ` + c.OutputName + `(ctx, i) ...`,
		indent + c.FreeName + `(ctx);`,
		``,
		`Caller storage is never freed by ` + c.FreeName + `.`,
	)
	return lines
}

func (c *Ctx) Decls() cgen.Gen {
	accessor := func(name string) cgen.Gen {
		return cgen.FuncDecl{
			ReturnType: cgen.PtrFloat,
			Name:       name,
			Params: cgen.CommaSpaced{
				cgen.Param{Type: cgen.PtrVoid, What: vb("context")},
				cgen.Param{Type: cgen.Int, What: vb("index")},
			},
		}
	}
	gs := cgen.Gens{
		cgen.FuncDecl{
			ReturnType: cgen.PtrVoid,
			Name:       c.AllocateName,
			Params:     cgen.Param{Type: cgen.PtrPtrVoid, What: vb("params")},
		},
		cgen.FuncDecl{
			ReturnType: cgen.Int,
			Name:       c.FreeName,
			Params:     cgen.Param{Type: cgen.PtrVoid, What: vb("context")},
		},
		accessor(c.InputName),
		accessor(c.OutputName),
	}
	if len(c.pl.Params) != 0 {
		gs = append(gs, accessor(c.ParamName))
	}
	return gs
}

func (c *Ctx) Types() cgen.Gen {
	return cgen.TypedefEnum{
		Name: allocateType,
		Values: []cgen.Gen{
			cgen.Assign{Expr1: vb(typeMalloc), Expr2: cgen.Zero},
			vb(typeCaller),
		},
	}
}

func varName(slot int) string {
	return "v" + strconv.Itoa(slot)
}

func funcName(i int) string {
	return "f" + strconv.Itoa(i)
}

func field(t cgen.Gen, name string, n int) cgen.Gen {
	return cgen.Field{
		Type: t,
		What: cgen.Elem{Arr: vb(name), Idx: il(n)},
	}
}

func (c *Ctx) StructDef() cgen.Gen {
	var (
		pl     = c.pl
		n      = atLeast1(len(pl.Layout.Slots))
		fields = cgen.Stmts{
			field(cgen.PtrFloat, buffers, n),
			field(vb(allocateType), buffersType, n),
			cgen.Newline,
		}
	)
	for i := range pl.Vars {
		v := &pl.Vars[i]
		name := varName(v.Slot)
		fields = append(fields,
			cgen.Comment{v.Name},
			cgen.Field{Type: vb("rt_variable_t"), What: vb(name)},
			field(cgen.Int, name+"_shape", atLeast1(len(v.Dims))),
		)
	}
	for i := range pl.Funcs {
		f := &pl.Funcs[i]
		name := funcName(f.Index)
		fields = append(fields,
			cgen.Newline,
			cgen.Comment{f.Name + " " + f.Op.Type},
			cgen.Field{Type: vb("rt_function_t"), What: vb(name)},
			field(cgen.Ptr{Type: vb("rt_variable_t")}, name+"_input", atLeast1(f.InputCap)),
			field(cgen.Ptr{Type: vb("rt_variable_t")}, name+"_output", atLeast1(f.OutputCap)),
		)
		if f.Config == nil {
			continue
		}
		fields = append(fields, cgen.Field{Type: vb(f.Config.Type), What: vb(name + "_config")})
		for _, vec := range f.Config.Vectors {
			fields = append(fields, field(cgen.Int, name+"_config_shape_"+vec.Name, atLeast1(len(vec.Elems))))
		}
	}
	return cgen.TypedefStruct{Name: c.StructName, Fields: fields}
}

func (c *Ctx) cast(what cgen.Gen) cgen.Gen {
	return cgen.Cast{Type: cgen.Ptr{Type: vb(c.StructName)}, Expr: what}
}

func buffer(ctx cgen.Gen, slot int) cgen.Gen {
	return cgen.Elem{Arr: cgen.Arrow{Expr: ctx, Name: buffers}, Idx: il(slot)}
}

func bufferType(ctx cgen.Gen, slot int) cgen.Gen {
	return cgen.Elem{Arr: cgen.Arrow{Expr: ctx, Name: buffersType}, Idx: il(slot)}
}

func (c *Ctx) slots(ctx, params cgen.Gen, supplied bool) cgen.Stmts {
	var (
		slots = c.pl.Layout.Slots
		prov  = c.pl.Layout.Provenance(supplied)
		stmts = make(cgen.Stmts, 0, len(slots)*2)
	)
	for i := range slots {
		s := &slots[i]
		switch prov[i] {
		case plan.HeapAllocated:
			stmts = append(stmts,
				cgen.Assign{Expr1: bufferType(ctx, s.Index), Expr2: vb(typeMalloc)},
				cgen.Assign{
					Expr1: buffer(ctx, s.Index),
					Expr2: cgen.Cast{
						Type: cgen.PtrFloat,
						Expr: cgen.Call{
							Func: cgen.Calloc,
							Args: cgen.CommaSpaced{
								cgen.Sizeof{What: cgen.Float},
								il(atLeast1(s.Count)),
							},
						},
					},
				},
			)
		case plan.CallerSupplied:
			stmts = append(stmts,
				cgen.Assign{Expr1: bufferType(ctx, s.Index), Expr2: vb(typeCaller)},
				cgen.Assign{
					Expr1: buffer(ctx, s.Index),
					Expr2: cgen.Cast{
						Type: cgen.PtrFloat,
						Expr: cgen.Elem{Arr: params, Idx: il(s.Param)},
					},
				},
			)
		}
	}
	return stmts
}

func (c *Ctx) vars(ctx cgen.Gen) cgen.Stmts {
	var stmts cgen.Stmts
	for i := range c.pl.Vars {
		v := &c.pl.Vars[i]
		name := varName(v.Slot)
		desc := cgen.Arrow{Expr: ctx, Name: name}
		shape := cgen.Arrow{Expr: ctx, Name: name + "_shape"}
		stmts = append(stmts,
			cgen.Assign{Expr1: cgen.Dot{Expr: desc, Name: "type"}, Expr2: vb(dataType)},
			cgen.Assign{Expr1: cgen.Dot{Expr: desc, Name: "shape.size"}, Expr2: il(len(v.Dims))},
			cgen.Assign{Expr1: cgen.Dot{Expr: desc, Name: "shape.data"}, Expr2: shape},
		)
		for j, dim := range v.Dims {
			stmts = append(stmts, cgen.Assign{
				Expr1: cgen.Elem{Arr: shape, Idx: il(j)},
				Expr2: il(dim),
			})
		}
		stmts = append(stmts, cgen.Assign{
			Expr1: cgen.Dot{Expr: desc, Name: "data"},
			Expr2: buffer(ctx, v.Slot),
		})
	}
	return stmts
}

func (c *Ctx) funcs(ctx cgen.Gen) cgen.Stmts {
	var stmts cgen.Stmts
	bind := func(arr cgen.Gen, slots []int) {
		for j, slot := range slots {
			if slot < 0 {
				continue
			}
			stmts = append(stmts, cgen.Assign{
				Expr1: cgen.Elem{Arr: arr, Idx: il(j)},
				Expr2: cgen.AddrArrow{Expr: ctx, Name: varName(slot)},
			})
		}
	}
	for i := range c.pl.Funcs {
		f := &c.pl.Funcs[i]
		name := funcName(f.Index)
		desc := cgen.Arrow{Expr: ctx, Name: name}
		in := cgen.Arrow{Expr: ctx, Name: name + "_input"}
		out := cgen.Arrow{Expr: ctx, Name: name + "_output"}
		stmts = append(stmts,
			cgen.Comment{f.Name},
			cgen.Assign{Expr1: cgen.Dot{Expr: desc, Name: "num_of_inputs"}, Expr2: il(len(f.Inputs))},
			cgen.Assign{Expr1: cgen.Dot{Expr: desc, Name: "inputs"}, Expr2: in},
		)
		bind(in, f.Inputs)
		stmts = append(stmts,
			cgen.Assign{Expr1: cgen.Dot{Expr: desc, Name: "num_of_outputs"}, Expr2: il(len(f.Outputs))},
			cgen.Assign{Expr1: cgen.Dot{Expr: desc, Name: "outputs"}, Expr2: out},
		)
		bind(out, f.Outputs)
		if cfg := f.Config; cfg != nil {
			config := cgen.Arrow{Expr: ctx, Name: name + "_config"}
			stmts = append(stmts, cgen.Assign{
				Expr1: cgen.Dot{Expr: desc, Name: "config"},
				Expr2: cgen.Addr{Expr: config},
			})
			// Record members and initializer arguments both follow the
			// argument schema order.
			args := cgen.CommaSpaced{cgen.Addr{Expr: config}}
			fields := cfg.Fields
			for _, a := range cfg.InitArgs {
				if a.Vector < 0 {
					if len(fields) == 0 || fields[0].Name != a.Name {
						exceptions.Panicf("function %q: no record field for argument %q", f.Name, a.Name)
					}
					fld := fields[0]
					fields = fields[1:]
					stmts = append(stmts, cgen.Assign{
						Expr1: cgen.Dot{Expr: config, Name: fld.Name},
						Expr2: vb(fld.Lit),
					})
					args = append(args, vb(fld.Lit))
					continue
				}
				vec := &cfg.Vectors[a.Vector]
				list := vb("arg_" + name + "_" + vec.Name)
				storage := cgen.Arrow{Expr: ctx, Name: name + "_config_shape_" + vec.Name}
				stmts = append(stmts,
					cgen.Var{Type: vb("rt_list_t"), What: list},
					cgen.Assign{Expr1: cgen.Dot{Expr: list, Name: "size"}, Expr2: il(len(vec.Elems))},
					cgen.Assign{Expr1: cgen.Dot{Expr: list, Name: "data"}, Expr2: storage},
				)
				for k, e := range vec.Elems {
					stmts = append(stmts, cgen.Assign{
						Expr1: cgen.Elem{Arr: storage, Idx: il(k)},
						Expr2: cgen.Int64Lit(e),
					})
				}
				args = append(args, list)
			}
			stmts = append(stmts, cgen.Call{Func: vb(f.Op.ConfigInit), Args: args})
		}
		stmts = append(stmts, cgen.Call{
			Func: vb(f.Op.LocalInit),
			Args: cgen.Addr{Expr: desc},
		})
	}
	return stmts
}

// AllocateDef builds the context constructor. Slots whose variable is a
// parameter take the caller's pointer when params is non-null; every other
// slot is zero-filled heap storage.
func (c *Ctx) AllocateDef() cgen.Gen {
	var (
		ctx    = vb(c.nms.Name("ctx"))
		params = vb("params")
		body   = cgen.Stmts{
			cgen.Var{
				Type: cgen.Ptr{Type: vb(c.StructName)},
				What: ctx,
				Init: c.cast(cgen.Call{
					Func: cgen.Calloc,
					Args: cgen.CommaSpaced{cgen.One, cgen.Sizeof{What: vb(c.StructName)}},
				}),
			},
			cgen.If{Cond: cgen.IsZero{Expr: ctx}, Then: cgen.Stmts{cgen.Return{Expr: cgen.Zero}}},
		}
	)
	if len(c.pl.Params) == 0 {
		body = append(body, cgen.Cast{Type: cgen.Void, Expr: params})
		body = append(body, c.slots(ctx, params, false)...)
	} else {
		body = append(body, cgen.If{
			Cond: params,
			Then: c.slots(ctx, params, true),
			Else: c.slots(ctx, params, false),
		})
	}
	body = append(body, c.vars(ctx)...)
	body = append(body, c.funcs(ctx)...)
	body = append(body, cgen.Return{Expr: ctx})
	return cgen.FuncDef{
		ReturnType: cgen.PtrVoid,
		Name:       c.AllocateName,
		Params:     cgen.Param{Type: cgen.PtrPtrVoid, What: params},
		Body:       body,
	}
}

// FreeDef releases the heap-allocated slots, then the context itself.
func (c *Ctx) FreeDef() cgen.Gen {
	var (
		context = vb("context")
		ctx     = vb(c.nms.Name("ctx"))
		body    = cgen.Stmts{
			cgen.Var{Type: cgen.Ptr{Type: vb(c.StructName)}, What: ctx, Init: c.cast(context)},
		}
	)
	for i := range c.pl.Layout.Slots {
		body = append(body, cgen.If{
			Cond: cgen.CmpE{Expr1: bufferType(ctx, i), Expr2: vb(typeMalloc)},
			Then: cgen.Stmts{cgen.Call{Func: cgen.Free, Args: buffer(ctx, i)}},
		})
	}
	body = append(body,
		cgen.Call{Func: cgen.Free, Args: ctx},
		cgen.Return{Expr: cgen.Zero},
	)
	return cgen.FuncDef{
		ReturnType: cgen.Int,
		Name:       c.FreeName,
		Params:     cgen.Param{Type: cgen.PtrVoid, What: context},
		Body:       body,
	}
}

func (c *Ctx) accessorDef(name string, slots []int) cgen.Gen {
	var (
		context = vb("context")
		index   = vb("index")
		ctx     = vb(c.nms.Name("ctx"))
		cases   = make(cgen.Stmts, len(slots))
	)
	for i, slot := range slots {
		cases[i] = cgen.Case{
			Expr: il(i),
			Body: cgen.Stmts{cgen.Return{Expr: cgen.Cast{
				Type: cgen.PtrFloat,
				Expr: cgen.Dot{Expr: cgen.Arrow{Expr: ctx, Name: varName(slot)}, Name: "data"},
			}}},
		}
	}
	body := cgen.Stmts{
		cgen.Var{Type: cgen.Ptr{Type: vb(c.StructName)}, What: ctx, Init: c.cast(context)},
	}
	if len(slots) == 0 {
		body = append(body,
			cgen.Cast{Type: cgen.Void, Expr: ctx},
			cgen.Cast{Type: cgen.Void, Expr: index},
		)
	} else {
		body = append(body, cgen.Switch{Expr: index, Cases: cases})
	}
	body = append(body, cgen.Return{Expr: cgen.Zero})
	return cgen.FuncDef{
		ReturnType: cgen.PtrFloat,
		Name:       name,
		Params: cgen.CommaSpaced{
			cgen.Param{Type: cgen.PtrVoid, What: context},
			cgen.Param{Type: cgen.Int, What: index},
		},
		Body: body,
	}
}

// AccessorDefs defines the input and output accessors, and the parameter
// accessor when parameters are embedded. An out of range index yields null.
func (c *Ctx) AccessorDefs() cgen.Gen {
	gs := cgen.Gens{
		c.accessorDef(c.InputName, c.pl.Inputs),
		cgen.Newline,
		c.accessorDef(c.OutputName, c.pl.Outputs),
	}
	if len(c.pl.Params) == 0 {
		return gs
	}
	params := make([]int, len(c.pl.Params))
	for i := range c.pl.Params {
		params[i] = c.pl.Params[i].Slot
	}
	return append(gs, cgen.Newline, c.accessorDef(c.ParamName, params))
}

// Func is the member name of function descriptor i.
func Func(i int) string {
	return funcName(i)
}
