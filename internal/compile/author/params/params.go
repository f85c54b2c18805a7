package params

import (
	"strconv"

	"nnrt/internal/compile/author/cgen"
	"nnrt/internal/compile/params"
	"nnrt/internal/compile/plan"
)

const suffix = "_parameters"

type Ctx struct {
	Table  string
	Header string
	Source string
	pl     *plan.Plan
}

// NewCtx returns nil when the plan embeds no parameters.
func NewCtx(pl *plan.Plan) *Ctx {
	if len(pl.Params) == 0 {
		return nil
	}
	name := pl.Name + suffix
	return &Ctx{
		Table:  name,
		Header: name + ".h",
		Source: name + ".c",
		pl:     pl,
	}
}

func (c *Ctx) array(i int) string {
	return c.pl.Name + "_parameter" + strconv.Itoa(i)
}

func (c *Ctx) Comment() cgen.Gen {
	return cgen.Comment{
		`Trained parameters of ` + c.pl.Name + `, one float array per parameter`,
		`variable, listed in serialization order. Pass ` + c.Table + ` to`,
		c.pl.Prefix + `_allocate_context to run on these arrays in place.`,
	}
}

func (c *Ctx) Decl() cgen.Gen {
	return cgen.Extern{
		Tail: cgen.Field{
			Type: cgen.PtrVoid,
			What: cgen.Elem{
				Arr: cgen.Vb(c.Table),
				Idx: cgen.IntLit(len(c.pl.Params)),
			},
		},
	}
}

// Arrays defines one array per parameter holding its values in row-major
// order, each value rendered so the C compiler reproduces its bit pattern.
func (c *Ctx) Arrays() cgen.Gen {
	gs := make(cgen.Gens, 0, len(c.pl.Params)*3)
	for i := range c.pl.Params {
		p := &c.pl.Params[i]
		lits := make(cgen.CommaLines, len(p.Data))
		for j, f := range p.Data {
			lits[j] = cgen.Vb(params.Literal(f))
		}
		storage := len(p.Data)
		if storage == 0 {
			lits = cgen.CommaLines{cgen.Zero}
			storage = 1
		}
		gs = append(gs,
			cgen.Comment{p.Variable + " " + p.Shape.String()},
			cgen.Var{
				Type: cgen.Float,
				What: cgen.Elem{
					Arr: cgen.Vb(c.array(i)),
					Idx: cgen.IntLit(storage),
				},
				Init: cgen.Brace{Inner: lits},
			},
			cgen.Newline, cgen.Newline,
		)
	}
	return gs
}

func (c *Ctx) Def() cgen.Gen {
	ptrs := make(cgen.CommaLines, len(c.pl.Params))
	for i := range ptrs {
		ptrs[i] = cgen.Vb(c.array(i))
	}
	return cgen.Gens{
		cgen.Var{
			Type: cgen.PtrVoid,
			What: cgen.Elem{
				Arr: cgen.Vb(c.Table),
				Idx: cgen.IntLit(len(c.pl.Params)),
			},
			Init: cgen.Brace{Inner: ptrs},
		},
		cgen.Newline,
	}
}
