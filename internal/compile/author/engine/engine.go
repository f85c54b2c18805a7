package engine

import (
	"nnrt/internal/compile/author/cgen"
	"nnrt/internal/compile/author/net"
	"nnrt/internal/compile/plan"
	"nnrt/internal/nmsrc"
)

type Ctx struct {
	pl            *plan.Plan
	nms           nmsrc.Src
	nc            *net.Ctx
	InferenceName string
}

func NewCtx(pl *plan.Plan, nms nmsrc.Src, nc *net.Ctx) *Ctx {
	return &Ctx{
		pl:            pl,
		nms:           nms,
		nc:            nc,
		InferenceName: pl.Prefix + "_inference",
	}
}

func (c *Ctx) Comment() cgen.Gen {
	return cgen.Comment{
		`Runs every function of the network once, in sequence, reading the`,
		`input buffers and overwriting the output buffers. Returns zero.`,
	}
}

func (c *Ctx) InferenceDecl() cgen.Gen {
	return cgen.FuncDecl{
		ReturnType: cgen.Int,
		Name:       c.InferenceName,
		Params:     cgen.Param{Type: cgen.PtrVoid, What: cgen.Vb("context")},
	}
}

// InferenceDef issues one executor call per entry of the execution
// sequence.
func (c *Ctx) InferenceDef() cgen.Gen {
	var (
		context = cgen.Vb("context")
		ctx     = cgen.Vb(c.nms.Name("ctx"))
		body    = cgen.Stmts{
			cgen.Var{
				Type: cgen.Ptr{Type: cgen.Vb(c.nc.StructName)},
				What: ctx,
				Init: cgen.Cast{
					Type: cgen.Ptr{Type: cgen.Vb(c.nc.StructName)},
					Expr: context,
				},
			},
		}
	)
	for _, call := range c.pl.Seq {
		body = append(body, cgen.Call{
			Func: cgen.Vb(call.Hook),
			Args: cgen.AddrArrow{Expr: ctx, Name: net.Func(call.Func)},
		})
	}
	if len(c.pl.Seq) == 0 {
		body = append(body, cgen.Cast{Type: cgen.Void, Expr: ctx})
	}
	body = append(body, cgen.Return{Expr: cgen.Zero})
	return cgen.FuncDef{
		ReturnType: cgen.Int,
		Name:       c.InferenceName,
		Params:     cgen.Param{Type: cgen.PtrVoid, What: context},
		Body:       body,
	}
}
