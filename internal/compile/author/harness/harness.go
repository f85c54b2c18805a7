package harness

import (
	"strconv"
	"strings"

	"nnrt/internal/compile/author/cgen"
	"nnrt/internal/compile/author/engine"
	"nnrt/internal/compile/author/net"
	"nnrt/internal/compile/plan"
	"nnrt/internal/nmsrc"
)

func vb(s string) cgen.Gen {
	return cgen.Vb(s)
}

func il(i int) cgen.Gen {
	return cgen.IntLit(i)
}

// Main builds an example program that reads one raw float file per input
// (argv order), runs inference once, and writes output n to
// "<argv name>_<n>.bin". table names the embedded parameter table, or is
// empty when there is none.
func Main(pl *plan.Plan, nms nmsrc.Src, nc *net.Ctx, ec *engine.Ctx, table string) cgen.Gen {
	var (
		argc  = vb("argc")
		argv  = vb("argv")
		ctx   = vb(nms.Name("ctx"))
		nIn   = len(pl.Inputs)
		nOut  = len(pl.Outputs)
		usage strings.Builder
		body  cgen.Stmts
	)
	usage.WriteString("Usage: %s")
	for i := 0; i < nIn; i++ {
		usage.WriteString(" input" + strconv.Itoa(i) + ".bin")
	}
	for i := 0; i < nOut; i++ {
		usage.WriteString(" output" + strconv.Itoa(i))
	}
	usage.WriteString(`\n`)
	arg := func(i int) cgen.Gen {
		return cgen.Elem{Arr: argv, Idx: il(i)}
	}
	body = append(body, cgen.If{
		Cond: cgen.CmpNE{Expr1: argc, Expr2: il(1 + nIn + nOut)},
		Then: cgen.Stmts{
			cgen.Call{
				Func: cgen.Printf,
				Args: cgen.CommaSpaced{cgen.DoubleQuoted(usage.String()), arg(0)},
			},
			cgen.Return{Expr: vb("-1")},
		},
	})
	params := cgen.Zero
	if table != "" {
		params = vb(table)
	}
	body = append(body,
		cgen.Var{
			Type: cgen.PtrVoid,
			What: ctx,
			Init: cgen.Call{Func: vb(nc.AllocateName), Args: params},
		},
		cgen.Call{Func: vb("assert"), Args: ctx},
	)
	transfer := func(file, path, mode, fn, accessor, size cgen.Gen, i int) {
		count := vb(nms.Name("count"))
		body = append(body,
			cgen.Var{
				Type: cgen.Ptr{Type: vb("FILE")},
				What: file,
				Init: cgen.Call{
					Func: cgen.Fopen,
					Args: cgen.CommaSpaced{path, mode},
				},
			},
			cgen.Call{Func: vb("assert"), Args: file},
			cgen.Var{
				Type: vb("size_t"),
				What: count,
				Init: cgen.Call{
					Func: fn,
					Args: cgen.CommaSpaced{
						cgen.Call{Func: accessor, Args: cgen.CommaSpaced{ctx, il(i)}},
						cgen.Sizeof{What: cgen.Float},
						size,
						file,
					},
				},
			},
			cgen.Call{Func: vb("assert"), Args: cgen.CmpE{Expr1: count, Expr2: size}},
			cgen.Cast{Type: cgen.Void, Expr: count},
			cgen.Call{Func: cgen.Fclose, Args: file},
		)
	}
	for i := 0; i < nIn; i++ {
		transfer(
			vb(nms.Name("file")), arg(1+i), cgen.DoubleQuoted("rb"),
			cgen.Fread, vb(nc.InputName), vb(nc.InputSize(i)), i,
		)
	}
	body = append(body, cgen.Call{Func: vb(ec.InferenceName), Args: ctx})
	for i := 0; i < nOut; i++ {
		path := vb(nms.Name("path"))
		suffix := "_" + strconv.Itoa(i) + ".bin"
		body = append(body,
			cgen.Var{
				Type: cgen.PtrChar,
				What: path,
				Init: cgen.Cast{
					Type: cgen.PtrChar,
					Expr: cgen.Call{
						Func: cgen.Malloc,
						Args: cgen.Add{
							Expr1: cgen.Call{Func: cgen.Strlen, Args: arg(1 + nIn + i)},
							Expr2: il(len(suffix) + 1),
						},
					},
				},
			},
			cgen.Call{Func: vb("assert"), Args: path},
			cgen.Call{
				Func: cgen.Sprintf,
				Args: cgen.CommaSpaced{path, cgen.DoubleQuoted("%s" + suffix), arg(1 + nIn + i)},
			},
		)
		transfer(
			vb(nms.Name("file")), path, cgen.DoubleQuoted("wb"),
			cgen.Fwrite, vb(nc.OutputName), vb(nc.OutputSize(i)), i,
		)
		body = append(body, cgen.Call{Func: cgen.Free, Args: path})
	}
	body = append(body,
		cgen.Call{Func: vb(nc.FreeName), Args: ctx},
		cgen.Return{Expr: cgen.Zero},
	)
	return cgen.FuncDef{
		ReturnType: cgen.Int,
		Name:       "main",
		Params: cgen.CommaSpaced{
			cgen.Param{Type: cgen.Int, What: argc},
			cgen.Param{Type: cgen.PtrPtrChar, What: argv},
		},
		Body: body,
	}
}
