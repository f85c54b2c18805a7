package hc

import (
	"testing"

	"nnrt/internal/compile/author/cgen"

	"github.com/stretchr/testify/assert"
)

func TestJoinIndents(t *testing.T) {
	var s Sections
	s.Append(ICStruct, cgen.TypedefStruct{
		Name:   "pair_t",
		Fields: cgen.Stmts{cgen.Field{Type: cgen.Int, What: cgen.Vb("a")}},
	})
	s.Append(ICAllocate, cgen.FuncDef{
		ReturnType: cgen.Int,
		Name:       "f",
		Params:     cgen.Param{Type: cgen.Int, What: cgen.Vb("x")},
		Body: cgen.Stmts{
			cgen.If{
				Cond: cgen.Vb("x"),
				Then: cgen.Stmts{cgen.Return{Expr: cgen.One}},
			},
			cgen.Return{Expr: cgen.Zero},
		},
	})
	s.Append(EXMain, cgen.Comment{"elsewhere"})
	want := "typedef struct {\n\tint a;\n} pair_t;\n" +
		"int f(int x) {\n\tif (x) {\n\t\treturn 1;\n\t}\n\treturn 0;\n}\n"
	assert.Equal(t, want, string(s.Join(ICFirst, ICLast)))
	assert.Equal(t, "// elsewhere\n", string(s.Join(EXFirst, EXLast)))
	assert.Empty(t, s.Join(PHFirst, PHLast))
}

func TestJoinUnbalanced(t *testing.T) {
	var s Sections
	s.Append(MKRules, cgen.Vb("}\nx\n"))
	assert.Equal(t, "}\nx\n", string(s.Join(MKFirst, MKLast)))
}
