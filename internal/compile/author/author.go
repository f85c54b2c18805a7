package author

import (
	"nnrt/internal/compile/author/cgen"
	"nnrt/internal/compile/author/engine"
	"nnrt/internal/compile/author/harness"
	"nnrt/internal/compile/author/hc"
	"nnrt/internal/compile/author/include"
	"nnrt/internal/compile/author/net"
	"nnrt/internal/compile/author/params"
	"nnrt/internal/compile/author/tobuild"
	"nnrt/internal/compile/plan"
	"nnrt/internal/nmsrc"
)

// File is one generated artifact.
type File struct {
	Name string
	Data []byte
}

// Implement renders the artifact set of pl. The same plan always yields
// byte-identical files in the same order.
func Implement(pl *plan.Plan) []File {
	st := state{pl: pl, nms: nmsrc.New()}
	st.stages()
	return st.files()
}

type state struct {
	pl         *plan.Plan
	hc         hc.Sections
	nms        nmsrc.Src
	inferenceH string
	inferenceC string
	exampleC   string
	paramsCtx  *params.Ctx
	netCtx     *net.Ctx
	engineCtx  *engine.Ctx
}

func (st *state) stages() {
	st.stage1()
	st.stage2()
	st.stage3()
	st.stage4()
	st.stage5()
	st.stage6()
}

func (st *state) stage1() {
	st.inferenceH = st.pl.Name + "_inference.h"
	st.inferenceC = st.pl.Name + "_inference.c"
	st.exampleC = st.pl.Name + "_example.c"
	st.hc.Append(hc.IHPragmaOnce, cgen.PragmaOnce, cgen.Newline)
	st.hc.Append(hc.IHLinkage1, cgen.Linkage1, cgen.Newline)
	st.hc.Append(hc.IHLinkage2, cgen.Linkage2)
	st.hc.Append(hc.ICToBuild, tobuild.Gen(st.inferenceC), cgen.Newline)
	st.hc.Append(hc.ICInclude, include.Inference(st.inferenceH), cgen.Newline)
}

func (st *state) stage2() {
	ctx := params.NewCtx(st.pl)
	if ctx == nil {
		return
	}
	st.hc.Append(hc.PHPragmaOnce, cgen.PragmaOnce, cgen.Newline)
	st.hc.Append(hc.PHLinkage1, cgen.Linkage1, cgen.Newline)
	st.hc.Append(hc.PHTable, ctx.Comment(), ctx.Decl(), cgen.Newline)
	st.hc.Append(hc.PHLinkage2, cgen.Linkage2)
	st.hc.Append(hc.PCInclude, include.Params(ctx.Header), cgen.Newline)
	st.hc.Append(hc.PCArrays, ctx.Arrays())
	st.hc.Append(hc.PCTable, ctx.Def())
	st.paramsCtx = ctx
}

func (st *state) stage3() {
	ctx := net.NewCtx(st.pl, st.nms)
	st.hc.Append(hc.IHInputs, ctx.InputDefs(), cgen.Newline)
	st.hc.Append(hc.IHOutputs, ctx.OutputDefs(), cgen.Newline)
	if defs := ctx.ParamDefs(); defs != nil {
		st.hc.Append(hc.IHParams, defs, cgen.Newline)
	}
	st.hc.Append(hc.IHContext, ctx.Comment(), ctx.Decls(), cgen.Newline)
	st.hc.Append(hc.ICTypes, ctx.Types(), cgen.Newline)
	st.hc.Append(hc.ICStruct, ctx.StructDef(), cgen.Newline)
	st.hc.Append(hc.ICAllocate, ctx.AllocateDef(), cgen.Newline)
	st.hc.Append(hc.ICFree, ctx.FreeDef(), cgen.Newline)
	st.hc.Append(hc.ICAccess, ctx.AccessorDefs(), cgen.Newline)
	st.netCtx = ctx
}

func (st *state) stage4() {
	ctx := engine.NewCtx(st.pl, st.nms, st.netCtx)
	st.hc.Append(hc.IHContext, ctx.Comment(), ctx.InferenceDecl(), cgen.Newline)
	st.hc.Append(hc.ICInference, ctx.InferenceDef())
	st.engineCtx = ctx
}

func (st *state) stage5() {
	var paramsH, table string
	if st.paramsCtx != nil {
		paramsH, table = st.paramsCtx.Header, st.paramsCtx.Table
	}
	st.hc.Append(hc.EXInclude, include.Example(st.inferenceH, paramsH), cgen.Newline)
	st.hc.Append(hc.EXMain, harness.Main(st.pl, st.nms, st.netCtx, st.engineCtx, table))
}

func (st *state) stage6() {
	sources := []string{st.exampleC, st.inferenceC}
	if st.paramsCtx != nil {
		sources = append(sources, st.paramsCtx.Source)
	}
	st.hc.Append(hc.MKRules, cgen.Vb(tobuild.Makefile(st.pl.Name+"_example", sources)))
}

func (st *state) files() []File {
	var fs []File
	add := func(name string, first, last hc.Section) {
		fs = append(fs, File{Name: name, Data: st.hc.Join(first, last)})
	}
	if st.paramsCtx != nil {
		add(st.paramsCtx.Header, hc.PHFirst, hc.PHLast)
		add(st.paramsCtx.Source, hc.PCFirst, hc.PCLast)
	}
	add(st.inferenceH, hc.IHFirst, hc.IHLast)
	add(st.inferenceC, hc.ICFirst, hc.ICLast)
	add(st.exampleC, hc.EXFirst, hc.EXLast)
	add("GNUmakefile", hc.MKFirst, hc.MKLast)
	return fs
}
