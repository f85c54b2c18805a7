package include

import "nnrt/internal/compile/author/cgen"

var alwaysInference = [...]string{
	"math.h",
	"stdlib.h",
}

var alwaysExample = [...]string{
	"assert.h",
	"stdio.h",
	"stdlib.h",
	"string.h",
}

type list struct {
	gs cgen.Gens
}

func (l *list) sys(name string) {
	l.gs = append(l.gs, cgen.Preprocessor{
		Head: cgen.Include,
		Tail: cgen.AngleBracketed(name),
	})
}

func (l *list) usr(name string) {
	l.gs = append(l.gs, cgen.Preprocessor{
		Head: cgen.Include,
		Tail: cgen.DoubleQuoted(name),
	})
}

func (l *list) newline() {
	l.gs = append(l.gs, cgen.Newline)
}

// Params is the include list of the parameter data file.
func Params(paramsH string) cgen.Gen {
	var l list
	l.sys("math.h")
	l.newline()
	l.usr(paramsH)
	return l.gs
}

// Inference is the include list of the inference implementation. The
// runtime header declares the variable, function, list and config types.
func Inference(inferenceH string) cgen.Gen {
	var l list
	for _, name := range &alwaysInference {
		l.sys(name)
	}
	l.newline()
	l.sys("nnablart/functions.h")
	l.newline()
	l.usr(inferenceH)
	return l.gs
}

// Example is the include list of the example harness. paramsH is empty
// when the network embeds no parameters.
func Example(inferenceH, paramsH string) cgen.Gen {
	var l list
	for _, name := range &alwaysExample {
		l.sys(name)
	}
	l.newline()
	l.usr(inferenceH)
	if paramsH != "" {
		l.usr(paramsH)
	}
	return l.gs
}
