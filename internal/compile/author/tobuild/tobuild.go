package tobuild

import (
	"strings"

	"nnrt/internal/compile/author/cgen"
)

const (
	cflags  = "-std=c99 -O2"
	runtime = "NNABLART_ROOT"
)

// Gen is the build hint placed at the top of the inference source.
func Gen(source string) cgen.Gen {
	return cgen.Comment{
		"To build an object file:",
		strings.Join([]string{
			"gcc",
			"-c",
			cflags,
			"-I$" + runtime + "/include",
			source,
		}, " "),
	}
}

// Makefile renders the GNU make rules that build the example harness
// against the runtime function library. sources lists every generated C
// source, the harness first.
func Makefile(target string, sources []string) string {
	var b strings.Builder
	line := func(s ...string) {
		b.WriteString(strings.Join(s, ""))
		b.WriteByte('\n')
	}
	line("# Generated build rules for ", target, ".")
	line("# Set ", runtime, " to the runtime source tree.")
	line()
	line(runtime, " ?= ../nnabla-c-runtime")
	line()
	line("CFLAGS += ", cflags, " -I$(", runtime, ")/include")
	line("LDFLAGS += -L$(", runtime, ")/build/src/functions")
	line("LDLIBS += -lnnablart_functions -lm")
	line()
	line(".PHONY: all clean")
	line()
	line("all: ", target)
	line()
	line(target, ": ", strings.Join(sources, " "))
	line("\t$(CC) $(CFLAGS) -o $@ $^ $(LDFLAGS) $(LDLIBS)")
	line()
	line("clean:")
	line("\trm -f ", target)
	return b.String()
}
