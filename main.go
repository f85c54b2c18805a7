// nnrt: NNabla graph to C inference source compiler
//
// Copyright (C) 2026 The nnrt Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in
//    the documentation and/or other materials provided with the
//    distribution.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
// "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
// LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
// A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
// HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
// LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
// DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
// THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
// (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

package main

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"nnrt/internal/compile"
	"nnrt/internal/compile/plan"
	"nnrt/internal/config"
	"nnrt/internal/doc"
	"nnrt/internal/example"
	"nnrt/internal/graph"
	"nnrt/internal/load"
	"nnrt/internal/version"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	newline = "\n"
	space   = " "
	indent  = space + space + space + space
	usage   = newline + "Usage:" + newline + newline + indent + "nnrt" + space
)

type settings struct {
	config   string
	executor string
	prefix   string
	registry string
	params   string
}

func (s *settings) bind(fs *flag.FlagSet) {
	fs.StringVar(&s.config, "config", "", "YAML configuration file")
	fs.StringVar(&s.executor, "executor", "", "executor to generate (default: the first)")
	fs.StringVar(&s.prefix, "prefix", "", "identifier prefix of the generated API")
	fs.StringVar(&s.registry, "registry", "", "YAML operator catalog (default: builtin)")
	fs.StringVar(&s.params, "params", "", "protobuf parameter table replacing parameter blocks")
}

// resolve loads the configuration file, if any, then applies flags on top.
func (s *settings) resolve() (*config.Config, error) {
	cfg := &config.Config{}
	if s.config != "" {
		var err error
		if cfg, err = config.Load(s.config); err != nil {
			return nil, err
		}
	}
	override := func(to *string, from string) {
		if from != "" {
			*to = from
		}
	}
	override(&cfg.Executor, s.executor)
	override(&cfg.Prefix, s.prefix)
	override(&cfg.RegistryFile, s.registry)
	override(&cfg.ParamsFile, s.params)
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func flagSet(name string, s *settings) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	klog.InitFlags(fs)
	if s != nil {
		s.bind(fs)
	}
	return fs
}

func readModel(path string, cfg *config.Config) (*graph.Model, error) {
	if path == "-" {
		path = "/dev/stdin"
	}
	m, err := load.File(path)
	if err != nil {
		return nil, err
	}
	if cfg.ParamsFile != "" {
		ps, err := load.ParamsFile(cfg.ParamsFile)
		if err != nil {
			return nil, err
		}
		m.Parameters = ps
	}
	return m, nil
}

func cmdCompile() error {
	var s settings
	fs := flagSet(os.Args[1], &s)
	if err := fs.Parse(os.Args[2:]); err == nil && (fs.NArg() == 1 || fs.NArg() == 2) {
		cfg, err := s.resolve()
		if err != nil {
			return err
		}
		dir := cfg.Output
		if fs.NArg() == 2 {
			dir = fs.Arg(1)
		}
		if dir == "" {
			return errors.New("no output directory: give DIR or set output in the configuration")
		}
		m, err := readModel(fs.Arg(0), cfg)
		if err != nil {
			return err
		}
		result, err := compile.Compile(m, cfg)
		if err != nil {
			return err
		}
		const perm os.FileMode = 0666
		for _, f := range result.Files {
			path := filepath.Join(dir, f.Name)
			if err := os.WriteFile(path, f.Data, perm); err != nil {
				return errors.Wrapf(err, "writing %q", path)
			}
			klog.V(1).Infof("wrote %s (%s)", path, humanize.Bytes(uint64(len(f.Data))))
		}
		return nil
	}
	return errors.New(usage +
		os.Args[1] + space + "[FLAGS]" + space + "MODEL" + space + "[DIR]" + newline +
		newline +
		"The MODEL argument specifies an HCL model file (see the doc" + newline +
		"command). - means stdin." + newline +
		newline +
		indent + "Example: mlp.hcl" + newline +
		indent + "Example: ../models/lenet.hcl" + newline +
		indent + "Example: -" + newline +
		newline +
		"The DIR argument specifies an output directory where the" + newline +
		"generated C99 files and GNUmakefile will be written. It may" + newline +
		"be omitted when the configuration file sets output." + newline +
		newline +
		indent + "Example: ." + newline +
		indent + "Example: ../src" + newline +
		newline +
		"FLAGS: -config FILE, -executor NAME, -prefix P, -registry FILE," + newline +
		"-params FILE, and the logging flags (-v N)." + newline)
}

func cmdInspect() error {
	var s settings
	fs := flagSet(os.Args[1], &s)
	if err := fs.Parse(os.Args[2:]); err == nil && fs.NArg() == 1 {
		cfg, err := s.resolve()
		if err != nil {
			return err
		}
		m, err := readModel(fs.Arg(0), cfg)
		if err != nil {
			return err
		}
		pl, err := compile.Plan(m, cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.WriteString(layoutTable(pl) + newline)
		return err
	}
	return errors.New(usage +
		os.Args[1] + space + "[FLAGS]" + space + "MODEL" + newline +
		newline +
		"Writes the buffer layout the compile command would generate:" + newline +
		"one row per slot with its size, role, and where its storage" + newline +
		"comes from with and without a caller parameter array." + newline +
		"Takes the same FLAGS as compile." + newline)
}

func layoutTable(pl *plan.Plan) string {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("Slot", "Variable", "Count", "Size", "Role", "Param", "Null params", "Caller params")
	var (
		heap    = pl.Layout.Provenance(false)
		caller  = pl.Layout.Provenance(true)
		total   uint64
		carried uint64
	)
	for i, slot := range pl.Layout.Slots {
		bytes := uint64(slot.Count) * 4
		total += bytes
		if caller[i] == plan.HeapAllocated {
			carried += bytes
		}
		param := ""
		if slot.Param >= 0 {
			param = strconv.Itoa(slot.Param)
		}
		table.Row(
			strconv.Itoa(slot.Index),
			slot.Variable,
			humanize.Comma(int64(slot.Count)),
			humanize.Bytes(bytes),
			slot.Role.String(),
			param,
			heap[i].String(),
			caller[i].String(),
		)
	}
	return table.String() + newline +
		pl.Prefix + ": " + strconv.Itoa(len(pl.Seq)) + " calls, heap " +
		humanize.Bytes(total) + " (" + humanize.Bytes(carried) + " with caller parameters)"
}

func cmdDoc() error {
	var s settings
	fs := flagSet(os.Args[1], &s)
	if err := fs.Parse(os.Args[2:]); err != nil || fs.NArg() != 0 {
		return errors.New(usage + os.Args[1] + space + "[-registry FILE]" + newline)
	}
	cfg, err := s.resolve()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(doc.Bytes(cfg.Registry))
	return err
}

func cmdExample() error {
	fs := flagSet(os.Args[1], nil)
	params := fs.String("params", "", "write parameters to this protobuf file instead of inline blocks")
	if err := fs.Parse(os.Args[2:]); err == nil && fs.NArg() == 1 {
		text, ps := example.Generate(fs.Arg(0), *params == "")
		if text != nil {
			if *params != "" {
				if err := os.WriteFile(*params, load.AppendParams(nil, ps), 0666); err != nil {
					return errors.Wrapf(err, "writing %q", *params)
				}
			}
			_, err := os.Stdout.Write(text)
			return err
		}
	}
	list := strings.Join(example.Names(), newline+indent)
	return errors.New(usage +
		os.Args[1] + space + "[-params FILE]" + space + "NAME" + newline +
		newline +
		"The NAME argument can be:" + newline +
		newline +
		indent + list + newline)
}

func cmdVersion() error {
	if len(os.Args) > 2 {
		return errors.New(usage + os.Args[1] + newline)
	}
	_, err := os.Stdout.WriteString(
		strconv.Itoa(version.Int) + newline,
	)
	return err
}

var cmds = [...]struct {
	name string
	hint string
	call func() error
}{
	{"compile", "Read an HCL model and write C99 inference source.", cmdCompile},
	{"inspect", "Write the buffer layout of an HCL model to stdout.", cmdInspect},
	{"doc", "Write documentation for the model format to stdout.", cmdDoc},
	{"example", "Write an example HCL model to stdout.", cmdExample},
	{"version", "Write the version number of this program to stdout.", cmdVersion},
}

func run() error {
	if len(os.Args) >= 2 {
		arg := os.Args[1]
		for i := range &cmds {
			if cmds[i].name == arg {
				return cmds[i].call()
			}
		}
	}
	max := 0
	for i := range &cmds {
		if alt := len(cmds[i].name); max < alt {
			max = alt
		}
	}
	tot := max + len(indent)
	var list string
	for i := range &cmds {
		name, hint := cmds[i].name, cmds[i].hint
		align := strings.Repeat(space, tot-len(name))
		list += indent + name + align + hint + newline
	}
	return errors.New(usage +
		"COMMAND" + newline +
		newline +
		"The COMMAND argument can be:" + newline +
		newline +
		list)
}

func main() {
	err := run()
	klog.Flush()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + newline)
		os.Exit(1)
	}
	os.Exit(0)
}
