package compile

import (
	"strings"

	"nnrt/internal/compile/author"
	"nnrt/internal/compile/layout"
	"nnrt/internal/compile/params"
	"nnrt/internal/compile/plan"
	"nnrt/internal/compile/schema"
	"nnrt/internal/compile/seq"
	"nnrt/internal/config"
	"nnrt/internal/graph"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

type Result struct {
	Name  string
	Plan  *plan.Plan
	Files []author.File
}

// Compile resolves the executor selected by cfg against m and authors the
// artifact set. It never returns a partial result.
func Compile(m *graph.Model, cfg *config.Config) (*Result, error) {
	st := state{model: m, cfg: cfg}
	var err error
	if caught := exceptions.TryCatch[error](func() { err = st.stages() }); caught != nil {
		return nil, errors.WithMessage(caught, "internal error")
	}
	if err != nil {
		return nil, err
	}
	return &Result{
		Name:  st.pl.Name,
		Plan:  st.pl,
		Files: st.files,
	}, nil
}

// Plan runs every stage except authoring.
func Plan(m *graph.Model, cfg *config.Config) (*plan.Plan, error) {
	st := state{model: m, cfg: cfg}
	var err error
	if caught := exceptions.TryCatch[error](func() { err = st.planStages() }); caught != nil {
		return nil, errors.WithMessage(caught, "internal error")
	}
	if err != nil {
		return nil, err
	}
	return st.pl, nil
}

type state struct {
	model *graph.Model
	cfg   *config.Config
	exec  *graph.Executor
	net   *graph.Network
	roles []graph.Role
	pl    *plan.Plan
	files []author.File
}

var stages = [...]func(*state) error{
	(*state).stage1,
	(*state).stage2,
	(*state).stage3,
	(*state).stage4,
	(*state).stage5,
	(*state).stage6,
	(*state).stage7,
}

func (st *state) planStages() error {
	for _, stage := range stages[:len(stages)-1] {
		if err := stage(st); err != nil {
			return err
		}
	}
	return nil
}

func (st *state) stages() error {
	for _, stage := range &stages {
		if err := stage(st); err != nil {
			return err
		}
	}
	return nil
}

func (st *state) stage1() error {
	if st.cfg.Registry == nil {
		return errors.New("configuration has no operator registry")
	}
	if err := st.model.Validate(); err != nil {
		return err
	}
	exec, err := st.model.Executor(st.cfg.Executor)
	if err != nil {
		return err
	}
	net, err := st.model.Network(exec.Network)
	if err != nil {
		return errors.WithMessagef(err, "executor %q", exec.Name)
	}
	st.exec, st.net = exec, net
	klog.V(1).Infof("using network %q for executor %q", net.Name, exec.Name)
	return nil
}

func (st *state) stage2() error {
	roles, err := graph.Roles(st.net, st.exec, st.model.Parameters)
	if err != nil {
		return err
	}
	st.roles = roles
	name := CName(st.net.Name)
	prefix := st.cfg.Prefix
	if prefix == "" {
		prefix = "nnablart_" + strings.ToLower(name)
	}
	st.pl = &plan.Plan{
		Name:      name,
		Prefix:    CName(prefix),
		BatchSize: st.net.BatchSize,
	}
	return nil
}

func (st *state) stage3() error {
	ps, err := params.Emit(st.net, st.exec, st.model.Parameters)
	if err != nil {
		return err
	}
	st.pl.Params = ps
	klog.V(1).Infof("embedding %d parameters (%s)", len(ps), humanize.Bytes(params.Bytes(ps)))
	return nil
}

func (st *state) stage4() error {
	st.pl.Layout = layout.Plan(st.net, st.roles, params.Index(st.pl.Params))
	index := st.net.VariableIndex()
	slots := func(names []string) []int {
		s := make([]int, len(names))
		for i, name := range names {
			s[i] = index[name]
		}
		return s
	}
	st.pl.Inputs = slots(st.exec.Inputs)
	st.pl.Outputs = slots(st.exec.Outputs)
	klog.V(1).Infof("layout: %d slots, %d inputs, %d outputs",
		len(st.pl.Layout.Slots), len(st.pl.Inputs), len(st.pl.Outputs))
	return nil
}

func (st *state) stage5() error {
	funcs, err := schema.Funcs(st.net, st.cfg.Registry)
	if err != nil {
		return err
	}
	st.pl.Vars = schema.Vars(st.net)
	st.pl.Funcs = funcs
	return nil
}

func (st *state) stage6() error {
	st.pl.Seq = seq.Sequence(st.pl.Funcs)
	klog.V(1).Infof("execution sequence: %d calls", len(st.pl.Seq))
	return nil
}

func (st *state) stage7() error {
	st.files = author.Implement(st.pl)
	return nil
}

// CName maps s onto a C identifier: every byte that is not a letter, digit
// or underscore becomes an underscore, and a leading digit gets one too.
func CName(s string) string {
	b := make([]byte, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		default:
			c = '_'
		}
		b = append(b, c)
	}
	if len(b) == 0 || ('0' <= b[0] && b[0] <= '9') {
		b = append([]byte{'_'}, b...)
	}
	return string(b)
}
