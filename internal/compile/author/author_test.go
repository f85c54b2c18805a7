package author_test

import (
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"nnrt/internal/compile"
	"nnrt/internal/compile/author"
	"nnrt/internal/config"
	"nnrt/internal/graph"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityModel() *graph.Model {
	return &graph.Model{
		Networks: []*graph.Network{{
			Name:      "Net",
			BatchSize: 1,
			Variables: []graph.Variable{
				{Name: "x", Shape: graph.Shape{1, 3, 3}},
				{Name: "y", Shape: graph.Shape{1, 3, 3}},
			},
			Functions: []graph.Function{
				{Name: "id", Type: "Identity", Inputs: []string{"x"}, Outputs: []string{"y"}},
			},
		}},
		Executors: []*graph.Executor{{
			Name: "runtime", Network: "Net",
			Inputs: []string{"x"}, Outputs: []string{"y"},
		}},
	}
}

func affineModel(w, b []float32) *graph.Model {
	return &graph.Model{
		Networks: []*graph.Network{{
			Name:      "mlp",
			BatchSize: 2,
			Variables: []graph.Variable{
				{Name: "x", Shape: graph.Shape{-1, 4}},
				{Name: "affine/W", Shape: graph.Shape{4, 3}},
				{Name: "affine/b", Shape: graph.Shape{3}},
				{Name: "y", Shape: graph.Shape{-1, 3}},
			},
			Functions: []graph.Function{{
				Name: "affine", Type: "Affine",
				Inputs:  []string{"x", "affine/W", "affine/b"},
				Outputs: []string{"y"},
			}},
		}},
		Executors: []*graph.Executor{{
			Name: "runtime", Network: "mlp",
			Inputs: []string{"x"}, Outputs: []string{"y"},
			Params: []string{"affine/W", "affine/b"},
		}},
		// Table order differs from variable order.
		Parameters: []*graph.Parameter{
			{Variable: "affine/b", Shape: graph.Shape{3}, Data: b},
			{Variable: "affine/W", Shape: graph.Shape{4, 3}, Data: w},
		},
	}
}

func files(t *testing.T, m *graph.Model) map[string]string {
	res, err := compile.Compile(m, config.Default())
	require.NoError(t, err)
	out := make(map[string]string, len(res.Files))
	for _, f := range res.Files {
		out[f.Name] = string(f.Data)
	}
	return out
}

func names(fs []author.File) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}

func TestIdentityArtifacts(t *testing.T) {
	res, err := compile.Compile(identityModel(), config.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"Net_inference.h", "Net_inference.c", "Net_example.c", "GNUmakefile"}, names(res.Files))

	fs := files(t, identityModel())
	h, c := fs["Net_inference.h"], fs["Net_inference.c"]
	assert.Contains(t, h, "#define NNABLART_NET_NUM_OF_INPUT_BUFFERS (1)\n")
	assert.Contains(t, h, "#define NNABLART_NET_INPUT0_SIZE (9)\n")
	assert.Contains(t, h, "#define NNABLART_NET_OUTPUT0_SIZE (9)\n")
	assert.NotContains(t, h, "PARAM")
	assert.NotContains(t, h, "_param_buffer")
	assert.NotContains(t, c, "_param_buffer")
	assert.Contains(t, h, "void* nnablart_net_allocate_context(void** params);\n")
	assert.Contains(t, h, "int nnablart_net_inference(void* context);\n")

	assert.Equal(t, 2, strings.Count(c, " = RT_BUFFER_ALLOCATE_TYPE_MALLOC;"))
	assert.Equal(t, 0, strings.Count(c, " = RT_BUFFER_ALLOCATE_TYPE_ALLOCATED;"))
	assert.Equal(t, 1, strings.Count(c, "exec_identity(&"))
	assert.Equal(t, 1, strings.Count(c, "init_identity_local_context(&"))
	assert.NotContains(t, c, "init_identity_config")
	assert.NotContains(t, c, "f0_config")
	assert.Regexp(t, `\w+->f0_input\[0\] = &\w+->v0;`, c)
	assert.Regexp(t, `\w+->f0_output\[0\] = &\w+->v1;`, c)
	assert.Equal(t, 2, strings.Count(c, "free(ctx2->variable_buffers["))
	assert.Contains(t, c, "ctx1->v0.type = NN_DATA_TYPE_FLOAT;\n")
	assert.Contains(t, c, "ctx1->v1.type = NN_DATA_TYPE_FLOAT;\n")
	assert.Equal(t, 2, strings.Count(c, ".type = NN_DATA_TYPE_FLOAT;"))

	ex := fs["Net_example.c"]
	assert.Contains(t, ex, "nnablart_net_allocate_context(0)")
	assert.NotContains(t, ex, "_parameters.h")
	assert.Contains(t, fs["GNUmakefile"], "Net_example: Net_example.c Net_inference.c\n")
}

func TestCallerSuppliedParams(t *testing.T) {
	w := make([]float32, 12)
	for i := range w {
		w[i] = float32(i) / 4
	}
	fs := files(t, affineModel(w, []float32{0.5, -1, 2}))
	require.Contains(t, fs, "mlp_parameters.h")
	require.Contains(t, fs, "mlp_parameters.c")
	h, c := fs["mlp_inference.h"], fs["mlp_inference.c"]
	assert.Contains(t, h, "#define NNABLART_MLP_INPUT0_SIZE (8)\n")
	assert.Contains(t, h, "#define NNABLART_MLP_OUTPUT0_SIZE (6)\n")
	assert.Contains(t, h, "#define NNABLART_MLP_NUM_OF_PARAM_BUFFERS (2)\n")
	assert.Contains(t, h, "#define NNABLART_MLP_PARAM0_SIZE (3)\n")
	assert.Contains(t, h, "#define NNABLART_MLP_PARAM1_SIZE (12)\n")

	// Slot 1 (affine/W) is parameter 1, slot 2 (affine/b) is parameter 0.
	assert.Contains(t, c, "ctx1->variable_buffers_allocate_type[1] = RT_BUFFER_ALLOCATE_TYPE_ALLOCATED;\n")
	assert.Contains(t, c, "ctx1->variable_buffers[1] = (float*)params[1];\n")
	assert.Contains(t, c, "ctx1->variable_buffers[2] = (float*)params[0];\n")
	// Both branches: two caller slots when supplied, none otherwise.
	assert.Equal(t, 2, strings.Count(c, " = RT_BUFFER_ALLOCATE_TYPE_ALLOCATED;"))
	assert.Equal(t, 6, strings.Count(c, " = RT_BUFFER_ALLOCATE_TYPE_MALLOC;"))
	assert.Regexp(t, `init_affine_config\(&ctx1->f0_config, 1\);`, c)
	assert.Regexp(t, `case 0: \{\n\t+return \(float\*\)\w+->v2\.data;`, c)

	ex := fs["mlp_example.c"]
	assert.Contains(t, ex, "#include \"mlp_parameters.h\"\n")
	assert.Contains(t, ex, "nnablart_mlp_allocate_context(mlp_parameters)")
	assert.Contains(t, fs["GNUmakefile"], "mlp_example: mlp_example.c mlp_inference.c mlp_parameters.c\n")
	assert.Contains(t, fs["mlp_parameters.h"], "extern void* mlp_parameters[2];\n")
}

func TestSoleParameterSupplied(t *testing.T) {
	m := &graph.Model{
		Networks: []*graph.Network{{
			Name:      "p",
			BatchSize: 1,
			Variables: []graph.Variable{
				{Name: "x", Shape: graph.Shape{1, 4}},
				{Name: "w", Shape: graph.Shape{4, 4}},
				{Name: "y", Shape: graph.Shape{1, 4}},
			},
			Functions: []graph.Function{{
				Name: "fc", Type: "Affine",
				Inputs: []string{"x", "w"}, Outputs: []string{"y"},
			}},
		}},
		Executors: []*graph.Executor{{
			Name: "e", Network: "p",
			Inputs: []string{"x"}, Outputs: []string{"y"}, Params: []string{"w"},
		}},
		Parameters: []*graph.Parameter{{Variable: "w", Shape: graph.Shape{4, 4}, Data: make([]float32, 16)}},
	}
	fs := files(t, m)
	h, c := fs["p_inference.h"], fs["p_inference.c"]
	assert.Contains(t, h, "#define NNABLART_P_PARAM0_SIZE (16)\n")
	assert.Contains(t, h, "float* nnablart_p_param_buffer(void* context, int index);\n")
	assert.Contains(t, c, "ctx1->variable_buffers[1] = (float*)params[0];\n")
	// The supplied branch allocates the other two slots only.
	assert.Equal(t, 1, strings.Count(c, " = RT_BUFFER_ALLOCATE_TYPE_ALLOCATED;"))
	assert.Equal(t, 2+3, strings.Count(c, " = RT_BUFFER_ALLOCATE_TYPE_MALLOC;"))
	assert.Equal(t, 2+3, strings.Count(c, "calloc(sizeof(float), "))
	assert.Contains(t, c, "ctx1->v1.data = ctx1->variable_buffers[1];\n")
}

var arrayRE = regexp.MustCompile(`(?s)float (\w+)\[(\d+)\] = \{\n(.*?)\};`)

// parseArrays recovers the float arrays of a parameters source file.
func parseArrays(t *testing.T, src string) map[string][]float32 {
	out := make(map[string][]float32)
	for _, m := range arrayRE.FindAllStringSubmatch(src, -1) {
		var vals []float32
		for _, line := range strings.Split(strings.TrimSpace(m[3]), "\n") {
			lit := strings.TrimSuffix(strings.TrimSpace(line), ",")
			switch lit {
			case "INFINITY":
				vals = append(vals, float32(math.Inf(1)))
			case "-INFINITY":
				vals = append(vals, float32(math.Inf(-1)))
			default:
				f, err := strconv.ParseFloat(strings.TrimSuffix(lit, "f"), 32)
				require.NoError(t, err, lit)
				vals = append(vals, float32(f))
			}
		}
		assert.Equal(t, must.M1(strconv.Atoi(m[2])), len(vals))
		out[m[1]] = vals
	}
	return out
}

func TestParameterRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	w := make([]float32, 12)
	for i := range w {
		for {
			f := math.Float32frombits(rng.Uint32())
			if !math.IsNaN(float64(f)) {
				w[i] = f
				break
			}
		}
	}
	b := []float32{float32(math.Inf(1)), float32(math.Inf(-1)), float32(math.Copysign(0, -1))}
	src := files(t, affineModel(w, b))["mlp_parameters.c"]
	arrays := parseArrays(t, src)
	require.Len(t, arrays, 2)
	bits := func(fs []float32) []uint32 {
		out := make([]uint32, len(fs))
		for i, f := range fs {
			out[i] = math.Float32bits(f)
		}
		return out
	}
	assert.Equal(t, bits(b), bits(arrays["mlp_parameter0"]))
	assert.Equal(t, bits(w), bits(arrays["mlp_parameter1"]))
	assert.Contains(t, src, "void* mlp_parameters[2] = {\n\tmlp_parameter0,\n\tmlp_parameter1\n};\n")
}

func TestConfigInitFollowsSchemaOrder(t *testing.T) {
	m := &graph.Model{
		Networks: []*graph.Network{{
			Name:      "conv",
			BatchSize: 1,
			Variables: []graph.Variable{
				{Name: "x", Shape: graph.Shape{1, 2, 5, 5}},
				{Name: "w", Shape: graph.Shape{2, 1, 3, 3}},
				{Name: "y", Shape: graph.Shape{1, 2, 3, 3}},
			},
			Functions: []graph.Function{{
				Name: "c", Type: "Convolution",
				Inputs: []string{"x", "w"}, Outputs: []string{"y"},
				Args: []graph.Arg{
					{Name: "group", Value: graph.Int(2)},
					{Name: "dilation", Value: graph.ShapeValue{1, 1}},
					{Name: "stride", Value: graph.ShapeValue{1, 1}},
					{Name: "pad", Value: graph.ShapeValue{0, 0}},
				},
			}},
		}},
		Executors: []*graph.Executor{{
			Name: "e", Network: "conv",
			Inputs: []string{"x", "w"}, Outputs: []string{"y"},
		}},
	}
	c := files(t, m)["conv_inference.c"]
	assert.Regexp(t, `init_convolution_config\(&ctx1->f0_config, 1, arg_f0_pad, arg_f0_stride, arg_f0_dilation, 2\);`, c)
	assert.Contains(t, c, "arg_f0_pad.size = 2;\n")
	assert.Contains(t, c, "ctx1->f0_config.base_axis = 1;\n")
	assert.Contains(t, c, "ctx1->f0_config.group = 2;\n")
	assert.Contains(t, c, "ctx1->f0_config_shape_dilation[1] = 1;\n")
	// Record members are stored in schema order, before the initializer runs.
	order := []string{
		"ctx1->f0_config.base_axis = 1;",
		"rt_list_t arg_f0_pad;",
		"rt_list_t arg_f0_stride;",
		"rt_list_t arg_f0_dilation;",
		"ctx1->f0_config.group = 2;",
		"init_convolution_config(",
		"init_convolution_local_context(&ctx1->f0);",
	}
	last := -1
	for _, want := range order {
		at := strings.Index(c, want)
		require.True(t, at > last, want)
		last = at
	}
	assert.Contains(t, c, "int f0_config_shape_pad[2];\n")
	// Optional bias is omitted: array keeps room for it, count is 2.
	assert.Contains(t, c, "rt_variable_t* f0_input[3];\n")
	assert.Contains(t, c, "ctx1->f0.num_of_inputs = 2;\n")
	assert.NotContains(t, c, "f0_input[2] =")
}

func TestConfigRecordPopulated(t *testing.T) {
	m := &graph.Model{
		Networks: []*graph.Network{{
			Name:      "pool",
			BatchSize: 1,
			Variables: []graph.Variable{
				{Name: "x", Shape: graph.Shape{1, 1, 4, 4}},
				{Name: "p", Shape: graph.Shape{1, 1, 2, 2}},
				{Name: "y", Shape: graph.Shape{1, 1, 2, 2}},
			},
			Functions: []graph.Function{
				{
					Name: "mp", Type: "MaxPooling",
					Inputs: []string{"x"}, Outputs: []string{"p"},
					Args: []graph.Arg{
						{Name: "pad", Value: graph.ShapeValue{0, 0}},
						{Name: "ignore_border", Value: graph.Bool(false)},
						{Name: "stride", Value: graph.ShapeValue{2, 2}},
						{Name: "kernel", Value: graph.ShapeValue{2, 3}},
					},
				},
				{
					Name: "act", Type: "LeakyReLU",
					Inputs: []string{"p"}, Outputs: []string{"y"},
					Args: []graph.Arg{{Name: "alpha", Value: graph.Float(0.25)}},
				},
			},
		}},
		Executors: []*graph.Executor{{
			Name: "e", Network: "pool",
			Inputs: []string{"x"}, Outputs: []string{"y"},
		}},
	}
	c := files(t, m)["pool_inference.c"]

	// Boolean argument: record member and initializer argument.
	assert.Contains(t, c, "max_pooling_config_t f0_config;\n")
	assert.Contains(t, c, "ctx1->f0_config.ignore_border = 0;\n")
	// Vector arguments: inline storage, list descriptor and initializer argument.
	assert.Contains(t, c, "int f0_config_shape_kernel[2];\n")
	assert.Contains(t, c, "ctx1->f0_config_shape_kernel[0] = 2;\n")
	assert.Contains(t, c, "ctx1->f0_config_shape_kernel[1] = 3;\n")
	assert.Contains(t, c, "arg_f0_kernel.data = ctx1->f0_config_shape_kernel;\n")
	assert.Contains(t, c, "init_max_pooling_config(&ctx1->f0_config, arg_f0_kernel, arg_f0_stride, 0, arg_f0_pad);\n")
	assert.NotContains(t, c, "f0_config.kernel")
	// Scalar float argument.
	assert.Contains(t, c, "leaky_relu_config_t f1_config;\n")
	assert.Contains(t, c, "ctx1->f1.config = &ctx1->f1_config;\n")
	assert.Contains(t, c, "ctx1->f1_config.alpha = 2.5e-01f;\n")
	assert.Contains(t, c, "init_leaky_relu_config(&ctx1->f1_config, 2.5e-01f);\n")
}

func TestImplementIsDeterministic(t *testing.T) {
	m := affineModel(make([]float32, 12), make([]float32, 3))
	pl, err := compile.Plan(m, config.Default())
	require.NoError(t, err)
	first := author.Implement(pl)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, author.Implement(pl))
	}
}
