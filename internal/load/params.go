package load

import (
	"math"
	"os"

	"nnrt/internal/graph"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
	"k8s.io/klog/v2"
)

// Field numbers of the parameter table in the model container's wire
// format. Unknown fields are skipped.
const (
	fieldParameter protowire.Number = 200
	fieldName      protowire.Number = 1
	fieldShape     protowire.Number = 20
	fieldDim       protowire.Number = 1
	fieldData      protowire.Number = 100
)

// ParamsFile reads a protobuf-encoded parameter table.
func ParamsFile(path string) ([]*graph.Parameter, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading parameters %q", path)
	}
	ps, err := Params(b)
	if err != nil {
		return nil, errors.WithMessagef(err, "parameters %q", path)
	}
	klog.V(1).Infof("loaded %d parameters from %q", len(ps), path)
	return ps, nil
}

type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// walk consumes every field of a message, passing each to fn. fn returns
// the bytes it consumed, or 0 to skip the field.
func walk(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return protowire.ParseError(m)
			}
		}
		b = b[m:]
	}
	return nil
}

// Params decodes the parameter table of a serialized model container, in
// file order.
func Params(b []byte) ([]*graph.Parameter, error) {
	var ps []*graph.Parameter
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldParameter || typ != protowire.BytesType {
			return 0, nil
		}
		msg, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		p, err := parameter(msg)
		if err != nil {
			return 0, errors.WithMessagef(err, "parameter %d", len(ps))
		}
		ps = append(ps, p)
		return n, nil
	})
	return ps, err
}

func parameter(b []byte) (*graph.Parameter, error) {
	p := &graph.Parameter{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldName && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			p.Variable = s
			return n, nil
		case num == fieldShape && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			dims, err := shape(msg)
			if err != nil {
				return 0, err
			}
			p.Shape = dims
			return n, nil
		case num == fieldData && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			for len(packed) > 0 {
				v, m := protowire.ConsumeFixed32(packed)
				if m < 0 {
					return 0, protowire.ParseError(m)
				}
				p.Data = append(p.Data, math.Float32frombits(v))
				packed = packed[m:]
			}
			return n, nil
		case num == fieldData && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			p.Data = append(p.Data, math.Float32frombits(v))
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	if p.Variable == "" {
		return nil, errors.New("parameter without variable name")
	}
	return p, nil
}

func shape(b []byte) (graph.Shape, error) {
	var dims graph.Shape
	dim := func(v uint64) error {
		d := int64(v)
		if d < math.MinInt32 || d > math.MaxInt32 {
			return errors.Errorf("dimension %d out of range", d)
		}
		dims = append(dims, int(d))
		return nil
	}
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldDim {
			return 0, nil
		}
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			return n, dim(v)
		case protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return 0, protowire.ParseError(m)
				}
				if err := dim(v); err != nil {
					return 0, err
				}
				packed = packed[m:]
			}
			return n, nil
		}
		return 0, nil
	})
	if dims == nil && err == nil {
		dims = graph.Shape{}
	}
	return dims, err
}

// AppendParams encodes ps as a parameter table, using packed encodings.
func AppendParams(b []byte, ps []*graph.Parameter) []byte {
	for _, p := range ps {
		var msg []byte
		msg = protowire.AppendTag(msg, fieldName, protowire.BytesType)
		msg = protowire.AppendString(msg, p.Variable)

		var dims []byte
		for _, d := range p.Shape {
			dims = protowire.AppendVarint(dims, uint64(int64(d)))
		}
		var sh []byte
		sh = protowire.AppendTag(sh, fieldDim, protowire.BytesType)
		sh = protowire.AppendBytes(sh, dims)
		msg = protowire.AppendTag(msg, fieldShape, protowire.BytesType)
		msg = protowire.AppendBytes(msg, sh)

		data := make([]byte, 0, len(p.Data)*4)
		for _, f := range p.Data {
			data = protowire.AppendFixed32(data, math.Float32bits(f))
		}
		msg = protowire.AppendTag(msg, fieldData, protowire.BytesType)
		msg = protowire.AppendBytes(msg, data)

		b = protowire.AppendTag(b, fieldParameter, protowire.BytesType)
		b = protowire.AppendBytes(b, msg)
	}
	return b
}
