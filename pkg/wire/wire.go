// Package wire encodes and decodes schema records as protobuf messages.
//
// The encoding is driven entirely by a schema.Table: fields are written in
// table order, absent fields are omitted, and unknown field numbers are
// skipped on decode. Message-typed fields travel as [][]byte, one pre-encoded
// element per entry; the caller owns their inner layout.
package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/schema"
)

// Marshal serializes the present fields of rec.
func Marshal(t *schema.Table, rec schema.Record) ([]byte, error) {
	var b []byte
	for _, f := range t.Fields() {
		v, ok := rec.Get(f.Name)
		if !ok {
			continue
		}
		var err error
		if f.Repeated {
			b, err = appendRepeated(b, f, v)
		} else {
			b, err = appendScalar(b, f, v)
		}
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), f.Name, err)
		}
	}
	return b, nil
}

func invalid(f schema.Field, v any) error {
	return fmt.Errorf("%w: %T is not a %s", errs.ErrInvalidFieldValue, v, f.Kind)
}

func appendScalar(b []byte, f schema.Field, v any) ([]byte, error) {
	switch f.Kind {
	case schema.KindDouble:
		x, ok := ToFloat64(v)
		if !ok {
			return nil, invalid(f, v)
		}
		b = protowire.AppendTag(b, f.Number, protowire.Fixed64Type)
		return protowire.AppendFixed64(b, math.Float64bits(x)), nil
	case schema.KindInt32, schema.KindEnum:
		x, ok := ToInt32(v)
		if !ok {
			return nil, invalid(f, v)
		}
		if f.Kind == schema.KindEnum && f.Enum != nil && !f.Enum.Valid(x) {
			return nil, fmt.Errorf("%w: %d is not a %s", errs.ErrInvalidFieldValue, x, f.Enum.Name)
		}
		b = protowire.AppendTag(b, f.Number, protowire.VarintType)
		return protowire.AppendVarint(b, uint64(int64(x))), nil
	case schema.KindBool:
		x, ok := ToBool(v)
		if !ok {
			return nil, invalid(f, v)
		}
		b = protowire.AppendTag(b, f.Number, protowire.VarintType)
		return protowire.AppendVarint(b, protowire.EncodeBool(x)), nil
	case schema.KindString:
		x, ok := ToString(v)
		if !ok {
			return nil, invalid(f, v)
		}
		b = protowire.AppendTag(b, f.Number, protowire.BytesType)
		return protowire.AppendString(b, x), nil
	case schema.KindMessage:
		x, ok := v.([]byte)
		if !ok {
			return nil, invalid(f, v)
		}
		b = protowire.AppendTag(b, f.Number, protowire.BytesType)
		return protowire.AppendBytes(b, x), nil
	}
	return nil, invalid(f, v)
}

func appendRepeated(b []byte, f schema.Field, v any) ([]byte, error) {
	switch f.Kind {
	case schema.KindDouble:
		xs, ok := ToFloat64s(v)
		if !ok {
			return nil, invalid(f, v)
		}
		if f.Packed {
			if len(xs) == 0 {
				return b, nil
			}
			var p []byte
			for _, x := range xs {
				p = protowire.AppendFixed64(p, math.Float64bits(x))
			}
			b = protowire.AppendTag(b, f.Number, protowire.BytesType)
			return protowire.AppendBytes(b, p), nil
		}
		for _, x := range xs {
			b = protowire.AppendTag(b, f.Number, protowire.Fixed64Type)
			b = protowire.AppendFixed64(b, math.Float64bits(x))
		}
		return b, nil
	case schema.KindInt32, schema.KindEnum:
		xs, ok := ToInt32s(v)
		if !ok {
			return nil, invalid(f, v)
		}
		if f.Kind == schema.KindEnum && f.Enum != nil {
			for _, x := range xs {
				if !f.Enum.Valid(x) {
					return nil, fmt.Errorf("%w: %d is not a %s", errs.ErrInvalidFieldValue, x, f.Enum.Name)
				}
			}
		}
		if f.Packed {
			if len(xs) == 0 {
				return b, nil
			}
			var p []byte
			for _, x := range xs {
				p = protowire.AppendVarint(p, uint64(int64(x)))
			}
			b = protowire.AppendTag(b, f.Number, protowire.BytesType)
			return protowire.AppendBytes(b, p), nil
		}
		for _, x := range xs {
			b = protowire.AppendTag(b, f.Number, protowire.VarintType)
			b = protowire.AppendVarint(b, uint64(int64(x)))
		}
		return b, nil
	case schema.KindBool:
		xs, ok := ToBools(v)
		if !ok {
			return nil, invalid(f, v)
		}
		for _, x := range xs {
			b = protowire.AppendTag(b, f.Number, protowire.VarintType)
			b = protowire.AppendVarint(b, protowire.EncodeBool(x))
		}
		return b, nil
	case schema.KindString:
		xs, ok := ToStrings(v)
		if !ok {
			return nil, invalid(f, v)
		}
		for _, x := range xs {
			b = protowire.AppendTag(b, f.Number, protowire.BytesType)
			b = protowire.AppendString(b, x)
		}
		return b, nil
	case schema.KindMessage:
		xs, ok := v.([][]byte)
		if !ok {
			return nil, invalid(f, v)
		}
		for _, x := range xs {
			b = protowire.AppendTag(b, f.Number, protowire.BytesType)
			b = protowire.AppendBytes(b, x)
		}
		return b, nil
	}
	return nil, invalid(f, v)
}

// Unmarshal parses b against t. Only fields present on the wire appear in the
// returned record; see schema.Table.FillDefaults.
func Unmarshal(t *schema.Table, b []byte) (schema.Record, error) {
	rec := make(schema.Record)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed(t, "tag", protowire.ParseError(n))
		}
		b = b[n:]
		f, ok := t.FieldByNumber(num)
		if !ok {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, malformed(t, fmt.Sprintf("field %d", num), protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		n, err := consumeField(rec, f, typ, b)
		if err != nil {
			return nil, malformed(t, f.Name, err)
		}
		b = b[n:]
	}
	return rec, nil
}

func malformed(t *schema.Table, what string, err error) error {
	return fmt.Errorf("%w: %s.%s: %v", errs.ErrMalformedMessage, t.Name(), what, err)
}

func set[T any](rec schema.Record, f schema.Field, v T) {
	if !f.Repeated {
		rec[f.Name] = v
		return
	}
	s, _ := rec[f.Name].([]T)
	rec[f.Name] = append(s, v)
}

func consumeField(rec schema.Record, f schema.Field, typ protowire.Type, b []byte) (int, error) {
	switch {
	case f.Kind == schema.KindDouble && typ == protowire.Fixed64Type:
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		set(rec, f, math.Float64frombits(v))
		return n, nil
	case (f.Kind == schema.KindInt32 || f.Kind == schema.KindEnum) && typ == protowire.VarintType:
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		set(rec, f, int32(v))
		return n, nil
	case f.Kind == schema.KindBool && typ == protowire.VarintType:
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		set(rec, f, protowire.DecodeBool(v))
		return n, nil
	case f.Kind == schema.KindString && typ == protowire.BytesType:
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		set(rec, f, string(v))
		return n, nil
	case f.Kind == schema.KindMessage && typ == protowire.BytesType:
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		set(rec, f, append([]byte(nil), v...))
		return n, nil
	case f.Repeated && typ == protowire.BytesType:
		return consumePacked(rec, f, b)
	}
	return 0, fmt.Errorf("wire type %d does not match %s", typ, f.Kind)
}

func consumePacked(rec schema.Record, f schema.Field, b []byte) (int, error) {
	p, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	// An empty packed run still marks the field present.
	switch f.Kind {
	case schema.KindDouble:
		s, _ := rec[f.Name].([]float64)
		for len(p) > 0 {
			v, m := protowire.ConsumeFixed64(p)
			if m < 0 {
				return 0, protowire.ParseError(m)
			}
			s = append(s, math.Float64frombits(v))
			p = p[m:]
		}
		if s == nil {
			s = []float64{}
		}
		rec[f.Name] = s
	case schema.KindInt32, schema.KindEnum:
		s, _ := rec[f.Name].([]int32)
		for len(p) > 0 {
			v, m := protowire.ConsumeVarint(p)
			if m < 0 {
				return 0, protowire.ParseError(m)
			}
			s = append(s, int32(v))
			p = p[m:]
		}
		if s == nil {
			s = []int32{}
		}
		rec[f.Name] = s
	case schema.KindBool:
		s, _ := rec[f.Name].([]bool)
		for len(p) > 0 {
			v, m := protowire.ConsumeVarint(p)
			if m < 0 {
				return 0, protowire.ParseError(m)
			}
			s = append(s, protowire.DecodeBool(v))
			p = p[m:]
		}
		if s == nil {
			s = []bool{}
		}
		rec[f.Name] = s
	default:
		return 0, fmt.Errorf("%s cannot be packed", f.Kind)
	}
	return n, nil
}
