// Package export writes a control network frame in columnar and text formats
// for tools outside ISIS.
package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/ipc"
	"github.com/apache/arrow/go/v11/arrow/memory"

	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/measurelog"
	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/table"
	"github.com/ssargent/isiscnet/pkg/wire"
)

const recordBatchSize = 1024

// measureLogType is the Arrow shape of a measure's log entries.
var measureLogType = arrow.ListOf(arrow.StructOf(
	arrow.Field{Name: "type", Type: arrow.BinaryTypes.String},
	arrow.Field{Name: "value", Type: arrow.PrimitiveTypes.Float64},
))

// pointLogType is the Arrow shape of a point's raw log data.
var pointLogType = arrow.ListOf(arrow.StructOf(
	arrow.Field{Name: "doubleDataType", Type: arrow.PrimitiveTypes.Int32},
	arrow.Field{Name: "doubleDataValue", Type: arrow.PrimitiveTypes.Float64},
	arrow.Field{Name: "boolDataType", Type: arrow.PrimitiveTypes.Int32},
	arrow.Field{Name: "boolDataValue", Type: arrow.FixedWidthTypes.Boolean},
))

// ArrowSchema returns the Arrow schema for the columns of s. Every column is
// nullable; absent values are written as nulls.
func ArrowSchema(s *schema.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(s.Columns()))
	for _, c := range s.Columns() {
		dt, err := arrowType(c)
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: c.Name, Type: dt, Nullable: true})
	}
	return arrow.NewSchema(fields, nil), nil
}

func arrowType(c schema.Column) (arrow.DataType, error) {
	var dt arrow.DataType
	switch c.Field.Kind {
	case schema.KindDouble:
		dt = arrow.PrimitiveTypes.Float64
	case schema.KindInt32, schema.KindEnum:
		dt = arrow.PrimitiveTypes.Int32
	case schema.KindBool:
		dt = arrow.FixedWidthTypes.Boolean
	case schema.KindString:
		dt = arrow.BinaryTypes.String
	case schema.KindMessage:
		if c.Owner == schema.OwnerMeasure {
			return measureLogType, nil
		}
		return pointLogType, nil
	default:
		return nil, fmt.Errorf("%w: column %s has kind %s", errs.ErrInvalidFieldValue, c.Name, c.Field.Kind)
	}
	if c.Field.Repeated {
		return arrow.ListOf(dt), nil
	}
	return dt, nil
}

// WriteArrow writes frame to w as a single Arrow IPC stream, one record batch
// per 1024 rows.
func WriteArrow(w io.Writer, frame *table.Frame) error {
	s, err := schema.Lookup(frame.Version)
	if err != nil {
		return err
	}
	as, err := ArrowSchema(s)
	if err != nil {
		return err
	}

	builder := array.NewRecordBuilder(memory.DefaultAllocator, as)
	defer builder.Release()
	builder.Reserve(recordBatchSize)
	writer := ipc.NewWriter(w, ipc.WithSchema(as))

	pending := 0
	flush := func() error {
		if pending == 0 {
			return nil
		}
		rec := builder.NewRecord()
		defer rec.Release()
		pending = 0
		return writer.Write(rec)
	}

	for i, row := range frame.Rows {
		for j, c := range s.Columns() {
			v, _ := row.Get(c.Name)
			if err := appendValue(builder.Field(j), c, v); err != nil {
				_ = writer.Close()
				return fmt.Errorf("row %d: %w", i, err)
			}
		}
		pending++
		if pending == recordBatchSize {
			if err := flush(); err != nil {
				_ = writer.Close()
				return err
			}
			builder.Reserve(recordBatchSize)
		}
	}
	if err := flush(); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func appendValue(b array.Builder, c schema.Column, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	bad := func() error {
		return fmt.Errorf("%w: column %s: %v (%T)", errs.ErrInvalidFieldValue, c.Name, v, v)
	}

	switch b := b.(type) {
	case *array.Float64Builder:
		x, ok := wire.ToFloat64(v)
		if !ok {
			return bad()
		}
		b.Append(x)
	case *array.Int32Builder:
		x, ok := wire.ToInt32(v)
		if !ok {
			return bad()
		}
		b.Append(x)
	case *array.BooleanBuilder:
		x, ok := wire.ToBool(v)
		if !ok {
			return bad()
		}
		b.Append(x)
	case *array.StringBuilder:
		x, ok := wire.ToString(v)
		if !ok {
			return bad()
		}
		b.Append(x)
	case *array.ListBuilder:
		return appendList(b, c, v, bad)
	default:
		return bad()
	}
	return nil
}

func appendList(b *array.ListBuilder, c schema.Column, v any, bad func() error) error {
	switch vb := b.ValueBuilder().(type) {
	case *array.Float64Builder:
		xs, ok := wire.ToFloat64s(v)
		if !ok {
			return bad()
		}
		b.Append(true)
		vb.AppendValues(xs, nil)
	case *array.Int32Builder:
		xs, ok := wire.ToInt32s(v)
		if !ok {
			return bad()
		}
		b.Append(true)
		vb.AppendValues(xs, nil)
	case *array.BooleanBuilder:
		xs, ok := wire.ToBools(v)
		if !ok {
			return bad()
		}
		b.Append(true)
		vb.AppendValues(xs, nil)
	case *array.StringBuilder:
		xs, ok := wire.ToStrings(v)
		if !ok {
			return bad()
		}
		b.Append(true)
		vb.AppendValues(xs, nil)
	case *array.StructBuilder:
		switch logs := v.(type) {
		case []measurelog.MeasureLog:
			b.Append(true)
			for _, l := range logs {
				vb.Append(true)
				vb.FieldBuilder(0).(*array.StringBuilder).Append(l.Type.String())
				vb.FieldBuilder(1).(*array.Float64Builder).Append(l.Value)
			}
		case []measurelog.LogData:
			b.Append(true)
			for _, l := range logs {
				vb.Append(true)
				vb.FieldBuilder(0).(*array.Int32Builder).Append(l.DoubleDataType)
				vb.FieldBuilder(1).(*array.Float64Builder).Append(l.DoubleDataValue)
				vb.FieldBuilder(2).(*array.Int32Builder).Append(l.BoolDataType)
				vb.FieldBuilder(3).(*array.BooleanBuilder).Append(l.BoolDataValue)
			}
		default:
			return bad()
		}
	default:
		return bad()
	}
	return nil
}
