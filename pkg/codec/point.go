package codec

import (
	"fmt"

	"github.com/ssargent/isiscnet/pkg/diag"
	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/measurelog"
	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/wire"
)

// pixelOffset converts between corner-origin and pixel-centered coordinates.
const pixelOffset = 0.5

// PointCodec converts control points to and from their wire messages
type PointCodec struct {
	schema *schema.Schema
	diag   *diag.Collector
}

// NewPointCodec creates a codec for schema s reporting to c
func NewPointCodec(s *schema.Schema, c *diag.Collector) *PointCodec {
	if c == nil {
		c = diag.NewCollector(nil)
	}
	return &PointCodec{schema: s, diag: c}
}

// Schema returns the schema the codec encodes with
func (c *PointCodec) Schema() *schema.Schema {
	return c.schema
}

// EncodePoint serializes p. The returned slice length is the exact message size.
func (c *PointCodec) EncodePoint(p schema.Point) ([]byte, error) {
	id := p.ID()
	rec := p.Fields.Clone()

	if !rec.Has(schema.FieldReferenceIndex) {
		rec[schema.FieldReferenceIndex] = int32(0)
		c.diag.Report(errs.ErrMissingReferenceIndex, id, schema.FieldReferenceIndex)
	}
	for _, f := range c.schema.Point.Fields() {
		if f.Unsupported && rec.Has(f.Name) {
			delete(rec, f.Name)
			c.diag.Report(errs.ErrUnsupportedFieldIgnored, id, f.Column())
		}
	}

	if len(p.Measures) == 0 {
		return nil, fmt.Errorf("%w: point %q has no measures", errs.ErrMissingField, id)
	}
	ref, ok := wire.ToInt32(rec[schema.FieldReferenceIndex])
	if !ok {
		return nil, fmt.Errorf("%w: point %q: referenceIndex %v", errs.ErrInvalidFieldValue, id, rec[schema.FieldReferenceIndex])
	}
	if ref < 0 || int(ref) >= len(p.Measures) {
		return nil, fmt.Errorf("%w: point %q: referenceIndex %d with %d measures",
			errs.ErrInvalidFieldValue, id, ref, len(p.Measures))
	}

	measures := make([][]byte, 0, len(p.Measures))
	for i, m := range p.Measures {
		b, err := c.encodeMeasure(m)
		if err != nil {
			return nil, fmt.Errorf("point %q measure %d: %w", id, i, err)
		}
		measures = append(measures, b)
	}
	rec[schema.FieldMeasures] = measures

	b, err := wire.Marshal(c.schema.Point, rec)
	if err != nil {
		return nil, fmt.Errorf("point %q: %w", id, err)
	}
	return b, nil
}

func (c *PointCodec) encodeMeasure(m schema.Record) ([]byte, error) {
	rec := make(schema.Record, len(m))
	for k, v := range m {
		rec[k] = v
	}
	for _, f := range c.schema.Measure.Fields() {
		v, ok := rec.Get(f.Name)
		if !ok {
			continue
		}
		switch {
		case f.PixelCentered:
			x, ok := wire.ToFloat64(v)
			if !ok {
				return nil, fmt.Errorf("%w: %s is %T", errs.ErrInvalidFieldValue, f.Name, v)
			}
			rec[f.Name] = x + pixelOffset
		case f.Kind == schema.KindMessage && f.Name == schema.FieldLog:
			logs, err := toLogs(v)
			if err != nil {
				return nil, err
			}
			encoded := make([][]byte, 0, len(logs))
			for _, l := range logs {
				b, err := measurelog.ToWire(l, c.schema.Version)
				if err != nil {
					return nil, err
				}
				encoded = append(encoded, b)
			}
			rec[f.Name] = encoded
		}
	}
	return wire.Marshal(c.schema.Measure, rec)
}

func toLogs(v any) ([]measurelog.MeasureLog, error) {
	switch x := v.(type) {
	case []measurelog.MeasureLog:
		return x, nil
	case []*measurelog.MeasureLog:
		out := make([]measurelog.MeasureLog, 0, len(x))
		for _, l := range x {
			if l != nil {
				out = append(out, *l)
			}
		}
		return out, nil
	case []any:
		out := make([]measurelog.MeasureLog, 0, len(x))
		for _, e := range x {
			l, ok := e.(measurelog.MeasureLog)
			if !ok {
				return nil, fmt.Errorf("%w: measure log entry is %T", errs.ErrInvalidFieldValue, e)
			}
			out = append(out, l)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: measure log is %T", errs.ErrInvalidFieldValue, v)
}

// DecodePoint parses one point message. Failures wrap errs.ErrMalformedMessage.
func (c *PointCodec) DecodePoint(b []byte) (schema.Point, error) {
	rec, err := wire.Unmarshal(c.schema.Point, b)
	if err != nil {
		return schema.Point{}, err
	}

	rawMeasures, _ := rec[schema.FieldMeasures].([][]byte)
	delete(rec, schema.FieldMeasures)

	rawLogs, _ := rec[schema.FieldLog].([][]byte)
	logs := make([]measurelog.LogData, 0, len(rawLogs))
	for i, lb := range rawLogs {
		l, err := measurelog.DecodeLogData(lb, c.schema.Version)
		if err != nil {
			return schema.Point{}, fmt.Errorf("point log %d: %w", i, err)
		}
		logs = append(logs, l)
	}
	rec[schema.FieldLog] = logs
	c.schema.Point.FillDefaults(rec)

	p := schema.Point{Fields: rec, Measures: make([]schema.Record, 0, len(rawMeasures))}
	for i, mb := range rawMeasures {
		m, err := c.decodeMeasure(mb)
		if err != nil {
			return schema.Point{}, fmt.Errorf("point %q measure %d: %w", p.ID(), i, err)
		}
		p.Measures = append(p.Measures, m)
	}
	return p, nil
}

func (c *PointCodec) decodeMeasure(b []byte) (schema.Record, error) {
	rec, err := wire.Unmarshal(c.schema.Measure, b)
	if err != nil {
		return nil, err
	}
	rawLogs, _ := rec[schema.FieldLog].([][]byte)
	logs := make([]measurelog.MeasureLog, 0, len(rawLogs))
	for i, lb := range rawLogs {
		l, err := measurelog.Decode(lb, c.schema.Version)
		if err != nil {
			return nil, fmt.Errorf("%w: measure log %d: %w", errs.ErrMalformedMessage, i, err)
		}
		logs = append(logs, l)
	}
	rec[schema.FieldLog] = logs
	c.schema.Measure.FillDefaults(rec)

	for _, f := range c.schema.Measure.Fields() {
		if f.PixelCentered {
			rec[f.Name] = rec[f.Name].(float64) - pixelOffset
		}
	}
	return rec, nil
}
