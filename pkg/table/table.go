// Package table maps control points to a flat row-per-measure table and back.
package table

import (
	"fmt"

	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/pvl"
	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/wire"
)

// Row is one measure with every attribute of its point, keyed by column name.
type Row map[string]any

// Get returns the value of col and whether it is present.
func (r Row) Get(col string) (any, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Frame is a control network in tabular form plus its metadata.
type Frame struct {
	Version schema.Version
	Columns []string
	Rows    []Row
	// Label is the parsed text label of the file the frame was read from.
	Label *pvl.Label
	Info  schema.NetworkInfo
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Column returns the values of col, nil where a row lacks it.
func (f *Frame) Column(col string) []any {
	out := make([]any, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r[col]
	}
	return out
}

// PointIDs returns the distinct point ids in first-occurrence order.
func (f *Frame) PointIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, r := range f.Rows {
		v, ok := r.Get(schema.FieldID)
		if !ok {
			continue
		}
		id, ok := wire.ToString(v)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Mapper flattens and groups with the column layout of one schema.
type Mapper struct {
	schema *schema.Schema
}

// NewMapper creates a mapper for s.
func NewMapper(s *schema.Schema) *Mapper {
	return &Mapper{schema: s}
}

// Columns returns the column layout: point columns, then measure columns.
func (m *Mapper) Columns() []string {
	return m.schema.ColumnNames()
}

// Flatten emits one row per measure in point order, then measure order. Every
// row owns copies of its slice values.
func (m *Mapper) Flatten(points []schema.Point) []Row {
	n := 0
	for _, p := range points {
		n += len(p.Measures)
	}
	rows := make([]Row, 0, n)
	for _, p := range points {
		for _, meas := range p.Measures {
			row := make(Row, len(p.Fields)+len(meas))
			for _, c := range m.schema.Columns() {
				var src schema.Record
				if c.Owner == schema.OwnerPoint {
					src = p.Fields
				} else {
					src = meas
				}
				if v, ok := src.Get(c.Field.Name); ok {
					row[c.Name] = schema.CloneValue(v)
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// Group rebuilds points from rows keyed by id, preserving the first-occurrence
// order of ids and the row order within each point. The first row of a point
// supplies its point columns; later rows are not compared against it.
func (m *Mapper) Group(rows []Row) ([]schema.Point, error) {
	index := make(map[string]int)
	var points []schema.Point
	for i, r := range rows {
		v, ok := r.Get(schema.FieldID)
		if !ok {
			return nil, fmt.Errorf("%w: row %d has no %s", errs.ErrMissingField, i, schema.FieldID)
		}
		id, ok := wire.ToString(v)
		if !ok {
			return nil, fmt.Errorf("%w: row %d: id is %T", errs.ErrInvalidFieldValue, i, v)
		}
		at, seen := index[id]
		if !seen {
			at = len(points)
			index[id] = at
			fields := m.pointFields(r)
			fields[schema.FieldID] = id
			points = append(points, schema.Point{Fields: fields})
		}
		points[at].Measures = append(points[at].Measures, m.measureFields(r))
	}
	return points, nil
}

func (m *Mapper) pointFields(r Row) schema.Record {
	rec := make(schema.Record)
	for _, c := range m.schema.Columns() {
		if c.Owner != schema.OwnerPoint {
			continue
		}
		if v, ok := r.Get(c.Name); ok {
			rec[c.Field.Name] = schema.CloneValue(v)
		}
	}
	return rec
}

func (m *Mapper) measureFields(r Row) schema.Record {
	rec := make(schema.Record)
	for _, c := range m.schema.Columns() {
		if c.Owner != schema.OwnerMeasure {
			continue
		}
		if v, ok := r.Get(c.Name); ok {
			rec[c.Field.Name] = schema.CloneValue(v)
		}
	}
	return rec
}
