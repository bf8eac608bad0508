// Package schema describes the on-disk layout of each supported control
// network version as static field tables.
//
// All version differences that are data (field lists, numbers, aliases) live
// in the tables built here once at init. The only behavioural difference
// between versions, how point messages are delimited, is named by Framing and
// implemented in package framing.
package schema

import (
	"fmt"
	"sort"

	"github.com/ssargent/isiscnet/pkg/errs"
)

// Version is a control network schema version.
type Version int

const (
	V2 Version = 2
	V5 Version = 5
)

func (v Version) String() string {
	return fmt.Sprintf("V%04d", int(v))
}

// DefaultVersion is written when the caller does not choose one.
const DefaultVersion = V2

// Framing names how point messages are delimited in the points region.
type Framing uint8

const (
	// FramingTable: the binary header carries every point message size.
	FramingTable Framing = iota + 1
	// FramingLengthPrefixed: every point message is preceded by a 4-byte
	// little-endian length.
	FramingLengthPrefixed
)

func (f Framing) String() string {
	switch f {
	case FramingTable:
		return "table"
	case FramingLengthPrefixed:
		return "length-prefixed"
	}
	return "unknown"
}

// Owner tells whether a tabular column comes from the point or the measure.
type Owner uint8

const (
	OwnerPoint Owner = iota + 1
	OwnerMeasure
)

// Column is one column of the flattened row-per-measure representation.
type Column struct {
	Name  string
	Owner Owner
	Field Field
}

// Names of fields the codec treats specially.
const (
	FieldID             = "id"
	FieldReferenceIndex = "referenceIndex"
	FieldMeasures       = "measures"
	FieldLog            = "log"
	FieldPointSizes     = "pointMessageSizes"
)

// Schema is the complete description of one version.
type Schema struct {
	Version    Version
	Framing    Framing
	Header     *Table
	Point      *Table
	Measure    *Table
	MeasureLog *Table
	PointLog   *Table

	columns  []Column
	byColumn map[string]int
}

func newSchema(v Version, framing Framing, header, point, measure, measureLog, pointLog *Table) *Schema {
	s := &Schema{
		Version:    v,
		Framing:    framing,
		Header:     header,
		Point:      point,
		Measure:    measure,
		MeasureLog: measureLog,
		PointLog:   pointLog,
		byColumn:   make(map[string]int),
	}
	add := func(owner Owner, f Field) {
		col := f.Column()
		if _, dup := s.byColumn[col]; dup {
			panic(fmt.Sprintf("schema: column %q collides in version %d; give it an alias", col, v))
		}
		s.byColumn[col] = len(s.columns)
		s.columns = append(s.columns, Column{Name: col, Owner: owner, Field: f})
	}
	for _, f := range point.Fields() {
		if f.Name == FieldMeasures {
			continue
		}
		add(OwnerPoint, f)
	}
	for _, f := range measure.Fields() {
		add(OwnerMeasure, f)
	}
	return s
}

// Columns returns point columns followed by measure columns.
func (s *Schema) Columns() []Column { return s.columns }

// ColumnNames returns the names of Columns.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Resolve maps a tabular column back to its owner and field.
func (s *Schema) Resolve(col string) (Column, bool) {
	i, ok := s.byColumn[col]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

var registry = map[Version]*Schema{
	V2: newSchema(V2, FramingTable,
		headerTable("ControlNetFileHeaderV0002", true),
		pointTable("ControlPointFileEntryV0002"),
		measureTable("ControlPointFileEntryV0002.Measure"),
		logDataTable("ControlPointFileEntryV0002.Measure.MeasureLogData"),
		logDataTable("ControlPointFileEntryV0002.PointLogData"),
	),
	V5: newSchema(V5, FramingLengthPrefixed,
		headerTable("ControlNetFileHeaderV0005", false),
		pointTable("ControlPointFileEntryV0005"),
		measureTable("ControlPointFileEntryV0005.Measure"),
		logDataTable("ControlPointFileEntryV0005.Measure.MeasureLogData"),
		logDataTable("ControlPointFileEntryV0005.PointLogData"),
	),
}

// Lookup returns the schema of v.
func Lookup(v Version) (*Schema, error) {
	s, ok := registry[v]
	if !ok {
		return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, int(v))
	}
	return s, nil
}

// ParseVersion validates a version number read from a label or flag.
func ParseVersion(n int64) (Version, error) {
	v := Version(n)
	if _, ok := registry[v]; !ok {
		return 0, fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, n)
	}
	return v, nil
}

// Versions lists the supported versions in ascending order.
func Versions() []Version {
	out := make([]Version, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
