package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/measurelog"
	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/table"
)

func testFrame(t *testing.T, v schema.Version) *table.Frame {
	t.Helper()
	s, err := schema.Lookup(v)
	require.NoError(t, err)
	m := table.NewMapper(s)
	points := []schema.Point{
		{
			Fields: schema.Record{"id": "P1", "type": int32(2), "referenceIndex": int32(0), "aprioriCovar": []float64{1, 2, 3}},
			Measures: []schema.Record{
				{"serialnumber": "IMG_A", "sample": 1.5, "line": 2.5, "log": []measurelog.MeasureLog{{Type: measurelog.GoodnessOfFit, Value: 0.75}}},
				{"serialnumber": "IMG_B", "sample": 3.0, "line": 4.0, "ignore": true},
			},
		},
		{
			Fields:   schema.Record{"id": "P2", "type": int32(3), "referenceIndex": int32(0)},
			Measures: []schema.Record{{"serialnumber": "IMG_C", "sample": 5.0, "line": 6.0}},
		},
	}
	return &table.Frame{Version: v, Columns: m.Columns(), Rows: m.Flatten(points)}
}

func TestArrowSchema(t *testing.T) {
	s, err := schema.Lookup(schema.V2)
	require.NoError(t, err)
	as, err := ArrowSchema(s)
	require.NoError(t, err)

	tests := []struct {
		column string
		want   arrow.DataType
	}{
		{"id", arrow.BinaryTypes.String},
		{"pointType", arrow.PrimitiveTypes.Int32},
		{"referenceIndex", arrow.PrimitiveTypes.Int32},
		{"pointIgnore", arrow.FixedWidthTypes.Boolean},
		{"aprioriCovar", arrow.ListOf(arrow.PrimitiveTypes.Float64)},
		{"sample", arrow.PrimitiveTypes.Float64},
		{"measureLog", measureLogType},
		{"pointLog", pointLogType},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			idx := as.FieldIndices(tt.column)
			require.Len(t, idx, 1)
			f := as.Field(idx[0])
			assert.True(t, arrow.TypeEqual(tt.want, f.Type), "got %s", f.Type)
			assert.True(t, f.Nullable)
		})
	}
	assert.Equal(t, len(s.Columns()), len(as.Fields()))
}

func TestWriteArrow(t *testing.T) {
	for _, v := range schema.Versions() {
		t.Run(v.String(), func(t *testing.T) {
			frame := testFrame(t, v)
			var buf bytes.Buffer
			require.NoError(t, WriteArrow(&buf, frame))

			r, err := ipc.NewReader(&buf)
			require.NoError(t, err)
			defer r.Release()

			require.True(t, r.Next())
			rec := r.Record()
			assert.Equal(t, int64(3), rec.NumRows())
			assert.Equal(t, int64(len(frame.Columns)), rec.NumCols())

			col := func(name string) arrow.Array {
				idx := rec.Schema().FieldIndices(name)
				require.Len(t, idx, 1)
				return rec.Column(idx[0])
			}

			ids := col("id").(*array.String)
			assert.Equal(t, "P1", ids.Value(0))
			assert.Equal(t, "P2", ids.Value(2))

			samples := col("sample").(*array.Float64)
			assert.Equal(t, 1.5, samples.Value(0))
			assert.Equal(t, 5.0, samples.Value(2))

			ignore := col("measureIgnore").(*array.Boolean)
			assert.True(t, ignore.IsNull(0))
			assert.True(t, ignore.Value(1))

			covar := col("aprioriCovar").(*array.List)
			assert.False(t, covar.IsNull(0))
			assert.True(t, covar.IsNull(2))
			values := covar.ListValues().(*array.Float64)
			assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, values.Float64Values())

			logs := col("measureLog").(*array.List)
			assert.False(t, logs.IsNull(0))
			entries := logs.ListValues().(*array.Struct)
			require.Equal(t, 1, entries.Len())
			assert.Equal(t, "GoodnessOfFit", entries.Field(0).(*array.String).Value(0))
			assert.Equal(t, 0.75, entries.Field(1).(*array.Float64).Value(0))

			assert.False(t, r.Next())
		})
	}
}

func TestWriteArrow_Batches(t *testing.T) {
	s, err := schema.Lookup(schema.V5)
	require.NoError(t, err)
	m := table.NewMapper(s)
	points := make([]schema.Point, recordBatchSize+10)
	for i := range points {
		points[i] = schema.Point{
			Fields:   schema.Record{"id": "P", "referenceIndex": int32(0)},
			Measures: []schema.Record{{"serialnumber": "S", "sample": float64(i)}},
		}
	}
	frame := &table.Frame{Version: schema.V5, Columns: m.Columns(), Rows: m.Flatten(points)}

	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, frame))

	r, err := ipc.NewReader(&buf)
	require.NoError(t, err)
	defer r.Release()

	var sizes []int64
	for r.Next() {
		sizes = append(sizes, r.Record().NumRows())
	}
	assert.Equal(t, []int64{recordBatchSize, 10}, sizes)
}

func TestWriteArrow_Errors(t *testing.T) {
	t.Run("unsupported version", func(t *testing.T) {
		frame := testFrame(t, schema.V2)
		frame.Version = 4
		err := WriteArrow(&bytes.Buffer{}, frame)
		assert.ErrorIs(t, err, errs.ErrUnsupportedVersion)
	})

	t.Run("wrong value type", func(t *testing.T) {
		frame := testFrame(t, schema.V2)
		frame.Rows[1]["sample"] = "left"
		err := WriteArrow(&bytes.Buffer{}, frame)
		assert.ErrorIs(t, err, errs.ErrInvalidFieldValue)
		assert.Contains(t, err.Error(), "row 1")
	})
}

func TestWriteCSV(t *testing.T) {
	frame := testFrame(t, schema.V2)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, frame))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, frame.Columns, records[0])

	cell := func(row int, col string) string {
		for i, c := range records[0] {
			if c == col {
				return records[row][i]
			}
		}
		t.Fatalf("no column %s", col)
		return ""
	}

	assert.Equal(t, "P1", cell(1, "id"))
	assert.Equal(t, "2", cell(1, "pointType"))
	assert.Equal(t, "1.5", cell(1, "sample"))
	assert.Equal(t, "[1,2,3]", cell(1, "aprioriCovar"))
	assert.Equal(t, `[{"type":"GoodnessOfFit","value":0.75}]`, cell(1, "measureLog"))
	assert.Equal(t, "true", cell(2, "measureIgnore"))
	assert.Equal(t, "", cell(3, "aprioriCovar"))
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "a,b", "a,b"},
		{"float", 0.1, "0.1"},
		{"int32", int32(-4), "-4"},
		{"bool", false, "false"},
		{"strings", []string{"x"}, `["x"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatCell(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
