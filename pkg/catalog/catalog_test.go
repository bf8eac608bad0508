package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/isiscnet/pkg/errs"
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
			Fields: schema.Record{"id": "B", "type": int32(3), "referenceIndex": int32(1)},
			Measures: []schema.Record{
				{"serialnumber": "IMG_A", "sample": 10.0, "line": 20.0},
				{"serialnumber": "IMG_B", "sample": 11.25, "line": 21.75},
			},
		},
		{
			Fields:   schema.Record{"id": "A", "type": int32(2), "referenceIndex": int32(0)},
			Measures: []schema.Record{{"serialnumber": "IMG_C", "sample": 1.0, "line": 2.0}},
		},
	}
	return &table.Frame{
		Version: v,
		Columns: m.Columns(),
		Rows:    m.Flatten(points),
		Info:    schema.NetworkInfo{NetworkID: "net", TargetName: "Mars"},
	}
}

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCatalog_Ingest(t *testing.T) {
	for _, v := range schema.Versions() {
		t.Run(v.String(), func(t *testing.T) {
			c := openTestCatalog(t)
			fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
			c.now = func() time.Time { return fixed }

			entry, err := c.Ingest(testFrame(t, v), "net.bin")
			require.NoError(t, err)

			_, err = ksuid.Parse(entry.Key)
			assert.NoError(t, err)
			assert.Equal(t, "net.bin", entry.Source)
			assert.Equal(t, v, entry.Version)
			assert.Equal(t, 2, entry.Points)
			assert.Equal(t, 3, entry.Measures)
			assert.Equal(t, fixed, entry.IngestedAt)
			assert.Equal(t, "Mars", entry.Info.TargetName)

			got, err := c.Network(entry.Key)
			require.NoError(t, err)
			assert.Equal(t, entry, got)
		})
	}
}

func TestCatalog_Points(t *testing.T) {
	c := openTestCatalog(t)
	entry, err := c.Ingest(testFrame(t, schema.V5), "net.bin")
	require.NoError(t, err)

	ids, err := c.PointIDs(entry.Key)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids)

	p, err := c.Point(entry.Key, "B")
	require.NoError(t, err)
	assert.Equal(t, "B", p.ID())
	assert.Equal(t, int32(3), p.Fields["type"])
	assert.Equal(t, int32(1), p.Fields["referenceIndex"])
	require.Len(t, p.Measures, 2)
	assert.Equal(t, "IMG_B", p.Measures[1]["serialnumber"])
	assert.InDelta(t, 11.25, p.Measures[1]["sample"], 1e-12)
	assert.InDelta(t, 21.75, p.Measures[1]["line"], 1e-12)

	_, err = c.Point(entry.Key, "Z")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCatalog_Networks(t *testing.T) {
	c := openTestCatalog(t)

	entries, err := c.Networks()
	require.NoError(t, err)
	assert.Empty(t, entries)

	first, err := c.Ingest(testFrame(t, schema.V2), "first.bin")
	require.NoError(t, err)
	second, err := c.Ingest(testFrame(t, schema.V5), "second.bin")
	require.NoError(t, err)

	entries, err = c.Networks()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	keys := []string{entries[0].Key, entries[1].Key}
	assert.ElementsMatch(t, []string{first.Key, second.Key}, keys)
}

func TestCatalog_Delete(t *testing.T) {
	c := openTestCatalog(t)
	keep, err := c.Ingest(testFrame(t, schema.V2), "keep.bin")
	require.NoError(t, err)
	drop, err := c.Ingest(testFrame(t, schema.V2), "drop.bin")
	require.NoError(t, err)

	require.NoError(t, c.Delete(drop.Key))

	_, err = c.Network(drop.Key)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = c.PointIDs(drop.Key)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, c.Delete(drop.Key), errs.ErrNotFound)

	ids, err := c.PointIDs(keep.Key)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestCatalog_IngestErrors(t *testing.T) {
	tests := []struct {
		name    string
		frame   func(t *testing.T) *table.Frame
		wantErr error
	}{
		{
			name: "unsupported version",
			frame: func(t *testing.T) *table.Frame {
				f := testFrame(t, schema.V2)
				f.Version = 3
				return f
			},
			wantErr: errs.ErrUnsupportedVersion,
		},
		{
			name: "row without id",
			frame: func(t *testing.T) *table.Frame {
				f := testFrame(t, schema.V2)
				delete(f.Rows[0], "id")
				return f
			},
			wantErr: errs.ErrMissingField,
		},
		{
			name: "reference index out of range",
			frame: func(t *testing.T) *table.Frame {
				f := testFrame(t, schema.V2)
				for _, r := range f.Rows {
					r["referenceIndex"] = int32(7)
				}
				return f
			},
			wantErr: errs.ErrInvalidFieldValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := openTestCatalog(t)
			_, err := c.Ingest(tt.frame(t), "bad.bin")
			assert.ErrorIs(t, err, tt.wantErr)

			entries, err := c.Networks()
			require.NoError(t, err)
			assert.Empty(t, entries, "failed ingests leave nothing behind")
		})
	}
}

func TestCatalog_MissingNetwork(t *testing.T) {
	c := openTestCatalog(t)
	_, err := c.Network("nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = c.Point("nope", "A")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
