package store

import (
	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/wire"
)

// wireMeasures returns the measures of a point message without the pixel
// shift applied by the codec.
func wireMeasures(s *schema.Schema, point []byte) ([]schema.Record, error) {
	rec, err := wire.Unmarshal(s.Point, point)
	if err != nil {
		return nil, err
	}
	raw, _ := rec[schema.FieldMeasures].([][]byte)
	out := make([]schema.Record, 0, len(raw))
	for _, b := range raw {
		m, err := wire.Unmarshal(s.Measure, b)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
