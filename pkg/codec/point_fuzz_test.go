package codec

import (
	"errors"
	"math"
	"testing"

	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/schema"
)

// FuzzPointCodec_RoundTrip checks that pixel coordinates survive the +0.5/-0.5
// shift for arbitrary values.
func FuzzPointCodec_RoundTrip(f *testing.F) {
	f.Add("P1", 10.0, 20.0, int32(2))
	f.Add("", 0.0, -0.5, int32(0))
	f.Add("unicode ☾", 1e12, -1e-9, int32(4))

	c := NewPointCodec(mustSchema(f, schema.V5), nil)

	f.Fuzz(func(t *testing.T, id string, sample, line float64, pointType int32) {
		if math.IsNaN(sample) || math.IsNaN(line) || math.IsInf(sample, 0) || math.IsInf(line, 0) {
			t.Skip("non-finite coordinates")
		}
		p := schema.Point{
			Fields:   schema.Record{"id": id, "type": pointType, "referenceIndex": int32(0)},
			Measures: []schema.Record{{"sample": sample, "line": line}},
		}
		b, err := c.EncodePoint(p)
		if !schema.PointType.Valid(pointType) {
			if !errors.Is(err, errs.ErrInvalidFieldValue) {
				t.Fatalf("type %d accepted: %v", pointType, err)
			}
			return
		}
		if err != nil {
			t.Fatalf("EncodePoint failed: %v", err)
		}

		out, err := c.DecodePoint(b)
		if err != nil {
			t.Fatalf("DecodePoint failed: %v", err)
		}
		if out.ID() != id {
			t.Errorf("id mismatch: got %q, want %q", out.ID(), id)
		}
		if got, want := out.Measures[0]["sample"].(float64), (sample+0.5)-0.5; got != want {
			t.Errorf("sample mismatch: got %v, want %v", got, want)
		}
		if got, want := out.Measures[0]["line"].(float64), (line+0.5)-0.5; got != want {
			t.Errorf("line mismatch: got %v, want %v", got, want)
		}
	})
}

// FuzzPointCodec_MalformedData tests handling of malformed input
func FuzzPointCodec_MalformedData(f *testing.F) {
	c := NewPointCodec(mustSchema(f, schema.V2), nil)

	valid, err := c.EncodePoint(samplePoint())
	if err != nil {
		f.Fatal(err)
	}
	f.Add([]byte{})
	f.Add([]byte{0x01})
	f.Add([]byte{0xca, 0x01, 0x05, 0x01})
	f.Add(valid)

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		// Decoding must never panic; errors must be typed.
		_, err := c.DecodePoint(data)
		if err != nil && !errors.Is(err, errs.ErrMalformedMessage) {
			t.Fatalf("untyped decode error: %v", err)
		}
	})
}
