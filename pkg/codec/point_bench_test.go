//go:build bench
// +build bench

package codec

import (
	"fmt"
	"testing"

	"github.com/ssargent/isiscnet/pkg/schema"
)

func pointWithMeasures(n int) schema.Point {
	p := schema.Point{Fields: schema.Record{"id": "bench", "referenceIndex": int32(0)}}
	for i := 0; i < n; i++ {
		p.Measures = append(p.Measures, schema.Record{
			"serialnumber": fmt.Sprintf("IMAGE/%06d", i),
			"sample":       float64(i),
			"line":         float64(2 * i),
		})
	}
	return p
}

func BenchmarkPointCodec_Encode(b *testing.B) {
	c := NewPointCodec(mustSchema(b, schema.V2), nil)

	for _, n := range []int{1, 10, 100} {
		p := pointWithMeasures(n)
		b.Run(fmt.Sprintf("measures=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := c.EncodePoint(p); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkPointCodec_Decode(b *testing.B) {
	c := NewPointCodec(mustSchema(b, schema.V2), nil)

	for _, n := range []int{1, 10, 100} {
		buf, err := c.EncodePoint(pointWithMeasures(n))
		if err != nil {
			b.Fatal(err)
		}
		b.Run(fmt.Sprintf("measures=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := c.DecodePoint(buf); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
