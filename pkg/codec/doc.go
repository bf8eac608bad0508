// Package codec serializes control points and the binary network header.
//
// A control point travels as one protobuf message (ControlPointFileEntryV0002
// or ControlPointFileEntryV0005) that embeds its measures, and each measure
// embeds its MeasureLogData entries. The field layout of every message comes
// from package schema; this package adds the semantics the tables cannot
// express.
//
// # Pixel Convention
//
// ISIS pixels are centered on (0.5, 0.5) while callers use corner-origin
// coordinates. EncodePoint adds 0.5 to sample, line, apriorisample and
// aprioriline when present, immediately before serialization. DecodePoint
// subtracts 0.5 from the same four fields after defaults are filled, so an
// unset apriori coordinate reads back as -0.5 and is written back as 0.
//
// # Sparse Records
//
// A field that is absent from a record is omitted from the message. Decoding
// fills every absent scalar with its protobuf getter default, so decoded
// records always carry every declared column.
//
// # Diagnostics
//
// Two conditions are reported to the diag.Collector instead of failing:
//   - a point without referenceIndex is written with referenceIndex 0
//   - a point carrying a point log is written without it; point logs are
//     never written by any version
//
// # Usage
//
//	s, err := schema.Lookup(schema.V5)
//	if err != nil {
//	    return err
//	}
//	c := codec.NewPointCodec(s, diag.NewCollector(logger))
//
//	buf, err := c.EncodePoint(point)
//	if err != nil {
//	    return err
//	}
//
//	decoded, err := c.DecodePoint(buf)
//	if err != nil {
//	    return err // wraps errs.ErrMalformedMessage
//	}
//
// # Thread Safety
//
// A PointCodec shares its collector and is meant for one read or write at a
// time.
package codec
