package store

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/framing"
)

// PointWriter lays encoded point messages out in the points region
type PointWriter struct {
	writer  *bufio.Writer
	framing framing.Framing
	offset  int64 // Bytes written into the region
	limit   int64 // PointsBytes promised by the label
}

// NewPointWriter writes frames to region, which must start at
// PointsStartByte. limit is the PointsBytes total computed by FinalizeSizes.
func NewPointWriter(region io.Writer, f framing.Framing, limit int64, config PointWriterConfig) *PointWriter {
	var bw *bufio.Writer
	if config.BufferSize > 0 {
		bw = bufio.NewWriterSize(region, config.BufferSize)
	} else {
		bw = bufio.NewWriter(region)
	}
	return &PointWriter{writer: bw, framing: f, limit: limit}
}

// Put appends one encoded point and returns the region offset it starts at
func (w *PointWriter) Put(payload []byte) (int64, error) {
	start := w.offset
	n, err := w.framing.WriteFrame(w.writer, payload)
	w.offset += int64(n)
	if err != nil {
		return 0, err
	}
	if w.offset > w.limit {
		return 0, fmt.Errorf("%w: points region grew past %d bytes", errs.ErrInvalidState, w.limit)
	}
	return start, nil
}

// Flush writes buffered frames and checks the region is exactly full
func (w *PointWriter) Flush() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	if w.offset != w.limit {
		return fmt.Errorf("%w: wrote %d of %d point bytes", errs.ErrInvalidState, w.offset, w.limit)
	}
	return nil
}

// Size returns the bytes written so far
func (w *PointWriter) Size() int64 {
	return w.offset
}
