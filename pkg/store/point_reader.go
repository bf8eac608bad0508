package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/ssargent/isiscnet/pkg/codec"
	"github.com/ssargent/isiscnet/pkg/framing"
	"github.com/ssargent/isiscnet/pkg/schema"
)

// PointReader provides sequential access to the points region of a network
type PointReader struct {
	reader  *bufio.Reader
	framing framing.Framing
	codec   *codec.PointCodec
	index   int
}

// NewPointReader reads points from region, which must start at the first
// point frame.
func NewPointReader(region io.Reader, f framing.Framing, c *codec.PointCodec, config PointReaderConfig) *PointReader {
	var br *bufio.Reader
	if config.BufferSize > 0 {
		br = bufio.NewReaderSize(region, config.BufferSize)
	} else {
		br = bufio.NewReader(region)
	}
	return &PointReader{reader: br, framing: f, codec: c}
}

// ReadNext decodes the next point. It returns io.EOF once the region is
// exhausted.
func (r *PointReader) ReadNext() (schema.Point, error) {
	buf, err := r.framing.NextPointBuffer(r.reader)
	if err != nil {
		return schema.Point{}, err
	}
	p, err := r.codec.DecodePoint(buf)
	if err != nil {
		return schema.Point{}, fmt.Errorf("point %d: %w", r.index, err)
	}
	r.index++
	return p, nil
}

// Offset returns the bytes of the region consumed so far
func (r *PointReader) Offset() int64 {
	return r.framing.Consumed()
}

// Count returns the number of points decoded so far
func (r *PointReader) Count() int {
	return r.index
}

// Iterator returns a streaming iterator for points
func (r *PointReader) Iterator() PointIterator {
	return &pointIterator{reader: r}
}

// pointIterator implements PointIterator for streaming access
type pointIterator struct {
	reader *PointReader
	point  schema.Point
	err    error
}

func (it *pointIterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.point, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *pointIterator) Point() schema.Point {
	return it.point
}

func (it *pointIterator) Err() error {
	if errors.Is(it.err, io.EOF) {
		return nil
	}
	return it.err
}

func (it *pointIterator) Close() error {
	// The region is owned by the store
	return nil
}
