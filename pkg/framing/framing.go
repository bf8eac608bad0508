// Package framing delimits point messages inside the points region.
//
// Two strategies exist and the schema version picks one:
//
//	TableFramed     [point][point][point]...           sizes live in the binary header
//	LengthPrefixed  [len(4)][point][len(4)][point]...  len is uint32 little-endian
//
// TableFramed needs every size before the first point is written, so writers
// encode all points first. LengthPrefixed can only be decoded sequentially.
package framing

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/schema"
)

// PrefixSize is the length field of a length-prefixed frame.
const PrefixSize = 4

// Framing locates point buffers when reading and lays them out when writing.
type Framing interface {
	// NextPointBuffer returns the next point message, or io.EOF once the
	// region is exhausted.
	NextPointBuffer(r io.Reader) ([]byte, error)
	// FinalizeSizes turns the encoded message sizes into the size table for
	// the binary header (nil when the strategy has none) and the total
	// PointsBytes of the region.
	FinalizeSizes(sizes []int) ([]int32, int64, error)
	// WriteFrame writes one point message and returns the bytes written.
	WriteFrame(w io.Writer, payload []byte) (int, error)
	// Consumed returns the region bytes read so far.
	Consumed() int64
}

// ForRead returns the reading strategy of kind. sizes is the header size
// table; pointsBytes is the PointsBytes label value, or -1 when unknown.
func ForRead(kind schema.Framing, sizes []int32, pointsBytes int64) (Framing, error) {
	switch kind {
	case schema.FramingTable:
		return NewTableFramed(sizes, pointsBytes), nil
	case schema.FramingLengthPrefixed:
		if pointsBytes < 0 {
			return nil, fmt.Errorf("%w: length-prefixed points need PointsBytes", errs.ErrMalformedHeader)
		}
		return NewLengthPrefixed(pointsBytes), nil
	}
	return nil, fmt.Errorf("%w: framing %d", errs.ErrUnsupportedVersion, kind)
}

// ForWrite returns the writing strategy of kind.
func ForWrite(kind schema.Framing) (Framing, error) {
	return ForRead(kind, nil, 0)
}

// TableFramed reads buffers whose sizes come from the binary header.
type TableFramed struct {
	sizes       []int32
	pointsBytes int64
	next        int
	consumed    int64
}

// NewTableFramed creates a table-framed strategy. A negative pointsBytes
// skips the total check.
func NewTableFramed(sizes []int32, pointsBytes int64) *TableFramed {
	return &TableFramed{sizes: sizes, pointsBytes: pointsBytes}
}

func (t *TableFramed) NextPointBuffer(r io.Reader) ([]byte, error) {
	if t.next == len(t.sizes) {
		if t.pointsBytes >= 0 && t.consumed != t.pointsBytes {
			return nil, fmt.Errorf("%w: size table covers %d bytes, PointsBytes is %d",
				errs.ErrMalformedMessage, t.consumed, t.pointsBytes)
		}
		return nil, io.EOF
	}
	size := t.sizes[t.next]
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d for point %d", errs.ErrMalformedMessage, size, t.next)
	}
	if t.pointsBytes >= 0 && int64(size) > t.pointsBytes-t.consumed {
		return nil, fmt.Errorf("%w: point %d is %d bytes, %d remain in PointsBytes",
			errs.ErrMalformedMessage, t.next, size, t.pointsBytes-t.consumed)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: point %d: %v", errs.ErrMalformedMessage, t.next, err)
	}
	t.next++
	t.consumed += int64(size)
	return buf, nil
}

func (t *TableFramed) FinalizeSizes(sizes []int) ([]int32, int64, error) {
	table := make([]int32, len(sizes))
	var total int64
	for i, n := range sizes {
		if n < 0 || n > math.MaxInt32 {
			return nil, 0, fmt.Errorf("%w: point %d is %d bytes", errs.ErrInvalidFieldValue, i, n)
		}
		table[i] = int32(n)
		total += int64(n)
	}
	return table, total, nil
}

func (t *TableFramed) WriteFrame(w io.Writer, payload []byte) (int, error) {
	return w.Write(payload)
}

func (t *TableFramed) Consumed() int64 {
	return t.consumed
}

// LengthPrefixed reads self-delimiting frames until PointsBytes is consumed.
type LengthPrefixed struct {
	pointsBytes int64
	consumed    int64
	prefix      [PrefixSize]byte
}

// NewLengthPrefixed creates a length-prefixed strategy over pointsBytes.
func NewLengthPrefixed(pointsBytes int64) *LengthPrefixed {
	return &LengthPrefixed{pointsBytes: pointsBytes}
}

func (l *LengthPrefixed) NextPointBuffer(r io.Reader) ([]byte, error) {
	remaining := l.pointsBytes - l.consumed
	if remaining == 0 {
		return nil, io.EOF
	}
	if remaining < PrefixSize {
		return nil, fmt.Errorf("%w: %d trailing bytes in points region", errs.ErrMalformedMessage, remaining)
	}
	if _, err := io.ReadFull(r, l.prefix[:]); err != nil {
		return nil, fmt.Errorf("%w: length prefix at %d: %v", errs.ErrMalformedMessage, l.consumed, err)
	}
	size := int64(binary.LittleEndian.Uint32(l.prefix[:]))
	if size > remaining-PrefixSize {
		return nil, fmt.Errorf("%w: frame of %d bytes at %d overruns PointsBytes %d",
			errs.ErrMalformedMessage, size, l.consumed, l.pointsBytes)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: frame at %d: %v", errs.ErrMalformedMessage, l.consumed, err)
	}
	l.consumed += PrefixSize + size
	return buf, nil
}

func (l *LengthPrefixed) FinalizeSizes(sizes []int) ([]int32, int64, error) {
	var total int64
	for i, n := range sizes {
		if n < 0 || int64(n) > math.MaxUint32 {
			return nil, 0, fmt.Errorf("%w: point %d is %d bytes", errs.ErrInvalidFieldValue, i, n)
		}
		total += PrefixSize + int64(n)
	}
	return nil, total, nil
}

func (l *LengthPrefixed) WriteFrame(w io.Writer, payload []byte) (int, error) {
	var prefix [PrefixSize]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(payload)))
	n, err := w.Write(prefix[:])
	if err != nil {
		return n, err
	}
	m, err := w.Write(payload)
	return n + m, err
}

func (l *LengthPrefixed) Consumed() int64 {
	return l.consumed
}
