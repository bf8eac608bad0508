package store

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/ssargent/isiscnet/pkg/codec"
	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/framing"
	"github.com/ssargent/isiscnet/pkg/schema"
)

// PointEntry locates one point message inside the points region.
type PointEntry struct {
	Ordinal  int   // Position of the point in the file
	Offset   int64 // Region offset of the message payload
	Size     int   // Payload size in bytes
	Measures int   // Number of measures
}

// PointIndex maps point ids to their message locations
type PointIndex struct {
	entries map[string]*PointEntry
	mutex   sync.RWMutex
}

// NewPointIndex creates an empty point index
func NewPointIndex() *PointIndex {
	return &PointIndex{
		entries: make(map[string]*PointEntry),
	}
}

// Put adds or replaces the entry for id
func (idx *PointIndex) Put(id string, entry *PointEntry) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	idx.entries[id] = entry
}

// Get retrieves the entry for id
func (idx *PointIndex) Get(id string) (*PointEntry, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	entry, exists := idx.entries[id]
	return entry, exists
}

// Size returns the number of indexed points
func (idx *PointIndex) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return len(idx.entries)
}

// IDsWithPrefix returns the ids starting with prefix in file order
func (idx *PointIndex) IDsWithPrefix(prefix string) []string {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	var ids []string
	for id := range idx.entries {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return idx.entries[ids[i]].Ordinal < idx.entries[ids[j]].Ordinal
	})
	return ids
}

// BuildFromReader consumes reader and indexes every point it yields. A
// duplicated id keeps its first location.
func (idx *PointIndex) BuildFromReader(reader *PointReader) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries = make(map[string]*PointEntry)
	overhead := int64(0)
	if _, ok := reader.framing.(*framing.LengthPrefixed); ok {
		overhead = framing.PrefixSize
	}

	iterator := reader.Iterator()
	defer iterator.Close()

	start := reader.Offset()
	for iterator.Next() {
		p := iterator.Point()
		end := reader.Offset()
		if _, dup := idx.entries[p.ID()]; !dup {
			idx.entries[p.ID()] = &PointEntry{
				Ordinal:  reader.Count() - 1,
				Offset:   start + overhead,
				Size:     int(end - start - overhead),
				Measures: len(p.Measures),
			}
		}
		start = end
	}
	return iterator.Err()
}

// Index streams the points region and returns an index of it. The store
// stays in the header-parsed state so ReadPoint can be used afterwards.
func (s *NetworkStore) Index() (*PointIndex, error) {
	if s.state == stateOpen {
		if err := s.ReadHeader(); err != nil {
			return nil, err
		}
	}
	r, err := s.Points()
	if err != nil {
		return nil, err
	}
	idx := NewPointIndex()
	if err := idx.BuildFromReader(r); err != nil {
		return nil, err
	}
	return idx, nil
}

// ReadPoint decodes the single point at entry.
func (s *NetworkStore) ReadPoint(entry *PointEntry) (schema.Point, error) {
	if err := s.expect(ModeRead, stateHeaderParsed, statePointsStreamed); err != nil {
		return schema.Point{}, err
	}
	if entry.Offset < 0 || entry.Offset+int64(entry.Size) > s.layout.PointsBytes {
		return schema.Point{}, fmt.Errorf("%w: entry [%d, %d) outside points region",
			errs.ErrInvalidFieldValue, entry.Offset, entry.Offset+int64(entry.Size))
	}
	buf := make([]byte, entry.Size)
	if _, err := s.src.ReadAt(buf, s.layout.PointsStartByte+entry.Offset); err != nil && err != io.EOF {
		return schema.Point{}, fmt.Errorf("%w: %v", errs.ErrMalformedMessage, err)
	}
	return codec.NewPointCodec(s.schema, s.diag).DecodePoint(buf)
}
