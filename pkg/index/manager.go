// Package index builds ordered secondary indexes over the columns of a
// measure table, mapping column values to row positions.
package index

import (
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/ssargent/isiscnet/pkg/bptree"
	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/table"
	"github.com/ssargent/isiscnet/pkg/wire"
)

// Kind is the key domain of a column index.
type Kind int

const (
	// Numeric columns hold integers, doubles, enums and booleans (as 0 and 1).
	Numeric Kind = iota
	// Text columns hold strings.
	Text
)

func (k Kind) String() string {
	if k == Text {
		return "text"
	}
	return "numeric"
}

// SecondaryIndex is an ordered index over one column of a frame.
type SecondaryIndex struct {
	column  string
	kind    Kind
	rows    int
	numeric *bptree.BPlusTree[float64, []int]
	text    *bptree.BPlusTree[string, []int]
}

// NewSecondaryIndex indexes column of f. Rows where the column is absent
// are left out. Repeated and log columns cannot be indexed.
func NewSecondaryIndex(f *table.Frame, column string, order int) (*SecondaryIndex, error) {
	idx := &SecondaryIndex{column: column, kind: kindOf(f, column)}
	if idx.kind == Text {
		idx.text = bptree.NewBPlusTree[string, []int](order)
	} else {
		idx.numeric = bptree.NewBPlusTree[float64, []int](order)
	}

	for pos, row := range f.Rows {
		v, ok := row.Get(column)
		if !ok {
			continue
		}
		if err := idx.add(v, pos); err != nil {
			return nil, fmt.Errorf("%w: column %q row %d: %w", errs.ErrInvalidFieldValue, column, pos, err)
		}
		idx.rows++
	}
	return idx, nil
}

// kindOf picks the key domain from the first present value.
func kindOf(f *table.Frame, column string) Kind {
	for _, row := range f.Rows {
		if v, ok := row.Get(column); ok {
			if _, isText := v.(string); isText {
				return Text
			}
			return Numeric
		}
	}
	return Numeric
}

func appendPos(pos int) func([]int, bool) []int {
	return func(old []int, _ bool) []int { return append(old, pos) }
}

func (idx *SecondaryIndex) add(v any, pos int) error {
	if idx.kind == Text {
		s, ok := wire.ToString(v)
		if !ok {
			return fmt.Errorf("expected text, got %T", v)
		}
		idx.text.Upsert(s, appendPos(pos))
		return nil
	}
	f, ok := numericKey(v)
	if !ok {
		return fmt.Errorf("cannot index %T", v)
	}
	idx.numeric.Upsert(f, appendPos(pos))
	return nil
}

func numericKey(v any) (float64, bool) {
	if b, ok := v.(bool); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	return wire.ToFloat64(v)
}

// Column returns the indexed column name.
func (idx *SecondaryIndex) Column() string { return idx.column }

// Kind returns the key domain.
func (idx *SecondaryIndex) Kind() Kind { return idx.kind }

// Rows returns the number of indexed rows.
func (idx *SecondaryIndex) Rows() int { return idx.rows }

// Search returns the ascending row positions whose value equals value.
func (idx *SecondaryIndex) Search(value any) ([]int, error) {
	return idx.Lookup("=", value)
}

// SearchRange returns the row positions with values in [start, end].
// A nil start or end leaves that side open.
func (idx *SecondaryIndex) SearchRange(start, end any) ([]int, error) {
	if idx.kind == Text {
		lo, hi := textBounds(start, end)
		return collect(idx.text, lo, hi), nil
	}
	lo, hi, err := numericBounds(start, end)
	if err != nil {
		return nil, err
	}
	return collect(idx.numeric, lo, hi), nil
}

// Lookup returns the ascending row positions whose value satisfies op value,
// where op is one of =, !=, <, <=, > and >=.
func (idx *SecondaryIndex) Lookup(op string, value any) ([]int, error) {
	if idx.kind == Text {
		return lookup(idx.text, op, textKey(value))
	}
	f, err := parseNumeric(value)
	if err != nil {
		return nil, err
	}
	return lookup(idx.numeric, op, f)
}

func lookup[K float64 | string](tree *bptree.BPlusTree[K, []int], op string, key K) ([]int, error) {
	open := bptree.Unbounded[K]()
	switch op {
	case "=":
		return collect(tree, bptree.Inclusive(key), bptree.Inclusive(key)), nil
	case "!=":
		below := collect(tree, open, bptree.Exclusive(key))
		above := collect(tree, bptree.Exclusive(key), open)
		out := append(below, above...)
		slices.Sort(out)
		return out, nil
	case "<":
		return collect(tree, open, bptree.Exclusive(key)), nil
	case "<=":
		return collect(tree, open, bptree.Inclusive(key)), nil
	case ">":
		return collect(tree, bptree.Exclusive(key), open), nil
	case ">=":
		return collect(tree, bptree.Inclusive(key), open), nil
	}
	return nil, fmt.Errorf("unsupported operator: %s", op)
}

func collect[K float64 | string](tree *bptree.BPlusTree[K, []int], lo, hi bptree.Bound[K]) []int {
	var out []int
	tree.Range(lo, hi, func(_ K, positions []int) bool {
		out = append(out, positions...)
		return true
	})
	slices.Sort(out)
	return out
}

func textKey(v any) string {
	if s, ok := wire.ToString(v); ok {
		return s
	}
	return fmt.Sprint(v)
}

func parseNumeric(v any) (float64, error) {
	if s, ok := v.(string); ok {
		switch s {
		case "true":
			return 1, nil
		case "false":
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", errs.ErrInvalidFieldValue, s)
		}
		return f, nil
	}
	f, ok := numericKey(v)
	if !ok {
		return 0, fmt.Errorf("%w: %T is not a number", errs.ErrInvalidFieldValue, v)
	}
	return f, nil
}

func numericBounds(start, end any) (bptree.Bound[float64], bptree.Bound[float64], error) {
	lo, hi := bptree.Unbounded[float64](), bptree.Unbounded[float64]()
	if start != nil {
		f, err := parseNumeric(start)
		if err != nil {
			return lo, hi, err
		}
		lo = bptree.Inclusive(f)
	}
	if end != nil {
		f, err := parseNumeric(end)
		if err != nil {
			return lo, hi, err
		}
		hi = bptree.Inclusive(f)
	}
	return lo, hi, nil
}

func textBounds(start, end any) (bptree.Bound[string], bptree.Bound[string]) {
	lo, hi := bptree.Unbounded[string](), bptree.Unbounded[string]()
	if start != nil {
		lo = bptree.Inclusive(textKey(start))
	}
	if end != nil {
		hi = bptree.Inclusive(textKey(end))
	}
	return lo, hi
}

// IndexManager lazily builds and caches the indexes of one frame.
type IndexManager struct {
	frame   *table.Frame
	indexes map[string]*SecondaryIndex
	mutex   sync.Mutex
	order   int
}

// NewIndexManager creates a new index manager over f.
func NewIndexManager(f *table.Frame, order int) *IndexManager {
	return &IndexManager{
		frame:   f,
		indexes: make(map[string]*SecondaryIndex),
		order:   order,
	}
}

// Frame returns the indexed frame.
func (im *IndexManager) Frame() *table.Frame { return im.frame }

// GetOrCreateIndex returns the index of column, building it on first use.
func (im *IndexManager) GetOrCreateIndex(column string) (*SecondaryIndex, error) {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	if idx, exists := im.indexes[column]; exists {
		return idx, nil
	}
	if !slices.Contains(im.frame.Columns, column) {
		return nil, fmt.Errorf("%w: column %q", errs.ErrNotFound, column)
	}

	idx, err := NewSecondaryIndex(im.frame, column, im.order)
	if err != nil {
		return nil, err
	}
	im.indexes[column] = idx
	return idx, nil
}
