// Package pvl reads and writes the ISIS flavour of PVL text labels.
//
// Only the subset used by control network labels is supported: Object and
// Group blocks, key = value assignments, quoted strings, sequences, comments
// and units. Keys are matched case-insensitively.
package pvl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ssargent/isiscnet/pkg/errs"
)

// Kind distinguishes Object blocks from Group blocks.
type Kind uint8

const (
	KindObject Kind = iota + 1
	KindGroup
)

func (k Kind) String() string {
	if k == KindGroup {
		return "Group"
	}
	return "Object"
}

// Aggregate is an Object or Group block.
type Aggregate struct {
	Kind  Kind
	Name  string
	Items []Item
}

// Item is either an assignment (Key, Value) or a nested block (Aggregate).
// Values are int64, float64, string or []any.
type Item struct {
	Key       string
	Value     any
	Aggregate *Aggregate
}

// Label is a parsed PVL document.
type Label struct {
	Items []Item
}

// KV builds an assignment item.
func KV(key string, value any) Item {
	return Item{Key: key, Value: value}
}

// Object builds an Object block item.
func Object(name string, items ...Item) Item {
	return Item{Key: name, Aggregate: &Aggregate{Kind: KindObject, Name: name, Items: items}}
}

// Group builds a Group block item.
func Group(name string, items ...Item) Item {
	return Item{Key: name, Aggregate: &Aggregate{Kind: KindGroup, Name: name, Items: items}}
}

// New builds a label from top-level items.
func New(items ...Item) *Label {
	return &Label{Items: items}
}

// Find returns the first assignment named key, searching depth first through
// every block.
func (l *Label) Find(key string) (any, bool) {
	if l == nil {
		return nil, false
	}
	return find(l.Items, key)
}

func find(items []Item, key string) (any, bool) {
	for _, it := range items {
		if it.Aggregate != nil {
			if v, ok := find(it.Aggregate.Items, key); ok {
				return v, true
			}
			continue
		}
		if strings.EqualFold(it.Key, key) {
			return it.Value, true
		}
	}
	return nil, false
}

// Block returns the first Object or Group named name.
func (l *Label) Block(name string) (*Aggregate, bool) {
	if l == nil {
		return nil, false
	}
	return block(l.Items, name)
}

func block(items []Item, name string) (*Aggregate, bool) {
	for _, it := range items {
		if it.Aggregate == nil {
			continue
		}
		if strings.EqualFold(it.Aggregate.Name, name) {
			return it.Aggregate, true
		}
		if a, ok := block(it.Aggregate.Items, name); ok {
			return a, true
		}
	}
	return nil, false
}

// Int returns the integer value of key.
func (l *Label) Int(key string) (int64, error) {
	v, ok := l.Find(key)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", errs.ErrMalformedHeader, key)
	}
	switch x := v.(type) {
	case int64:
		return x, nil
	case float64:
		if x == float64(int64(x)) {
			return int64(x), nil
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %s is not an integer: %v", errs.ErrMalformedHeader, key, v)
}

// String returns the value of key formatted as text.
func (l *Label) String(key string) (string, error) {
	v, ok := l.Find(key)
	if !ok {
		return "", fmt.Errorf("%w: missing %s", errs.ErrMalformedHeader, key)
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return formatValue(v)
}

// StringOr returns the value of key, or def when it is missing.
func (l *Label) StringOr(key, def string) string {
	s, err := l.String(key)
	if err != nil {
		return def
	}
	return s
}
