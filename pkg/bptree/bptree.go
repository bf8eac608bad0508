// File: bptree.go
package bptree

import (
	"cmp"
	"sort"
	"sync"
)

// DefaultOrder is the fallback branching factor if a user-supplied order is too small.
const DefaultOrder = 4

// findChildIndex returns the child to follow for key in an internal node.
// Separator keys are the first key of their right subtree, so equal keys go right.
func findChildIndex[K cmp.Ordered](keys []K, key K) int {
	return sort.Search(len(keys), func(i int) bool {
		return cmp.Compare(key, keys[i]) < 0
	})
}

// findLeafSlot returns the position of the first key >= key in a leaf.
func findLeafSlot[K cmp.Ordered](keys []K, key K) int {
	return sort.Search(len(keys), func(i int) bool {
		return cmp.Compare(keys[i], key) >= 0
	})
}

// BPlusTree is an in-memory ordered map with linked leaves for range scans.
// It is safe for concurrent use; writers are serialized.
type BPlusTree[K cmp.Ordered, V any] struct {
	root   *node[K, V]
	order  int
	height int
	size   int
	m      sync.RWMutex
}

// node represents both internal and leaf nodes in the B+Tree.
type node[K cmp.Ordered, V any] struct {
	isLeaf   bool
	keys     []K
	children []*node[K, V] // used if !isLeaf
	values   []V           // used if isLeaf
	parent   *node[K, V]
	next     *node[K, V] // leaf-link pointer, for range scans
}

// NewBPlusTree creates and returns a B+Tree with the given order.
// If the specified order < 3, we fall back to DefaultOrder.
func NewBPlusTree[K cmp.Ordered, V any](order int) *BPlusTree[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	return &BPlusTree[K, V]{
		root: &node[K, V]{
			isLeaf: true,
			keys:   make([]K, 0, order+1),
			values: make([]V, 0, order+1),
		},
		order:  order,
		height: 1,
	}
}

func (tree *BPlusTree[K, V]) Height() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.height
}

// Len returns the number of distinct keys.
func (tree *BPlusTree[K, V]) Len() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.size
}

func (tree *BPlusTree[K, V]) findLeaf(key K) *node[K, V] {
	current := tree.root
	for !current.isLeaf {
		current = current.children[findChildIndex(current.keys, key)]
	}
	return current
}

func (tree *BPlusTree[K, V]) firstLeaf() *node[K, V] {
	current := tree.root
	for !current.isLeaf {
		current = current.children[0]
	}
	return current
}

// Search locates the value associated with key.
func (tree *BPlusTree[K, V]) Search(key K) (V, bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.findLeaf(key)
	i := findLeafSlot(leaf.keys, key)
	if i < len(leaf.keys) && cmp.Compare(leaf.keys[i], key) == 0 {
		return leaf.values[i], true
	}
	var zero V
	return zero, false
}

// Insert adds a (key, value) pair, replacing the value of an existing key.
func (tree *BPlusTree[K, V]) Insert(key K, value V) {
	tree.Upsert(key, func(V, bool) V { return value })
}

// Upsert stores fn(old, found) under key in a single write.
func (tree *BPlusTree[K, V]) Upsert(key K, fn func(old V, found bool) V) {
	tree.m.Lock()
	defer tree.m.Unlock()

	leaf := tree.findLeaf(key)
	i := findLeafSlot(leaf.keys, key)
	if i < len(leaf.keys) && cmp.Compare(leaf.keys[i], key) == 0 {
		leaf.values[i] = fn(leaf.values[i], true)
		return
	}

	var zero V
	leaf.keys = append(leaf.keys, key)
	leaf.values = append(leaf.values, zero)
	copy(leaf.keys[i+1:], leaf.keys[i:])
	copy(leaf.values[i+1:], leaf.values[i:])
	leaf.keys[i] = key
	leaf.values[i] = fn(zero, false)
	tree.size++

	if len(leaf.keys) > tree.order {
		tree.splitLeaf(leaf)
	}
}

// Bound is one end of a range scan.
type Bound[K cmp.Ordered] struct {
	Key       K
	Inclusive bool
	Open      bool // no limit on this side
}

// Unbounded returns a bound that admits every key.
func Unbounded[K cmp.Ordered]() Bound[K] {
	return Bound[K]{Open: true}
}

// Inclusive returns a bound that admits key itself.
func Inclusive[K cmp.Ordered](key K) Bound[K] {
	return Bound[K]{Key: key, Inclusive: true}
}

// Exclusive returns a bound that stops short of key.
func Exclusive[K cmp.Ordered](key K) Bound[K] {
	return Bound[K]{Key: key}
}

func (b Bound[K]) admitsLow(key K) bool {
	if b.Open {
		return true
	}
	c := cmp.Compare(key, b.Key)
	return c > 0 || (c == 0 && b.Inclusive)
}

func (b Bound[K]) admitsHigh(key K) bool {
	if b.Open {
		return true
	}
	c := cmp.Compare(key, b.Key)
	return c < 0 || (c == 0 && b.Inclusive)
}

// Range calls fn for each key in [lo, hi] in ascending order until fn returns false.
func (tree *BPlusTree[K, V]) Range(lo, hi Bound[K], fn func(K, V) bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.firstLeaf()
	if !lo.Open {
		leaf = tree.findLeaf(lo.Key)
	}
	for ; leaf != nil; leaf = leaf.next {
		for i, k := range leaf.keys {
			if !lo.admitsLow(k) {
				continue
			}
			if !hi.admitsHigh(k) {
				return
			}
			if !fn(k, leaf.values[i]) {
				return
			}
		}
	}
}

// splitLeaf handles splitting a leaf node that has overflowed.
func (tree *BPlusTree[K, V]) splitLeaf(leaf *node[K, V]) {
	mid := len(leaf.keys) / 2

	newLeaf := &node[K, V]{
		isLeaf: true,
		keys:   append([]K{}, leaf.keys[mid:]...),
		values: append([]V{}, leaf.values[mid:]...),
		next:   leaf.next,
		parent: leaf.parent,
	}

	leaf.keys = leaf.keys[:mid]
	leaf.values = leaf.values[:mid]
	leaf.next = newLeaf

	tree.insertInParent(leaf, newLeaf.keys[0], newLeaf)
}

// insertInParent links right next to left under separator key, growing a new root if needed.
func (tree *BPlusTree[K, V]) insertInParent(left *node[K, V], key K, right *node[K, V]) {
	parent := left.parent
	if parent == nil {
		newRoot := &node[K, V]{
			keys:     []K{key},
			children: []*node[K, V]{left, right},
		}
		left.parent = newRoot
		right.parent = newRoot
		tree.root = newRoot
		tree.height++
		return
	}

	idx := findChildIndex(parent.keys, key)
	parent.keys = append(parent.keys, key)
	copy(parent.keys[idx+1:], parent.keys[idx:])
	parent.keys[idx] = key

	parent.children = append(parent.children, right)
	copy(parent.children[idx+2:], parent.children[idx+1:])
	parent.children[idx+1] = right
	right.parent = parent

	if len(parent.keys) > tree.order {
		tree.splitInternal(parent)
	}
}

// splitInternal handles splitting an internal node that has overflowed.
func (tree *BPlusTree[K, V]) splitInternal(internal *node[K, V]) {
	mid := len(internal.keys) / 2
	splitKey := internal.keys[mid]

	newInternal := &node[K, V]{
		keys:     append([]K{}, internal.keys[mid+1:]...),
		children: append([]*node[K, V]{}, internal.children[mid+1:]...),
		parent:   internal.parent,
	}
	for _, child := range newInternal.children {
		child.parent = newInternal
	}

	internal.keys = internal.keys[:mid]
	internal.children = internal.children[:mid+1]

	tree.insertInParent(internal, splitKey, newInternal)
}
