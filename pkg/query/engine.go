package query

import (
	"context"
	"fmt"

	"github.com/ssargent/isiscnet/pkg/index"
	"github.com/ssargent/isiscnet/pkg/table"
)

// DefaultIndexOrder is the branching factor of the column indexes built for a query.
const DefaultIndexOrder = 32

// SimpleQueryEngine answers field queries over one frame using column indexes.
type SimpleQueryEngine struct {
	indexManager *index.IndexManager
}

var _ QueryEngine = (*SimpleQueryEngine)(nil)

// NewSimpleQueryEngine creates a new query engine
func NewSimpleQueryEngine(indexManager *index.IndexManager) *SimpleQueryEngine {
	return &SimpleQueryEngine{indexManager: indexManager}
}

// ExecuteQuery executes a single field query
func (qe *SimpleQueryEngine) ExecuteQuery(ctx context.Context, query FieldQuery) (QueryIterator, error) {
	positions, err := qe.positions(ctx, query)
	if err != nil {
		return nil, err
	}
	return qe.iterator(positions), nil
}

// ExecuteRangeQuery returns the rows whose field lies between the values of
// startQuery and endQuery, both inclusive.
func (qe *SimpleQueryEngine) ExecuteRangeQuery(ctx context.Context, startQuery, endQuery FieldQuery) (QueryIterator, error) {
	if err := startQuery.Validate(); err != nil {
		return nil, fmt.Errorf("invalid start query: %w", err)
	}
	if err := endQuery.Validate(); err != nil {
		return nil, fmt.Errorf("invalid end query: %w", err)
	}

	// Ensure both queries are for the same field
	if startQuery.Field != endQuery.Field {
		return nil, fmt.Errorf("range query fields must match: %s != %s", startQuery.Field, endQuery.Field)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, err := qe.indexManager.GetOrCreateIndex(startQuery.Field)
	if err != nil {
		return nil, err
	}
	positions, err := idx.SearchRange(startQuery.Value, endQuery.Value)
	if err != nil {
		return nil, fmt.Errorf("range search failed: %w", err)
	}
	return qe.iterator(positions), nil
}

// Execute returns the rows matching every query, in frame order.
func (qe *SimpleQueryEngine) Execute(ctx context.Context, queries []FieldQuery) (QueryIterator, error) {
	if len(queries) == 0 {
		all := make([]int, qe.indexManager.Frame().Len())
		for i := range all {
			all[i] = i
		}
		return qe.iterator(all), nil
	}

	var positions []int
	for i, q := range queries {
		matched, err := qe.positions(ctx, q)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			positions = matched
		} else {
			positions = intersect(positions, matched)
		}
		if len(positions) == 0 {
			break
		}
	}
	return qe.iterator(positions), nil
}

func (qe *SimpleQueryEngine) positions(ctx context.Context, query FieldQuery) ([]int, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, err := qe.indexManager.GetOrCreateIndex(query.Field)
	if err != nil {
		return nil, err
	}
	positions, err := idx.Lookup(query.Operator, query.Value)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}
	return positions, nil
}

func (qe *SimpleQueryEngine) iterator(positions []int) *simpleIterator {
	rows := qe.indexManager.Frame().Rows
	results := make([]QueryResult, len(positions))
	for i, pos := range positions {
		results[i] = QueryResult{Position: pos, Row: rows[pos]}
	}
	return &simpleIterator{results: results}
}

// intersect merges two ascending position lists.
func intersect(a, b []int) []int {
	var out []int
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// Filter returns a copy of f holding only the rows that match every
// condition. Metadata and columns are shared with f.
func Filter(ctx context.Context, f *table.Frame, conds []string) (*table.Frame, error) {
	if len(conds) == 0 {
		return f, nil
	}
	queries, err := ParseConditions(conds)
	if err != nil {
		return nil, err
	}
	engine := NewSimpleQueryEngine(index.NewIndexManager(f, DefaultIndexOrder))
	it, err := engine.Execute(ctx, queries)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	out := *f
	out.Rows = nil
	for it.Next() {
		out.Rows = append(out.Rows, it.Result().Row)
	}
	return &out, nil
}

// simpleIterator implements QueryIterator for basic result streaming
type simpleIterator struct {
	results []QueryResult
	index   int
}

func (it *simpleIterator) Next() bool {
	if it.index < len(it.results) {
		it.index++
		return true
	}
	return false
}

func (it *simpleIterator) Result() QueryResult {
	if it.index > 0 && it.index <= len(it.results) {
		return it.results[it.index-1]
	}
	return QueryResult{}
}

func (it *simpleIterator) Close() error {
	return nil
}
