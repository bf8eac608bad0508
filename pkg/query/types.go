// Package query filters the measure rows of a control network with field
// conditions such as "sample>=100" or "serialnumber=MRO/CTX/1".
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/ssargent/isiscnet/pkg/table"
)

// Operators in match order. Two-character operators come first so that
// "a>=1" is not read as "a>" "=1".
var operators = []string{"!=", ">=", "<=", "=", ">", "<"}

// FieldQuery represents a single field-based query condition
type FieldQuery struct {
	Field    string // Column name to query (e.g., "sample", "serialnumber")
	Operator string // Comparison operator: "=", "!=", ">", "<", ">=", "<="
	Value    any    // Value to compare against
}

// Validate checks if the query is properly formed
func (q *FieldQuery) Validate() error {
	if q.Field == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if q.Operator == "" {
		return fmt.Errorf("operator cannot be empty")
	}
	for _, op := range operators {
		if q.Operator == op {
			return nil
		}
	}
	return fmt.Errorf("invalid operator: %s", q.Operator)
}

func (q FieldQuery) String() string {
	return fmt.Sprintf("%s%s%v", q.Field, q.Operator, q.Value)
}

// ParseCondition parses "field<op>value". The value is kept as text and
// converted to the column's type when the query runs.
func ParseCondition(s string) (FieldQuery, error) {
	for i := 0; i < len(s); i++ {
		for _, op := range operators {
			if strings.HasPrefix(s[i:], op) {
				q := FieldQuery{
					Field:    strings.TrimSpace(s[:i]),
					Operator: op,
					Value:    strings.TrimSpace(s[i+len(op):]),
				}
				if err := q.Validate(); err != nil {
					return FieldQuery{}, fmt.Errorf("condition %q: %w", s, err)
				}
				return q, nil
			}
		}
	}
	return FieldQuery{}, fmt.Errorf("condition %q: no operator", s)
}

// ParseConditions parses each of conds.
func ParseConditions(conds []string) ([]FieldQuery, error) {
	out := make([]FieldQuery, 0, len(conds))
	for _, c := range conds {
		q, err := ParseCondition(c)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// QueryResult represents a single query result
type QueryResult struct {
	Position int       // Row position in the frame
	Row      table.Row // The measure row
}

// QueryIterator provides streaming access to query results
type QueryIterator interface {
	Next() bool
	Result() QueryResult
	Close() error
}

// QueryEngine handles query execution
type QueryEngine interface {
	ExecuteQuery(ctx context.Context, query FieldQuery) (QueryIterator, error)
	ExecuteRangeQuery(ctx context.Context, startQuery, endQuery FieldQuery) (QueryIterator, error)
	Execute(ctx context.Context, queries []FieldQuery) (QueryIterator, error)
}
