package backend

import (
	"encoding/json"
	"fmt"
)

// Row is one table row keyed by column name
type Row map[string]any

// Op is a filter comparison operator
type Op string

const (
	OpEq  Op = "eq"
	OpNeq Op = "neq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIs  Op = "is"
)

// Valid reports whether o is a known operator
func (o Op) Valid() bool {
	switch o {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpIs:
		return true
	}
	return false
}

// Filter restricts a query to rows where Column Op Value holds
type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter  { return Filter{Column: column, Op: OpEq, Value: value} }
func Gte(column string, value any) Filter { return Filter{Column: column, Op: OpGte, Value: value} }
func Lte(column string, value any) Filter { return Filter{Column: column, Op: OpLte, Value: value} }

// IsNull matches rows where column is NULL
func IsNull(column string) Filter { return Filter{Column: column, Op: OpIs, Value: nil} }

// Order sorts a query by a single column
type Order struct {
	Column    string
	Ascending bool
}

// Query describes a select: filters, an optional order and an optional limit (0 = none)
type Query struct {
	Filters []Filter
	Order   *Order
	Limit   int
}

// Where returns a query with only filters set
func Where(filters ...Filter) Query {
	return Query{Filters: filters}
}

// OrderBy returns a copy of q sorted by column
func (q Query) OrderBy(column string, ascending bool) Query {
	q.Order = &Order{Column: column, Ascending: ascending}
	return q
}

// WithLimit returns a copy of q capped at n rows
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// Encode converts a typed value into a Row using its json tags
func Encode(v any) (Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var row Row
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	return row, nil
}

// Decode overlays the columns present in row onto dst.
// Columns absent from row leave dst untouched.
func Decode(row Row, dst any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	return nil
}
