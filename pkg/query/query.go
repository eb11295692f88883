package query

import "github.com/mesh-intelligence/larder/pkg/types"

// Kind discriminates the five query shapes.
type Kind string

const (
	KindSelect Kind = "SELECT"
	KindInsert Kind = "INSERT"
	KindUpdate Kind = "UPDATE"
	KindDelete Kind = "DELETE"
	KindCount  Kind = "COUNT"
)

// OrderBy names a sort key and its direction.
type OrderBy struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// Query is a declarative request against a single table. Build one
// with the kind constructors and chain Where/Sort/Limit/Offset.
//
// Data carries the row payload for INSERT and the column assignments
// for UPDATE; the other kinds ignore it.
type Query struct {
	Kind       Kind                   `json:"kind"`
	Table      string                 `json:"table"`
	Conditions []Condition            `json:"conditions,omitempty"`
	OrderBy    []OrderBy              `json:"order_by,omitempty"`
	Limit      *int                   `json:"limit,omitempty"`
	Offset     *int                   `json:"offset,omitempty"`
	Data       map[string]types.Value `json:"data,omitempty"`
}

// Select starts a row-returning query against table.
func Select(table string) *Query {
	return &Query{Kind: KindSelect, Table: table}
}

// Insert starts an insert of one row into table.
func Insert(table string, data map[string]types.Value) *Query {
	return &Query{Kind: KindInsert, Table: table, Data: data}
}

// Update starts an update applying the given column assignments to
// every matching row.
func Update(table string, data map[string]types.Value) *Query {
	return &Query{Kind: KindUpdate, Table: table, Data: data}
}

// Delete starts a delete of every matching row in table.
func Delete(table string) *Query {
	return &Query{Kind: KindDelete, Table: table}
}

// Count starts a query returning only the number of matching rows.
func Count(table string) *Query {
	return &Query{Kind: KindCount, Table: table}
}

// Where appends a condition. All conditions must hold for a row to
// match.
func (q *Query) Where(column string, op Operator, value types.Value) *Query {
	q.Conditions = append(q.Conditions, NewCondition(column, op, value))
	return q
}

// Sort appends a sort key. Earlier keys take precedence; rows equal
// under every key keep their insertion order.
func (q *Query) Sort(column string, ascending bool) *Query {
	q.OrderBy = append(q.OrderBy, OrderBy{Column: column, Ascending: ascending})
	return q
}

// WithLimit caps the number of rows returned, applied after ordering
// and offset.
func (q *Query) WithLimit(n int) *Query {
	q.Limit = &n
	return q
}

// WithOffset skips the first n rows of the ordered result. An offset
// past the end yields an empty result, not an error.
func (q *Query) WithOffset(n int) *Query {
	q.Offset = &n
	return q
}
