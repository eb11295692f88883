package query

import (
	"fmt"
	"sort"
	"time"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Engine executes queries against a table snapshot. It holds no state
// and never mutates the table; mutation kinds report how many rows
// would be affected so the caller can apply the change itself.
type Engine struct{}

// Execute runs q against tbl and reports the outcome.
func (Engine) Execute(tbl *types.Table, q *Query) (*Result, error) {
	start := time.Now()

	res := &Result{Kind: q.Kind, Table: q.Table}
	switch q.Kind {
	case KindSelect:
		rows, err := matchRows(tbl, q.Conditions)
		if err != nil {
			return nil, err
		}
		if err := sortRows(rows, q.OrderBy); err != nil {
			return nil, err
		}
		res.Rows = paginate(rows, q.Offset, q.Limit)
		res.Count = len(res.Rows)
	case KindCount:
		rows, err := matchRows(tbl, q.Conditions)
		if err != nil {
			return nil, err
		}
		res.Count = len(rows)
	case KindInsert:
		if q.Data == nil {
			return nil, fmt.Errorf("insert into %q: %w: missing row data", q.Table, types.ErrParse)
		}
		res.AffectedRows = 1
	case KindUpdate, KindDelete:
		rows, err := matchRows(tbl, q.Conditions)
		if err != nil {
			return nil, err
		}
		res.AffectedRows = len(rows)
	default:
		return nil, fmt.Errorf("execute: %w: unknown query kind %q", types.ErrParse, q.Kind)
	}

	res.ExecutionTimeMS = time.Since(start).Milliseconds()
	return res, nil
}

// matchRows returns the rows satisfying every condition, in table
// order.
func matchRows(tbl *types.Table, conds []Condition) ([]*types.Row, error) {
	var out []*types.Row
	for _, row := range tbl.Rows {
		ok, err := matches(row, conds)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func matches(row *types.Row, conds []Condition) (bool, error) {
	for _, c := range conds {
		ok, err := c.Evaluate(row)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// sortRows orders rows by the given keys. The sort is stable, so rows
// equal under every key keep their relative order. Missing columns and
// nulls sort first under ascending order.
func sortRows(rows []*types.Row, keys []OrderBy) error {
	if len(keys) == 0 {
		return nil
	}
	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range keys {
			a, _ := rows[i].Get(key.Column)
			b, _ := rows[j].Get(key.Column)
			cmp, err := a.Compare(b)
			if err != nil {
				if sortErr == nil {
					sortErr = fmt.Errorf("ordering by %q: %w", key.Column, err)
				}
				return false
			}
			if cmp == 0 {
				continue
			}
			if key.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	return sortErr
}

// paginate applies offset then limit. Out-of-range bounds clamp to an
// empty slice.
func paginate(rows []*types.Row, offset, limit *int) []*types.Row {
	if offset != nil {
		n := *offset
		if n < 0 {
			n = 0
		}
		if n >= len(rows) {
			return nil
		}
		rows = rows[n:]
	}
	if limit != nil {
		n := *limit
		if n < 0 {
			n = 0
		}
		if n < len(rows) {
			rows = rows[:n]
		}
	}
	return rows
}
