package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Operator is a condition comparison operator.
type Operator string

// The supported condition operators.
const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreaterThan    Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLessThan       Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpLike           Operator = "LIKE"
	OpIn             Operator = "IN"
	OpIsNull         Operator = "IS NULL"
	OpIsNotNull      Operator = "IS NOT NULL"
)

// Condition is a single column/operator/value predicate. Conditions on
// the same query are combined with logical AND.
//
// Evaluation policy: a missing column or a Null row value satisfies
// only IS NULL; unsupported operator/type combinations evaluate to
// false rather than erroring; ordering comparisons across mismatched
// non-null kinds surface ErrTypeMismatch.
type Condition struct {
	Column   string      `json:"column"`
	Operator Operator    `json:"operator"`
	Value    types.Value `json:"value"`
}

// NewCondition builds a condition.
func NewCondition(column string, op Operator, value types.Value) Condition {
	return Condition{Column: column, Operator: op, Value: value}
}

// Evaluate reports whether the row satisfies the condition.
func (c Condition) Evaluate(row *types.Row) (bool, error) {
	rowVal, present := row.Get(c.Column)

	switch c.Operator {
	case OpIsNull:
		return !present || rowVal.IsNull(), nil
	case OpIsNotNull:
		return present && !rowVal.IsNull(), nil
	}

	// Null matches nothing under every remaining operator.
	if !present || rowVal.IsNull() || c.Value.IsNull() {
		return false, nil
	}

	switch c.Operator {
	case OpEqual:
		return sameKind(rowVal, c.Value) && rowVal.Equal(c.Value), nil
	case OpNotEqual:
		return sameKind(rowVal, c.Value) && !rowVal.Equal(c.Value), nil
	case OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
		cmp, err := rowVal.Compare(c.Value)
		if err != nil {
			return false, fmt.Errorf("evaluating %q %s: %w", c.Column, c.Operator, err)
		}
		switch c.Operator {
		case OpGreaterThan:
			return cmp > 0, nil
		case OpGreaterOrEqual:
			return cmp >= 0, nil
		case OpLessThan:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	case OpLike:
		return c.evaluateLike(rowVal), nil
	case OpIn:
		return c.evaluateIn(rowVal), nil
	default:
		return false, nil
	}
}

func sameKind(a, b types.Value) bool { return a.Kind() == b.Kind() }

// evaluateLike matches TEXT row values against a TEXT pattern where %
// matches any run of characters and _ matches exactly one. The match is
// case-sensitive and anchored to the whole string.
func (c Condition) evaluateLike(rowVal types.Value) bool {
	text, ok := rowVal.AsText()
	if !ok {
		return false
	}
	pattern, ok := c.Value.AsText()
	if !ok {
		return false
	}
	re, err := regexp.Compile(likeToRegexp(pattern))
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// likeToRegexp translates a LIKE pattern into an anchored regular
// expression, escaping everything except the two wildcards.
func likeToRegexp(pattern string) string {
	var sb strings.Builder
	sb.WriteString(`\A`)
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(`(?s:.*)`)
		case '_':
			sb.WriteString(`(?s:.)`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString(`\z`)
	return sb.String()
}

// evaluateIn matches when the right-hand value is a JSON array and any
// of its elements equals the row value. Integer row values also match
// JSON numbers, which decode as floats.
func (c Condition) evaluateIn(rowVal types.Value) bool {
	payload, ok := c.Value.AsJSON()
	if !ok {
		return false
	}
	elems, ok := payload.([]any)
	if !ok {
		return false
	}
	for _, elem := range elems {
		if inElementEqual(rowVal, types.FromAny(elem)) {
			return true
		}
	}
	return false
}

func inElementEqual(rowVal, elem types.Value) bool {
	if rowVal.Kind() == elem.Kind() {
		return rowVal.Equal(elem)
	}
	if i, ok := rowVal.AsInt(); ok {
		if f, ok := elem.AsFloat(); ok {
			return float64(i) == f
		}
	}
	if f, ok := rowVal.AsFloat(); ok {
		if i, ok := elem.AsInt(); ok {
			return f == float64(i)
		}
	}
	return false
}
