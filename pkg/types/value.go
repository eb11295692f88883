package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// DataType identifies one of the closed set of column types.
type DataType string

// The supported column data types.
const (
	TypeInteger  DataType = "INTEGER"
	TypeText     DataType = "TEXT"
	TypeBoolean  DataType = "BOOLEAN"
	TypeFloat    DataType = "FLOAT"
	TypeDate     DataType = "DATE"
	TypeTime     DataType = "TIME"
	TypeDateTime DataType = "DATETIME"
	TypeJSON     DataType = "JSON"
	TypeBinary   DataType = "BINARY"

	// TypeNull is the kind of the Null value. It is never a valid
	// column type.
	TypeNull DataType = "NULL"
)

// validDataTypes is the set of types a column may declare.
var validDataTypes = map[DataType]bool{
	TypeInteger:  true,
	TypeText:     true,
	TypeBoolean:  true,
	TypeFloat:    true,
	TypeDate:     true,
	TypeTime:     true,
	TypeDateTime: true,
	TypeJSON:     true,
	TypeBinary:   true,
}

// Valid reports whether d is a declarable column type.
func (d DataType) Valid() bool {
	return validDataTypes[d]
}

// ParseDataType maps a type name (with common aliases) to a DataType.
// Returns ErrParse for unknown names.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INTEGER", "INT":
		return TypeInteger, nil
	case "TEXT", "STRING", "VARCHAR":
		return TypeText, nil
	case "BOOLEAN", "BOOL":
		return TypeBoolean, nil
	case "FLOAT", "DOUBLE", "REAL":
		return TypeFloat, nil
	case "DATE":
		return TypeDate, nil
	case "TIME":
		return TypeTime, nil
	case "DATETIME", "TIMESTAMP":
		return TypeDateTime, nil
	case "JSON":
		return TypeJSON, nil
	case "BINARY", "BLOB":
		return TypeBinary, nil
	default:
		return "", fmt.Errorf("%w: unknown data type %q", ErrParse, s)
	}
}

// Wire layouts for the temporal kinds.
const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Value is a closed tagged union over the supported data types. The
// zero Value is Null. Values are immutable; all constructors copy what
// they must and accessors return copies.
type Value struct {
	kind DataType
	i    int64
	s    string
	b    bool
	f    float64
	t    time.Time
	j    any
	bin  []byte
}

// Null is the SQL-style null value. It sorts before every typed value
// and matches nothing under equality with a typed value.
var Null = Value{kind: TypeNull}

// Int returns an INTEGER value.
func Int(i int64) Value { return Value{kind: TypeInteger, i: i} }

// Text returns a TEXT value.
func Text(s string) Value { return Value{kind: TypeText, s: s} }

// Bool returns a BOOLEAN value.
func Bool(b bool) Value { return Value{kind: TypeBoolean, b: b} }

// Float returns a FLOAT value.
func Float(f float64) Value { return Value{kind: TypeFloat, f: f} }

// Date returns a DATE value; the time-of-day portion of t is dropped.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: TypeDate, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Time returns a TIME (time-of-day) value; the date portion of t is dropped.
func Time(t time.Time) Value {
	return Value{kind: TypeTime, t: time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

// DateTime returns a DATETIME value in UTC.
func DateTime(t time.Time) Value { return Value{kind: TypeDateTime, t: t.UTC()} }

// JSON returns a JSON value holding an arbitrary structured payload
// (the result of encoding/json unmarshaling: nil, bool, float64,
// string, []any, map[string]any).
func JSON(v any) Value { return Value{kind: TypeJSON, j: v} }

// Binary returns a BINARY value. The byte slice is copied.
func Binary(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: TypeBinary, bin: cp}
}

// Kind returns the value's data type tag. The zero Value reports TypeNull.
func (v Value) Kind() DataType {
	if v.kind == "" {
		return TypeNull
	}
	return v.kind
}

// IsNull reports whether the value is Null.
func (v Value) IsNull() bool { return v.Kind() == TypeNull }

// AsInt returns the integer payload. ok is false for other kinds.
func (v Value) AsInt() (i int64, ok bool) { return v.i, v.kind == TypeInteger }

// AsText returns the text payload. ok is false for other kinds.
func (v Value) AsText() (s string, ok bool) { return v.s, v.kind == TypeText }

// AsBool returns the boolean payload. ok is false for other kinds.
func (v Value) AsBool() (b bool, ok bool) { return v.b, v.kind == TypeBoolean }

// AsFloat returns the float payload. ok is false for other kinds.
func (v Value) AsFloat() (f float64, ok bool) { return v.f, v.kind == TypeFloat }

// AsTime returns the temporal payload of a DATE, TIME or DATETIME value.
func (v Value) AsTime() (t time.Time, ok bool) {
	switch v.kind {
	case TypeDate, TypeTime, TypeDateTime:
		return v.t, true
	}
	return time.Time{}, false
}

// AsJSON returns the structured payload of a JSON value.
func (v Value) AsJSON() (j any, ok bool) { return v.j, v.kind == TypeJSON }

// AsBinary returns a copy of the byte payload of a BINARY value.
func (v Value) AsBinary() (b []byte, ok bool) {
	if v.kind != TypeBinary {
		return nil, false
	}
	cp := make([]byte, len(v.bin))
	copy(cp, v.bin)
	return cp, true
}

// String renders the value for display.
func (v Value) String() string {
	switch v.Kind() {
	case TypeInteger:
		return fmt.Sprintf("%d", v.i)
	case TypeText:
		return v.s
	case TypeBoolean:
		return fmt.Sprintf("%t", v.b)
	case TypeFloat:
		return fmt.Sprintf("%g", v.f)
	case TypeDate:
		return v.t.Format(dateLayout)
	case TypeTime:
		return v.t.Format(timeLayout)
	case TypeDateTime:
		return v.t.Format(time.RFC3339)
	case TypeJSON:
		b, err := json.Marshal(v.j)
		if err != nil {
			return fmt.Sprintf("%v", v.j)
		}
		return string(b)
	case TypeBinary:
		return fmt.Sprintf("BINARY(%d bytes)", len(v.bin))
	default:
		return "NULL"
	}
}

// Compare orders v against o. Null is strictly less than every typed
// value and equal to Null. Mismatched non-null kinds are an
// ErrTypeMismatch, as are the kinds with no defined ordering (JSON,
// BINARY). A float pair involving NaN orders as equal so sorting
// stays stable.
func (v Value) Compare(o Value) (int, error) {
	vNull, oNull := v.IsNull(), o.IsNull()
	switch {
	case vNull && oNull:
		return 0, nil
	case vNull:
		return -1, nil
	case oNull:
		return 1, nil
	}
	if v.kind != o.kind {
		return 0, fmt.Errorf("%w: cannot compare %s with %s", ErrTypeMismatch, v.kind, o.kind)
	}
	switch v.kind {
	case TypeInteger:
		return compareOrdered(v.i, o.i), nil
	case TypeText:
		return strings.Compare(v.s, o.s), nil
	case TypeBoolean:
		if v.b == o.b {
			return 0, nil
		}
		if !v.b {
			return -1, nil
		}
		return 1, nil
	case TypeFloat:
		if math.IsNaN(v.f) || math.IsNaN(o.f) {
			return 0, nil
		}
		return compareOrdered(v.f, o.f), nil
	case TypeDate, TypeTime, TypeDateTime:
		return v.t.Compare(o.t), nil
	default:
		return 0, fmt.Errorf("%w: %s values have no ordering", ErrTypeMismatch, v.kind)
	}
}

func compareOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports strict equality: same kind and equal payload. Null
// equals only Null. Float follows IEEE semantics, so NaN never equals
// NaN. JSON payloads compare structurally.
func (v Value) Equal(o Value) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.Kind() {
	case TypeNull:
		return true
	case TypeInteger:
		return v.i == o.i
	case TypeText:
		return v.s == o.s
	case TypeBoolean:
		return v.b == o.b
	case TypeFloat:
		return v.f == o.f
	case TypeDate, TypeTime, TypeDateTime:
		return v.t.Equal(o.t)
	case TypeJSON:
		return reflect.DeepEqual(v.j, o.j)
	case TypeBinary:
		return bytes.Equal(v.bin, o.bin)
	default:
		return false
	}
}

// valueWire is the tagged JSON envelope for a Value.
type valueWire struct {
	Type  DataType        `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as {"type": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Kind() {
	case TypeNull:
		payload = nil
	case TypeInteger:
		payload = v.i
	case TypeText:
		payload = v.s
	case TypeBoolean:
		payload = v.b
	case TypeFloat:
		payload = v.f
	case TypeDate:
		payload = v.t.Format(dateLayout)
	case TypeTime:
		payload = v.t.Format(timeLayout)
	case TypeDateTime:
		payload = v.t.Format(time.RFC3339Nano)
	case TypeJSON:
		payload = v.j
	case TypeBinary:
		payload = v.bin
	default:
		return nil, fmt.Errorf("%w: unknown value kind %q", ErrParse, v.kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", v.Kind(), err)
	}
	return json.Marshal(valueWire{Type: v.Kind(), Value: raw})
}

// UnmarshalJSON decodes the tagged envelope produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w valueWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: decoding value envelope: %v", ErrParse, err)
	}
	switch w.Type {
	case TypeNull, "":
		*v = Null
		return nil
	case TypeInteger:
		var i int64
		if err := json.Unmarshal(w.Value, &i); err != nil {
			return fmt.Errorf("%w: integer payload: %v", ErrParse, err)
		}
		*v = Int(i)
	case TypeText:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return fmt.Errorf("%w: text payload: %v", ErrParse, err)
		}
		*v = Text(s)
	case TypeBoolean:
		var b bool
		if err := json.Unmarshal(w.Value, &b); err != nil {
			return fmt.Errorf("%w: boolean payload: %v", ErrParse, err)
		}
		*v = Bool(b)
	case TypeFloat:
		var f float64
		if err := json.Unmarshal(w.Value, &f); err != nil {
			return fmt.Errorf("%w: float payload: %v", ErrParse, err)
		}
		*v = Float(f)
	case TypeDate:
		t, err := unmarshalTime(w.Value, dateLayout)
		if err != nil {
			return err
		}
		*v = Date(t)
	case TypeTime:
		t, err := unmarshalTime(w.Value, timeLayout)
		if err != nil {
			return err
		}
		*v = Time(t)
	case TypeDateTime:
		t, err := unmarshalTime(w.Value, time.RFC3339Nano)
		if err != nil {
			return err
		}
		*v = DateTime(t)
	case TypeJSON:
		var j any
		if err := json.Unmarshal(w.Value, &j); err != nil {
			return fmt.Errorf("%w: json payload: %v", ErrParse, err)
		}
		*v = JSON(j)
	case TypeBinary:
		var b []byte
		if err := json.Unmarshal(w.Value, &b); err != nil {
			return fmt.Errorf("%w: binary payload: %v", ErrParse, err)
		}
		*v = Value{kind: TypeBinary, bin: b}
	default:
		return fmt.Errorf("%w: unknown value kind %q", ErrParse, w.Type)
	}
	return nil
}

func unmarshalTime(raw json.RawMessage, layout string) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("%w: temporal payload: %v", ErrParse, err)
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: temporal payload %q: %v", ErrParse, s, err)
	}
	return t, nil
}

// FromAny converts a plain Go value (typically the result of JSON
// unmarshaling) into the closest Value. Unhandled types become JSON
// values so nothing is silently dropped.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float64:
		return Float(x)
	case string:
		return Text(x)
	case []byte:
		return Binary(x)
	case time.Time:
		return DateTime(x)
	default:
		return JSON(x)
	}
}
