package types

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestParseDataType(t *testing.T) {
	tests := []struct {
		in      string
		want    DataType
		wantErr bool
	}{
		{"INTEGER", TypeInteger, false},
		{"int", TypeInteger, false},
		{"varchar", TypeText, false},
		{"BOOL", TypeBoolean, false},
		{"double", TypeFloat, false},
		{"TIMESTAMP", TypeDateTime, false},
		{"blob", TypeBinary, false},
		{"json", TypeJSON, false},
		{"date", TypeDate, false},
		{"time", TypeTime, false},
		{"uuid", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDataType(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrParse) {
					t.Fatalf("ParseDataType(%q) error = %v, want ErrParse", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDataType(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDataType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompareSameKind(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"int less", Int(1), Int(2), -1},
		{"int equal", Int(5), Int(5), 0},
		{"int greater", Int(9), Int(2), 1},
		{"text order", Text("apple"), Text("banana"), -1},
		{"bool false<true", Bool(false), Bool(true), -1},
		{"float less", Float(1.5), Float(2.5), -1},
		{"datetime equal", DateTime(now), DateTime(now), 0},
		{"date order", Date(now), Date(now.Add(48 * time.Hour)), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Compare(tt.b)
			if err != nil {
				t.Fatalf("Compare error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Compare = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompareNullIsMinimum(t *testing.T) {
	if got, err := Null.Compare(Int(0)); err != nil || got != -1 {
		t.Errorf("Null.Compare(Int) = %d, %v; want -1, nil", got, err)
	}
	if got, err := Text("").Compare(Null); err != nil || got != 1 {
		t.Errorf("Text.Compare(Null) = %d, %v; want 1, nil", got, err)
	}
	if got, err := Null.Compare(Null); err != nil || got != 0 {
		t.Errorf("Null.Compare(Null) = %d, %v; want 0, nil", got, err)
	}
}

func TestCompareMismatchedKinds(t *testing.T) {
	_, err := Int(1).Compare(Text("1"))
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("Compare across kinds error = %v, want ErrTypeMismatch", err)
	}
}

func TestCompareNaNOrdersEqual(t *testing.T) {
	nan := Float(math.NaN())
	for _, other := range []Value{Float(math.NaN()), Float(1.0)} {
		got, err := nan.Compare(other)
		if err != nil {
			t.Fatalf("Compare error = %v", err)
		}
		if got != 0 {
			t.Errorf("NaN comparison = %d, want 0", got)
		}
	}
}

func TestCompareUnorderedKinds(t *testing.T) {
	_, err := JSON([]any{1.0}).Compare(JSON([]any{1.0}))
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("JSON Compare error = %v, want ErrTypeMismatch", err)
	}
	_, err = Binary([]byte{1}).Compare(Binary([]byte{1}))
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("Binary Compare error = %v, want ErrTypeMismatch", err)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null equals null", Null, Null, true},
		{"null vs typed", Null, Int(0), false},
		{"kind mismatch", Int(1), Float(1), false},
		{"json deep equal", JSON(map[string]any{"a": []any{1.0}}), JSON(map[string]any{"a": []any{1.0}}), true},
		{"binary equal", Binary([]byte{1, 2}), Binary([]byte{1, 2}), true},
		{"binary differ", Binary([]byte{1, 2}), Binary([]byte{1, 3}), false},
		{"nan never equal", Float(math.NaN()), Float(math.NaN()), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
	values := []Value{
		Null,
		Int(-42),
		Text("héllo"),
		Bool(true),
		Float(2.75),
		Date(now),
		Time(now),
		DateTime(now),
		JSON([]any{"a", 1.0, nil}),
		Binary([]byte{0x00, 0xff}),
	}
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal(%s) error = %v", v.Kind(), err)
		}
		var back Value
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", data, err)
		}
		if !v.Equal(back) {
			t.Errorf("round trip of %s: got %s, want %s", v.Kind(), back, v)
		}
	}
}

func TestValueUnmarshalUnknownKind(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"type":"POINTER","value":1}`), &v)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("Unmarshal unknown kind error = %v, want ErrParse", err)
	}
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want DataType
	}{
		{"nil", nil, TypeNull},
		{"bool", true, TypeBoolean},
		{"int", 7, TypeInteger},
		{"float64", 1.5, TypeFloat},
		{"string", "x", TypeText},
		{"bytes", []byte{1}, TypeBinary},
		{"map", map[string]any{}, TypeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromAny(tt.in).Kind(); got != tt.want {
				t.Errorf("FromAny(%v).Kind() = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
