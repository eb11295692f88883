package types

import (
	"time"

	"github.com/google/uuid"
)

// Row is one record in a table: a UUID identity, a sparse column→value
// mapping (only columns actually set are present), and creation/update
// timestamps. Identity is the UUID, never the column values.
type Row struct {
	ID        uuid.UUID        `json:"id"`
	Data      map[string]Value `json:"data"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// newUUID generates a UUID v7, falling back to v4 if the clock source
// fails.
func newUUID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// NewRow returns an empty row with a fresh UUID and both timestamps set
// to now.
func NewRow() *Row {
	now := time.Now().UTC()
	return &Row{
		ID:        newUUID(),
		Data:      make(map[string]Value),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Set stores a value under the column name.
func (r *Row) Set(column string, v Value) {
	if r.Data == nil {
		r.Data = make(map[string]Value)
	}
	r.Data[column] = v
}

// Get returns the value stored for the column. ok is false when the
// column was never set.
func (r *Row) Get(column string) (Value, bool) {
	v, ok := r.Data[column]
	return v, ok
}

// GetInt returns the column's integer payload, if set and INTEGER.
func (r *Row) GetInt(column string) (int64, bool) {
	v, ok := r.Data[column]
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

// GetText returns the column's text payload, if set and TEXT.
func (r *Row) GetText(column string) (string, bool) {
	v, ok := r.Data[column]
	if !ok {
		return "", false
	}
	return v.AsText()
}

// GetBool returns the column's boolean payload, if set and BOOLEAN.
func (r *Row) GetBool(column string) (bool, bool) {
	v, ok := r.Data[column]
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// GetFloat returns the column's float payload, if set and FLOAT.
func (r *Row) GetFloat(column string) (float64, bool) {
	v, ok := r.Data[column]
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

// Columns returns the names of the columns set on this row.
func (r *Row) Columns() []string {
	cols := make([]string, 0, len(r.Data))
	for name := range r.Data {
		cols = append(cols, name)
	}
	return cols
}

// Clone returns a deep copy of the row.
func (r *Row) Clone() *Row {
	data := make(map[string]Value, len(r.Data))
	for k, v := range r.Data {
		data[k] = v
	}
	return &Row{
		ID:        r.ID,
		Data:      data,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
