package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Table owns a schema and an ordered sequence of rows. Insert enforces
// schema validation, default-value backfill and the unique/primary-key
// scan; Update and Delete address rows by UUID.
type Table struct {
	Name      string    `json:"name"`
	Schema    Schema    `json:"schema"`
	Rows      []*Row    `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTable creates an empty table with the given schema.
func NewTable(name string, schema Schema) *Table {
	return &Table{
		Name:      name,
		Schema:    schema,
		CreatedAt: time.Now().UTC(),
	}
}

// Insert validates the row, backfills defaults for absent columns, runs
// the uniqueness scan, and appends the row. On any error the table is
// unchanged.
func (t *Table) Insert(row *Row) error {
	if err := t.Schema.Validate(row); err != nil {
		return err
	}

	for i := range t.Schema.Columns {
		col := &t.Schema.Columns[i]
		if _, ok := row.Get(col.Name); !ok && col.DefaultValue != nil {
			row.Set(col.Name, *col.DefaultValue)
		}
	}

	if err := t.checkUnique(row); err != nil {
		return err
	}

	t.Rows = append(t.Rows, row)
	return nil
}

// checkUnique scans every existing row for a non-null duplicate in any
// column flagged unique or primary-key. Linear by design: the store has
// no indexes.
func (t *Table) checkUnique(row *Row) error {
	for i := range t.Schema.Columns {
		col := &t.Schema.Columns[i]
		if !col.Unique && !col.PrimaryKey {
			continue
		}
		newVal, ok := row.Get(col.Name)
		if !ok || newVal.IsNull() {
			continue
		}
		for _, existing := range t.Rows {
			if existingVal, ok := existing.Get(col.Name); ok && newVal.Equal(existingVal) {
				return fmt.Errorf("%w: column %q value %s", ErrUniqueViolation, col.Name, newVal)
			}
		}
	}
	return nil
}

// FindByID returns the row with the given UUID.
func (t *Table) FindByID(id uuid.UUID) (*Row, bool) {
	for _, row := range t.Rows {
		if row.ID == id {
			return row, true
		}
	}
	return nil, false
}

// Update applies the column→value updates to the row with the given
// UUID and bumps its update timestamp. Updated columns must exist in
// the schema. Returns ErrRowNotFound if the id is absent.
func (t *Table) Update(id uuid.UUID, updates map[string]Value) error {
	row, ok := t.FindByID(id)
	if !ok {
		return fmt.Errorf("%w: %s in table %q", ErrRowNotFound, id, t.Name)
	}
	for column := range updates {
		if _, ok := t.Schema.Column(column); !ok {
			return fmt.Errorf("%w: %q in table %q", ErrColumnNotFound, column, t.Name)
		}
	}
	for column, v := range updates {
		row.Set(column, v)
	}
	row.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes the row with the given UUID. Returns ErrRowNotFound if
// the id is absent.
func (t *Table) Delete(id uuid.UUID) error {
	for i, row := range t.Rows {
		if row.ID == id {
			t.Rows = append(t.Rows[:i], t.Rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s in table %q", ErrRowNotFound, id, t.Name)
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return len(t.Rows) }

// Clone returns a deep copy of the table, used for read snapshots so
// query execution can never mutate the authoritative state.
func (t *Table) Clone() *Table {
	rows := make([]*Row, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = row.Clone()
	}
	return &Table{
		Name:      t.Name,
		Schema:    t.Schema.Clone(),
		Rows:      rows,
		CreatedAt: t.CreatedAt,
	}
}
