package types

import "fmt"

// ColumnDefinition describes a single column: its name, declared type,
// and constraints. A primary-key column is implicitly non-nullable and
// implicitly unique.
type ColumnDefinition struct {
	Name         string   `json:"name"`
	DataType     DataType `json:"data_type"`
	Nullable     bool     `json:"nullable"`
	Unique       bool     `json:"unique"`
	DefaultValue *Value   `json:"default_value,omitempty"`
	PrimaryKey   bool     `json:"primary_key"`
}

// NewColumn returns a column definition with the primary-key
// implications applied: a primary key is non-nullable and unique.
func NewColumn(name string, dataType DataType, primaryKey bool) ColumnDefinition {
	return ColumnDefinition{
		Name:       name,
		DataType:   dataType,
		Nullable:   !primaryKey,
		Unique:     primaryKey,
		PrimaryKey: primaryKey,
	}
}

// WithNullable returns a copy of the column with the nullable flag set.
func (c ColumnDefinition) WithNullable(nullable bool) ColumnDefinition {
	c.Nullable = nullable
	return c
}

// WithUnique returns a copy of the column with the unique flag set.
func (c ColumnDefinition) WithUnique(unique bool) ColumnDefinition {
	c.Unique = unique
	return c
}

// WithDefault returns a copy of the column with a default value.
func (c ColumnDefinition) WithDefault(v Value) ColumnDefinition {
	c.DefaultValue = &v
	return c
}

// Schema is an ordered list of column definitions. It is immutable once
// its table has been created; there is no ALTER.
type Schema struct {
	Columns []ColumnDefinition `json:"columns"`
}

// NewSchema builds a schema from column definitions in order.
func NewSchema(columns ...ColumnDefinition) Schema {
	return Schema{Columns: columns}
}

// Column returns the definition with the given name.
func (s *Schema) Column(name string) (*ColumnDefinition, bool) {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i], true
		}
	}
	return nil, false
}

// PrimaryKeyColumns returns the columns flagged as primary keys, in
// schema order.
func (s *Schema) PrimaryKeyColumns() []*ColumnDefinition {
	var pks []*ColumnDefinition
	for i := range s.Columns {
		if s.Columns[i].PrimaryKey {
			pks = append(pks, &s.Columns[i])
		}
	}
	return pks
}

// Validate checks a candidate row against the schema: every value must
// name a known column and carry that column's type, every non-nullable
// non-primary-key column needs a value or a default, and if the schema
// declares primary keys the row must supply a non-null value for at
// least one of them.
func (s *Schema) Validate(row *Row) error {
	for name, v := range row.Data {
		col, ok := s.Column(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
		if !v.IsNull() && v.Kind() != col.DataType {
			return fmt.Errorf("%w: column %q expects %s, got %s",
				ErrTypeMismatch, name, col.DataType, v.Kind())
		}
	}

	for i := range s.Columns {
		col := &s.Columns[i]
		if col.Nullable || col.PrimaryKey {
			continue
		}
		if v, ok := row.Get(col.Name); ok && !v.IsNull() {
			continue
		}
		if col.DefaultValue == nil {
			return fmt.Errorf("%w: column %q requires a value", ErrNotNullViolation, col.Name)
		}
	}

	pks := s.PrimaryKeyColumns()
	if len(pks) == 0 {
		return nil
	}
	for _, pk := range pks {
		if v, ok := row.Get(pk.Name); ok && !v.IsNull() {
			return nil
		}
	}
	return fmt.Errorf("%w: primary key requires a value", ErrNotNullViolation)
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() Schema {
	cols := make([]ColumnDefinition, len(s.Columns))
	copy(cols, s.Columns)
	for i := range cols {
		if cols[i].DefaultValue != nil {
			dv := *cols[i].DefaultValue
			cols[i].DefaultValue = &dv
		}
	}
	return Schema{Columns: cols}
}
