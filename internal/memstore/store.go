// Package memstore holds the in-memory table map behind the database
// facade. It is not safe for concurrent use; the facade serializes
// access with its own locks.
package memstore

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Store maps table names to live table state.
type Store struct {
	tables map[string]*types.Table
}

// New returns an empty store.
func New() *Store {
	return &Store{tables: make(map[string]*types.Table)}
}

// CreateTable registers a new empty table under name.
func (s *Store) CreateTable(name string, schema types.Schema) error {
	if _, ok := s.tables[name]; ok {
		return fmt.Errorf("create table %q: %w", name, types.ErrTableExists)
	}
	s.tables[name] = types.NewTable(name, schema)
	return nil
}

// PutTable installs tbl, replacing any table with the same name. Used
// by recovery and restore paths that rebuild state wholesale.
func (s *Store) PutTable(tbl *types.Table) {
	s.tables[tbl.Name] = tbl
}

// DropTable removes the table and all its rows.
func (s *Store) DropTable(name string) error {
	if _, ok := s.tables[name]; !ok {
		return fmt.Errorf("drop table %q: %w", name, types.ErrTableNotFound)
	}
	delete(s.tables, name)
	return nil
}

// Table returns the live table state.
func (s *Store) Table(name string) (*types.Table, error) {
	tbl, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, types.ErrTableNotFound)
	}
	return tbl, nil
}

// Has reports whether a table exists.
func (s *Store) Has(name string) bool {
	_, ok := s.tables[name]
	return ok
}

// InsertRow validates and appends row to the named table.
func (s *Store) InsertRow(table string, row *types.Row) error {
	tbl, err := s.Table(table)
	if err != nil {
		return err
	}
	return tbl.Insert(row)
}

// UpdateRow applies column assignments to one row by id.
func (s *Store) UpdateRow(table string, id uuid.UUID, updates map[string]types.Value) error {
	tbl, err := s.Table(table)
	if err != nil {
		return err
	}
	return tbl.Update(id, updates)
}

// DeleteRow removes one row by id.
func (s *Store) DeleteRow(table string, id uuid.UUID) error {
	tbl, err := s.Table(table)
	if err != nil {
		return err
	}
	return tbl.Delete(id)
}

// ListTables returns all table names in lexical order.
func (s *Store) ListTables() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TableCount returns the number of tables.
func (s *Store) TableCount() int { return len(s.tables) }

// RowCount returns the total number of rows across all tables.
func (s *Store) RowCount() int {
	total := 0
	for _, tbl := range s.tables {
		total += tbl.RowCount()
	}
	return total
}

// Snapshot deep-clones the full table map. Mutating the result never
// touches live state.
func (s *Store) Snapshot() map[string]*types.Table {
	out := make(map[string]*types.Table, len(s.tables))
	for name, tbl := range s.tables {
		out[name] = tbl.Clone()
	}
	return out
}

// Clear drops every table.
func (s *Store) Clear() {
	s.tables = make(map[string]*types.Table)
}
