// Package sqlexport writes a one-way copy of database state into a
// standalone SQLite file for inspection with external tooling. The
// export is derived output; the log and snapshot stay the source of
// truth and nothing is ever read back.
package sqlexport

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Export writes all tables into a fresh SQLite database at path. An
// existing file is replaced.
func Export(path string, tables []*types.Table) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale export %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening sqlite export %s: %w", path, err)
	}
	defer db.Close()

	for _, tbl := range tables {
		if err := exportTable(db, tbl); err != nil {
			return err
		}
	}
	return nil
}

func exportTable(db *sql.DB, tbl *types.Table) error {
	if _, err := db.Exec(createTableDDL(tbl)); err != nil {
		return fmt.Errorf("creating sqlite table %q: %w", tbl.Name, err)
	}

	cols := tbl.Schema.Columns
	placeholders := make([]string, 0, len(cols)+3)
	names := make([]string, 0, len(cols)+3)
	for _, meta := range []string{"_id", "_created_at", "_updated_at"} {
		names = append(names, quoteIdent(meta))
		placeholders = append(placeholders, "?")
	}
	for _, col := range cols {
		names = append(names, quoteIdent(col.Name))
		placeholders = append(placeholders, "?")
	}
	stmt, err := db.Prepare(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(tbl.Name), strings.Join(names, ", "), strings.Join(placeholders, ", "),
	))
	if err != nil {
		return fmt.Errorf("preparing insert for %q: %w", tbl.Name, err)
	}
	defer stmt.Close()

	for _, row := range tbl.Rows {
		args := make([]any, 0, len(cols)+3)
		args = append(args,
			row.ID.String(),
			row.CreatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"),
			row.UpdatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"),
		)
		for _, col := range cols {
			v, _ := row.Get(col.Name)
			arg, err := sqliteArg(v)
			if err != nil {
				return fmt.Errorf("table %q row %s column %q: %w", tbl.Name, row.ID, col.Name, err)
			}
			args = append(args, arg)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting into %q: %w", tbl.Name, err)
		}
	}
	return nil
}

func createTableDDL(tbl *types.Table) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", quoteIdent(tbl.Name))
	sb.WriteString("  \"_id\" TEXT PRIMARY KEY,\n")
	sb.WriteString("  \"_created_at\" TEXT NOT NULL,\n")
	sb.WriteString("  \"_updated_at\" TEXT NOT NULL")
	for _, col := range tbl.Schema.Columns {
		fmt.Fprintf(&sb, ",\n  %s %s", quoteIdent(col.Name), sqliteType(col.DataType))
		if !col.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if col.Unique {
			sb.WriteString(" UNIQUE")
		}
	}
	sb.WriteString("\n)")
	return sb.String()
}

func sqliteType(dt types.DataType) string {
	switch dt {
	case types.TypeInteger, types.TypeBoolean:
		return "INTEGER"
	case types.TypeFloat:
		return "REAL"
	case types.TypeBinary:
		return "BLOB"
	default:
		// Text, date/time kinds, and JSON all land as TEXT.
		return "TEXT"
	}
}

// sqliteArg converts a value into a database/sql bind argument.
func sqliteArg(v types.Value) (any, error) {
	switch v.Kind() {
	case types.TypeNull:
		return nil, nil
	case types.TypeInteger:
		i, _ := v.AsInt()
		return i, nil
	case types.TypeText:
		s, _ := v.AsText()
		return s, nil
	case types.TypeBoolean:
		b, _ := v.AsBool()
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case types.TypeFloat:
		f, _ := v.AsFloat()
		return f, nil
	case types.TypeDate:
		t, _ := v.AsTime()
		return t.Format("2006-01-02"), nil
	case types.TypeTime:
		t, _ := v.AsTime()
		return t.Format("15:04:05"), nil
	case types.TypeDateTime:
		t, _ := v.AsTime()
		return t.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"), nil
	case types.TypeJSON:
		j, _ := v.AsJSON()
		data, err := json.Marshal(j)
		if err != nil {
			return nil, fmt.Errorf("encoding json value: %w", err)
		}
		return string(data), nil
	case types.TypeBinary:
		b, _ := v.AsBinary()
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unexportable kind %q", types.ErrTypeMismatch, v.Kind())
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
