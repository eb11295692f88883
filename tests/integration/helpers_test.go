// Shared helpers for larder integration tests.
package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/larder"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// newDB opens a database in a fresh temp directory and returns both.
func newDB(t *testing.T) (*larder.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := larder.Open(types.Config{DataDir: dir, AutoSave: true}, nil)
	require.NoError(t, err)
	return db, dir
}

// reopenDB closes db and opens a fresh handle on the same directory.
func reopenDB(t *testing.T, db *larder.DB, dir string) *larder.DB {
	t.Helper()
	require.NoError(t, db.Close())
	fresh, err := larder.Open(types.Config{DataDir: dir, AutoSave: true}, nil)
	require.NoError(t, err)
	return fresh
}

func productsSchema() types.Schema {
	return types.NewSchema(
		types.NewColumn("sku", types.TypeText, true),
		types.NewColumn("name", types.TypeText, false).WithNullable(false),
		types.NewColumn("price", types.TypeFloat, false),
		types.NewColumn("in_stock", types.TypeBoolean, false).WithDefault(types.Bool(true)),
		types.NewColumn("tags", types.TypeJSON, false),
	)
}

func product(sku, name string, price float64) map[string]types.Value {
	return map[string]types.Value{
		"sku":   types.Text(sku),
		"name":  types.Text(name),
		"price": types.Float(price),
	}
}
