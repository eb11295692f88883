// Durability tests: crash-style recovery from the raw log, log
// compaction, backup/restore, and transaction atomicity observed
// across reopen.
package integration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/larder"
	"github.com/mesh-intelligence/larder/pkg/query"
	"github.com/mesh-intelligence/larder/pkg/types"
)

func TestDurability_LogOnlyRecovery(t *testing.T) {
	db, dir := newDB(t)

	require.NoError(t, db.CreateTable("products", productsSchema()))
	_, err := db.Insert("products", product("A-1", "anvil", 99.5))
	require.NoError(t, err)

	// No Close, no snapshot: a second handle must rebuild everything
	// from the operation log alone.
	crash, err := larder.Open(types.Config{DataDir: dir, AutoSave: true}, nil)
	require.NoError(t, err)
	defer crash.Close()

	res, err := crash.Query(query.Select("products"))
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
}

func TestDurability_CompactPreservesState(t *testing.T) {
	db, dir := newDB(t)

	require.NoError(t, db.CreateTable("products", productsSchema()))
	for _, p := range []map[string]types.Value{
		product("A-1", "anvil", 99.5),
		product("B-2", "bucket", 12.0),
	} {
		_, err := db.Insert("products", p)
		require.NoError(t, err)
	}
	require.NoError(t, db.Compact())

	st, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, st.Storage.LogEntries)
	assert.True(t, st.Storage.HasSnapshot)

	fresh := reopenDB(t, db, dir)
	defer fresh.Close()
	count, err := fresh.Query(query.Count("products"))
	require.NoError(t, err)
	assert.Equal(t, 2, count.Count)
}

func TestDurability_BackupRestoreAcrossHandles(t *testing.T) {
	db, dir := newDB(t)

	require.NoError(t, db.CreateTable("products", productsSchema()))
	_, err := db.Insert("products", product("A-1", "anvil", 99.5))
	require.NoError(t, err)

	backupDir := filepath.Join(t.TempDir(), "backup")
	require.NoError(t, db.Backup(backupDir))

	// Diverge, then restore.
	require.NoError(t, db.DropTable("products"))
	require.NoError(t, db.Restore(backupDir))

	fresh := reopenDB(t, db, dir)
	defer fresh.Close()
	res, err := fresh.Query(query.Select("products"))
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
}

func TestDurability_FailedTransactionInvisibleAfterReopen(t *testing.T) {
	db, dir := newDB(t)

	tx := db.Begin()
	tx.CreateTable("products", productsSchema())
	tx.Insert("products", product("A-1", "anvil", 99.5))
	tx.Insert("products", product("A-1", "dup", 1.0))
	err := tx.Commit()
	require.ErrorIs(t, err, types.ErrUniqueViolation)

	fresh := reopenDB(t, db, dir)
	defer fresh.Close()
	assert.Empty(t, fresh.ListTables())
}

func TestDurability_CommittedTransactionSurvivesReopen(t *testing.T) {
	db, dir := newDB(t)

	tx := db.Begin()
	tx.CreateTable("products", productsSchema())
	id := tx.Insert("products", product("A-1", "anvil", 99.5))
	tx.Update("products", id, map[string]types.Value{"price": types.Float(89.0)})
	require.NoError(t, tx.Commit())

	fresh := reopenDB(t, db, dir)
	defer fresh.Close()
	res, err := fresh.Query(query.Select("products"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	price, _ := res.Rows[0].GetFloat("price")
	assert.Equal(t, 89.0, price)
	assert.Equal(t, id, res.Rows[0].ID)
}
