package larder

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/larder/internal/memstore"
	"github.com/mesh-intelligence/larder/internal/sqlexport"
	"github.com/mesh-intelligence/larder/internal/wal"
	"github.com/mesh-intelligence/larder/pkg/query"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// DB is an open database. All methods are safe for concurrent use.
//
// Lock discipline: mu guards the table store, diskMu guards the log
// and snapshot files. Writers take mu then diskMu; readers take only
// mu. Inner packages carry no locks of their own.
type DB struct {
	mu     sync.RWMutex
	diskMu sync.Mutex

	store    *memstore.Store
	wal      *wal.WAL
	exec     query.Engine
	cfg      types.Config
	log      *slog.Logger
	autoSave bool
	closed   bool
}

// Open opens the database in cfg.DataDir, creating the directory on
// first use and recovering prior state from the snapshot and the
// operation log. A nil logger discards all log output.
func Open(cfg types.Config, logger *slog.Logger) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	w, err := wal.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	db := &DB{
		store:    memstore.New(),
		wal:      w,
		cfg:      cfg,
		log:      logger.With("data_dir", cfg.DataDir),
		autoSave: cfg.AutoSave,
	}
	if err := db.recover(); err != nil {
		return nil, err
	}
	return db, nil
}

// recover rebuilds the store from the latest snapshot and the log
// entries past its watermark. Entries whose effect is already present
// are skipped, so recovering twice converges on the same state.
func (db *DB) recover() error {
	snap, err := db.wal.LoadSnapshot()
	if err != nil {
		return err
	}
	var watermark uint64
	if snap != nil {
		watermark = snap.LastLogID
		for _, tbl := range snap.Tables {
			db.store.PutTable(tbl)
		}
	}
	entries, err := db.wal.Replay(watermark)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := applyOperation(db.store, entry.Operation); err != nil {
			db.log.Debug("skipping already-applied log entry",
				"id", entry.ID, "op", entry.Operation.Type, "table", entry.Operation.Table, "err", err)
		}
	}
	db.log.Info("database recovered",
		"tables", db.store.TableCount(), "rows", db.store.RowCount(), "replayed", len(entries))
	return nil
}

// applyOperation folds one logged operation into the store. Used by
// recovery, restore, and transaction commit.
func applyOperation(store *memstore.Store, op wal.Operation) error {
	switch op.Type {
	case wal.OpCreateTable:
		if op.Schema == nil {
			return fmt.Errorf("create table %q: %w: missing schema", op.Table, types.ErrParse)
		}
		return store.CreateTable(op.Table, *op.Schema)
	case wal.OpDropTable:
		return store.DropTable(op.Table)
	case wal.OpInsert:
		if op.Row == nil {
			return fmt.Errorf("insert into %q: %w: missing row", op.Table, types.ErrParse)
		}
		return store.InsertRow(op.Table, op.Row.Clone())
	case wal.OpUpdate:
		id, err := uuid.Parse(op.RowID)
		if err != nil {
			return fmt.Errorf("update in %q: %w: bad row id %q", op.Table, types.ErrParse, op.RowID)
		}
		return store.UpdateRow(op.Table, id, op.Data)
	case wal.OpDelete:
		id, err := uuid.Parse(op.RowID)
		if err != nil {
			return fmt.Errorf("delete in %q: %w: bad row id %q", op.Table, types.ErrParse, op.RowID)
		}
		return store.DeleteRow(op.Table, id)
	default:
		return fmt.Errorf("%w: unknown operation type %q", types.ErrParse, op.Type)
	}
}

// logOp appends ops to the operation log when auto-save is on. With
// auto-save off, mutations live only in memory until SaveToDisk,
// Compact, Backup, or Close writes a snapshot. Callers hold mu.
func (db *DB) logOp(ops ...wal.Operation) error {
	if !db.autoSave || len(ops) == 0 {
		return nil
	}
	db.diskMu.Lock()
	defer db.diskMu.Unlock()
	for _, op := range ops {
		if _, err := db.wal.Append(op); err != nil {
			return err
		}
	}
	return nil
}

// CreateTable creates an empty table.
func (db *DB) CreateTable(name string, schema types.Schema) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.store.CreateTable(name, schema); err != nil {
		return err
	}
	s := schema.Clone()
	if err := db.logOp(wal.Operation{Type: wal.OpCreateTable, Table: name, Schema: &s}); err != nil {
		return err
	}
	db.log.Info("table created", "table", name, "columns", len(schema.Columns))
	return nil
}

// DropTable removes a table and all its rows.
func (db *DB) DropTable(name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.store.DropTable(name); err != nil {
		return err
	}
	if err := db.logOp(wal.Operation{Type: wal.OpDropTable, Table: name}); err != nil {
		return err
	}
	db.log.Info("table dropped", "table", name)
	return nil
}

// Insert validates data against the table schema and appends one row,
// returning its generated id.
func (db *DB) Insert(table string, data map[string]types.Value) (uuid.UUID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.insertLocked(table, data)
}

func (db *DB) insertLocked(table string, data map[string]types.Value) (uuid.UUID, error) {
	row := types.NewRow()
	for col, v := range data {
		row.Set(col, v)
	}
	if err := db.store.InsertRow(table, row); err != nil {
		return uuid.Nil, err
	}
	if err := db.logOp(wal.Operation{Type: wal.OpInsert, Table: table, Row: row.Clone()}); err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

// BatchInsert inserts rows in order and stops at the first failure.
// Rows inserted before the failure stay in place; their ids are
// returned alongside the error.
func (db *DB) BatchInsert(table string, rows []map[string]types.Value) ([]uuid.UUID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(rows))
	for i, data := range rows {
		id, err := db.insertLocked(table, data)
		if err != nil {
			return ids, fmt.Errorf("batch insert row %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Update applies the column assignments to every row matching the
// conditions and returns how many rows changed.
func (db *DB) Update(table string, conds []query.Condition, updates map[string]types.Value) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tbl, err := db.store.Table(table)
	if err != nil {
		return 0, err
	}
	matched, err := matchingIDs(tbl, conds)
	if err != nil {
		return 0, err
	}
	ops := make([]wal.Operation, 0, len(matched))
	for _, id := range matched {
		if err := db.store.UpdateRow(table, id, updates); err != nil {
			return len(ops), err
		}
		ops = append(ops, wal.Operation{Type: wal.OpUpdate, Table: table, RowID: id.String(), Data: updates})
	}
	if err := db.logOp(ops...); err != nil {
		return len(ops), err
	}
	return len(matched), nil
}

// Delete removes every row matching the conditions and returns how
// many rows were removed. No conditions means every row.
func (db *DB) Delete(table string, conds []query.Condition) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tbl, err := db.store.Table(table)
	if err != nil {
		return 0, err
	}
	matched, err := matchingIDs(tbl, conds)
	if err != nil {
		return 0, err
	}
	ops := make([]wal.Operation, 0, len(matched))
	for _, id := range matched {
		if err := db.store.DeleteRow(table, id); err != nil {
			return len(ops), err
		}
		ops = append(ops, wal.Operation{Type: wal.OpDelete, Table: table, RowID: id.String()})
	}
	if err := db.logOp(ops...); err != nil {
		return len(ops), err
	}
	return len(matched), nil
}

func matchingIDs(tbl *types.Table, conds []query.Condition) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, row := range tbl.Rows {
		ok := true
		for _, c := range conds {
			match, err := c.Evaluate(row)
			if err != nil {
				return nil, err
			}
			if !match {
				ok = false
				break
			}
		}
		if ok {
			ids = append(ids, row.ID)
		}
	}
	return ids, nil
}

// Query executes q and returns its result. Mutation kinds run as dry
// runs here, reporting affected counts without changing state; use
// Insert, Update, and Delete to mutate.
func (db *DB) Query(q *query.Query) (*query.Result, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	tbl, err := db.store.Table(q.Table)
	if err != nil {
		return nil, err
	}
	res, err := db.exec.Execute(tbl, q)
	if err != nil {
		return nil, err
	}
	// Hand out copies so callers can't reach live rows.
	if len(res.Rows) > 0 {
		rows := make([]*types.Row, len(res.Rows))
		for i, row := range res.Rows {
			rows[i] = row.Clone()
		}
		res.Rows = rows
	}
	return res, nil
}

// TableInfo returns a deep copy of the named table.
func (db *DB) TableInfo(name string) (*types.Table, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	tbl, err := db.store.Table(name)
	if err != nil {
		return nil, err
	}
	return tbl.Clone(), nil
}

// ListTables returns all table names in lexical order.
func (db *DB) ListTables() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.store.ListTables()
}

// Stats describes the database: table and row totals plus the on-disk
// footprint.
type Stats struct {
	TotalTables  int            `json:"total_tables"`
	TotalRows    int            `json:"total_rows"`
	RowsPerTable map[string]int `json:"rows_per_table"`
	Storage      wal.Stats      `json:"storage"`
}

// Stats gathers current totals and storage figures.
func (db *DB) Stats() (Stats, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	st := Stats{
		TotalTables:  db.store.TableCount(),
		TotalRows:    db.store.RowCount(),
		RowsPerTable: make(map[string]int),
	}
	for _, name := range db.store.ListTables() {
		tbl, err := db.store.Table(name)
		if err != nil {
			return Stats{}, err
		}
		st.RowsPerTable[name] = tbl.RowCount()
	}
	db.diskMu.Lock()
	storage, err := db.wal.Stats()
	db.diskMu.Unlock()
	if err != nil {
		return Stats{}, err
	}
	st.Storage = storage
	return st, nil
}

// Truncate removes every row from a table, keeping its schema. Logged
// as a drop and re-create so replay reproduces the empty table.
func (db *DB) Truncate(table string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tbl, err := db.store.Table(table)
	if err != nil {
		return err
	}
	schema := tbl.Schema.Clone()
	removed := tbl.RowCount()
	if err := db.store.DropTable(table); err != nil {
		return err
	}
	if err := db.store.CreateTable(table, schema); err != nil {
		return err
	}
	err = db.logOp(
		wal.Operation{Type: wal.OpDropTable, Table: table},
		wal.Operation{Type: wal.OpCreateTable, Table: table, Schema: &schema},
	)
	if err != nil {
		return err
	}
	db.log.Info("table truncated", "table", table, "rows_removed", removed)
	return nil
}

// SaveToDisk writes a full snapshot of current state.
func (db *DB) SaveToDisk() error {
	db.mu.RLock()
	tables := db.store.Snapshot()
	db.mu.RUnlock()

	db.diskMu.Lock()
	defer db.diskMu.Unlock()
	_, err := db.wal.WriteSnapshot(tables)
	return err
}

// Compact writes a fresh snapshot and truncates the operation log.
// State is unchanged; only the disk footprint shrinks.
func (db *DB) Compact() error {
	db.mu.RLock()
	tables := db.store.Snapshot()
	db.mu.RUnlock()

	db.diskMu.Lock()
	defer db.diskMu.Unlock()
	if _, err := db.wal.WriteSnapshot(tables); err != nil {
		return err
	}
	if err := db.wal.Compact(); err != nil {
		return err
	}
	db.log.Info("log compacted")
	return nil
}

// SetAutoSave toggles per-mutation log appends. Turning it on does not
// retro-log mutations made while it was off; call SaveToDisk first if
// those must survive a crash.
func (db *DB) SetAutoSave(on bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.autoSave = on
}

// Backup snapshots current state and copies the data files into dir.
func (db *DB) Backup(dir string) error {
	if err := db.SaveToDisk(); err != nil {
		return err
	}
	db.diskMu.Lock()
	defer db.diskMu.Unlock()
	if err := db.wal.Backup(dir); err != nil {
		return err
	}
	db.log.Info("backup written", "backup_dir", dir)
	return nil
}

// Restore replaces current state with the backup in dir. All tables
// not present in the backup are gone afterwards.
func (db *DB) Restore(dir string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.diskMu.Lock()
	defer db.diskMu.Unlock()

	if err := db.wal.Restore(dir); err != nil {
		return err
	}
	db.store.Clear()
	if err := db.recover(); err != nil {
		return err
	}
	db.log.Info("backup restored", "backup_dir", dir, "tables", db.store.TableCount())
	return nil
}

// ExportSQLite writes a standalone SQLite copy of all tables to path
// for inspection with external tools.
func (db *DB) ExportSQLite(path string) error {
	db.mu.RLock()
	snapshot := db.store.Snapshot()
	db.mu.RUnlock()

	tables := make([]*types.Table, 0, len(snapshot))
	for _, name := range sortedKeys(snapshot) {
		tables = append(tables, snapshot[name])
	}
	if err := sqlexport.Export(path, tables); err != nil {
		return err
	}
	db.log.Info("sqlite export written", "path", path, "tables", len(tables))
	return nil
}

func sortedKeys(m map[string]*types.Table) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close writes a final snapshot and marks the handle closed.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true

	db.diskMu.Lock()
	defer db.diskMu.Unlock()
	if _, err := db.wal.WriteSnapshot(db.store.Snapshot()); err != nil {
		return err
	}
	db.log.Info("database closed")
	return nil
}
