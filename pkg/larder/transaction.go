package larder

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/larder/internal/wal"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Transaction buffers operations without touching database state.
// Nothing is validated or applied until Commit, which applies the
// whole buffer atomically: on the first failure every prior effect is
// rolled back and the log receives nothing.
//
// A Transaction is not safe for concurrent use; share the DB instead.
type Transaction struct {
	db   *DB
	ops  []wal.Operation
	done bool
}

// Begin starts an empty transaction.
func (db *DB) Begin() *Transaction {
	return &Transaction{db: db}
}

// CreateTable buffers a table creation.
func (tx *Transaction) CreateTable(name string, schema types.Schema) *Transaction {
	s := schema.Clone()
	tx.ops = append(tx.ops, wal.Operation{Type: wal.OpCreateTable, Table: name, Schema: &s})
	return tx
}

// DropTable buffers a table drop.
func (tx *Transaction) DropTable(name string) *Transaction {
	tx.ops = append(tx.ops, wal.Operation{Type: wal.OpDropTable, Table: name})
	return tx
}

// Insert buffers a row insert and returns the id the row will have
// once committed.
func (tx *Transaction) Insert(table string, data map[string]types.Value) uuid.UUID {
	row := types.NewRow()
	for col, v := range data {
		row.Set(col, v)
	}
	tx.ops = append(tx.ops, wal.Operation{Type: wal.OpInsert, Table: table, Row: row})
	return row.ID
}

// Update buffers column assignments for one row.
func (tx *Transaction) Update(table string, id uuid.UUID, data map[string]types.Value) *Transaction {
	tx.ops = append(tx.ops, wal.Operation{Type: wal.OpUpdate, Table: table, RowID: id.String(), Data: data})
	return tx
}

// Delete buffers a row removal.
func (tx *Transaction) Delete(table string, id uuid.UUID) *Transaction {
	tx.ops = append(tx.ops, wal.Operation{Type: wal.OpDelete, Table: table, RowID: id.String()})
	return tx
}

// Len returns the number of buffered operations.
func (tx *Transaction) Len() int { return len(tx.ops) }

// Rollback discards the buffer. Safe to call after Commit; it then
// does nothing.
func (tx *Transaction) Rollback() {
	tx.done = true
	tx.ops = nil
}

// Commit applies the buffered operations in order under one write
// lock. If any operation fails, every table the transaction touched
// is restored to its pre-commit state and the error names the failed
// operation. The log is written only after the whole buffer applied.
func (tx *Transaction) Commit() error {
	if tx.done {
		return fmt.Errorf("commit: %w: transaction already finished", types.ErrParse)
	}
	tx.done = true
	if len(tx.ops) == 0 {
		return nil
	}

	db := tx.db
	db.mu.Lock()
	defer db.mu.Unlock()

	// Pre-commit copies of every touched table, keyed by name. A nil
	// entry records that the table did not exist.
	saved := make(map[string]*types.Table)
	for _, op := range tx.ops {
		if _, ok := saved[op.Table]; ok {
			continue
		}
		if tbl, err := db.store.Table(op.Table); err == nil {
			saved[op.Table] = tbl.Clone()
		} else {
			saved[op.Table] = nil
		}
	}

	for i, op := range tx.ops {
		if err := applyOperation(db.store, op); err != nil {
			for name, tbl := range saved {
				if tbl == nil {
					if db.store.Has(name) {
						_ = db.store.DropTable(name)
					}
					continue
				}
				db.store.PutTable(tbl)
			}
			db.log.Warn("transaction rolled back",
				"ops", len(tx.ops), "failed_op", i, "type", op.Type, "table", op.Table, "err", err)
			return fmt.Errorf("transaction op %d (%s %q): %w", i, op.Type, op.Table, err)
		}
	}

	if err := db.logOp(tx.ops...); err != nil {
		return err
	}
	db.log.Info("transaction committed", "ops", len(tx.ops))
	return nil
}
