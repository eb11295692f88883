// Package wal persists database state as an append-only operation log
// plus periodic full snapshots under one data directory. Recovery
// loads the latest snapshot and replays the log tail past its
// watermark, so replaying twice converges on the same state.
package wal

import (
	"time"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// OpType names a logged mutation.
type OpType string

const (
	OpCreateTable OpType = "create_table"
	OpDropTable   OpType = "drop_table"
	OpInsert      OpType = "insert"
	OpUpdate      OpType = "update"
	OpDelete      OpType = "delete"
)

// Operation is one logged mutation. The populated fields depend on
// Type: create carries Schema, insert carries Row, update carries
// RowID and Data, delete carries RowID, drop carries only Table.
type Operation struct {
	Type   OpType                 `json:"type"`
	Table  string                 `json:"table"`
	Schema *types.Schema          `json:"schema,omitempty"`
	Row    *types.Row             `json:"row,omitempty"`
	RowID  string                 `json:"row_id,omitempty"`
	Data   map[string]types.Value `json:"data,omitempty"`
}

// LogEntry is one line of the operation log. IDs are assigned by the
// log and strictly increase, surviving restarts.
type LogEntry struct {
	ID        uint64    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
}

// Snapshot is a full copy of database state at a point in time,
// written as a name-sorted array of tables. LastLogID is the
// watermark: entries at or below it are already folded into Tables.
type Snapshot struct {
	Tables    []*types.Table `json:"tables"`
	Timestamp time.Time      `json:"timestamp"`
	LastLogID uint64         `json:"last_log_id"`
}
