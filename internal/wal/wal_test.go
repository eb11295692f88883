package wal

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func openWAL(t *testing.T, dir string) *WAL {
	t.Helper()
	w, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(%q) = %v", dir, err)
	}
	return w
}

func appendInsert(t *testing.T, w *WAL, table string) LogEntry {
	t.Helper()
	row := types.NewRow()
	row.Set("n", types.Int(1))
	entry, err := w.Append(Operation{Type: OpInsert, Table: table, Row: row})
	if err != nil {
		t.Fatalf("Append = %v", err)
	}
	return entry
}

func TestOpenRejectsEmptyDir(t *testing.T) {
	if _, err := Open(""); !errors.Is(err, types.ErrDataDirEmpty) {
		t.Fatalf("Open(\"\") = %v, want ErrDataDirEmpty", err)
	}
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	w := openWAL(t, t.TempDir())
	for want := uint64(1); want <= 3; want++ {
		entry := appendInsert(t, w, "items")
		if entry.ID != want {
			t.Errorf("entry id = %d, want %d", entry.ID, want)
		}
	}
	if w.LastID() != 3 {
		t.Errorf("LastID = %d, want 3", w.LastID())
	}
}

func TestReplayFromWatermark(t *testing.T) {
	w := openWAL(t, t.TempDir())
	for i := 0; i < 5; i++ {
		appendInsert(t, w, "items")
	}
	entries, err := w.Replay(2)
	if err != nil {
		t.Fatalf("Replay = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Replay(2) returned %d entries, want 3", len(entries))
	}
	for i, e := range entries {
		if want := uint64(3 + i); e.ID != want {
			t.Errorf("entries[%d].ID = %d, want %d", i, e.ID, want)
		}
	}
}

func TestReplaySkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	w := openWAL(t, dir)
	appendInsert(t, w, "items")

	logPath := filepath.Join(dir, types.LogFileName)
	f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	if _, err := f.WriteString("{truncated\n\n"); err != nil {
		t.Fatalf("writing garbage: %v", err)
	}
	f.Close()

	appendInsert(t, w, "items")
	entries, err := w.Replay(0)
	if err != nil {
		t.Fatalf("Replay = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Replay = %d entries, want 2 (garbage skipped)", len(entries))
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	w := openWAL(t, t.TempDir())
	for i := 0; i < 4; i++ {
		appendInsert(t, w, "items")
	}
	first, err := w.Replay(0)
	if err != nil {
		t.Fatalf("first Replay = %v", err)
	}
	second, err := w.Replay(0)
	if err != nil {
		t.Fatalf("second Replay = %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("replays disagree: %d vs %d entries", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("entry %d: ids differ (%d vs %d)", i, first[i].ID, second[i].ID)
		}
	}
}

func TestIDsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	w := openWAL(t, dir)
	appendInsert(t, w, "items")
	appendInsert(t, w, "items")

	reopened := openWAL(t, dir)
	entry := appendInsert(t, reopened, "items")
	if entry.ID != 3 {
		t.Errorf("id after reopen = %d, want 3", entry.ID)
	}
}

func TestIDsSurviveSnapshotAndCompact(t *testing.T) {
	dir := t.TempDir()
	w := openWAL(t, dir)
	appendInsert(t, w, "items")
	appendInsert(t, w, "items")

	tbl := types.NewTable("items", types.NewSchema(types.NewColumn("id", types.TypeInteger, true)))
	if _, err := w.WriteSnapshot(map[string]*types.Table{"items": tbl}); err != nil {
		t.Fatalf("WriteSnapshot = %v", err)
	}
	if err := w.Compact(); err != nil {
		t.Fatalf("Compact = %v", err)
	}
	entries, err := w.Replay(0)
	if err != nil {
		t.Fatalf("Replay after compact = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("log after compact has %d entries, want 0", len(entries))
	}

	reopened := openWAL(t, dir)
	entry := appendInsert(t, reopened, "items")
	if entry.ID != 3 {
		t.Errorf("id after compact and reopen = %d, want 3", entry.ID)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	w := openWAL(t, t.TempDir())

	cold, err := w.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot cold = %v", err)
	}
	if cold != nil {
		t.Fatal("cold start returned a snapshot")
	}

	appendInsert(t, w, "items")
	tbl := types.NewTable("items", types.NewSchema(types.NewColumn("id", types.TypeInteger, true)))
	row := types.NewRow()
	row.Set("id", types.Int(7))
	if err := tbl.Insert(row); err != nil {
		t.Fatalf("Insert = %v", err)
	}
	if _, err := w.WriteSnapshot(map[string]*types.Table{"items": tbl}); err != nil {
		t.Fatalf("WriteSnapshot = %v", err)
	}

	snap, err := w.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot = %v", err)
	}
	if snap.LastLogID != 1 {
		t.Errorf("LastLogID = %d, want 1", snap.LastLogID)
	}
	if len(snap.Tables) != 1 || snap.Tables[0].Name != "items" || snap.Tables[0].RowCount() != 1 {
		t.Fatalf("snapshot tables = %v, want items with 1 row", snap.Tables)
	}
	if got, _ := snap.Tables[0].Rows[0].GetInt("id"); got != 7 {
		t.Errorf("row id = %d, want 7", got)
	}
}

func TestSnapshotTablesAreSortedArray(t *testing.T) {
	dir := t.TempDir()
	w := openWAL(t, dir)
	schema := types.NewSchema(types.NewColumn("id", types.TypeInteger, true))
	tables := map[string]*types.Table{
		"zebras":  types.NewTable("zebras", schema),
		"apples":  types.NewTable("apples", schema),
		"mangoes": types.NewTable("mangoes", schema),
	}
	if _, err := w.WriteSnapshot(tables); err != nil {
		t.Fatalf("WriteSnapshot = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, types.SnapshotFileName))
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	var raw struct {
		Tables json.RawMessage `json:"tables"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if trimmed := bytes.TrimSpace(raw.Tables); len(trimmed) == 0 || trimmed[0] != '[' {
		t.Fatalf("tables field starts with %q, want a JSON array", raw.Tables[:1])
	}

	snap, err := w.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot = %v", err)
	}
	want := []string{"apples", "mangoes", "zebras"}
	if len(snap.Tables) != len(want) {
		t.Fatalf("snapshot has %d tables, want %d", len(snap.Tables), len(want))
	}
	for i, name := range want {
		if snap.Tables[i].Name != name {
			t.Errorf("Tables[%d].Name = %q, want %q", i, snap.Tables[i].Name, name)
		}
	}
}

func TestReplayHandlesLargeEntries(t *testing.T) {
	dir := t.TempDir()
	w := openWAL(t, dir)
	row := types.NewRow()
	row.Set("blob", types.Binary(make([]byte, 13<<20)))
	if _, err := w.Append(Operation{Type: OpInsert, Table: "items", Row: row}); err != nil {
		t.Fatalf("Append = %v", err)
	}

	entries, err := w.Replay(0)
	if err != nil {
		t.Fatalf("Replay = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Replay = %d entries, want 1", len(entries))
	}
	got, ok := entries[0].Operation.Row.Get("blob")
	if !ok {
		t.Fatal("replayed row is missing the blob column")
	}
	if b, _ := got.AsBinary(); len(b) != 13<<20 {
		t.Errorf("replayed blob is %d bytes, want %d", len(b), 13<<20)
	}

	reopened := openWAL(t, dir)
	if reopened.LastID() != 1 {
		t.Errorf("LastID after reopen = %d, want 1", reopened.LastID())
	}
}

func TestStatsReportsWatermark(t *testing.T) {
	w := openWAL(t, t.TempDir())
	for i := 0; i < 3; i++ {
		appendInsert(t, w, "items")
	}
	st, err := w.Stats()
	if err != nil {
		t.Fatalf("Stats = %v", err)
	}
	if st.LastLogID != 3 {
		t.Errorf("LastLogID = %d, want 3", st.LastLogID)
	}
	if st.LogEntries != 3 {
		t.Errorf("LogEntries = %d, want 3", st.LogEntries)
	}
}

func TestBackupAndRestore(t *testing.T) {
	dir := t.TempDir()
	w := openWAL(t, dir)
	appendInsert(t, w, "items")
	tbl := types.NewTable("items", types.NewSchema(types.NewColumn("id", types.TypeInteger, true)))
	if _, err := w.WriteSnapshot(map[string]*types.Table{"items": tbl}); err != nil {
		t.Fatalf("WriteSnapshot = %v", err)
	}

	backupDir := filepath.Join(t.TempDir(), "backup")
	if err := w.Backup(backupDir); err != nil {
		t.Fatalf("Backup = %v", err)
	}

	appendInsert(t, w, "items")
	if err := w.Restore(backupDir); err != nil {
		t.Fatalf("Restore = %v", err)
	}
	entries, err := w.Replay(0)
	if err != nil {
		t.Fatalf("Replay = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("log after restore has %d entries, want 1", len(entries))
	}
	if w.LastID() != 1 {
		t.Errorf("LastID after restore = %d, want 1", w.LastID())
	}

	st, err := w.Stats()
	if err != nil {
		t.Fatalf("Stats = %v", err)
	}
	if !st.HasSnapshot || st.LogEntries != 1 {
		t.Errorf("Stats = %+v, want snapshot present and 1 log entry", st)
	}
}
