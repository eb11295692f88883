package wal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// WAL owns the operation log and snapshot files of one data
// directory. It is not safe for concurrent use; the facade serializes
// access with its own lock.
type WAL struct {
	dataDir  string
	logPath  string
	snapPath string
	lastID   uint64
}

// Open prepares the data directory and recovers the last assigned log
// id from the snapshot watermark and the log tail, so ids keep
// increasing across restarts.
func Open(dataDir string) (*WAL, error) {
	if dataDir == "" {
		return nil, types.ErrDataDirEmpty
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}
	w := &WAL{
		dataDir:  dataDir,
		logPath:  filepath.Join(dataDir, types.LogFileName),
		snapPath: filepath.Join(dataDir, types.SnapshotFileName),
	}

	snap, err := w.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	if snap != nil {
		w.lastID = snap.LastLogID
	}
	entries, err := w.Replay(w.lastID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID > w.lastID {
			w.lastID = e.ID
		}
	}
	return w, nil
}

// DataDir returns the directory the log and snapshot live in.
func (w *WAL) DataDir() string { return w.dataDir }

// LastID returns the highest log id assigned so far.
func (w *WAL) LastID() uint64 { return w.lastID }

// Append assigns the next id to op and appends it as one JSON line.
// The line is synced before Append returns.
func (w *WAL) Append(op Operation) (LogEntry, error) {
	entry := LogEntry{
		ID:        w.lastID + 1,
		Timestamp: time.Now().UTC(),
		Operation: op,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return LogEntry{}, fmt.Errorf("encoding log entry %d: %w", entry.ID, err)
	}

	f, err := os.OpenFile(w.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return LogEntry{}, fmt.Errorf("opening %s: %w", w.logPath, err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return LogEntry{}, fmt.Errorf("appending to %s: %w", w.logPath, err)
	}
	if err := f.Sync(); err != nil {
		return LogEntry{}, fmt.Errorf("syncing %s: %w", w.logPath, err)
	}

	w.lastID = entry.ID
	return entry, nil
}

// Replay returns the log entries with id greater than fromID in
// ascending id order. Empty and malformed lines are skipped so a
// torn final write never blocks recovery of the valid prefix. Lines
// are read without a length bound, so an entry is replayable at any
// size Append accepted. A missing log file is an empty log.
func (w *WAL) Replay(fromID uint64) ([]LogEntry, error) {
	f, err := os.Open(w.logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", w.logPath, err)
	}
	defer f.Close()

	var entries []LogEntry
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var entry LogEntry
			// Skip malformed lines; the rest of the log is still good.
			if uerr := json.Unmarshal(line, &entry); uerr == nil && entry.ID > fromID {
				entries = append(entries, entry)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading %s: %w", w.logPath, err)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// WriteSnapshot atomically persists tables with the current log id as
// watermark. Tables are serialized as a name-sorted array. The caller
// passes a deep copy; the snapshot does not retain it.
func (w *WAL) WriteSnapshot(tables map[string]*types.Table) (*Snapshot, error) {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	ordered := make([]*types.Table, 0, len(tables))
	for _, name := range names {
		ordered = append(ordered, tables[name])
	}

	snap := &Snapshot{
		Tables:    ordered,
		Timestamp: time.Now().UTC(),
		LastLogID: w.lastID,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := writeAtomic(w.snapPath, data); err != nil {
		return nil, err
	}
	return snap, nil
}

// LoadSnapshot reads the snapshot file. A missing file is a cold
// start and returns nil without error.
func (w *WAL) LoadSnapshot() (*Snapshot, error) {
	data, err := os.ReadFile(w.snapPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", w.snapPath, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", w.snapPath, err)
	}
	return &snap, nil
}

// Compact truncates the operation log. Call only after WriteSnapshot
// has folded the log into the snapshot; assigned ids are kept so new
// entries continue the sequence.
func (w *WAL) Compact() error {
	if err := os.WriteFile(w.logPath, nil, 0o644); err != nil {
		return fmt.Errorf("truncating %s: %w", w.logPath, err)
	}
	return nil
}

// Stats describes the on-disk footprint of the data directory and the
// current watermark.
type Stats struct {
	LogEntries   int    `json:"log_entries"`
	LogBytes     int64  `json:"log_bytes"`
	SnapshotSize int64  `json:"snapshot_bytes"`
	HasSnapshot  bool   `json:"has_snapshot"`
	LastLogID    uint64 `json:"last_log_id"`
}

// Stats reads the current file sizes, log entry count, and the last
// assigned log id.
func (w *WAL) Stats() (Stats, error) {
	var st Stats
	entries, err := w.Replay(0)
	if err != nil {
		return Stats{}, err
	}
	st.LogEntries = len(entries)
	st.LastLogID = w.lastID
	if info, err := os.Stat(w.logPath); err == nil {
		st.LogBytes = info.Size()
	}
	if info, err := os.Stat(w.snapPath); err == nil {
		st.SnapshotSize = info.Size()
		st.HasSnapshot = true
	}
	return st, nil
}

// Backup copies the snapshot and log files into dir, creating it if
// needed. Files that do not exist yet are skipped.
func (w *WAL) Backup(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating backup directory %s: %w", dir, err)
	}
	for _, name := range []string{types.SnapshotFileName, types.LogFileName} {
		src := filepath.Join(w.dataDir, name)
		if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := copyFile(src, filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// Restore replaces the data directory's snapshot and log with the
// copies in dir. The caller reloads state afterwards.
func (w *WAL) Restore(dir string) error {
	for _, name := range []string{types.SnapshotFileName, types.LogFileName} {
		src := filepath.Join(dir, name)
		dst := filepath.Join(w.dataDir, name)
		if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
			if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("removing %s: %w", dst, err)
			}
			continue
		}
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}

	w.lastID = 0
	snap, err := w.LoadSnapshot()
	if err != nil {
		return err
	}
	if snap != nil {
		w.lastID = snap.LastLogID
	}
	entries, err := w.Replay(w.lastID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.ID > w.lastID {
			w.lastID = e.ID
		}
	}
	return nil
}

// writeAtomic writes data to path via the temp-file, fsync, rename
// pattern.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	return writeAtomic(dst, data)
}
