// Package larder is the embedded database facade. It combines the
// in-memory table store, the query executor, and the append-only
// log/snapshot persistence behind one handle that is safe for
// concurrent use from multiple goroutines.
//
// A DB is opened against a data directory and recovers its state from
// the latest snapshot plus the log tail. With auto-save on, every
// mutation is appended to the operation log as it happens; with it
// off, persistence is limited to explicit snapshots. Reads run
// concurrently; writes are serialized.
package larder
