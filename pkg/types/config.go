package types

// Default file and directory names used by the persistence layer.
const (
	DefaultDataDirName = ".larder-db"
	LogFileName        = "transaction.log"
	SnapshotFileName   = "snapshot.json"
)

// Config holds the engine configuration: where the log and snapshot
// files live and whether every mutation is appended to the operation
// log as it happens. With AutoSave off, state is persisted only by
// explicit snapshots (SaveToDisk, Compact, Backup, Close).
type Config struct {
	DataDir  string `json:"data_dir" yaml:"data_dir"`
	AutoSave bool   `json:"auto_save" yaml:"auto_save"`
}

// DefaultConfig returns the configuration used when nothing is
// specified: a CWD-relative data directory with auto-save on.
func DefaultConfig() Config {
	return Config{DataDir: DefaultDataDirName, AutoSave: true}
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	return nil
}
