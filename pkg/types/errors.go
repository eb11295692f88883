package types

import "errors"

// Storage and constraint errors. Callers classify failures with
// errors.Is; lower layers wrap these with context via fmt.Errorf and %w.
var (
	ErrTableExists      = errors.New("table already exists")
	ErrTableNotFound    = errors.New("table not found")
	ErrRowNotFound      = errors.New("row not found")
	ErrColumnNotFound   = errors.New("column not found")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrUniqueViolation  = errors.New("unique constraint violation")
	ErrNotNullViolation = errors.New("not-null constraint violation")
	ErrParse            = errors.New("parse error")
)

// Config validation errors.
var (
	ErrDataDirEmpty = errors.New("data dir must not be empty")
)
