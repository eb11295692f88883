// Package types defines the typed data model for the larder storage
// engine: the Value tagged union, column and schema definitions, rows,
// tables, the engine configuration, and the standard errors shared by
// every layer above.
package types
