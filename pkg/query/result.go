package query

import "github.com/mesh-intelligence/larder/pkg/types"

// Result is the outcome of executing a query. Rows is populated for
// SELECT, Count for COUNT, and AffectedRows for the mutation kinds.
// An empty match yields zero values, never an error.
type Result struct {
	Kind            Kind         `json:"kind"`
	Table           string       `json:"table"`
	Rows            []*types.Row `json:"rows,omitempty"`
	AffectedRows    int          `json:"affected_rows"`
	Count           int          `json:"count"`
	ExecutionTimeMS int64        `json:"execution_time_ms"`
}
