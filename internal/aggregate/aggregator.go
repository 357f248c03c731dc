package aggregate

import "gonum.org/v1/gonum/mat"

// Aggregator computes a unit's partial statistics for one round.
//
// Implementations are stateless and safe for concurrent use; all mutable
// state lives in the Workspace.
type Aggregator interface {
	// Name identifies the variant in logs and metrics.
	Name() string
	// NewWorkspace allocates the per-unit state for a shard of rows×dim and k centers.
	NewWorkspace(rows, k, dim int, optFns ...WorkspaceOption) *Workspace
	// Aggregate fills w.Partial() from the shard and the current centers.
	// It must only read shard and centers.
	Aggregate(w *Workspace, shard, centers *mat.Dense) error
}

func squaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
