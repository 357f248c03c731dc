package aggregate

import (
	"gonum.org/v1/gonum/mat"
)

// Workspace holds the transient per-round state of one compute unit.
type Workspace struct {
	rows, k, dim int
	trackCost    bool

	dist        *mat.Dense // rows×k distances (squared for KMeans)
	labels      []int      // KMeans assignment
	memberships *mat.Dense // FuzzyCMeans normalized membership
	weights     *mat.Dense // FuzzyCMeans membership^fuzziness

	partial *Partial
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*Workspace)

// WithCostTracking makes the aggregator also accumulate the objective.
func WithCostTracking() WorkspaceOption {
	return func(w *Workspace) {
		w.trackCost = true
	}
}

func newWorkspace(rows, k, dim int, optFns ...WorkspaceOption) *Workspace {
	w := &Workspace{
		rows:    rows,
		k:       k,
		dim:     dim,
		dist:    mat.NewDense(rows, k, nil),
		partial: NewPartial(k, dim),
	}
	for _, fn := range optFns {
		fn(w)
	}
	return w
}

// Partial returns the partial produced by the last Aggregate call.
func (w *Workspace) Partial() *Partial { return w.partial }

// Distances returns the rows×k distance matrix of the last round.
func (w *Workspace) Distances() *mat.Dense { return w.dist }

// Labels returns the hard assignment of the last KMeans round, nil otherwise.
func (w *Workspace) Labels() []int { return w.labels }

// Memberships returns the normalized memberships of the last FuzzyCMeans
// round (before the fuzziness power), nil otherwise.
func (w *Workspace) Memberships() *mat.Dense { return w.memberships }

// Bytes estimates the memory held by the workspace.
func (w *Workspace) Bytes() int64 {
	floats := w.rows*w.k + w.k + w.k*w.dim
	if w.memberships != nil {
		floats += 2 * w.rows * w.k
	}
	n := int64(floats) * 8
	if w.labels != nil {
		n += int64(len(w.labels)) * 8
	}
	return n
}

func (w *Workspace) check(shard, centers *mat.Dense) error {
	n, m := shard.Dims()
	k, cm := centers.Dims()
	if cm != m {
		return &DimensionError{Expected: m, Actual: cm}
	}
	if n != w.rows || k != w.k || m != w.dim {
		return ErrWorkspaceShape
	}
	return nil
}
