package aggregate

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultFuzziness is the default fuzziness exponent.
const DefaultFuzziness = 2.0

// FuzzyCMeans is the soft-assignment aggregator.
type FuzzyCMeans struct {
	// Fuzziness is the exponent m > 1. Zero means DefaultFuzziness.
	Fuzziness float64
}

// Name implements Aggregator.
func (FuzzyCMeans) Name() string { return "fuzzy-cmeans" }

// Validate reports whether the fuzziness exponent is usable.
func (f FuzzyCMeans) Validate() error {
	if !(f.fuzziness() > 1) {
		return ErrInvalidFuzziness
	}
	return nil
}

func (f FuzzyCMeans) fuzziness() float64 {
	if f.Fuzziness == 0 {
		return DefaultFuzziness
	}
	return f.Fuzziness
}

// NewWorkspace implements Aggregator.
func (FuzzyCMeans) NewWorkspace(rows, k, dim int, optFns ...WorkspaceOption) *Workspace {
	w := newWorkspace(rows, k, dim, optFns...)
	w.memberships = mat.NewDense(rows, k, nil)
	w.weights = mat.NewDense(rows, k, nil)
	return w
}

// Aggregate computes fuzzy memberships u = d^(-2/(m-1)), normalized per row,
// and emits the column sums of u^m and (u^m)^T · shard.
//
// A row that coincides with a center yields an undefined membership; every
// such NaN entry is replaced by zero.
func (f FuzzyCMeans) Aggregate(w *Workspace, shard, centers *mat.Dense) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if err := w.check(shard, centers); err != nil {
		return err
	}

	m := f.fuzziness()
	exp := -2 / (m - 1)
	p := w.partial
	p.Reset()

	for i := 0; i < w.rows; i++ {
		row := shard.RawRowView(i)
		dist := w.dist.RawRowView(i)
		u := w.memberships.RawRowView(i)

		var total float64
		for j := 0; j < w.k; j++ {
			dist[j] = floats.Distance(row, centers.RawRowView(j), 2)
			u[j] = math.Pow(dist[j], exp)
			total += u[j]
		}
		for j := range u {
			v := u[j] / total
			if math.IsNaN(v) {
				v = 0
			}
			u[j] = v
		}

		mu := w.weights.RawRowView(i)
		for j := range mu {
			mu[j] = math.Pow(u[j], m)
			p.Mass[j] += mu[j]
			if w.trackCost {
				p.Cost += mu[j] * dist[j] * dist[j]
			}
		}
	}

	p.Sum.Mul(w.weights.T(), shard)
	return nil
}
