package aggregate

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KMeans is the hard-assignment aggregator.
type KMeans struct{}

// Name implements Aggregator.
func (KMeans) Name() string { return "kmeans" }

// NewWorkspace implements Aggregator.
func (KMeans) NewWorkspace(rows, k, dim int, optFns ...WorkspaceOption) *Workspace {
	w := newWorkspace(rows, k, dim, optFns...)
	w.labels = make([]int, rows)
	return w
}

// Aggregate assigns every row to its nearest center and emits, per cluster,
// the row count and the local mean scaled by that count.
//
// Squared distances are used since only the arg-min matters. Ties go to the
// lowest center index. A cluster without rows contributes a zero vector.
func (KMeans) Aggregate(w *Workspace, shard, centers *mat.Dense) error {
	if err := w.check(shard, centers); err != nil {
		return err
	}

	p := w.partial
	p.Reset()

	for i := 0; i < w.rows; i++ {
		row := shard.RawRowView(i)
		best := 0
		bestDist := math.Inf(1)
		for j := 0; j < w.k; j++ {
			d := squaredL2(row, centers.RawRowView(j))
			w.dist.Set(i, j, d)
			if d < bestDist {
				best = j
				bestDist = d
			}
		}
		w.labels[i] = best
		p.Mass[best]++
		floats.Add(p.Sum.RawRowView(best), row)
		if w.trackCost {
			p.Cost += bestDist
		}
	}

	for j := 0; j < w.k; j++ {
		sum := p.Sum.RawRowView(j)
		count := p.Mass[j]
		if count == 0 {
			for d := range sum {
				sum[d] = 0
			}
			continue
		}
		// local mean, then back to mean*count so the reducer can add directly
		floats.Scale(1/count, sum)
		floats.Scale(count, sum)
	}

	return nil
}
