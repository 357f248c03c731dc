package aggregate

import (
	"github.com/hupe1980/distcluster/internal/mem"
	"gonum.org/v1/gonum/mat"
)

// Partial is the (mass, weighted-sum) pair a unit produces for one round.
type Partial struct {
	// Mass holds, per cluster, the row count (KMeans) or the membership mass (FuzzyCMeans).
	Mass []float64
	// Sum is the K×M weighted-sum matrix.
	Sum *mat.Dense
	// Cost is the shard's contribution to the objective. Only filled when cost
	// tracking is enabled on the workspace.
	Cost float64
}

// NewPartial allocates a zeroed partial for k clusters of dimension dim.
// Both buffers start on a cache line.
func NewPartial(k, dim int) *Partial {
	return &Partial{
		Mass: mem.AllocAlignedFloat64(k),
		Sum:  mat.NewDense(k, dim, mem.AllocAlignedFloat64(k*dim)),
	}
}

// Reset zeroes the partial in place.
func (p *Partial) Reset() {
	for i := range p.Mass {
		p.Mass[i] = 0
	}
	p.Sum.Zero()
	p.Cost = 0
}

// Dims returns the number of clusters and the dimension.
func (p *Partial) Dims() (k, dim int) {
	return p.Sum.Dims()
}
