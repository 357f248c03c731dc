// Package reduce merges per-unit partial aggregates into the next version of
// the global center matrix.
package reduce

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/distcluster/internal/aggregate"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoPartials is returned when Merge is called without any partial.
	ErrNoPartials = errors.New("reduce: no partial aggregates")
	// ErrShapeMismatch is returned when a partial or a center buffer has the wrong shape.
	ErrShapeMismatch = errors.New("reduce: shape mismatch")
)

// Policy decides what happens to a cluster whose global mass is zero.
type Policy int

const (
	// Propagate divides by the zero mass and lets the resulting not-a-number
	// reach the center matrix.
	Propagate Policy = iota
	// KeepPrevious leaves the cluster at its previous center.
	KeepPrevious
)

func (p Policy) String() string {
	switch p {
	case Propagate:
		return "propagate"
	case KeepPrevious:
		return "keep-previous"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// Summary describes one merge.
type Summary struct {
	// Mass is the global per-cluster mass. It is owned by the Reducer and
	// overwritten by the next Merge.
	Mass []float64
	// Cost is the sum of the partial costs.
	Cost float64
	// ZeroMass holds the ids of clusters whose global mass summed to zero.
	ZeroMass *roaring.Bitmap
	// Shift is the largest Euclidean displacement of any center in this merge.
	// It is NaN when a center became NaN.
	Shift float64
}

// Reducer sums partial aggregates and divides weighted sums by mass.
// It is not safe for concurrent use; the engine calls it from the round barrier.
type Reducer struct {
	k, dim int
	policy Policy

	mass []float64
	sum  *mat.Dense
}

// New creates a Reducer for k clusters of dimension dim.
func New(k, dim int, policy Policy) *Reducer {
	return &Reducer{
		k:      k,
		dim:    dim,
		policy: policy,
		mass:   make([]float64, k),
		sum:    mat.NewDense(k, dim, nil),
	}
}

// Merge sums the partials element-wise and writes the updated centers into
// next. prev is the currently published version; it is read for the shift and
// for the KeepPrevious policy, never written.
func (r *Reducer) Merge(partials []*aggregate.Partial, prev, next *mat.Dense) (Summary, error) {
	if len(partials) == 0 {
		return Summary{}, ErrNoPartials
	}
	if err := r.checkShape(prev); err != nil {
		return Summary{}, err
	}
	if err := r.checkShape(next); err != nil {
		return Summary{}, err
	}

	for i := range r.mass {
		r.mass[i] = 0
	}
	r.sum.Zero()

	var cost float64
	for i, p := range partials {
		k, dim := p.Dims()
		if k != r.k || dim != r.dim || len(p.Mass) != r.k {
			return Summary{}, fmt.Errorf("%w: partial %d is %dx%d, want %dx%d", ErrShapeMismatch, i, k, dim, r.k, r.dim)
		}
		floats.Add(r.mass, p.Mass)
		r.sum.Add(r.sum, p.Sum)
		cost += p.Cost
	}

	zero := roaring.New()
	var shift float64
	for j := 0; j < r.k; j++ {
		dst := next.RawRowView(j)
		old := prev.RawRowView(j)
		mass := r.mass[j]

		if mass == 0 {
			zero.Add(uint32(j))
			if r.policy == KeepPrevious {
				copy(dst, old)
				continue
			}
		}

		src := r.sum.RawRowView(j)
		for d := range dst {
			dst[d] = src[d] / mass
		}

		switch s := floats.Distance(dst, old, 2); {
		case math.IsNaN(s):
			shift = math.NaN()
		case s > shift:
			shift = s
		}
	}

	return Summary{
		Mass:     r.mass,
		Cost:     cost,
		ZeroMass: zero,
		Shift:    shift,
	}, nil
}

func (r *Reducer) checkShape(m *mat.Dense) error {
	k, dim := m.Dims()
	if k != r.k || dim != r.dim {
		return fmt.Errorf("%w: centers are %dx%d, want %dx%d", ErrShapeMismatch, k, dim, r.k, r.dim)
	}
	return nil
}
