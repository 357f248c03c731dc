package dataset

import (
	"errors"
	"fmt"

	"github.com/hupe1980/distcluster/internal/rng"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidSize is returned by Generate for non-positive sizes.
var ErrInvalidSize = errors.New("dataset: invalid size")

const (
	numClasses = 2
	classSep   = 1.0
	flipY      = 0.01
)

// Generate creates nObs rows in nDim dimensions split evenly over two
// classes. Every dimension is informative. A small fraction of labels is
// flipped at random. The result depends only on the arguments.
func Generate(nObs, nDim int, seed int64) (*Dataset, error) {
	if nObs < numClasses {
		return nil, fmt.Errorf("%w: n_obs=%d, need at least %d", ErrInvalidSize, nObs, numClasses)
	}
	if nDim < 1 {
		return nil, fmt.Errorf("%w: n_dim=%d", ErrInvalidSize, nDim)
	}

	r := rng.New(seed)
	centroids := vertices(r, nDim)

	counts := make([]int, numClasses)
	for i := range counts {
		counts[i] = nObs / numClasses
	}
	for i := 0; i < nObs%numClasses; i++ {
		counts[i]++
	}

	x := mat.NewDense(nObs, nDim, nil)
	y := make([]int64, nObs)

	start := 0
	for k, n := range counts {
		noise := make([]float64, n*nDim)
		r.FillGaussian(noise)

		cov := make([]float64, nDim*nDim)
		r.FillUniformRange(cov, -1, 1)

		block := x.Slice(start, start+n, 0, nDim).(*mat.Dense)
		block.Mul(mat.NewDense(n, nDim, noise), mat.NewDense(nDim, nDim, cov))
		for i := 0; i < n; i++ {
			row := block.RawRowView(i)
			for j := range row {
				row[j] += centroids[k][j]
			}
			y[start+i] = int64(k)
		}
		start += n
	}

	for i := range y {
		if r.Float64() < flipY {
			y[i] = int64(r.Intn(numClasses))
		}
	}

	tmp := make([]float64, nDim)
	r.Shuffle(nObs, func(i, j int) {
		ri, rj := x.RawRowView(i), x.RawRowView(j)
		copy(tmp, ri)
		copy(ri, rj)
		copy(rj, tmp)
		y[i], y[j] = y[j], y[i]
	})

	return &Dataset{X: x, Y: y}, nil
}

// vertices picks distinct corners of the hypercube with side 2*classSep.
func vertices(r *rng.RNG, dim int) [][]float64 {
	out := make([][]float64, 0, numClasses)
	for len(out) < numClasses {
		v := make([]float64, dim)
		for j := range v {
			v[j] = -classSep
			if r.Intn(2) == 1 {
				v[j] = classSep
			}
		}
		if !containsRow(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func containsRow(rows [][]float64, v []float64) bool {
	for _, row := range rows {
		same := true
		for j := range row {
			if row[j] != v[j] {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}
