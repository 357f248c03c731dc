package testutil

import (
	"math"

	"github.com/hupe1980/distcluster/internal/rng"
	"gonum.org/v1/gonum/mat"
)

// ClusteredMatrix generates num rows clustered around `clusters` centroids
// drawn uniformly from [-10, 10)^dim. Row i belongs to centroid i%clusters,
// so the first `clusters` rows cover every centroid.
func ClusteredMatrix(r *rng.RNG, num, dim, clusters int, spread float64) *mat.Dense {
	centroids := make([]float64, clusters*dim)
	r.FillUniformRange(centroids, -10, 10)

	noise := make([]float64, num*dim)
	r.FillGaussian(noise)

	x := mat.NewDense(num, dim, nil)
	for i := 0; i < num; i++ {
		c := centroids[(i%clusters)*dim : (i%clusters+1)*dim]
		row := x.RawRowView(i)
		for j := range row {
			row[j] = c[j] + noise[i*dim+j]*spread
		}
	}
	return x
}

// FirstRows returns a copy of the first k rows of x.
func FirstRows(x mat.Matrix, k int) *mat.Dense {
	_, dim := x.Dims()
	out := mat.NewDense(k, dim, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < dim; j++ {
			out.Set(i, j, x.At(i, j))
		}
	}
	return out
}

// LloydStep is a single-process K-means update. Clusters without rows
// become NaN.
func LloydStep(x, centers mat.Matrix) *mat.Dense {
	n, dim := x.Dims()
	k, _ := centers.Dims()

	sums := mat.NewDense(k, dim, nil)
	counts := make([]float64, k)
	for i := 0; i < n; i++ {
		best, bestDist := 0, math.Inf(1)
		for j := 0; j < k; j++ {
			var d float64
			for c := 0; c < dim; c++ {
				diff := x.At(i, c) - centers.At(j, c)
				d += diff * diff
			}
			if d < bestDist {
				best, bestDist = j, d
			}
		}
		counts[best]++
		for c := 0; c < dim; c++ {
			sums.Set(best, c, sums.At(best, c)+x.At(i, c))
		}
	}

	out := mat.NewDense(k, dim, nil)
	for j := 0; j < k; j++ {
		for c := 0; c < dim; c++ {
			out.Set(j, c, sums.At(j, c)/counts[j])
		}
	}
	return out
}

// FuzzyStep is a single-process fuzzy C-means update with fuzziness m.
// Rows that sit exactly on a center contribute nothing.
func FuzzyStep(x, centers mat.Matrix, m float64) *mat.Dense {
	n, dim := x.Dims()
	k, _ := centers.Dims()

	mass := make([]float64, k)
	sums := mat.NewDense(k, dim, nil)
	u := make([]float64, k)
	for i := 0; i < n; i++ {
		var total float64
		for j := 0; j < k; j++ {
			var d float64
			for c := 0; c < dim; c++ {
				diff := x.At(i, c) - centers.At(j, c)
				d += diff * diff
			}
			u[j] = math.Pow(math.Sqrt(d), -2/(m-1))
			total += u[j]
		}
		for j := 0; j < k; j++ {
			v := u[j] / total
			if math.IsNaN(v) {
				v = 0
			}
			w := math.Pow(v, m)
			mass[j] += w
			for c := 0; c < dim; c++ {
				sums.Set(j, c, sums.At(j, c)+w*x.At(i, c))
			}
		}
	}

	out := mat.NewDense(k, dim, nil)
	for j := 0; j < k; j++ {
		for c := 0; c < dim; c++ {
			out.Set(j, c, sums.At(j, c)/mass[j])
		}
	}
	return out
}
