package testutil

import (
	"testing"

	"github.com/hupe1980/distcluster/internal/rng"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestClusteredMatrix(t *testing.T) {
	x := ClusteredMatrix(rng.New(4711), 30, 4, 3, 0)
	r, c := x.Dims()
	assert.Equal(t, 30, r)
	assert.Equal(t, 4, c)

	// zero spread puts every row on its centroid
	assert.Equal(t, x.RawRowView(0), x.RawRowView(3))
	assert.NotEqual(t, x.RawRowView(0), x.RawRowView(1))
}

func TestLloydStep(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 1, 10, 11})
	got := LloydStep(x, mat.NewDense(2, 1, []float64{0, 10}))
	assert.Equal(t, []float64{0.5, 10.5}, got.RawMatrix().Data)
}

func TestFuzzyStep(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{-1, 1})
	got := FuzzyStep(x, mat.NewDense(1, 1, []float64{0}), 2)
	assert.InDelta(t, 0, got.At(0, 0), 1e-12)
}

func TestFirstRows(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	assert.Equal(t, []float64{1, 2, 3, 4}, FirstRows(x, 2).RawMatrix().Data)
}
