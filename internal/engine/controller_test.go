package engine

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/distcluster/internal/aggregate"
	"github.com/hupe1980/distcluster/internal/partition"
	"github.com/hupe1980/distcluster/internal/reduce"
	"github.com/hupe1980/distcluster/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func twoBlobs() *mat.Dense {
	return mat.NewDense(8, 2, []float64{
		0, 0,
		10, 10,
		1, 0,
		11, 10,
		0, 1,
		10, 11,
		1, 1,
		11, 11,
	})
}

func firstRows(x *mat.Dense, k int) *mat.Dense {
	_, m := x.Dims()
	return mat.DenseCopyOf(x.Slice(0, k, 0, m))
}

type recordingObserver struct {
	mu      sync.Mutex
	setups  int
	inits   int
	rounds  []int
	zero    []int
	lastErr error
}

func (o *recordingObserver) OnSetup(_ time.Duration, _ int, _ int64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.setups++
	if err != nil {
		o.lastErr = err
	}
}

func (o *recordingObserver) OnInitialize(_ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inits++
	if err != nil {
		o.lastErr = err
	}
}

func (o *recordingObserver) OnRound(round int, _ time.Duration, zeroMass int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rounds = append(o.rounds, round)
	o.zero = append(o.zero, zeroMass)
	if err != nil {
		o.lastErr = err
	}
}

type panickingAggregator struct{ aggregate.KMeans }

func (panickingAggregator) Aggregate(*aggregate.Workspace, *mat.Dense, *mat.Dense) error {
	panic("boom")
}

func TestController_RunTwoBlobs(t *testing.T) {
	x := twoBlobs()
	obs := &recordingObserver{}

	c, err := New(aggregate.KMeans{}, []string{"gpu:0", "gpu:1"}, WithMetricsObserver(obs))
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Run(context.Background(), x, firstRows(x, 2), 1)
	require.NoError(t, err)

	assert.Equal(t, StateDone, c.State())
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, 0, res.Dropped)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, res.Final.RawRowView(0), 1e-12)
	assert.InDeltaSlice(t, []float64{10.5, 10.5}, res.Final.RawRowView(1), 1e-12)
	assert.True(t, mat.Equal(firstRows(x, 2), res.Initial))
	assert.True(t, res.ZeroMass.IsEmpty())
	assert.GreaterOrEqual(t, res.Timings.Computation, time.Duration(0))

	assert.Equal(t, 1, obs.setups)
	assert.Equal(t, 1, obs.inits)
	assert.Equal(t, []int{1}, obs.rounds)
	assert.NoError(t, obs.lastErr)
}

func TestController_FixedPoint(t *testing.T) {
	x := twoBlobs()

	c, err := New(aggregate.KMeans{}, []string{"a", "b"})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Setup(ctx, x, 2))
	require.NoError(t, c.Initialize(firstRows(x, 2)))

	_, err = c.Compute(ctx)
	require.NoError(t, err)
	converged := c.Result().Final

	r, err := c.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Index)
	assert.Equal(t, uint64(3), r.Generation)
	assert.Equal(t, 0.0, r.Shift)
	assert.True(t, mat.EqualApprox(converged, c.Result().Final, 1e-12))
}

func TestController_DropsLeadingRows(t *testing.T) {
	// first row is an outlier and N mod P = 1
	x := mat.NewDense(9, 1, []float64{1000, 1, 2, 3, 4, 5, 6, 7, 8})

	c, err := New(aggregate.KMeans{}, []string{"a", "b"})
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Run(context.Background(), x, mat.NewDense(1, 1, []float64{0}), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dropped)
	assert.InDelta(t, 4.5, res.Final.At(0, 0), 1e-12)
}

func sequentialLloyd(x, centers *mat.Dense) *mat.Dense {
	n, m := x.Dims()
	k, _ := centers.Dims()
	sums := mat.NewDense(k, m, nil)
	counts := make([]float64, k)
	for i := 0; i < n; i++ {
		best, bestDist := 0, math.Inf(1)
		for j := 0; j < k; j++ {
			var d float64
			for c := 0; c < m; c++ {
				diff := x.At(i, c) - centers.At(j, c)
				d += diff * diff
			}
			if d < bestDist {
				best, bestDist = j, d
			}
		}
		counts[best]++
		for c := 0; c < m; c++ {
			sums.Set(best, c, sums.At(best, c)+x.At(i, c))
		}
	}
	out := mat.NewDense(k, m, nil)
	for j := 0; j < k; j++ {
		for c := 0; c < m; c++ {
			out.Set(j, c, sums.At(j, c)/counts[j])
		}
	}
	return out
}

func TestController_MatchesSequentialReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n, m, k = 60, 3, 3
	data := make([]float64, n*m)
	for i := range data {
		data[i] = rng.NormFloat64() * 5
	}
	x := mat.NewDense(n, m, data)
	initial := firstRows(x, k)
	want := sequentialLloyd(x, initial)

	for _, units := range [][]string{{"a"}, {"a", "b", "c"}, {"a", "b", "c", "d", "e", "f"}} {
		c, err := New(aggregate.KMeans{}, units)
		require.NoError(t, err)

		res, err := c.Run(context.Background(), x, initial, 1)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(want, res.Final, 1e-9), "units=%d", len(units))
		require.NoError(t, c.Close())
	}
}

func TestController_TooManyUnits(t *testing.T) {
	x := twoBlobs()
	obs := &recordingObserver{}

	c, err := New(aggregate.KMeans{}, []string{"a", "b", "c"}, WithAvailableUnits(2), WithMetricsObserver(obs))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Run(context.Background(), x, firstRows(x, 2), 1)
	require.ErrorIs(t, err, partition.ErrInvalidUnitCount)
	assert.Equal(t, StateFailed, c.State())
	assert.Empty(t, obs.rounds)
}

func TestController_InvalidArguments(t *testing.T) {
	x := twoBlobs()

	c, err := New(aggregate.KMeans{}, []string{"a"})
	require.NoError(t, err)
	_, err = c.Run(context.Background(), x, firstRows(x, 2), 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	c, err = New(aggregate.KMeans{}, []string{"a"})
	require.NoError(t, err)
	assert.ErrorIs(t, c.Setup(context.Background(), x, 9), ErrInvalidArgument)

	_, err = New(aggregate.KMeans{}, nil)
	assert.ErrorIs(t, err, ErrNoUnits)
}

func TestController_InvalidState(t *testing.T) {
	c, err := New(aggregate.KMeans{}, []string{"a"})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Compute(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, c.Initialize(mat.NewDense(1, 1, nil)), ErrInvalidState)

	require.NoError(t, c.Setup(context.Background(), twoBlobs(), 2))
	assert.ErrorIs(t, c.Setup(context.Background(), twoBlobs(), 2), ErrInvalidState)
}

func TestController_InitialShapeMismatch(t *testing.T) {
	c, err := New(aggregate.KMeans{}, []string{"a"})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Setup(context.Background(), twoBlobs(), 2))
	assert.Error(t, c.Initialize(mat.NewDense(2, 3, nil)))
	assert.Equal(t, StateFailed, c.State())
}

func TestController_CanceledBeforeRound(t *testing.T) {
	x := twoBlobs()
	c, err := New(aggregate.KMeans{}, []string{"a", "b"})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Setup(ctx, x, 2))
	require.NoError(t, c.Initialize(firstRows(x, 2)))
	cancel()

	_, err = c.Compute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestController_RecoversUnitPanic(t *testing.T) {
	x := twoBlobs()
	c, err := New(panickingAggregator{}, []string{"a", "b"})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Run(context.Background(), x, firstRows(x, 2), 3)
	require.Error(t, err)

	var ue *UnitError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 1, ue.Round)

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Value)
}

func TestController_MemoryLimit(t *testing.T) {
	x := twoBlobs()
	c, err := New(aggregate.KMeans{}, []string{"a", "b"}, WithMemoryLimit(64))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Run(context.Background(), x, firstRows(x, 2), 1)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
}

func TestController_ReleasesMemory(t *testing.T) {
	x := twoBlobs()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20, MaxConcurrentUnits: 1})

	c, err := New(aggregate.KMeans{}, []string{"a", "b"}, WithResourceController(rc))
	require.NoError(t, err)

	_, err = c.Run(context.Background(), x, firstRows(x, 2), 2)
	require.NoError(t, err)
	assert.Positive(t, rc.MemoryUsage())

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, int64(0), rc.MemoryUsage())
	assert.Equal(t, StateClosed, c.State())
}

func TestController_CostTracking(t *testing.T) {
	x := twoBlobs()
	var rounds []Round

	c, err := New(aggregate.KMeans{}, []string{"a", "b"},
		WithCostTracking(),
		WithRoundObserver(func(r Round) { rounds = append(rounds, r) }),
	)
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Run(context.Background(), x, firstRows(x, 2), 3)
	require.NoError(t, err)
	require.Len(t, res.Costs, 3)
	require.Len(t, rounds, 3)

	// every point is 0.5 away per axis from its converged center
	assert.InDelta(t, 8*0.5, res.Costs[2], 1e-9)
	assert.GreaterOrEqual(t, res.Costs[0], res.Costs[1])
	for i, r := range rounds {
		assert.Equal(t, i+1, r.Index)
	}
}

func TestController_EmptyClusterPolicies(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{0, 0, 1, 0, 0, 1, 1, 1})
	initial := mat.NewDense(2, 2, []float64{0, 0, 1000, 1000})

	t.Run("propagate", func(t *testing.T) {
		obs := &recordingObserver{}
		c, err := New(aggregate.KMeans{}, []string{"a", "b"}, WithMetricsObserver(obs))
		require.NoError(t, err)
		defer c.Close()

		res, err := c.Run(context.Background(), x, initial, 1)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(res.Final.At(1, 0)))
		assert.Equal(t, []uint32{1}, res.ZeroMass.ToArray())
		assert.Equal(t, []int{1}, obs.zero)
	})

	t.Run("keep previous", func(t *testing.T) {
		c, err := New(aggregate.KMeans{}, []string{"a", "b"}, WithEmptyClusterPolicy(reduce.KeepPrevious))
		require.NoError(t, err)
		defer c.Close()

		res, err := c.Run(context.Background(), x, initial, 2)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.5, 0.5}, res.Final.RawRowView(0), 1e-12)
		assert.Equal(t, []float64{1000, 1000}, res.Final.RawRowView(1))
	})
}

func TestController_FuzzyExtremeCenterHasNoNaN(t *testing.T) {
	x := twoBlobs()
	initial := mat.NewDense(2, 2, []float64{5, 5, 1e6, 1e6})

	c, err := New(aggregate.FuzzyCMeans{Fuzziness: 2}, []string{"a", "b"})
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Run(context.Background(), x, initial, 1)
	require.NoError(t, err)
	for _, v := range res.Final.RawMatrix().Data {
		assert.False(t, math.IsNaN(v))
	}
	assert.True(t, res.ZeroMass.IsEmpty())
}

func TestController_ComputeErrorIsUnitError(t *testing.T) {
	c, err := New(aggregate.FuzzyCMeans{Fuzziness: 2}, []string{"a"})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Setup(context.Background(), twoBlobs(), 2))
	require.NoError(t, c.Initialize(firstRows(twoBlobs(), 2)))

	// swap in a workspace of the wrong shape to force an aggregation error
	c.units[0].ws = aggregate.FuzzyCMeans{Fuzziness: 2}.NewWorkspace(3, 2, 2)
	_, err = c.Compute(context.Background())
	assert.ErrorIs(t, err, aggregate.ErrWorkspaceShape)
	assert.True(t, errors.As(err, new(*UnitError)))
}
