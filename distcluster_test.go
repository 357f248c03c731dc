package distcluster

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/hupe1980/distcluster/device"
	"github.com/hupe1980/distcluster/internal/partition"
	"github.com/hupe1980/distcluster/internal/rng"
	"github.com/hupe1980/distcluster/testutil"
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

func TestRun_TwoBlobs(t *testing.T) {
	for _, m := range Methods {
		t.Run(string(m), func(t *testing.T) {
			out, err := Run(context.Background(), Request{
				Method:     m,
				X:          twoBlobs(),
				K:          2,
				Units:      device.Named("u0", "u1"),
				Iterations: 1,
				Seed:       42,
			})
			require.NoError(t, err)
			require.False(t, out.Failed())
			assert.Equal(t, 0, out.ExitStatus())
			assert.NotEmpty(t, out.RunID)

			final := out.Result.Final
			if m == MethodKMeans {
				assert.InDeltaSlice(t, []float64{0.5, 0.5, 10.5, 10.5}, final.RawMatrix().Data, 1e-12)
			} else {
				// soft assignment pulls the centers slightly toward each other
				assert.InDelta(t, 0.5, final.At(0, 0), 0.2)
				assert.InDelta(t, 10.5, final.At(1, 0), 0.2)
			}
			assert.Equal(t, 1, out.Result.Iterations)
			assert.Equal(t, 0, out.Result.Dropped)
			assert.True(t, mat.Equal(out.Result.Initial, twoBlobs().Slice(0, 2, 0, 2)))
		})
	}
}

func TestRun_SingleUnitMatchesSequential(t *testing.T) {
	x := testutil.ClusteredMatrix(rng.New(1), 60, 3, 3, 0.5)

	out, err := Run(context.Background(), Request{
		Method:     MethodKMeans,
		X:          x,
		K:          3,
		Units:      device.Named("u0"),
		Iterations: 1,
	})
	require.NoError(t, err)
	require.False(t, out.Failed())

	want := testutil.LloydStep(x, testutil.FirstRows(x, 3))
	assert.InDeltaSlice(t, want.RawMatrix().Data, out.Result.Final.RawMatrix().Data, 1e-9)
}

func TestRun_FuzzyMatchesSequential(t *testing.T) {
	x := testutil.ClusteredMatrix(rng.New(2), 40, 2, 2, 1)

	out, err := Run(context.Background(), Request{
		Method:     MethodFuzzyCMeans,
		X:          x,
		K:          2,
		Units:      device.Named("u0", "u1", "u2", "u3"),
		Iterations: 1,
	}, WithFuzziness(2))
	require.NoError(t, err)

	want := testutil.FuzzyStep(x, testutil.FirstRows(x, 2), 2)
	assert.InDeltaSlice(t, want.RawMatrix().Data, out.Result.Final.RawMatrix().Data, 1e-9)
}

func TestRun_TooManyUnits(t *testing.T) {
	var rounds int
	out, err := Run(context.Background(), Request{
		Method:     MethodKMeans,
		X:          twoBlobs(),
		K:          2,
		Units:      device.Named("u0", "u1"),
		Iterations: 3,
	}, WithAvailableUnits(1), WithRoundObserver(func(RoundInfo) { rounds++ }))

	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, IsConfigurationError(err))
	assert.ErrorIs(t, err, partition.ErrInvalidUnitCount)
	assert.Equal(t, KindConfiguration, ErrorKind(err))
	assert.Zero(t, rounds)
}

func TestRun_FuzzyExtremeCenter(t *testing.T) {
	x := mat.NewDense(9, 2, []float64{
		1e6, 1e6,
		0, 0,
		1, 0,
		0, 1,
		1, 1,
		10, 10,
		11, 10,
		10, 11,
		11, 11,
	})

	out, err := Run(context.Background(), Request{
		Method:     MethodFuzzyCMeans,
		X:          x,
		K:          3,
		Units:      device.Named("u0", "u1", "u2"),
		Iterations: 2,
	})
	require.NoError(t, err)
	require.False(t, out.Failed())

	for _, v := range out.Result.Final.RawMatrix().Data {
		assert.False(t, math.IsNaN(v))
	}
}

func TestRun_Failures(t *testing.T) {
	base := func() Request {
		return Request{
			Method:     MethodKMeans,
			X:          twoBlobs(),
			K:          2,
			Units:      device.Named("u0", "u1"),
			Iterations: 4,
			Seed:       7,
			NObs:       8,
			NDim:       2,
		}
	}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		ctx    context.Context
		mutate func(*Request)
		opts   []Option
		kind   string
		exit   int
	}{
		{name: "k larger than n", mutate: func(r *Request) { r.K = 9 }, kind: KindInvalidArgument, exit: 1},
		{name: "k zero", mutate: func(r *Request) { r.K = 0 }, kind: KindInvalidArgument, exit: 1},
		{name: "no iterations", mutate: func(r *Request) { r.Iterations = 0 }, kind: KindInvalidArgument, exit: 1},
		{
			name:   "fuzziness",
			mutate: func(r *Request) { r.Method = MethodFuzzyCMeans },
			opts:   []Option{WithFuzziness(1)},
			kind:   KindInvalidArgument,
			exit:   1,
		},
		{
			name: "memory limit",
			opts: []Option{WithResourceLimits(ResourceLimits{MemoryLimitBytes: 16})},
			kind: KindComputation,
		},
		{name: "canceled", ctx: canceled, kind: KindComputation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.ctx
			if ctx == nil {
				ctx = context.Background()
			}
			req := base()
			if tt.mutate != nil {
				tt.mutate(&req)
			}

			out, err := Run(ctx, req, tt.opts...)
			require.NoError(t, err)
			require.True(t, out.Failed())
			assert.Nil(t, out.Result)
			assert.Equal(t, tt.kind, out.Kind())
			assert.Equal(t, tt.exit, out.ExitStatus())
			assert.Equal(t, req.Iterations, out.Iterations)

			row := out.Row()
			assert.Equal(t, tt.kind, row.Failure)
			fields := row.Fields()
			assert.Equal(t, []string{tt.kind, tt.kind, tt.kind}, fields[6:9])
		})
	}
}

func TestRun_ConfigurationErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Run(ctx, Request{Method: "kmeans", X: twoBlobs(), K: 2, Units: device.Named("u0"), Iterations: 1})
	assert.ErrorIs(t, err, ErrUnknownMethod)
	assert.True(t, IsConfigurationError(err))

	_, err = Run(ctx, Request{Method: MethodKMeans, K: 2, Units: device.Named("u0"), Iterations: 1})
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Run(ctx, Request{Method: MethodKMeans, X: twoBlobs(), K: 2, Iterations: 1})
	assert.True(t, IsConfigurationError(err))
}

func TestRun_EmptyClusterPolicy(t *testing.T) {
	// both initial centers sit at 0; ties go to cluster 0, so cluster 1 is empty
	x := mat.NewDense(4, 1, []float64{0, 0, 5, 7})
	req := Request{Method: MethodKMeans, X: x, K: 2, Units: device.Named("u0", "u1"), Iterations: 1}

	out, err := Run(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(out.Result.Final.At(1, 0)))
	assert.Equal(t, []uint32{1}, out.Result.ZeroMass)
	assert.InDelta(t, 3, out.Result.Final.At(0, 0), 1e-12)

	out, err = Run(context.Background(), req, WithEmptyClusterPolicy(EmptyClusterKeepPrevious))
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Result.Final.At(1, 0))
	assert.Equal(t, []uint32{1}, out.Result.ZeroMass)
}

func TestRun_ObserversAndMetrics(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var indexes []int
	out, err := Run(context.Background(), Request{
		Method:     MethodKMeans,
		X:          twoBlobs(),
		K:          2,
		Units:      device.Named("u0", "u1"),
		Iterations: 3,
	},
		WithLogger(logger),
		WithMetricsCollector(metrics),
		WithCostTracking(),
		WithRunID("run-1"),
		WithRoundObserver(func(r RoundInfo) { indexes = append(indexes, r.Index) }),
	)
	require.NoError(t, err)

	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, []int{1, 2, 3}, indexes)
	// inertia of the initial centers, then of the converged means
	assert.InDeltaSlice(t, []float64{8, 4, 4}, out.Result.Costs, 1e-12)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SetupCount)
	assert.Equal(t, int64(3), stats.RoundCount)
	assert.Equal(t, int64(1), stats.RunCount)
	assert.Equal(t, int64(1), stats.RunsByMethod[string(MethodKMeans)])
	assert.Positive(t, stats.PlacedBytes)

	logs := buf.String()
	assert.True(t, strings.Contains(logs, `"run_id":"run-1"`))
	assert.True(t, strings.Contains(logs, "round completed"))
	assert.True(t, strings.Contains(logs, "run completed"))
}

func TestOutcomeRow(t *testing.T) {
	out, err := Run(context.Background(), Request{
		Method:     MethodKMeans,
		X:          twoBlobs(),
		K:          2,
		Units:      device.Named("u0", "u1"),
		Iterations: 2,
		Seed:       3,
		NObs:       100,
	})
	require.NoError(t, err)

	row := out.Row()
	assert.Equal(t, "distributedKMeans", row.Method)
	assert.Equal(t, int64(3), row.Seed)
	assert.Equal(t, 2, row.NumUnits)
	assert.Equal(t, 100, row.NObs)
	assert.Equal(t, 2, row.NDim)
	assert.Equal(t, 2, row.Iterations)
	assert.Empty(t, row.Failure)
	assert.GreaterOrEqual(t, row.Computation, 0.0)
}
