package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/dustin/go-humanize"
	"github.com/hupe1980/distcluster/internal/aggregate"
	"github.com/hupe1980/distcluster/internal/arena"
	"github.com/hupe1980/distcluster/internal/partition"
	"github.com/hupe1980/distcluster/internal/reduce"
	"github.com/hupe1980/distcluster/internal/resource"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Timings are the three measured phases of a run.
type Timings struct {
	Setup          time.Duration
	Initialization time.Duration
	Computation    time.Duration
}

// Round describes one completed Compute step.
type Round struct {
	// Index is 1-based.
	Index      int
	Generation uint64
	Duration   time.Duration
	// Cost is only set when cost tracking is enabled.
	Cost     float64
	Shift    float64
	ZeroMass *roaring.Bitmap
	// Centers is the published version. It must not be modified and is only
	// valid until the next round.
	Centers *mat.Dense
}

// Result is the outcome of a completed run.
type Result struct {
	Initial    *mat.Dense
	Final      *mat.Dense
	Timings    Timings
	Iterations int
	Costs      []float64
	Dropped    int
	// ZeroMass holds the clusters that had zero mass in the last round.
	ZeroMass *roaring.Bitmap
}

type unit struct {
	index int
	name  string
	shard *mat.Dense
	ws    *aggregate.Workspace
	bytes int64
}

// Controller drives Setup, Initialize and Compute for one run.
//
// The phase methods are not safe for concurrent use; parallelism happens
// inside Setup and Compute.
type Controller struct {
	agg       aggregate.Aggregator
	names     []string
	available int

	logger    *slog.Logger
	rc        *resource.Controller
	metrics   MetricsObserver
	trackCost bool
	policy    reduce.Policy
	onRound   func(Round)

	state    State
	layout   *partition.Layout
	units    []*unit
	partials []*aggregate.Partial
	pool     *WorkerPool
	centers  *arena.Centers
	reducer  *reduce.Reducer
	initial  *mat.Dense

	round    int
	costs    []float64
	zeroMass *roaring.Bitmap
	timings  Timings
}

// New creates a controller that runs agg on one unit per name.
func New(agg aggregate.Aggregator, units []string, opts ...Option) (*Controller, error) {
	if len(units) == 0 {
		return nil, ErrNoUnits
	}

	c := &Controller{
		agg:       agg,
		names:     units,
		available: len(units),
		logger:    slog.New(slog.DiscardHandler),
		metrics:   NoopMetricsObserver{},
		policy:    reduce.Propagate,
		zeroMass:  roaring.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// State returns the current phase.
func (c *Controller) State() State { return c.state }

// Setup partitions x and places one shard on every unit. k is the number of
// clusters the workspaces are sized for.
func (c *Controller) Setup(ctx context.Context, x *mat.Dense, k int) error {
	if c.state != StateNew {
		return fmt.Errorf("%w: setup in state %s", ErrInvalidState, c.state)
	}

	start := time.Now()
	err := c.setup(ctx, x, k)
	c.timings.Setup = time.Since(start)

	var bytes int64
	for _, u := range c.units {
		if u != nil {
			bytes += u.bytes
		}
	}
	c.metrics.OnSetup(c.timings.Setup, len(c.names), bytes, err)

	if err != nil {
		c.fail()
		return err
	}

	c.state = StateReady
	c.logger.Info("Setup completed",
		"units", len(c.units),
		"rows_per_unit", c.layout.Shards[0].Rows(),
		"dropped_rows", c.layout.Dropped,
		"memory", humanize.IBytes(uint64(bytes)),
		"duration", c.timings.Setup,
	)
	return nil
}

func (c *Controller) setup(ctx context.Context, x *mat.Dense, k int) error {
	n, dim := x.Dims()
	if k <= 0 || k > n {
		return fmt.Errorf("%w: k=%d with %d observations", ErrInvalidArgument, k, n)
	}

	layout, err := partition.Split(x, len(c.names), c.available)
	if err != nil {
		return err
	}
	c.layout = layout

	var wsOpts []aggregate.WorkspaceOption
	if c.trackCost {
		wsOpts = append(wsOpts, aggregate.WithCostTracking())
	}

	c.units = make([]*unit, len(layout.Shards))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range layout.Shards {
		g.Go(func() error {
			u, err := c.place(gctx, s, k, dim, wsOpts)
			if err != nil {
				return fmt.Errorf("place unit %d on %s: %w", i, c.names[i], err)
			}
			c.units[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var arenaOpts []arena.Option
	if c.rc != nil {
		arenaOpts = append(arenaOpts, arena.WithMemoryAcquirer(c.rc))
	}
	centers, err := arena.New(ctx, k, dim, arenaOpts...)
	if err != nil {
		return err
	}
	c.centers = centers

	c.reducer = reduce.New(k, dim, c.policy)
	c.partials = make([]*aggregate.Partial, len(c.units))
	c.pool = NewWorkerPool(len(c.units))

	return nil
}

func (c *Controller) place(ctx context.Context, s partition.Shard, k, dim int, wsOpts []aggregate.WorkspaceOption) (*unit, error) {
	rows := s.Rows()
	ws := c.agg.NewWorkspace(rows, k, dim, wsOpts...)
	bytes := int64(rows*dim*8) + ws.Bytes()

	if err := c.rc.AcquireMemory(ctx, bytes); err != nil {
		return nil, err
	}

	u := &unit{
		index: s.Index,
		name:  c.names[s.Index],
		shard: mat.DenseCopyOf(s.Data),
		ws:    ws,
		bytes: bytes,
	}

	c.logger.Debug("Unit placed",
		"unit", u.index,
		"device", u.name,
		"first_row", s.Start,
		"rows", rows,
		"memory", humanize.IBytes(uint64(bytes)),
	)

	return u, nil
}

// Initialize publishes the initial centers. initial must be k×dim.
func (c *Controller) Initialize(initial mat.Matrix) error {
	if c.state != StateReady {
		return fmt.Errorf("%w: initialize in state %s", ErrInvalidState, c.state)
	}

	start := time.Now()
	_, err := c.centers.Load(initial)
	if err == nil {
		c.initial = mat.DenseCopyOf(initial)
	}
	c.timings.Initialization = time.Since(start)
	c.metrics.OnInitialize(c.timings.Initialization, err)

	if err != nil {
		c.fail()
		return err
	}

	c.state = StateInitialized
	return nil
}

// Compute runs one round: every unit aggregates its shard against the
// published centers, the reducer merges the partials into the standby
// buffer after all units returned, and the result is published.
//
// ctx is checked before the round starts; a started round always completes.
func (c *Controller) Compute(ctx context.Context) (Round, error) {
	if c.state != StateInitialized && c.state != StateComputing {
		return Round{}, fmt.Errorf("%w: compute in state %s", ErrInvalidState, c.state)
	}
	if err := ctx.Err(); err != nil {
		c.fail()
		return Round{}, err
	}

	index := c.round + 1
	start := time.Now()

	live := c.centers.Live()
	if err := c.scatter(ctx, index, live); err != nil {
		c.metrics.OnRound(index, time.Since(start), 0, err)
		c.fail()
		return Round{}, err
	}

	summary, err := c.reducer.Merge(c.partials, live, c.centers.Next())
	if err != nil {
		c.metrics.OnRound(index, time.Since(start), 0, err)
		c.fail()
		return Round{}, err
	}
	gen := c.centers.Publish()

	dur := time.Since(start)
	c.timings.Computation += dur
	c.round = index
	c.state = StateComputing
	c.zeroMass = summary.ZeroMass
	if c.trackCost {
		c.costs = append(c.costs, summary.Cost)
	}

	zero := int(summary.ZeroMass.GetCardinality())
	if zero > 0 {
		c.logger.Warn("Clusters without mass", "round", index, "clusters", summary.ZeroMass.ToArray(), "policy", c.policy.String())
	}
	c.metrics.OnRound(index, dur, zero, nil)

	r := Round{
		Index:      index,
		Generation: gen,
		Duration:   dur,
		Cost:       summary.Cost,
		Shift:      summary.Shift,
		ZeroMass:   summary.ZeroMass,
		Centers:    c.centers.Live(),
	}
	if c.onRound != nil {
		c.onRound(r)
	}

	return r, nil
}

func (c *Controller) scatter(ctx context.Context, round int, centers *mat.Dense) error {
	// units are not interrupted once the round started
	roundCtx := context.WithoutCancel(ctx)

	errs := make([]error, len(c.units))
	var wg sync.WaitGroup
	for i, u := range c.units {
		wg.Add(1)
		err := c.pool.Submit(roundCtx, func() {
			defer wg.Done()
			errs[i] = c.runUnit(roundCtx, u, centers)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return &UnitError{Unit: i, Round: round, Err: err}
		}
	}

	for i, u := range c.units {
		c.partials[i] = u.ws.Partial()
	}
	return nil
}

func (c *Controller) runUnit(ctx context.Context, u *unit, centers *mat.Dense) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	if err := c.rc.AcquireUnit(ctx); err != nil {
		return err
	}
	defer c.rc.ReleaseUnit()

	return c.agg.Aggregate(u.ws, u.shard, centers)
}

// Run executes Setup, Initialize and iterations rounds of Compute. There is
// no convergence check; all rounds run.
func (c *Controller) Run(ctx context.Context, x *mat.Dense, initial *mat.Dense, iterations int) (*Result, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("%w: iterations=%d", ErrInvalidArgument, iterations)
	}

	k, _ := initial.Dims()
	if err := c.Setup(ctx, x, k); err != nil {
		return nil, err
	}
	if err := c.Initialize(initial); err != nil {
		return nil, err
	}
	for i := 0; i < iterations; i++ {
		if _, err := c.Compute(ctx); err != nil {
			return nil, err
		}
	}
	c.state = StateDone

	return c.Result(), nil
}

// Result returns the current outcome. Final is a copy of the published centers.
func (c *Controller) Result() *Result {
	res := &Result{
		Initial:    c.initial,
		Timings:    c.timings,
		Iterations: c.round,
		Costs:      c.costs,
		ZeroMass:   c.zeroMass,
	}
	if c.centers != nil {
		res.Final = c.centers.Snapshot()
	}
	if c.layout != nil {
		res.Dropped = c.layout.Dropped
	}
	return res
}

// Timings returns the phase durations measured so far.
func (c *Controller) Timings() Timings { return c.timings }

// Close releases the pool, the shard copies and the center buffers.
func (c *Controller) Close() error {
	if c.state == StateClosed {
		return nil
	}
	c.release()
	c.state = StateClosed
	return nil
}

func (c *Controller) fail() {
	c.state = StateFailed
}

func (c *Controller) release() {
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
	for i, u := range c.units {
		if u == nil {
			continue
		}
		c.rc.ReleaseMemory(u.bytes)
		c.units[i] = nil
	}
	if c.centers != nil {
		_ = c.centers.Close()
	}
}
