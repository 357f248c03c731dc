package distcluster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/distcluster/device"
	"github.com/hupe1980/distcluster/internal/aggregate"
	"github.com/hupe1980/distcluster/internal/engine"
	"gonum.org/v1/gonum/mat"
)

// Method selects the clustering variant.
type Method string

const (
	// MethodKMeans assigns every row to its nearest center.
	MethodKMeans Method = "distributedKMeans"
	// MethodFuzzyCMeans weights every row by its fuzzy membership.
	MethodFuzzyCMeans Method = "distributedFuzzyCMeans"
)

// Methods lists the supported method names.
var Methods = []Method{MethodKMeans, MethodFuzzyCMeans}

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	for _, m := range Methods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", NewConfigurationError(fmt.Errorf("%w: %q", ErrUnknownMethod, s))
}

// Request describes one run.
type Request struct {
	Method Method
	// X holds one observation per row. It is read, never modified.
	X *mat.Dense
	// K is the number of clusters. The first K rows of X are the initial centers.
	K int
	// Units receive one shard each.
	Units []device.Unit
	// Iterations is the exact number of rounds; there is no early stop.
	Iterations int
	// Seed is recorded in the result log.
	Seed int64
	// NObs and NDim are the sizes recorded in the result log. Zero means the
	// dimensions of X.
	NObs, NDim int
}

// Run clusters req.X and returns the outcome.
//
// Only a ConfigurationError is returned as error; no result-log row should be
// written for it. Every other failure is caught and reported in the Outcome,
// whose Row then carries the failure kind.
func Run(ctx context.Context, req Request, optFns ...Option) (*Outcome, error) {
	o := applyOptions(optFns)

	if err := validate(req); err != nil {
		return nil, err
	}

	runID := o.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := o.logger.WithRunID(runID).WithMethod(req.Method)

	start := time.Now()
	res, err := execute(ctx, req, o, logger)
	err = translateError(err)

	iterations := req.Iterations
	if res != nil {
		iterations = res.Iterations
	}
	o.metricsCollector.RecordRun(string(req.Method), time.Since(start), iterations, err)

	if IsConfigurationError(err) {
		logger.ErrorContext(ctx, "run rejected", "error", err)
		return nil, err
	}

	out := &Outcome{
		RunID:      runID,
		Request:    req,
		Iterations: req.Iterations,
	}
	if err != nil {
		out.Err = err
	} else {
		out.Result = res
		out.Iterations = res.Iterations
	}

	logger.LogRun(ctx, out)
	return out, nil
}

func validate(req Request) error {
	if _, err := ParseMethod(string(req.Method)); err != nil {
		return err
	}
	if req.X == nil {
		return NewConfigurationError(ErrNoData)
	}
	if len(req.Units) == 0 {
		return NewConfigurationError(engine.ErrNoUnits)
	}
	return nil
}

func newAggregator(m Method, fuzziness float64) (aggregate.Aggregator, error) {
	if m == MethodFuzzyCMeans {
		f := aggregate.FuzzyCMeans{Fuzziness: fuzziness}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		return f, nil
	}
	return aggregate.KMeans{}, nil
}

func execute(ctx context.Context, req Request, o options, logger *Logger) (*RunResult, error) {
	agg, err := newAggregator(req.Method, o.fuzziness)
	if err != nil {
		return nil, err
	}

	n, dim := req.X.Dims()
	if req.K < 1 || req.K > n {
		return nil, fmt.Errorf("%w: K=%d with %d observations", engine.ErrInvalidArgument, req.K, n)
	}
	initial := mat.DenseCopyOf(req.X.Slice(0, req.K, 0, dim))

	opts := []engine.Option{
		engine.WithLogger(logger.Logger),
		engine.WithMetricsObserver(metricsObserver{mc: o.metricsCollector}),
		engine.WithEmptyClusterPolicy(o.policy.policy()),
		engine.WithRoundObserver(func(r engine.Round) {
			info := RoundInfo{
				Index:    r.Index,
				Duration: r.Duration,
				Cost:     r.Cost,
				Shift:    r.Shift,
				ZeroMass: r.ZeroMass.ToArray(),
				Centers:  r.Centers,
			}
			logger.LogRound(ctx, info)
			if o.onRound != nil {
				o.onRound(info)
			}
		}),
	}
	if o.rc != nil {
		opts = append(opts, engine.WithResourceController(o.rc))
	}
	if o.trackCost {
		opts = append(opts, engine.WithCostTracking())
	}
	if o.availableUnits > 0 {
		opts = append(opts, engine.WithAvailableUnits(o.availableUnits))
	}

	ctrl, err := engine.New(agg, device.Names(req.Units), opts...)
	if err != nil {
		return nil, err
	}
	defer ctrl.Close()

	r, err := ctrl.Run(ctx, req.X, initial, req.Iterations)
	if err != nil {
		return nil, err
	}

	logger.LogPhase(ctx, "setup", r.Timings.Setup, nil)
	logger.LogPhase(ctx, "initialization", r.Timings.Initialization, nil)

	return &RunResult{
		Initial: r.Initial,
		Final:   r.Final,
		Timings: Timings{
			Setup:          r.Timings.Setup,
			Initialization: r.Timings.Initialization,
			Computation:    r.Timings.Computation,
		},
		Iterations: r.Iterations,
		Costs:      r.Costs,
		Dropped:    r.Dropped,
		ZeroMass:   r.ZeroMass.ToArray(),
	}, nil
}
