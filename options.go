package distcluster

import (
	"fmt"

	"github.com/hupe1980/distcluster/internal/aggregate"
	"github.com/hupe1980/distcluster/internal/reduce"
	"github.com/hupe1980/distcluster/internal/resource"
)

// ResourceLimits bounds memory, unit concurrency and IO of a run.
type ResourceLimits = resource.Config

// ResourceController enforces ResourceLimits. One controller may be shared
// between dataset loading and the run so both draw from the same budget.
type ResourceController = resource.Controller

// NewResourceController creates a controller for limits.
func NewResourceController(limits ResourceLimits) *ResourceController {
	return resource.NewController(limits)
}

// EmptyClusterPolicy decides what happens to a cluster that receives no mass
// from any unit in a round.
type EmptyClusterPolicy int

const (
	// EmptyClusterPropagate lets the center become not-a-number.
	EmptyClusterPropagate EmptyClusterPolicy = iota
	// EmptyClusterKeepPrevious keeps the center from the previous round.
	EmptyClusterKeepPrevious
)

func (p EmptyClusterPolicy) String() string {
	return p.policy().String()
}

func (p EmptyClusterPolicy) policy() reduce.Policy {
	if p == EmptyClusterKeepPrevious {
		return reduce.KeepPrevious
	}
	return reduce.Propagate
}

// ParseEmptyClusterPolicy maps "propagate" or "keep-previous" to a policy.
func ParseEmptyClusterPolicy(s string) (EmptyClusterPolicy, error) {
	switch s {
	case "", "propagate":
		return EmptyClusterPropagate, nil
	case "keep-previous":
		return EmptyClusterKeepPrevious, nil
	default:
		return 0, NewConfigurationError(fmt.Errorf("unknown empty cluster policy %q", s))
	}
}

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	fuzziness        float64
	rc               *ResourceController
	trackCost        bool
	policy           EmptyClusterPolicy
	onRound          func(RoundInfo)
	availableUnits   int
	runID            string
}

// Option configures Run.
type Option func(*options)

// WithLogger configures structured logging. Pass nil to disable logging.
//
//	logger := distcluster.NewJSONLogger(slog.LevelDebug)
//	out, err := distcluster.Run(ctx, req, distcluster.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithMetricsCollector configures a metrics collector. Pass nil to disable
// metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithFuzziness sets the fuzzy C-means exponent m. It must be greater than 1
// and defaults to 2. K-means ignores it.
func WithFuzziness(m float64) Option {
	return func(o *options) {
		o.fuzziness = m
	}
}

// WithResourceController charges shard copies, workspaces and center buffers
// against rc and caps concurrently running units.
func WithResourceController(rc *ResourceController) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithResourceLimits is shorthand for WithResourceController with a fresh
// controller.
func WithResourceLimits(limits ResourceLimits) Option {
	return func(o *options) {
		o.rc = NewResourceController(limits)
	}
}

// WithCostTracking records the objective of every round in RunResult.Costs.
func WithCostTracking() Option {
	return func(o *options) {
		o.trackCost = true
	}
}

// WithEmptyClusterPolicy sets the zero-mass behavior. Zero-mass clusters are
// logged and counted under every policy.
func WithEmptyClusterPolicy(p EmptyClusterPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithRoundObserver registers a callback invoked after every round.
func WithRoundObserver(fn func(RoundInfo)) Option {
	return func(o *options) {
		o.onRound = fn
	}
}

// WithAvailableUnits sets the total number of units on the host. A request
// for more units fails with a ConfigurationError. Defaults to the number of
// units in the request.
func WithAvailableUnits(n int) Option {
	return func(o *options) {
		o.availableUnits = n
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(o *options) {
		o.runID = id
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		fuzziness:        aggregate.DefaultFuzziness,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
