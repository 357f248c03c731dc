package engine

import (
	"log/slog"

	"github.com/hupe1980/distcluster/internal/reduce"
	"github.com/hupe1980/distcluster/internal/resource"
)

// Option defines a configuration option for the Controller.
type Option func(*Controller)

// WithLogger sets the logger for the controller.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithResourceController sets the resource controller that is charged for
// shard copies, workspaces and center buffers.
func WithResourceController(rc *resource.Controller) Option {
	return func(c *Controller) {
		c.rc = rc
	}
}

// WithMemoryLimit sets the memory limit for the run in bytes.
// If set to 0, memory is unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(c *Controller) {
		c.rc = resource.NewController(resource.Config{
			MemoryLimitBytes: bytes,
		})
	}
}

// WithMetricsObserver sets the metrics observer for the controller.
func WithMetricsObserver(observer MetricsObserver) Option {
	return func(c *Controller) {
		c.metrics = observer
	}
}

// WithCostTracking makes every round also compute the objective.
func WithCostTracking() Option {
	return func(c *Controller) {
		c.trackCost = true
	}
}

// WithEmptyClusterPolicy sets what the reducer does with zero-mass clusters.
func WithEmptyClusterPolicy(p reduce.Policy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

// WithAvailableUnits sets how many units exist in total. Setup fails when
// more units are requested than available. Defaults to the number of units.
func WithAvailableUnits(n int) Option {
	return func(c *Controller) {
		c.available = n
	}
}

// WithRoundObserver registers a callback invoked after every round.
func WithRoundObserver(fn func(Round)) Option {
	return func(c *Controller) {
		c.onRound = fn
	}
}
