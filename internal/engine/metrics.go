package engine

import "time"

// MetricsObserver defines the interface for observing controller events.
type MetricsObserver interface {
	// OnSetup is called when Setup completes.
	OnSetup(duration time.Duration, units int, bytes int64, err error)

	// OnInitialize is called when the initial centers are published.
	OnInitialize(duration time.Duration, err error)

	// OnRound is called after each Compute step.
	OnRound(round int, duration time.Duration, zeroMass int, err error)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnSetup(time.Duration, int, int64, error) {}
func (NoopMetricsObserver) OnInitialize(time.Duration, error)        {}
func (NoopMetricsObserver) OnRound(int, time.Duration, int, error)   {}
