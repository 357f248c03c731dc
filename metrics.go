package distcluster

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/distcluster/internal/engine"
)

// MetricsCollector defines an interface for collecting run metrics.
// prom.Collector implements it on top of Prometheus.
type MetricsCollector interface {
	// RecordSetup is called after shards are placed. bytes is the memory
	// charged for shard copies and workspaces.
	RecordSetup(duration time.Duration, units int, bytes int64, err error)

	// RecordInitialize is called after the initial centers are published.
	RecordInitialize(duration time.Duration, err error)

	// RecordRound is called after every round. zeroMass is the number of
	// clusters that received no mass.
	RecordRound(round int, duration time.Duration, zeroMass int, err error)

	// RecordRun is called once per run with the total wall time.
	RecordRun(method string, duration time.Duration, iterations int, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSetup(time.Duration, int, int64, error) {}
func (NoopMetricsCollector) RecordInitialize(time.Duration, error)        {}
func (NoopMetricsCollector) RecordRound(int, time.Duration, int, error)   {}
func (NoopMetricsCollector) RecordRun(string, time.Duration, int, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	SetupCount       atomic.Int64
	SetupNanos       atomic.Int64
	PlacedBytes      atomic.Int64
	InitializeNanos  atomic.Int64
	RoundCount       atomic.Int64
	RoundErrors      atomic.Int64
	RoundNanos       atomic.Int64
	ZeroMassClusters atomic.Int64
	RunCount         atomic.Int64
	RunErrors        atomic.Int64

	mu      sync.Mutex
	methods map[string]int64
}

// RecordSetup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSetup(d time.Duration, _ int, bytes int64, err error) {
	b.SetupCount.Add(1)
	b.SetupNanos.Add(d.Nanoseconds())
	if err == nil {
		b.PlacedBytes.Store(bytes)
	}
}

// RecordInitialize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInitialize(d time.Duration, _ error) {
	b.InitializeNanos.Add(d.Nanoseconds())
}

// RecordRound implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRound(_ int, d time.Duration, zeroMass int, err error) {
	if err != nil {
		b.RoundErrors.Add(1)
		return
	}
	b.RoundCount.Add(1)
	b.RoundNanos.Add(d.Nanoseconds())
	b.ZeroMassClusters.Add(int64(zeroMass))
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(method string, _ time.Duration, _ int, err error) {
	b.RunCount.Add(1)
	if err != nil {
		b.RunErrors.Add(1)
	}

	b.mu.Lock()
	if b.methods == nil {
		b.methods = make(map[string]int64)
	}
	b.methods[method]++
	b.mu.Unlock()
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	b.mu.Lock()
	runs := make(map[string]int64, len(b.methods))
	for m, n := range b.methods {
		runs[m] = n
	}
	b.mu.Unlock()

	return BasicMetricsStats{
		SetupCount:       b.SetupCount.Load(),
		PlacedBytes:      b.PlacedBytes.Load(),
		RoundCount:       b.RoundCount.Load(),
		RoundErrors:      b.RoundErrors.Load(),
		RoundAvgNanos:    b.getAvgRoundNanos(),
		ZeroMassClusters: b.ZeroMassClusters.Load(),
		RunCount:         b.RunCount.Load(),
		RunErrors:        b.RunErrors.Load(),
		RunsByMethod:     runs,
	}
}

func (b *BasicMetricsCollector) getAvgRoundNanos() int64 {
	count := b.RoundCount.Load()
	if count == 0 {
		return 0
	}
	return b.RoundNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SetupCount       int64
	PlacedBytes      int64
	RoundCount       int64
	RoundErrors      int64
	RoundAvgNanos    int64
	ZeroMassClusters int64
	RunCount         int64
	RunErrors        int64
	RunsByMethod     map[string]int64
}

// metricsObserver forwards engine events to a MetricsCollector.
type metricsObserver struct {
	mc MetricsCollector
}

var _ engine.MetricsObserver = metricsObserver{}

func (m metricsObserver) OnSetup(d time.Duration, units int, bytes int64, err error) {
	m.mc.RecordSetup(d, units, bytes, err)
}

func (m metricsObserver) OnInitialize(d time.Duration, err error) {
	m.mc.RecordInitialize(d, err)
}

func (m metricsObserver) OnRound(round int, d time.Duration, zeroMass int, err error) {
	m.mc.RecordRound(round, d, zeroMass, err)
}
