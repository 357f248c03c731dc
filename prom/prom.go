// Package prom records clustering run metrics with Prometheus.
//
// *Collector satisfies distcluster.MetricsCollector:
//
//	reg := prometheus.NewRegistry()
//	c, _ := prom.NewCollector(reg)
//	out, err := distcluster.Run(ctx, req, distcluster.WithMetricsCollector(c))
//	_ = prom.WriteTextfile("run.prom", reg)
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "distcluster"

// Collector holds the run metrics.
type Collector struct {
	setupSeconds     prometheus.Histogram
	initSeconds      prometheus.Histogram
	roundSeconds     prometheus.Histogram
	runSeconds       *prometheus.HistogramVec
	rounds           prometheus.Counter
	zeroMassClusters prometheus.Counter
	placedBytes      prometheus.Gauge
	units            prometheus.Gauge
	errors           *prometheus.CounterVec
	runs             *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		setupSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "setup_duration_seconds",
			Help:      "Time spent partitioning and placing shards.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 12),
		}),
		initSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "initialization_duration_seconds",
			Help:      "Time spent publishing the initial centers.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		roundSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "round_duration_seconds",
			Help:      "Time per scatter and merge round.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 12),
		}),
		runSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
		}, []string{"method"}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "rounds_total",
			Help:      "Total number of completed rounds.",
		}),
		zeroMassClusters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "zero_mass_clusters_total",
			Help:      "Total number of clusters that received no mass in a round.",
		}),
		placedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "placed_bytes",
			Help:      "Bytes placed on compute units by the last setup.",
		}),
		units: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "units",
			Help:      "Compute units used by the last setup.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of failed phases.",
		}, []string{"phase"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of runs.",
		}, []string{"method", "status"}),
	}

	for _, m := range []prometheus.Collector{
		c.setupSeconds, c.initSeconds, c.roundSeconds, c.runSeconds,
		c.rounds, c.zeroMassClusters, c.placedBytes, c.units, c.errors, c.runs,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordSetup records shard placement.
func (c *Collector) RecordSetup(d time.Duration, units int, bytes int64, err error) {
	if err != nil {
		c.errors.WithLabelValues("setup").Inc()
		return
	}
	c.setupSeconds.Observe(d.Seconds())
	c.units.Set(float64(units))
	c.placedBytes.Set(float64(bytes))
}

// RecordInitialize records publication of the initial centers.
func (c *Collector) RecordInitialize(d time.Duration, err error) {
	if err != nil {
		c.errors.WithLabelValues("initialize").Inc()
		return
	}
	c.initSeconds.Observe(d.Seconds())
}

// RecordRound records one round.
func (c *Collector) RecordRound(_ int, d time.Duration, zeroMass int, err error) {
	if err != nil {
		c.errors.WithLabelValues("round").Inc()
		return
	}
	c.rounds.Inc()
	c.roundSeconds.Observe(d.Seconds())
	c.zeroMassClusters.Add(float64(zeroMass))
}

// RecordRun records the outcome of a run.
func (c *Collector) RecordRun(method string, d time.Duration, _ int, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	c.runs.WithLabelValues(method, status).Inc()
	c.runSeconds.WithLabelValues(method).Observe(d.Seconds())
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
