package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hupe1980/distcluster"
	"github.com/hupe1980/distcluster/blobstore/resolve"
	"github.com/hupe1980/distcluster/dataset"
	"github.com/hupe1980/distcluster/device"
	"github.com/hupe1980/distcluster/internal/config"
	"github.com/hupe1980/distcluster/prom"
	"github.com/hupe1980/distcluster/resultlog"
	"github.com/hupe1980/distcluster/snapshot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

type runFlags struct {
	NObs       int
	NDim       int
	K          int
	NumUnits   int
	Iterations int
	Seed       int64
	LogFile    string
	Method     string
	DataFile   string
	ConfigFile string
	Devices    cli.StringSlice
}

func (flags *runFlags) AsCliFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "n_obs", Usage: "Number of observations, recorded in the log.", Destination: &flags.NObs},
		&cli.IntFlag{Name: "n_dim", Usage: "Number of dimensions, recorded in the log.", Destination: &flags.NDim},
		&cli.IntFlag{Name: "K", Usage: "Number of clusters.", Destination: &flags.K},
		&cli.IntFlag{Name: "n_GPUs", Usage: "Number of compute units to spread the data over.", Destination: &flags.NumUnits},
		&cli.IntFlag{Name: "n_max_iters", Usage: "Number of rounds.", Destination: &flags.Iterations},
		&cli.Int64Flag{Name: "seed", Usage: "Seed for unit selection, recorded in the log.", Destination: &flags.Seed},
		&cli.StringFlag{Name: "log_file", Usage: "Result log; created with a header when missing.", Destination: &flags.LogFile},
		&cli.StringFlag{Name: "method_name", Usage: "distributedKMeans or distributedFuzzyCMeans.", Destination: &flags.Method},
		&cli.StringFlag{Name: "data_file", Usage: "Dataset .npz: a path, s3://bucket/key or minio://bucket/key.", Destination: &flags.DataFile},
		&cli.StringFlag{Name: "config", Usage: "Optional TOML file with engine, log, storage and output settings.", Destination: &flags.ConfigFile},
		&cli.StringSliceFlag{Name: "devices", Usage: "Unit names to choose from instead of one unit per CPU.", Destination: &flags.Devices},
	}
}

// requiredRunFlags must be set for the root action and for run.
var requiredRunFlags = []string{"n_obs", "n_dim", "K", "n_GPUs", "n_max_iters", "seed", "log_file", "method_name", "data_file"}

func requireFlags(c *cli.Context, names ...string) error {
	var missing []string
	for _, name := range names {
		if !c.IsSet(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return configError(fmt.Errorf("required flags not set: %s", strings.Join(missing, ", ")))
	}
	return nil
}

func configError(err error) error {
	return cli.Exit(distcluster.NewConfigurationError(err).Error(), exitConfig)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(cfg config.Config, w io.Writer) *distcluster.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return distcluster.NewLogger(slog.NewJSONHandler(w, opts))
	}
	return distcluster.NewLogger(slog.NewTextHandler(w, opts))
}

func storageConfig(cfg config.Config) resolve.Config {
	var rc resolve.Config
	rc.S3.Region = cfg.Storage.S3.Region
	rc.S3.Endpoint = cfg.Storage.S3.Endpoint
	rc.MinIO.Endpoint = cfg.Storage.MinIO.Endpoint
	rc.MinIO.AccessKey = cfg.Storage.MinIO.AccessKey
	rc.MinIO.SecretKey = cfg.Storage.MinIO.SecretKey
	rc.MinIO.Region = cfg.Storage.MinIO.Region
	rc.MinIO.Secure = cfg.Storage.MinIO.Secure
	return rc
}

func runAction(ctx context.Context, flags *runFlags, stderr io.Writer) error {
	cfg, err := loadConfig(flags.ConfigFile)
	if err != nil {
		return configError(err)
	}
	logger := newLogger(cfg, stderr)

	method, err := distcluster.ParseMethod(flags.Method)
	if err != nil {
		return cli.Exit(err.Error(), exitConfig)
	}
	policy, err := distcluster.ParseEmptyClusterPolicy(cfg.Engine.EmptyClusterPolicy)
	if err != nil {
		return cli.Exit(err.Error(), exitConfig)
	}

	available := device.Discover()
	if names := flags.Devices.Value(); len(names) > 0 {
		available = device.Named(names...)
	}
	units, err := device.Select(available, flags.NumUnits, flags.Seed)
	if err != nil {
		return configError(err)
	}

	rc := distcluster.NewResourceController(distcluster.ResourceLimits{
		MemoryLimitBytes:   cfg.MemoryLimitBytes(),
		MaxConcurrentUnits: int64(cfg.Engine.MaxConcurrentUnits),
		IOLimitBytesPerSec: cfg.IOLimitBytesPerSec(),
	})

	store, name, err := resolve.Open(ctx, flags.DataFile, storageConfig(cfg))
	if err != nil {
		return configError(err)
	}
	ds, err := dataset.Load(ctx, store, name, rc)
	if err != nil {
		return configError(err)
	}
	logger.Info("Dataset loaded",
		"location", flags.DataFile,
		"rows", flags.NObs,
		"size", humanize.IBytes(uint64(ds.Bytes())),
	)

	opts := []distcluster.Option{
		distcluster.WithLogger(logger),
		distcluster.WithFuzziness(cfg.Engine.Fuzziness),
		distcluster.WithResourceController(rc),
		distcluster.WithEmptyClusterPolicy(policy),
		distcluster.WithAvailableUnits(len(available)),
	}
	if cfg.Engine.CostTracking {
		opts = append(opts, distcluster.WithCostTracking())
	}

	var registry *prometheus.Registry
	if cfg.Output.MetricsFile != "" {
		registry = prometheus.NewRegistry()
		collector, err := prom.NewCollector(registry)
		if err != nil {
			return configError(err)
		}
		opts = append(opts, distcluster.WithMetricsCollector(collector))
	}

	out, err := distcluster.Run(ctx, distcluster.Request{
		Method:     method,
		X:          ds.X,
		K:          flags.K,
		Units:      units,
		Iterations: flags.Iterations,
		Seed:       flags.Seed,
		NObs:       flags.NObs,
		NDim:       flags.NDim,
	}, opts...)
	if err != nil {
		return cli.Exit(err.Error(), exitConfig)
	}

	// Append creates the log with its header, so a run rejected before this
	// point leaves no file behind.
	if err := resultlog.Open(flags.LogFile).Append(out.Row()); err != nil {
		return fmt.Errorf("append result: %w", err)
	}

	if cfg.Output.CentersFile != "" && !out.Failed() {
		if err := writeCenters(ctx, cfg, out); err != nil {
			logger.Error("Writing centers failed", "location", cfg.Output.CentersFile, "error", err)
		}
	}
	if registry != nil {
		if err := prom.WriteTextfile(cfg.Output.MetricsFile, registry); err != nil {
			logger.Error("Writing metrics failed", "path", cfg.Output.MetricsFile, "error", err)
		}
	}

	if status := out.ExitStatus(); status != exitOK {
		return cli.Exit("", status)
	}
	return nil
}

func writeCenters(ctx context.Context, cfg config.Config, out *distcluster.Outcome) error {
	store, name, err := resolve.Open(ctx, cfg.Output.CentersFile, storageConfig(cfg))
	if err != nil {
		return err
	}
	return snapshot.Write(ctx, store, name, &snapshot.Snapshot{
		Initial:    out.Result.Initial,
		Final:      out.Result.Final,
		Iterations: out.Result.Iterations,
	}, cfg.CentersCodec())
}
