package main

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/distcluster/blobstore/resolve"
	"github.com/hupe1980/distcluster/dataset"
	"github.com/urfave/cli/v2"
)

type generateFlags struct {
	NObs       int
	NDim       int
	Seed       int64
	DataFile   string
	Compress   bool
	ConfigFile string
}

func (flags *generateFlags) AsCliFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "n_obs", Usage: "Number of observations.", Destination: &flags.NObs},
		&cli.IntFlag{Name: "n_dim", Usage: "Number of dimensions.", Destination: &flags.NDim},
		&cli.Int64Flag{Name: "seed", Usage: "Random seed.", Destination: &flags.Seed},
		&cli.StringFlag{Name: "data_file", Usage: "Output .npz: a path, s3://bucket/key or minio://bucket/key.", Destination: &flags.DataFile},
		&cli.BoolFlag{Name: "compress", Usage: "Deflate the arrays.", Destination: &flags.Compress},
		&cli.StringFlag{Name: "config", Usage: "Optional TOML file with storage settings.", Destination: &flags.ConfigFile},
	}
}

var requiredGenerateFlags = []string{"n_obs", "n_dim", "seed", "data_file"}

func generateAction(ctx context.Context, flags *generateFlags, stderr io.Writer) error {
	cfg, err := loadConfig(flags.ConfigFile)
	if err != nil {
		return configError(err)
	}
	logger := newLogger(cfg, stderr)

	ds, err := dataset.Generate(flags.NObs, flags.NDim, flags.Seed)
	if err != nil {
		return configError(err)
	}

	store, name, err := resolve.Open(ctx, flags.DataFile, storageConfig(cfg))
	if err != nil {
		return configError(err)
	}
	if err := dataset.Save(ctx, store, name, ds, func(o *dataset.SaveOptions) {
		o.Compress = flags.Compress
	}); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}

	logger.Info("Dataset written", "location", flags.DataFile, "rows", flags.NObs, "dims", flags.NDim)
	return nil
}
