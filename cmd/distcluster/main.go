// Command distcluster benchmarks distributed K-means and fuzzy C-means.
//
//	distcluster --n_obs 100000 --n_dim 8 --K 4 --n_GPUs 2 --n_max_iters 20 \
//	    --seed 42 --log_file runs.csv --method_name distributedKMeans \
//	    --data_file data.npz
//
//	distcluster generate --n_obs 100000 --n_dim 8 --seed 42 --data_file data.npz
//
// Exit status is 2 when the arguments are rejected before clustering starts,
// 1 when the run failed on an invalid argument and 0 otherwise.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	exitOK     = 0
	exitConfig = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	var runFlags runFlags
	var genFlags generateFlags

	app := &cli.App{
		Name:      "distcluster",
		Usage:     "Benchmark distributed K-means and fuzzy C-means.",
		Writer:    stderr,
		ErrWriter: stderr,
		Flags:     runFlags.AsCliFlags(),
		Action: func(c *cli.Context) error {
			if err := requireFlags(c, requiredRunFlags...); err != nil {
				return err
			}
			return runAction(c.Context, &runFlags, stderr)
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Cluster a dataset and append one row to the result log.",
				Flags:  runFlags.AsCliFlags(),
				Action: func(c *cli.Context) error {
					if err := requireFlags(c, requiredRunFlags...); err != nil {
						return err
					}
					return runAction(c.Context, &runFlags, stderr)
				},
			},
			{
				Name:   "generate",
				Usage:  "Write a synthetic two-class dataset.",
				Flags:  genFlags.AsCliFlags(),
				Action: func(c *cli.Context) error {
					if err := requireFlags(c, requiredGenerateFlags...); err != nil {
						return err
					}
					return generateAction(c.Context, &genFlags, stderr)
				},
			},
		},
		ExitErrHandler: func(*cli.Context, error) {},
	}

	err := app.RunContext(ctx, args)
	if err == nil {
		return exitOK
	}

	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		if msg := ec.Error(); msg != "" {
			fmt.Fprintln(stderr, msg)
		}
		return ec.ExitCode()
	}

	fmt.Fprintln(stderr, err)
	return exitConfig
}
