// Package config loads the optional TOML file that tunes a clustering run.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/hupe1980/distcluster/snapshot"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the file layout.
type Config struct {
	Engine  Engine  `toml:"engine"`
	Log     Log     `toml:"log"`
	Storage Storage `toml:"storage"`
	Output  Output  `toml:"output"`
}

// Engine tunes the iteration engine.
type Engine struct {
	Fuzziness          float64 `toml:"fuzziness"`
	EmptyClusterPolicy string  `toml:"empty_cluster_policy"`
	CostTracking       bool    `toml:"cost_tracking"`
	// MemoryLimit is a size such as "512MiB". Empty means unlimited.
	MemoryLimit        string `toml:"memory_limit"`
	MaxConcurrentUnits int    `toml:"max_concurrent_units"`
	// IOLimit throttles dataset downloads, in bytes per second ("50MB").
	IOLimit string `toml:"io_limit"`
}

// Log selects the log handler.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Storage configures remote blob stores.
type Storage struct {
	S3    S3    `toml:"s3"`
	MinIO MinIO `toml:"minio"`
}

type S3 struct {
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
}

type MinIO struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Region    string `toml:"region"`
	Secure    bool   `toml:"secure"`
}

// Output names optional run artifacts.
type Output struct {
	MetricsFile  string `toml:"metrics_file"`
	CentersFile  string `toml:"centers_file"`
	CentersCodec string `toml:"centers_codec"`
}

// Default returns the configuration used without a file.
func Default() Config {
	return Config{
		Engine: Engine{
			Fuzziness:          2,
			EmptyClusterPolicy: "propagate",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Output: Output{
			CentersCodec: "zstd",
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs *multierror.Error

	if c.Engine.Fuzziness <= 1 {
		errs = multierror.Append(errs, fmt.Errorf("%w: engine.fuzziness must be > 1, got %v", ErrInvalid, c.Engine.Fuzziness))
	}
	switch c.Engine.EmptyClusterPolicy {
	case "propagate", "keep-previous":
	default:
		errs = multierror.Append(errs, fmt.Errorf("%w: engine.empty_cluster_policy %q", ErrInvalid, c.Engine.EmptyClusterPolicy))
	}
	if c.Engine.MaxConcurrentUnits < 0 {
		errs = multierror.Append(errs, fmt.Errorf("%w: engine.max_concurrent_units must be >= 0", ErrInvalid))
	}
	if _, err := parseSize(c.Engine.MemoryLimit); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("%w: engine.memory_limit: %v", ErrInvalid, err))
	}
	if _, err := parseSize(c.Engine.IOLimit); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("%w: engine.io_limit: %v", ErrInvalid, err))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("%w: log.level: %v", ErrInvalid, err))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = multierror.Append(errs, fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format))
	}
	if _, err := snapshot.ParseCodec(c.Output.CentersCodec); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("%w: output.centers_codec: %v", ErrInvalid, err))
	}

	return errs.ErrorOrNil()
}

// LogLevel returns the parsed log level.
func (c Config) LogLevel() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

// MemoryLimitBytes returns the memory budget, 0 for unlimited.
func (c Config) MemoryLimitBytes() int64 {
	n, _ := parseSize(c.Engine.MemoryLimit)
	return n
}

// IOLimitBytesPerSec returns the download throttle, 0 for unlimited.
func (c Config) IOLimitBytesPerSec() int64 {
	n, _ := parseSize(c.Engine.IOLimit)
	return n
}

// CentersCodec returns the parsed snapshot codec.
func (c Config) CentersCodec() snapshot.Codec {
	codec, _ := snapshot.ParseCodec(c.Output.CentersCodec)
	return codec
}

func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(s))
	return l, err
}
