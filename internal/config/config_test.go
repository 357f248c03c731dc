package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/hupe1980/distcluster/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "distcluster.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
	assert.Zero(t, cfg.MemoryLimitBytes())
	assert.Equal(t, snapshot.CodecZSTD, cfg.CentersCodec())
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
[engine]
fuzziness = 1.5
empty_cluster_policy = "keep-previous"
cost_tracking = true
memory_limit = "1MiB"
max_concurrent_units = 2
io_limit = "10MB"

[log]
level = "debug"
format = "json"

[storage.s3]
region = "eu-central-1"

[storage.minio]
endpoint = "localhost:9000"
secure = true

[output]
metrics_file = "run.prom"
centers_file = "centers.snap"
centers_codec = "lz4"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1.5, cfg.Engine.Fuzziness)
	assert.True(t, cfg.Engine.CostTracking)
	assert.Equal(t, int64(1<<20), cfg.MemoryLimitBytes())
	assert.Equal(t, int64(10_000_000), cfg.IOLimitBytesPerSec())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, "eu-central-1", cfg.Storage.S3.Region)
	assert.True(t, cfg.Storage.MinIO.Secure)
	assert.Equal(t, snapshot.CodecLZ4, cfg.CentersCodec())
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "[log]\nlevel = \"warn\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.Engine.Fuzziness)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadUnknownKey(t *testing.T) {
	_, err := Load(writeFile(t, "[engine]\nfuzzyness = 3\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Engine.Fuzziness = 1
	cfg.Engine.EmptyClusterPolicy = "ignore"
	cfg.Engine.MemoryLimit = "lots"
	cfg.Log.Format = "xml"
	cfg.Output.CentersCodec = "gzip"

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 5)
	assert.ErrorIs(t, err, ErrInvalid)
}
