package resultlog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hupe1980/distcluster/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowFields(t *testing.T) {
	row := Row{
		Method: "distributedKMeans", Seed: 42, NumUnits: 2, K: 3, NObs: 100, NDim: 4,
		Setup: 0.25, Initialization: 1e-7, Computation: 12, Iterations: 10,
	}
	assert.Equal(t, []string{
		"distributedKMeans", "42", "2", "3", "100", "4", "0.25", "0.0000001", "12", "10",
	}, row.Fields())

	row.Failure = "ComputationError"
	fields := row.Fields()
	assert.Equal(t, "ComputationError", fields[6])
	assert.Equal(t, "ComputationError", fields[7])
	assert.Equal(t, "ComputationError", fields[8])
	assert.Equal(t, "10", fields[9])
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	l := Open(path)

	require.NoError(t, l.Append(Row{Method: "a", Iterations: 1}))
	require.NoError(t, l.Append(Row{Method: "b", Iterations: 2}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])

	rows, err := l.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0][0])
	assert.Equal(t, "2", rows[1][9])
}

func TestEnsureHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	l := Open(path)

	require.NoError(t, l.EnsureHeader())
	require.NoError(t, l.EnsureHeader())
	require.NoError(t, l.Append(Row{Method: "a"}))

	rows, err := l.ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, path, l.Path())
}

func TestConcurrentAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, Open(path).Append(Row{Method: "m", Seed: int64(i)}))
		}(i)
	}
	wg.Wait()

	rows, err := Open(path).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 16)
}

func TestAppendCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "2024", "results.csv")
	require.NoError(t, Open(path).Append(Row{Method: "m"}))

	rows, err := Open(path).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestAppendFaults(t *testing.T) {
	tests := []struct {
		name  string
		fault fs.Fault
	}{
		{"open", fs.Fault{FailOnOpen: true}},
		{"write", fs.Fault{FailAfterBytes: 0}},
		{"sync", fs.Fault{FailAfterBytes: -1, FailOnSync: true}},
		{"close", fs.Fault{FailAfterBytes: -1, FailOnClose: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "results.csv")
			ffs := fs.NewFaultyFS(nil)
			ffs.AddRule("results.csv", tt.fault)

			l := Open(path, func(o *Options) { o.FileSystem = ffs })
			err := l.Append(Row{Method: "m"})
			require.ErrorIs(t, err, fs.ErrInjected)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestAppendFailedWriteLeavesNoPartialRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, Open(path).Append(Row{Method: "first"}))

	info, err := os.Stat(path)
	require.NoError(t, err)

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("results.csv", fs.Fault{FailAfterBytes: 8})
	err = Open(path, func(o *Options) { o.FileSystem = ffs }).Append(Row{Method: "second"})
	require.ErrorIs(t, err, fs.ErrInjected)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), after.Size())

	rows, err := Open(path).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "first", rows[0][0])
}

func TestReadRowsMalformed(t *testing.T) {
	_, err := readRows(strings.NewReader(strings.Join(Columns, ",") + "\na,b\n"))
	assert.ErrorIs(t, err, ErrMalformedRow)

	rows, err := readRows(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, rows)
}
