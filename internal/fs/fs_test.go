package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	require.NoError(t, Default.MkdirAll(dir, 0o755))

	path := filepath.Join(dir, "a.csv")
	f, err := Default.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	info, err := Default.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
}

func TestFaultyFS(t *testing.T) {
	dir := t.TempDir()
	custom := errors.New("disk full")

	ffs := NewFaultyFS(nil)
	ffs.AddRule("limited", Fault{FailAfterBytes: 4, Err: custom})
	ffs.AddRule("sync", Fault{FailAfterBytes: -1, FailOnSync: true})
	ffs.AddRule("close", Fault{FailAfterBytes: -1, FailOnClose: true})
	ffs.AddRule("open", Fault{FailOnOpen: true})

	open := func(name string) File {
		f, err := ffs.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY, 0o644)
		require.NoError(t, err)
		return f
	}

	t.Run("write limit", func(t *testing.T) {
		f := open("limited.csv")
		defer f.Close()

		_, err := f.Write([]byte("abcd"))
		require.NoError(t, err)
		_, err = f.Write([]byte("e"))
		assert.ErrorIs(t, err, custom)
	})

	t.Run("sync", func(t *testing.T) {
		f := open("sync.csv")
		defer f.Close()
		assert.ErrorIs(t, f.Sync(), ErrInjected)
	})

	t.Run("close", func(t *testing.T) {
		f := open("close.csv")
		assert.ErrorIs(t, f.Close(), ErrInjected)
	})

	t.Run("open", func(t *testing.T) {
		_, err := ffs.OpenFile(filepath.Join(dir, "open.csv"), os.O_CREATE|os.O_WRONLY, 0o644)
		assert.ErrorIs(t, err, ErrInjected)
		_, statErr := ffs.Stat(filepath.Join(dir, "open.csv"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("unmatched", func(t *testing.T) {
		f := open("plain.csv")
		_, err := f.Write(make([]byte, 1024))
		require.NoError(t, err)
		require.NoError(t, f.Sync())
		require.NoError(t, f.Close())
	})

	assert.Equal(t, 5, ffs.Opens())
}
