package dataset

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hupe1980/distcluster/blobstore"
	"github.com/klauspost/compress/zip"
	"gonum.org/v1/gonum/mat"
)

// Dataset is an observation matrix with optional class labels.
type Dataset struct {
	X *mat.Dense
	// Y holds one label per row of X, or nil.
	Y []int64
}

// Dims returns the number of observations and dimensions.
func (d *Dataset) Dims() (int, int) {
	return d.X.Dims()
}

// Bytes is the in-memory size of X.
func (d *Dataset) Bytes() int64 {
	r, c := d.X.Dims()
	return int64(r) * int64(c) * 8
}

// Load reads the archive name from store. limiter may be nil.
func Load(ctx context.Context, store blobstore.BlobStore, name string, limiter blobstore.IOLimiter) (*Dataset, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", name, err)
	}
	defer blob.Close()

	data, err := blobstore.ReadAll(ctx, blob, limiter)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", name, err)
	}

	// data may alias a mapping that is released on Close; decoding copies.
	return decodeArchive(data)
}

// SaveOptions configures Save.
type SaveOptions struct {
	// Compress deflates the arrays. Uncompressed archives match numpy.savez.
	Compress bool
}

// Save writes ds to store as an .npz archive.
func Save(ctx context.Context, store blobstore.BlobStore, name string, ds *Dataset, optFns ...func(o *SaveOptions)) error {
	opts := SaveOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if ds == nil || ds.X == nil {
		return fmt.Errorf("%w: %s", ErrMissingArray, observationsEntry)
	}
	if r, _ := ds.X.Dims(); ds.Y != nil && len(ds.Y) != r {
		return fmt.Errorf("%w: %d labels for %d rows", ErrShape, len(ds.Y), r)
	}

	method := zip.Store
	if opts.Compress {
		method = zip.Deflate
	}

	var buf bytes.Buffer
	if err := encodeArchive(&buf, ds, method); err != nil {
		return err
	}
	return store.Put(ctx, name, buf.Bytes())
}
