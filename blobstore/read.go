package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// IOLimiter throttles transfers. *resource.Controller implements it.
type IOLimiter interface {
	Reader(ctx context.Context, r io.Reader) io.Reader
}

// ReadAll returns the full content of b. Mappable blobs are returned without
// copying; the slice is then only valid until b is closed. limiter may be nil.
func ReadAll(ctx context.Context, b Blob, limiter IOLimiter) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		return m.Bytes()
	}

	size := b.Size()
	if size == 0 {
		return nil, nil
	}

	rc, err := b.ReadRange(ctx, 0, size)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limiter != nil {
		r = limiter.Reader(ctx, rc)
	}

	buf := bytes.NewBuffer(make([]byte, 0, size))
	n, err := io.Copy(buf, r)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, fmt.Errorf("blobstore: short read: %d of %d bytes", n, size)
	}
	return buf.Bytes(), nil
}

// ReaderAt binds b to ctx so it can be used as an io.ReaderAt.
func ReaderAt(ctx context.Context, b Blob) io.ReaderAt {
	return &readerAt{ctx: ctx, b: b}
}

type readerAt struct {
	ctx context.Context
	b   Blob
}

func (r *readerAt) ReadAt(p []byte, off int64) (int, error) {
	return r.b.ReadAt(r.ctx, p, off)
}
