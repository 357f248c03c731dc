package arena

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

// MemoryAcquirer is an interface for acquiring memory.
type MemoryAcquirer interface {
	AcquireMemory(ctx context.Context, amount int64) error
	ReleaseMemory(amount int64)
}

var (
	// ErrShape is returned when a matrix does not match the arena's K×M shape.
	ErrShape = errors.New("arena: shape mismatch")
	// ErrClosed is returned when the arena has been released.
	ErrClosed = errors.New("arena: closed")
)

// Centers is a pair of K×M buffers with a generation counter.
type Centers struct {
	k, dim     int
	bufs       [2]*mat.Dense
	live       atomic.Uint32
	generation atomic.Uint64
	closed     atomic.Bool
	acquirer   MemoryAcquirer
	charged    int64
}

// Option is a configuration option for Centers.
type Option func(*Centers)

// WithMemoryAcquirer charges both buffers against the acquirer.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(c *Centers) {
		c.acquirer = acquirer
	}
}

// New allocates both buffers for k clusters of dimension dim.
func New(ctx context.Context, k, dim int, opts ...Option) (*Centers, error) {
	if k <= 0 || dim <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, k, dim)
	}

	c := &Centers{k: k, dim: dim}
	for _, opt := range opts {
		opt(c)
	}

	size := Bytes(k, dim)
	if c.acquirer != nil {
		if err := c.acquirer.AcquireMemory(ctx, size); err != nil {
			return nil, err
		}
		c.charged = size
	}

	c.bufs[0] = mat.NewDense(k, dim, nil)
	c.bufs[1] = mat.NewDense(k, dim, nil)

	return c, nil
}

// Bytes returns the memory both buffers occupy.
func Bytes(k, dim int) int64 {
	return int64(2 * k * dim * 8)
}

// Dims returns K and M.
func (c *Centers) Dims() (k, dim int) { return c.k, c.dim }

// Live returns the published version. Callers must not write to it.
func (c *Centers) Live() *mat.Dense {
	return c.bufs[c.live.Load()]
}

// Next returns the standby buffer the next version is written into.
func (c *Centers) Next() *mat.Dense {
	return c.bufs[c.live.Load()^1]
}

// Publish swaps the buffers so the one returned by Next becomes live and
// returns the new generation.
func (c *Centers) Publish() uint64 {
	c.live.Store(c.live.Load() ^ 1)
	return c.generation.Add(1)
}

// Generation returns how many versions have been published.
func (c *Centers) Generation() uint64 {
	return c.generation.Load()
}

// Load copies initial into the standby buffer and publishes it.
func (c *Centers) Load(initial mat.Matrix) (uint64, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	r, cols := initial.Dims()
	if r != c.k || cols != c.dim {
		return 0, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrShape, r, cols, c.k, c.dim)
	}
	c.Next().Copy(initial)
	return c.Publish(), nil
}

// Snapshot returns a copy of the live version.
func (c *Centers) Snapshot() *mat.Dense {
	return mat.DenseCopyOf(c.Live())
}

// Close releases the memory charged by New. It is safe to call more than once.
func (c *Centers) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.acquirer != nil && c.charged > 0 {
		c.acquirer.ReleaseMemory(c.charged)
	}
	return nil
}
