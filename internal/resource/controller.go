package resource

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when memory limit would be exceeded.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for managed memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxConcurrentUnits caps how many compute units run their local step at
	// the same time. If 0, every unit runs concurrently.
	MaxConcurrentUnits int64

	// IOLimitBytesPerSec is the maximum throughput for dataset and snapshot IO.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages the resources of a run.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	unitSem *semaphore.Weighted // nil if unlimited

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.MaxConcurrentUnits > 0 {
		c.unitSem = semaphore.NewWeighted(cfg.MaxConcurrentUnits)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireMemory attempts to reserve memory.
// Returns ErrMemoryLimitExceeded if limit would be exceeded.
// Non-blocking; ctx is only checked for cancellation.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return ErrMemoryLimitExceeded
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireUnit reserves a compute slot. Blocks if all slots are busy.
func (c *Controller) AcquireUnit(ctx context.Context) error {
	if c == nil || c.unitSem == nil {
		return nil
	}
	return c.unitSem.Acquire(ctx, 1)
}

// TryAcquireUnit attempts to reserve a compute slot without blocking.
func (c *Controller) TryAcquireUnit() bool {
	if c == nil || c.unitSem == nil {
		return true
	}
	return c.unitSem.TryAcquire(1)
}

// ReleaseUnit releases a compute slot.
func (c *Controller) ReleaseUnit() {
	if c == nil || c.unitSem == nil {
		return
	}
	c.unitSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than one second of budget are split.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// Reader wraps r so that every Read is charged against the IO limit.
// Without a limit r is returned unchanged.
func (c *Controller) Reader(ctx context.Context, r io.Reader) io.Reader {
	if c == nil || c.ioLimiter == nil {
		return r
	}
	return &limitedReader{ctx: ctx, r: r, c: c}
}

type limitedReader struct {
	ctx context.Context
	r   io.Reader
	c   *Controller
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if n > 0 {
		if werr := l.c.AcquireIO(l.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
