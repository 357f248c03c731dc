// Package resource implements the Controller for the limits of one clustering run.
//
// The Controller governs three resources:
//
//   - Memory: unit-local shard copies, workspaces and the center buffers (fail-fast)
//   - Concurrency: how many compute units may run their local step at once
//   - IO: rate limit for dataset and snapshot transfers
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                        Controller                           │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Memory Limit   │  Unit Slots     │  IO Rate Limiter        │
//	│  (fail-fast)    │  (semaphore)    │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  AcquireMemory  │  AcquireUnit    │  AcquireIO              │
//	│  ReleaseMemory  │  TryAcquireUnit │  Reader                 │
//	│  MemoryUsage    │  ReleaseUnit    │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// # Memory Management
//
// AcquireMemory never blocks. It returns ErrMemoryLimitExceeded when the
// reservation does not fit:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30,
//	})
//
//	if err := rc.AcquireMemory(ctx, shardBytes); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(shardBytes)
//
// A nil *Controller is valid and imposes no limits.
package resource
