// Package engine implements the iteration controller of a distributed
// clustering run.
//
// The controller orchestrates:
//   - Setup: partitioning the observations and placing one shard per unit
//   - Initialize: publishing the initial centers
//   - Compute: one scatter/barrier/merge/broadcast round per call
//
// Units run on a fixed worker pool. Within a round every unit reads the same
// published center version and its own shard; the reducer writes the next
// version into the standby buffer after the barrier and publishes it before
// the next round starts.
package engine
