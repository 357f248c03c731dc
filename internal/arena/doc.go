// Package arena holds the double-buffered global center matrix.
//
// # Concurrency Model
//
// One version of the centers is live at a time. Compute units read the live
// version during a round; the round barrier writes the merged result into the
// standby buffer and publishes it. Readers never observe a partially written
// version because Publish only happens after every unit has returned.
//
// # Memory Management
//
// Both buffers are allocated once, optionally charged against a MemoryAcquirer,
// and reused for every round.
package arena
