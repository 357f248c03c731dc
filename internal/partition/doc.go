// Package partition splits an observation matrix into equally sized,
// contiguous row shards, one per compute unit.
//
// The first N mod P rows are dropped so that every shard has exactly
// (N - N mod P) / P rows. Truncation is deterministic: the same input always
// yields the same shards.
package partition
