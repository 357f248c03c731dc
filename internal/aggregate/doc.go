// Package aggregate computes per-shard partial statistics for one round of
// distributed clustering.
//
// Two variants are provided:
//
//   - KMeans: hard nearest-center assignment; the partial is the per-cluster
//     row count and the local mean multiplied back by that count.
//   - FuzzyCMeans: soft membership weights raised to the fuzziness exponent;
//     the partial is the per-cluster weight mass and the weighted row sum.
//
// Both variants substitute zero for any not-a-number value they produce
// locally, so a partial never carries NaN into the cross-unit merge.
//
// A Workspace is owned by exactly one compute unit and is reused across rounds.
package aggregate
