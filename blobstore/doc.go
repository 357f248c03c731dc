// Package blobstore provides the storage abstraction for datasets and center
// snapshots.
//
// A BlobStore addresses blobs by name relative to a root (directory, bucket
// prefix). Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads are memory mapped
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible storage
//
// The resolve package turns a dataset or snapshot location such as
// "data/blobs.npz", "s3://bucket/runs/blobs.npz" or "minio://bucket/blobs.npz"
// into a store and a blob name.
package blobstore
