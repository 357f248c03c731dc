// Package s3 provides a blobstore.BlobStore backed by Amazon S3.
//
//	store, err := s3.NewFromConfig(ctx, "my-bucket", "datasets/")
//	if err != nil { ... }
//	blob, err := store.Open(ctx, "blobs.npz")
//
// Reads use ranged GetObject requests. Streaming writes go through the
// s3 manager uploader; Put sends a single PutObject with a CRC32C checksum.
package s3
