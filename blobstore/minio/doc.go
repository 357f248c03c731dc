// Package minio provides a blobstore.BlobStore backed by MinIO or any other
// S3-compatible service, using the MinIO Go client.
//
//	store, err := minio.NewFromEndpoint(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "datasets", "")
//	if err != nil { ... }
//	blob, err := store.Open(ctx, "blobs.npz")
package minio
