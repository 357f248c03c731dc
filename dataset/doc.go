// Package dataset reads, writes and generates clustering datasets.
//
// A dataset is an .npz archive holding a float matrix X (observations by
// dimensions) and an optional integer label vector Y. Archives are stored in a
// blobstore.BlobStore, so the same file can live on local disk, S3 or MinIO.
//
// Generate produces the two-class Gaussian benchmark data used for scaling
// runs: one cluster per class centered on a hypercube vertex, each cluster
// drawn from a random covariance, rows shuffled with the seed.
package dataset
