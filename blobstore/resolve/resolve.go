// Package resolve maps a location string to a blob store and a blob name.
//
// Supported forms:
//
//	path/to/blobs.npz          local file
//	file:///abs/blobs.npz      local file
//	s3://bucket/key/blobs.npz  Amazon S3 (or an S3-compatible endpoint)
//	minio://bucket/blobs.npz   MinIO
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/hupe1980/distcluster/blobstore"
	"github.com/hupe1980/distcluster/blobstore/minio"
	"github.com/hupe1980/distcluster/blobstore/s3"
)

var (
	// ErrUnsupportedScheme is returned for an unknown URI scheme.
	ErrUnsupportedScheme = errors.New("resolve: unsupported scheme")
	// ErrInvalidLocation is returned when a location lacks a bucket or a name.
	ErrInvalidLocation = errors.New("resolve: invalid location")
)

// Scheme identifies a storage backend.
type Scheme string

const (
	SchemeFile  Scheme = "file"
	SchemeS3    Scheme = "s3"
	SchemeMinIO Scheme = "minio"
)

// Config carries backend settings.
type Config struct {
	S3    s3.ClientConfig
	MinIO minio.Config
}

// Target is a parsed location.
type Target struct {
	Scheme Scheme
	// Bucket is empty for local files.
	Bucket string
	// Root is the local directory for files.
	Root string
	// Name is the blob name inside the bucket or directory.
	Name string
}

// Parse splits a location without touching any backend.
func Parse(location string) (Target, error) {
	if location == "" {
		return Target{}, fmt.Errorf("%w: empty", ErrInvalidLocation)
	}

	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		return localTarget(location), nil
	}

	switch Scheme(strings.ToLower(scheme)) {
	case SchemeFile:
		u, err := url.Parse(location)
		if err != nil {
			return Target{}, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
		}
		return localTarget(filepath.FromSlash(u.Path)), nil
	case SchemeS3, SchemeMinIO:
		bucket, name, _ := strings.Cut(rest, "/")
		if bucket == "" || name == "" {
			return Target{}, fmt.Errorf("%w: %q", ErrInvalidLocation, location)
		}
		return Target{Scheme: Scheme(strings.ToLower(scheme)), Bucket: bucket, Name: name}, nil
	default:
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

func localTarget(p string) Target {
	return Target{
		Scheme: SchemeFile,
		Root:   filepath.Dir(p),
		Name:   filepath.Base(p),
	}
}

// Open parses location and builds the store for it.
func Open(ctx context.Context, location string, cfg Config) (blobstore.BlobStore, string, error) {
	t, err := Parse(location)
	if err != nil {
		return nil, "", err
	}

	switch t.Scheme {
	case SchemeS3:
		store, err := s3.NewFromConfig(ctx, t.Bucket, "", cfg.S3)
		if err != nil {
			return nil, "", err
		}
		return store, t.Name, nil
	case SchemeMinIO:
		store, err := minio.NewFromEndpoint(cfg.MinIO, t.Bucket, "")
		if err != nil {
			return nil, "", err
		}
		return store, t.Name, nil
	default:
		return blobstore.NewLocalStore(t.Root), t.Name, nil
	}
}
