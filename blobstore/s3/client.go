package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client is the subset of the S3 API the store uses.
type Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// ClientConfig selects region and endpoint for NewFromConfig.
type ClientConfig struct {
	// Region overrides the region from the environment.
	Region string
	// Endpoint points the client at an S3-compatible service and enables path-style addressing.
	Endpoint string
}

// NewFromConfig loads the default AWS configuration and creates a Store.
func NewFromConfig(ctx context.Context, bucket, rootPrefix string, cc ClientConfig, optFns ...func(*Options)) (*Store, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cc.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cc.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if cc.Endpoint != "" {
			o.BaseEndpoint = aws.String(cc.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewStore(client, bucket, rootPrefix, optFns...), nil
}
