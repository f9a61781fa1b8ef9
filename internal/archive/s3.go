package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/gotn-ai/gotn/internal/gotnerr"
)

// S3Sink archives run tarballs to an S3 (or S3-compatible, e.g. MinIO)
// bucket, mirroring artifacts/s3_store.go's client construction.
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Config configures an S3Sink. Endpoint is optional and, when set,
// enables path-style addressing for S3-compatible services.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
}

// NewS3Sink builds an S3Sink from cfg.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, gotnerr.Wrap(gotnerr.KindInternal, "load aws config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
			o.UsePathStyle = true
		}
	})

	return &S3Sink{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Sink) Store(ctx context.Context, key string, tarball []byte) error {
	fullKey := key
	if s.prefix != "" {
		fullKey = fmt.Sprintf("%s/%s", s.prefix, key)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &fullKey,
		Body:   bytes.NewReader(tarball),
	})
	if err != nil {
		return gotnerr.Wrap(gotnerr.KindBackendUnavail, "s3 put object", err)
	}
	return nil
}
