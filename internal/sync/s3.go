package sync

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const ndjsonContentType = "application/x-ndjson"

// S3Options configures an S3Destination.
type S3Options struct {
	Bucket   string
	Key      string // object key, e.g. "secretary/identities.jsonl"
	Region   string
	Endpoint string // non-empty for MinIO and other S3-compatible services
	// Daily additionally keeps one snapshot per UTC day next to Key,
	// named <Key without .jsonl>-YYYY-MM-DD.jsonl.
	Daily bool
}

// S3Destination uploads the export to an S3-compatible bucket.
type S3Destination struct {
	client *s3.Client
	opts   S3Options
	now    func() time.Time
}

// NewS3Destination creates an S3 destination. If endpoint is non-empty,
// path-style addressing is enabled.
func NewS3Destination(ctx context.Context, bucket, key, region, endpoint string) (*S3Destination, error) {
	return NewS3DestinationWithOptions(ctx, S3Options{Bucket: bucket, Key: key, Region: region, Endpoint: endpoint})
}

// NewS3DestinationWithOptions creates an S3 destination from opts.
func NewS3DestinationWithOptions(ctx context.Context, opts S3Options) (*S3Destination, error) {
	if opts.Bucket == "" || opts.Key == "" {
		return nil, fmt.Errorf("s3 destination: bucket and key are required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if opts.Endpoint != "" {
		endpoint := opts.Endpoint
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Destination{
		client: s3.NewFromConfig(cfg, s3opts...),
		opts:   opts,
		now:    time.Now,
	}, nil
}

// Write uploads data as the configured key and, if enabled, as today's
// snapshot.
func (d *S3Destination) Write(ctx context.Context, data []byte) error {
	keys := []string{d.opts.Key}
	if d.opts.Daily {
		keys = append(keys, dailyKey(d.opts.Key, d.now()))
	}
	for _, key := range keys {
		_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(d.opts.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(ndjsonContentType),
		})
		if err != nil {
			return fmt.Errorf("s3 put object %s: %w", key, err)
		}
	}
	return nil
}

func dailyKey(key string, now time.Time) string {
	ext := path.Ext(key)
	base := key[:len(key)-len(ext)]
	if ext == "" {
		ext = ".jsonl"
	}
	return base + "-" + now.UTC().Format("2006-01-02") + ext
}
