// Package s3blob implements a bucket backed by AWS S3 or an S3-compatible
// service such as MinIO.
package s3blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/steviemul/offily/internal/blob"
)

// Compile-time check that Bucket implements blob.Bucket.
var _ blob.Bucket = (*Bucket)(nil)

// API is the subset of the S3 client used by Bucket.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Bucket is an S3 bucket, optionally scoped to a key prefix.
type Bucket struct {
	client API
	bucket string
	prefix string
}

type settings struct {
	prefix   string
	region   string
	endpoint string
	client   API
}

// Option configures a Bucket.
type Option func(*settings)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *settings) { s.region = region }
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
// Path-style addressing is enabled.
func WithEndpoint(endpoint string) Option {
	return func(s *settings) { s.endpoint = endpoint }
}

// WithClient uses the given client instead of one built from the default
// AWS configuration.
func WithClient(client API) Option {
	return func(s *settings) { s.client = client }
}

// New creates a bucket handle. The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Bucket, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	client := s.client
	if client == nil {
		var loadOpts []func(*config.LoadOptions) error
		if s.region != "" {
			loadOpts = append(loadOpts, config.WithRegion(s.region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			if s.endpoint != "" {
				o.BaseEndpoint = aws.String(s.endpoint)
				o.UsePathStyle = true
			}
		})
	}

	return &Bucket{
		client: client,
		bucket: bucketName,
		prefix: s.prefix,
	}, nil
}

// Read returns the content of the named object.
func (b *Bucket) Read(ctx context.Context, name string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, blob.ErrNotFound
		}
		return nil, fmt.Errorf("getting object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return data, nil
}

// Write uploads data under name. S3 PUTs are atomic per object.
func (b *Bucket) Write(ctx context.Context, name string, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("putting object: %w", err)
	}
	return nil
}

// Delete removes the named object. S3 reports success for missing keys.
func (b *Bucket) Delete(ctx context.Context, name string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	if err != nil {
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}

// Close releases resources.
func (b *Bucket) Close() error {
	// S3 client doesn't need explicit closing.
	return nil
}

// key returns the full object key for name.
func (b *Bucket) key(name string) string {
	return b.prefix + name
}
