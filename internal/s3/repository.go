package s3

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.uber.org/zap"
)

type Option func(*Repository)

func WithRegion(region string) Option {
	return func(r *Repository) {
		r.Region = region
	}
}

func WithBucket(bucket string) Option {
	return func(r *Repository) {
		r.Bucket = bucket
	}
}

func WithPrefix(prefix string) Option {
	return func(r *Repository) {
		r.Prefix = prefix
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Repository) {
		r.logger = l
	}
}

func WithForcePathStyle(forcePathStyle bool) Option {
	return func(r *Repository) {
		r.ForcePathStyle = forcePathStyle
	}
}

func WithEndpoint(endpoint string) Option {
	return func(r *Repository) {
		r.Endpoint = endpoint
	}
}

// Repository uploads export artifacts to S3 or an S3-compatible store.
type Repository struct {
	logger   *zap.Logger
	uploader *s3manager.Uploader

	Endpoint       string
	Region         string
	Bucket         string
	Prefix         string
	ForcePathStyle bool
}

func New(opts ...Option) *Repository {
	r := &Repository{
		logger: zap.NewNop(),
	}

	for _, o := range opts {
		o(r)
	}

	awsConfig := &aws.Config{
		Region:           aws.String(r.Region),
		S3ForcePathStyle: aws.Bool(r.ForcePathStyle),
	}

	if r.Endpoint != "" {
		awsConfig.Endpoint = aws.String(r.Endpoint)
	}

	sess, _ := session.NewSession(awsConfig)
	r.uploader = s3manager.NewUploader(sess)

	return r
}

func (r *Repository) Write(ctx context.Context, key string, contentType string, reader io.Reader) error {
	objPath := path.Join(r.Prefix, key)

	r.logger.Debug(
		"S3 write",
		zap.String("key", key),
		zap.String("prefix", r.Prefix),
		zap.String("object_path", objPath),
		zap.String("bucket", r.Bucket),
		zap.String("content_type", contentType),
	)

	_, err := r.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(r.Bucket),
		Key:         aws.String(objPath),
		ContentType: aws.String(contentType),

		// io.ReadSeeker is preferred as the uploader can then size parts
		// without buffering the whole reader.
		Body: bufio.NewReader(reader),
	})
	return err
}

// URL returns the public object URL for a key. With a custom endpoint the
// path-style form is used so S3-compatible stores resolve correctly.
func (r *Repository) URL(key string) string {
	objPath := path.Join(r.Prefix, key)

	if r.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(r.Endpoint, "/"), r.Bucket, objPath)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", r.Bucket, r.Region, objPath)
}
