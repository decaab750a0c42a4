package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/memorial/internal/common"
)

// Config holds the S3 (or MinIO) connection settings.
type Config struct {
	Region        string
	AccessKey     string
	SecretKey     string
	BaseEndpoint  string
	Bucket        string
	PublicBaseURL string
}

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Gateway is a Gateway over an S3-compatible bucket.
type S3Gateway struct {
	api      objectAPI
	bucket   string
	base     string
	observer Observer
	now      func() time.Time
}

// NewS3Gateway builds the client with static credentials. A non-empty
// BaseEndpoint switches to path-style addressing, which MinIO expects.
func NewS3Gateway(ctx context.Context, c Config, observer Observer) (*S3Gateway, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	api := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	base := c.PublicBaseURL
	if base == "" {
		base = c.BaseEndpoint
	}
	return newS3Gateway(api, c.Bucket, base, observer), nil
}

func newS3Gateway(api objectAPI, bucket, base string, observer Observer) *S3Gateway {
	if observer == nil {
		observer = NopObserver()
	}
	return &S3Gateway{api: api, bucket: bucket, base: base, observer: observer, now: time.Now}
}

func (g *S3Gateway) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	start := g.now()
	_, err := g.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(g.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(CacheControl),
		IfNoneMatch:   aws.String("*"),
	})
	g.observer.RecordUpload(g.now().Sub(start), size, err)
	if err != nil {
		return "", fmt.Errorf("%w: put %s: %v", common.ErrUpload, key, err)
	}
	return key, nil
}

func (g *S3Gateway) PublicURL(key string) string {
	return publicURL(g.base, g.bucket, key)
}

func (g *S3Gateway) Delete(ctx context.Context, key string) error {
	start := g.now()
	_, err := g.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	g.observer.RecordDelete(g.now().Sub(start), err)
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", common.ErrDelete, key, err)
	}
	return nil
}
