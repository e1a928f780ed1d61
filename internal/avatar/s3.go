// Package avatar stores avatar images in an S3-compatible bucket.
package avatar

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/samber/oops"
)

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// PublicBaseURL overrides the URL returned for uploaded objects, for
	// buckets served through a CDN.
	PublicBaseURL string
	UsePathStyle  bool
}

// S3Storage uploads avatars and returns their public URL. It satisfies
// contactAuth.AvatarStorage.
type S3Storage struct {
	client putter
	bucket string
	base   string
}

// NewS3Storage builds a client from the default AWS chain. Static
// credentials and a custom endpoint are used when configured, which is how
// MinIO and other compatible stores are reached.
func NewS3Storage(ctx context.Context, cfg Config) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, oops.Code("AVATAR_STORAGE_CONFIG").With("region", cfg.Region).Wrap(err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newStorage(client, cfg), nil
}

func newStorage(client putter, cfg Config) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: cfg.Bucket,
		base:   publicBase(cfg),
	}
}

func publicBase(cfg Config) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return "https://" + cfg.Bucket + ".s3." + cfg.Region + ".amazonaws.com"
	}
}

// Upload writes body under key, replacing any previous object. The returned
// URL carries the object's ETag so clients do not serve a stale image.
func (s *S3Storage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=86400"),
	})
	if err != nil {
		return "", oops.Code("AVATAR_UPLOAD_FAILED").
			With("bucket", s.bucket).
			With("key", key).
			Wrap(err)
	}

	u := s.base + "/" + key
	if out != nil && out.ETag != nil {
		if v := strings.Trim(*out.ETag, `"`); v != "" {
			u += "?v=" + url.QueryEscape(v)
		}
	}
	return u, nil
}
