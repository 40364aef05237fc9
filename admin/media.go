package admin

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/errs"
)

// Upload size caps.
const (
	MaxImageBytes int64 = 5 << 20
	MaxVideoBytes int64 = 50 << 20
)

// MediaLimit returns the size cap for a media field.
func MediaLimit(field string) int64 {
	if field == "video" {
		return MaxVideoBytes
	}
	return MaxImageBytes
}

// CheckSize rejects uploads above the cap for field.
func CheckSize(field string, up Upload) error {
	if limit := MediaLimit(field); int64(len(up.Data)) > limit {
		return errs.NewMediaTooLargeError(field, int64(len(up.Data)), limit)
	}
	return nil
}

// MediaEncoder turns an upload into the string stored on the project.
type MediaEncoder interface {
	Encode(ctx context.Context, field string, up Upload) (string, error)
}

func contentType(up Upload) string {
	if ct := strings.TrimSpace(up.ContentType); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(up.Filename))); ct != "" {
		return ct
	}
	return http.DetectContentType(up.Data)
}

// DataURIEncoder inlines the upload as a base64 data URI.
type DataURIEncoder struct{}

func (DataURIEncoder) Encode(_ context.Context, _ string, up Upload) (string, error) {
	return "data:" + contentType(up) + ";base64," + base64.StdEncoding.EncodeToString(up.Data), nil
}

// ObjectPutter is the part of the S3 client the encoder needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Encoder uploads media to a bucket and stores its public URL.
type S3Encoder struct {
	client     ObjectPutter
	bucket     string
	prefix     string
	publicBase string
}

func NewS3Encoder(client ObjectPutter, bucket, prefix, publicBase string) *S3Encoder {
	return &S3Encoder{
		client:     client,
		bucket:     bucket,
		prefix:     strings.Trim(prefix, "/"),
		publicBase: strings.TrimSuffix(publicBase, "/"),
	}
}

// NewS3EncoderFromConfig builds an encoder from S3_BUCKET, S3_PREFIX,
// S3_PUBLIC_BASE_URL and AWS_REGION. It returns nil when no bucket is configured.
func NewS3EncoderFromConfig(ctx context.Context, c map[string]string) (*S3Encoder, error) {
	bucket := config.GetString(c, "S3_BUCKET", "")
	if bucket == "" {
		return nil, nil
	}

	region := config.GetString(c, "AWS_REGION", "us-east-1")
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	publicBase := config.GetString(c, "S3_PUBLIC_BASE_URL", fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region))
	return NewS3Encoder(s3.NewFromConfig(awsCfg), bucket, config.GetString(c, "S3_PREFIX", "portfolio"), publicBase), nil
}

func (e *S3Encoder) Encode(ctx context.Context, field string, up Upload) (string, error) {
	ct := contentType(up)
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
			ext = exts[0]
		}
	}
	key := path.Join(e.prefix, field, uuid.New().String()+ext)

	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(e.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(up.Data),
		ContentType:   aws.String(ct),
		ContentLength: aws.Int64(int64(len(up.Data))),
	})
	if err != nil {
		return "", errs.NewStorageError("upload", key, err)
	}
	return e.publicBase + "/" + key, nil
}
