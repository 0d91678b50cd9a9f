// Package storage uploads organizer media (event posters, merchandise photos, team
// portraits) to an S3-compatible bucket such as Cloudflare R2.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/hitk-robotics/club-portal/internal/apperror"
)

// MaxUploadSize bounds a single upload (5 MiB).
const MaxUploadSize = 5 << 20

// ErrDisabled is returned by a nil ObjectStore; the server answers 503.
var ErrDisabled = errors.New("storage: uploads are not configured")

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var allowedFolders = map[string]bool{
	"events":      true,
	"merchandise": true,
	"team":        true,
}

type Config struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// Enabled reports whether enough is configured to build an ObjectStore.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// putter is the slice of *s3.Client the store uses.
type putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type ObjectStore struct {
	client  putter
	bucket  string
	baseURL string
}

func New(ctx context.Context, cfg Config) (*ObjectStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: loading config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return newObjectStore(client, cfg.Bucket, baseURL), nil
}

func newObjectStore(client putter, bucket, baseURL string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

// Upload stores body under folder and returns its public URL. size is the declared
// length; contentType must be one of the accepted image types.
func (s *ObjectStore) Upload(ctx context.Context, folder, contentType string, size int64, body io.Reader) (string, error) {
	if s == nil {
		return "", ErrDisabled
	}
	if !allowedFolders[folder] {
		return "", apperror.ValidationFailed("folder", "folder must be one of events, merchandise, team")
	}
	if size <= 0 {
		return "", apperror.ValidationFailed("file", "file is empty")
	}
	if size > MaxUploadSize {
		return "", apperror.ValidationFailed("file", "file exceeds 5 MiB")
	}
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", apperror.ValidationFailed("file", "only jpeg, png, gif and webp images are accepted")
	}

	key := folder + "/" + uuid.NewString() + ext
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          io.LimitReader(body, MaxUploadSize),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("storage: uploading %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

// SniffContentType detects the type from the first bytes of a file instead of trusting
// the client's header.
func SniffContentType(head []byte) string {
	return http.DetectContentType(head)
}
