package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	pkgconfig "github.com/bharatlinker/product-service/pkg/config"
)

// Store is the external object storage holding product photographs.
type Store interface {
	// Upload stores an image buffer and returns its public URL.
	Upload(ctx context.Context, filename string, data []byte) (string, error)
	// Delete removes the object a previously returned URL points to.
	Delete(ctx context.Context, imageURL string) error
}

const keyPrefix = "products/"

type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3Store(ctx context.Context, cfg *pkgconfig.Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.ImageAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.ImageAccessKey, cfg.ImageSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	baseURL := strings.TrimSuffix(cfg.ImageBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.ImageBucket, cfg.AWSRegion)
	}

	return &S3Store{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  cfg.ImageBucket,
		baseURL: baseURL,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	key := keyPrefix + uuid.NewString() + strings.ToLower(path.Ext(filename))

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return s.baseURL + "/" + key, nil
}

func (s *S3Store) Delete(ctx context.Context, imageURL string) error {
	key, err := s.keyFromURL(imageURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image %q: %w", key, err)
	}
	return nil
}

// keyFromURL derives the object key from a stored image URL.
func (s *S3Store) keyFromURL(imageURL string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil || u.Path == "" {
		return "", fmt.Errorf("malformed image URL %q", imageURL)
	}
	return strings.TrimPrefix(u.Path, "/"), nil
}
