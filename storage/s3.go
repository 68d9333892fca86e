// Package storage keeps uploaded images in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrUnsupportedImage = errors.New("only jpeg, png, webp and gif images are accepted")

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ImageStore saves an image and returns its public URL.
type ImageStore interface {
	Put(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error)
}

// ValidateImage rejects content types that are not images we serve.
func ValidateImage(contentType string) error {
	if !imageTypes[strings.ToLower(contentType)] {
		return ErrUnsupportedImage
	}
	return nil
}

// ObjectKey names a new object under folder, keeping the upload's extension.
func ObjectKey(folder, filename string) string {
	return path.Join(folder, uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
}

type S3Store struct {
	uploader      *manager.Uploader
	bucket        string
	publicBaseURL string
}

// NewS3Store uses the default AWS credential chain.
func NewS3Store(ctx context.Context, bucket, publicBaseURL string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return newS3Store(s3.NewFromConfig(cfg), bucket, publicBaseURL), nil
}

func newS3Store(client *s3.Client, bucket, publicBaseURL string) *S3Store {
	return &S3Store{
		uploader:      manager.NewUploader(client),
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *S3Store) Put(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error) {
	if err := ValidateImage(contentType); err != nil {
		return "", err
	}
	key := ObjectKey(folder, filename)
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key, nil
	}
	return out.Location, nil
}
