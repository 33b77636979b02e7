package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/arco-atelier/arco-api/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// S3Interface defines the object storage operations used by the upload endpoints
type S3Interface interface {
	UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, folder, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
	PublicURL(key string) string
}

// S3Service stores catalog media in a public-read S3 bucket
type S3Service struct {
	client    *s3.Client
	bucket    string
	publicURL string
	log       *zap.Logger
}

// NewS3Service builds the S3 client. Static credentials are used when configured,
// otherwise the default AWS credential chain applies.
func NewS3Service(ctx context.Context, cfg *config.Config, log *zap.Logger) (*S3Service, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	publicURL := cfg.AWSS3PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.AWSS3Bucket, cfg.AWSRegion)
	}

	return &S3Service{
		client:    s3.NewFromConfig(awsConfig),
		bucket:    cfg.AWSS3Bucket,
		publicURL: publicURL,
		log:       log,
	}, nil
}

// UploadFile streams the file to S3 under folder/ with a random name and returns the key
func (s *S3Service) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, folder, contentType string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			s.log.Warn("Failed to close uploaded file", zap.Error(closeErr))
		}
	}()

	key := ObjectKey(folder, fileHeader.Filename)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(fileHeader.Size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	s.log.Info("Uploaded object", zap.String("key", key), zap.Int64("size", fileHeader.Size))
	return key, nil
}

// DeleteFile removes an object. Deleting a missing key is not an error.
func (s *S3Service) DeleteFile(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	s.log.Info("Deleted object", zap.String("key", key))
	return nil
}

// PublicURL returns the URL the storefront loads the object from
func (s *S3Service) PublicURL(key string) string {
	return s.publicURL + "/" + key
}

// ObjectKey builds folder/<uuid><ext> keeping the lower-cased extension of filename
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.NewString(), ext)
}
