package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"slices"
	"strings"

	"github.com/arco-atelier/arco-api/utils"
)

// ImageFolders are the bucket prefixes images may be uploaded to
var ImageFolders = []string{"products", "looks", "reviews"}

var (
	ErrInvalidFolder   = errors.New("invalid upload folder")
	ErrInvalidImageKey = errors.New("invalid image key")
)

// UploadedImage is the result of an image upload
type UploadedImage struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ImageService validates and stores catalog and review images
type ImageService interface {
	// UploadImage validates and uploads an image into folder
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (*UploadedImage, error)

	// DeleteImage removes an image by its storage key
	DeleteImage(ctx context.Context, key string) error
}

// S3ImageService implements ImageService on top of S3Interface
type S3ImageService struct {
	storage S3Interface
}

// NewImageService creates an ImageService backed by storage
func NewImageService(storage S3Interface) *S3ImageService {
	return &S3ImageService{storage: storage}
}

// UploadImage validates and uploads an image file to S3
func (s *S3ImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (*UploadedImage, error) {
	if !slices.Contains(ImageFolders, folder) {
		return nil, ErrInvalidFolder
	}
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return nil, err
	}

	key, err := s.storage.UploadFile(ctx, fileHeader, folder, utils.ImageContentType(fileHeader.Filename))
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	return &UploadedImage{Key: key, URL: s.storage.PublicURL(key)}, nil
}

// DeleteImage deletes an image. Only keys inside ImageFolders are accepted.
func (s *S3ImageService) DeleteImage(ctx context.Context, key string) error {
	if err := ValidateImageKey(key); err != nil {
		return err
	}
	if err := s.storage.DeleteFile(ctx, key); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// ValidateImageKey checks that key is folder/name with a known folder
func ValidateImageKey(key string) error {
	folder, name, ok := strings.Cut(key, "/")
	if !ok || name == "" || strings.Contains(name, "/") || strings.Contains(key, "..") {
		return ErrInvalidImageKey
	}
	if !slices.Contains(ImageFolders, folder) {
		return ErrInvalidImageKey
	}
	return nil
}
