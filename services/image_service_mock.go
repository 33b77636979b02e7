package services

import (
	"context"
	"mime/multipart"
	"slices"
	"sync"

	"github.com/arco-atelier/arco-api/utils"
)

// MockImageService records uploads and deletions for controller tests
type MockImageService struct {
	Uploaded []UploadedImage
	Deleted  []string
	Err      error // returned by every call when set
	mu       sync.Mutex
}

// NewMockImageService creates a new mock image service
func NewMockImageService() *MockImageService {
	return &MockImageService{}
}

// UploadImage validates the file like the real service and returns a fake URL
func (m *MockImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (*UploadedImage, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if !slices.Contains(ImageFolders, folder) {
		return nil, ErrInvalidFolder
	}
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return nil, err
	}

	key := ObjectKey(folder, fileHeader.Filename)
	img := UploadedImage{Key: key, URL: "https://cdn.arco.test/" + key}

	m.mu.Lock()
	m.Uploaded = append(m.Uploaded, img)
	m.mu.Unlock()

	return &img, nil
}

// DeleteImage records the deleted key
func (m *MockImageService) DeleteImage(ctx context.Context, key string) error {
	if m.Err != nil {
		return m.Err
	}
	if err := ValidateImageKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	m.Deleted = append(m.Deleted, key)
	m.mu.Unlock()
	return nil
}
