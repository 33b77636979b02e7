package services

import (
	"context"
	"mime/multipart"

	"github.com/arco-atelier/arco-api/utils"
)

// MockVideoService returns canned videos for controller tests
type MockVideoService struct {
	Video *Video
	Err   error
}

func (m *MockVideoService) Upload(ctx context.Context, fileHeader *multipart.FileHeader) (*Video, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if err := utils.ValidateVideoFile(fileHeader); err != nil {
		return nil, err
	}
	return m.Video, nil
}

func (m *MockVideoService) Status(ctx context.Context, id string) (*Video, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	v := *m.Video
	v.ID = id
	return &v, nil
}
