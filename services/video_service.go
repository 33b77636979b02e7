package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/arco-atelier/arco-api/config"
	"github.com/arco-atelier/arco-api/utils"
	"go.uber.org/zap"
)

// VideoStatusReady is reported once the stream can be played
const VideoStatusReady = "ready"

// Video is the encoding state of an uploaded video
type Video struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	HLSURL       string `json:"hls_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Ready reports whether the HLS stream is available
func (v Video) Ready() bool {
	return v.Status == VideoStatusReady && v.HLSURL != ""
}

// VideoService uploads photoshoot videos to the encoding service
type VideoService interface {
	Upload(ctx context.Context, fileHeader *multipart.FileHeader) (*Video, error)
	Status(ctx context.Context, id string) (*Video, error)
}

// HTTPVideoService talks to the external video API
type HTTPVideoService struct {
	baseURL      string
	token        string
	client       *http.Client // status polling
	uploadClient *http.Client // large multipart uploads
	log          *zap.Logger
}

// NewVideoService creates a client for VIDEO_API_URL
func NewVideoService(cfg *config.Config, log *zap.Logger) *HTTPVideoService {
	return &HTTPVideoService{
		baseURL:      cfg.VideoAPIURL,
		token:        cfg.VideoAPIToken,
		client:       &http.Client{Timeout: 10 * time.Second},
		uploadClient: &http.Client{Timeout: 10 * time.Minute},
		log:          log,
	}
}

// Upload streams the file to the video API as multipart form field "file"
func (s *HTTPVideoService) Upload(ctx context.Context, fileHeader *multipart.FileHeader) (*Video, error) {
	if s.baseURL == "" {
		return nil, ErrVideoNotConfigured
	}
	if err := utils.ValidateVideoFile(fileHeader); err != nil {
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("file", fileHeader.Filename)
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/videos", pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	video, err := s.do(s.uploadClient, req)
	if err != nil {
		return nil, err
	}

	s.log.Info("Video uploaded", zap.String("video_id", video.ID), zap.String("status", video.Status))
	return video, nil
}

// Status fetches the encoding state of a video
func (s *HTTPVideoService) Status(ctx context.Context, id string) (*Video, error) {
	if s.baseURL == "" {
		return nil, ErrVideoNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/videos/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return s.do(s.client, req)
}

func (s *HTTPVideoService) do(client *http.Client, req *http.Request) (*Video, error) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call video service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &GatewayError{StatusCode: resp.StatusCode, Code: "VIDEO_SERVICE_ERROR", Message: string(body)}
	}

	var video Video
	if err := json.NewDecoder(resp.Body).Decode(&video); err != nil {
		return nil, fmt.Errorf("failed to decode video response: %w", err)
	}
	return &video, nil
}
