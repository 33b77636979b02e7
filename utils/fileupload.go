package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxImageSize is 10MB in bytes
	MaxImageSize = 10 * 1024 * 1024
	// MaxVideoSize is 500MB in bytes
	MaxVideoSize = 500 * 1024 * 1024
)

// imageContentTypes maps allowed image extensions to their MIME type
var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// videoContentTypes maps allowed video extensions to their MIME type
var videoContentTypes = map[string]string{
	".mp4": "video/mp4",
	".mov": "video/quicktime",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateImageFile validates the uploaded image format and size
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	return validateFile(fileHeader, MaxImageSize, imageContentTypes, "png, jpg, jpeg, webp")
}

// ValidateVideoFile validates the uploaded video format and size
func ValidateVideoFile(fileHeader *multipart.FileHeader) error {
	return validateFile(fileHeader, MaxVideoSize, videoContentTypes, "mp4, mov")
}

// ImageContentType returns the MIME type for an allowed image filename
func ImageContentType(filename string) string {
	if ct, ok := imageContentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func validateFile(fileHeader *multipart.FileHeader, maxSize int64, allowed map[string]string, allowedList string) error {
	// Check file size
	if fileHeader.Size > maxSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", maxSize/(1024*1024)),
		}
	}

	if fileHeader.Size == 0 {
		return &FileUploadError{
			Code:    "EMPTY_FILE",
			Message: "Uploaded file is empty",
		}
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if _, ok := allowed[ext]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("Only %s files are allowed", allowedList),
		}
	}

	return nil
}
