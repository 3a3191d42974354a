package backend

import (
	"context"
	"fmt"

	"github.com/petermazzocco/snapgram/models"
)

func (s *Service) UploadFile(ctx context.Context, file FileUpload) (*models.StoredFile, error) {
	stored, err := s.files.Upload(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("upload file %s: %w: %w", file.Name, ErrBackend, err)
	}
	return stored, nil
}

// GetFilePreview derives the preview URL of fileID with the service's
// crop settings.
func (s *Service) GetFilePreview(ctx context.Context, fileID string) (string, error) {
	if fileID == "" {
		return "", fmt.Errorf("file preview: %w", ErrInvalidInput)
	}
	url, err := s.files.PreviewURL(ctx, fileID, s.preview)
	if err != nil {
		return "", fmt.Errorf("file preview %s: %w: %w", fileID, ErrBackend, err)
	}
	return url, nil
}

func (s *Service) DeleteFile(ctx context.Context, fileID string) error {
	if fileID == "" {
		return fmt.Errorf("delete file: %w", ErrInvalidInput)
	}
	if err := s.files.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("delete file %s: %w: %w", fileID, ErrBackend, err)
	}
	return nil
}
