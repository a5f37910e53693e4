package storage

import (
	"context"
	"errors"
	"time"

	"github.com/markethub/backend/internal/domain/shared"
)

var _ shared.ObjectStorage = (*StubObjectStorage)(nil)

// StubObjectStorage fakes the blob store for development and tests. URLs it
// hands out point nowhere; ObjectExists always says yes so the image
// confirmation flow can complete without a real bucket.
type StubObjectStorage struct {
	// BaseURL prefixes all generated URLs
	BaseURL string
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		BaseURL: "https://storage.example.com",
	}
}

// GenerateUploadURL returns a fake presigned upload URL
func (s *StubObjectStorage) GenerateUploadURL(
	ctx context.Context,
	objectKey, contentType string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if objectKey == "" {
		return "", time.Time{}, errors.New("object key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/upload/" + objectKey + "?expires=" + expiresAt.Format(time.RFC3339)

	return url, expiresAt, nil
}

// GenerateDownloadURL returns a fake presigned download URL
func (s *StubObjectStorage) GenerateDownloadURL(
	ctx context.Context,
	objectKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if objectKey == "" {
		return "", time.Time{}, errors.New("object key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + objectKey + "?expires=" + expiresAt.Format(time.RFC3339)

	return url, expiresAt, nil
}

// DeleteObject is a no-op that always succeeds
func (s *StubObjectStorage) DeleteObject(ctx context.Context, objectKey string) error {
	if objectKey == "" {
		return errors.New("object key is required")
	}
	return nil
}

// ObjectExists always reports true so confirmation succeeds in dev
func (s *StubObjectStorage) ObjectExists(ctx context.Context, objectKey string) (bool, error) {
	if objectKey == "" {
		return false, errors.New("object key is required")
	}
	return true, nil
}
