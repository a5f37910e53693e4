package shared

import (
	"context"
	"time"
)

// ObjectStorage is the port to the blob store holding product images and
// vendor branding assets. Uploads go straight from the client to storage via
// presigned URLs; the backend only verifies the object afterwards and records
// its key.
type ObjectStorage interface {
	// GenerateUploadURL returns a presigned URL a client can PUT the object
	// to, together with the URL's expiry.
	GenerateUploadURL(ctx context.Context, objectKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL returns a presigned URL for reading the object.
	GenerateDownloadURL(ctx context.Context, objectKey string, expiresIn time.Duration) (string, time.Time, error)

	// ObjectExists reports whether the object has actually been uploaded.
	ObjectExists(ctx context.Context, objectKey string) (bool, error)

	// DeleteObject removes the object. Deleting a missing object is not an
	// error.
	DeleteObject(ctx context.Context, objectKey string) error
}
