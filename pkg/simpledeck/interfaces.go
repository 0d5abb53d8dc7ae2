package simpledeck

import (
	"context"
	"io"
)

// Gateway is the transfer adapter to the remote document service. It performs
// no retries; every call either returns a payload or an error matching
// ErrNetworkUnavailable, ErrNotFound or ErrServerRejected.
type Gateway interface {
	// List returns every stored document in service order
	List(ctx context.Context) ([]Document, error)

	// Get retrieves the raw bytes of a document for direct preview
	Get(ctx context.Context, id string) (*Blob, error)

	// Delete removes a document
	Delete(ctx context.Context, id string) error

	// DownloadURL returns the absolute download URL of a document
	DownloadURL(id string) (string, error)

	// Download streams a document for saving. The returned name is the
	// file name suggested by the service, if any.
	Download(ctx context.Context, id string) (io.ReadCloser, string, error)

	// Upload sends a single file to the service
	Upload(ctx context.Context, fileName string, reader io.Reader) (*UploadResult, error)
}

// BlobStore defines the interface for blob storage backends. The session uses
// one to hold retrieved documents; the reference store uses one to persist
// uploads.
type BlobStore interface {
	// Upload uploads content directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// Locator is implemented by blob stores that keep objects at a local path
// which separate software can open.
type Locator interface {
	Locate(objectKey string) (string, error)
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Opener opens a URL in a viewing context independent of the session, such
// as a new browser tab.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// OpenFunc adapts a function to the Opener interface.
type OpenFunc func(ctx context.Context, url string) error

// Open calls f.
func (f OpenFunc) Open(ctx context.Context, url string) error {
	return f(ctx, url)
}
