package simpledeck

import (
	"time"
)

// Document is the descriptor of one stored document as known to the catalog.
type Document struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	SizeBytes    int64     `json:"size_bytes"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// UploadResult is returned by a successful upload.
type UploadResult struct {
	Message string `json:"message"`

	// Document is the stored descriptor when the service reports it.
	Document *Document `json:"document,omitempty"`
}

// Blob holds the bytes of a document retrieved for direct preview.
type Blob struct {
	Data        []byte
	ContentType string
	FileName    string
}

// ObjectMeta contains metadata about a blob held in a BlobStore.
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	Metadata    map[string]string
}

// UploadParams contains parameters for storing a blob.
type UploadParams struct {
	ObjectKey string
	MimeType  string
}

// Mode is the preview session state.
type Mode string

// Session modes.
const (
	ModeClosed                Mode = "closed"
	ModeChoosingMethod        Mode = "choosing_method"
	ModeLoadingBlob           Mode = "loading_blob"
	ModeBlobReady             Mode = "blob_ready"
	ModeLoadingEmbeddedViewer Mode = "loading_embedded_viewer"
	ModeEmbeddedViewerReady   Mode = "embedded_viewer_ready"
	ModeFailed                Mode = "failed"
)

// HoldsResource reports whether a session in this mode owns a transient resource.
func (m Mode) HoldsResource() bool {
	switch m {
	case ModeBlobReady, ModeLoadingEmbeddedViewer, ModeEmbeddedViewerReady:
		return true
	default:
		return false
	}
}

// Event names a session transition trigger.
type Event string

// Session events.
const (
	EventSelect                Event = "select"
	EventChooseDirectFetch     Event = "choose_direct_fetch"
	EventFetchSucceeded        Event = "fetch_succeeded"
	EventFetchFailed           Event = "fetch_failed"
	EventChooseEmbeddedViewer  Event = "choose_embedded_viewer"
	EventViewerLoaded          Event = "viewer_loaded"
	EventBackToOptions         Event = "back_to_options"
	EventChooseExternalService Event = "choose_external_service"
	EventClose                 Event = "close"
)

// ResourceKind identifies what a session's transient resource holds.
type ResourceKind string

// Resource kinds.
const (
	ResourceBlob   ResourceKind = "blob"
	ResourceViewer ResourceKind = "viewer"
)

// Ticket identifies the session generation an asynchronous completion belongs
// to. Completions carrying a stale ticket are discarded.
type Ticket struct {
	Generation uint64
	DocumentID string
}

// Frame is the embedded-viewer reference handed to the presentation layer.
type Frame struct {
	URL    string
	Ticket Ticket
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	Document   *Document
	Mode       Mode
	Resource   ResourceKind // empty when no resource is held
	FrameURL   string       // set while a viewer frame is held
	BlobKey    string       // set while a blob is held
	Err        error        // set in ModeFailed
	Generation uint64
}
