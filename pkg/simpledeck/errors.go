package simpledeck

import (
	"errors"
	"fmt"
)

// Gateway failure classes. Every Gateway error matches exactly one of these
// through errors.Is.
var (
	// ErrNetworkUnavailable indicates the remote service could not be reached
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrNotFound indicates the remote service has no such document
	ErrNotFound = errors.New("document not found")

	// ErrServerRejected indicates the remote service refused the request or
	// answered with a malformed response
	ErrServerRejected = errors.New("server rejected request")
)

// Session and catalog errors.
var (
	// ErrInvalidTransition indicates an event that is not allowed in the current mode
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrNoDocument indicates an operation that needs a selected document
	ErrNoDocument = errors.New("no document selected")

	// ErrObjectNotFound indicates a blob store has no object under the key
	ErrObjectNotFound = errors.New("object not found")

	// ErrUnknownViewer indicates an external viewer kind that is not configured
	ErrUnknownViewer = errors.New("unknown viewer kind")
)

// RejectedError carries the reason given by the remote service.
type RejectedError struct {
	Status int
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("server rejected request: %s", e.Reason)
	}
	return fmt.Sprintf("server rejected request (status %d): %s", e.Status, e.Reason)
}

// Is makes a RejectedError match ErrServerRejected.
func (e *RejectedError) Is(target error) bool {
	return target == ErrServerRejected
}

// Rejected builds a RejectedError with the given status and reason.
func Rejected(status int, reason string) error {
	return &RejectedError{Status: status, Reason: reason}
}

// Kind classifies a user-facing failure.
type Kind string

// Failure kinds.
const (
	FetchListFailed     Kind = "FetchListFailed"
	FetchDocumentFailed Kind = "FetchDocumentFailed"
	DeleteFailed        Kind = "DeleteFailed"
	UploadFailed        Kind = "UploadFailed"
)

var genericReasons = map[Kind]string{
	FetchListFailed:     "Failed to fetch files",
	FetchDocumentFailed: "Failed to fetch file",
	DeleteFailed:        "Failed to delete file",
	UploadFailed:        "Upload failed",
}

// Error represents a failed catalog or session operation.
type Error struct {
	Kind       Kind
	DocumentID string
	Err        error
}

func (e *Error) Error() string {
	if e.DocumentID == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason())
	}
	return fmt.Sprintf("%s for document %s: %s", e.Kind, e.DocumentID, e.Reason())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Reason returns the human-readable cause: the server's reason verbatim when
// one was given, otherwise a generic message for the kind.
func (e *Error) Reason() string {
	var rejected *RejectedError
	if errors.As(e.Err, &rejected) && rejected.Reason != "" {
		return rejected.Reason
	}
	if errors.Is(e.Err, ErrNotFound) {
		return ErrNotFound.Error()
	}
	if errors.Is(e.Err, ErrNetworkUnavailable) {
		return ErrNetworkUnavailable.Error()
	}
	return genericReasons[e.Kind]
}

// TransitionError reports an event that the session refused.
type TransitionError struct {
	From  Mode
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid session transition: %s not allowed in mode %s", e.Event, e.From)
}

// Is makes a TransitionError match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ReasonOf extracts a displayable reason from any error returned by this
// package, falling back to err.Error().
func ReasonOf(err error) string {
	if err == nil {
		return ""
	}
	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr.Reason()
	}
	var rejected *RejectedError
	if errors.As(err, &rejected) && rejected.Reason != "" {
		return rejected.Reason
	}
	return err.Error()
}
