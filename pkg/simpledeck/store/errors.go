package store

import (
	"errors"
	"net/http"

	"github.com/tendant/simple-deck/pkg/simpledeck"
)

var (
	// ErrRecordNotFound indicates no document is stored under the id
	ErrRecordNotFound = errors.New("file not found")

	// ErrNoFile indicates an upload request without a file
	ErrNoFile = errors.New("no file uploaded")

	// ErrFileTooLarge indicates an upload above the configured size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnsupportedType indicates an upload whose extension is not allowed
	ErrUnsupportedType = errors.New("only PowerPoint files are allowed")

	// ErrDuplicateRecord indicates a record id collision
	ErrDuplicateRecord = errors.New("file already exists")
)

// MapHTTPStatus returns the HTTP status for a store error.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrRecordNotFound), errors.Is(err, simpledeck.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoFile), errors.Is(err, ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrDuplicateRecord):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
