package simpledeck

import (
	"fmt"
	"net/url"
)

// ViewerKind names an external viewer service.
type ViewerKind string

// Viewer kinds.
const (
	ViewerEmbedded ViewerKind = "embedded"
	ViewerOffice   ViewerKind = "office"
	ViewerGoogle   ViewerKind = "google"
)

// Default viewer service bases.
const (
	DefaultEmbeddedViewerBase = "https://view.officeapps.live.com/op/embed.aspx"
	DefaultOfficeViewerBase   = "https://view.officeapps.live.com/op/view.aspx"
	DefaultGoogleViewerBase   = "https://docs.google.com/gview"
)

// Viewers holds the base URLs of the viewer services.
type Viewers struct {
	// Embedded is loaded inside the session's isolated frame
	Embedded string

	// External services open in an independent viewing context
	External map[ViewerKind]string
}

// DefaultViewers returns the Office Online embed viewer plus the Office Online
// and Google Docs external viewers.
func DefaultViewers() Viewers {
	return Viewers{
		Embedded: DefaultEmbeddedViewerBase,
		External: map[ViewerKind]string{
			ViewerOffice: DefaultOfficeViewerBase,
			ViewerGoogle: DefaultGoogleViewerBase,
		},
	}
}

// ExternalURL builds the URL of the external viewer kind for documentURL.
func (v Viewers) ExternalURL(kind ViewerKind, documentURL string) (string, error) {
	base, ok := v.External[kind]
	if !ok || base == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownViewer, kind)
	}
	return BuildViewerURL(base, documentURL)
}

// EmbeddedURL builds the embedded viewer URL for documentURL.
func (v Viewers) EmbeddedURL(documentURL string) (string, error) {
	if v.Embedded == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownViewer, ViewerEmbedded)
	}
	return BuildViewerURL(v.Embedded, documentURL)
}

// BuildViewerURL returns base?src=<url-encoded documentURL>. Query parameters
// already present on base are kept. documentURL must be absolute, since the
// viewer service fetches it from outside.
func BuildViewerURL(base, documentURL string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid viewer base %q: %w", base, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("viewer base must be absolute: %q", base)
	}

	doc, err := url.Parse(documentURL)
	if err != nil {
		return "", fmt.Errorf("invalid document URL %q: %w", documentURL, err)
	}
	if !doc.IsAbs() || doc.Host == "" {
		return "", fmt.Errorf("document URL must be absolute: %q", documentURL)
	}

	q := u.Query()
	q.Set("src", doc.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}
