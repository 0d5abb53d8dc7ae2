package gateway

import (
	"log/slog"
	"net/http"
	"time"
)

// Option is a functional option for configuring a Client
type Option func(*Client)

// ProgressFunc is called during upload to report progress.
// It receives the number of bytes uploaded so far.
type ProgressFunc func(bytesUploaded int64)

// WithHTTPClient sets a custom HTTP client. Its timeout applies unless a
// later WithTimeout overrides it.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
			c.timeout = client.Timeout
		}
	}
}

// WithTimeout sets the request timeout. A client given through
// WithHTTPClient is copied, not modified.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithProgress sets an upload progress callback
func WithProgress(fn ProgressFunc) Option {
	return func(c *Client) {
		c.progressFunc = fn
	}
}

// WithUploadField sets the multipart field that carries the uploaded file.
// Default is "pptFile".
func WithUploadField(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.uploadField = name
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
