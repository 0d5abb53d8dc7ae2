package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/tendant/simple-deck/pkg/simpledeck"
)

// DefaultBaseURL is the document service address used when none is configured.
const DefaultBaseURL = "http://localhost:5000/api"

const defaultUploadField = "pptFile"

// Client talks to the document service over HTTP. It implements
// simpledeck.Gateway and performs no retries.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	progressFunc ProgressFunc
	uploadField  string
	timeout      time.Duration
	logger       *slog.Logger
}

var _ simpledeck.Gateway = (*Client)(nil)

// New creates a client for the service rooted at baseURL, for example
// "http://localhost:5000/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: must be absolute", baseURL)
	}

	c := &Client{
		baseURL:     u,
		httpClient:  &http.Client{},
		uploadField: defaultUploadField,
		timeout:     5 * time.Minute,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != c.httpClient.Timeout {
		// Never modify a client supplied through WithHTTPClient
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// endpoint appends escaped segments to the base path. Unlike url.JoinPath
// the result is not cleaned, so ids such as ".." stay inside their route.
func (c *Client) endpoint(segments ...string) *url.URL {
	u := *c.baseURL
	raw := strings.TrimRight(u.EscapedPath(), "/")
	for _, seg := range segments {
		raw += "/" + escapeSegment(seg)
	}
	p, err := url.PathUnescape(raw)
	if err != nil {
		p = raw
	}
	u.Path = p
	u.RawPath = raw
	return &u
}

// escapeSegment escapes one path segment. Dot segments are percent-encoded
// so they are never resolved against the parent path.
func escapeSegment(seg string) string {
	if seg == "." || seg == ".." {
		return strings.Repeat("%2E", len(seg))
	}
	return url.PathEscape(seg)
}

// do sends req and classifies the outcome. A 2xx response is returned with
// its body open; every other outcome becomes a gateway error class.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Request failed", "method", req.Method, "url", req.URL.String(), "error", err)
		return nil, fmt.Errorf("%w: %s %s: %w", simpledeck.ErrNetworkUnavailable, req.Method, req.URL.Path, err)
	}
	c.logger.Debug("Request completed", "method", req.Method, "url", req.URL.String(),
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", simpledeck.ErrNotFound, req.Method, req.URL.Path)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		// A proxy answered for a service it could not reach.
		return nil, fmt.Errorf("%w: %s %s: %s", simpledeck.ErrNetworkUnavailable, req.Method, req.URL.Path, resp.Status)
	}
	return nil, simpledeck.Rejected(resp.StatusCode, readReason(resp))
}

// List returns every stored document in service order.
func (c *Client) List(ctx context.Context) ([]simpledeck.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("files").String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var records []fileRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, simpledeck.Rejected(resp.StatusCode, fmt.Sprintf("malformed file list: %v", err))
	}

	docs := make([]simpledeck.Document, 0, len(records))
	for i, r := range records {
		d, err := r.toDocument(i)
		if err != nil {
			return nil, simpledeck.Rejected(resp.StatusCode, fmt.Sprintf("malformed file list: %v", err))
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Get retrieves the full content of a document for direct preview.
func (c *Client) Get(ctx context.Context, id string) (*simpledeck.Blob, error) {
	body, name, contentType, err := c.open(ctx, id, c.endpoint("files", id))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", simpledeck.ErrNetworkUnavailable, ctx.Err())
		}
		return nil, fmt.Errorf("%w: failed to read document %s: %w", simpledeck.ErrNetworkUnavailable, id, err)
	}

	return &simpledeck.Blob{
		Data:        data,
		ContentType: contentType,
		FileName:    name,
	}, nil
}

// Download streams a document. The caller must close the returned reader.
func (c *Client) Download(ctx context.Context, id string) (io.ReadCloser, string, error) {
	body, name, _, err := c.open(ctx, id, c.downloadEndpoint(id))
	if err != nil {
		return nil, "", err
	}
	return body, name, nil
}

func (c *Client) open(ctx context.Context, id string, u *url.URL) (io.ReadCloser, string, string, error) {
	if id == "" {
		return nil, "", "", simpledeck.ErrNoDocument
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, "", "", err
	}
	return resp.Body, fileNameFrom(resp.Header), resp.Header.Get("Content-Type"), nil
}

// Delete removes a document.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return simpledeck.ErrNoDocument
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("files", id).String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// DownloadURL returns the absolute download URL of a document.
func (c *Client) DownloadURL(id string) (string, error) {
	if id == "" {
		return "", simpledeck.ErrNoDocument
	}
	return c.downloadEndpoint(id).String(), nil
}

func (c *Client) downloadEndpoint(id string) *url.URL {
	return c.endpoint("download", id)
}

// Upload sends one file as a multipart form. The body is streamed, so the
// reader is consumed while the request is in flight.
func (c *Client) Upload(ctx context.Context, fileName string, reader io.Reader) (*simpledeck.UploadResult, error) {
	if reader == nil {
		return nil, errors.New("reader is required")
	}
	if fileName == "" {
		return nil, errors.New("file name is required")
	}

	if c.progressFunc != nil {
		reader = &progressReader{
			reader:   reader,
			callback: c.progressFunc,
		}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreatePart(filePartHeader(c.uploadField, fileName))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, reader); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()
	// Unblocks the writer if the request ends before the body is drained.
	defer pr.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload").String(), pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read upload response: %w", simpledeck.ErrNetworkUnavailable, err)
	}

	var body uploadResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, simpledeck.Rejected(resp.StatusCode, fmt.Sprintf("malformed upload response: %v", err))
	}
	if body.Error != "" {
		return nil, simpledeck.Rejected(resp.StatusCode, body.Error)
	}
	if body.Message == nil {
		return nil, simpledeck.Rejected(resp.StatusCode, "malformed upload response: missing message")
	}

	result := &simpledeck.UploadResult{Message: *body.Message}
	if body.File != nil {
		d, err := body.File.toDocument(0)
		if err != nil {
			return nil, simpledeck.Rejected(resp.StatusCode, fmt.Sprintf("malformed upload response: %v", err))
		}
		result.Document = &d
	}
	return result, nil
}

func filePartHeader(field, fileName string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     field,
		"filename": filepath.Base(fileName),
	}))
	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}

// fileNameFrom reads the suggested file name from Content-Disposition.
func fileNameFrom(h http.Header) string {
	cd := h.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}

// progressReader wraps an io.Reader to track upload progress
type progressReader struct {
	reader    io.Reader
	bytesRead int64
	callback  ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.bytesRead += int64(n)
	if pr.callback != nil && n > 0 {
		pr.callback(pr.bytesRead)
	}
	return n, err
}
