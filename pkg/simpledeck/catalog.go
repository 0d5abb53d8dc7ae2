package simpledeck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Catalog holds the list of known documents. The list is only ever replaced
// as a whole by a successful fetch; a failed fetch keeps the previous list
// and records the failure.
type Catalog struct {
	gateway   Gateway
	session   *Session
	confirmer Confirmer
	hooks     *Hooks
	logger    *slog.Logger

	mu       sync.RWMutex
	docs     []Document
	err      error
	inflight int
	issued   uint64
	applied  uint64
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog) error

// WithSession links the preview session so deleting the previewed document
// closes it.
func WithSession(s *Session) CatalogOption {
	return func(c *Catalog) error {
		c.session = s
		return nil
	}
}

// WithConfirmer sets the collaborator asked before every delete.
func WithConfirmer(confirmer Confirmer) CatalogOption {
	return func(c *Catalog) error {
		c.confirmer = confirmer
		return nil
	}
}

// WithCatalogHooks registers lifecycle hooks.
func WithCatalogHooks(h *Hooks) CatalogOption {
	return func(c *Catalog) error {
		c.hooks = h
		return nil
	}
}

// WithCatalogLogger sets the logger.
func WithCatalogLogger(l *slog.Logger) CatalogOption {
	return func(c *Catalog) error {
		if l != nil {
			c.logger = l
		}
		return nil
	}
}

// NewCatalog creates an empty catalog backed by gateway.
func NewCatalog(gateway Gateway, opts ...CatalogOption) (*Catalog, error) {
	if gateway == nil {
		return nil, errors.New("gateway is required")
	}
	c := &Catalog{
		gateway: gateway,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Documents returns a copy of the current list.
func (c *Catalog) Documents() []Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Document, len(c.docs))
	copy(out, c.docs)
	return out
}

// Lookup finds a document by id in the current list.
func (c *Catalog) Lookup(id string) (Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, d := range c.docs {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}

// Err returns the failure of the most recent fetch, or nil if it succeeded.
func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Loading reports whether a refresh is in flight.
func (c *Catalog) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight > 0
}

// DownloadURL returns the absolute download link of a document.
func (c *Catalog) DownloadURL(id string) (string, error) {
	return c.gateway.DownloadURL(id)
}

// Refresh fetches the full list. On success the list is replaced and the
// stored error cleared; on failure the previous list is kept and the error
// recorded. When refreshes overlap, a result older than one already applied
// is dropped.
func (c *Catalog) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.inflight++
	c.mu.Unlock()

	docs, err := c.gateway.List(ctx)
	if err == nil {
		err = checkUnique(docs)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--

	if seq < c.applied {
		c.logger.Debug("Discarding out-of-order catalog refresh", "seq", seq, "applied", c.applied)
		if err != nil {
			return &Error{Kind: FetchListFailed, Err: err}
		}
		return nil
	}
	c.applied = seq

	if err != nil {
		opErr := &Error{Kind: FetchListFailed, Err: err}
		c.err = opErr
		c.logger.Warn("Failed to load files", "error", err)
		c.hooks.executeError(ctx, "refresh", opErr)
		return opErr
	}

	next := make([]Document, len(docs))
	copy(next, docs)
	c.docs = next
	c.err = nil
	c.logger.Debug("Catalog refreshed", "count", len(next))
	c.hooks.executeCatalogReplaced(ctx, c.copyLocked())
	return nil
}

func (c *Catalog) copyLocked() []Document {
	out := make([]Document, len(c.docs))
	copy(out, c.docs)
	return out
}

func checkUnique(docs []Document) error {
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if _, dup := seen[d.ID]; dup {
			return Rejected(0, fmt.Sprintf("duplicate document id %q in list", d.ID))
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}

// RequestDelete asks for confirmation and deletes the document. It reports
// whether the document was deleted. A declined prompt is a no-op.
//
// After a successful delete, a session previewing the document is closed
// before the catalog refreshes, so the session never references a document
// missing from the list. A refresh failure after a successful delete is
// returned with deleted set to true.
func (c *Catalog) RequestDelete(ctx context.Context, id string) (bool, error) {
	if c.confirmer == nil {
		return false, errors.New("no confirmer configured")
	}

	name := id
	if d, ok := c.Lookup(id); ok {
		name = d.OriginalName
	}
	ok, err := c.confirmer.Confirm(ctx, fmt.Sprintf("Are you sure you want to delete %s?", name))
	if err != nil {
		return false, fmt.Errorf("failed to confirm delete: %w", err)
	}
	if !ok {
		c.logger.Debug("Delete declined", "document_id", id)
		return false, nil
	}

	if err := c.gateway.Delete(ctx, id); err != nil {
		opErr := &Error{Kind: DeleteFailed, DocumentID: id, Err: err}
		c.logger.Warn("Failed to delete", "document_id", id, "error", err)
		c.hooks.executeError(ctx, "delete", opErr)
		return false, opErr
	}
	c.logger.Info("Document deleted", "document_id", id)

	if c.session != nil && c.session.CloseIfCurrent(ctx, id) {
		c.logger.Debug("Closed preview of deleted document", "document_id", id)
	}

	return true, c.Refresh(ctx)
}

// Upload sends a file to the service and refreshes the catalog on success.
// A refresh failure after a successful upload is returned with the result.
func (c *Catalog) Upload(ctx context.Context, fileName string, reader io.Reader) (*UploadResult, error) {
	res, err := c.gateway.Upload(ctx, fileName, reader)
	if err != nil {
		opErr := &Error{Kind: UploadFailed, Err: err}
		c.logger.Warn("Upload failed", "file_name", fileName, "error", err)
		c.hooks.executeError(ctx, "upload", opErr)
		return nil, opErr
	}
	c.logger.Info("Document uploaded", "file_name", fileName, "message", res.Message)
	return res, c.Refresh(ctx)
}
