package simpledeck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ErrSuperseded is returned to the caller of an asynchronous operation whose
// result was discarded because the session moved on while it was in flight.
var ErrSuperseded = errors.New("superseded by a newer session event")

// resource is the single transient resource a session may hold.
type resource struct {
	kind ResourceKind
	ref  string // blob key or frame URL
	doc  Document
}

// Session is the preview session manager. It owns the selected document and
// at most one transient resource, and is the only component that acquires or
// releases that resource.
//
// Every applied transition bumps the session generation. Asynchronous
// completions (direct fetches, viewer-loaded signals) carry the generation
// they were started under and are dropped when it no longer matches.
type Session struct {
	gateway Gateway
	blobs   BlobStore
	viewers Viewers
	opener  Opener
	hooks   *Hooks
	logger  *slog.Logger
	newKey  func(doc Document) string

	mu         sync.Mutex
	doc        *Document
	mode       Mode
	res        *resource
	err        error
	generation uint64
	cancel     context.CancelFunc

	// blob keys released under the lock, deleted by unlock
	garbage []string
}

// SessionOption configures a Session.
type SessionOption func(*Session) error

// WithViewers sets the viewer service bases.
func WithViewers(v Viewers) SessionOption {
	return func(s *Session) error {
		s.viewers = v
		return nil
	}
}

// WithOpener sets the opener used for external viewer services.
func WithOpener(o Opener) SessionOption {
	return func(s *Session) error {
		if o == nil {
			return errors.New("opener cannot be nil")
		}
		s.opener = o
		return nil
	}
}

// WithSessionHooks registers lifecycle hooks.
func WithSessionHooks(h *Hooks) SessionOption {
	return func(s *Session) error {
		s.hooks = h
		return nil
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) error {
		if l != nil {
			s.logger = l
		}
		return nil
	}
}

// WithBlobKeyFunc overrides how blob keys are derived for retrieved documents.
func WithBlobKeyFunc(fn func(doc Document) string) SessionOption {
	return func(s *Session) error {
		if fn == nil {
			return errors.New("blob key func cannot be nil")
		}
		s.newKey = fn
		return nil
	}
}

// NewSession creates a closed session that fetches through gateway and keeps
// retrieved documents in blobs.
func NewSession(gateway Gateway, blobs BlobStore, opts ...SessionOption) (*Session, error) {
	if gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}

	s := &Session{
		gateway: gateway,
		blobs:   blobs,
		viewers: DefaultViewers(),
		opener:  NewNoopOpener(),
		logger:  slog.Default(),
		newKey:  defaultBlobKey,
		mode:    ModeClosed,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func defaultBlobKey(doc Document) string {
	name := filepath.Base(doc.OriginalName)
	if name == "." || name == "/" || name == "" {
		name = "document"
	}
	return path.Join("previews", uuid.NewString(), name)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Mode:       s.mode,
		Err:        s.err,
		Generation: s.generation,
	}
	if s.doc != nil {
		d := *s.doc
		snap.Document = &d
	}
	if s.res != nil {
		snap.Resource = s.res.kind
		switch s.res.kind {
		case ResourceBlob:
			snap.BlobKey = s.res.ref
		case ResourceViewer:
			snap.FrameURL = s.res.ref
		}
	}
	return snap
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Select makes doc the current document and moves to ChoosingMethod. Any
// resource held for a previous selection is released first.
func (s *Session) Select(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return errors.New("document id is required")
	}

	s.mu.Lock()
	defer s.unlock(ctx)

	s.releaseLocked(ctx)
	d := doc
	s.doc = &d
	s.err = nil
	s.transitionLocked(ctx, EventSelect, ModeChoosingMethod)
	return nil
}

// ChooseDirectFetch retrieves the selected document's bytes and holds them as
// the session resource. It blocks until the fetch completes. Allowed from
// ChoosingMethod and, as a manual retry, from Failed.
//
// If the session is closed, reselected or sent back to options while the
// fetch is in flight, the fetch is cancelled, its result is discarded and
// ErrSuperseded is returned.
func (s *Session) ChooseDirectFetch(ctx context.Context) error {
	s.mu.Lock()
	if s.mode != ModeChoosingMethod && s.mode != ModeFailed {
		err := &TransitionError{From: s.mode, Event: EventChooseDirectFetch}
		s.mu.Unlock()
		return err
	}

	doc := *s.doc
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel
	s.err = nil
	s.transitionLocked(ctx, EventChooseDirectFetch, ModeLoadingBlob)
	ticket := Ticket{Generation: s.generation, DocumentID: doc.ID}
	s.mu.Unlock()

	s.logger.Debug("Fetching document for preview", "document_id", doc.ID, "generation", ticket.Generation)
	blob, err := s.gateway.Get(fetchCtx, doc.ID)

	return s.completeFetch(ctx, fetchCtx, ticket, blob, err)
}

// completeFetch stores a fetched blob and applies the result if ticket is
// still current. The blob store is written without the lock held; fetchCtx
// is cancelled when the fetch is superseded meanwhile.
func (s *Session) completeFetch(ctx, fetchCtx context.Context, ticket Ticket, blob *Blob, fetchErr error) error {
	s.mu.Lock()
	if !s.currentFetchLocked(ticket) {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if fetchErr == nil && blob == nil {
		fetchErr = Rejected(0, "empty response")
	}
	if fetchErr != nil {
		defer s.unlock(ctx)
		s.cancel = nil
		return s.failLocked(ctx, &Error{Kind: FetchDocumentFailed, DocumentID: ticket.DocumentID, Err: fetchErr})
	}
	doc := *s.doc
	s.mu.Unlock()

	key := s.newKey(doc)
	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	storeErr := s.blobs.UploadWithParams(fetchCtx, bytes.NewReader(blob.Data), UploadParams{ObjectKey: key, MimeType: contentType})

	s.mu.Lock()
	defer s.unlock(ctx)
	if !s.currentFetchLocked(ticket) {
		if storeErr == nil {
			s.garbage = append(s.garbage, key)
		}
		return ErrSuperseded
	}
	s.cancel = nil
	if storeErr != nil {
		wrapped := &StorageError{Key: key, Op: "upload", Err: storeErr}
		return s.failLocked(ctx, &Error{Kind: FetchDocumentFailed, DocumentID: doc.ID, Err: wrapped})
	}

	s.acquireLocked(ctx, &resource{kind: ResourceBlob, ref: key, doc: doc})
	s.transitionLocked(ctx, EventFetchSucceeded, ModeBlobReady)
	s.logger.Info("Preview ready", "document_id", doc.ID, "size", len(blob.Data))
	return nil
}

func (s *Session) currentFetchLocked(ticket Ticket) bool {
	if ticket.Generation == s.generation && s.mode == ModeLoadingBlob {
		return true
	}
	s.logger.Debug("Discarding stale fetch completion",
		"document_id", ticket.DocumentID,
		"ticket_generation", ticket.Generation,
		"generation", s.generation)
	return false
}

func (s *Session) failLocked(ctx context.Context, err *Error) error {
	s.err = err
	s.transitionLocked(ctx, EventFetchFailed, ModeFailed)
	s.logger.Warn("Failed to load preview", "document_id", err.DocumentID, "error", err.Err)
	s.hooks.executeError(ctx, "fetch_document", err)
	return err
}

// ChooseEmbeddedViewer builds the embedded viewer URL for the selected
// document and holds the frame reference as the session resource. The
// returned ticket must be passed back to ViewerLoaded.
func (s *Session) ChooseEmbeddedViewer(ctx context.Context) (*Frame, error) {
	s.mu.Lock()
	defer s.unlock(ctx)

	if s.mode != ModeChoosingMethod {
		return nil, &TransitionError{From: s.mode, Event: EventChooseEmbeddedViewer}
	}

	doc := *s.doc
	docURL, err := s.gateway.DownloadURL(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to build download URL: %w", err)
	}
	frameURL, err := s.viewers.EmbeddedURL(docURL)
	if err != nil {
		return nil, err
	}

	s.acquireLocked(ctx, &resource{kind: ResourceViewer, ref: frameURL, doc: doc})
	s.transitionLocked(ctx, EventChooseEmbeddedViewer, ModeLoadingEmbeddedViewer)
	return &Frame{
		URL:    frameURL,
		Ticket: Ticket{Generation: s.generation, DocumentID: doc.ID},
	}, nil
}

// ViewerLoaded records that the embedded frame for ticket finished loading.
// It reports whether the signal was applied; signals for a superseded frame
// are ignored.
func (s *Session) ViewerLoaded(ctx context.Context, ticket Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket.Generation != s.generation || s.mode != ModeLoadingEmbeddedViewer {
		s.logger.Debug("Ignoring stale viewer loaded signal",
			"document_id", ticket.DocumentID,
			"ticket_generation", ticket.Generation,
			"generation", s.generation)
		return false
	}
	s.transitionLocked(ctx, EventViewerLoaded, ModeEmbeddedViewerReady)
	return true
}

// BackToOptions releases the current resource, cancelling any in-flight
// fetch, and returns to ChoosingMethod. The document stays selected.
func (s *Session) BackToOptions(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock(ctx)

	switch s.mode {
	case ModeLoadingEmbeddedViewer, ModeEmbeddedViewerReady, ModeBlobReady, ModeLoadingBlob, ModeFailed:
	default:
		return &TransitionError{From: s.mode, Event: EventBackToOptions}
	}

	s.releaseLocked(ctx)
	s.err = nil
	s.transitionLocked(ctx, EventBackToOptions, ModeChoosingMethod)
	return nil
}

// ChooseExternalService opens the selected document in an external viewer
// service through the session's Opener. The session state does not change.
// It returns the viewer URL that was opened.
func (s *Session) ChooseExternalService(ctx context.Context, kind ViewerKind) (string, error) {
	s.mu.Lock()
	if s.mode != ModeChoosingMethod {
		err := &TransitionError{From: s.mode, Event: EventChooseExternalService}
		s.mu.Unlock()
		return "", err
	}
	docID := s.doc.ID
	s.mu.Unlock()

	docURL, err := s.gateway.DownloadURL(docID)
	if err != nil {
		return "", fmt.Errorf("failed to build download URL: %w", err)
	}
	viewerURL, err := s.viewers.ExternalURL(kind, docURL)
	if err != nil {
		return "", err
	}
	if err := s.opener.Open(ctx, viewerURL); err != nil {
		return "", fmt.Errorf("failed to open %s viewer: %w", kind, err)
	}
	s.logger.Info("Opened external viewer", "document_id", docID, "viewer", kind)
	return viewerURL, nil
}

// Close releases the resource, clears the document and moves to Closed.
// Closing an already closed session does nothing.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock(ctx)

	if s.mode == ModeClosed {
		return nil
	}
	s.closeLocked(ctx)
	return nil
}

// CloseIfCurrent closes the session when id is the selected document and
// reports whether it did.
func (s *Session) CloseIfCurrent(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.unlock(ctx)

	if s.mode == ModeClosed || s.doc == nil || s.doc.ID != id {
		return false
	}
	s.closeLocked(ctx)
	return true
}

func (s *Session) closeLocked(ctx context.Context) {
	s.releaseLocked(ctx)
	s.doc = nil
	s.err = nil
	s.transitionLocked(ctx, EventClose, ModeClosed)
}

// SaveBlob writes the retrieved document to w and returns the document's
// original name, for "download to view". Only valid in BlobReady. The blob
// is read without the lock held, so a concurrent Close makes it fail.
func (s *Session) SaveBlob(ctx context.Context, w io.Writer) (string, error) {
	s.mu.Lock()
	if s.mode != ModeBlobReady || s.res == nil || s.res.kind != ResourceBlob {
		mode := s.mode
		s.mu.Unlock()
		return "", fmt.Errorf("%w: no retrieved document to save in mode %s", ErrInvalidTransition, mode)
	}
	key, name := s.res.ref, s.res.doc.OriginalName
	s.mu.Unlock()

	rc, err := s.blobs.Download(ctx, key)
	if err != nil {
		return "", &StorageError{Key: key, Op: "download", Err: err}
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	return name, nil
}

// BlobPath returns the local path of the retrieved document when the blob
// store keeps objects on disk.
func (s *Session) BlobPath() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeBlobReady || s.res == nil || s.res.kind != ResourceBlob {
		return "", fmt.Errorf("%w: no retrieved document in mode %s", ErrInvalidTransition, s.mode)
	}
	locator, ok := s.blobs.(Locator)
	if !ok {
		return "", errors.New("blob store does not keep documents on disk")
	}
	return locator.Locate(s.res.ref)
}

// acquireLocked takes ownership of r. Any previous resource must already be
// released.
func (s *Session) acquireLocked(ctx context.Context, r *resource) {
	if s.res != nil {
		s.releaseLocked(ctx)
	}
	s.res = r
	s.hooks.executeAcquire(ctx, r.kind, r.ref, r.doc)
}

// releaseLocked cancels any in-flight fetch and releases the held resource
// exactly once. A released blob is queued and deleted by unlock.
func (s *Session) releaseLocked(ctx context.Context) {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.res == nil {
		return
	}

	r := s.res
	s.res = nil
	if r.kind == ResourceBlob {
		s.garbage = append(s.garbage, r.ref)
	}
	s.hooks.executeRelease(ctx, r.kind, r.ref, r.doc)
}

// unlock releases the lock, then deletes released blobs. Deletion failures
// are logged; the reference is already dropped.
func (s *Session) unlock(ctx context.Context) {
	keys := s.garbage
	s.garbage = nil
	s.mu.Unlock()

	for _, key := range keys {
		err := s.blobs.Delete(context.WithoutCancel(ctx), key)
		if err == nil || errors.Is(err, ErrObjectNotFound) {
			continue
		}
		s.logger.Warn("Failed to release preview blob", "key", key, "error", err)
		s.hooks.executeError(ctx, "release_blob", &StorageError{Key: key, Op: "delete", Err: err})
	}
}

func (s *Session) transitionLocked(ctx context.Context, event Event, to Mode) {
	from := s.mode
	s.mode = to
	s.generation++

	var doc *Document
	if s.doc != nil {
		d := *s.doc
		doc = &d
	}
	s.logger.Debug("Session transition", "event", event, "from", from, "to", to, "generation", s.generation)
	s.hooks.executeTransition(ctx, Transition{
		From:       from,
		To:         to,
		Event:      event,
		Document:   doc,
		Generation: s.generation,
	})
}
