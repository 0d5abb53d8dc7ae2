// Package store implements the document service that simpledeck clients talk
// to: uploaded presentations are recorded in a Repository and their bytes kept
// in a simpledeck.BlobStore.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"

	"github.com/tendant/simple-deck/pkg/simpledeck"
)

// DefaultMaxUploadSize is the upload limit used when none is configured.
const DefaultMaxUploadSize = 50 * units.MiB

// Record is the stored form of an uploaded document.
type Record struct {
	ID           string    `json:"_id"`
	OriginalName string    `json:"originalname"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mimetype,omitempty"`
	ObjectKey    string    `json:"-"`
	UploadedAt   time.Time `json:"uploadDate"`
}

// Document converts the record to the client-side document type.
func (r Record) Document() simpledeck.Document {
	return simpledeck.Document{
		ID:           r.ID,
		OriginalName: r.OriginalName,
		SizeBytes:    r.Size,
		UploadedAt:   r.UploadedAt,
	}
}

// Repository persists document records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// List returns records newest first.
	List(ctx context.Context) ([]*Record, error)
	Delete(ctx context.Context, id string) error
}

// UploadRequest describes one uploaded file.
type UploadRequest struct {
	FileName string
	MimeType string
	Reader   io.Reader
	// Size is the declared size in bytes, or a negative value when unknown.
	Size int64
}

// Service stores and serves uploaded presentations.
type Service struct {
	repo          Repository
	blobs         simpledeck.BlobStore
	maxUploadSize int64
	allowedExts   map[string]struct{}
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service) error

// WithRepository sets the record repository.
func WithRepository(r Repository) Option {
	return func(s *Service) error {
		s.repo = r
		return nil
	}
}

// WithBlobStore sets the store that holds uploaded bytes.
func WithBlobStore(b simpledeck.BlobStore) Option {
	return func(s *Service) error {
		s.blobs = b
		return nil
	}
}

// WithMaxUploadSize limits the size of a single upload in bytes.
func WithMaxUploadSize(n int64) Option {
	return func(s *Service) error {
		if n <= 0 {
			return fmt.Errorf("invalid max upload size %d", n)
		}
		s.maxUploadSize = n
		return nil
	}
}

// WithAllowedExtensions replaces the accepted file extensions. An empty list
// accepts every file.
func WithAllowedExtensions(exts ...string) Option {
	return func(s *Service) error {
		s.allowedExts = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if ext != "" {
				s.allowedExts[ext] = struct{}{}
			}
		}
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) error {
		if l != nil {
			s.logger = l
		}
		return nil
	}
}

// New creates a Service. A repository and a blob store are required.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		maxUploadSize: DefaultMaxUploadSize,
		logger:        slog.Default(),
		now:           time.Now,
	}
	if err := WithAllowedExtensions(simpledeck.PresentationExtensions...)(s); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.repo == nil {
		return nil, errors.New("repository is required")
	}
	if s.blobs == nil {
		return nil, errors.New("blob store is required")
	}
	return s, nil
}

// MaxUploadSize returns the upload limit in bytes.
func (s *Service) MaxUploadSize() int64 {
	return s.maxUploadSize
}

func (s *Service) allowed(name string) bool {
	if len(s.allowedExts) == 0 {
		return true
	}
	_, ok := s.allowedExts[simpledeck.Extension(name)]
	return ok
}

// Upload validates and stores a file, returning its record.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*Record, error) {
	if req.Reader == nil || req.FileName == "" {
		return nil, ErrNoFile
	}
	name := filepath.Base(req.FileName)
	if !s.allowed(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, name)
	}
	if req.Size > s.maxUploadSize {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrFileTooLarge,
			units.BytesSize(float64(req.Size)), units.BytesSize(float64(s.maxUploadSize)))
	}

	mimeType := req.MimeType
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
			mimeType = byExt
		}
	}

	id := uuid.NewString()
	key := fmt.Sprintf("decks/%s/%s", id, name)

	counter := &countingReader{reader: io.LimitReader(req.Reader, s.maxUploadSize+1)}
	if err := s.blobs.UploadWithParams(ctx, counter, simpledeck.UploadParams{
		ObjectKey: key,
		MimeType:  mimeType,
	}); err != nil {
		s.discard(ctx, key)
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	if counter.n > s.maxUploadSize {
		s.discard(ctx, key)
		return nil, fmt.Errorf("%w: limit is %s", ErrFileTooLarge, units.BytesSize(float64(s.maxUploadSize)))
	}

	rec := &Record{
		ID:           id,
		OriginalName: name,
		Size:         counter.n,
		MimeType:     mimeType,
		ObjectKey:    key,
		UploadedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		s.discard(ctx, key)
		return nil, fmt.Errorf("failed to record file: %w", err)
	}

	s.logger.Info("File uploaded", "file_id", rec.ID, "name", rec.OriginalName, "size", rec.Size)
	return rec, nil
}

func (s *Service) discard(ctx context.Context, key string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil && !errors.Is(err, simpledeck.ErrObjectNotFound) {
		s.logger.Warn("Failed to discard stored object", "key", key, "error", err)
	}
}

// List returns every record, newest first.
func (s *Service) List(ctx context.Context) ([]*Record, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return recs, nil
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.Get(ctx, id)
}

// Open returns the record and a reader over its bytes. The caller must close
// the reader.
func (s *Service) Open(ctx context.Context, id string) (*Record, io.ReadCloser, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Download(ctx, rec.ObjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file %s: %w", id, err)
	}
	return rec, rc, nil
}

// Delete removes the record and its bytes. A missing object is tolerated so
// that a record whose bytes were lost can still be removed.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", id, err)
	}
	if err := s.blobs.Delete(ctx, rec.ObjectKey); err != nil && !errors.Is(err, simpledeck.ErrObjectNotFound) {
		s.logger.Warn("Failed to delete stored object", "file_id", id, "key", rec.ObjectKey, "error", err)
	}
	s.logger.Info("File deleted", "file_id", id)
	return nil
}

type countingReader struct {
	reader io.Reader
	n      int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.n += int64(n)
	return n, err
}
