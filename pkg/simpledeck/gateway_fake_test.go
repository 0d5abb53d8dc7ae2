package simpledeck_test

import (
	"context"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tendant/simple-deck/pkg/simpledeck"
)

// fakeGateway is an in-process Gateway whose responses are set per test.
type fakeGateway struct {
	mu sync.Mutex

	docs    []simpledeck.Document
	listErr error
	lists   int

	// getFunc, when set, replaces the default Get behaviour
	getFunc func(ctx context.Context, id string) (*simpledeck.Blob, error)

	deleteErr error
	deleted   []string

	uploadErr error
	uploaded  []string
}

var _ simpledeck.Gateway = (*fakeGateway)(nil)

func newFakeGateway(docs ...simpledeck.Document) *fakeGateway {
	return &fakeGateway{docs: docs}
}

func (g *fakeGateway) setDocs(docs ...simpledeck.Document) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.docs = docs
}

func (g *fakeGateway) setListErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listErr = err
}

func (g *fakeGateway) List(ctx context.Context) ([]simpledeck.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lists++
	if g.listErr != nil {
		return nil, g.listErr
	}
	out := make([]simpledeck.Document, len(g.docs))
	copy(out, g.docs)
	return out, nil
}

func (g *fakeGateway) Get(ctx context.Context, id string) (*simpledeck.Blob, error) {
	g.mu.Lock()
	fn := g.getFunc
	g.mu.Unlock()
	if fn != nil {
		return fn(ctx, id)
	}
	return &simpledeck.Blob{
		Data:        []byte("bytes of " + id),
		ContentType: "application/vnd.ms-powerpoint",
	}, nil
}

func (g *fakeGateway) Delete(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.deleteErr != nil {
		return g.deleteErr
	}
	g.deleted = append(g.deleted, id)
	kept := g.docs[:0:0]
	for _, d := range g.docs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	g.docs = kept
	return nil
}

func (g *fakeGateway) DownloadURL(id string) (string, error) {
	if id == "" {
		return "", simpledeck.ErrNoDocument
	}
	return "http://localhost:5000/api/download/" + url.PathEscape(id), nil
}

func (g *fakeGateway) Download(ctx context.Context, id string) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader("bytes of " + id)), "", nil
}

func (g *fakeGateway) Upload(ctx context.Context, fileName string, reader io.Reader) (*simpledeck.UploadResult, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.uploadErr != nil {
		return nil, g.uploadErr
	}
	g.uploaded = append(g.uploaded, fileName)
	doc := simpledeck.Document{
		ID:           "up-" + fileName,
		OriginalName: fileName,
		UploadedAt:   time.Now(),
	}
	g.docs = append([]simpledeck.Document{doc}, g.docs...)
	return &simpledeck.UploadResult{Message: "File uploaded successfully", Document: &doc}, nil
}

func testDoc(id, name string, size int64) simpledeck.Document {
	return simpledeck.Document{
		ID:           id,
		OriginalName: name,
		SizeBytes:    size,
		UploadedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}
