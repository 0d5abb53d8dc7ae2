package store_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-deck/pkg/simpledeck"
	"github.com/tendant/simple-deck/pkg/simpledeck/storage/memory"
	"github.com/tendant/simple-deck/pkg/simpledeck/store"
	repomemory "github.com/tendant/simple-deck/pkg/simpledeck/store/repo/memory"
)

func newService(t *testing.T, opts ...store.Option) (*store.Service, *memory.Backend) {
	t.Helper()
	blobs := memory.New()
	opts = append([]store.Option{
		store.WithRepository(repomemory.New()),
		store.WithBlobStore(blobs),
	}, opts...)
	svc, err := store.New(opts...)
	require.NoError(t, err)
	return svc, blobs
}

func TestNew_RequiresBackends(t *testing.T) {
	_, err := store.New(store.WithBlobStore(memory.New()))
	assert.Error(t, err)

	_, err = store.New(store.WithRepository(repomemory.New()))
	assert.Error(t, err)

	_, err = store.New(store.WithRepository(repomemory.New()), store.WithBlobStore(memory.New()), store.WithMaxUploadSize(0))
	assert.Error(t, err)
}

func TestService_UploadOpenDelete(t *testing.T) {
	svc, blobs := newService(t)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, store.UploadRequest{
		FileName: "Q3 Review.PPTX",
		Reader:   strings.NewReader("slides"),
		Size:     -1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Q3 Review.PPTX", rec.OriginalName)
	assert.Equal(t, int64(6), rec.Size)
	assert.Equal(t, 1, blobs.Len())

	got, rc, err := svc.Open(ctx, rec.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "slides", string(data))
	assert.Equal(t, rec.ID, got.ID)

	recs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	assert.Equal(t, 0, blobs.Len())
	_, err = svc.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, rec.ID), store.ErrRecordNotFound)
}

func TestService_DeleteToleratesMissingObject(t *testing.T) {
	svc, blobs := newService(t)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, store.UploadRequest{FileName: "a.ppt", Reader: strings.NewReader("x"), Size: 1})
	require.NoError(t, err)
	require.NoError(t, blobs.Delete(ctx, rec.ObjectKey))

	require.NoError(t, svc.Delete(ctx, rec.ID))
}

func TestService_UploadValidation(t *testing.T) {
	svc, blobs := newService(t, store.WithMaxUploadSize(4))
	ctx := context.Background()

	tests := []struct {
		name   string
		req    store.UploadRequest
		err    error
		status int
	}{
		{"no file", store.UploadRequest{}, store.ErrNoFile, http.StatusBadRequest},
		{"wrong type", store.UploadRequest{FileName: "notes.txt", Reader: strings.NewReader("x"), Size: 1}, store.ErrUnsupportedType, http.StatusBadRequest},
		{"declared too large", store.UploadRequest{FileName: "a.pptx", Reader: strings.NewReader("12345"), Size: 5}, store.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"streamed too large", store.UploadRequest{FileName: "a.pptx", Reader: bytes.NewReader(make([]byte, 10)), Size: -1}, store.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.req)
			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.status, store.MapHTTPStatus(err))
		})
	}
	assert.Equal(t, 0, blobs.Len(), "rejected uploads leave no objects behind")

	rec, err := svc.Upload(ctx, store.UploadRequest{FileName: "a.pptx", Reader: strings.NewReader("1234"), Size: -1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.Size)
}

func TestService_AllowedExtensions(t *testing.T) {
	svc, _ := newService(t, store.WithAllowedExtensions(".key", "PPTX"))
	ctx := context.Background()

	_, err := svc.Upload(ctx, store.UploadRequest{FileName: "deck.key", Reader: strings.NewReader("x"), Size: 1})
	require.NoError(t, err)
	_, err = svc.Upload(ctx, store.UploadRequest{FileName: "deck.ppt", Reader: strings.NewReader("x"), Size: 1})
	assert.ErrorIs(t, err, store.ErrUnsupportedType)

	open, _ := newService(t, store.WithAllowedExtensions())
	_, err = open.Upload(ctx, store.UploadRequest{FileName: "anything.bin", Reader: strings.NewReader("x"), Size: 1})
	assert.NoError(t, err)
}

func TestMapHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, store.MapHTTPStatus(store.ErrRecordNotFound))
	assert.Equal(t, http.StatusNotFound, store.MapHTTPStatus(simpledeck.ErrObjectNotFound))
	assert.Equal(t, http.StatusConflict, store.MapHTTPStatus(store.ErrDuplicateRecord))
	assert.Equal(t, http.StatusInternalServerError, store.MapHTTPStatus(io.ErrUnexpectedEOF))
}
