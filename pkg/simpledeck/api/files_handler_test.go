package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memorystorage "github.com/tendant/simple-deck/pkg/simpledeck/storage/memory"
	"github.com/tendant/simple-deck/pkg/simpledeck/store"
	"github.com/tendant/simple-deck/pkg/simpledeck/store/repo/memory"
)

// setupFilesHandlerTest creates a router with in-memory backends for testing
func setupFilesHandlerTest(t *testing.T, opts ...store.Option) (http.Handler, *store.Service) {
	opts = append([]store.Option{
		store.WithRepository(memory.New()),
		store.WithBlobStore(memorystorage.New()),
	}, opts...)
	svc, err := store.New(opts...)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Mount("/api", NewFilesHandler(svc, nil).Routes())
	return r, svc
}

func uploadRequest(t *testing.T, field, fileName string, data []byte) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("comment", "ignored"))
	part, err := mw.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestFilesHandler_Upload_Success(t *testing.T) {
	router, svc := setupFilesHandlerTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, UploadField, "q3.pptx", []byte("slides")))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "File uploaded successfully", resp.Message)
	require.NotNil(t, resp.File)
	assert.Equal(t, "q3.pptx", resp.File.OriginalName)
	assert.Equal(t, int64(6), resp.File.Size)

	// Wire names used by clients
	assert.Contains(t, w.Body.String(), `"_id"`)
	assert.Contains(t, w.Body.String(), `"originalname"`)
	assert.Contains(t, w.Body.String(), `"uploadDate"`)
	assert.NotContains(t, w.Body.String(), "decks/")

	recs, err := svc.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestFilesHandler_Upload_Rejections(t *testing.T) {
	router, _ := setupFilesHandlerTest(t, store.WithMaxUploadSize(8))

	tests := []struct {
		name   string
		req    *http.Request
		status int
		reason string
	}{
		{
			name:   "wrong field",
			req:    uploadRequest(t, "file", "q3.pptx", []byte("x")),
			status: http.StatusBadRequest,
			reason: "No file uploaded",
		},
		{
			name:   "wrong type",
			req:    uploadRequest(t, UploadField, "notes.txt", []byte("x")),
			status: http.StatusBadRequest,
			reason: "only PowerPoint files are allowed",
		},
		{
			name:   "too large",
			req:    uploadRequest(t, UploadField, "big.pptx", bytes.Repeat([]byte("x"), 64)),
			status: http.StatusRequestEntityTooLarge,
			reason: "file too large",
		},
		{
			name:   "not multipart",
			req:    httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("{}")),
			status: http.StatusBadRequest,
			reason: "No file uploaded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tt.req)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, decodeError(t, w), tt.reason)
		})
	}
}

func TestFilesHandler_ListGetDownloadDelete(t *testing.T) {
	router, _ := setupFilesHandlerTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, UploadField, "Q3 Review.pptx", []byte("slides")))
	require.Equal(t, http.StatusCreated, w.Code)
	var created MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.File.ID

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	var list []store.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "slides", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/download/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "slides", w.Body.String())
	assert.Equal(t, "6", w.Header().Get("Content-Length"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Q3 Review.pptx")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/files/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"File deleted successfully"}`, w.Body.String())

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/files/"+id, nil),
		httptest.NewRequest(http.MethodGet, "/api/download/"+id, nil),
		httptest.NewRequest(http.MethodDelete, "/api/files/"+id, nil),
	} {
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, req.Method+" "+req.URL.Path)
		assert.Equal(t, "File not found", decodeError(t, w))
	}
}
