package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/docker/go-units"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-deck/pkg/simpledeck/store"
)

// UploadField is the multipart field that carries the uploaded file.
const UploadField = "pptFile"

// multipart framing allowance on top of the file size limit
const formOverhead = 1 * units.MiB

// FilesHandler serves the document service API backed by a store.Service
type FilesHandler struct {
	service *store.Service
	logger  *slog.Logger
}

func NewFilesHandler(service *store.Service, logger *slog.Logger) *FilesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FilesHandler{
		service: service,
		logger:  logger,
	}
}

// Routes returns the router for the document endpoints. Mount it under /api.
func (h *FilesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/files", h.ListFiles)
	r.Get("/files/{id}", h.GetFile)
	r.Delete("/files/{id}", h.DeleteFile)
	r.Get("/download/{id}", h.DownloadFile)
	r.Post("/upload", h.UploadFile)
	return r
}

// MessageResponse is the success body of mutating endpoints
type MessageResponse struct {
	Message string        `json:"message"`
	File    *store.Record `json:"file,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *FilesHandler) writeError(w http.ResponseWriter, r *http.Request, status int, reason string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: reason})
}

func (h *FilesHandler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status := store.MapHTTPStatus(err)
	reason := err.Error()
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		reason = "File not found"
	case status == http.StatusInternalServerError:
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		reason = "Internal server error"
	}
	h.writeError(w, r, status, reason)
}

// ListFiles returns every stored file, newest first
func (h *FilesHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.List(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	render.JSON(w, r, recs)
}

// GetFile streams the bytes of one file for display
func (h *FilesHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "inline")
}

// DownloadFile streams the bytes of one file as an attachment
func (h *FilesHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "attachment")
}

func (h *FilesHandler) serveFile(w http.ResponseWriter, r *http.Request, disposition string) {
	id := chi.URLParam(r, "id")
	rec, rc, err := h.service.Open(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	defer rc.Close()

	contentType := rec.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": rec.OriginalName}))
	w.Header().Set("Content-Length", strconv.FormatInt(rec.Size, 10))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("Failed to stream file", "file_id", id, "error", err)
	}
}

// DeleteFile removes one file
func (h *FilesHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	render.JSON(w, r, MessageResponse{Message: "File deleted successfully"})
}

// UploadFile stores the file sent in the pptFile multipart field. The body is
// streamed; other fields are ignored.
func (h *FilesHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxUploadSize()+formOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "No file uploaded")
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			h.writeUploadReadError(w, r, err)
			return
		}
		if part.FormName() != UploadField || part.FileName() == "" {
			part.Close()
			continue
		}

		rec, err := h.service.Upload(r.Context(), store.UploadRequest{
			FileName: part.FileName(),
			MimeType: part.Header.Get("Content-Type"),
			Reader:   part,
			Size:     -1,
		})
		part.Close()
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.writeUploadReadError(w, r, err)
				return
			}
			h.writeStoreError(w, r, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, MessageResponse{Message: "File uploaded successfully", File: rec})
		return
	}

	h.writeError(w, r, http.StatusBadRequest, "No file uploaded")
}

func (h *FilesHandler) writeUploadReadError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.writeError(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large: limit is %s", units.BytesSize(float64(h.service.MaxUploadSize()))))
		return
	}
	h.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("Malformed upload: %v", err))
}
