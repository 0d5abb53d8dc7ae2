package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-deck/pkg/simpledeck/store"
)

// UploadResponse is the body of a successful upload
type UploadResponse struct {
	Message string        `json:"message"`
	File    *store.Record `json:"file"`
}

// UploadFile posts a file to the service the way a browser form would
func UploadFile(t *testing.T, serverURL, fileName string, data []byte) UploadResponse {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("pptFile", fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(serverURL+"/api/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out UploadResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotNil(t, out.File)
	return out
}

// ListFiles returns the records served by GET /api/files
func ListFiles(t *testing.T, serverURL string) []store.Record {
	t.Helper()

	resp, err := http.Get(serverURL + "/api/files")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []store.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
