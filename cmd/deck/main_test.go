package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-deck/tests/testutil"
)

func init() {
	color.NoColor = true
}

func runDeck(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDeck_UploadListDelete(t *testing.T) {
	srv, _ := testutil.SetupTestServer()
	defer srv.Close()
	api := "--api=" + srv.URL + "/api"

	out, err := runDeck(t, "", "list", api)
	require.NoError(t, err)
	assert.Contains(t, out, "No files uploaded yet.")

	path := filepath.Join(t.TempDir(), "q3.pptx")
	require.NoError(t, os.WriteFile(path, []byte("slides"), 0o644))

	out, err = runDeck(t, "", "upload", path, api)
	require.NoError(t, err)
	assert.Contains(t, out, "File uploaded successfully")

	files := testutil.ListFiles(t, srv.URL)
	require.Len(t, files, 1)
	id := files[0].ID

	out, err = runDeck(t, "", "list", api)
	require.NoError(t, err)
	assert.Contains(t, out, "q3.pptx")
	assert.Contains(t, out, "6 B")
	assert.Contains(t, out, id)

	// Declining leaves the file in place
	out, err = runDeck(t, "n\n", "delete", id, api)
	require.NoError(t, err)
	assert.Contains(t, out, "Are you sure you want to delete q3.pptx?")
	assert.Contains(t, out, "Cancelled.")
	assert.Len(t, testutil.ListFiles(t, srv.URL), 1)

	out, err = runDeck(t, "y\n", "delete", id, api)
	require.NoError(t, err)
	assert.Contains(t, out, "File deleted successfully")
	assert.Empty(t, testutil.ListFiles(t, srv.URL))

	_, err = runDeck(t, "", "delete", id, "--yes", api)
	assert.Error(t, err)
}

func TestDeck_UploadRejected(t *testing.T) {
	srv, _ := testutil.SetupTestServer()
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0o644))

	_, err := runDeck(t, "", "upload", path, "--api="+srv.URL+"/api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only PowerPoint files are allowed")
}

func TestDeck_PreviewDirectSave(t *testing.T) {
	srv, _ := testutil.SetupTestServer()
	defer srv.Close()
	resp := testutil.UploadFile(t, srv.URL, "deck.pptx", []byte("pptx bytes"))

	dir := t.TempDir()
	out, err := runDeck(t, "", "preview", resp.File.ID, "--mode", "direct", "--save", dir, "--api="+srv.URL+"/api")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved")

	data, err := os.ReadFile(filepath.Join(dir, "deck.pptx"))
	require.NoError(t, err)
	assert.Equal(t, "pptx bytes", string(data))
}

func TestDeck_PreviewViewers(t *testing.T) {
	srv, _ := testutil.SetupTestServer()
	defer srv.Close()
	resp := testutil.UploadFile(t, srv.URL, "deck.pptx", []byte("pptx bytes"))
	api := "--api=" + srv.URL + "/api"

	out, err := runDeck(t, "", "preview", resp.File.ID, "--mode", "office", api)
	require.NoError(t, err)
	assert.Contains(t, out, "https://view.officeapps.live.com/op/view.aspx?src=")

	out, err = runDeck(t, "", "preview", resp.File.ID, "--mode", "embedded", "-v", api)
	require.NoError(t, err)
	assert.Contains(t, out, "https://view.officeapps.live.com/op/embed.aspx?src=")
	assert.Contains(t, out, "session: choosing_method -> loading_embedded_viewer")
	assert.Contains(t, out, "released viewer")

	_, err = runDeck(t, "", "preview", "missing", api)
	assert.Error(t, err)

	_, err = runDeck(t, "", "preview", resp.File.ID, "--mode", "slideshow", api)
	assert.Error(t, err)
}

func TestDeck_ViewerURL(t *testing.T) {
	out, err := runDeck(t, "", "viewer-url", "a1", "--kind", "google", "--api=http://localhost:5000/api")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/gview?src=http%3A%2F%2Flocalhost%3A5000%2Fapi%2Fdownload%2Fa1\n", out)

	_, err = runDeck(t, "", "viewer-url", "a1", "--kind", "dropbox")
	assert.Error(t, err)
}
