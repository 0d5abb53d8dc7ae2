package simpledeck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-deck/pkg/simpledeck"
)

func TestBuildViewerURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		doc     string
		want    string
		wantErr bool
	}{
		{
			name: "office embed",
			base: simpledeck.DefaultEmbeddedViewerBase,
			doc:  "http://localhost:5000/api/download/a1",
			want: "https://view.officeapps.live.com/op/embed.aspx?src=http%3A%2F%2Flocalhost%3A5000%2Fapi%2Fdownload%2Fa1",
		},
		{
			name: "keeps base query",
			base: "https://viewer.example.com/view?lang=en",
			doc:  "https://files.example.com/d/1",
			want: "https://viewer.example.com/view?lang=en&src=https%3A%2F%2Ffiles.example.com%2Fd%2F1",
		},
		{
			name: "escaped id stays escaped",
			base: simpledeck.DefaultGoogleViewerBase,
			doc:  "http://localhost:5000/api/download/a%2Fb",
			want: "https://docs.google.com/gview?src=http%3A%2F%2Flocalhost%3A5000%2Fapi%2Fdownload%2Fa%252Fb",
		},
		{name: "relative document", base: simpledeck.DefaultGoogleViewerBase, doc: "/api/download/a1", wantErr: true},
		{name: "relative base", base: "/viewer", doc: "http://localhost/a", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := simpledeck.BuildViewerURL(tt.base, tt.doc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestViewers(t *testing.T) {
	v := simpledeck.DefaultViewers()
	doc := "http://localhost:5000/api/download/a1"

	u, err := v.ExternalURL(simpledeck.ViewerOffice, doc)
	require.NoError(t, err)
	assert.Equal(t, "https://view.officeapps.live.com/op/view.aspx?src=http%3A%2F%2Flocalhost%3A5000%2Fapi%2Fdownload%2Fa1", u)

	_, err = v.ExternalURL(simpledeck.ViewerEmbedded, doc)
	assert.ErrorIs(t, err, simpledeck.ErrUnknownViewer)

	v.Embedded = ""
	_, err = v.EmbeddedURL(doc)
	assert.ErrorIs(t, err, simpledeck.ErrUnknownViewer)
}
