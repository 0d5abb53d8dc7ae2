package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tendant/simple-deck/pkg/simpledeck"
)

// fileRecord is one entry of GET /files as sent by the document service.
// Fields are pointers so missing fields can be told apart from zero values.
type fileRecord struct {
	ID           *string    `json:"_id"`
	OriginalName *string    `json:"originalname"`
	Size         *int64     `json:"size"`
	UploadDate   *time.Time `json:"uploadDate"`
}

func (r fileRecord) toDocument(i int) (simpledeck.Document, error) {
	switch {
	case r.ID == nil || *r.ID == "":
		return simpledeck.Document{}, fmt.Errorf("file %d: missing _id", i)
	case r.OriginalName == nil:
		return simpledeck.Document{}, fmt.Errorf("file %d: missing originalname", i)
	case r.Size == nil:
		return simpledeck.Document{}, fmt.Errorf("file %d: missing size", i)
	case *r.Size < 0:
		return simpledeck.Document{}, fmt.Errorf("file %d: negative size %d", i, *r.Size)
	case r.UploadDate == nil:
		return simpledeck.Document{}, fmt.Errorf("file %d: missing uploadDate", i)
	}
	return simpledeck.Document{
		ID:           *r.ID,
		OriginalName: *r.OriginalName,
		SizeBytes:    *r.Size,
		UploadedAt:   *r.UploadDate,
	}, nil
}

// uploadResponse is the body of POST /upload.
type uploadResponse struct {
	Message *string     `json:"message"`
	Error   string      `json:"error"`
	File    *fileRecord `json:"file"`
}

// errorResponse is the body the service sends with a failure status.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

const maxReasonBytes = 4 << 10

// readReason extracts a human-readable reason from a failed response: the
// JSON "error" or "message" field, else the trimmed body, else the status text.
func readReason(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxReasonBytes))

	var er errorResponse
	if json.Unmarshal(body, &er) == nil {
		if er.Error != "" {
			return er.Error
		}
		if er.Message != "" {
			return er.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
