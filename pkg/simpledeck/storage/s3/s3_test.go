package s3

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"typed no such key", &types.NoSuchKey{}, true},
		{"typed not found", fmt.Errorf("head: %w", &types.NotFound{}), true},
		{"api error code", &smithy.GenericAPIError{Code: "NoSuchKey", Message: "missing"}, true},
		{"other api error", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNotFound(tt.err))
		})
	}
}

func TestBackend_KeyPrefix(t *testing.T) {
	b := &Backend{config: Config{Prefix: "decks/"}}
	assert.Equal(t, "decks/abc", b.key("abc"))

	b = &Backend{config: Config{}}
	assert.Equal(t, "abc", b.key("abc"))
}
