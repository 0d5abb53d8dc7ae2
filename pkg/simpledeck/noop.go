package simpledeck

import (
	"context"
)

// NoopOpener is a no-operation implementation of Opener.
// Useful when external viewers are handled by the caller or for testing.
type NoopOpener struct{}

// NewNoopOpener creates a new no-operation opener
func NewNoopOpener() Opener {
	return &NoopOpener{}
}

// Open does nothing and returns nil
func (n *NoopOpener) Open(ctx context.Context, url string) error {
	return nil
}

// AlwaysConfirm is a Confirmer that approves every prompt, for
// non-interactive callers that already obtained consent.
type AlwaysConfirm struct{}

// Confirm returns true
func (AlwaysConfirm) Confirm(ctx context.Context, prompt string) (bool, error) {
	return true, nil
}
