package simpledeck

import (
	"context"
)

// Hook system lets a presentation layer observe catalog and session changes
// without polling. Hooks run synchronously on the goroutine that caused the
// change, while the owning container's lock is held, so they must not call
// back into the Catalog or Session that fired them.

// Hooks defines all available lifecycle hooks
type Hooks struct {
	// Session hooks
	OnTransition []TransitionHook
	OnAcquire    []ResourceHook
	OnRelease    []ResourceHook

	// Catalog hooks
	OnCatalogReplaced []CatalogHook

	// Error hooks
	OnError []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	Metadata  map[string]interface{} // Custom metadata passed between hooks
	StopChain bool                   // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]interface{}),
	}
}

// Transition describes one applied session transition.
type Transition struct {
	From       Mode
	To         Mode
	Event      Event
	Document   *Document
	Generation uint64
}

// TransitionHook is called after a session transition is applied
type TransitionHook func(hctx *HookContext, t Transition)

// ResourceHook is called when the session acquires or releases its transient resource.
// ref is the blob key or the viewer frame URL.
type ResourceHook func(hctx *HookContext, kind ResourceKind, ref string, doc Document)

// CatalogHook is called after the catalog is replaced by a successful fetch
type CatalogHook func(hctx *HookContext, docs []Document)

// ErrorHook is called when an operation fails
type ErrorHook func(hctx *HookContext, operation string, err error)

func (h *Hooks) executeTransition(ctx context.Context, t Transition) {
	if h == nil || len(h.OnTransition) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.OnTransition {
		hook(hctx, t)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeAcquire(ctx context.Context, kind ResourceKind, ref string, doc Document) {
	if h == nil || len(h.OnAcquire) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.OnAcquire {
		hook(hctx, kind, ref, doc)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeRelease(ctx context.Context, kind ResourceKind, ref string, doc Document) {
	if h == nil || len(h.OnRelease) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.OnRelease {
		hook(hctx, kind, ref, doc)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeCatalogReplaced(ctx context.Context, docs []Document) {
	if h == nil || len(h.OnCatalogReplaced) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.OnCatalogReplaced {
		hook(hctx, docs)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeError(ctx context.Context, operation string, err error) {
	if h == nil || len(h.OnError) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, operation, err)
		if hctx.StopChain {
			break
		}
	}
}
