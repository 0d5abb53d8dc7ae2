package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tendant/simple-deck/pkg/simpledeck/store"
)

// Repository implements store.Repository using in-memory storage
type Repository struct {
	mu      sync.RWMutex
	records map[string]*store.Record
}

var _ store.Repository = (*Repository)(nil)

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		records: make(map[string]*store.Record),
	}
}

func (r *Repository) Create(ctx context.Context, rec *store.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ID]; exists {
		return store.ErrDuplicateRecord
	}
	// Create a copy to avoid external modifications
	recCopy := *rec
	r.records[rec.ID] = &recCopy
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*store.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.records[id]
	if !exists {
		return nil, store.ErrRecordNotFound
	}
	recCopy := *rec
	return &recCopy, nil
}

func (r *Repository) List(ctx context.Context) ([]*store.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*store.Record, 0, len(r.records))
	for _, rec := range r.records {
		recCopy := *rec
		out = append(out, &recCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[id]; !exists {
		return store.ErrRecordNotFound
	}
	delete(r.records, id)
	return nil
}
