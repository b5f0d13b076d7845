package testutil

import (
	"context"
	"sync"

	"github.com/nutriplan/nutriplan/internal/api"
)

// Identified is anything with a numeric backend id.
type Identified interface {
	EntityID() int64
}

// Backend is an in-memory remote collection for catalog stores.
type Backend[T Identified] struct {
	mu      sync.Mutex
	items   []T
	assign  func(T, int64) T
	nextID  int64
	Created []T
	Updated []T
	Lists   int
	Gets    int
	ListErr error
	GetErr  error
	SaveErr error
}

// NewBackend creates a backend holding items. assign sets the id of a
// created item.
func NewBackend[T Identified](assign func(T, int64) T, items ...T) *Backend[T] {
	b := &Backend[T]{assign: assign, nextID: 1000}
	b.items = append(b.items, items...)
	return b
}

func (b *Backend[T]) List(ctx context.Context) ([]T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Lists++
	if b.ListErr != nil {
		return nil, b.ListErr
	}
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out, nil
}

// Get returns the stored item with id, or api.ErrNotFound.
func (b *Backend[T]) Get(ctx context.Context, id int64) (*T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Gets++
	if b.GetErr != nil {
		return nil, b.GetErr
	}
	for _, it := range b.items {
		if it.EntityID() == id {
			out := it
			return &out, nil
		}
	}
	return nil, api.ErrNotFound
}

// Put replaces the stored copy of item without recording an update.
func (b *Backend[T]) Put(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].EntityID() == item.EntityID() {
			b.items[i] = item
		}
	}
}

func (b *Backend[T]) Create(ctx context.Context, item T) (T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SaveErr != nil {
		return item, b.SaveErr
	}
	b.nextID++
	item = b.assign(item, b.nextID)
	b.Created = append(b.Created, item)
	b.items = append(b.items, item)
	return item, nil
}

func (b *Backend[T]) Update(ctx context.Context, item T) (T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SaveErr != nil {
		return item, b.SaveErr
	}
	b.Updated = append(b.Updated, item)
	for i := range b.items {
		if b.items[i].EntityID() == item.EntityID() {
			b.items[i] = item
		}
	}
	return item, nil
}
