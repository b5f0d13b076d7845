// Package catalog keeps the client-side copies of backend collections and
// tracks the state of list fetches and mutations separately.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nutriplan/nutriplan/internal/api"
	"github.com/nutriplan/nutriplan/internal/models"
)

// Phase is the state of a list fetch or a mutation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Entity is anything the backend identifies by a numeric id. A zero id
// means the entity has not been created yet.
type Entity interface {
	EntityID() int64
}

// Backend is the remote collection behind a store.
type Backend[T Entity] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, item T) (T, error)
}

// Funcs adapts plain functions to Backend.
type Funcs[T Entity] struct {
	ListFn   func(ctx context.Context) ([]T, error)
	CreateFn func(ctx context.Context, item T) (T, error)
	UpdateFn func(ctx context.Context, item T) (T, error)
}

func (f Funcs[T]) List(ctx context.Context) ([]T, error)         { return f.ListFn(ctx) }
func (f Funcs[T]) Create(ctx context.Context, item T) (T, error) { return f.CreateFn(ctx, item) }
func (f Funcs[T]) Update(ctx context.Context, item T) (T, error) { return f.UpdateFn(ctx, item) }

// Messages are the success texts of a store's mutations.
type Messages struct {
	Created string
	Updated string
	Deleted string
}

// Store is a client-side copy of one collection.
type Store[T Entity] struct {
	mu       sync.RWMutex
	name     string
	backend  Backend[T]
	messages Messages

	// markDeleted returns item with its status set to the deleted marker.
	markDeleted func(T) T

	items     []T
	listPhase Phase
	listErr   error

	opPhase Phase
	opErr   error
	success string
}

// NewStore creates a store over backend. markDeleted may be nil for
// collections without soft delete.
func NewStore[T Entity](name string, backend Backend[T], msgs Messages, markDeleted func(T) T) *Store[T] {
	return &Store[T]{
		name:        name,
		backend:     backend,
		messages:    msgs,
		markDeleted: markDeleted,
	}
}

// Fetch reloads the whole list. On failure the previous items are kept.
func (s *Store[T]) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.listPhase = PhaseLoading
	s.listErr = nil
	s.mu.Unlock()

	items, err := s.backend.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if errors.Is(err, api.ErrStaleBranch) {
		// A newer fetch for the current branch owns the state.
		return err
	}
	if err != nil {
		s.listPhase = PhaseError
		s.listErr = err
		slog.Warn("list fetch failed", "store", s.name, "error", err)
		return err
	}
	s.items = items
	s.listPhase = PhaseSuccess
	return nil
}

// Save creates item when it has no id and updates it otherwise, then
// reloads the list.
func (s *Store[T]) Save(ctx context.Context, item T) error {
	if err := models.Validate(item); err != nil {
		s.fail(err)
		return err
	}

	s.begin()
	var err error
	msg := s.messages.Updated
	if item.EntityID() != 0 {
		_, err = s.backend.Update(ctx, item)
	} else {
		_, err = s.backend.Create(ctx, item)
		msg = s.messages.Created
	}
	if err != nil {
		s.fail(err)
		return err
	}

	s.succeed(msg)
	return s.refetch(ctx)
}

// SoftDelete flips item's status to the deleted marker through the update
// path. The record stays on the backend.
func (s *Store[T]) SoftDelete(ctx context.Context, item T) error {
	if s.markDeleted == nil {
		err := fmt.Errorf("%s does not support delete", s.name)
		s.fail(err)
		return err
	}
	if item.EntityID() == 0 {
		err := fmt.Errorf("%s has no id", s.name)
		s.fail(err)
		return err
	}

	s.begin()
	if _, err := s.backend.Update(ctx, s.markDeleted(item)); err != nil {
		s.fail(err)
		return err
	}
	s.succeed(s.messages.Deleted)
	return s.refetch(ctx)
}

// refetch reloads after a mutation. Its failure lands in the list state,
// leaving the mutation's success in place.
func (s *Store[T]) refetch(ctx context.Context) error {
	if err := s.Fetch(ctx); err != nil && !errors.Is(err, api.ErrStaleBranch) {
		return fmt.Errorf("reloading %s: %w", s.name, err)
	}
	return nil
}

func (s *Store[T]) begin() {
	s.mu.Lock()
	s.opPhase = PhaseLoading
	s.opErr = nil
	s.success = ""
	s.mu.Unlock()
}

func (s *Store[T]) fail(err error) {
	s.mu.Lock()
	s.opPhase = PhaseError
	s.opErr = err
	s.success = ""
	s.mu.Unlock()
	slog.Warn("mutation failed", "store", s.name, "error", err)
}

func (s *Store[T]) succeed(msg string) {
	s.mu.Lock()
	s.opPhase = PhaseSuccess
	s.opErr = nil
	s.success = msg
	s.mu.Unlock()
}

// Items returns a copy of the loaded items.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Find returns the loaded item with id.
func (s *Store[T]) Find(id int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.EntityID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// ListPhase returns the state of the last list fetch.
func (s *Store[T]) ListPhase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listPhase
}

// Err returns the error of the last list fetch.
func (s *Store[T]) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listErr
}

// OperationPhase returns the state of the last mutation.
func (s *Store[T]) OperationPhase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opPhase
}

// OperationError returns the error of the last mutation.
func (s *Store[T]) OperationError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opErr
}

// SuccessMessage returns the message of the last successful mutation.
func (s *Store[T]) SuccessMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.success
}

// ClearMessages resets the mutation state to idle.
func (s *Store[T]) ClearMessages() {
	s.mu.Lock()
	s.opPhase = PhaseIdle
	s.opErr = nil
	s.success = ""
	s.mu.Unlock()
}

// Reset drops everything, used on logout and branch change.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.listPhase = PhaseIdle
	s.listErr = nil
	s.opPhase = PhaseIdle
	s.opErr = nil
	s.success = ""
}

// replace swaps the loaded items without touching the phases.
func (s *Store[T]) replace(fn func([]T) []T) {
	s.mu.Lock()
	s.items = fn(s.items)
	s.mu.Unlock()
}
