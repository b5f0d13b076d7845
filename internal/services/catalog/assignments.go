package catalog

import (
	"context"
	"sync"

	"github.com/nutriplan/nutriplan/internal/models"
)

// AssignmentAPI is the backend surface used for menu assignments.
type AssignmentAPI interface {
	ListAssignments(ctx context.Context, from, to string) ([]models.MenuAssignment, error)
	CreateAssignment(ctx context.Context, a models.MenuAssignment) (models.MenuAssignment, error)
	UpdateAssignment(ctx context.Context, a models.MenuAssignment) (models.MenuAssignment, error)
	DeleteAssignment(ctx context.Context, id int64) error
}

// AssignmentStore is the store of menu assignments for a date range. It is
// the only collection with a hard delete.
type AssignmentStore struct {
	*Store[models.MenuAssignment]

	api      AssignmentAPI
	rangeMu  sync.RWMutex
	from, to string
}

// NewAssignmentStore creates the assignment store.
func NewAssignmentStore(a AssignmentAPI) *AssignmentStore {
	s := &AssignmentStore{api: a}
	s.Store = NewStore[models.MenuAssignment]("asignaciones", Funcs[models.MenuAssignment]{
		ListFn: func(ctx context.Context) ([]models.MenuAssignment, error) {
			from, to := s.Range()
			return a.ListAssignments(ctx, from, to)
		},
		CreateFn: a.CreateAssignment,
		UpdateFn: a.UpdateAssignment,
	}, Messages{
		Created: "Menú asignado",
		Updated: "Asignación actualizada",
		Deleted: "Asignación eliminada",
	}, nil)
	return s
}

// SetRange sets the dates the next Fetch covers.
func (s *AssignmentStore) SetRange(from, to string) {
	s.rangeMu.Lock()
	s.from, s.to = from, to
	s.rangeMu.Unlock()
}

// Range returns the current date range.
func (s *AssignmentStore) Range() (from, to string) {
	s.rangeMu.RLock()
	defer s.rangeMu.RUnlock()
	return s.from, s.to
}

// Remove hard-deletes the assignment and drops it from memory by id,
// leaving the other items and their order untouched. No refetch.
func (s *AssignmentStore) Remove(ctx context.Context, id int64) error {
	s.begin()
	if err := s.api.DeleteAssignment(ctx, id); err != nil {
		s.fail(err)
		return err
	}

	s.replace(func(items []models.MenuAssignment) []models.MenuAssignment {
		out := make([]models.MenuAssignment, 0, len(items))
		for _, a := range items {
			if a.ID != id {
				out = append(out, a)
			}
		}
		return out
	})
	s.succeed(s.messages.Deleted)
	return nil
}
