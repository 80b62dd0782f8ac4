package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/taskquery"
)

// TaskStore persists tasks. Every method is scoped to userID; a task owned by
// another user behaves as if it did not exist.
type TaskStore interface {
	// List returns one page of the user's tasks matching filter, newest
	// first, together with the total number of matching tasks.
	// Returns a *domain.ValidationError for malformed filters.
	List(ctx context.Context, userID uuid.UUID, filter taskquery.Filter) ([]*domain.Task, int64, error)

	// GetByID returns ErrTaskNotFound when the task does not exist.
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error)

	// Create inserts a new task.
	Create(ctx context.Context, task *domain.Task) error

	// Update applies the provided fields and returns the task as stored
	// afterwards. Returns ErrTaskNotFound when nothing matched.
	Update(ctx context.Context, id, userID uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// Delete removes the task. Returns ErrTaskNotFound when nothing matched.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// Stats aggregates the user's tasks.
	Stats(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error)
}
