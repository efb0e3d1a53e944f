// Package tasksvc implements the task endpoints. Every operation acts on behalf of
// the subject carried in the context and only ever touches that subject's tasks.
package tasksvc

import (
	"context"

	"github.com/mkrupp/tasktracker/internal/domain"
)

// TaskService defines the interface for managing the caller's tasks.
// The caller is the authenticated subject in ctx; without one every method
// fails with ErrNoAuthToken.
type TaskService interface {
	// List returns the caller's tasks matching filter, newest first.
	List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error)

	// Create stores a new task owned by the caller.
	// Returns a ValidationError for invalid input.
	Create(ctx context.Context, in domain.TaskInput) (*domain.Task, error)

	// Get returns one of the caller's tasks.
	// Returns ErrTaskNotFound if it does not exist or belongs to someone else.
	Get(ctx context.Context, id domain.TaskID) (*domain.Task, error)

	// Update replaces the mutable fields of one of the caller's tasks.
	Update(ctx context.Context, id domain.TaskID, in domain.TaskInput) (*domain.Task, error)

	// Delete removes one of the caller's tasks.
	Delete(ctx context.Context, id domain.TaskID) error

	// Assign sets the assignee of one of the caller's tasks; nil clears it.
	// Returns ErrAssigneeNotFound if the assignee does not exist.
	Assign(ctx context.Context, id domain.TaskID, assignee *int64) (*domain.Task, error)
}
