// Package task persists tasks. Every mutating statement is scoped to the
// task id and its owner so a caller can never touch another user's rows.
package task

import (
	"context"
	"time"

	"github.com/mkrupp/tasktracker/internal/domain"
)

// Repository defines the interface for task persistence.
type Repository interface {
	// CreateTask inserts a new task.
	CreateTask(ctx context.Context, task domain.Task) error

	// GetTask retrieves a task by id regardless of its owner.
	// Returns ErrTaskNotFound if no such task exists.
	GetTask(ctx context.Context, id domain.TaskID) (*domain.Task, error)

	// ListTasks returns the tasks of owner matching filter, newest first.
	ListTasks(ctx context.Context, owner int64, filter domain.TaskFilter) ([]domain.Task, error)

	// UpdateTask replaces the mutable fields of the task owned by owner.
	// Returns ErrTaskNotFound if no such task exists for owner.
	UpdateTask(ctx context.Context, id domain.TaskID, owner int64, in domain.TaskInput, now time.Time) (*domain.Task, error)

	// AssignTask sets or, with a nil assignee, clears the assignee of the task owned by owner.
	// Returns ErrTaskNotFound if no such task exists for owner and
	// ErrAssigneeNotFound if the assignee does not exist.
	AssignTask(ctx context.Context, id domain.TaskID, owner int64, assignee *int64, now time.Time) (*domain.Task, error)

	// DeleteTask removes the task owned by owner.
	// Returns ErrTaskNotFound if no such task exists for owner.
	DeleteTask(ctx context.Context, id domain.TaskID, owner int64) error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)
