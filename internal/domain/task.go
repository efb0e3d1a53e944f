package domain

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTaskNotFound is returned when no task with the given ID exists for the caller.
	ErrTaskNotFound = errors.New("task not found")
	// ErrForbidden is joined with ErrTaskNotFound when the task exists but belongs to another user.
	// Callers outside the service only ever observe ErrTaskNotFound.
	ErrForbidden = errors.New("task owned by another user")
	// ErrAssigneeNotFound is returned when assigning a task to a user that does not exist.
	ErrAssigneeNotFound = errors.New("assignee not found")
)

// TaskID is the server-generated identifier of a task.
type TaskID = uuid.UUID

// NewTaskID returns a new time-ordered task identifier.
func NewTaskID() (TaskID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return TaskID{}, fmt.Errorf("new uuid: %w", err)
	}

	return id, nil
}

// ParseTaskID decodes a task identifier from its textual form.
// Any malformed identifier is reported as ErrTaskNotFound.
func ParseTaskID(s string) (TaskID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TaskID{}, errors.Join(ErrTaskNotFound, fmt.Errorf("parse task id: %w", err))
	}

	return id, nil
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          TaskID        `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Priority    *TaskPriority `json:"priority"`
	Status      TaskStatus    `json:"status"`
	DueDate     *time.Time    `json:"due_date"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	UserID      int64         `json:"user_id"`
	AssignedTo  *int64        `json:"assigned_to"`
}

// TaskInput holds the client-mutable fields of a task.
// Owner and ID are not part of it, so request payloads cannot set them.
type TaskInput struct {
	Title       string        `json:"title"       validate:"required,max=200"`
	Description *string       `json:"description" validate:"omitempty,max=1000"`
	Priority    *TaskPriority `json:"priority"`
	Status      TaskStatus    `json:"status"`
	DueDate     *time.Time    `json:"due_date"`
}

// Normalize applies defaults to the input. A missing status becomes todo.
func (in TaskInput) Normalize() TaskInput {
	if in.Status == "" {
		in.Status = TaskStatusTodo
	}

	return in
}

// Validate checks the input with defaults applied.
// Returns a *ValidationError describing every failing field, or nil.
func (in TaskInput) Validate() error {
	fields := make(map[string]string)

	var validationErr *ValidationError
	if err := Validate(in); errors.As(err, &validationErr) {
		maps.Copy(fields, validationErr.Fields)
	} else if err != nil {
		return err
	}

	if !in.Normalize().Status.Valid() {
		fields["status"] = statusFieldMessage
	}

	if in.Priority != nil && !in.Priority.Valid() {
		fields["priority"] = priorityFieldMessage
	}

	if len(fields) > 0 {
		return NewValidationError(nil, fields)
	}

	return nil
}

// NewTask creates a task from the input, owned by userID.
func NewTask(id TaskID, in TaskInput, userID int64, now time.Time) Task {
	in = in.Normalize()

	return Task{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      in.Status,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      userID,
		AssignedTo:  nil,
	}
}

// AssignTaskRequest is the payload accepted by the assign endpoint.
// A null assignee clears the current assignment.
type AssignTaskRequest struct {
	AssigneeID *int64 `json:"assignee_id"`
}
