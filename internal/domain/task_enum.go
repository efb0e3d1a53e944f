package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// ErrInvalidEnumValue is returned when a status or priority token is outside its closed domain.
var ErrInvalidEnumValue = errors.New("invalid enum value")

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
)

// TaskStatuses lists every valid TaskStatus in workflow order.
//
//nolint:gochecknoglobals
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone}

// ParseTaskStatus converts a wire token into a TaskStatus.
// Returns ErrInvalidEnumValue for anything outside the closed domain.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: status %q", ErrInvalidEnumValue, s)
	}

	return status, nil
}

// Valid reports whether s is one of the defined statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone:
		return true
	default:
		return false
	}
}

func (s TaskStatus) String() string {
	return string(s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Unknown tokens fail with a ValidationError for the status field.
func (s *TaskStatus) UnmarshalText(text []byte) error {
	status, err := ParseTaskStatus(string(text))
	if err != nil {
		return NewValidationError(err, map[string]string{"status": statusFieldMessage})
	}

	*s = status

	return nil
}

// Value implements driver.Valuer. Invalid values never reach the store.
func (s TaskStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidEnumValue, string(s))
	}

	return string(s), nil
}

// Scan implements sql.Scanner.
func (s *TaskStatus) Scan(src any) error {
	text, err := scanEnumText(src)
	if err != nil {
		return fmt.Errorf("scan status: %w", err)
	}

	status, err := ParseTaskStatus(string(text))
	if err != nil {
		return fmt.Errorf("scan status: %w", err)
	}

	*s = status

	return nil
}

const (
	statusFieldMessage   = "must be one of todo, in_progress, review, done"
	priorityFieldMessage = "must be one of low, medium, high, urgent"
)

// TaskPriority is the urgency of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// TaskPriorities lists every valid TaskPriority from lowest to highest.
//
//nolint:gochecknoglobals
var TaskPriorities = []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent}

// ParseTaskPriority converts a wire token into a TaskPriority.
// Returns ErrInvalidEnumValue for anything outside the closed domain.
func ParseTaskPriority(s string) (TaskPriority, error) {
	priority := TaskPriority(s)
	if !priority.Valid() {
		return "", fmt.Errorf("%w: priority %q", ErrInvalidEnumValue, s)
	}

	return priority, nil
}

// Valid reports whether p is one of the defined priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	default:
		return false
	}
}

func (p TaskPriority) String() string {
	return string(p)
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Unknown tokens fail with a ValidationError for the priority field.
func (p *TaskPriority) UnmarshalText(text []byte) error {
	priority, err := ParseTaskPriority(string(text))
	if err != nil {
		return NewValidationError(err, map[string]string{"priority": priorityFieldMessage})
	}

	*p = priority

	return nil
}

// Value implements driver.Valuer. Invalid values never reach the store.
func (p TaskPriority) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: priority %q", ErrInvalidEnumValue, string(p))
	}

	return string(p), nil
}

// Scan implements sql.Scanner.
func (p *TaskPriority) Scan(src any) error {
	text, err := scanEnumText(src)
	if err != nil {
		return fmt.Errorf("scan priority: %w", err)
	}

	priority, err := ParseTaskPriority(string(text))
	if err != nil {
		return fmt.Errorf("scan priority: %w", err)
	}

	*p = priority

	return nil
}

func scanEnumText(src any) ([]byte, error) {
	switch v := src.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidEnumValue, src)
	}
}
