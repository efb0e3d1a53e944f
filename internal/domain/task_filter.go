package domain

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidFilterValue is returned when a list filter parameter cannot be accepted.
var ErrInvalidFilterValue = errors.New("invalid filter value")

// Query parameter names understood by ParseTaskFilter.
const (
	FilterParamStatus     = "status"
	FilterParamPriority   = "priority"
	FilterParamAssignedTo = "assigned_to"
	FilterParamSearch     = "search"
)

// TaskFilter narrows a task listing. Nil fields impose no constraint.
// The owner constraint is not part of the filter; it is always supplied separately.
type TaskFilter struct {
	Status     *TaskStatus
	Priority   *TaskPriority
	AssignedTo *int64
	Search     *string
}

// ParseTaskFilter builds a TaskFilter from list query parameters.
// Empty parameters are treated as absent and unknown parameters are ignored.
// Enum tokens outside the closed domain fail with a ValidationError wrapping ErrInvalidFilterValue.
func ParseTaskFilter(values url.Values) (TaskFilter, error) {
	var (
		filter TaskFilter
		fields = make(map[string]string)
	)

	if raw := values.Get(FilterParamStatus); raw != "" {
		status, err := ParseTaskStatus(raw)
		if err != nil {
			fields[FilterParamStatus] = statusFieldMessage
		} else {
			filter.Status = &status
		}
	}

	if raw := values.Get(FilterParamPriority); raw != "" {
		priority, err := ParseTaskPriority(raw)
		if err != nil {
			fields[FilterParamPriority] = priorityFieldMessage
		} else {
			filter.Priority = &priority
		}
	}

	if raw := values.Get(FilterParamAssignedTo); raw != "" {
		assignee, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fields[FilterParamAssignedTo] = "must be a user id"
		} else {
			filter.AssignedTo = &assignee
		}
	}

	if raw := strings.TrimSpace(values.Get(FilterParamSearch)); raw != "" {
		filter.Search = &raw
	}

	if len(fields) > 0 {
		return TaskFilter{}, NewValidationError(ErrInvalidFilterValue, fields)
	}

	return filter, nil
}
