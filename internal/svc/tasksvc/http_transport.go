package tasksvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mkrupp/tasktracker/internal/domain"
	"github.com/mkrupp/tasktracker/internal/infra/logging"
	http_ "github.com/mkrupp/tasktracker/internal/infra/transport/http"
)

// URLTaskIDParam is the path wildcard holding the task id.
const URLTaskIDParam = "task_id"

// HTTPTransport handles HTTP requests for the task service.
type HTTPTransport struct {
	taskSvc TaskService
	handler http.Handler
	log     logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance.
// It requires a TaskService for the business logic and a TokenVerifier for authentication.
func NewHTTPTransport(taskSvc TaskService, verifier http_.TokenVerifier) *HTTPTransport {
	ht := &HTTPTransport{
		taskSvc: taskSvc,
		log:     logging.GetLogger("svc.tasksvc.http_transport"),
	}

	taskPath := fmt.Sprintf("/api/tasks/{%s}", URLTaskIDParam)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks", ht.HandleList)
	mux.HandleFunc("POST /api/tasks", ht.HandleCreate)
	mux.HandleFunc("GET "+taskPath, ht.HandleGet)
	mux.HandleFunc("PUT "+taskPath, ht.HandleUpdate)
	mux.HandleFunc("DELETE "+taskPath, ht.HandleDelete)
	mux.HandleFunc("POST "+taskPath+"/assign", ht.HandleAssign)

	ht.handler = http_.AuthorizingMiddleware(mux, verifier, ht.log)

	return ht
}

// ServeHTTP implements http.Handler and routes the task endpoints:
// - GET /api/tasks: List the caller's tasks, narrowed by query filters
// - POST /api/tasks: Create a task
// - GET /api/tasks/{task_id}: Fetch a task
// - PUT /api/tasks/{task_id}: Replace a task's fields
// - DELETE /api/tasks/{task_id}: Delete a task
// - POST /api/tasks/{task_id}/assign: Set or clear a task's assignee
// Routes are protected by authentication middleware.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.handler.ServeHTTP(w, r)
}

func (ht *HTTPTransport) requestLog(r *http.Request) logging.Logger {
	return ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
}

func (ht *HTTPTransport) logResult(ctx context.Context, log logging.Logger, msg string, err error) {
	if err != nil {
		log.DebugContext(ctx, msg+" rejected", "error", err)
	} else {
		log.DebugContext(ctx, msg)
	}
}

// HandleList processes task listing requests.
// Accepts the optional query parameters status, priority, assigned_to and search.
func (ht *HTTPTransport) HandleList(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleList(w, r)
}

func (ht *HTTPTransport) handleList(w http.ResponseWriter, r *http.Request) (err error) {
	defer func(ctx context.Context) { ht.logResult(ctx, ht.requestLog(r), "tasks listed", err) }(r.Context())

	filter, err := domain.ParseTaskFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("parse filter: %w", err)
	}

	tasks, err := ht.taskSvc.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("list tasks: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, tasks)
}

// HandleCreate processes task creation requests.
func (ht *HTTPTransport) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCreate(w, r)
}

func (ht *HTTPTransport) handleCreate(w http.ResponseWriter, r *http.Request) (err error) {
	defer func(ctx context.Context) { ht.logResult(ctx, ht.requestLog(r), "task created", err) }(r.Context())

	var in domain.TaskInput
	if err := http_.DecodeJSON(r, &in); err != nil {
		writeError(w, err)

		return err
	}

	tsk, err := ht.taskSvc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("create task: %w", err)
	}

	return http_.WriteJSON(w, http.StatusCreated, tsk)
}

// HandleGet processes task fetch requests.
func (ht *HTTPTransport) HandleGet(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGet(w, r)
}

func (ht *HTTPTransport) handleGet(w http.ResponseWriter, r *http.Request) (err error) {
	defer func(ctx context.Context) { ht.logResult(ctx, ht.requestLog(r), "task fetched", err) }(r.Context())

	id, err := domain.ParseTaskID(r.PathValue(URLTaskIDParam))
	if err != nil {
		writeError(w, err)

		return err
	}

	tsk, err := ht.taskSvc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("get task: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, tsk)
}

// HandleUpdate processes task update requests.
func (ht *HTTPTransport) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleUpdate(w, r)
}

func (ht *HTTPTransport) handleUpdate(w http.ResponseWriter, r *http.Request) (err error) {
	defer func(ctx context.Context) { ht.logResult(ctx, ht.requestLog(r), "task updated", err) }(r.Context())

	id, err := domain.ParseTaskID(r.PathValue(URLTaskIDParam))
	if err != nil {
		writeError(w, err)

		return err
	}

	var in domain.TaskInput
	if err := http_.DecodeJSON(r, &in); err != nil {
		writeError(w, err)

		return err
	}

	tsk, err := ht.taskSvc.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("update task: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, tsk)
}

// HandleDelete processes task deletion requests.
func (ht *HTTPTransport) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleDelete(w, r)
}

func (ht *HTTPTransport) handleDelete(w http.ResponseWriter, r *http.Request) (err error) {
	defer func(ctx context.Context) { ht.logResult(ctx, ht.requestLog(r), "task deleted", err) }(r.Context())

	id, err := domain.ParseTaskID(r.PathValue(URLTaskIDParam))
	if err != nil {
		writeError(w, err)

		return err
	}

	if err := ht.taskSvc.Delete(r.Context(), id); err != nil {
		writeError(w, err)

		return fmt.Errorf("delete task: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// HandleAssign processes task assignment requests.
// Expects a JSON body {"assignee_id": <user id or null>}.
func (ht *HTTPTransport) HandleAssign(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleAssign(w, r)
}

func (ht *HTTPTransport) handleAssign(w http.ResponseWriter, r *http.Request) (err error) {
	defer func(ctx context.Context) { ht.logResult(ctx, ht.requestLog(r), "task assigned", err) }(r.Context())

	id, err := domain.ParseTaskID(r.PathValue(URLTaskIDParam))
	if err != nil {
		writeError(w, err)

		return err
	}

	var req domain.AssignTaskRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		writeError(w, err)

		return err
	}

	tsk, err := ht.taskSvc.Assign(r.Context(), id, req.AssigneeID)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("assign task: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, tsk)
}

func writeError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &validationErr) && errors.Is(err, domain.ErrInvalidFilterValue):
		http_.WriteError(w, http.StatusBadRequest, "invalid filter", validationErr.Fields)
	case errors.As(err, &validationErr):
		http_.WriteError(w, http.StatusUnprocessableEntity, "validation failed", validationErr.Fields)
	case errors.Is(err, http_.ErrMalformedBody):
		http_.WriteError(w, http.StatusBadRequest, "malformed request body", nil)
	case errors.Is(err, domain.ErrTaskNotFound):
		http_.WriteError(w, http.StatusNotFound, "task not found", nil)
	case errors.Is(err, domain.ErrAssigneeNotFound):
		http_.WriteError(w, http.StatusBadRequest, "assignee not found", nil)
	case errors.Is(err, domain.ErrNoAuthToken):
		http_.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
	default:
		http_.WriteError(w, http.StatusInternalServerError, "internal server error", nil)
	}
}
