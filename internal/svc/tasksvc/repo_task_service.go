package tasksvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/tasktracker/internal/domain"
	context_ "github.com/mkrupp/tasktracker/internal/infra/context"
	"github.com/mkrupp/tasktracker/internal/infra/logging"
	"github.com/mkrupp/tasktracker/internal/repo/task"
	"github.com/mkrupp/tasktracker/internal/repo/user"
)

// RepoTaskService implements TaskService on top of the task and user repositories.
type RepoTaskService struct {
	taskRepo task.Repository
	userRepo user.Repository
	now      func() time.Time
	newID    func() (domain.TaskID, error)
	log      logging.Logger
}

var _ TaskService = (*RepoTaskService)(nil)

// NewRepoTaskService creates a new RepoTaskService.
// Returns an error if either repository cannot be created.
func NewRepoTaskService(
	taskRepoFactory task.RepositoryFactory,
	userRepoFactory user.RepositoryFactory,
) (*RepoTaskService, error) {
	taskRepo, err := taskRepoFactory()
	if err != nil {
		return nil, fmt.Errorf("new task repo: %w", err)
	}

	userRepo, err := userRepoFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &RepoTaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		now:      time.Now,
		newID:    domain.NewTaskID,
		log:      logging.GetLogger("svc.tasksvc.repo_task_service"),
	}, nil
}

// WithLogger replaces the service logger.
func (svc *RepoTaskService) WithLogger(log logging.Logger) *RepoTaskService {
	svc.log = log

	return svc
}

// WithClock replaces the time source. Used by tests.
func (svc *RepoTaskService) WithClock(now func() time.Time) *RepoTaskService {
	svc.now = now

	return svc
}

func subject(ctx context.Context) (int64, error) {
	subject, ok := context_.SubjectFromContext(ctx)
	if !ok {
		return 0, domain.ErrNoAuthToken
	}

	return subject, nil
}

// authorize fetches the task and checks that the caller owns it.
// A task owned by someone else is reported as ErrTaskNotFound joined with ErrForbidden.
func (svc *RepoTaskService) authorize(ctx context.Context, id domain.TaskID) (*domain.Task, int64, error) {
	owner, err := subject(ctx)
	if err != nil {
		return nil, 0, err
	}

	tsk, err := svc.taskRepo.GetTask(ctx, id)
	if err != nil {
		return nil, 0, fmt.Errorf("get task: %w", err)
	}

	if tsk.UserID != owner {
		svc.log.WarnContext(ctx, "task access denied", logging.Group("task", "id", id, "owner", tsk.UserID))

		return nil, 0, errors.Join(domain.ErrTaskNotFound, domain.ErrForbidden)
	}

	return tsk, owner, nil
}

// List implements TaskService.List.
func (svc *RepoTaskService) List(ctx context.Context, filter domain.TaskFilter) (_ []domain.Task, err error) {
	log := svc.log

	defer func() { logResult(ctx, log, "list tasks failed", "tasks listed", err) }()

	owner, err := subject(ctx)
	if err != nil {
		return nil, err
	}

	tasks, err := svc.taskRepo.ListTasks(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	log = log.With("count", len(tasks))

	return tasks, nil
}

// Create implements TaskService.Create.
func (svc *RepoTaskService) Create(ctx context.Context, in domain.TaskInput) (_ *domain.Task, err error) {
	log := svc.log

	defer func() { logResult(ctx, log, "create task failed", "task created", err) }()

	owner, err := subject(ctx)
	if err != nil {
		return nil, err
	}

	if err := in.Validate(); err != nil {
		return nil, err
	}

	id, err := svc.newID()
	if err != nil {
		return nil, fmt.Errorf("new task id: %w", err)
	}

	log = log.With(logging.Group("task", "id", id))

	tsk := domain.NewTask(id, in, owner, svc.now().UTC())
	if err := svc.taskRepo.CreateTask(ctx, tsk); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return &tsk, nil
}

// Get implements TaskService.Get.
func (svc *RepoTaskService) Get(ctx context.Context, id domain.TaskID) (_ *domain.Task, err error) {
	log := svc.log.With(logging.Group("task", "id", id))

	defer func() { logResult(ctx, log, "get task failed", "task fetched", err) }()

	tsk, _, err := svc.authorize(ctx, id)
	if err != nil {
		return nil, err
	}

	return tsk, nil
}

// Update implements TaskService.Update.
func (svc *RepoTaskService) Update(
	ctx context.Context,
	id domain.TaskID,
	in domain.TaskInput,
) (_ *domain.Task, err error) {
	log := svc.log.With(logging.Group("task", "id", id))

	defer func() { logResult(ctx, log, "update task failed", "task updated", err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	_, owner, err := svc.authorize(ctx, id)
	if err != nil {
		return nil, err
	}

	tsk, err := svc.taskRepo.UpdateTask(ctx, id, owner, in, svc.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	return tsk, nil
}

// Delete implements TaskService.Delete.
func (svc *RepoTaskService) Delete(ctx context.Context, id domain.TaskID) (err error) {
	log := svc.log.With(logging.Group("task", "id", id))

	defer func() { logResult(ctx, log, "delete task failed", "task deleted", err) }()

	_, owner, err := svc.authorize(ctx, id)
	if err != nil {
		return err
	}

	if err := svc.taskRepo.DeleteTask(ctx, id, owner); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	return nil
}

// Assign implements TaskService.Assign.
func (svc *RepoTaskService) Assign(
	ctx context.Context,
	id domain.TaskID,
	assignee *int64,
) (_ *domain.Task, err error) {
	log := svc.log.With(logging.Group("task", "id", id))

	defer func() { logResult(ctx, log, "assign task failed", "task assigned", err) }()

	_, owner, err := svc.authorize(ctx, id)
	if err != nil {
		return nil, err
	}

	if assignee != nil {
		log = log.With(logging.Group("assignee", "id", *assignee))

		if _, err := svc.userRepo.GetUserByID(ctx, *assignee); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, errors.Join(domain.ErrAssigneeNotFound, err)
			}

			return nil, fmt.Errorf("get assignee: %w", err)
		}
	}

	tsk, err := svc.taskRepo.AssignTask(ctx, id, owner, assignee, svc.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("assign task: %w", err)
	}

	return tsk, nil
}

// logResult logs the outcome of an operation. Outcomes caused by the caller, such as
// unknown or foreign tasks and invalid input, stay at debug level; the rest are errors.
func logResult(ctx context.Context, log logging.Logger, failed, done string, err error) {
	switch {
	case err == nil:
		log.DebugContext(ctx, done)
	case errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrAssigneeNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNoAuthToken):
		log.DebugContext(ctx, failed, "error", err)
	default:
		log.ErrorContext(ctx, failed, "error", err)
	}
}
