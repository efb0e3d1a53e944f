package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/tasktracker/internal/domain"
	"github.com/mkrupp/tasktracker/internal/infra/database"
	"github.com/mkrupp/tasktracker/internal/infra/logging"
)

// SQLTaskRepository implements Repository on top of a shared database pool.
type SQLTaskRepository struct {
	db  *database.DB
	log logging.Logger
}

var _ Repository = (*SQLTaskRepository)(nil)

// SQLTaskRepositoryFactory creates a factory function that returns a new SQLTaskRepository.
func SQLTaskRepositoryFactory(db *database.DB) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLTaskRepository(db)
	}
}

// NewSQLTaskRepository creates a new SQLTaskRepository backed by db.
func NewSQLTaskRepository(db *database.DB) (*SQLTaskRepository, error) {
	if db == nil {
		return nil, errors.New("nil database")
	}

	return &SQLTaskRepository{
		db: db,
		log: logging.GetLogger("repo.task.sql_task_repository").With(
			logging.Group("db", "driver", db.Dialect.Name()),
		),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                        domain.Task
		dueDate, createdAt, updated database.Timestamp
	)

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.Status,
		&dueDate,
		&createdAt,
		&updated,
		&task.UserID,
		&task.AssignedTo,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrTaskNotFound, err)
		}

		return nil, err
	}

	task.DueDate = dueDate.Ptr()
	task.CreatedAt = createdAt.Time
	task.UpdatedAt = updated.Time

	return &task, nil
}

func (r *SQLTaskRepository) placeholders(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = r.db.Dialect.Placeholder(i + 1)
	}

	return out
}

// CreateTask implements Repository.CreateTask.
func (r *SQLTaskRepository) CreateTask(ctx context.Context, task domain.Task) error {
	unlock := r.db.LockWrites()
	defer unlock()

	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO tasks ("+taskColumns+") VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)",
			r.placeholders(10)...),
		task.ID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		utcPtr(task.DueDate),
		task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(),
		task.UserID,
		task.AssignedTo,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	r.log.DebugContext(ctx, "task inserted", "task.id", task.ID)

	return nil
}

// GetTask implements Repository.GetTask.
func (r *SQLTaskRepository) GetTask(ctx context.Context, id domain.TaskID) (*domain.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = "+r.db.Dialect.Placeholder(1),
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}

	return task, nil
}

// ListTasks implements Repository.ListTasks with a single query.
func (r *SQLTaskRepository) ListTasks(
	ctx context.Context,
	owner int64,
	filter domain.TaskFilter,
) (_ []domain.Task, err error) {
	query := newListQuery(r.db.Dialect, owner, filter)

	rows, err := r.db.QueryContext(ctx, query.SQL(), query.Args()...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	defer func() {
		err = errors.Join(err, rows.Close())
	}()

	tasks := make([]domain.Task, 0)

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}

		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// UpdateTask implements Repository.UpdateTask with a single statement.
func (r *SQLTaskRepository) UpdateTask(
	ctx context.Context,
	id domain.TaskID,
	owner int64,
	in domain.TaskInput,
	now time.Time,
) (*domain.Task, error) {
	in = in.Normalize()

	unlock := r.db.LockWrites()
	defer unlock()

	task, err := scanTask(r.db.QueryRowContext(ctx,
		fmt.Sprintf("UPDATE tasks SET title = %s, description = %s, priority = %s, status = %s, due_date = %s, "+
			"updated_at = %s WHERE id = %s AND user_id = %s RETURNING "+taskColumns,
			r.placeholders(8)...),
		in.Title,
		in.Description,
		in.Priority,
		in.Status,
		utcPtr(in.DueDate),
		now.UTC(),
		id,
		owner,
	))
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	return task, nil
}

// AssignTask implements Repository.AssignTask with a single statement.
func (r *SQLTaskRepository) AssignTask(
	ctx context.Context,
	id domain.TaskID,
	owner int64,
	assignee *int64,
	now time.Time,
) (*domain.Task, error) {
	unlock := r.db.LockWrites()
	defer unlock()

	task, err := scanTask(r.db.QueryRowContext(ctx,
		fmt.Sprintf("UPDATE tasks SET assigned_to = %s, updated_at = %s WHERE id = %s AND user_id = %s RETURNING "+
			taskColumns, r.placeholders(4)...),
		assignee,
		now.UTC(),
		id,
		owner,
	))
	if err != nil {
		if r.db.Dialect.ForeignKeyViolation(err) {
			err = errors.Join(domain.ErrAssigneeNotFound, err)
		}

		return nil, fmt.Errorf("assign task: %w", err)
	}

	return task, nil
}

// DeleteTask implements Repository.DeleteTask with a single statement.
func (r *SQLTaskRepository) DeleteTask(ctx context.Context, id domain.TaskID, owner int64) error {
	unlock := r.db.LockWrites()
	defer unlock()

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM tasks WHERE id = %s AND user_id = %s", r.placeholders(2)...),
		id,
		owner,
	)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	utc := t.UTC()

	return &utc
}
