package task_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkrupp/tasktracker/internal/domain"
	"github.com/mkrupp/tasktracker/internal/infra/database"
	"github.com/mkrupp/tasktracker/internal/repo/task"
	"github.com/mkrupp/tasktracker/internal/repo/user"
)

type fixture struct {
	repo  task.Repository
	alice int64
	bob   int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "tasks.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	users, err := user.NewSQLUserRepository(db)
	if err != nil {
		t.Fatalf("new user repo: %v", err)
	}

	alice, err := users.CreateUser(ctx, "alice", "alice@example.com", "x")
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}

	bob, err := users.CreateUser(ctx, "bob", "bob@example.com", "x")
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}

	repo, err := task.SQLTaskRepositoryFactory(db)()
	if err != nil {
		t.Fatalf("new task repo: %v", err)
	}

	return fixture{repo: repo, alice: alice, bob: bob}
}

func (f fixture) create(t *testing.T, owner int64, in domain.TaskInput, createdAt time.Time) domain.Task {
	t.Helper()

	id, err := domain.NewTaskID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}

	tsk := domain.NewTask(id, in, owner, createdAt)
	if err := f.repo.CreateTask(context.Background(), tsk); err != nil {
		t.Fatalf("create task: %v", err)
	}

	return tsk
}

func ptr[T any](v T) *T { return &v }

func TestCreateAndGetTask(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(48 * time.Hour)

	created := f.create(t, f.alice, domain.TaskInput{
		Title:       "Buy milk",
		Description: ptr("two litres"),
		Priority:    ptr(domain.TaskPriorityHigh),
		DueDate:     &due,
	}, now)

	got, err := f.repo.GetTask(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}

	if got.ID != created.ID || got.Title != "Buy milk" || got.UserID != f.alice {
		t.Errorf("unexpected task: %+v", got)
	}

	if got.Status != domain.TaskStatusTodo {
		t.Errorf("expected status todo, got %q", got.Status)
	}

	if got.Priority == nil || *got.Priority != domain.TaskPriorityHigh {
		t.Errorf("expected priority high, got %v", got.Priority)
	}

	if got.Description == nil || *got.Description != "two litres" {
		t.Errorf("expected description, got %v", got.Description)
	}

	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("expected due date %v, got %v", due, got.DueDate)
	}

	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Errorf("expected timestamps %v, got %v / %v", now, got.CreatedAt, got.UpdatedAt)
	}

	if got.AssignedTo != nil {
		t.Errorf("expected no assignee, got %v", *got.AssignedTo)
	}

	missing, _ := domain.NewTaskID()
	if _, err := f.repo.GetTask(context.Background(), missing); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestListTasksIsScopedToOwner(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	older := f.create(t, f.alice, domain.TaskInput{Title: "Buy milk"}, base)
	newer := f.create(t, f.alice, domain.TaskInput{
		Title:    "Write report",
		Status:   domain.TaskStatusInProgress,
		Priority: ptr(domain.TaskPriorityUrgent),
	}, base.Add(time.Hour))
	f.create(t, f.bob, domain.TaskInput{Title: "Bob's milk"}, base)

	tests := []struct {
		name   string
		owner  int64
		filter domain.TaskFilter
		want   []domain.TaskID
	}{
		{"all of alice newest first", f.alice, domain.TaskFilter{}, []domain.TaskID{newer.ID, older.ID}},
		{"status todo", f.alice, domain.TaskFilter{Status: ptr(domain.TaskStatusTodo)}, []domain.TaskID{older.ID}},
		{"status done", f.alice, domain.TaskFilter{Status: ptr(domain.TaskStatusDone)}, nil},
		{"priority urgent", f.alice, domain.TaskFilter{Priority: ptr(domain.TaskPriorityUrgent)}, []domain.TaskID{newer.ID}},
		{"search is case insensitive", f.alice, domain.TaskFilter{Search: ptr("MILK")}, []domain.TaskID{older.ID}},
		{"wildcard is literal", f.alice, domain.TaskFilter{Search: ptr("%")}, nil},
		{"assigned to nobody matches", f.alice, domain.TaskFilter{AssignedTo: ptr(f.bob)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := f.repo.ListTasks(ctx, tt.owner, tt.filter)
			if err != nil {
				t.Fatalf("list tasks: %v", err)
			}

			if len(tasks) != len(tt.want) {
				t.Fatalf("expected %d tasks, got %d: %+v", len(tt.want), len(tasks), tasks)
			}

			for i, tsk := range tasks {
				if tsk.ID != tt.want[i] {
					t.Errorf("task %d: expected %v, got %v", i, tt.want[i], tsk.ID)
				}

				if tsk.UserID != tt.owner {
					t.Errorf("task %d belongs to %d, not %d", i, tsk.UserID, tt.owner)
				}
			}
		})
	}

	bobs, err := f.repo.ListTasks(ctx, f.bob, domain.TaskFilter{Search: ptr("milk")})
	if err != nil {
		t.Fatalf("list bob: %v", err)
	}

	if len(bobs) != 1 || bobs[0].Title != "Bob's milk" {
		t.Errorf("expected only bob's task, got %+v", bobs)
	}
}

func TestListTasksSearchFoldsUnicode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	cafe := f.create(t, f.alice, domain.TaskInput{Title: "Über Café"}, base)
	f.create(t, f.alice, domain.TaskInput{Title: "Plain", Description: ptr("ÅNGSTRÖM units")}, base.Add(time.Minute))

	tests := []struct {
		search string
		want   int
	}{
		{"über", 1},
		{"ÜBER", 1},
		{"CAFÉ", 1},
		{"ångström", 1},
		{"uber", 0},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			tasks, err := f.repo.ListTasks(ctx, f.alice, domain.TaskFilter{Search: ptr(tt.search)})
			if err != nil {
				t.Fatalf("list tasks: %v", err)
			}

			if len(tasks) != tt.want {
				t.Fatalf("expected %d tasks for %q, got %d: %+v", tt.want, tt.search, len(tasks), tasks)
			}
		})
	}

	tasks, err := f.repo.ListTasks(ctx, f.alice, domain.TaskFilter{Search: ptr("über")})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}

	if len(tasks) != 1 || tasks[0].ID != cafe.ID {
		t.Errorf("expected the café task, got %+v", tasks)
	}
}

func TestUpdateTaskIsScopedToOwner(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	later := base.Add(time.Hour)

	tsk := f.create(t, f.alice, domain.TaskInput{Title: "Buy milk", Priority: ptr(domain.TaskPriorityLow)}, base)

	in := domain.TaskInput{Title: "Buy oat milk", Status: domain.TaskStatusDone}

	if _, err := f.repo.UpdateTask(ctx, tsk.ID, f.bob, in, later); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound for bob, got %v", err)
	}

	updated, err := f.repo.UpdateTask(ctx, tsk.ID, f.alice, in, later)
	if err != nil {
		t.Fatalf("update task: %v", err)
	}

	if updated.Title != "Buy oat milk" || updated.Status != domain.TaskStatusDone {
		t.Errorf("unexpected update result: %+v", updated)
	}

	if updated.Priority != nil {
		t.Errorf("expected priority to be cleared, got %v", *updated.Priority)
	}

	if !updated.CreatedAt.Equal(base) || !updated.UpdatedAt.Equal(later) {
		t.Errorf("unexpected timestamps: created %v updated %v", updated.CreatedAt, updated.UpdatedAt)
	}

	if updated.UserID != f.alice {
		t.Errorf("owner changed to %d", updated.UserID)
	}
}

func TestAssignTask(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tsk := f.create(t, f.alice, domain.TaskInput{Title: "Buy milk"}, now)

	if _, err := f.repo.AssignTask(ctx, tsk.ID, f.bob, &f.bob, now); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound for bob, got %v", err)
	}

	assigned, err := f.repo.AssignTask(ctx, tsk.ID, f.alice, &f.bob, now)
	if err != nil {
		t.Fatalf("assign task: %v", err)
	}

	if assigned.AssignedTo == nil || *assigned.AssignedTo != f.bob {
		t.Errorf("expected assignee %d, got %v", f.bob, assigned.AssignedTo)
	}

	listed, err := f.repo.ListTasks(ctx, f.alice, domain.TaskFilter{AssignedTo: &f.bob})
	if err != nil || len(listed) != 1 {
		t.Errorf("expected one task assigned to bob, got %d (%v)", len(listed), err)
	}

	if _, err := f.repo.AssignTask(ctx, tsk.ID, f.alice, ptr(int64(999)), now); !errors.Is(err, domain.ErrAssigneeNotFound) {
		t.Errorf("expected ErrAssigneeNotFound, got %v", err)
	}

	cleared, err := f.repo.AssignTask(ctx, tsk.ID, f.alice, nil, now)
	if err != nil {
		t.Fatalf("clear assignee: %v", err)
	}

	if cleared.AssignedTo != nil {
		t.Errorf("expected assignee to be cleared, got %v", *cleared.AssignedTo)
	}
}

func TestDeleteTaskIsScopedToOwner(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	tsk := f.create(t, f.alice, domain.TaskInput{Title: "Buy milk"}, time.Now())

	if err := f.repo.DeleteTask(ctx, tsk.ID, f.bob); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound for bob, got %v", err)
	}

	if err := f.repo.DeleteTask(ctx, tsk.ID, f.alice); err != nil {
		t.Fatalf("delete task: %v", err)
	}

	if err := f.repo.DeleteTask(ctx, tsk.ID, f.alice); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound on repeated delete, got %v", err)
	}

	if _, err := f.repo.GetTask(ctx, tsk.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected deleted task to be gone, got %v", err)
	}
}
