package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRepos(t *testing.T) (repository.UserRepository, repository.TaskRepository) {
	t.Helper()

	db := openTestDB(t)
	ctx := context.Background()

	users := NewUserRepository(db)
	if err := users.Init(ctx); err != nil {
		t.Fatalf("init users: %v", err)
	}
	tasks := NewTaskRepository(db)
	if err := tasks.Init(ctx); err != nil {
		t.Fatalf("init tasks: %v", err)
	}
	return users, tasks
}

func createTestUser(t *testing.T, users repository.UserRepository, email string) int64 {
	t.Helper()

	id, err := users.Create(context.Background(), &domain.User{
		Email:        email,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return id
}

func createTestTask(t *testing.T, tasks repository.TaskRepository, userID int64, title string) *domain.Task {
	t.Helper()

	task := &domain.Task{Title: title, UserID: userID}
	if _, err := tasks.Create(context.Background(), task); err != nil {
		t.Fatalf("create task %q: %v", title, err)
	}
	return task
}

func TestTaskCreateAndGet(t *testing.T) {
	users, tasks := newTestRepos(t)
	ctx := context.Background()
	owner := createTestUser(t, users, "owner@example.com")

	task := createTestTask(t, tasks, owner, "Buy milk")
	if task.ID == 0 {
		t.Fatal("expected server-assigned id")
	}
	if !task.UpdatedAt.Equal(task.CreatedAt) {
		t.Errorf("created_at %v != updated_at %v on fresh task", task.CreatedAt, task.UpdatedAt)
	}

	got, err := tasks.Get(ctx, task.ID, owner)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Buy milk" {
		t.Errorf("title: got %q", got.Title)
	}
	if got.Completed {
		t.Error("fresh task should not be completed")
	}
	if got.Description != nil {
		t.Errorf("description: got %q, want nil", *got.Description)
	}
	if got.UserID != owner {
		t.Errorf("user id: got %d, want %d", got.UserID, owner)
	}
}

func TestTaskGetMissClassification(t *testing.T) {
	users, tasks := newTestRepos(t)
	ctx := context.Background()
	owner := createTestUser(t, users, "owner@example.com")
	other := createTestUser(t, users, "other@example.com")

	task := createTestTask(t, tasks, owner, "Private")

	if _, err := tasks.Get(ctx, task.ID, other); !errors.Is(err, repository.ErrNotOwner) {
		t.Errorf("other user's get: got %v, want ErrNotOwner", err)
	}
	if _, err := tasks.Get(ctx, 9999, owner); !errors.Is(err, repository.ErrTaskNotFound) {
		t.Errorf("missing id: got %v, want ErrTaskNotFound", err)
	}
}

func TestTaskListScopedAndOrdered(t *testing.T) {
	users, tasks := newTestRepos(t)
	ctx := context.Background()
	alice := createTestUser(t, users, "alice@example.com")
	bob := createTestUser(t, users, "bob@example.com")

	first := createTestTask(t, tasks, alice, "first")
	second := createTestTask(t, tasks, alice, "second")
	createTestTask(t, tasks, bob, "bobs")

	list, err := tasks.List(ctx, alice, domain.TaskFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list length: got %d, want 2", len(list))
	}
	// Newest first.
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("order: got [%d %d], want [%d %d]", list[0].ID, list[1].ID, second.ID, first.ID)
	}
	for _, task := range list {
		if task.UserID != alice {
			t.Errorf("task %d leaked from user %d into alice's list", task.ID, task.UserID)
		}
	}
}

func TestTaskListCompletedFilter(t *testing.T) {
	users, tasks := newTestRepos(t)
	ctx := context.Background()
	owner := createTestUser(t, users, "owner@example.com")

	open := createTestTask(t, tasks, owner, "open")
	done := createTestTask(t, tasks, owner, "done")
	if _, err := tasks.ToggleCompleted(ctx, done.ID, owner); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	completed := true
	list, err := tasks.List(ctx, owner, domain.TaskFilter{Completed: &completed})
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(list) != 1 || list[0].ID != done.ID {
		t.Fatalf("completed filter: got %d entries", len(list))
	}

	completed = false
	list, err = tasks.List(ctx, owner, domain.TaskFilter{Completed: &completed})
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(list) != 1 || list[0].ID != open.ID {
		t.Fatalf("open filter: got %d entries", len(list))
	}
}

func TestTaskApplyPatch(t *testing.T) {
	users, tasks := newTestRepos(t)
	ctx := context.Background()
	owner := createTestUser(t, users, "owner@example.com")

	desc := "details"
	task := &domain.Task{Title: "orig", Description: &desc, UserID: owner}
	if _, err := tasks.Create(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := tasks.ApplyPatch(ctx, task.ID, owner, domain.TaskPatch{
		Title: domain.NewField("renamed"),
	})
	if err != nil {
		t.Fatalf("patch title: %v", err)
	}
	if updated.Title != "renamed" {
		t.Errorf("title: got %q", updated.Title)
	}
	if updated.Description == nil || *updated.Description != "details" {
		t.Error("untouched description should survive a title-only patch")
	}
	if !updated.UpdatedAt.After(task.CreatedAt) {
		t.Errorf("updated_at %v not after created_at %v", updated.UpdatedAt, task.CreatedAt)
	}

	// Explicit null clears the description.
	updated, err = tasks.ApplyPatch(ctx, task.ID, owner, domain.TaskPatch{
		Description: domain.NullField[string](),
	})
	if err != nil {
		t.Fatalf("patch description null: %v", err)
	}
	if updated.Description != nil {
		t.Errorf("description: got %q, want nil after explicit null", *updated.Description)
	}
}

func TestTaskApplyPatchOwnership(t *testing.T) {
	users, tasks := newTestRepos(t)
	ctx := context.Background()
	owner := createTestUser(t, users, "owner@example.com")
	other := createTestUser(t, users, "other@example.com")

	task := createTestTask(t, tasks, owner, "mine")

	patch := domain.TaskPatch{Title: domain.NewField("stolen")}
	if _, err := tasks.ApplyPatch(ctx, task.ID, other, patch); !errors.Is(err, repository.ErrNotOwner) {
		t.Errorf("other user's patch: got %v, want ErrNotOwner", err)
	}
	if _, err := tasks.ApplyPatch(ctx, 9999, owner, patch); !errors.Is(err, repository.ErrTaskNotFound) {
		t.Errorf("missing id patch: got %v, want ErrTaskNotFound", err)
	}

	got, err := tasks.Get(ctx, task.ID, owner)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "mine" {
		t.Errorf("title changed by non-owner: %q", got.Title)
	}
}

func TestTaskToggle(t *testing.T) {
	users, tasks := newTestRepos(t)
	ctx := context.Background()
	owner := createTestUser(t, users, "owner@example.com")

	task := createTestTask(t, tasks, owner, "flip me")

	once, err := tasks.ToggleCompleted(ctx, task.ID, owner)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !once.Completed {
		t.Error("first toggle should complete the task")
	}

	time.Sleep(time.Millisecond)
	twice, err := tasks.ToggleCompleted(ctx, task.ID, owner)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if twice.Completed {
		t.Error("second toggle should restore the original value")
	}
	if !twice.UpdatedAt.After(once.UpdatedAt) {
		t.Errorf("updated_at should strictly increase: %v then %v", once.UpdatedAt, twice.UpdatedAt)
	}

	other := createTestUser(t, users, "other@example.com")
	if _, err := tasks.ToggleCompleted(ctx, task.ID, other); !errors.Is(err, repository.ErrNotOwner) {
		t.Errorf("other user's toggle: got %v, want ErrNotOwner", err)
	}
}

func TestTaskDelete(t *testing.T) {
	users, tasks := newTestRepos(t)
	ctx := context.Background()
	owner := createTestUser(t, users, "owner@example.com")
	other := createTestUser(t, users, "other@example.com")

	task := createTestTask(t, tasks, owner, "to delete")

	if err := tasks.Delete(ctx, task.ID, other); !errors.Is(err, repository.ErrNotOwner) {
		t.Errorf("other user's delete: got %v, want ErrNotOwner", err)
	}

	if err := tasks.Delete(ctx, task.ID, owner); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Second delete finds nothing.
	if err := tasks.Delete(ctx, task.ID, owner); !errors.Is(err, repository.ErrTaskNotFound) {
		t.Errorf("second delete: got %v, want ErrTaskNotFound", err)
	}
}
