package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
	"todo-server/internal/repository/sqlite"
)

func newTaskFixture(t *testing.T) (TaskService, int64) {
	t.Helper()

	db := newTestDB(t)
	ctx := context.Background()

	users := sqlite.NewUserRepository(db)
	if err := users.Init(ctx); err != nil {
		t.Fatalf("init users: %v", err)
	}
	tasks := sqlite.NewTaskRepository(db)
	if err := tasks.Init(ctx); err != nil {
		t.Fatalf("init tasks: %v", err)
	}

	userID, err := users.Create(ctx, &domain.User{Email: "owner@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewTaskService(tasks), userID
}

func TestCreateTaskValidation(t *testing.T) {
	svc, owner := newTaskFixture(t)
	ctx := context.Background()

	longDesc := strings.Repeat("d", domain.DescriptionMaxLen+1)

	tests := []struct {
		name        string
		title       string
		description *string
		wantField   string
	}{
		{"empty title", "", nil, "title"},
		{"whitespace title", "   ", nil, "title"},
		{"long title", strings.Repeat("t", domain.TitleMaxLen+1), nil, "title"},
		{"long description", "ok", &longDesc, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, owner, tt.title, tt.description)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("got %v, want ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("field: got %q, want %q", vErr.Field, tt.wantField)
			}
		})
	}
}

func TestCreateTaskTrimsTitle(t *testing.T) {
	svc, owner := newTaskFixture(t)

	task, err := svc.Create(context.Background(), owner, "  Buy milk  ", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Title != "Buy milk" {
		t.Errorf("title: got %q", task.Title)
	}
	if task.Completed {
		t.Error("fresh task should not be completed")
	}
	if task.UserID != owner {
		t.Errorf("owner: got %d, want %d", task.UserID, owner)
	}
}

func TestUpdatePatchValidation(t *testing.T) {
	svc, owner := newTaskFixture(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, "target", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name      string
		patch     domain.TaskPatch
		wantField string
	}{
		{"null title", domain.TaskPatch{Title: domain.NullField[string]()}, "title"},
		{"empty title", domain.TaskPatch{Title: domain.NewField("  ")}, "title"},
		{"null completed", domain.TaskPatch{Completed: domain.NullField[bool]()}, "completed"},
		{
			"long description",
			domain.TaskPatch{Description: domain.NewField(strings.Repeat("d", domain.DescriptionMaxLen+1))},
			"description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, owner, task.ID, tt.patch)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("got %v, want ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("field: got %q, want %q", vErr.Field, tt.wantField)
			}
		})
	}
}

func TestUpdateAppliesOnlyPresentFields(t *testing.T) {
	svc, owner := newTaskFixture(t)
	ctx := context.Background()

	desc := "keep me"
	task, err := svc.Create(ctx, owner, "target", &desc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, owner, task.ID, domain.TaskPatch{
		Completed: domain.NewField(true),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Completed {
		t.Error("completed not applied")
	}
	if updated.Title != "target" {
		t.Errorf("title changed: %q", updated.Title)
	}
	if updated.Description == nil || *updated.Description != "keep me" {
		t.Error("absent description field must leave value unchanged")
	}
}

func TestTaskServiceOwnershipErrorsPassThrough(t *testing.T) {
	svc, owner := newTaskFixture(t)
	ctx := context.Background()

	if _, err := svc.Get(ctx, owner, 9999); !errors.Is(err, repository.ErrTaskNotFound) {
		t.Errorf("get: got %v, want ErrTaskNotFound", err)
	}
	if err := svc.Delete(ctx, owner, 9999); !errors.Is(err, repository.ErrTaskNotFound) {
		t.Errorf("delete: got %v, want ErrTaskNotFound", err)
	}
	if _, err := svc.ToggleComplete(ctx, owner, 9999); !errors.Is(err, repository.ErrTaskNotFound) {
		t.Errorf("toggle: got %v, want ErrTaskNotFound", err)
	}
}
