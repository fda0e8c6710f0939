package repository

import (
	"context"
	"errors"

	"todo-server/internal/domain"
)

var (
	// ErrTaskNotFound indicates no task row exists for the given id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrNotOwner indicates the task exists but belongs to another user.
	// The HTTP layer folds this into a 404; it stays distinct here so
	// ownership isolation remains observable to logging and tests.
	ErrNotOwner = errors.New("task owned by another user")
)

// TaskRepository exposes persistence operations for Task records. Every
// mutating operation is scoped by the owning user in a single conditional
// statement so no check-then-act window exists between requests.
type TaskRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, task *domain.Task) (int64, error)
	Get(ctx context.Context, id, userID int64) (*domain.Task, error)
	List(ctx context.Context, userID int64, filter domain.TaskFilter) ([]domain.Task, error)
	ApplyPatch(ctx context.Context, id, userID int64, patch domain.TaskPatch) (*domain.Task, error)
	ToggleCompleted(ctx context.Context, id, userID int64) (*domain.Task, error)
	Delete(ctx context.Context, id, userID int64) error
}
