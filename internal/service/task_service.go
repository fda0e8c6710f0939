package service

import (
	"context"
	"fmt"
	"strings"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

// ValidationError reports a rejected input field. The HTTP layer surfaces it
// with field-level detail; everything else stays a generic error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TaskService coordinates task CRUD, always scoped to the authenticated user.
type TaskService interface {
	Create(ctx context.Context, userID int64, title string, description *string) (*domain.Task, error)
	Get(ctx context.Context, userID, taskID int64) (*domain.Task, error)
	List(ctx context.Context, userID int64, filter domain.TaskFilter) ([]domain.Task, error)
	Update(ctx context.Context, userID, taskID int64, patch domain.TaskPatch) (*domain.Task, error)
	ToggleComplete(ctx context.Context, userID, taskID int64) (*domain.Task, error)
	Delete(ctx context.Context, userID, taskID int64) error
}

type taskService struct {
	tasks repository.TaskRepository
}

func NewTaskService(tasks repository.TaskRepository) TaskService {
	return &taskService{tasks: tasks}
}

func (s *taskService) Create(ctx context.Context, userID int64, title string, description *string) (*domain.Task, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if description != nil {
		if err := validateDescription(*description); err != nil {
			return nil, err
		}
	}

	task := &domain.Task{
		Title:       title,
		Description: description,
		Completed:   false,
		UserID:      userID,
	}

	if _, err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Get(ctx context.Context, userID, taskID int64) (*domain.Task, error) {
	return s.tasks.Get(ctx, taskID, userID)
}

func (s *taskService) List(ctx context.Context, userID int64, filter domain.TaskFilter) ([]domain.Task, error) {
	return s.tasks.List(ctx, userID, filter)
}

func (s *taskService) Update(ctx context.Context, userID, taskID int64, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Title.Set {
		if !patch.Title.Valid {
			return nil, &ValidationError{Field: "title", Message: "title cannot be null"}
		}
		patch.Title.Value = strings.TrimSpace(patch.Title.Value)
		if err := validateTitle(patch.Title.Value); err != nil {
			return nil, err
		}
	}
	if patch.Description.Set && patch.Description.Valid {
		if err := validateDescription(patch.Description.Value); err != nil {
			return nil, err
		}
	}
	if patch.Completed.Set && !patch.Completed.Valid {
		return nil, &ValidationError{Field: "completed", Message: "completed cannot be null"}
	}

	return s.tasks.ApplyPatch(ctx, taskID, userID, patch)
}

func (s *taskService) ToggleComplete(ctx context.Context, userID, taskID int64) (*domain.Task, error) {
	return s.tasks.ToggleCompleted(ctx, taskID, userID)
}

func (s *taskService) Delete(ctx context.Context, userID, taskID int64) error {
	return s.tasks.Delete(ctx, taskID, userID)
}

func validateTitle(title string) error {
	if title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len(title) > domain.TitleMaxLen {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("title must be %d characters or less", domain.TitleMaxLen)}
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > domain.DescriptionMaxLen {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("description must be %d characters or less", domain.DescriptionMaxLen)}
	}
	return nil
}
