package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

const createTasksTable = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	user_id INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const createTasksUserIndex = `
CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id);
`

const taskColumns = `id, title, description, completed, user_id, created_at, updated_at`

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTasksTable); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createTasksUserIndex); err != nil {
		return fmt.Errorf("create tasks user index: %w", err)
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (int64, error) {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO tasks (title, description, completed, user_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		task.Title,
		nullString(task.Description),
		task.Completed,
		task.UserID,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("task last insert id: %w", err)
	}
	task.ID = id
	return id, nil
}

func (r *TaskRepository) Get(ctx context.Context, id, userID int64) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+taskColumns+`
FROM tasks
WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	task, err := scanTask(row)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil, r.classifyMiss(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) List(ctx context.Context, userID int64, filter domain.TaskFilter) ([]domain.Task, error) {
	query := `
SELECT ` + taskColumns + `
FROM tasks
WHERE user_id = ?`
	args := []any{userID}

	if filter.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, *filter.Completed)
	}
	query += `
ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	return tasks, rows.Err()
}

// ApplyPatch updates only the fields present in patch. The ownership check
// and the mutation run as one conditional UPDATE so concurrent requests for
// the same task cannot race between check and write.
func (r *TaskRepository) ApplyPatch(ctx context.Context, id, userID int64, patch domain.TaskPatch) (*domain.Task, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if patch.Title.Set {
		sets = append(sets, "title = ?")
		args = append(args, patch.Title.Value)
	}
	if patch.Description.Set {
		sets = append(sets, "description = ?")
		if patch.Description.Valid {
			args = append(args, patch.Description.Value)
		} else {
			args = append(args, nil)
		}
	}
	if patch.Completed.Set {
		sets = append(sets, "completed = ?")
		args = append(args, patch.Completed.Value)
	}

	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = ? AND user_id = ?`, strings.Join(sets, ", "))
	args = append(args, id, userID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("task update rows affected: %w", err)
	}
	if aff == 0 {
		return nil, r.classifyMiss(ctx, id)
	}

	return r.Get(ctx, id, userID)
}

func (r *TaskRepository) ToggleCompleted(ctx context.Context, id, userID int64) (*domain.Task, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE tasks
SET completed = NOT completed, updated_at = ?
WHERE id = ? AND user_id = ?`,
		time.Now().UTC(), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("task toggle rows affected: %w", err)
	}
	if aff == 0 {
		return nil, r.classifyMiss(ctx, id)
	}

	return r.Get(ctx, id, userID)
}

func (r *TaskRepository) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("task delete rows affected: %w", err)
	}
	if aff == 0 {
		return r.classifyMiss(ctx, id)
	}
	return nil
}

// classifyMiss decides, after a scoped statement matched nothing, whether the
// task is absent or belongs to someone else. The mutation has already failed
// at this point, so the extra lookup cannot reintroduce a race.
func (r *TaskRepository) classifyMiss(ctx context.Context, id int64) error {
	var owner int64
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM tasks WHERE id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("probe task owner: %w", err)
	}
	return repository.ErrNotOwner
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*domain.Task, error) {
	var (
		task        domain.Task
		description sql.NullString
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := scanner.Scan(
		&task.ID,
		&task.Title,
		&description,
		&task.Completed,
		&task.UserID,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	if description.Valid {
		task.Description = &description.String
	}
	task.CreatedAt = createdAt.UTC()
	task.UpdatedAt = updatedAt.UTC()

	return &task, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
