package domain

import "time"

const (
	// TitleMaxLen bounds task titles.
	TitleMaxLen = 255
	// DescriptionMaxLen bounds task descriptions.
	DescriptionMaxLen = 1000
)

// Task represents a single todo item owned by exactly one user.
type Task struct {
	ID          int64
	Title       string
	Description *string
	Completed   bool
	UserID      int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch carries a partial update. Each field distinguishes "absent"
// (leave unchanged) from "present" (apply), and Description additionally
// allows an explicit null to clear the stored value.
type TaskPatch struct {
	Title       Field[string]
	Description Field[string]
	Completed   Field[bool]
}

// IsZero reports whether the patch carries no fields at all.
func (p TaskPatch) IsZero() bool {
	return !p.Title.Set && !p.Description.Set && !p.Completed.Set
}

// TaskFilter narrows List results.
type TaskFilter struct {
	Completed *bool
}
