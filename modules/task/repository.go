package task

import (
	"errors"
	"fmt"

	domain "github.com/example/taskboard/domain/task"
	"gorm.io/gorm"
)

// Repository errors.
var (
	// ErrNotFound is returned when a task is not found.
	ErrNotFound = errors.New("task not found")
	// ErrUnknownField is returned for count aggregations over fields that
	// are not enumerable.
	ErrUnknownField = errors.New("unknown aggregation field")
)

// countableFields guards the Group clause of CountByField.
var countableFields = map[string]bool{
	"status":   true,
	"priority": true,
}

// Repository provides access to task storage using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new task to the database.
func (r *Repository) Create(t *domain.Task) error {
	if err := r.db.Create(t).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *Repository) FindByID(id string) (*domain.Task, error) {
	var t domain.Task
	if err := r.db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

// FindForUser retrieves all tasks the user created or is assigned to,
// newest first.
func (r *Repository) FindForUser(userID string) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.
		Where("created_by_id = ? OR assignee_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	return tasks, nil
}

// Save persists all fields of an existing task.
func (r *Repository) Save(t *domain.Task) error {
	result := r.db.Model(&domain.Task{}).Where("id = ?", t.ID).Select("*").
		Omit("id", "created_by_id", "created_at").Updates(t)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus patches the status of a task and returns the updated record.
func (r *Repository) UpdateStatus(id string, status domain.Status) (*domain.Task, error) {
	result := r.db.Model(&domain.Task{}).Where("id = ?", id).Update("status", status)
	if err := result.Error; err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(id)
}

// Delete removes a task by ID. Deletion is immediate and irreversible.
func (r *Repository) Delete(id string) error {
	result := r.db.Unscoped().Delete(&domain.Task{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByField groups the user's tasks by the given field and counts each
// bucket. Only enumerable fields are accepted.
func (r *Repository) CountByField(field, userID string) ([]FieldCount, error) {
	if !countableFields[field] {
		return nil, ErrUnknownField
	}

	var counts []FieldCount
	err := r.db.Model(&domain.Task{}).
		Select(field+" AS value, COUNT(*) AS count").
		Where("created_by_id = ? OR assignee_id = ?", userID, userID).
		Group(field).
		Order("value").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by %s: %w", field, err)
	}
	return counts, nil
}
