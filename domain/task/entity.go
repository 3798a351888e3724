package task

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

// Task statuses.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
)

// Priority is the urgency level of a task.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Validation errors.
var (
	ErrTitleRequired   = errors.New("title is required")
	ErrCreatorRequired = errors.New("created_by is required")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// Valid reports whether p is one of the four known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Comment is a note attached to a task. Comments are append-only.
type Comment struct {
	Text      string    `json:"text"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment is a named link attached to a task.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Task represents a task entity in the system.
// Tags, comments and attachments are persisted as JSON columns.
type Task struct {
	ID          string       `json:"id" gorm:"primaryKey;type:text"`
	Title       string       `json:"title" gorm:"not null;type:text"`
	Description string       `json:"description" gorm:"type:text"`
	Status      Status       `json:"status" gorm:"index;type:text"`
	Priority    Priority     `json:"priority" gorm:"index;type:text"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	AssigneeID  *string      `json:"assignee_id,omitempty" gorm:"index;type:text"`
	CreatedByID string       `json:"created_by_id" gorm:"index;not null;type:text"`
	Tags        []string     `json:"tags" gorm:"serializer:json"`
	Comments    []Comment    `json:"comments" gorm:"serializer:json"`
	Attachments []Attachment `json:"attachments" gorm:"serializer:json"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// Validate checks required fields and enum membership.
func (t *Task) Validate() error {
	if t.Title == "" {
		return ErrTitleRequired
	}
	if t.CreatedByID == "" {
		return ErrCreatorRequired
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}
