package task

import (
	"time"

	domain "github.com/example/taskboard/domain/task"
)

// CreateTaskRequest carries the caller-supplied fields of a new task.
// Status and priority fall back to their defaults when empty; the creator
// always comes from the authenticated identity.
type CreateTaskRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.Status       `json:"status"`
	Priority    domain.Priority     `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	AssigneeID  *string             `json:"assignee_id"`
	Tags        []string            `json:"tags"`
	Attachments []domain.Attachment `json:"attachments"`
}

// UpdateTaskRequest carries a full update of the mutable task fields.
type UpdateTaskRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.Status       `json:"status"`
	Priority    domain.Priority     `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	AssigneeID  *string             `json:"assignee_id"`
	Tags        []string            `json:"tags"`
	Attachments []domain.Attachment `json:"attachments"`
}

// FieldCount is one bucket of a count-by-field aggregation.
type FieldCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// AnalyticsReport aggregates the caller's tasks by status and priority.
type AnalyticsReport struct {
	StatusCounts   []FieldCount `json:"status_counts"`
	PriorityCounts []FieldCount `json:"priority_counts"`
}
