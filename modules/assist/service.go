// Package assist implements the task-suggestion assistant: an
// authenticated chat that grounds a generative model on the caller's
// current tasks.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/taskboard/domain/task"
)

// ErrMessageRequired is returned when the chat message is empty.
var ErrMessageRequired = errors.New("message is required")

const (
	// maxContextTasks caps how many of the caller's tasks are quoted in
	// the prompt.
	maxContextTasks = 5
	// maxResponseChars caps the reply length before truncation.
	maxResponseChars = 500
)

const truncationNote = "\n\nNeed more specific details? Just ask!"

const systemPrompt = `You are a comprehensive task management AI assistant. Your role is to:
- Suggest practical and actionable tasks
- Provide clear task descriptions and steps
- Include estimated time and complexity
- Consider task dependencies and priorities
- Adapt suggestions based on the user's request

When suggesting tasks:
1. Analyze the user's request carefully
2. Consider the task domain (frontend, backend, design, etc.)
3. Provide relevant technical details
4. Include implementation tips
5. Consider best practices

Format your response as:
Task 1: [Task Name] (~X hours)
• Description: Brief overview
• Key Steps: Main implementation points
• Priority: High/Medium/Low

Task 2: [Task Name] (~X hours)
• Description: Brief overview
• Key Steps: Main implementation points
• Priority: High/Medium/Low

Task 3: [Task Name] (~X hours)
• Description: Brief overview
• Key Steps: Main implementation points
• Priority: High/Medium/Low`

// Completer produces a completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// TaskSource lists the tasks visible to a user.
type TaskSource interface {
	List(ctx context.Context, userID string) ([]domain.Task, error)
}

// Service answers chat messages with task suggestions grounded on the
// caller's active tasks.
type Service struct {
	tasks     TaskSource
	completer Completer
}

// NewService creates a new assist Service.
func NewService(tasks TaskSource, completer Completer) *Service {
	return &Service{
		tasks:     tasks,
		completer: completer,
	}
}

// Suggest builds a prompt from the message and the caller's tasks, runs
// the completion, and trims the reply to a chat-friendly length.
func (s *Service) Suggest(ctx context.Context, userID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrMessageRequired
	}

	tasks, err := s.tasks.List(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load task context: %w", err)
	}
	if len(tasks) > maxContextTasks {
		tasks = tasks[:maxContextTasks]
	}

	text, err := s.completer.Complete(ctx, buildPrompt(message, tasks))
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	text = strings.TrimSpace(text)
	if len(text) > maxResponseChars {
		text = text[:maxResponseChars] + truncationNote
	}
	return text, nil
}

func buildPrompt(message string, tasks []domain.Task) string {
	active := make([]string, 0, len(tasks))
	for _, t := range tasks {
		active = append(active, fmt.Sprintf("%s (%s)", t.Title, t.Status))
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nCurrent Context:\n")
	fmt.Fprintf(&b, "User's Request: %q\n", message)
	fmt.Fprintf(&b, "Active Tasks: %s\n", strings.Join(active, ", "))
	b.WriteString("\nPlease provide 3 relevant task suggestions based on the user's specific request.\n")
	b.WriteString("Consider the current context and provide appropriate recommendations.\n")
	b.WriteString("Ensure the tasks are specific to the requested domain or type.")
	return b.String()
}
