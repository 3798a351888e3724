// Package client implements the consumer side of the realtime channel: a
// local task list with idempotent event application, and a session that
// keeps it synchronized over a websocket.
package client

import (
	"fmt"
	"sort"
	"sync"

	domain "github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/events"
)

// TaskList is a local replica of the task set. Events may arrive more than
// once, out of order with REST responses, or echo back the caller's own
// mutations, so every apply operation is idempotent.
type TaskList struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
}

// NewTaskList returns an empty task list.
func NewTaskList() *TaskList {
	return &TaskList{
		tasks: make(map[string]domain.Task),
	}
}

// Bootstrap replaces the local state with a fetched snapshot.
func (l *TaskList) Bootstrap(tasks []domain.Task) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tasks = make(map[string]domain.Task, len(tasks))
	for _, t := range tasks {
		l.tasks[t.ID] = t
	}
}

// ApplyCreated inserts a task. A task that is already present is left
// untouched; the echo of a local create must not duplicate it.
func (l *TaskList) ApplyCreated(t domain.Task) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.tasks[t.ID]; ok {
		return
	}
	l.tasks[t.ID] = t
}

// ApplyUpdated replaces a task that is present. Updates for unknown tasks
// are dropped; the deciding copy is whichever write arrived last.
func (l *TaskList) ApplyUpdated(t domain.Task) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.tasks[t.ID]; !ok {
		return
	}
	l.tasks[t.ID] = t
}

// ApplyDeleted removes a task if present.
func (l *TaskList) ApplyDeleted(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.tasks, id)
}

// Apply validates and applies a single wire frame. Presence frames are not
// task state and are rejected here.
func (l *TaskList) Apply(env events.Envelope) error {
	switch env.Event {
	case events.TaskCreated:
		t, err := env.Task()
		if err != nil {
			return err
		}
		l.ApplyCreated(t)
	case events.TaskUpdated:
		t, err := env.Task()
		if err != nil {
			return err
		}
		l.ApplyUpdated(t)
	case events.TaskDeleted:
		id, err := env.ID()
		if err != nil {
			return err
		}
		l.ApplyDeleted(id)
	default:
		return fmt.Errorf("not a task event: %s", env.Event)
	}
	return nil
}

// Get returns a task by id.
func (l *TaskList) Get(id string) (domain.Task, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.tasks[id]
	return t, ok
}

// Len returns the number of tasks held.
func (l *TaskList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tasks)
}

// Tasks returns a copy of the task set, newest first.
func (l *TaskList) Tasks() []domain.Task {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Task, 0, len(l.tasks))
	for _, t := range l.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
