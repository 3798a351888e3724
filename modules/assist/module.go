package assist

import (
	"context"
	"log"

	"github.com/example/taskboard/modules/task"
	"github.com/go-monolith/mono"
)

// Module provides the task-suggestion assistant. When no completer is
// configured the module starts in a disabled state and the chat
// endpoint reports the assistant as unavailable.
type Module struct {
	task      *task.Module
	completer Completer
	service   *Service
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new assist module. The completer may be nil.
func NewModule(taskModule *task.Module, completer Completer) *Module {
	return &Module{
		task:      taskModule,
		completer: completer,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "assist"
}

// Start wires the assistant service against the task store.
func (m *Module) Start(_ context.Context) error {
	if m.completer == nil {
		log.Println("[assist] Module started (no completer configured, assistant disabled)")
		return nil
	}

	m.service = NewService(m.task.Service(), m.completer)
	log.Println("[assist] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[assist] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"enabled": m.service != nil,
		},
	}
}

// Service returns the assistant service, or nil when disabled. Only
// valid after Start.
func (m *Module) Service() *Service {
	return m.service
}
