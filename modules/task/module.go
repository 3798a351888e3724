package task

import (
	"context"
	"fmt"
	"log"

	domain "github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/modules/cache"
	"github.com/go-monolith/mono"
	"gorm.io/gorm"
)

// Module provides the durable task store.
type Module struct {
	db      *gorm.DB
	cache   *cache.Cache
	service *Service
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new task module. The database handle is opened once
// by the caller and shared across modules; the cache may be nil.
func NewModule(db *gorm.DB, c *cache.Cache) *Module {
	return &Module{
		db:    db,
		cache: c,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "task"
}

// Start migrates the task schema and wires the service.
func (m *Module) Start(_ context.Context) error {
	if err := m.db.AutoMigrate(&domain.Task{}); err != nil {
		return fmt.Errorf("failed to migrate tasks: %w", err)
	}

	m.service = NewService(NewRepository(m.db), m.cache)

	if m.cache != nil {
		log.Println("[task] Module started (analytics cache enabled)")
	} else {
		log.Println("[task] Module started")
	}
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(ctx context.Context) error {
	if m.cache != nil {
		if err := m.cache.InvalidateAll(ctx); err != nil {
			log.Printf("[task] Failed to flush cache: %v", err)
		}
		if err := m.cache.Close(); err != nil {
			log.Printf("[task] Failed to close cache: %v", err)
		}
	}
	log.Println("[task] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	sqlDB, err := m.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database unavailable: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"analytics_cache": m.cache != nil,
		},
	}
}

// Service returns the task service. Only valid after Start.
func (m *Module) Service() *Service {
	return m.service
}
