package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/taskboard/modules/api"
	"github.com/example/taskboard/modules/assist"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/broadcast"
	"github.com/example/taskboard/modules/cache"
	"github.com/example/taskboard/modules/task"
)

const (
	shutdownTimeout   = 30 * time.Second
	analyticsCacheTTL = 5 * time.Minute
)

func main() {
	log.Println("=== Taskboard - Collaborative Task Management ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// One database handle, shared by every module that persists state.
	db, err := openDatabase()
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	analyticsCache := openCache()

	// Create modules
	authModule := auth.NewModule(db)
	taskModule := task.NewModule(db, analyticsCache)
	assistModule := assist.NewModule(taskModule, assistCompleter())
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule(listenAddr(), authModule, taskModule, assistModule, broadcastModule.Hub())

	// Register modules with the framework.
	// Order matters: the api module reads its dependencies' services at
	// start time.
	app.Register(authModule)
	app.Register(taskModule)
	app.Register(assistModule)
	app.Register(broadcastModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func openDatabase() (*gorm.DB, error) {
	dbPath := os.Getenv("TASKBOARD_DB_PATH")
	if dbPath == "" {
		dbPath = "taskboard.db"
	}

	logLevel := gormlogger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = gormlogger.Info
	}

	return gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
}

// openCache connects the analytics cache. A missing Redis is not fatal;
// the task module falls back to uncached aggregation.
func openCache() *cache.Cache {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		return nil
	}

	c, err := cache.Connect(context.Background(), redisAddr, "taskboard", analyticsCacheTTL)
	if err != nil {
		log.Printf("Redis unavailable at %s, running without analytics cache: %v", redisAddr, err)
		return nil
	}
	return c
}

// assistCompleter returns the configured completion backend, or nil when
// GEMINI_API_KEY is unset. The nil check happens before the interface
// assignment so a nil client does not masquerade as a live completer.
func assistCompleter() assist.Completer {
	if c := assist.NewGeminiClientFromEnv(); c != nil {
		return c
	}
	return nil
}

func listenAddr() string {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	return ":" + port
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Persistence: SQLite via GORM")
	log.Println("  - Realtime: relay hub, clients emit after REST writes")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                        - Health check")
	log.Println("  GET    /metrics                       - Prometheus metrics")
	log.Println("  POST   /api/v1/auth/register          - Register a new user")
	log.Println("  POST   /api/v1/auth/login             - Login, returns token pair")
	log.Println("  POST   /api/v1/auth/refresh           - Rotate the token pair")
	log.Println("  GET    /api/v1/auth/me                - Current user profile")
	log.Println("  GET    /api/v1/users                  - List users")
	log.Println("  GET    /api/v1/tasks                  - List caller's tasks")
	log.Println("  POST   /api/v1/tasks                  - Create a task")
	log.Println("  GET    /api/v1/tasks/:id              - Get task details")
	log.Println("  PUT    /api/v1/tasks/:id              - Update a task")
	log.Println("  PATCH  /api/v1/tasks/:id/status       - Update task status")
	log.Println("  DELETE /api/v1/tasks/:id              - Delete a task")
	log.Println("  POST   /api/v1/tasks/:id/comments     - Add a comment")
	log.Println("  GET    /api/v1/analytics              - Status/priority breakdown")
	log.Println("  POST   /api/v1/ai/chat                - Task suggestion assistant")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Authenticate with: Authorization: Bearer <token> or ?token=<token>")
	log.Println("  Events: task-created, task-updated, task-deleted, presence-announce")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
