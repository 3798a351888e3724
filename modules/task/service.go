package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	domain "github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/modules/cache"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrCommentTextRequired is returned when adding an empty comment.
var ErrCommentTextRequired = errors.New("comment text is required")

// Service provides task operations with optional analytics caching.
type Service struct {
	repo    *Repository
	cache   *cache.Cache // nil disables caching
	sfGroup singleflight.Group
}

// NewService creates a new task service. The cache may be nil, in which
// case analytics always hit the database.
func NewService(repo *Repository, c *cache.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: c,
	}
}

// Create stores a new task owned by the authenticated caller. Missing
// status and priority fall back to their defaults.
func (s *Service) Create(ctx context.Context, createdBy string, req CreateTaskRequest) (*domain.Task, error) {
	status := req.Status
	if status == "" {
		status = domain.StatusPending
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	now := time.Now()
	t := &domain.Task{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
		CreatedByID: createdBy,
		Tags:        req.Tags,
		Comments:    []domain.Comment{},
		Attachments: req.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(t); err != nil {
		return nil, err
	}

	s.invalidateAnalytics(ctx)
	return t, nil
}

// Get retrieves a task by ID.
func (s *Service) Get(_ context.Context, id string) (*domain.Task, error) {
	return s.repo.FindByID(id)
}

// List returns the tasks the caller created or is assigned to.
func (s *Service) List(_ context.Context, userID string) ([]domain.Task, error) {
	return s.repo.FindForUser(userID)
}

// Update replaces the mutable fields of a task.
func (s *Service) Update(ctx context.Context, id string, req UpdateTaskRequest) (*domain.Task, error) {
	t, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	t.Title = req.Title
	t.Description = req.Description
	t.Status = req.Status
	t.Priority = req.Priority
	t.DueDate = req.DueDate
	t.AssigneeID = req.AssigneeID
	t.Tags = req.Tags
	t.Attachments = req.Attachments
	t.UpdatedAt = time.Now()

	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Save(t); err != nil {
		return nil, err
	}

	s.invalidateAnalytics(ctx)
	return t, nil
}

// UpdateStatus patches the status of a task.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Task, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	t, err := s.repo.UpdateStatus(id, status)
	if err != nil {
		return nil, err
	}

	s.invalidateAnalytics(ctx)
	return t, nil
}

// Delete removes a task permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.invalidateAnalytics(ctx)
	return nil
}

// AddComment appends a comment authored by the caller to a task.
func (s *Service) AddComment(ctx context.Context, id, authorID, text string) (*domain.Task, error) {
	if text == "" {
		return nil, ErrCommentTextRequired
	}

	t, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	t.Comments = append(t.Comments, domain.Comment{
		Text:      text,
		UserID:    authorID,
		CreatedAt: time.Now(),
	})
	t.UpdatedAt = time.Now()

	if err := s.repo.Save(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Analytics aggregates the caller's tasks by status and priority,
// cache-aside with singleflight collapsing concurrent misses.
func (s *Service) Analytics(ctx context.Context, userID string) (*AnalyticsReport, error) {
	cacheKey := "analytics:" + userID

	if s.cache != nil {
		var cached AnalyticsReport
		found, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			log.Printf("[task] Cache error for %s: %v", cacheKey, err)
			// Continue to database on cache error
		}
		if found {
			return &cached, nil
		}
	}

	val, err, _ := s.sfGroup.Do(cacheKey, func() (any, error) {
		statusCounts, err := s.repo.CountByField("status", userID)
		if err != nil {
			return nil, err
		}
		priorityCounts, err := s.repo.CountByField("priority", userID)
		if err != nil {
			return nil, err
		}
		return &AnalyticsReport{
			StatusCounts:   statusCounts,
			PriorityCounts: priorityCounts,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute analytics: %w", err)
	}

	report := val.(*AnalyticsReport)
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report); err != nil {
			log.Printf("[task] Failed to cache %s: %v", cacheKey, err)
		}
	}
	return report, nil
}

// invalidateAnalytics drops cached reports after any mutation. The scope
// of a mutation may touch both creator and assignee reports, so the whole
// prefix goes.
func (s *Service) invalidateAnalytics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Printf("[task] Failed to invalidate cache: %v", err)
	}
}
