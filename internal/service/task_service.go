package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/cache"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/events"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/phrazzld/tasks-api/internal/taskquery"
)

// PageMeta describes where a page sits in the full result set.
type PageMeta struct {
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int64 `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// TaskPage is one page of a user's task list. Pages are shared through the
// cache and must be treated as read-only.
type TaskPage struct {
	Tasks []*domain.Task
	Meta  PageMeta
}

// CreateTaskInput holds the caller-supplied fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    domain.Priority
}

// TaskService provides the task use cases for an authenticated user.
type TaskService interface {
	// List returns one page of the user's tasks. Results are served from
	// the cache when an identical filter was answered recently and the user
	// has not changed any task since.
	List(ctx context.Context, userID uuid.UUID, filter taskquery.Filter) (*TaskPage, error)

	// Get returns ErrTaskNotFound unless the task exists and belongs to userID.
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// Create stores a new pending task owned by userID.
	Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*domain.Task, error)

	// Update applies a partial update and returns the stored task.
	Update(ctx context.Context, userID, taskID uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// Delete removes the task.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error

	// Stats summarises the user's tasks. It is never cached.
	Stats(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error)
}

// CachePrefix returns the prefix shared by every cached list page of userID.
// The trailing separator keeps one user id from matching another that
// merely starts with it.
func CachePrefix(userID uuid.UUID) string {
	return "tasks_user_" + userID.String() + "_"
}

// CacheKey returns the cache key for userID's list under filter.
func CacheKey(userID uuid.UUID, filter taskquery.Filter) string {
	return CachePrefix(userID) + filter.CacheKey()
}

// Option configures a TaskService.
type Option func(*taskServiceImpl)

// WithClock replaces time.Now for task creation times and event stamps.
func WithClock(now func() time.Time) Option {
	return func(s *taskServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

type taskServiceImpl struct {
	repo    store.TaskStore
	cache   *cache.Cache[*TaskPage]
	emitter events.EventEmitter
	now     func() time.Time
	logger  *slog.Logger
}

// NewTaskService wires the task use cases. It registers a handler on emitter
// that invalidates the mutated user's cached pages, so the emitter must
// deliver events synchronously.
func NewTaskService(
	repo store.TaskStore,
	pages *cache.Cache[*TaskPage],
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) (TaskService, error) {
	if repo == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "repo cannot be nil"}
	}
	if pages == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "cache cannot be nil"}
	}
	if emitter == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		repo:    repo,
		cache:   pages,
		emitter: emitter,
		now:     time.Now,
		logger:  logger.With("component", "task_service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	emitter.RegisterHandler(NewCacheInvalidator(pages, s.logger))
	return s, nil
}

// List implements TaskService.List.
func (s *taskServiceImpl) List(
	ctx context.Context,
	userID uuid.UUID,
	filter taskquery.Filter,
) (*TaskPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filter = filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	prefix := CachePrefix(userID)
	key := prefix + filter.CacheKey()

	if page, ok := s.cache.Get(key); ok {
		log.Debug("task list cache hit", slog.String("key", key))
		return page, nil
	}

	stamp := s.cache.Snapshot(prefix)

	tasks, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		log.Error("failed to list tasks",
			redact.Attr(err),
			slog.String("user_id", userID.String()))
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}

	page := &TaskPage{
		Tasks: tasks,
		Meta: PageMeta{
			TotalItems:   total,
			TotalPages:   totalPages(total, filter.Limit),
			CurrentPage:  filter.Page,
			ItemsPerPage: filter.Limit,
		},
	}

	s.cache.PutStamped(stamp, key, page, 0)
	log.Debug("task list cache miss", slog.String("key", key))
	return page, nil
}

func totalPages(total int64, limit int) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

// Get implements TaskService.Get.
func (s *taskServiceImpl) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID, userID)
	if err != nil {
		return nil, s.fail(ctx, "get_task", "failed to retrieve task", err, taskID)
	}
	return task, nil
}

// Create implements TaskService.Create.
func (s *taskServiceImpl) Create(
	ctx context.Context,
	userID uuid.UUID,
	input CreateTaskInput,
) (*domain.Task, error) {
	// Stored timestamps have second precision on every backend, so the
	// returned task matches what a later read sees.
	now := s.now().UTC().Truncate(time.Second)

	task, err := domain.NewTask(userID, input.Title, input.Description, input.Priority, now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, s.fail(ctx, "create_task", "failed to save task", err, task.ID)
	}

	s.announce(ctx, events.TaskCreated, task.ID, userID)
	return task, nil
}

// Update implements TaskService.Update.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	task, err := s.repo.Update(ctx, taskID, userID, update)
	if err != nil {
		return nil, s.fail(ctx, "update_task", "failed to update task", err, taskID)
	}

	s.announce(ctx, events.TaskUpdated, taskID, userID)
	return task, nil
}

// Delete implements TaskService.Delete.
func (s *taskServiceImpl) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if err := s.repo.Delete(ctx, taskID, userID); err != nil {
		return s.fail(ctx, "delete_task", "failed to delete task", err, taskID)
	}

	s.announce(ctx, events.TaskDeleted, taskID, userID)
	return nil
}

// Stats implements TaskService.Stats.
func (s *taskServiceImpl) Stats(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error) {
	stats, err := s.repo.Stats(ctx, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to compute task stats",
			redact.Attr(err),
			slog.String("user_id", userID.String()))
		return domain.TaskStats{}, NewTaskServiceError("task_stats", "failed to compute stats", err)
	}
	return stats, nil
}

// fail logs unexpected store errors and classifies err.
func (s *taskServiceImpl) fail(ctx context.Context, op, msg string, err error, taskID uuid.UUID) error {
	classified := NewTaskServiceError(op, msg, err)

	var svcErr *TaskServiceError
	if errors.As(classified, &svcErr) {
		logger.FromContextOrDefault(ctx, s.logger).Error(msg,
			redact.Attr(err),
			slog.String("operation", op),
			slog.String("task_id", taskID.String()))
	}
	return classified
}

// announce publishes a mutation. Handler failures are logged but do not fail
// the request: the write has already been committed.
func (s *taskServiceImpl) announce(ctx context.Context, eventType events.Type, taskID, userID uuid.UUID) {
	event := events.NewTaskChangedEvent(eventType, taskID, userID, s.now())
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to publish task event",
			"error", err,
			"event_type", eventType,
			"task_id", taskID)
	}
}
