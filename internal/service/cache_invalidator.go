package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/tasks-api/internal/cache"
	"github.com/phrazzld/tasks-api/internal/events"
)

// CacheInvalidator drops every cached list page of the user named in a task
// event.
type CacheInvalidator struct {
	pages  *cache.Cache[*TaskPage]
	logger *slog.Logger
}

var _ events.EventHandler = (*CacheInvalidator)(nil)

// NewCacheInvalidator returns a handler invalidating pages.
func NewCacheInvalidator(pages *cache.Cache[*TaskPage], logger *slog.Logger) *CacheInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheInvalidator{pages: pages, logger: logger}
}

// HandleEvent implements events.EventHandler.
func (c *CacheInvalidator) HandleEvent(_ context.Context, event *events.TaskChangedEvent) error {
	removed := c.pages.InvalidatePrefix(CachePrefix(event.UserID))
	c.logger.Debug("invalidated task list cache",
		slog.String("user_id", event.UserID.String()),
		slog.String("event_type", string(event.Type)),
		slog.Int("removed", removed))
	return nil
}
