package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type identifies what happened to a task.
type Type string

// Task lifecycle event types.
const (
	TaskCreated Type = "task.created"
	TaskUpdated Type = "task.updated"
	TaskDeleted Type = "task.deleted"
)

// TaskChangedEvent records a mutation of one user's task set.
type TaskChangedEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       Type      `json:"type"`
	TaskID     uuid.UUID `json:"taskId"`
	UserID     uuid.UUID `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewTaskChangedEvent creates an event with a fresh id.
func NewTaskChangedEvent(eventType Type, taskID, userID uuid.UUID, now time.Time) *TaskChangedEvent {
	return &TaskChangedEvent{
		ID:         uuid.New(),
		Type:       eventType,
		TaskID:     taskID,
		UserID:     userID,
		OccurredAt: now.UTC(),
	}
}

// EventHandler reacts to task events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskChangedEvent) error
}

// EventEmitter publishes events to registered handlers.
type EventEmitter interface {
	RegisterHandler(handler EventHandler)
	EmitEvent(ctx context.Context, event *TaskChangedEvent) error
}
