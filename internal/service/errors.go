package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
)

// Sentinel errors returned by TaskService. The API layer maps them to HTTP
// status codes.
var (
	// ErrTaskNotFound indicates the task does not exist or belongs to another
	// user. Callers cannot tell the two cases apart.
	ErrTaskNotFound = errors.New("task not found")
)

// TaskServiceError wraps unexpected failures with the operation that hit
// them.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError classifies err. Not-found conditions become
// ErrTaskNotFound and validation errors pass through untouched; anything
// else is wrapped in a *TaskServiceError.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTaskNotFound) || errors.Is(err, store.ErrTaskNotFound) {
		return ErrTaskNotFound
	}
	if errors.Is(err, domain.ErrValidation) {
		return err
	}
	return &TaskServiceError{Operation: operation, Message: message, Err: err}
}
