package api

import (
	"strings"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/service"
)

// CreateTaskRequest is the payload of POST /tasks.
type CreateTaskRequest struct {
	Title       string `json:"title"       validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Priority    string `json:"priority"    validate:"omitempty,oneof=low medium high"`
}

func (req CreateTaskRequest) toInput() service.CreateTaskInput {
	return service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.Priority(strings.TrimSpace(req.Priority)),
	}
}

// UpdateTaskRequest is the payload of PUT /tasks/{id}. Absent fields are left
// unchanged.
type UpdateTaskRequest struct {
	Title       *string `json:"title"       validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Completed   *bool   `json:"completed"`
	Priority    *string `json:"priority"`
}

func (req UpdateTaskRequest) toUpdate() domain.TaskUpdate {
	update := domain.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		update.Priority = &p
	}
	return update
}
