package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Priority is the urgency assigned to a task.
type Priority string

// Supported priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultPriority is applied when a task is created without one.
const DefaultPriority = PriorityMedium

// Field limits enforced on task content.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 2000
)

// IsValid reports whether p is one of the supported priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Task is a unit of work owned by a single user. A task is only ever visible
// to, and mutable by, its owner.
type Task struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority"`
	UserID      uuid.UUID `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewTask creates a pending task owned by userID. An empty priority falls back
// to DefaultPriority. The returned task has a fresh ID and a UTC creation time.
func NewTask(userID uuid.UUID, title, description string, priority Priority, now time.Time) (*Task, error) {
	if priority == "" {
		priority = DefaultPriority
	}

	task := &Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: description,
		Completed:   false,
		Priority:    priority,
		UserID:      userID,
		CreatedAt:   now.UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the task fields. Field problems are reported together as
// ValidationErrors keyed by their JSON names.
func (t *Task) Validate() error {
	err := validation.ValidateStruct(t,
		validation.Field(&t.ID, validation.By(requireUUID)),
		validation.Field(&t.Title,
			validation.Required.Error("title is required"),
			validation.Length(1, MaxTitleLength),
		),
		validation.Field(&t.Description, validation.Length(0, MaxDescriptionLength)),
		validation.Field(&t.Priority,
			validation.Required,
			validation.In(PriorityLow, PriorityMedium, PriorityHigh).
				Error("must be one of low, medium, high"),
		),
		validation.Field(&t.UserID, validation.By(requireUUID)),
	)
	return fromOzzo(err)
}

// TaskUpdate carries the fields a caller wants to change. Nil fields are left
// untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *Priority
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Completed == nil && u.Priority == nil
}

// Validate checks the provided fields using the same rules as Task.Validate.
func (u *TaskUpdate) Validate() error {
	if u.IsEmpty() {
		return NewValidationError("", "at least one field must be provided", nil)
	}

	var errs ValidationErrors
	if u.Title != nil {
		trimmed := strings.TrimSpace(*u.Title)
		u.Title = &trimmed
		switch {
		case trimmed == "":
			errs = append(errs, NewValidationError("title", "title is required", nil))
		case utf8.RuneCountInString(trimmed) > MaxTitleLength:
			errs = append(errs, NewValidationError("title", "the length must be between 1 and 255", nil))
		}
	}
	if u.Description != nil && utf8.RuneCountInString(*u.Description) > MaxDescriptionLength {
		errs = append(errs, NewValidationError("description", "the length must be no more than 2000", nil))
	}
	if u.Priority != nil && !u.Priority.IsValid() {
		errs = append(errs, NewValidationError("priority", "must be one of low, medium, high", nil))
	}

	if len(errs) > 0 {
		return errs.sortByField()
	}
	return nil
}

func requireUUID(value interface{}) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return validation.NewError("validation_uuid_required", "cannot be empty")
	}
	return nil
}

// fromOzzo converts ozzo-validation field errors into ValidationErrors.
// Internal rule failures are returned unchanged.
func fromOzzo(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make(ValidationErrors, 0, len(fieldErrs))
	for field, fieldErr := range fieldErrs {
		errs = append(errs, NewValidationError(field, fieldErr.Error(), nil))
	}
	return errs.sortByField()
}
