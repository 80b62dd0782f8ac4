package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/phrazzld/tasks-api/internal/store"
)

// User-facing messages.
const (
	msgTaskNotFound    = "Task not found"
	msgInvalidData     = "Invalid data"
	msgInvalidRequest  = "Invalid request format"
	msgInternalError   = "Internal server error"
	msgInvalidToken    = "Invalid token"
	msgUnauthenticated = "User ID not found or invalid"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking their types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingSubject),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// A malformed id cannot name an existing task.
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest

	// Constraint violations and every other store failure stay opaque.
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return msgInternalError
	}

	switch MapErrorToStatusCode(err) {
	case http.StatusUnauthorized:
		if errors.Is(err, domain.ErrUnauthorized) {
			return msgUnauthenticated
		}
		return msgInvalidToken
	case http.StatusNotFound:
		return msgTaskNotFound
	case http.StatusBadRequest:
		// A single field error is reported by its own message so that
		// query-string problems read naturally.
		if fields := domain.FieldErrors(err); len(fields) == 1 {
			return fields[0].Message
		}
		return msgInvalidData
	default:
		return msgInternalError
	}
}

// HandleAPIError writes the error response for err. Validation failures carry
// their field detail.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)

	var opts []shared.ResponseOption
	if status == http.StatusBadRequest {
		if fields := toFieldErrors(domain.FieldErrors(err)); len(fields) > 0 {
			opts = append(opts, shared.WithFieldErrors(fields))
		}
	}

	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
}

func toFieldErrors(errs []*domain.ValidationError) []shared.FieldError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]shared.FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, shared.FieldError{Field: e.Field, Message: e.Message})
	}
	return out
}

// translateValidationError converts struct validator failures into domain
// validation errors named after the JSON fields.
func translateValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError("", msgInvalidData, err)
	}

	out := make(domain.ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, domain.NewValidationError(fe.Field(), validationTagMessage(fe), nil))
	}
	return out
}

// validationTagMessage maps validation tags to user-friendly messages.
func validationTagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
