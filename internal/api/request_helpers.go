package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/taskquery"
)

// getPathUUID parses the named chi path parameter as a UUID. Missing or
// malformed ids are reported as domain.ErrInvalidID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrInvalidID)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// requireUserID extracts the authenticated user id, writing a 401 when the
// request carries none.
func requireUserID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

// handleUserIDAndPathUUID extracts both the user id from the context and the
// task id from the path. It writes an error response and reports false if
// either is missing.
func handleUserIDAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		log.Debug("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}

	return userID, pathID, true
}

// parseListFilter reads the list query string. completed must be "true" or
// "false" when present; page and limit that are not integers fall back to
// their defaults. Dates and priority are validated by the service.
func parseListFilter(query url.Values) (taskquery.Filter, error) {
	filter := taskquery.Filter{
		Priority:  strings.TrimSpace(query.Get("priority")),
		StartDate: strings.TrimSpace(query.Get("startDate")),
		EndDate:   strings.TrimSpace(query.Get("endDate")),
		Page:      atoiOrZero(query.Get("page")),
		Limit:     atoiOrZero(query.Get("limit")),
	}

	if query.Has("completed") {
		switch strings.ToLower(strings.TrimSpace(query.Get("completed"))) {
		case "true":
			v := true
			filter.Completed = &v
		case "false":
			v := false
			filter.Completed = &v
		default:
			return taskquery.Filter{}, domain.NewValidationError("completed",
				"Invalid completed value. Use true or false.", domain.ErrInvalidFormat)
		}
	}

	return filter.Normalize(), nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
