package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/mocks"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/taskquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  []shared.FieldError `json:"errors"`
	Meta    *service.PageMeta   `json:"meta"`
	TraceID string              `json:"traceId"`
}

func newRouter(svc service.TaskService) http.Handler {
	r := chi.NewRouter()
	r.Route("/tasks", NewTaskHandler(svc, nil).Mount)
	return r
}

func do(t *testing.T, h http.Handler, userID uuid.UUID, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != uuid.Nil {
		req = req.WithContext(shared.WithUserID(req.Context(), userID))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr, env
}

func sampleTask(userID uuid.UUID) *domain.Task {
	return &domain.Task{
		ID:        uuid.New(),
		Title:     "Write report",
		Priority:  domain.PriorityHigh,
		UserID:    userID,
		CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestListTasksParsesQuery(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	var got taskquery.Filter
	svc := &mocks.MockTaskService{
		ListFn: func(_ context.Context, id uuid.UUID, f taskquery.Filter) (*service.TaskPage, error) {
			assert.Equal(t, userID, id)
			got = f
			return &service.TaskPage{
				Tasks: []*domain.Task{sampleTask(userID)},
				Meta:  service.PageMeta{TotalItems: 11, TotalPages: 3, CurrentPage: 2, ItemsPerPage: 5},
			}, nil
		},
	}

	rr, env := do(t, newRouter(svc), userID, http.MethodGet,
		"/tasks?completed=false&priority=high&startDate=2024-01-01&endDate=2024-01-31&page=2&limit=5", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)
	require.NotNil(t, env.Meta)
	assert.Equal(t, service.PageMeta{TotalItems: 11, TotalPages: 3, CurrentPage: 2, ItemsPerPage: 5}, *env.Meta)

	require.NotNil(t, got.Completed)
	assert.False(t, *got.Completed)
	assert.Equal(t, "high", got.Priority)
	assert.Equal(t, "2024-01-01", got.StartDate)
	assert.Equal(t, "2024-01-31", got.EndDate)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 5, got.Limit)

	var tasks []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write report", tasks[0]["title"])
	assert.Equal(t, userID.String(), tasks[0]["userId"])
}

func TestListTasksDefaults(t *testing.T) {
	t.Parallel()

	var got taskquery.Filter
	svc := &mocks.MockTaskService{
		ListFn: func(_ context.Context, _ uuid.UUID, f taskquery.Filter) (*service.TaskPage, error) {
			got = f
			return &service.TaskPage{Meta: service.PageMeta{CurrentPage: f.Page, ItemsPerPage: f.Limit}}, nil
		},
	}

	rr, env := do(t, newRouter(svc), uuid.New(), http.MethodGet, "/tasks?page=abc&limit=-4", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, got.Completed)
	assert.Equal(t, taskquery.DefaultPage, got.Page)
	assert.Equal(t, taskquery.DefaultLimit, got.Limit)
	assert.JSONEq(t, `[]`, string(env.Data), "empty pages encode as an empty array")
}

func TestListTasksRejectsBadCompleted(t *testing.T) {
	t.Parallel()

	svc := &mocks.MockTaskService{}
	rr, env := do(t, newRouter(svc), uuid.New(), http.MethodGet, "/tasks?completed=yes", "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Invalid completed value. Use true or false.", env.Message)
	assert.Equal(t, 0, svc.TotalCalls())
}

func TestListTasksValidationFromService(t *testing.T) {
	t.Parallel()

	svc := &mocks.MockTaskService{
		Err: domain.NewValidationError("startDate", "Invalid startDate format. Use YYYY-MM-DD.", domain.ErrInvalidFormat),
	}
	rr, env := do(t, newRouter(svc), uuid.New(), http.MethodGet, "/tasks?startDate=01-02-2024", "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid startDate format. Use YYYY-MM-DD.", env.Message)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "startDate", env.Errors[0].Field)
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := &mocks.MockTaskService{
		CreateFn: func(_ context.Context, id uuid.UUID, in service.CreateTaskInput) (*domain.Task, error) {
			assert.Equal(t, userID, id)
			assert.Equal(t, "Write report", in.Title)
			assert.Equal(t, domain.PriorityHigh, in.Priority)
			return sampleTask(userID), nil
		},
	}

	rr, env := do(t, newRouter(svc), userID, http.MethodPost, "/tasks",
		`{"title":"Write report","priority":"high"}`)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, env.Success)
	assert.Equal(t, MsgTaskCreated, env.Message)
	assert.Contains(t, string(env.Data), `"completed":false`)
}

func TestCreateTaskRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		wantMessage string
		wantFields  []string
	}{
		{name: "malformed json", body: `{"title":`, wantMessage: msgInvalidRequest},
		{name: "empty body", body: ``, wantMessage: msgInvalidRequest},
		{name: "wrong type", body: `{"title":42}`, wantMessage: msgInvalidRequest},
		{name: "missing title", body: `{"description":"x"}`, wantMessage: "is required", wantFields: []string{"title"}},
		{
			name:        "several fields",
			body:        `{"title":"` + strings.Repeat("a", 256) + `","priority":"urgent"}`,
			wantMessage: msgInvalidData,
			wantFields:  []string{"title", "priority"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &mocks.MockTaskService{}
			rr, env := do(t, newRouter(svc), uuid.New(), http.MethodPost, "/tasks", tc.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tc.wantMessage, env.Message)

			fields := make([]string, 0, len(env.Errors))
			for _, e := range env.Errors {
				fields = append(fields, e.Field)
			}
			assert.ElementsMatch(t, tc.wantFields, fields)
			assert.Equal(t, 0, svc.Calls("Create"))
		})
	}
}

func TestCreateTaskDomainValidation(t *testing.T) {
	t.Parallel()

	svc := &mocks.MockTaskService{
		Err: domain.ValidationErrors{domain.NewValidationError("title", "cannot be blank", nil)},
	}
	rr, env := do(t, newRouter(svc), uuid.New(), http.MethodPost, "/tasks", `{"title":"   "}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "title", env.Errors[0].Field)
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	task := sampleTask(userID)
	svc := &mocks.MockTaskService{
		GetFn: func(_ context.Context, uid, id uuid.UUID) (*domain.Task, error) {
			if uid == userID && id == task.ID {
				return task, nil
			}
			return nil, service.ErrTaskNotFound
		},
	}
	router := newRouter(svc)

	rr, env := do(t, router, userID, http.MethodGet, "/tasks/"+task.ID.String(), "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, string(env.Data), task.ID.String())

	rr, env = do(t, router, uuid.New(), http.MethodGet, "/tasks/"+task.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "other users cannot see the task")
	assert.Equal(t, msgTaskNotFound, env.Message)
}

func TestMalformedTaskIDIsNotFound(t *testing.T) {
	t.Parallel()

	svc := &mocks.MockTaskService{}
	router := newRouter(svc)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rr, env := do(t, router, uuid.New(), method, "/tasks/not-a-uuid", `{"completed":true}`)
		assert.Equal(t, http.StatusNotFound, rr.Code, method)
		assert.Equal(t, msgTaskNotFound, env.Message, method)
	}
	assert.Equal(t, 0, svc.TotalCalls())
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	task := sampleTask(userID)
	task.Completed = true

	svc := &mocks.MockTaskService{
		UpdateFn: func(_ context.Context, uid, id uuid.UUID, u domain.TaskUpdate) (*domain.Task, error) {
			assert.Equal(t, task.ID, id)
			require.NotNil(t, u.Completed)
			assert.True(t, *u.Completed)
			assert.Nil(t, u.Title)
			assert.Nil(t, u.Priority)
			return task, nil
		},
	}

	rr, env := do(t, newRouter(svc), userID, http.MethodPut, "/tasks/"+task.ID.String(), `{"completed":true}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, MsgTaskUpdated, env.Message)
	assert.Contains(t, string(env.Data), `"completed":true`)
}

func TestUpdateTaskErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantMsg    string
	}{
		{name: "not found", serviceErr: service.ErrTaskNotFound, wantStatus: http.StatusNotFound, wantMsg: msgTaskNotFound},
		{
			name:       "empty update",
			serviceErr: domain.NewValidationError("", "at least one field must be provided", nil),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "at least one field must be provided",
		},
		{
			name:       "store failure",
			serviceErr: &service.TaskServiceError{Operation: "update_task", Message: "failed", Err: errors.New("SELECT * FROM tasks")},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    msgInternalError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &mocks.MockTaskService{Err: tc.serviceErr}
			rr, env := do(t, newRouter(svc), uuid.New(), http.MethodPut, "/tasks/"+uuid.NewString(), `{}`)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantMsg, env.Message)
			assert.NotContains(t, rr.Body.String(), "SELECT")
		})
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	svc := &mocks.MockTaskService{}
	rr, env := do(t, newRouter(svc), uuid.New(), http.MethodDelete, "/tasks/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)
	assert.Equal(t, MsgTaskDeleted, env.Message)
	assert.Empty(t, env.Data)

	svc = &mocks.MockTaskService{Err: service.ErrTaskNotFound}
	rr, _ = do(t, newRouter(svc), uuid.New(), http.MethodDelete, "/tasks/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	svc := &mocks.MockTaskService{
		StatsFn: func(context.Context, uuid.UUID) (domain.TaskStats, error) {
			return domain.NewTaskStats(4, 3, 1), nil
		},
	}

	rr, env := do(t, newRouter(svc), uuid.New(), http.MethodGet, "/tasks/stats/summary", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total":4,"completed":3,"pending":1,"completionRate":"75.00"}`, string(env.Data))
	assert.Equal(t, 0, svc.Calls("Get"), "stats must not be routed as a task id")
}

func TestHandlersRequireUser(t *testing.T) {
	t.Parallel()

	svc := &mocks.MockTaskService{}
	router := newRouter(svc)

	for _, target := range []string{"/tasks", "/tasks/stats/summary", "/tasks/" + uuid.NewString()} {
		rr, _ := do(t, router, uuid.Nil, http.MethodGet, target, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, target)
	}
	assert.Equal(t, 0, svc.TotalCalls())
}

func TestNewTaskHandlerPanicsWithoutService(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewTaskHandler(nil, nil) })
}
