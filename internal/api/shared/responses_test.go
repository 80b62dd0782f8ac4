package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithSuccess(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	w := httptest.NewRecorder()

	RespondWithSuccess(w, req, http.StatusCreated, "Task created successfully",
		map[string]string{"id": "1"}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t,
		`{"success":true,"message":"Task created successfully","data":{"id":"1"}}`,
		w.Body.String())
}

func TestRespondWithSuccessOmitsEmptyFields(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodDelete, "/tasks/1", nil)
	w := httptest.NewRecorder()

	RespondWithSuccess(w, req, http.StatusOK, "Task deleted successfully", nil, nil)

	assert.JSONEq(t, `{"success":true,"message":"Task deleted successfully"}`, w.Body.String())
}

func TestRespondWithErrorIncludesTraceID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req = req.WithContext(SetTraceID(req.Context()))
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusNotFound, "Task not found")

	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Task not found", body.Message)
	assert.Equal(t, GetTraceID(req.Context()), body.TraceID)
	assert.Len(t, body.TraceID, TraceIDLength*2)
}

func TestRespondWithErrorAndLogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		opts      []ResponseOption
		wantLevel string
	}{
		{name: "server error", status: http.StatusInternalServerError, wantLevel: "ERROR"},
		{name: "rate limited", status: http.StatusTooManyRequests, wantLevel: "WARN"},
		{name: "client error", status: http.StatusBadRequest, wantLevel: "DEBUG"},
		{name: "elevated client error", status: http.StatusUnauthorized, opts: []ResponseOption{WithElevatedLogLevel()}, wantLevel: "WARN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			log, buf := logger.NewTestLogger()
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			req = req.WithContext(logger.WithLogger(context.Background(), log))
			w := httptest.NewRecorder()

			RespondWithErrorAndLog(w, req, tc.status, "safe message",
				errors.New("query failed: password=hunter2"), tc.opts...)

			entries, err := buf.Entries()
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, tc.wantLevel, entries[0]["level"])
			assert.NotContains(t, buf.String(), "hunter2")
			assert.NotContains(t, w.Body.String(), "query failed")
		})
	}
}

func TestRespondWithFieldErrors(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/tasks", nil)
	w := httptest.NewRecorder()

	RespondWithErrorAndLog(w, req, http.StatusBadRequest, "Invalid data", nil,
		WithFieldErrors([]FieldError{{Field: "title", Message: "cannot be blank"}}))

	assert.JSONEq(t,
		`{"success":false,"message":"Invalid data","errors":[{"field":"title","message":"cannot be blank"}]}`,
		w.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
		want    string
	}{
		{name: "valid", body: `{"title":"a"}`, want: "a"},
		{name: "empty", body: ``, wantErr: true},
		{name: "malformed", body: `{"title":`, wantErr: true},
		{name: "trailing data", body: `{"title":"a"} {"title":"b"}`, wantErr: true},
		{name: "wrong type", body: `{"title":5}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(tc.body))
			var got payload
			err := DecodeJSON(httptest.NewRecorder(), req, &got)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Title)
		})
	}
}

type selfValidating struct{ ok bool }

func (s selfValidating) Validate() error {
	if !s.ok {
		return errors.New("invalid")
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	type tagged struct {
		Name string `validate:"required"`
	}

	assert.Error(t, ValidateRequest(tagged{}))
	assert.NoError(t, ValidateRequest(tagged{Name: "x"}))
	assert.Error(t, ValidateRequest(selfValidating{}))
	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
}
