package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/cache"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/events"
	"github.com/phrazzld/tasks-api/internal/platform/sqldb"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStack wires the real service, cache and SQLite store behind the router.
func newStack(t *testing.T) http.Handler {
	t.Helper()

	db, dialect := testdb.OpenSQLite(t)
	pages := cache.New[*service.TaskPage](cache.NewMemoryBackend(), cache.DefaultTTL)
	svc, err := service.NewTaskService(
		sqldb.NewTaskStore(db, dialect, nil),
		pages,
		events.NewInMemoryEventEmitter(nil),
		nil,
	)
	require.NoError(t, err)

	return newRouter(svc)
}

func decodeTasks(t *testing.T, env envelope) []domain.Task {
	t.Helper()
	var tasks []domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	return tasks
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()

	router := newStack(t)
	alice, bob := uuid.New(), uuid.New()

	// Prime the cache with an empty list.
	rr, env := do(t, router, alice, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeTasks(t, env))

	rr, env = do(t, router, alice, http.MethodPost, "/tasks", `{"title":"Buy milk","priority":"low"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &created))

	// The create invalidated the cached empty page.
	rr, env = do(t, router, alice, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, rr.Code)
	tasks := decodeTasks(t, env)
	require.Len(t, tasks, 1)
	assert.Equal(t, created.ID, tasks[0].ID)
	assert.Equal(t, service.PageMeta{TotalItems: 1, TotalPages: 1, CurrentPage: 1, ItemsPerPage: 10}, *env.Meta)

	// Filtered views are cached separately and also see updates.
	rr, env = do(t, router, alice, http.MethodGet, "/tasks?completed=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeTasks(t, env))

	rr, _ = do(t, router, alice, http.MethodPut, "/tasks/"+created.ID.String(), `{"completed":true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr, env = do(t, router, alice, http.MethodGet, "/tasks?completed=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeTasks(t, env), 1)

	// Bob sees none of it.
	rr, _ = do(t, router, bob, http.MethodGet, "/tasks/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr, _ = do(t, router, bob, http.MethodPut, "/tasks/"+created.ID.String(), `{"title":"hijacked","completed":false}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr, _ = do(t, router, bob, http.MethodDelete, "/tasks/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, env = do(t, router, alice, http.MethodGet, "/tasks/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	var stored domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	assert.Equal(t, "Buy milk", stored.Title, "another user's update must not apply")
	assert.True(t, stored.Completed)

	rr, env = do(t, router, alice, http.MethodGet, "/tasks/stats/summary", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total":1,"completed":1,"pending":0,"completionRate":"100.00"}`, string(env.Data))

	rr, _ = do(t, router, alice, http.MethodDelete, "/tasks/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr, env = do(t, router, alice, http.MethodGet, "/tasks?completed=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeTasks(t, env))

	rr, env = do(t, router, alice, http.MethodGet, "/tasks/stats/summary", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total":0,"completed":0,"pending":0,"completionRate":0}`, string(env.Data))
}

func TestMalformedDateIsRejected(t *testing.T) {
	t.Parallel()

	router := newStack(t)
	for _, q := range []string{"startDate=2024-1-01", "endDate=2024-02-30", "startDate=yesterday"} {
		rr, env := do(t, router, uuid.New(), http.MethodGet, "/tasks?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
		assert.Contains(t, env.Message, "format. Use YYYY-MM-DD.", q)
	}
}
