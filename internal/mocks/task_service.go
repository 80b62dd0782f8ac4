package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/taskquery"
)

// MockTaskService implements service.TaskService for testing. Unset
// functions return zero values and Err.
type MockTaskService struct {
	ListFn   func(ctx context.Context, userID uuid.UUID, filter taskquery.Filter) (*service.TaskPage, error)
	GetFn    func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	CreateFn func(ctx context.Context, userID uuid.UUID, input service.CreateTaskInput) (*domain.Task, error)
	UpdateFn func(ctx context.Context, userID, taskID uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)
	DeleteFn func(ctx context.Context, userID, taskID uuid.UUID) error
	StatsFn  func(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error)

	Err error

	mu    sync.Mutex
	calls map[string]int
}

var _ service.TaskService = (*MockTaskService)(nil)

func (m *MockTaskService) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

// Calls returns how many times method was invoked.
func (m *MockTaskService) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of invocations across all methods.
func (m *MockTaskService) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// List implements service.TaskService.
func (m *MockTaskService) List(
	ctx context.Context,
	userID uuid.UUID,
	filter taskquery.Filter,
) (*service.TaskPage, error) {
	m.record("List")
	if m.ListFn != nil {
		return m.ListFn(ctx, userID, filter)
	}
	return nil, m.Err
}

// Get implements service.TaskService.
func (m *MockTaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	m.record("Get")
	if m.GetFn != nil {
		return m.GetFn(ctx, userID, taskID)
	}
	return nil, m.Err
}

// Create implements service.TaskService.
func (m *MockTaskService) Create(
	ctx context.Context,
	userID uuid.UUID,
	input service.CreateTaskInput,
) (*domain.Task, error) {
	m.record("Create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, userID, input)
	}
	return nil, m.Err
}

// Update implements service.TaskService.
func (m *MockTaskService) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	m.record("Update")
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, userID, taskID, update)
	}
	return nil, m.Err
}

// Delete implements service.TaskService.
func (m *MockTaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	m.record("Delete")
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, taskID)
	}
	return m.Err
}

// Stats implements service.TaskService.
func (m *MockTaskService) Stats(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error) {
	m.record("Stats")
	if m.StatsFn != nil {
		return m.StatsFn(ctx, userID)
	}
	return domain.TaskStats{}, m.Err
}
