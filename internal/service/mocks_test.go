package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/phrazzld/tasks-api/internal/taskquery"
	"github.com/stretchr/testify/mock"
)

// MockTaskStore mocks store.TaskStore.
type MockTaskStore struct {
	mock.Mock
}

var _ store.TaskStore = (*MockTaskStore)(nil)

func (m *MockTaskStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter taskquery.Filter,
) ([]*domain.Task, int64, error) {
	args := m.Called(ctx, userID, filter)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Get(1).(int64), args.Error(2)
}

func (m *MockTaskStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskStore) Update(
	ctx context.Context,
	id, userID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	args := m.Called(ctx, id, userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockTaskStore) Stats(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.TaskStats), args.Error(1)
}
