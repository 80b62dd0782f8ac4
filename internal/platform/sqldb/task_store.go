package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/phrazzld/tasks-api/internal/taskquery"
	"golang.org/x/sync/errgroup"
)

// TaskStore implements store.TaskStore on database/sql.
type TaskStore struct {
	db      store.DBTX
	dialect taskquery.Dialect
	logger  *slog.Logger
}

var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates a task store over db using dialect to build SQL.
// If logger is nil, slog.Default() is used.
func NewTaskStore(db store.DBTX, dialect taskquery.Dialect, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if dialect == nil {
		panic("dialect cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "task_store")),
	}
}

// WithTx returns a store that runs every statement on tx.
func (s *TaskStore) WithTx(tx *sql.Tx) *TaskStore {
	return &TaskStore{db: tx, dialect: s.dialect, logger: s.logger}
}

// List implements store.TaskStore.List. The page and the total count are
// read concurrently; List must not be called on a transaction-bound store.
func (s *TaskStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter taskquery.Filter,
) ([]*domain.Task, int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	stmts, err := taskquery.Build(s.dialect, userID, filter)
	if err != nil {
		return nil, 0, err
	}

	var (
		tasks []*domain.Task
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.queryTasks(gctx, stmts.Data)
		return err
	})
	g.Go(func() error {
		return s.db.QueryRowContext(gctx, stmts.Count.SQL, stmts.Count.Args...).Scan(&total)
	})

	if err := g.Wait(); err != nil {
		log.Error("failed to list tasks",
			redact.Attr(err),
			slog.String("user_id", userID.String()))
		return nil, 0, store.NewStoreError("task", "list", MapError(err))
	}

	log.Debug("listed tasks",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(tasks)),
		slog.Int64("total", total))
	return tasks, total, nil
}

func (s *TaskStore) queryTasks(ctx context.Context, stmt taskquery.Statement) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	stmt := taskquery.SelectByID(s.dialect, id, userID)
	task, err := scanTask(s.db.QueryRowContext(ctx, stmt.SQL, stmt.Args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			redact.Attr(err),
			slog.String("task_id", id.String()))
		return nil, store.NewStoreError("task", "get", MapError(err))
	}
	return task, nil
}

// Create implements store.TaskStore.Create.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	stmt := taskquery.Insert(s.dialect, task)
	if _, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
		log.Error("failed to create task",
			redact.Attr(err),
			slog.String("task_id", task.ID.String()))
		return store.NewStoreError("task", "create", MapError(err))
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// Update implements store.TaskStore.Update. The write and the read-back run
// in one transaction when the store holds a *sql.DB.
func (s *TaskStore) Update(
	ctx context.Context,
	id, userID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return s.update(ctx, id, userID, update)
	}

	var task *domain.Task
	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		task, err = s.WithTx(tx).update(ctx, id, userID, update)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskStore) update(
	ctx context.Context,
	id, userID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	stmt, err := taskquery.BuildUpdate(s.dialect, id, userID, update)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		log.Error("failed to update task",
			redact.Attr(err),
			slog.String("task_id", id.String()))
		return nil, store.NewStoreError("task", "update", MapError(err))
	}

	if err := checkRowsAffected(result); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id, userID)
}

// Delete implements store.TaskStore.Delete.
func (s *TaskStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	stmt := taskquery.Delete(s.dialect, id, userID)
	result, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		log.Error("failed to delete task",
			redact.Attr(err),
			slog.String("task_id", id.String()))
		return store.NewStoreError("task", "delete", MapError(err))
	}

	if err := checkRowsAffected(result); err != nil {
		return err
	}

	log.Info("task deleted", slog.String("task_id", id.String()))
	return nil
}

// Stats implements store.TaskStore.Stats.
func (s *TaskStore) Stats(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var total, completed, pending int64
	stmt := taskquery.BuildStats(s.dialect, userID)
	err := s.db.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&total, &completed, &pending)
	if err != nil {
		log.Error("failed to compute task stats",
			redact.Attr(err),
			slog.String("user_id", userID.String()))
		return domain.TaskStats{}, store.NewStoreError("task", "stats", MapError(err))
	}

	return domain.NewTaskStats(total, completed, pending), nil
}

// checkRowsAffected turns a zero-row UPDATE or DELETE into ErrTaskNotFound.
func checkRowsAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}
