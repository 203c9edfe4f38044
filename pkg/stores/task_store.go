/*
Package stores holds the persistence layer for tasks.  The default store is
an in-memory map; an S3/MinIO backed store lives in the s3 subpackage.
*/
package stores

import (
	"context"
	"sync"

	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
)

/*
TaskStore persists task snapshots keyed by task id.  Implementations must be
safe for concurrent use.
*/
type TaskStore interface {
	Get(ctx context.Context, taskID string) (*a2a.Task, *errors.RpcError)
	Save(ctx context.Context, task *a2a.Task) *errors.RpcError
	Delete(ctx context.Context, taskID string) *errors.RpcError
}

/*
InMemoryTaskStore keeps tasks in a map guarded by a RWMutex.  Snapshots are
cloned on both write and read so callers never share mutable state with the
store.
*/
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task
}

func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{tasks: make(map[string]*a2a.Task)}
}

func (store *InMemoryTaskStore) Get(
	ctx context.Context, taskID string,
) (*a2a.Task, *errors.RpcError) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	task, ok := store.tasks[taskID]

	if !ok {
		return nil, errors.ErrTaskNotFound
	}

	return task.Clone(), nil
}

func (store *InMemoryTaskStore) Save(
	ctx context.Context, task *a2a.Task,
) *errors.RpcError {
	if task == nil || task.ID == "" {
		return errors.ErrInvalidParams.WithMessagef("task id is required")
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	store.tasks[task.ID] = task.Clone()
	return nil
}

func (store *InMemoryTaskStore) Delete(
	ctx context.Context, taskID string,
) *errors.RpcError {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.tasks[taskID]; !ok {
		return errors.ErrTaskNotFound
	}

	delete(store.tasks, taskID)
	return nil
}
