/*
Package s3 provides an S3/MinIO backed TaskStore.  Each task is stored as a
single JSON object under tasks/<id>.
*/
package s3

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
)

type Store struct {
	conn *Conn
}

func NewStore(conn *Conn) *Store {
	return &Store{conn: conn}
}

func objectKey(taskID string) string {
	return "tasks/" + taskID
}

func (store *Store) Get(
	ctx context.Context, taskID string,
) (*a2a.Task, *errors.RpcError) {
	data, err := store.conn.Get(ctx, objectKey(taskID))

	if err != nil {
		log.Error("failed to get task", "taskID", taskID, "error", err)
		return nil, errors.ErrTaskNotFound
	}

	var task a2a.Task

	if err := json.Unmarshal(data, &task); err != nil {
		log.Error("failed to unmarshal task", "taskID", taskID, "error", err)
		return nil, errors.ErrInternal.WithMessagef(
			"failed to unmarshal task: %v", err,
		)
	}

	return &task, nil
}

func (store *Store) Save(
	ctx context.Context, task *a2a.Task,
) *errors.RpcError {
	if task == nil || task.ID == "" {
		return errors.ErrInvalidParams.WithMessagef("task id is required")
	}

	data, err := json.Marshal(task)

	if err != nil {
		log.Error("failed to marshal task", "taskID", task.ID, "error", err)
		return errors.ErrInternal.WithMessagef("failed to marshal task: %v", err)
	}

	if err := store.conn.Put(ctx, objectKey(task.ID), data); err != nil {
		log.Error("failed to store task", "taskID", task.ID, "error", err)
		return errors.ErrInternal.WithMessagef("failed to store task: %v", err)
	}

	return nil
}

func (store *Store) Delete(
	ctx context.Context, taskID string,
) *errors.RpcError {
	if err := store.conn.Remove(ctx, objectKey(taskID)); err != nil {
		log.Error("failed to delete task", "taskID", taskID, "error", err)
		return errors.ErrInternal.WithMessagef("failed to delete task: %v", err)
	}

	return nil
}
