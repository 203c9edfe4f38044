/*
Package taskmgr folds executor events into task snapshots and persists them.
A Manager is bound to one task for the duration of a request; Consumers read
queues and Aggregators combine the two into request results.
*/
package taskmgr

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
	"github.com/theapemachine/a2a-engine/pkg/stores"
)

/*
Manager applies events for a single task and writes the resulting snapshot
back to the store after every mutation.
*/
type Manager struct {
	mu        sync.Mutex
	taskID    string
	contextID string
	store     stores.TaskStore
	initial   *a2a.Message
	current   *a2a.Task
}

/*
NewManager binds a manager to the given task and context ids.  initial, when
non-nil, seeds the history of a task created on first status update.
*/
func NewManager(
	store stores.TaskStore, taskID, contextID string, initial *a2a.Message,
) *Manager {
	return &Manager{
		taskID:    taskID,
		contextID: contextID,
		store:     store,
		initial:   initial,
	}
}

// TaskID returns the task id the manager is bound to.
func (manager *Manager) TaskID() string {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.taskID
}

/*
Process folds one event into the task snapshot.  Message events pass through
untouched; task, status-update and artifact-update events mutate the snapshot
and persist it.  The returned event is the input event, so callers can stream
exactly what the executor produced.
*/
func (manager *Manager) Process(
	ctx context.Context, event a2a.Event,
) (a2a.Event, *errors.RpcError) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	if message, ok := event.(*a2a.Message); ok {
		return message, nil
	}

	taskEvent, ok := event.(a2a.TaskEvent)

	if !ok {
		return nil, errors.ErrInvalidAgentResponse.WithMessagef(
			"unsupported event kind %q", event.EventKind(),
		)
	}

	if rpcErr := manager.checkIdentity(taskEvent.EventTaskID()); rpcErr != nil {
		return nil, rpcErr
	}

	switch evt := taskEvent.(type) {
	case *a2a.Task:
		manager.current = evt.Clone()
		manager.contextID = evt.ContextID

		if rpcErr := manager.save(ctx); rpcErr != nil {
			return nil, rpcErr
		}

		return evt, nil
	case *a2a.TaskStatusUpdateEvent:
		if rpcErr := manager.applyStatus(ctx, evt); rpcErr != nil {
			return nil, rpcErr
		}

		return evt, nil
	case *a2a.TaskArtifactUpdateEvent:
		if rpcErr := manager.applyArtifact(ctx, evt); rpcErr != nil {
			return nil, rpcErr
		}

		return evt, nil
	}

	return nil, errors.ErrInvalidAgentResponse.WithMessagef(
		"unsupported event kind %q", event.EventKind(),
	)
}

func (manager *Manager) checkIdentity(taskID string) *errors.RpcError {
	if manager.taskID == "" {
		manager.taskID = taskID
		return nil
	}

	if taskID != manager.taskID {
		return errors.ErrInvalidParams.WithMessagef(
			"event task id %s does not match %s", taskID, manager.taskID,
		)
	}

	return nil
}

func (manager *Manager) applyStatus(
	ctx context.Context, evt *a2a.TaskStatusUpdateEvent,
) *errors.RpcError {
	task, rpcErr := manager.ensureTask(ctx)

	if rpcErr != nil {
		return rpcErr
	}

	if task.Status.State.Terminal() {
		return errors.ErrInvalidParams.WithMessagef(
			"task %s is already in terminal state %s", task.ID, task.Status.State,
		)
	}

	// The displaced status message becomes history, keeping the snapshot's
	// status a single message deep.
	if task.Status.Message != nil {
		task.History = append(task.History, *task.Status.Message)
	}

	task.Status = evt.Status
	log.Debug("task status update", "taskID", task.ID, "state", evt.Status.State)

	return manager.save(ctx)
}

func (manager *Manager) applyArtifact(
	ctx context.Context, evt *a2a.TaskArtifactUpdateEvent,
) *errors.RpcError {
	task, rpcErr := manager.ensureTask(ctx)

	if rpcErr != nil {
		return rpcErr
	}

	if evt.Append != nil && *evt.Append {
		idx := task.FindArtifact(evt.Artifact.ArtifactID)

		if idx < 0 {
			log.Warn("append to unknown artifact, storing whole chunk",
				"taskID", task.ID, "artifactID", evt.Artifact.ArtifactID)
			task.AddArtifact(evt.Artifact)
			return manager.save(ctx)
		}

		existing := &task.Artifacts[idx]
		existing.Parts = append(existing.Parts, evt.Artifact.Parts...)

		if evt.Artifact.Name != nil {
			existing.Name = evt.Artifact.Name
		}

		for key, value := range evt.Artifact.Metadata {
			if existing.Metadata == nil {
				existing.Metadata = make(map[string]any)
			}
			existing.Metadata[key] = value
		}

		return manager.save(ctx)
	}

	task.AddArtifact(evt.Artifact)
	return manager.save(ctx)
}

/*
ensureTask returns the working snapshot, loading it from the store or
creating a fresh submitted task when the executor emits updates before any
task event.
*/
func (manager *Manager) ensureTask(ctx context.Context) (*a2a.Task, *errors.RpcError) {
	if manager.current != nil {
		return manager.current, nil
	}

	if manager.taskID != "" {
		if task, rpcErr := manager.store.Get(ctx, manager.taskID); rpcErr == nil {
			manager.current = task
			manager.contextID = task.ContextID
			return manager.current, nil
		}
	}

	task := a2a.NewTask(manager.taskID, manager.contextID)

	if manager.initial != nil {
		task.History = append(task.History, *manager.initial)
	}

	manager.taskID = task.ID
	manager.contextID = task.ContextID
	manager.current = task

	return manager.current, nil
}

func (manager *Manager) save(ctx context.Context) *errors.RpcError {
	if manager.current == nil {
		return nil
	}

	return manager.store.Save(ctx, manager.current)
}

/*
UpdateWithMessage appends a message to the task history and persists the
snapshot.  Request handling uses this to record the incoming user message on
continuation turns.
*/
func (manager *Manager) UpdateWithMessage(
	ctx context.Context, message a2a.Message,
) *errors.RpcError {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	task, rpcErr := manager.ensureTask(ctx)

	if rpcErr != nil {
		return rpcErr
	}

	if task.Status.Message != nil {
		task.History = append(task.History, *task.Status.Message)
		task.Status.Message = nil
	}

	task.History = append(task.History, message)
	return manager.save(ctx)
}

/*
GetTask returns a clone of the current snapshot with its history truncated
to historyLength.  A non-positive historyLength keeps the full history.
*/
func (manager *Manager) GetTask(historyLength int) *a2a.Task {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	if manager.current == nil {
		return nil
	}

	return manager.current.TruncateHistory(historyLength)
}
