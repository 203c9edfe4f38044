package a2a

import (
	"encoding/json"
	"fmt"
)

// Event kind discriminators used as the wire tag.
const (
	KindMessage        = "message"
	KindTask           = "task"
	KindStatusUpdate   = "status-update"
	KindArtifactUpdate = "artifact-update"
)

/*
Event is the sum type consumed by the execution engine: a full Message, a
full Task snapshot, or an incremental status/artifact update.  The kind
discriminator doubles as the wire tag.
*/
type Event interface {
	EventKind() string
}

/*
TaskEvent is implemented by every event variant that is tied to a task.
A top-level Message is the only Event that may not be.
*/
type TaskEvent interface {
	Event
	EventTaskID() string
	EventContextID() string
}

/*
TaskStatusUpdateEvent is sent when the agent wishes to inform the client of
a status transition.  Final marks the last event of the interaction.
*/
type TaskStatusUpdateEvent struct {
	Kind      string         `json:"kind"`
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	Final     bool           `json:"final"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewStatusUpdate(taskID, contextID string, state TaskState, final bool) *TaskStatusUpdateEvent {
	return &TaskStatusUpdateEvent{
		Kind:      KindStatusUpdate,
		TaskID:    taskID,
		ContextID: contextID,
		Status:    NewTaskStatus(state),
		Final:     final,
	}
}

func (evt *TaskStatusUpdateEvent) EventKind() string      { return KindStatusUpdate }
func (evt *TaskStatusUpdateEvent) EventTaskID() string    { return evt.TaskID }
func (evt *TaskStatusUpdateEvent) EventContextID() string { return evt.ContextID }

/*
TaskArtifactUpdateEvent is emitted when a new or updated artifact is
available for a task.  With Append set the parts are concatenated onto an
existing artifact with the same id; LastChunk marks the end of a chunked
artifact.
*/
type TaskArtifactUpdateEvent struct {
	Kind      string         `json:"kind"`
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId"`
	Artifact  Artifact       `json:"artifact"`
	Append    *bool          `json:"append,omitempty"`
	LastChunk *bool          `json:"lastChunk,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewArtifactUpdate(taskID, contextID string, artifact Artifact) *TaskArtifactUpdateEvent {
	return &TaskArtifactUpdateEvent{
		Kind:      KindArtifactUpdate,
		TaskID:    taskID,
		ContextID: contextID,
		Artifact:  artifact,
	}
}

func (evt *TaskArtifactUpdateEvent) EventKind() string      { return KindArtifactUpdate }
func (evt *TaskArtifactUpdateEvent) EventTaskID() string    { return evt.TaskID }
func (evt *TaskArtifactUpdateEvent) EventContextID() string { return evt.ContextID }

func (task *Task) EventTaskID() string    { return task.ID }
func (task *Task) EventContextID() string { return task.ContextID }

/*
Terminal reports whether evt ends the logical task interaction: a final
status update, a top-level message, or a task snapshot in a terminal
state.
*/
func Terminal(evt Event) bool {
	switch v := evt.(type) {
	case *TaskStatusUpdateEvent:
		return v.Final
	case *Message:
		return true
	case *Task:
		return v.Status.State.Terminal()
	}

	return false
}

/*
UnmarshalEvent decodes a single event from its wire form, dispatching on
the kind discriminator.
*/
func UnmarshalEvent(data []byte) (Event, error) {
	var probe struct {
		Kind string `json:"kind"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Kind {
	case KindMessage:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		return &msg, nil
	case KindTask:
		var task Task
		if err := json.Unmarshal(data, &task); err != nil {
			return nil, err
		}
		return &task, nil
	case KindStatusUpdate:
		var evt TaskStatusUpdateEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, err
		}
		return &evt, nil
	case KindArtifactUpdate:
		var evt TaskArtifactUpdateEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, err
		}
		return &evt, nil
	}

	return nil, fmt.Errorf("unknown event kind %q", probe.Kind)
}
