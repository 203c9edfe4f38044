package a2a

import "time"

/*
TaskState enumerates the mutually-exclusive states a task may be in.
States outside this set are treated as "unknown".
*/
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateAuthRequired  TaskState = "auth-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateCanceled      TaskState = "canceled"
	TaskStateFailed        TaskState = "failed"
	TaskStateRejected      TaskState = "rejected"
	TaskStateUnknown       TaskState = "unknown"
)

/*
Terminal reports whether a task in this state permits no further
transitions.
*/
func (state TaskState) Terminal() bool {
	switch state {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed,
		TaskStateRejected, TaskStateUnknown:
		return true
	}
	return false
}

/*
Interrupted reports whether the task is paused awaiting client action.
*/
func (state TaskState) Interrupted() bool {
	return state == TaskStateInputRequired || state == TaskStateAuthRequired
}

type TaskStatus struct {
	State     TaskState  `json:"state"`
	Message   *Message   `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

/*
NewTaskStatus returns a status in the given state stamped with the current
time.
*/
func NewTaskStatus(state TaskState) TaskStatus {
	now := time.Now().UTC()
	return TaskStatus{State: state, Timestamp: &now}
}
