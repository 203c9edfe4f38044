package service

import (
	"github.com/google/uuid"
	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
)

/*
RequestContext is the normalized view of a message/send or message/stream
call handed to the executor: ids resolved, the incoming message stamped with
them, and the current task snapshot when one exists.
*/
type RequestContext struct {
	TaskID        string
	ContextID     string
	Message       *a2a.Message
	Task          *a2a.Task
	Configuration *a2a.MessageSendConfiguration
	Metadata      map[string]any
	User          User
}

/*
NewRequestContext validates params against the stored task (which may be
nil) and fills in missing ids.  A message naming a different task or context
than the one it is routed to is rejected.
*/
func NewRequestContext(
	params a2a.MessageSendParams, task *a2a.Task, user User,
) (*RequestContext, *errors.RpcError) {
	message := params.Message
	taskID := message.TaskID
	contextID := message.ContextID

	if task != nil {
		if taskID != "" && taskID != task.ID {
			return nil, errors.ErrInvalidParams.WithMessagef(
				"message task id %s does not match task %s", taskID, task.ID,
			)
		}

		if contextID != "" && contextID != task.ContextID {
			return nil, errors.ErrInvalidParams.WithMessagef(
				"message context id %s does not match task context %s",
				contextID, task.ContextID,
			)
		}

		taskID = task.ID
		contextID = task.ContextID
	}

	if taskID == "" {
		taskID = uuid.NewString()
	}

	if contextID == "" {
		contextID = uuid.NewString()
	}

	message.TaskID = taskID
	message.ContextID = contextID

	if message.MessageID == "" {
		message.MessageID = uuid.NewString()
	}

	return &RequestContext{
		TaskID:        taskID,
		ContextID:     contextID,
		Message:       message,
		Task:          task,
		Configuration: params.Configuration,
		Metadata:      params.Metadata,
		User:          user,
	}, nil
}

/*
GetUserInput joins the text parts of the incoming message with delimiter.
An empty delimiter joins with newlines.
*/
func (reqCtx *RequestContext) GetUserInput(delimiter string) string {
	if reqCtx.Message == nil {
		return ""
	}

	return reqCtx.Message.TextContent(delimiter)
}
