package service

import (
	"context"

	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/eventqueue"
	"github.com/theapemachine/a2a-engine/pkg/utils"
)

/*
AgentExecutor is the contract between the engine and agent logic.  Execute
runs the agent for one request, producing events onto the queue; it must end
the stream with a terminal event (or the engine closes the queue with its
returned error).  Cancel requests cooperative cancellation of the task.
*/
type AgentExecutor interface {
	Execute(ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue) error
	Cancel(ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue) error
}

/*
EchoExecutor is the default executor used by the serve command and the test
suite: it completes every task with an artifact echoing the user input.
*/
type EchoExecutor struct{}

func NewEchoExecutor() *EchoExecutor {
	return &EchoExecutor{}
}

func (executor *EchoExecutor) Execute(
	ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue,
) error {
	task := a2a.NewTask(reqCtx.TaskID, reqCtx.ContextID)
	task.History = append(task.History, *reqCtx.Message)

	if err := queue.Enqueue(task); err != nil {
		return err
	}

	working := a2a.NewStatusUpdate(
		reqCtx.TaskID, reqCtx.ContextID, a2a.TaskStateWorking, false,
	)

	if err := queue.Enqueue(working); err != nil {
		return err
	}

	artifact := a2a.NewTextArtifact("echo", reqCtx.GetUserInput(" "))
	update := a2a.NewArtifactUpdate(reqCtx.TaskID, reqCtx.ContextID, artifact)
	update.LastChunk = utils.Ptr(true)

	if err := queue.Enqueue(update); err != nil {
		return err
	}

	completed := a2a.NewStatusUpdate(
		reqCtx.TaskID, reqCtx.ContextID, a2a.TaskStateCompleted, true,
	)

	return queue.Enqueue(completed)
}

func (executor *EchoExecutor) Cancel(
	ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue,
) error {
	canceled := a2a.NewStatusUpdate(
		reqCtx.TaskID, reqCtx.ContextID, a2a.TaskStateCanceled, true,
	)

	return queue.Enqueue(canceled)
}
