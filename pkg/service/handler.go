package service

import (
	"context"
	stderrors "errors"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
	"github.com/theapemachine/a2a-engine/pkg/eventqueue"
	"github.com/theapemachine/a2a-engine/pkg/push"
	"github.com/theapemachine/a2a-engine/pkg/stores"
	"github.com/theapemachine/a2a-engine/pkg/taskmgr"
)

/*
RequestHandler wires the executor, the task store, the queue manager and the
push service into the protocol operations.  It implements tasks.Handler.
*/
type RequestHandler struct {
	executor AgentExecutor
	store    stores.TaskStore
	queues   *eventqueue.Manager
	push     *push.Service
}

func NewRequestHandler(
	executor AgentExecutor,
	store stores.TaskStore,
	queues *eventqueue.Manager,
	pushService *push.Service,
) *RequestHandler {
	return &RequestHandler{
		executor: executor,
		store:    store,
		queues:   queues,
		push:     pushService,
	}
}

/*
setup resolves the stored task, validates the request against it, registers
any push config carried in the params and starts the executor on the task's
queue.  Both send and stream go through here.
*/
func (handler *RequestHandler) setup(
	ctx context.Context, params a2a.MessageSendParams,
) (*taskmgr.Manager, *eventqueue.Queue, *RequestContext, *errors.RpcError) {
	var task *a2a.Task

	if params.Message.TaskID != "" {
		stored, rpcErr := handler.store.Get(ctx, params.Message.TaskID)

		if rpcErr != nil {
			return nil, nil, nil, errors.ErrTaskNotFound.WithMessagef(
				"task %s not found", params.Message.TaskID,
			)
		}

		if stored.Status.State.Terminal() {
			return nil, nil, nil, errors.ErrInvalidParams.WithMessagef(
				"task %s is in terminal state %s", stored.ID, stored.Status.State,
			)
		}

		task = stored
	}

	reqCtx, rpcErr := NewRequestContext(params, task, CallContextFrom(ctx).User)

	if rpcErr != nil {
		return nil, nil, nil, rpcErr
	}

	if params.Configuration != nil && params.Configuration.PushNotificationConfig != nil {
		if _, rpcErr := handler.push.Set(
			reqCtx.TaskID, *params.Configuration.PushNotificationConfig,
		); rpcErr != nil {
			return nil, nil, nil, rpcErr
		}
	}

	manager := taskmgr.NewManager(
		handler.store, reqCtx.TaskID, reqCtx.ContextID, reqCtx.Message,
	)

	if task != nil {
		if rpcErr := manager.UpdateWithMessage(ctx, *reqCtx.Message); rpcErr != nil {
			return nil, nil, nil, rpcErr
		}
	}

	queue, err := handler.queues.CreateOrTap(reqCtx.TaskID)

	if err != nil {
		return nil, nil, nil, errors.FromError(err)
	}

	go func() {
		// Executor lifetime is not bound to the request context; a client
		// disconnect must not kill the task.
		execCtx := context.Background()

		if err := handler.executor.Execute(execCtx, reqCtx, queue); err != nil {
			log.Error("executor failed", "taskID", reqCtx.TaskID, "error", err)
			queue.CloseWithError(err)
		}

		// Close only the queue this request owns; a tap must not tear down
		// the primary serving a concurrent request on the same task.
		queue.Close()
		handler.queues.Remove(reqCtx.TaskID, queue)
	}()

	return manager, queue, reqCtx, nil
}

/*
OnMessageSend serves message/send.  With blocking explicitly disabled the
first produced event decides the response; otherwise the stream is folded to
completion, breaking early when the task pauses for authentication.
*/
func (handler *RequestHandler) OnMessageSend(
	ctx context.Context, params a2a.MessageSendParams,
) (a2a.Event, *errors.RpcError) {
	manager, queue, _, rpcErr := handler.setup(ctx, params)

	if rpcErr != nil {
		return nil, rpcErr
	}

	consumer := taskmgr.NewConsumer(queue)
	aggregator := taskmgr.NewAggregator(manager)

	blocking := true

	if params.Configuration != nil && params.Configuration.Blocking != nil {
		blocking = *params.Configuration.Blocking
	}

	var result a2a.Event

	if blocking {
		result, rpcErr = aggregator.ConsumeAndBreakOnInterrupt(ctx, consumer)
	} else {
		result, rpcErr = handler.consumeOne(ctx, consumer, manager)
	}

	if rpcErr != nil {
		return nil, rpcErr
	}

	handler.notify(ctx, manager)

	if _, ok := result.(*a2a.Task); ok {
		result = aggregator.Result(historyLength(params.Configuration))
	}

	return result, nil
}

/*
consumeOne reads a single event off the queue and folds it.  An empty queue
within the poll timeout means the agent produced nothing usable.
*/
func (handler *RequestHandler) consumeOne(
	ctx context.Context, consumer *taskmgr.Consumer, manager *taskmgr.Manager,
) (a2a.Event, *errors.RpcError) {
	event, err := consumer.ConsumeOne(ctx)

	if err != nil {
		if stderrors.Is(err, taskmgr.ErrNoResponse) {
			return nil, errors.ErrInvalidAgentResponse.WithMessagef(
				"agent produced no response",
			)
		}

		return nil, errors.FromError(err)
	}

	processed, rpcErr := manager.Process(ctx, event)

	if rpcErr != nil {
		return nil, rpcErr
	}

	if message, ok := processed.(*a2a.Message); ok {
		return message, nil
	}

	if task := manager.GetTask(0); task != nil {
		return task, nil
	}

	return processed, nil
}

/*
OnMessageStream serves message/stream: every processed event is relayed to
the caller as it is produced.
*/
func (handler *RequestHandler) OnMessageStream(
	ctx context.Context, params a2a.MessageSendParams,
) (<-chan a2a.Event, *errors.RpcError) {
	manager, queue, _, rpcErr := handler.setup(ctx, params)

	if rpcErr != nil {
		return nil, rpcErr
	}

	consumer := taskmgr.NewConsumer(queue)
	aggregator := taskmgr.NewAggregator(manager)

	return handler.relay(ctx, aggregator.ConsumeAndEmit(ctx, consumer), consumer, manager), nil
}

/*
streamFailure ends a relayed stream that died instead of completing.  The
transport layer turns it into a final error frame so clients can tell an
executor failure from natural completion.
*/
type streamFailure struct {
	err *errors.RpcError
}

func (fail *streamFailure) EventKind() string { return "failure" }

/*
relay forwards events to the caller and fires push notifications once the
stream ends.  A recorded executor failure is appended as the closing event.
*/
func (handler *RequestHandler) relay(
	ctx context.Context,
	events <-chan a2a.Event,
	consumer *taskmgr.Consumer,
	manager *taskmgr.Manager,
) <-chan a2a.Event {
	out := make(chan a2a.Event)

	go func() {
		defer close(out)
		defer handler.notify(ctx, manager)

		for event := range events {
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}

		if err := consumer.Err(); err != nil && ctx.Err() == nil {
			select {
			case out <- &streamFailure{err: errors.FromError(err)}:
			case <-ctx.Done():
			}
		}
	}()

	return out
}

// notify posts the current snapshot to any registered webhooks.
func (handler *RequestHandler) notify(ctx context.Context, manager *taskmgr.Manager) {
	task := manager.GetTask(0)

	if task == nil || !handler.push.Has(task.ID) {
		return
	}

	handler.push.Notify(ctx, task)
}

// OnGetTask serves tasks/get.
func (handler *RequestHandler) OnGetTask(
	ctx context.Context, params a2a.TaskQueryParams,
) (*a2a.Task, *errors.RpcError) {
	task, rpcErr := handler.store.Get(ctx, params.ID)

	if rpcErr != nil {
		return nil, errors.ErrTaskNotFound.WithMessagef("task %s not found", params.ID)
	}

	length := 0

	if params.HistoryLength != nil {
		length = *params.HistoryLength
	}

	return task.TruncateHistory(length), nil
}

/*
OnCancelTask serves tasks/cancel.  The executor is asked to cancel
cooperatively; its resulting events are folded into the returned snapshot.
*/
func (handler *RequestHandler) OnCancelTask(
	ctx context.Context, params a2a.TaskIDParams,
) (*a2a.Task, *errors.RpcError) {
	stored, rpcErr := handler.store.Get(ctx, params.ID)

	if rpcErr != nil {
		return nil, errors.ErrTaskNotFound.WithMessagef("task %s not found", params.ID)
	}

	if stored.Status.State.Terminal() {
		return nil, errors.ErrTaskNotCancelable.WithMessagef(
			"task %s is in terminal state %s", stored.ID, stored.Status.State,
		)
	}

	reqCtx := &RequestContext{
		TaskID:    stored.ID,
		ContextID: stored.ContextID,
		Message:   stored.LastMessage(),
		Task:      stored,
		User:      CallContextFrom(ctx).User,
	}

	queue, err := handler.queues.CreateOrTap(stored.ID)

	if err != nil {
		return nil, errors.FromError(err)
	}

	manager := taskmgr.NewManager(handler.store, stored.ID, stored.ContextID, nil)

	go func() {
		if err := handler.executor.Cancel(context.Background(), reqCtx, queue); err != nil {
			log.Error("cancel failed", "taskID", stored.ID, "error", err)
			queue.CloseWithError(err)
		}

		queue.Close()
		handler.queues.Remove(stored.ID, queue)
	}()

	consumer := taskmgr.NewConsumer(queue)
	aggregator := taskmgr.NewAggregator(manager)

	result, rpcErr := aggregator.ConsumeAll(ctx, consumer)

	if rpcErr != nil {
		return nil, rpcErr
	}

	handler.notify(ctx, manager)

	task, ok := result.(*a2a.Task)

	if !ok {
		return nil, errors.ErrInvalidAgentResponse.WithMessagef(
			"cancel produced %s instead of a task", result.EventKind(),
		)
	}

	return task, nil
}

/*
OnResubscribe serves tasks/resubscribe.  A live task yields a tap on its
queue; a quiescent one yields just the stored snapshot.
*/
func (handler *RequestHandler) OnResubscribe(
	ctx context.Context, params a2a.TaskIDParams,
) (<-chan a2a.Event, *errors.RpcError) {
	stored, rpcErr := handler.store.Get(ctx, params.ID)

	if rpcErr != nil {
		return nil, errors.ErrTaskNotFound.WithMessagef("task %s not found", params.ID)
	}

	tap, err := handler.queues.Tap(params.ID)

	if err != nil {
		// No active queue: replay the snapshot as the only event.
		out := make(chan a2a.Event, 1)
		out <- stored
		close(out)
		return out, nil
	}

	manager := taskmgr.NewManager(handler.store, stored.ID, stored.ContextID, nil)
	consumer := taskmgr.NewConsumer(tap)
	aggregator := taskmgr.NewAggregator(manager)

	return aggregator.ConsumeAndEmit(ctx, consumer), nil
}

// OnSetPushConfig serves tasks/pushNotificationConfig/set.
func (handler *RequestHandler) OnSetPushConfig(
	ctx context.Context, params a2a.TaskPushNotificationConfig,
) (a2a.TaskPushNotificationConfig, *errors.RpcError) {
	if _, rpcErr := handler.store.Get(ctx, params.TaskID); rpcErr != nil {
		return a2a.TaskPushNotificationConfig{}, errors.ErrTaskNotFound.WithMessagef(
			"task %s not found", params.TaskID,
		)
	}

	return handler.push.Set(params.TaskID, params.PushNotificationConfig)
}

// OnGetPushConfig serves tasks/pushNotificationConfig/get.
func (handler *RequestHandler) OnGetPushConfig(
	ctx context.Context, params a2a.GetTaskPushConfigParams,
) (a2a.TaskPushNotificationConfig, *errors.RpcError) {
	taskID := params.TaskID

	if taskID == "" {
		taskID = params.ID
	}

	if _, rpcErr := handler.store.Get(ctx, taskID); rpcErr != nil {
		return a2a.TaskPushNotificationConfig{}, errors.ErrTaskNotFound.WithMessagef(
			"task %s not found", taskID,
		)
	}

	configID := ""

	if params.PushNotificationConfigID != nil {
		configID = *params.PushNotificationConfigID
	}

	return handler.push.Get(taskID, configID)
}

func historyLength(config *a2a.MessageSendConfiguration) int {
	if config == nil || config.HistoryLength == nil {
		return 0
	}

	return *config.HistoryLength
}
