package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/eventqueue"
	"github.com/theapemachine/a2a-engine/pkg/push"
	"github.com/theapemachine/a2a-engine/pkg/stores"
	"github.com/theapemachine/a2a-engine/pkg/utils"
)

func newTestHandler(executor AgentExecutor) (*RequestHandler, *stores.InMemoryTaskStore) {
	store := stores.NewInMemoryTaskStore()

	return NewRequestHandler(
		executor, store, eventqueue.NewManager(), push.NewService(),
	), store
}

func sendParams(text string) a2a.MessageSendParams {
	return a2a.MessageSendParams{
		Message: a2a.NewTextMessage(a2a.RoleUser, text),
	}
}

func TestOnMessageSendBlocking(t *testing.T) {
	handler, store := newTestHandler(NewEchoExecutor())

	result, rpcErr := handler.OnMessageSend(context.Background(), sendParams("hello engine"))
	require.Nil(t, rpcErr)

	task, ok := result.(*a2a.Task)
	require.True(t, ok)
	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)

	require.Len(t, task.Artifacts, 1)
	assert.Equal(t, "hello engine", task.Artifacts[0].Parts[0].Text)

	stored, storeErr := store.Get(context.Background(), task.ID)
	require.Nil(t, storeErr)
	assert.Equal(t, a2a.TaskStateCompleted, stored.Status.State)
}

func TestOnMessageSendHistoryLength(t *testing.T) {
	handler, _ := newTestHandler(NewEchoExecutor())

	params := sendParams("hello")
	params.Configuration = &a2a.MessageSendConfiguration{
		HistoryLength: utils.Ptr(1),
	}

	result, rpcErr := handler.OnMessageSend(context.Background(), params)
	require.Nil(t, rpcErr)

	task, ok := result.(*a2a.Task)
	require.True(t, ok)
	assert.LessOrEqual(t, len(task.History), 1)
}

func TestOnMessageSendNonBlocking(t *testing.T) {
	handler, _ := newTestHandler(NewEchoExecutor())

	params := sendParams("hello")
	params.Configuration = &a2a.MessageSendConfiguration{
		Blocking: utils.Ptr(false),
	}

	result, rpcErr := handler.OnMessageSend(context.Background(), params)
	require.Nil(t, rpcErr)

	// The first produced event already carries the task snapshot.
	_, ok := result.(*a2a.Task)
	assert.True(t, ok)
}

// silentExecutor produces nothing, exercising the empty-stream paths.
type silentExecutor struct{}

func (silentExecutor) Execute(ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue) error {
	return nil
}

func (silentExecutor) Cancel(ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue) error {
	return nil
}

func TestOnMessageSendNoResponse(t *testing.T) {
	handler, _ := newTestHandler(silentExecutor{})

	params := sendParams("hello")
	params.Configuration = &a2a.MessageSendConfiguration{
		Blocking: utils.Ptr(false),
	}

	_, rpcErr := handler.OnMessageSend(context.Background(), params)
	require.NotNil(t, rpcErr)
	assert.Equal(t, -32006, rpcErr.Code)
}

// messageExecutor answers with a plain message, never creating a task.
type messageExecutor struct{}

func (messageExecutor) Execute(ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue) error {
	return queue.Enqueue(a2a.NewTextMessage(a2a.RoleAgent, "quick answer"))
}

func (messageExecutor) Cancel(ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue) error {
	return nil
}

func TestOnMessageSendMessageResult(t *testing.T) {
	handler, _ := newTestHandler(messageExecutor{})

	result, rpcErr := handler.OnMessageSend(context.Background(), sendParams("hi"))
	require.Nil(t, rpcErr)

	message, ok := result.(*a2a.Message)
	require.True(t, ok)
	assert.Equal(t, "quick answer", message.TextContent(""))
}

func TestOnMessageSendContinuation(t *testing.T) {
	handler, store := newTestHandler(NewEchoExecutor())

	t.Run("unknown task id yields -32001", func(t *testing.T) {
		params := sendParams("continue")
		params.Message.TaskID = "missing"

		_, rpcErr := handler.OnMessageSend(context.Background(), params)
		require.NotNil(t, rpcErr)
		assert.Equal(t, -32001, rpcErr.Code)
	})

	t.Run("terminal task rejects further messages", func(t *testing.T) {
		task := a2a.NewTask("done-task", "ctx-1")
		task.ToStatus(a2a.TaskStateCompleted, nil)
		require.Nil(t, store.Save(context.Background(), task))

		params := sendParams("continue")
		params.Message.TaskID = "done-task"

		_, rpcErr := handler.OnMessageSend(context.Background(), params)
		require.NotNil(t, rpcErr)
		assert.Equal(t, -32602, rpcErr.Code)
	})
}

func TestOnMessageStream(t *testing.T) {
	handler, _ := newTestHandler(NewEchoExecutor())

	events, rpcErr := handler.OnMessageStream(context.Background(), sendParams("stream me"))
	require.Nil(t, rpcErr)

	var kinds []string

	for event := range events {
		kinds = append(kinds, event.EventKind())
	}

	assert.Equal(t, []string{
		a2a.KindTask,
		a2a.KindStatusUpdate,
		a2a.KindArtifactUpdate,
		a2a.KindStatusUpdate,
	}, kinds)
}

func TestOnGetTask(t *testing.T) {
	handler, store := newTestHandler(NewEchoExecutor())

	t.Run("missing task yields -32001", func(t *testing.T) {
		_, rpcErr := handler.OnGetTask(context.Background(), a2a.TaskQueryParams{
			TaskIDParams: a2a.TaskIDParams{ID: "missing"},
		})

		require.NotNil(t, rpcErr)
		assert.Equal(t, -32001, rpcErr.Code)
	})

	t.Run("history is truncated to the requested length", func(t *testing.T) {
		task := a2a.NewTask("task-1", "ctx-1")

		for _, text := range []string{"one", "two", "three"} {
			task.History = append(task.History, *a2a.NewTextMessage(a2a.RoleUser, text))
		}

		require.Nil(t, store.Save(context.Background(), task))

		got, rpcErr := handler.OnGetTask(context.Background(), a2a.TaskQueryParams{
			TaskIDParams:  a2a.TaskIDParams{ID: "task-1"},
			HistoryLength: utils.Ptr(2),
		})

		require.Nil(t, rpcErr)
		require.Len(t, got.History, 2)
		assert.Equal(t, "two", got.History[0].TextContent(""))

		full, rpcErr := handler.OnGetTask(context.Background(), a2a.TaskQueryParams{
			TaskIDParams: a2a.TaskIDParams{ID: "task-1"},
		})

		require.Nil(t, rpcErr)
		assert.Len(t, full.History, 3)
	})
}

func TestOnCancelTask(t *testing.T) {
	t.Run("missing task yields -32001", func(t *testing.T) {
		handler, _ := newTestHandler(NewEchoExecutor())

		_, rpcErr := handler.OnCancelTask(context.Background(), a2a.TaskIDParams{ID: "missing"})
		require.NotNil(t, rpcErr)
		assert.Equal(t, -32001, rpcErr.Code)
	})

	t.Run("terminal task yields -32002", func(t *testing.T) {
		handler, store := newTestHandler(NewEchoExecutor())

		task := a2a.NewTask("task-1", "ctx-1")
		task.ToStatus(a2a.TaskStateCompleted, nil)
		require.Nil(t, store.Save(context.Background(), task))

		_, rpcErr := handler.OnCancelTask(context.Background(), a2a.TaskIDParams{ID: "task-1"})
		require.NotNil(t, rpcErr)
		assert.Equal(t, -32002, rpcErr.Code)
	})

	t.Run("running task folds to canceled", func(t *testing.T) {
		handler, store := newTestHandler(NewEchoExecutor())

		task := a2a.NewTask("task-1", "ctx-1")
		task.ToStatus(a2a.TaskStateWorking, nil)
		require.Nil(t, store.Save(context.Background(), task))

		got, rpcErr := handler.OnCancelTask(context.Background(), a2a.TaskIDParams{ID: "task-1"})
		require.Nil(t, rpcErr)
		assert.Equal(t, a2a.TaskStateCanceled, got.Status.State)

		stored, storeErr := store.Get(context.Background(), "task-1")
		require.Nil(t, storeErr)
		assert.Equal(t, a2a.TaskStateCanceled, stored.Status.State)
	})
}

func TestOnResubscribe(t *testing.T) {
	t.Run("missing task yields -32001", func(t *testing.T) {
		handler, _ := newTestHandler(NewEchoExecutor())

		_, rpcErr := handler.OnResubscribe(context.Background(), a2a.TaskIDParams{ID: "missing"})
		require.NotNil(t, rpcErr)
		assert.Equal(t, -32001, rpcErr.Code)
	})

	t.Run("quiescent task replays the stored snapshot", func(t *testing.T) {
		handler, store := newTestHandler(NewEchoExecutor())

		task := a2a.NewTask("task-1", "ctx-1")
		task.ToStatus(a2a.TaskStateCompleted, nil)
		require.Nil(t, store.Save(context.Background(), task))

		events, rpcErr := handler.OnResubscribe(context.Background(), a2a.TaskIDParams{ID: "task-1"})
		require.Nil(t, rpcErr)

		var received []a2a.Event

		for event := range events {
			received = append(received, event)
		}

		require.Len(t, received, 1)
		snapshot, ok := received[0].(*a2a.Task)
		require.True(t, ok)
		assert.Equal(t, "task-1", snapshot.ID)
	})
}

func TestPushConfigOperations(t *testing.T) {
	handler, store := newTestHandler(NewEchoExecutor())
	ctx := context.Background()

	t.Run("set for a missing task yields -32001", func(t *testing.T) {
		_, rpcErr := handler.OnSetPushConfig(ctx, a2a.TaskPushNotificationConfig{
			TaskID:                 "missing",
			PushNotificationConfig: a2a.PushNotificationConfig{URL: "https://example.com"},
		})

		require.NotNil(t, rpcErr)
		assert.Equal(t, -32001, rpcErr.Code)
	})

	t.Run("set then get round-trips", func(t *testing.T) {
		require.Nil(t, store.Save(ctx, a2a.NewTask("task-1", "ctx-1")))

		set, rpcErr := handler.OnSetPushConfig(ctx, a2a.TaskPushNotificationConfig{
			TaskID:                 "task-1",
			PushNotificationConfig: a2a.PushNotificationConfig{URL: "https://example.com/hook"},
		})

		require.Nil(t, rpcErr)
		assert.Equal(t, "task-1", set.TaskID)

		got, rpcErr := handler.OnGetPushConfig(ctx, a2a.GetTaskPushConfigParams{ID: "task-1"})
		require.Nil(t, rpcErr)
		assert.Equal(t, "https://example.com/hook", got.PushNotificationConfig.URL)
	})

	t.Run("get without any config yields -32003", func(t *testing.T) {
		require.Nil(t, store.Save(ctx, a2a.NewTask("task-2", "ctx-1")))

		_, rpcErr := handler.OnGetPushConfig(ctx, a2a.GetTaskPushConfigParams{TaskID: "task-2"})
		require.NotNil(t, rpcErr)
		assert.Equal(t, -32003, rpcErr.Code)
	})
}

// slowExecutor emits working, then completes after a delay.
type slowExecutor struct{ delay time.Duration }

func (s slowExecutor) Execute(ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue) error {
	if err := queue.Enqueue(a2a.NewTask(reqCtx.TaskID, reqCtx.ContextID)); err != nil {
		return err
	}

	if err := queue.Enqueue(a2a.NewStatusUpdate(reqCtx.TaskID, reqCtx.ContextID, a2a.TaskStateWorking, false)); err != nil {
		return err
	}

	time.Sleep(s.delay)
	return queue.Enqueue(a2a.NewStatusUpdate(reqCtx.TaskID, reqCtx.ContextID, a2a.TaskStateCompleted, true))
}

func (s slowExecutor) Cancel(ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue) error {
	return queue.Enqueue(a2a.NewStatusUpdate(reqCtx.TaskID, reqCtx.ContextID, a2a.TaskStateCanceled, true))
}

// failingExecutor announces the task and then dies mid-stream.
type failingExecutor struct{}

func (failingExecutor) Execute(ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue) error {
	if err := queue.Enqueue(a2a.NewTask(reqCtx.TaskID, reqCtx.ContextID)); err != nil {
		return err
	}

	return assert.AnError
}

func (failingExecutor) Cancel(ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue) error {
	return nil
}

func TestStreamSurfacesExecutorFailure(t *testing.T) {
	handler, _ := newTestHandler(failingExecutor{})

	events, rpcErr := handler.OnMessageStream(context.Background(), sendParams("doomed"))
	require.Nil(t, rpcErr)

	var received []a2a.Event

	for event := range events {
		received = append(received, event)
	}

	// The stream must end with the failure, not just stop.
	require.NotEmpty(t, received)

	fail, ok := received[len(received)-1].(*streamFailure)
	require.True(t, ok)
	assert.Equal(t, -32603, fail.err.Code)
}

/*
pacedExecutor finishes continuation turns immediately but keeps the first
turn open for a while, so a test can overlap two requests on one task.
*/
type pacedExecutor struct{ delay time.Duration }

func (p pacedExecutor) Execute(ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue) error {
	if err := queue.Enqueue(a2a.NewTask(reqCtx.TaskID, reqCtx.ContextID)); err != nil {
		return err
	}

	if reqCtx.Task != nil {
		return nil
	}

	time.Sleep(p.delay)
	return queue.Enqueue(a2a.NewStatusUpdate(reqCtx.TaskID, reqCtx.ContextID, a2a.TaskStateCompleted, true))
}

func (p pacedExecutor) Cancel(ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue) error {
	return queue.Enqueue(a2a.NewStatusUpdate(reqCtx.TaskID, reqCtx.ContextID, a2a.TaskStateCanceled, true))
}

func TestConcurrentSendKeepsStreamOpen(t *testing.T) {
	handler, _ := newTestHandler(pacedExecutor{delay: 200 * time.Millisecond})
	ctx := context.Background()

	events, rpcErr := handler.OnMessageStream(ctx, sendParams("first"))
	require.Nil(t, rpcErr)

	first := <-events
	task, ok := first.(*a2a.Task)
	require.True(t, ok)

	// A second request on the live task taps the primary queue; finishing
	// it must not truncate the first stream.
	params := sendParams("second")
	params.Message.TaskID = task.ID
	params.Configuration = &a2a.MessageSendConfiguration{Blocking: utils.Ptr(false)}

	_, rpcErr = handler.OnMessageSend(ctx, params)
	require.Nil(t, rpcErr)

	var last a2a.Event

	for event := range events {
		last = event
	}

	require.NotNil(t, last)
	assert.True(t, a2a.Terminal(last))
}

func TestStreamDeliversIncrementally(t *testing.T) {
	handler, _ := newTestHandler(slowExecutor{delay: 50 * time.Millisecond})

	start := time.Now()
	events, rpcErr := handler.OnMessageStream(context.Background(), sendParams("slow"))
	require.Nil(t, rpcErr)

	// The first event must arrive before the executor finishes.
	first := <-events
	assert.Equal(t, a2a.KindTask, first.EventKind())
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	for range events {
	}
}
