package taskmgr

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
)

/*
Aggregator combines a Consumer's event stream with a Manager's folding,
producing either a live stream of processed events or a single final result.
*/
type Aggregator struct {
	manager *Manager
}

func NewAggregator(manager *Manager) *Aggregator {
	return &Aggregator{manager: manager}
}

/*
ConsumeAndEmit folds every event through the manager while forwarding it to
the returned channel.  Streaming requests use this to relay executor events
as they happen.
*/
func (aggregator *Aggregator) ConsumeAndEmit(
	ctx context.Context, consumer *Consumer,
) <-chan a2a.Event {
	out := make(chan a2a.Event)

	go func() {
		defer close(out)

		for event := range consumer.ConsumeAll(ctx) {
			processed, rpcErr := aggregator.manager.Process(ctx, event)

			if rpcErr != nil {
				log.Error("failed to process event",
					"taskID", aggregator.manager.TaskID(), "error", rpcErr)
				continue
			}

			select {
			case out <- processed:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

/*
ConsumeAll folds the whole stream and returns the final result: the message
that ended it, or the folded task snapshot.
*/
func (aggregator *Aggregator) ConsumeAll(
	ctx context.Context, consumer *Consumer,
) (a2a.Event, *errors.RpcError) {
	for event := range consumer.ConsumeAll(ctx) {
		processed, rpcErr := aggregator.manager.Process(ctx, event)

		if rpcErr != nil {
			return nil, rpcErr
		}

		if message, ok := processed.(*a2a.Message); ok {
			return message, nil
		}
	}

	if err := consumer.Err(); err != nil && ctx.Err() == nil {
		return nil, errors.FromError(err)
	}

	task := aggregator.manager.GetTask(0)

	if task == nil {
		return nil, errors.ErrInvalidAgentResponse.WithMessagef(
			"agent produced no task",
		)
	}

	return task, nil
}

/*
ConsumeAndBreakOnInterrupt behaves like ConsumeAll but returns early once
the task reaches auth-required, handing the interrupted snapshot back while a
background goroutine keeps folding the remaining events.
*/
func (aggregator *Aggregator) ConsumeAndBreakOnInterrupt(
	ctx context.Context, consumer *Consumer,
) (a2a.Event, *errors.RpcError) {
	events := consumer.ConsumeAll(ctx)

	for event := range events {
		processed, rpcErr := aggregator.manager.Process(ctx, event)

		if rpcErr != nil {
			return nil, rpcErr
		}

		if message, ok := processed.(*a2a.Message); ok {
			return message, nil
		}

		if interrupted(processed) {
			go aggregator.drain(events)
			return aggregator.manager.GetTask(0), nil
		}
	}

	if err := consumer.Err(); err != nil && ctx.Err() == nil {
		return nil, errors.FromError(err)
	}

	task := aggregator.manager.GetTask(0)

	if task == nil {
		return nil, errors.ErrInvalidAgentResponse.WithMessagef(
			"agent produced no task",
		)
	}

	return task, nil
}

/*
interrupted reports whether evt pauses the task for authentication, either as
a status transition or as a full snapshot already in that state.
*/
func interrupted(evt a2a.Event) bool {
	switch v := evt.(type) {
	case *a2a.Task:
		return v.Status.State == a2a.TaskStateAuthRequired
	case *a2a.TaskStatusUpdateEvent:
		return v.Status.State == a2a.TaskStateAuthRequired
	}

	return false
}

// drain keeps folding events after an interrupt so the store stays current.
func (aggregator *Aggregator) drain(events <-chan a2a.Event) {
	for event := range events {
		if _, rpcErr := aggregator.manager.Process(context.Background(), event); rpcErr != nil {
			log.Error("failed to process drained event",
				"taskID", aggregator.manager.TaskID(), "error", rpcErr)
		}
	}
}

// Result returns the manager's current snapshot.
func (aggregator *Aggregator) Result(historyLength int) *a2a.Task {
	return aggregator.manager.GetTask(historyLength)
}
