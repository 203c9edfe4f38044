package taskmgr

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/eventqueue"
)

const DefaultPollTimeout = 500 * time.Millisecond

// ErrNoResponse is returned when a one-shot read finds no event in time.
var ErrNoResponse = errors.New("no response from agent")

/*
Consumer reads raw events off a task's queue.  It detects terminal events
but does not fold them; that is the Aggregator's job.
*/
type Consumer struct {
	queue *eventqueue.Queue

	mu  sync.Mutex
	err error
}

func NewConsumer(queue *eventqueue.Queue) *Consumer {
	return &Consumer{queue: queue}
}

/*
ConsumeOne returns the next event on the queue, waiting up to the configured
poll timeout.  An empty or closed queue yields ErrNoResponse (or the queue's
recorded close cause).
*/
func (consumer *Consumer) ConsumeOne(ctx context.Context) (a2a.Event, error) {
	timeout := viper.GetDuration("consumer.pollTimeout")
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrNoResponse
	case event, ok := <-consumer.queue.Events():
		if !ok {
			if cause := consumer.queue.Err(); cause != nil {
				return nil, cause
			}
			return nil, ErrNoResponse
		}

		return event, nil
	}
}

/*
ConsumeAll streams events from the queue until a terminal event, queue close
or context cancellation.  The returned channel closes when the stream ends;
check Err afterwards for a recorded executor failure.
*/
func (consumer *Consumer) ConsumeAll(ctx context.Context) <-chan a2a.Event {
	out := make(chan a2a.Event)

	go func() {
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				consumer.setErr(ctx.Err())
				return
			case event, ok := <-consumer.queue.Events():
				if !ok {
					consumer.setErr(consumer.queue.Err())
					return
				}

				select {
				case out <- event:
				case <-ctx.Done():
					consumer.setErr(ctx.Err())
					return
				}

				if a2a.Terminal(event) {
					// Natural completion ends the queue's lifecycle too.
					consumer.queue.Close()
					return
				}
			}
		}
	}()

	return out
}

func (consumer *Consumer) setErr(err error) {
	consumer.mu.Lock()
	defer consumer.mu.Unlock()

	if consumer.err == nil {
		consumer.err = err
	}
}

// Err reports the failure that ended the stream, if any.
func (consumer *Consumer) Err() error {
	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	return consumer.err
}
