/*
Package eventqueue provides the per-task event bus.  An executor produces
events onto a task's primary queue; consumers read from the primary queue or
from taps, which receive every event enqueued after the tap was created.
*/
package eventqueue

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/metrics"
)

const DefaultMaxSize = 1024

var (
	ErrQueueClosed = errors.New("event queue is closed")
	ErrQueueExists = errors.New("event queue already exists for task")
	ErrNoQueue     = errors.New("no event queue for task")
)

/*
Queue is a bounded buffer of task events.  Enqueue multicasts to every tap
created before the call; taps never replay history.  Close is idempotent and
cascades to taps.
*/
type Queue struct {
	mu      sync.RWMutex
	events  chan a2a.Event
	taps    []*Queue
	closed  bool
	err     error
	dropped atomic.Int64
}

func New() *Queue {
	size := viper.GetInt("eventQueue.maxSize")
	if size <= 0 {
		size = DefaultMaxSize
	}
	return NewWithSize(size)
}

func NewWithSize(size int) *Queue {
	if size <= 0 {
		size = DefaultMaxSize
	}
	return &Queue{events: make(chan a2a.Event, size)}
}

/*
Enqueue offers an event to the queue and to every tap.  A full buffer drops
the event rather than blocking the producer; the drop is counted and logged.
*/
func (q *Queue) Enqueue(event a2a.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.events <- event:
		metrics.EventsEnqueued.Inc()
	default:
		q.dropped.Add(1)
		metrics.EventsDropped.Inc()
		log.Warn("event queue full, dropping event", "kind", event.EventKind())
	}

	for _, tap := range q.taps {
		// Tap may have been closed independently; its own Enqueue guards that.
		_ = tap.Enqueue(event)
	}

	return nil
}

/*
Events exposes the receive side of the queue.  The channel closes once the
queue is closed and drained of buffered events.
*/
func (q *Queue) Events() <-chan a2a.Event {
	return q.events
}

/*
Tap creates a child queue that observes every event enqueued from this point
on.  Events already buffered are not replayed.
*/
func (q *Queue) Tap() (*Queue, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrQueueClosed
	}

	tap := NewWithSize(cap(q.events))
	q.taps = append(q.taps, tap)
	return tap, nil
}

// Close closes the queue without a cause.
func (q *Queue) Close() {
	q.close(nil)
}

/*
CloseWithError closes the queue recording cause as the stream outcome,
surfaced to consumers through Err once the channel drains.
*/
func (q *Queue) CloseWithError(cause error) {
	q.close(cause)
}

func (q *Queue) close(cause error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	q.err = cause
	close(q.events)

	for _, tap := range q.taps {
		tap.close(cause)
	}
}

// Err returns the cause recorded by CloseWithError, if any.
func (q *Queue) Err() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.err
}

// Closed reports whether the queue no longer accepts events.
func (q *Queue) Closed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Dropped returns the number of events lost to buffer overflow.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}
