package eventqueue

import (
	"sync"

	"github.com/charmbracelet/log"
)

/*
Manager maps task ids to their primary queues.  All operations are safe for
concurrent use; CreateOrTap is atomic with respect to concurrent callers for
the same task id.
*/
type Manager struct {
	mu     sync.Mutex
	queues map[string]*Queue
}

func NewManager() *Manager {
	return &Manager{queues: make(map[string]*Queue)}
}

// Add registers queue as the primary queue for taskID.
func (manager *Manager) Add(taskID string, queue *Queue) error {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	if _, ok := manager.queues[taskID]; ok {
		return ErrQueueExists
	}

	manager.queues[taskID] = queue
	return nil
}

// Get returns the primary queue for taskID, or nil when none is registered.
func (manager *Manager) Get(taskID string) *Queue {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.queues[taskID]
}

/*
Tap attaches a child queue to taskID's primary queue.  Resubscribers use this
to observe live events without consuming them.
*/
func (manager *Manager) Tap(taskID string) (*Queue, error) {
	manager.mu.Lock()
	queue, ok := manager.queues[taskID]
	manager.mu.Unlock()

	if !ok {
		return nil, ErrNoQueue
	}

	return queue.Tap()
}

/*
Close closes taskID's primary queue and removes it from the registry.  Taps
are closed transitively by the queue itself.
*/
func (manager *Manager) Close(taskID string) error {
	manager.mu.Lock()
	queue, ok := manager.queues[taskID]
	delete(manager.queues, taskID)
	manager.mu.Unlock()

	if !ok {
		return ErrNoQueue
	}

	queue.Close()
	log.Debug("closed event queue", "taskID", taskID)
	return nil
}

/*
Remove deregisters queue when it is taskID's registered primary.  Requests
that were handed a tap use this so finishing one of them cannot tear down the
primary still serving another.
*/
func (manager *Manager) Remove(taskID string, queue *Queue) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	if manager.queues[taskID] == queue {
		delete(manager.queues, taskID)
	}
}

/*
CreateOrTap returns a fresh primary queue for a task with no registered
queue, or a tap on the existing one.  The check and the creation happen under
one lock so concurrent callers cannot both become the primary.
*/
func (manager *Manager) CreateOrTap(taskID string) (*Queue, error) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	if queue, ok := manager.queues[taskID]; ok {
		return queue.Tap()
	}

	queue := New()
	manager.queues[taskID] = queue
	return queue, nil
}
