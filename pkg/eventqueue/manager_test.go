package eventqueue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerAddGetClose(t *testing.T) {
	manager := NewManager()
	queue := NewWithSize(4)

	require.NoError(t, manager.Add("task-1", queue))
	assert.ErrorIs(t, manager.Add("task-1", NewWithSize(4)), ErrQueueExists)
	assert.Same(t, queue, manager.Get("task-1"))
	assert.Nil(t, manager.Get("missing"))

	require.NoError(t, manager.Close("task-1"))
	assert.True(t, queue.Closed())
	assert.Nil(t, manager.Get("task-1"))
	assert.ErrorIs(t, manager.Close("task-1"), ErrNoQueue)
}

func TestManagerTap(t *testing.T) {
	manager := NewManager()

	_, err := manager.Tap("missing")
	assert.ErrorIs(t, err, ErrNoQueue)

	queue := NewWithSize(4)
	require.NoError(t, manager.Add("task-1", queue))

	tap, err := manager.Tap("task-1")
	require.NoError(t, err)
	assert.NotSame(t, queue, tap)
}

func TestCreateOrTap(t *testing.T) {
	manager := NewManager()

	primary, err := manager.CreateOrTap("task-1")
	require.NoError(t, err)
	assert.Same(t, primary, manager.Get("task-1"))

	tap, err := manager.CreateOrTap("task-1")
	require.NoError(t, err)
	assert.NotSame(t, primary, tap)
	// The registry still points at the primary.
	assert.Same(t, primary, manager.Get("task-1"))
}

func TestRemove(t *testing.T) {
	manager := NewManager()

	primary, err := manager.CreateOrTap("task-1")
	require.NoError(t, err)

	tap, err := manager.CreateOrTap("task-1")
	require.NoError(t, err)

	// Deregistering a tap must leave the primary alone.
	manager.Remove("task-1", tap)
	assert.Same(t, primary, manager.Get("task-1"))
	assert.False(t, primary.Closed())

	manager.Remove("task-1", primary)
	assert.Nil(t, manager.Get("task-1"))
}

func TestCreateOrTapConcurrent(t *testing.T) {
	manager := NewManager()

	var wg sync.WaitGroup
	queues := make([]*Queue, 16)

	for i := range queues {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			queue, err := manager.CreateOrTap("task-1")
			assert.NoError(t, err)
			queues[i] = queue
		}(i)
	}

	wg.Wait()

	// Exactly one caller became the primary.
	primary := manager.Get("task-1")
	require.NotNil(t, primary)

	primaries := 0

	for _, queue := range queues {
		if queue == primary {
			primaries++
		}
	}

	assert.Equal(t, 1, primaries)
}
