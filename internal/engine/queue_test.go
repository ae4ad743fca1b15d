package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sequence/internal/ir"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(ir.QueueEntry{Def: 0, Event: ir.EventInitialize})
	q.Enqueue(ir.QueueEntry{Def: 1, Event: ir.EventStep, Time: 250})
	q.Enqueue(ir.QueueEntry{Def: 2, Event: ir.EventFinalize})
	require.Equal(t, 3, q.Len())

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 0, head.Def)
	assert.Equal(t, 3, q.Len(), "peek must not remove")

	for want := 0; want < 3; want++ {
		e, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, e.Def)
	}
	assert.Equal(t, 0, q.Len())
}

func TestEventQueue_EmptyDequeue(t *testing.T) {
	q := newEventQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)
}

func TestEventQueue_ReusedAfterDrain(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(ir.QueueEntry{Def: 1})
	q.TryDequeue()
	q.Enqueue(ir.QueueEntry{Def: 2})

	require.Equal(t, 1, q.Len())
	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 2, head.Def)
}

func TestEventQueue_PushFront(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(ir.QueueEntry{Def: 1})
	q.Enqueue(ir.QueueEntry{Def: 2})
	q.TryDequeue()
	q.PushFront(ir.QueueEntry{Def: 5, Nested: true})

	e, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, ir.QueueEntry{Def: 5, Nested: true}, e)
	e, ok = q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, 2, e.Def)
	assert.Equal(t, 0, q.Len())
}
