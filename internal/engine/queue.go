package engine

import "github.com/roach88/sequence/internal/ir"

// eventQueue is the FIFO of deferred callbacks.
//
// Once one callback is deferred, every later callback from the same
// operation is deferred behind it so delivery order matches emission order.
// The queue is owned by a single scheduler and is not safe for concurrent use.
type eventQueue struct {
	entries []ir.QueueEntry
}

func newEventQueue() *eventQueue {
	return &eventQueue{entries: make([]ir.QueueEntry, 0, 16)}
}

// Enqueue adds an entry to the back of the queue.
func (q *eventQueue) Enqueue(e ir.QueueEntry) {
	q.entries = append(q.entries, e)
}

// Peek returns the front entry without removing it.
func (q *eventQueue) Peek() (ir.QueueEntry, bool) {
	if len(q.entries) == 0 {
		return ir.QueueEntry{}, false
	}
	return q.entries[0], true
}

// TryDequeue removes and returns the front entry.
// Returns (ir.QueueEntry{}, false) if the queue is empty.
func (q *eventQueue) TryDequeue() (ir.QueueEntry, bool) {
	if len(q.entries) == 0 {
		return ir.QueueEntry{}, false
	}
	e := q.entries[0]
	if len(q.entries) == 1 {
		// Reuse the backing array once drained.
		q.entries = q.entries[:0]
	} else {
		q.entries = q.entries[1:]
	}
	return e, true
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	return len(q.entries)
}

// PushFront puts an entry ahead of every queued entry.
func (q *eventQueue) PushFront(e ir.QueueEntry) {
	q.entries = append(q.entries, ir.QueueEntry{})
	copy(q.entries[1:], q.entries)
	q.entries[0] = e
}
