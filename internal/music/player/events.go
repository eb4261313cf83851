package player

import "sync"

// eventQueue is an unbounded FIFO of events. Pushing never blocks, so the
// serializer is never held up by a slow consumer and no event is lost.
type eventQueue struct {
	mu    sync.Mutex
	items []Event
	ready chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{ready: make(chan struct{}, 1)}
}

func (q *eventQueue) push(e Event) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *eventQueue) drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}
