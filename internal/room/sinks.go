package room

import "sync"

// sinkQueue hands envelopes to the sinks on their own goroutine. push never
// blocks the room and nothing is dropped: an event log with holes cannot be
// replayed.
type sinkQueue struct {
	mu      sync.Mutex
	pending []Envelope
	closed  bool
	wake    chan struct{}
}

func newSinkQueue() *sinkQueue {
	return &sinkQueue{wake: make(chan struct{}, 1)}
}

func (q *sinkQueue) push(env Envelope) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, env)
	q.mu.Unlock()
	q.signal()
}

// close lets run deliver what is already queued and then return.
func (q *sinkQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *sinkQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *sinkQueue) run(code string, sinks []Sink) {
	for {
		q.mu.Lock()
		batch, closed := q.pending, q.closed
		q.pending = nil
		q.mu.Unlock()

		for _, env := range batch {
			for _, s := range sinks {
				s.Observe(code, env)
			}
		}
		if len(batch) == 0 {
			if closed {
				return
			}
			<-q.wake
		}
	}
}
