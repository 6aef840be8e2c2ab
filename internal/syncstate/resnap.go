package syncstate

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// ResnapQueue is a rate-limited FIFO of pending snapshot requests, one per
// (exchange, symbol) key. Multiple Machines asking for a resync in a short
// window collapse into a single queued entry per key; the limiter bounds
// how fast the queue drains regardless of how many Machines are asking.
type ResnapQueue struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	pending []string
	member  map[string]struct{}
	notify  chan struct{}
}

// NewResnapQueue creates a queue whose drain rate is governed by limiter.
// A nil limiter means unlimited draining.
func NewResnapQueue(limiter *rate.Limiter) *ResnapQueue {
	return &ResnapQueue{
		limiter: limiter,
		member:  make(map[string]struct{}),
		notify:  make(chan struct{}, 1),
	}
}

// Enqueue adds key to the queue unless it is already pending. Returns true
// if it was newly added.
func (q *ResnapQueue) Enqueue(key string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.member[key]; ok {
		return false
	}
	q.member[key] = struct{}{}
	q.pending = append(q.pending, key)

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the oldest pending key if the limiter currently allows a
// token and the queue is non-empty. It never blocks.
func (q *ResnapQueue) TryDequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tryDequeueLocked()
}

func (q *ResnapQueue) tryDequeueLocked() (string, bool) {
	if len(q.pending) == 0 {
		return "", false
	}
	if q.limiter != nil && !q.limiter.Allow() {
		return "", false
	}
	key := q.pending[0]
	q.pending = q.pending[1:]
	delete(q.member, key)
	return key, true
}

// WaitDequeue blocks until a key is available and the limiter releases a
// token, or ctx is canceled.
func (q *ResnapQueue) WaitDequeue(ctx context.Context) (string, error) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			key := q.pending[0]
			limiter := q.limiter
			q.mu.Unlock()

			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return "", err
				}
			}

			q.mu.Lock()
			if len(q.pending) > 0 && q.pending[0] == key {
				q.pending = q.pending[1:]
				delete(q.member, key)
				q.mu.Unlock()
				return key, nil
			}
			q.mu.Unlock()
			continue
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-q.notify:
		}
	}
}

// Len returns the number of pending, not-yet-dequeued keys.
func (q *ResnapQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
