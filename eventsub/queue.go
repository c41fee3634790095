package eventsub

import (
	"context"
	"encoding/json"
	"sync"
)

// item is one accepted webhook message: the subscription snapshot embedded in
// the payload plus the raw event (nil for revocations). Items are immutable
// once appended.
type item struct {
	subscription Subscription
	subType      string
	event        json.RawMessage
}

// queue is an append-only broadcast log. One writer (the Receiver), any
// number of cursors. Cursors attach at the current tail and then observe
// every subsequent item in append order; items are never removed, so a slow
// cursor delays nobody.
//
// Waiting cursors are woken by closing the wake channel, which push swaps
// for a fresh one on every append.
type queue struct {
	mu     sync.Mutex
	items  []item
	wake   chan struct{}
	closed bool
}

func newQueue() *queue {
	return &queue{wake: make(chan struct{})}
}

// push appends an item and wakes all waiting cursors. Pushes after close are
// dropped: a closed log never resurrects its readers.
func (q *queue) push(it item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.items = append(q.items, it)
	close(q.wake)
	q.wake = make(chan struct{})
}

// close marks the log terminal and releases every waiting cursor. Idempotent.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.wake)
}

// subscribe attaches a cursor at the current tail. The cursor never observes
// items pushed before attachment.
func (q *queue) subscribe() *cursor {
	q.mu.Lock()
	defer q.mu.Unlock()
	return &cursor{queue: q, offset: len(q.items)}
}

// cursor is one reader's position in the log. Not safe for concurrent use by
// multiple goroutines; attach one cursor per consumer.
type cursor struct {
	queue  *queue
	offset int
}

// next blocks until an item past the cursor's offset exists, then returns it.
// Returns ok=false once the log is closed and drained, or when ctx is done.
func (c *cursor) next(ctx context.Context) (item, bool) {
	q := c.queue
	q.mu.Lock()
	for {
		if c.offset < len(q.items) {
			it := q.items[c.offset]
			c.offset++
			q.mu.Unlock()
			return it, true
		}
		if q.closed {
			q.mu.Unlock()
			return item{}, false
		}

		wake := q.wake
		q.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return item{}, false
		}
		q.mu.Lock()
	}
}

// len reports the number of items appended so far.
func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
