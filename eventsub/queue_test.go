package eventsub

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queueItem(subID string, n int) item {
	return item{
		subscription: Subscription{ID: subID, Type: TypeStreamOnline},
		subType:      TypeStreamOnline,
		event:        json.RawMessage(fmt.Sprintf(`{"id":"evt-%d"}`, n)),
	}
}

func drainN(t *testing.T, cur *cursor, n int) []item {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	items := make([]item, 0, n)
	for i := 0; i < n; i++ {
		it, ok := cur.next(ctx)
		require.True(t, ok, "expected item %d", i)
		items = append(items, it)
	}
	return items
}

func TestQueue_OrderingAcrossReaders(t *testing.T) {
	q := newQueue()
	readers := []*cursor{q.subscribe(), q.subscribe(), q.subscribe()}

	const n = 20
	for i := 0; i < n; i++ {
		q.push(queueItem("sub-1", i))
	}

	for _, cur := range readers {
		items := drainN(t, cur, n)
		for i, it := range items {
			assert.JSONEq(t, fmt.Sprintf(`{"id":"evt-%d"}`, i), string(it.event))
		}
	}
}

func TestQueue_LateAttachmentSkipsHistory(t *testing.T) {
	q := newQueue()

	for i := 0; i < 5; i++ {
		q.push(queueItem("sub-1", i))
	}

	late := q.subscribe()
	q.push(queueItem("sub-1", 5))
	q.push(queueItem("sub-1", 6))

	items := drainN(t, late, 2)
	assert.JSONEq(t, `{"id":"evt-5"}`, string(items[0].event))
	assert.JSONEq(t, `{"id":"evt-6"}`, string(items[1].event))
}

func TestQueue_NextBlocksUntilPush(t *testing.T) {
	q := newQueue()
	cur := q.subscribe()

	got := make(chan item, 1)
	go func() {
		it, ok := cur.next(context.Background())
		if ok {
			got <- it
		}
	}()

	select {
	case <-got:
		t.Fatal("next returned before any push")
	case <-time.After(50 * time.Millisecond):
	}

	q.push(queueItem("sub-1", 0))

	select {
	case it := <-got:
		assert.Equal(t, "sub-1", it.subscription.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("next did not wake after push")
	}
}

func TestQueue_CloseReleasesBlockedReaders(t *testing.T) {
	q := newQueue()

	done := make(chan bool, 3)
	for i := 0; i < 3; i++ {
		cur := q.subscribe()
		go func() {
			_, ok := cur.next(context.Background())
			done <- ok
		}()
	}

	q.close()

	for i := 0; i < 3; i++ {
		select {
		case ok := <-done:
			assert.False(t, ok, "closed queue must report end-of-stream")
		case <-time.After(2 * time.Second):
			t.Fatal("blocked reader was not released by close")
		}
	}
}

func TestQueue_PushAfterCloseIsDropped(t *testing.T) {
	q := newQueue()
	q.close()
	q.push(queueItem("sub-1", 0))

	assert.Equal(t, 0, q.len())

	cur := q.subscribe()
	_, ok := cur.next(context.Background())
	assert.False(t, ok)
}

func TestQueue_CloseIsIdempotent(t *testing.T) {
	q := newQueue()
	q.close()
	assert.NotPanics(t, func() { q.close() })
}

func TestQueue_NextHonorsContextCancellation(t *testing.T) {
	q := newQueue()
	cur := q.subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		_, ok := cur.next(ctx)
		done <- ok
	}()

	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("next did not return after context cancellation")
	}
}

func TestQueue_DrainedItemsRemainVisibleToOtherReaders(t *testing.T) {
	q := newQueue()
	first := q.subscribe()
	second := q.subscribe()

	q.push(queueItem("sub-1", 0))
	drainN(t, first, 1)

	// The log is a broadcast, not pop-once: the second reader still sees it.
	items := drainN(t, second, 1)
	assert.JSONEq(t, `{"id":"evt-0"}`, string(items[0].event))
}
