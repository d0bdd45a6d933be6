package livequery

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recv reads one value with a deadline so a broken query fails the test
// instead of hanging it.
func recv(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a value")
		return 0
	}
}

func TestSubscribeDeliversCurrentValueImmediately(t *testing.T) {
	q := New(7, func() (int, error) { return 42, nil }, nil)
	defer q.Close()

	ch, cancel := q.Subscribe()
	defer cancel()

	// The zero snapshot arrives first, before any fetch completes.
	assert.Equal(t, 7, recv(t, ch))
}

func TestFirstFetchReachesSubscriber(t *testing.T) {
	q := New(0, func() (int, error) { return 42, nil }, nil)
	defer q.Close()

	ch, cancel := q.Subscribe()
	defer cancel()

	recv(t, ch) // zero snapshot
	assert.Equal(t, 42, recv(t, ch))
	assert.Equal(t, 42, q.Latest())
}

func TestFeedSignalTriggersRefetch(t *testing.T) {
	var n atomic.Int64
	feed := make(chan struct{}, 1)
	q := New(0, func() (int, error) { return int(n.Add(1)), nil }, feed)
	defer q.Close()

	ch, cancel := q.Subscribe()
	defer cancel()

	recv(t, ch) // zero
	require.Equal(t, 1, recv(t, ch))

	feed <- struct{}{}
	assert.Equal(t, 2, recv(t, ch))
}

func TestMulticastSharesOneFetch(t *testing.T) {
	var fetches atomic.Int64
	feed := make(chan struct{}, 1)
	q := New(0, func() (int, error) {
		return int(fetches.Add(1)), nil
	}, feed)
	defer q.Close()

	ch1, cancel1 := q.Subscribe()
	defer cancel1()
	recv(t, ch1)
	v1 := recv(t, ch1)

	ch2, cancel2 := q.Subscribe()
	defer cancel2()

	// The second subscriber replays the latest value without refetching.
	assert.Equal(t, v1, recv(t, ch2))

	feed <- struct{}{}
	a := recv(t, ch1)
	b := recv(t, ch2)
	assert.Equal(t, a, b, "both subscribers see the same recomputed value")
}

func TestSlowSubscriberConflatesToNewest(t *testing.T) {
	var n atomic.Int64
	q := New(0, func() (int, error) { return int(n.Add(1)), nil }, nil)
	defer q.Close()

	ch, cancel := q.Subscribe()
	defer cancel()
	recv(t, ch)

	// Recompute several times without draining; the buffer keeps only
	// the newest value.
	q.Notify()
	q.Notify()
	q.Notify()

	last := recv(t, ch)
	select {
	case stale := <-ch:
		assert.Greater(t, stale, last, "any further value must be newer")
	default:
	}
	assert.Equal(t, int(n.Load()), q.Latest())
}

func TestNotifyWithoutSubscribers(t *testing.T) {
	var n atomic.Int64
	q := New(0, func() (int, error) { return int(n.Add(1)), nil }, nil)
	defer q.Close()

	q.Notify()
	assert.Equal(t, 1, q.Latest())
}

func TestFetchErrorKeepsLastGoodValue(t *testing.T) {
	var fail atomic.Bool
	q := New(0, func() (int, error) {
		if fail.Load() {
			return 0, errors.New("db closed")
		}
		return 10, nil
	}, nil)
	defer q.Close()

	q.Notify()
	require.Equal(t, 10, q.Latest())

	fail.Store(true)
	q.Notify()
	assert.Equal(t, 10, q.Latest(), "a failed fetch must not clobber the value")
}

func TestLoopSuspendsAfterGrace(t *testing.T) {
	var fetches atomic.Int64
	feed := make(chan struct{}, 1)
	q := New(0, func() (int, error) { return int(fetches.Add(1)), nil }, feed)
	q.Grace = 20 * time.Millisecond
	defer q.Close()

	ch, cancel := q.Subscribe()
	recv(t, ch)
	recv(t, ch)
	cancel()

	// Past the grace window the loop exits; feed signals go nowhere.
	time.Sleep(100 * time.Millisecond)
	before := fetches.Load()
	select {
	case feed <- struct{}{}:
	default:
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, fetches.Load(), "no refetch while suspended")
}

func TestResubscribeAfterSuspensionRefetches(t *testing.T) {
	var fetches atomic.Int64
	q := New(0, func() (int, error) { return int(fetches.Add(1)), nil }, nil)
	q.Grace = 10 * time.Millisecond
	defer q.Close()

	ch, cancel := q.Subscribe()
	recv(t, ch)
	recv(t, ch)
	cancel()

	time.Sleep(50 * time.Millisecond)
	before := fetches.Load()

	ch2, cancel2 := q.Subscribe()
	defer cancel2()
	recv(t, ch2) // replayed latest

	assert.Eventually(t, func() bool {
		return fetches.Load() > before
	}, time.Second, 5*time.Millisecond, "a fresh subscriber wakes the loop and refetches")
}

func TestQuickDetachAttachKeepsLoopAlive(t *testing.T) {
	var fetches atomic.Int64
	q := New(0, func() (int, error) { return int(fetches.Add(1)), nil }, nil)
	q.Grace = time.Second
	defer q.Close()

	ch, cancel := q.Subscribe()
	recv(t, ch)
	recv(t, ch)
	cancel()

	// Reattach inside the grace window: the latest value is replayed
	// without waiting on a fetch.
	ch2, cancel2 := q.Subscribe()
	defer cancel2()
	assert.Equal(t, int(fetches.Load()), recv(t, ch2))
}

func TestCloseClosesSubscriberChannels(t *testing.T) {
	q := New(0, func() (int, error) { return 1, nil }, nil)

	ch, cancel := q.Subscribe()
	defer cancel()

	q.Close()

	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, time.Second, 5*time.Millisecond)

	// Double close is safe.
	q.Close()
}

func TestSubscribeAfterCloseReturnsClosedChannel(t *testing.T) {
	q := New(0, func() (int, error) { return 1, nil }, nil)
	q.Close()

	ch, cancel := q.Subscribe()
	defer cancel()
	_, ok := <-ch
	assert.False(t, ok)
}
