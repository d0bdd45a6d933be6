// Package livequery turns a one-shot fetch into a continuously-updating,
// multicast value: refetched whenever a change feed fires, shared by any
// number of subscribers, and suspended while nobody is watching.
package livequery

import (
	"sync"
	"time"
)

// DefaultGrace is how long a query keeps its refresh loop alive after the
// last subscriber leaves, so quick detach/attach cycles don't refetch.
const DefaultGrace = 5 * time.Second

// Query multicasts the result of fetch to all subscribers. It always holds
// a current value, starting from the zero snapshot passed to New, so
// subscribers never observe an absent state. One fetch serves every
// subscriber; the refresh loop only runs while someone is subscribed
// (plus the grace window).
type Query[T any] struct {
	fetch func() (T, error)
	feed  <-chan struct{}

	// Grace overrides DefaultGrace. Set before the first Subscribe.
	Grace time.Duration

	refreshMu sync.Mutex // serializes fetch+broadcast

	mu      sync.Mutex
	latest  T
	subs    map[chan T]struct{}
	running bool
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

// New builds a query over fetch. feed signals that underlying data changed;
// it may be nil for queries invalidated only via Notify. zero is the value
// observed before the first successful fetch.
func New[T any](zero T, fetch func() (T, error), feed <-chan struct{}) *Query[T] {
	return &Query[T]{
		fetch:  fetch,
		feed:   feed,
		Grace:  DefaultGrace,
		latest: zero,
		subs:   make(map[chan T]struct{}),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Latest returns the current value without subscribing.
func (q *Query[T]) Latest() T {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.latest
}

// Subscribe registers an observer. The channel immediately carries the
// current value, then every recomputed one; slow observers are conflated
// to the newest value rather than queued. cancel detaches the observer.
func (q *Query[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	q.subs[ch] = struct{}{}
	ch <- q.latest
	start := !q.running
	if start {
		q.running = true
	}
	q.mu.Unlock()

	if start {
		go q.loop()
	}
	q.signalWake()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			q.mu.Lock()
			delete(q.subs, ch)
			q.mu.Unlock()
			q.signalWake()
		})
	}
	return ch, cancel
}

// Notify forces a synchronous recompute, for inputs that live outside the
// change feed (draft fields held by the caller).
func (q *Query[T]) Notify() {
	q.refresh()
}

// Close tears the query down and closes all subscriber channels.
func (q *Query[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	for ch := range q.subs {
		delete(q.subs, ch)
		close(ch)
	}
	q.mu.Unlock()
}

func (q *Query[T]) loop() {
	q.refresh()

	for {
		if q.subscriberCount() == 0 {
			timer := time.NewTimer(q.Grace)
			select {
			case <-q.done:
				timer.Stop()
				return
			case <-q.wake:
				timer.Stop()
				if q.subscriberCount() == 0 {
					continue
				}
				// A subscriber attached while idle: refetch so it does
				// not sit on data from before the suspension.
				q.refresh()
			case <-timer.C:
				q.mu.Lock()
				if len(q.subs) == 0 {
					q.running = false
					q.mu.Unlock()
					return
				}
				q.mu.Unlock()
			}
			continue
		}

		select {
		case <-q.done:
			return
		case <-q.feed:
			q.refresh()
		case <-q.wake:
		}
	}
}

func (q *Query[T]) refresh() {
	q.refreshMu.Lock()
	defer q.refreshMu.Unlock()

	v, err := q.fetch()
	if err != nil {
		// Keep the last good value; reads are retried on the next signal.
		return
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.latest = v
	for ch := range q.subs {
		select {
		case ch <- v:
		default:
			// Conflate: replace the stale buffered value with the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
	q.mu.Unlock()
}

func (q *Query[T]) subscriberCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.subs)
}

func (q *Query[T]) signalWake() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
