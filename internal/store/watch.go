package store

import "sync"

// Table identifies a watched table for change notifications.
type Table string

const (
	TableSubjects Table = "subjects"
	TableTasks    Table = "tasks"
	TableSessions Table = "sessions"
	TableSettings Table = "settings"
)

// Watcher delivers a coalesced signal on C whenever one of its tables
// changes. Signals carry no payload; consumers re-query.
type Watcher struct {
	C      chan struct{}
	tables map[Table]struct{}
	hub    *watchHub
}

func (w *Watcher) Close() {
	w.hub.remove(w)
}

type watchHub struct {
	mu       sync.Mutex
	watchers map[*Watcher]struct{}
}

// Watch registers interest in the given tables. The returned watcher's
// channel has a one-slot buffer: notifications coalesce rather than queue,
// which is safe because consumers refetch full results on every signal.
func (s *Store) Watch(tables ...Table) *Watcher {
	w := &Watcher{
		C:      make(chan struct{}, 1),
		tables: make(map[Table]struct{}, len(tables)),
		hub:    &s.watch,
	}
	for _, t := range tables {
		w.tables[t] = struct{}{}
	}

	s.watch.mu.Lock()
	if s.watch.watchers == nil {
		s.watch.watchers = make(map[*Watcher]struct{})
	}
	s.watch.watchers[w] = struct{}{}
	s.watch.mu.Unlock()
	return w
}

func (h *watchHub) remove(w *Watcher) {
	h.mu.Lock()
	delete(h.watchers, w)
	h.mu.Unlock()
}

func (h *watchHub) closeAll() {
	h.mu.Lock()
	h.watchers = nil
	h.mu.Unlock()
}

// notify signals every watcher interested in any of the changed tables.
func (s *Store) notify(tables ...Table) {
	s.watch.mu.Lock()
	defer s.watch.mu.Unlock()
	for w := range s.watch.watchers {
		for _, t := range tables {
			if _, ok := w.tables[t]; ok {
				select {
				case w.C <- struct{}{}:
				default:
				}
				break
			}
		}
	}
}
