package vm

import "sync"

// Notification is a transient, fire-once outcome message. It is delivered
// only to observers subscribed at emission time and never replayed.
type Notification interface{ isNotification() }

// ShowMessage asks the UI to flash a status message. Long marks failure
// messages that should stay visible longer than confirmations.
type ShowMessage struct {
	Text string
	Long bool
}

// NavigateBack asks the UI to leave the current screen, emitted after a
// destructive delete completes.
type NavigateBack struct{}

func (ShowMessage) isNotification()  {}
func (NavigateBack) isNotification() {}

// Notifier broadcasts notifications to current subscribers in emission
// order. Without subscribers a notification is dropped, not queued for
// late arrivals; this is deliberate, unlike the state snapshot which
// always has a current value.
type Notifier struct {
	mu     sync.Mutex
	subs   map[chan Notification]struct{}
	closed bool
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[chan Notification]struct{})}
}

// Subscribe returns an ordered channel of future notifications and a
// cancel func. The channel is buffered; an observer that stops draining
// loses newer notifications rather than blocking emitters.
func (n *Notifier) Subscribe() (<-chan Notification, func()) {
	ch := make(chan Notification, 16)
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, ch)
			n.mu.Unlock()
		})
	}
	return ch, cancel
}

// closeAll closes every subscriber channel so blocked receivers return.
// Callers must stop publishing first.
func (n *Notifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for ch := range n.subs {
		delete(n.subs, ch)
		close(ch)
	}
}

// Publish delivers note to every current subscriber.
func (n *Notifier) Publish(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- note:
		default:
		}
	}
}
