package state

import (
	"sync"

	"github.com/google/uuid"
)

// BlacklistOp tags a blacklist notification.
type BlacklistOp string

const (
	BlacklistAdded   BlacklistOp = "added"
	BlacklistRemoved BlacklistOp = "removed"
)

// BlacklistEvent is delivered to subscribers after a successful durable
// mutation, e.g. so a live-filtering component can react.
type BlacklistEvent struct {
	Op       BlacklistOp
	Username string
}

// notifier is a plain observer registry. Callbacks run synchronously on the
// mutating goroutine, outside the document lock.
type notifier struct {
	mu   sync.Mutex
	subs map[uuid.UUID]func(BlacklistEvent)
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[uuid.UUID]func(BlacklistEvent))}
}

func (n *notifier) subscribe(fn func(BlacklistEvent)) uuid.UUID {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := uuid.New()
	n.subs[id] = fn
	return id
}

func (n *notifier) unsubscribe(id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

func (n *notifier) notify(ev BlacklistEvent) {
	n.mu.Lock()
	fns := make([]func(BlacklistEvent), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
