package notify

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/oscquery/oscquery-go/pkg/model"
	"github.com/oscquery/oscquery-go/pkg/tree"
)

// DefaultQueueLen is the per-subscriber event buffer used by New.
const DefaultQueueLen = 64

// EventKind discriminates notification events.
type EventKind uint8

const (
	// EventPathChanged reports a committed value change.
	EventPathChanged EventKind = iota

	// EventPathAdded reports a node added to the namespace.
	EventPathAdded

	// EventPathRemoved reports a node removed from the namespace.
	EventPathRemoved
)

// String returns the OSCQuery wire command name.
func (k EventKind) String() string {
	switch k {
	case EventPathChanged:
		return "PATH_CHANGED"
	case EventPathAdded:
		return "PATH_ADDED"
	case EventPathRemoved:
		return "PATH_REMOVED"
	default:
		return "UNKNOWN"
	}
}

// Event is a single notification. Values is set for EventPathChanged
// only and must be treated as read-only.
type Event struct {
	Kind   EventKind
	Path   string
	Values []model.Value
}

// Subscriber is a registered event consumer. Events are read from
// Events(); the channel is closed when the subscriber is detached.
type Subscriber struct {
	id uuid.UUID
	ch chan Event

	// Guarded by the owning Notifier's mutex.
	paths map[string]struct{}
}

// ID returns the subscriber's handle.
func (s *Subscriber) ID() uuid.UUID { return s.id }

// Events returns the subscriber's event stream.
func (s *Subscriber) Events() <-chan Event { return s.ch }

// Notifier is the subscriber registry. It satisfies the coordinator's
// Events interface, so a committed edit reaches subscribers without
// the coordinator knowing about transports.
type Notifier struct {
	mu       sync.Mutex
	queueLen int
	subs     map[uuid.UUID]*Subscriber
}

var _ tree.Events = (*Notifier)(nil)

// New creates a notifier. queueLen <= 0 selects DefaultQueueLen.
func New(queueLen int) *Notifier {
	if queueLen <= 0 {
		queueLen = DefaultQueueLen
	}
	return &Notifier{
		queueLen: queueLen,
		subs:     make(map[uuid.UUID]*Subscriber),
	}
}

// Attach registers a new subscriber with an empty listen set.
func (n *Notifier) Attach() *Subscriber {
	sub := &Subscriber{
		id:    uuid.New(),
		ch:    make(chan Event, n.queueLen),
		paths: make(map[string]struct{}),
	}
	n.mu.Lock()
	n.subs[sub.id] = sub
	n.mu.Unlock()
	return sub
}

// Listen adds a path to the subscriber's listen set. Unknown
// subscriber handles are ignored; the subscriber may already have
// been detached for overflow.
func (n *Notifier) Listen(id uuid.UUID, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if sub, ok := n.subs[id]; ok {
		sub.paths[path] = struct{}{}
	}
}

// Ignore removes a path from the subscriber's listen set.
func (n *Notifier) Ignore(id uuid.UUID, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if sub, ok := n.subs[id]; ok {
		delete(sub.paths, path)
	}
}

// Detach removes a subscriber and closes its event channel. Pending
// events already in the queue remain readable until the close.
func (n *Notifier) Detach(id uuid.UUID) {
	n.mu.Lock()
	sub, ok := n.subs[id]
	if ok {
		delete(n.subs, id)
	}
	n.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

// Count returns the number of attached subscribers.
func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// PathChanged delivers a value change to subscribers listening on the
// path or an ancestor of it.
func (n *Notifier) PathChanged(path string, values []model.Value) {
	n.dispatch(Event{Kind: EventPathChanged, Path: path, Values: values}, true)
}

// PathAdded delivers a structural event to all subscribers.
func (n *Notifier) PathAdded(path string) {
	n.dispatch(Event{Kind: EventPathAdded, Path: path}, false)
}

// PathRemoved delivers a structural event to all subscribers.
func (n *Notifier) PathRemoved(path string) {
	n.dispatch(Event{Kind: EventPathRemoved, Path: path}, false)
}

// dispatch sends the event without ever blocking. Subscribers with a
// full queue are detached, mirroring the connection-teardown rule for
// failed delivery.
func (n *Notifier) dispatch(ev Event, matchListen bool) {
	var overflowed []*Subscriber

	n.mu.Lock()
	for _, sub := range n.subs {
		if matchListen && !listensTo(sub.paths, ev.Path) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			overflowed = append(overflowed, sub)
		}
	}
	for _, sub := range overflowed {
		delete(n.subs, sub.id)
	}
	n.mu.Unlock()

	// Close outside the lock; consumers may be mid-read.
	for _, sub := range overflowed {
		close(sub.ch)
	}
}

// listensTo reports whether any listened path equals or is an
// ancestor of the changed path. Listening on "/" matches everything.
func listensTo(paths map[string]struct{}, path string) bool {
	for p := range paths {
		if p == path {
			return true
		}
		if p == "/" {
			return true
		}
		if strings.HasPrefix(path, p) && len(path) > len(p) && path[len(p)] == '/' {
			return true
		}
	}
	return false
}
