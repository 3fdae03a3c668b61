package tree

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/oscquery/oscquery-go/pkg/model"
)

// DefaultQueueLen is the default depth of the coordinator edit queue.
const DefaultQueueLen = 256

// Origin identifies who produced an edit.
type Origin uint8

const (
	// OriginHost marks edits from host application code.
	OriginHost Origin = iota

	// OriginNetwork marks edits translated from inbound OSC or
	// WebSocket messages.
	OriginNetwork
)

// EditKind identifies the edit operation.
type EditKind uint8

const (
	// EditInsert creates a node (and intermediate containers).
	EditInsert EditKind = iota

	// EditRemove deletes a subtree.
	EditRemove

	// EditSet replaces a node's value content.
	EditSet
)

// Edit is one unit of mutation submitted to the coordinator.
type Edit struct {
	Kind   EditKind
	Origin Origin
	Path   string

	// Spec is used by EditInsert.
	Spec Spec

	// Values is used by EditSet.
	Values []model.Value
}

// Result reports the outcome of an applied edit.
type Result struct {
	// Stored is the value content after clipping (EditSet).
	Stored []model.Value

	// Changed reports whether an EditSet altered the stored content.
	Changed bool

	// Added lists node paths created by an EditInsert, parents first.
	Added []string

	// Removed lists node paths deleted by an EditRemove, leaves first.
	Removed []string
}

// Events receives committed changes from the coordinator. Calls are
// made from the coordinator goroutine after the edit committed and
// before the submitter is unblocked; implementations must not submit
// edits back into the coordinator synchronously.
type Events interface {
	PathChanged(path string, values []model.Value)
	PathAdded(path string)
	PathRemoved(path string)
}

type request struct {
	edit  Edit
	reply chan outcome // nil for fire-and-forget enqueues
}

type outcome struct {
	result Result
	err    error
}

// Coordinator owns a Tree and serializes every mutation through a
// single goroutine. Reads take a shared lock via View and may run
// concurrently with each other.
type Coordinator struct {
	mu     sync.RWMutex
	tree   *Tree
	events Events

	queue  chan request
	done   chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewCoordinator creates a coordinator owning the given tree. events
// may be nil.
func NewCoordinator(t *Tree, events Events) *Coordinator {
	c := &Coordinator{
		tree:   t,
		events: events,
		queue:  make(chan request, DefaultQueueLen),
		done:   make(chan struct{}),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

// run drains the edit queue. It is the only goroutine that ever takes
// the write lock.
func (c *Coordinator) run() {
	defer c.wg.Done()
	for {
		select {
		case req := <-c.queue:
			out := c.apply(req.edit)
			if req.reply != nil {
				req.reply <- out
			}
		case <-c.done:
			// Drain edits already accepted so Enqueue is not lossy
			// on shutdown races.
			for {
				select {
				case req := <-c.queue:
					if req.reply != nil {
						req.reply <- outcome{err: ErrClosed}
					}
				default:
					return
				}
			}
		}
	}
}

// apply executes one edit under the write lock, then notifies.
func (c *Coordinator) apply(edit Edit) outcome {
	c.mu.Lock()
	var (
		result Result
		err    error
	)
	switch edit.Kind {
	case EditInsert:
		_, result.Added, err = c.tree.Insert(edit.Path, edit.Spec)
	case EditRemove:
		result.Removed, err = c.tree.Remove(edit.Path)
	case EditSet:
		if edit.Origin == OriginNetwork {
			result.Stored, result.Changed, err = c.tree.SetValue(edit.Path, edit.Values)
		} else {
			result.Stored, result.Changed, err = c.tree.UpdateValue(edit.Path, edit.Values)
		}
	}
	c.mu.Unlock()

	if err != nil {
		return outcome{err: err}
	}

	// Hand off to the notifier before unblocking the submitter.
	// Delivery beyond this point is the notifier's concern.
	if c.events != nil {
		for _, p := range result.Added {
			c.events.PathAdded(p)
		}
		for _, p := range result.Removed {
			c.events.PathRemoved(p)
		}
		if edit.Kind == EditSet && result.Changed {
			c.events.PathChanged(edit.Path, result.Stored)
		}
	}
	return outcome{result: result}
}

// Submit applies an edit and waits for its outcome. Host application
// code calls this from its own goroutine. It must not be called from a
// transport receive callback; use Enqueue there.
func (c *Coordinator) Submit(ctx context.Context, edit Edit) (Result, error) {
	if c.closed.Load() {
		return Result{}, ErrClosed
	}
	reply := make(chan outcome, 1)
	select {
	case c.queue <- request{edit: edit, reply: reply}:
	case <-c.done:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case out := <-reply:
		return out.result, out.err
	case <-ctx.Done():
		// The edit may still apply; the caller only gave up waiting.
		return Result{}, ctx.Err()
	case <-c.done:
		// Prefer an outcome the run loop managed to deliver.
		select {
		case out := <-reply:
			return out.result, out.err
		default:
			return Result{}, ErrClosed
		}
	}
}

// Enqueue hands an edit to the coordinator without waiting for the
// outcome. It never blocks: the return value is false when the queue
// is full or the coordinator is closed, and the edit is dropped.
// Transport receive callbacks use this to avoid re-entering their own
// execution context.
func (c *Coordinator) Enqueue(edit Edit) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.queue <- request{edit: edit}:
		return true
	default:
		return false
	}
}

// View runs fn with read access to the tree. Multiple views may run
// concurrently; no edit applies while any view is active. fn must not
// retain the tree or nodes past its return.
func (c *Coordinator) View(fn func(*Tree)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.tree)
}

// Close stops the coordinator. Pending Submit calls fail with
// ErrClosed. Close is idempotent.
func (c *Coordinator) Close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.done)
	}
	c.wg.Wait()
}
