package notify

import (
	"testing"
	"time"

	"github.com/oscquery/oscquery-go/pkg/model"
)

func recvEvent(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscriber channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, sub *Subscriber) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %v %s", ev.Kind, ev.Path)
	default:
	}
}

func TestListenExactlyOnce(t *testing.T) {
	n := New(0)
	a := n.Attach()
	b := n.Attach()
	n.Listen(a.ID(), "/synth/freq")

	n.PathChanged("/synth/freq", []model.Value{model.Float32(880)})

	ev := recvEvent(t, a)
	if ev.Kind != EventPathChanged || ev.Path != "/synth/freq" {
		t.Errorf("event = %v %s", ev.Kind, ev.Path)
	}
	if len(ev.Values) != 1 || ev.Values[0].Float32() != 880 {
		t.Errorf("values = %v", ev.Values)
	}
	assertNoEvent(t, a)
	assertNoEvent(t, b)
}

func TestAncestorListen(t *testing.T) {
	n := New(0)
	sub := n.Attach()
	n.Listen(sub.ID(), "/synth")

	n.PathChanged("/synth/freq", []model.Value{model.Float32(1)})
	if ev := recvEvent(t, sub); ev.Path != "/synth/freq" {
		t.Errorf("path = %s", ev.Path)
	}

	// Sibling prefix is not an ancestor.
	n.PathChanged("/synthesizer/freq", []model.Value{model.Float32(1)})
	assertNoEvent(t, sub)

	// Root listen matches everything.
	root := n.Attach()
	n.Listen(root.ID(), "/")
	n.PathChanged("/anything/at/all", []model.Value{model.Float32(1)})
	if ev := recvEvent(t, root); ev.Path != "/anything/at/all" {
		t.Errorf("path = %s", ev.Path)
	}
}

func TestIgnoreStopsDelivery(t *testing.T) {
	n := New(0)
	sub := n.Attach()
	n.Listen(sub.ID(), "/a")

	n.PathChanged("/a", nil)
	recvEvent(t, sub)

	n.Ignore(sub.ID(), "/a")
	n.PathChanged("/a", nil)
	assertNoEvent(t, sub)
}

func TestStructuralEventsBroadcast(t *testing.T) {
	n := New(0)
	a := n.Attach()
	b := n.Attach()
	// Neither subscriber LISTENs anywhere.

	n.PathAdded("/new")
	n.PathRemoved("/old")

	for _, sub := range []*Subscriber{a, b} {
		if ev := recvEvent(t, sub); ev.Kind != EventPathAdded || ev.Path != "/new" {
			t.Errorf("event = %v %s", ev.Kind, ev.Path)
		}
		if ev := recvEvent(t, sub); ev.Kind != EventPathRemoved || ev.Path != "/old" {
			t.Errorf("event = %v %s", ev.Kind, ev.Path)
		}
	}
}

func TestOverflowDetachesSubscriber(t *testing.T) {
	n := New(2)
	slow := n.Attach()
	fast := n.Attach()

	// Fill the slow subscriber's queue; the fast one keeps draining.
	n.PathAdded("/a")
	n.PathAdded("/b")
	for _, want := range []string{"/a", "/b"} {
		if ev := recvEvent(t, fast); ev.Path != want {
			t.Errorf("fast path = %s, want %s", ev.Path, want)
		}
	}

	n.PathAdded("/c") // overflows the slow queue

	if n.Count() != 1 {
		t.Errorf("Count = %d, want 1 after overflow detach", n.Count())
	}
	if ev := recvEvent(t, fast); ev.Path != "/c" {
		t.Errorf("fast path = %s, want /c", ev.Path)
	}

	// Queued events remain readable, then the channel closes.
	for _, want := range []string{"/a", "/b"} {
		if ev := recvEvent(t, slow); ev.Path != want {
			t.Errorf("slow path = %s, want %s", ev.Path, want)
		}
	}
	if _, ok := <-slow.Events(); ok {
		t.Error("slow channel should be closed")
	}
}

func TestDetach(t *testing.T) {
	n := New(0)
	sub := n.Attach()
	n.Listen(sub.ID(), "/a")
	n.Detach(sub.ID())

	if n.Count() != 0 {
		t.Errorf("Count = %d", n.Count())
	}
	if _, ok := <-sub.Events(); ok {
		t.Error("channel should be closed")
	}

	// Detaching twice or touching a gone handle is harmless.
	n.Detach(sub.ID())
	n.Listen(sub.ID(), "/b")
	n.PathChanged("/b", nil)
}

func TestEventKindString(t *testing.T) {
	if EventPathChanged.String() != "PATH_CHANGED" ||
		EventPathAdded.String() != "PATH_ADDED" ||
		EventPathRemoved.String() != "PATH_REMOVED" {
		t.Error("wire names do not match protocol commands")
	}
}
