// Package tree implements the OSCQuery namespace: an owned hierarchy of
// addressable nodes and the coordinator that serializes every mutation.
//
// # Ownership and Locking
//
// Tree itself is a plain data structure with no internal locking. It is
// owned by a Coordinator, which runs a single goroutine that applies
// edits one at a time under a write lock. Readers (the query resolver,
// the OSC render path) use Coordinator.View, which holds a shared read
// lock, so no read ever observes a half-applied edit.
//
// # Reentrancy
//
// Transport receive paths must never apply an edit inline on their own
// call stack. An OSC packet handler that mutated the tree directly
// could deadlock against a concurrent read it itself triggered. Instead
// transports hand edits to the coordinator's queue with Enqueue (fire
// and forget) and return; host application code uses Submit, which
// waits for the edit's outcome from its own goroutine.
//
// # Edit origins
//
// Network-originated value writes are checked against the node's access
// mode (a SET to a read-only node fails). Host-originated writes only
// require the node to carry a value at all: a read-only node is exactly
// one whose value the host updates and remote peers observe.
package tree
