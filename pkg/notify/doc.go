/*
Package notify fans committed tree edits out to subscribers.

The Notifier implements the coordinator's event interface and owns a
registry of subscribers. Each subscriber carries a buffered event
channel and a set of listened paths. Value change events go to every
subscriber listening on the changed path or an ancestor of it;
structural events (path added/removed) go to every subscriber so that
namespace mirrors stay current without a LISTEN for every path.

Delivery is best effort: sends never block the coordinator. A
subscriber whose queue is full is detached and its channel closed; a
slow WebSocket client can only ever lose its own events.
*/
package notify
