// Package server wires the namespace, query resolver, transports and
// discovery into one OSCQuery server.
//
// A Server owns the coordinator and notifier from creation, so the
// host application can build its namespace before Start. Start brings
// up the HTTP endpoint (with WebSocket upgrades), the optional OSC UDP
// socket and, when enabled, mDNS advertisement. Stop tears everything
// down in reverse order.
package server
