// Package transport provides the network surfaces of the OSCQuery
// server.
//
// Three adapters share one namespace:
//   - HTTP: attribute queries and HOST_INFO, JSON responses
//   - WebSocket: LISTEN/IGNORE command packets, PATH_* event push and
//     binary OSC value streaming, upgraded on the HTTP endpoint
//   - OSC/UDP: inbound value messages and outbound value sends
//
// # Protocol Stack
//
//	┌───────────────────────────────────────────────┐
//	│  JSON attribute views   │  OSC 1.0 packets    │
//	├─────────────────────────┼─────────────────────┤
//	│  HTTP / WebSocket       │  UDP                │
//	└─────────────────────────┴─────────────────────┘
//
// Adapters never mutate the tree directly. Every inbound edit is
// handed to the mutation coordinator with Enqueue from the receive
// path, so a transport callback can never wait on the coordinator it
// is feeding (the reentrancy rule). Outbound events arrive through a
// notify.Subscriber per WebSocket connection; a client that stops
// reading is detached rather than ever blocking the edit path.
package transport
