// Package log provides structured protocol logging for the OSCQuery
// server.
//
// This package defines the Logger interface and Event types for
// capturing protocol-level events across all transports (HTTP queries,
// WebSocket commands, OSC packets, host edits). It is separate from
// operational logging (slog) - protocol capture provides a complete
// machine-readable event trace for debugging and analysis.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/oscquery/server.qlog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/oscquery/server.qlog"),
//	)
//
// # Event Types
//
// Each event carries the transport it was captured on and one payload:
//   - Query: an HTTP attribute query and its outcome
//   - Edit: a tree edit (insert/remove/set) and whether it changed state
//   - Notify: an event pushed to subscribers
//   - Error: failures at any layer
//
// # File Format
//
// Log files use CBOR encoding with .qlog extension. The Reader type
// reads them back for inspection and export.
package log
