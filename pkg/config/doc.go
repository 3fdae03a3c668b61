// Package config loads the YAML server configuration.
//
// The configuration covers the server name advertised over mDNS and
// HOST_INFO, listen addresses for the HTTP/WS and OSC transports, and
// the operational and protocol logging setup. Every field has a
// working default so an empty file (or no file at all) yields a usable
// local server; command line flags override loaded values in the
// binaries.
package config
