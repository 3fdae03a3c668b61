// Package discovery implements mDNS/DNS-SD advertisement for OSCQuery
// servers.
//
// A server advertises two services: _oscjson._tcp for the HTTP query
// endpoint and, when OSC over UDP is enabled, _osc._udp for the raw
// OSC socket. Both use the same instance name so clients can pair
// them.
package discovery
