/*
Package query renders the OSCQuery JSON views of a namespace tree.

A Resolver answers HTTP-style queries against the live tree through the
coordinator's read access. A request addresses a node by path and may
carry at most one attribute parameter (VALUE, TYPE, RANGE, CLIPMODE,
ACCESS, DESCRIPTION, UNIT); without a parameter the full attribute
object is returned, with CONTENTS listing the node's children one level
deep. HOST_INFO is path independent and is answered from a HostInfo
snapshot instead of the tree.

All views are plain map[string]any values ready for encoding/json; the
transport layer decides status codes from the returned error.
*/
package query
