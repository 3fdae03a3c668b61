package query

// HostInfo is the server metadata answered for a HOST_INFO query. It
// is a read-only snapshot assembled by the server at startup; zero
// port values mean the corresponding transport is not running.
type HostInfo struct {
	Name string

	// OSC/UDP endpoint.
	OSCIP   string
	OSCPort int

	// WebSocket endpoint. When set, the streaming extensions are
	// reported as supported.
	WSIP   string
	WSPort int
}

// JSON renders the HOST_INFO reply.
func (h HostInfo) JSON() map[string]any {
	m := map[string]any{}
	if h.Name != "" {
		m["NAME"] = h.Name
	}
	if h.OSCPort != 0 {
		m["OSC_TRANSPORT"] = "UDP"
		m["OSC_IP"] = h.OSCIP
		m["OSC_PORT"] = h.OSCPort
	}
	ws := h.WSPort != 0
	if ws {
		m["WS_IP"] = h.WSIP
		m["WS_PORT"] = h.WSPort
	}
	m["EXTENSIONS"] = map[string]any{
		"ACCESS":      true,
		"VALUE":       true,
		"RANGE":       true,
		"DESCRIPTION": true,
		"CLIPMODE":    true,
		"UNIT":        true,

		"LISTEN":       ws,
		"PATH_CHANGED": ws,
		"PATH_ADDED":   ws,
		"PATH_REMOVED": ws,
		"PATH_RENAMED": false,

		"TAGS":          false,
		"EXTENDED_TYPE": false,
		"CRITICAL":      false,
		"OVERLOADS":     false,
		"HTML":          false,
	}
	return m
}
