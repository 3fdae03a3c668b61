package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oscquery/oscquery-go/pkg/log"
	"github.com/oscquery/oscquery-go/pkg/query"
	"github.com/oscquery/oscquery-go/pkg/tree"
)

// HTTPConfig configures the HTTP query handler.
type HTTPConfig struct {
	// Resolver answers attribute queries.
	Resolver *query.Resolver

	// HostInfo supplies the HOST_INFO snapshot.
	HostInfo func() query.HostInfo

	// Hub, when set, upgrades WebSocket requests on the same endpoint.
	Hub *WSHub

	// Logger for protocol logging (optional).
	Logger log.Logger
}

// HTTPHandler serves the OSCQuery HTTP surface. Any path is a
// namespace lookup; the query string selects at most one attribute.
type HTTPHandler struct {
	config HTTPConfig
}

// NewHTTPHandler creates the handler. Resolver and HostInfo are
// required.
func NewHTTPHandler(config HTTPConfig) *HTTPHandler {
	return &HTTPHandler{config: config}
}

var _ http.Handler = (*HTTPHandler)(nil)

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.config.Hub != nil && websocket.IsWebSocketUpgrade(r) {
		h.config.Hub.Upgrade(w, r)
		return
	}

	start := time.Now()
	if r.Method != http.MethodGet {
		h.reply(w, r, start, "", http.StatusNotFound, nil)
		return
	}

	req, err := query.ParseQuery(r.URL.RawQuery)
	if err != nil {
		h.reply(w, r, start, r.URL.RawQuery, http.StatusBadRequest, nil)
		return
	}

	if req.HostInfo {
		h.reply(w, r, start, "HOST_INFO", http.StatusOK, h.config.HostInfo().JSON())
		return
	}

	body, err := h.config.Resolver.Query(r.URL.Path, req.Param)
	if err != nil {
		h.reply(w, r, start, req.Param.Key(), statusFor(err), nil)
		return
	}
	h.reply(w, r, start, req.Param.Key(), http.StatusOK, body)
}

func (h *HTTPHandler) reply(w http.ResponseWriter, r *http.Request, start time.Time, param string, status int, body map[string]any) {
	if body != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	} else {
		w.WriteHeader(status)
	}

	if h.config.Logger != nil {
		d := time.Since(start)
		h.config.Logger.Log(log.Event{
			Timestamp:  time.Now(),
			Direction:  log.DirectionIn,
			Transport:  log.TransportHTTP,
			Category:   log.CategoryQuery,
			RemoteAddr: r.RemoteAddr,
			Path:       r.URL.Path,
			Query:      &log.QueryEvent{Param: param, Status: status, Duration: &d},
		})
	}
}

// statusFor maps resolver errors to HTTP status codes. Attributes a
// node does not carry answer 204, matching the null-body convention
// of other OSCQuery servers.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tree.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, query.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, query.ErrUnsupportedParam):
		return http.StatusNoContent
	case errors.Is(err, tree.ErrAccess):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
