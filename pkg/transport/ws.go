package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/oscquery/oscquery-go/pkg/log"
	"github.com/oscquery/oscquery-go/pkg/model"
	"github.com/oscquery/oscquery-go/pkg/notify"
	"github.com/oscquery/oscquery-go/pkg/osc"
	"github.com/oscquery/oscquery-go/pkg/tree"
)

// Wire command names.
const (
	cmdListen      = "LISTEN"
	cmdIgnore      = "IGNORE"
	cmdPathChanged = "PATH_CHANGED"
	cmdPathAdded   = "PATH_ADDED"
	cmdPathRemoved = "PATH_REMOVED"
)

// commandPacket is the JSON control frame exchanged over WebSocket.
type commandPacket struct {
	Command string `json:"COMMAND"`
	Data    string `json:"DATA"`
}

// WSConfig configures the WebSocket hub.
type WSConfig struct {
	// Coordinator receives edits decoded from binary OSC frames.
	Coordinator *tree.Coordinator

	// Notifier owns the per-connection subscriptions.
	Notifier *notify.Notifier

	// Logger for protocol logging (optional).
	Logger log.Logger
}

// WSHub tracks WebSocket connections upgraded from the HTTP endpoint.
// Each connection carries a notify subscriber; text frames are
// LISTEN/IGNORE command packets, binary frames are OSC packets.
type WSHub struct {
	config   WSConfig
	upgrader websocket.Upgrader

	conns   map[uuid.UUID]*wsConn
	connsMu sync.Mutex

	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewWSHub creates a hub. Coordinator and Notifier are required.
func NewWSHub(config WSConfig) *WSHub {
	return &WSHub{
		config: config,
		upgrader: websocket.Upgrader{
			// The query surface is open by design; origin checks are
			// the embedding application's concern.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[uuid.UUID]*wsConn),
	}
}

// ConnectionCount returns the number of active connections.
func (h *WSHub) ConnectionCount() int {
	h.connsMu.Lock()
	defer h.connsMu.Unlock()
	return len(h.conns)
}

// Upgrade turns an HTTP request into a tracked WebSocket connection.
func (h *WSHub) Upgrade(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	sub := h.config.Notifier.Attach()
	conn := &wsConn{
		hub:        h,
		ws:         ws,
		sub:        sub,
		remoteAddr: ws.RemoteAddr().String(),
	}

	h.connsMu.Lock()
	h.conns[sub.ID()] = conn
	h.connsMu.Unlock()

	h.wg.Add(2)
	go conn.writePump()
	go conn.readLoop()
}

// Close detaches all connections and waits for their goroutines.
func (h *WSHub) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}

	h.connsMu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.connsMu.Unlock()

	for _, c := range conns {
		// Detach closes the event channel, ending the write pump;
		// closing the socket ends the read loop.
		h.config.Notifier.Detach(c.sub.ID())
		c.ws.Close()
	}
	h.wg.Wait()
}

func (h *WSHub) drop(c *wsConn) {
	h.connsMu.Lock()
	delete(h.conns, c.sub.ID())
	h.connsMu.Unlock()
	h.config.Notifier.Detach(c.sub.ID())
	c.ws.Close()
}

// wsConn is one WebSocket client.
type wsConn struct {
	hub        *WSHub
	ws         *websocket.Conn
	sub        *notify.Subscriber
	remoteAddr string

	writeMu sync.Mutex
}

// readLoop consumes client frames until the connection dies.
func (c *wsConn) readLoop() {
	defer c.hub.wg.Done()
	defer c.hub.drop(c)

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		switch msgType {
		case websocket.TextMessage:
			c.handleCommand(data)
		case websocket.BinaryMessage:
			c.handleOSC(data)
		}
	}
}

func (c *wsConn) handleCommand(data []byte) {
	var pkt commandPacket
	if err := json.Unmarshal(data, &pkt); err != nil {
		c.logError(err.Error(), "ws command decode")
		return
	}
	switch pkt.Command {
	case cmdListen:
		c.hub.config.Notifier.Listen(c.sub.ID(), pkt.Data)
	case cmdIgnore:
		c.hub.config.Notifier.Ignore(c.sub.ID(), pkt.Data)
	default:
		c.logError("unknown command "+pkt.Command, "ws command")
		return
	}

	if l := c.hub.config.Logger; l != nil {
		l.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: c.sub.ID().String(),
			Direction:    log.DirectionIn,
			Transport:    log.TransportWS,
			Category:     log.CategoryNotify,
			RemoteAddr:   c.remoteAddr,
			Path:         pkt.Data,
			Notify:       &log.NotifyEvent{Command: pkt.Command, Subscribers: 1},
		})
	}
}

func (c *wsConn) handleOSC(data []byte) {
	packet, err := osc.Decode(data)
	if err != nil {
		c.logError(err.Error(), "ws osc decode")
		return
	}
	enqueuePacket(c.hub.config.Coordinator, packet)

	if l := c.hub.config.Logger; l != nil {
		if msg, ok := packet.(*osc.Message); ok {
			l.Log(log.Event{
				Timestamp:    time.Now(),
				ConnectionID: c.sub.ID().String(),
				Direction:    log.DirectionIn,
				Transport:    log.TransportWS,
				Category:     log.CategoryEdit,
				RemoteAddr:   c.remoteAddr,
				Path:         msg.Addr,
				Edit:         &log.EditEvent{Kind: "SET", Origin: "network", Tags: model.TagsOf(msg.Args)},
			})
		}
	}
}

// writePump pushes subscriber events to the client. It ends when the
// subscriber is detached, either by connection teardown or by the
// notifier's overflow rule.
func (c *wsConn) writePump() {
	defer c.hub.wg.Done()

	for ev := range c.sub.Events() {
		switch ev.Kind {
		case notify.EventPathChanged:
			if !c.writeJSON(commandPacket{Command: cmdPathChanged, Data: ev.Path}) {
				return
			}
			// Relay the typed value as a binary OSC message.
			data, err := osc.Encode(&osc.Message{Addr: ev.Path, Args: ev.Values})
			if err != nil {
				c.logError(err.Error(), "ws osc encode")
				continue
			}
			if !c.write(websocket.BinaryMessage, data) {
				return
			}
		case notify.EventPathAdded:
			if !c.writeJSON(commandPacket{Command: cmdPathAdded, Data: ev.Path}) {
				return
			}
		case notify.EventPathRemoved:
			if !c.writeJSON(commandPacket{Command: cmdPathRemoved, Data: ev.Path}) {
				return
			}
		}

		if l := c.hub.config.Logger; l != nil {
			l.Log(log.Event{
				Timestamp:    time.Now(),
				ConnectionID: c.sub.ID().String(),
				Direction:    log.DirectionOut,
				Transport:    log.TransportWS,
				Category:     log.CategoryNotify,
				RemoteAddr:   c.remoteAddr,
				Path:         ev.Path,
				Notify:       &log.NotifyEvent{Command: ev.Kind.String(), Subscribers: 1},
			})
		}
	}
	c.ws.Close()
}

func (c *wsConn) writeJSON(pkt commandPacket) bool {
	data, err := json.Marshal(pkt)
	if err != nil {
		return false
	}
	return c.write(websocket.TextMessage, data)
}

func (c *wsConn) write(msgType int, data []byte) bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(msgType, data) == nil
}

func (c *wsConn) logError(msg, context string) {
	if l := c.hub.config.Logger; l != nil {
		l.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: c.sub.ID().String(),
			Direction:    log.DirectionIn,
			Transport:    log.TransportWS,
			Category:     log.CategoryError,
			RemoteAddr:   c.remoteAddr,
			Error:        &log.ErrorEvent{Message: msg, Context: context},
		})
	}
}

// enqueuePacket hands every message in a packet to the coordinator
// without blocking; edits lost to a full queue are dropped, matching
// UDP delivery semantics.
func enqueuePacket(coord *tree.Coordinator, p osc.Packet) {
	switch p := p.(type) {
	case *osc.Message:
		coord.Enqueue(tree.Edit{
			Kind:   tree.EditSet,
			Origin: tree.OriginNetwork,
			Path:   p.Addr,
			Values: p.Args,
		})
	case *osc.Bundle:
		for _, el := range p.Elements {
			enqueuePacket(coord, el)
		}
	}
}
