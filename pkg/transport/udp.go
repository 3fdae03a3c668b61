package transport

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oscquery/oscquery-go/pkg/log"
	"github.com/oscquery/oscquery-go/pkg/model"
	"github.com/oscquery/oscquery-go/pkg/osc"
	"github.com/oscquery/oscquery-go/pkg/tree"
)

// maxOSCPacket is the receive buffer size; larger datagrams are
// truncated by the kernel anyway.
const maxOSCPacket = 65507

// OSCConfig configures the OSC/UDP service.
type OSCConfig struct {
	// Address to listen on (e.g., ":3001" or "127.0.0.1:3001").
	Address string

	// Coordinator receives decoded value messages.
	Coordinator *tree.Coordinator

	// Logger for protocol logging (optional).
	Logger log.Logger
}

// OSCService receives OSC packets over UDP and translates them to
// tree edits. It can also send value messages to registered peers.
type OSCService struct {
	config OSCConfig
	conn   net.PacketConn

	running atomic.Bool
	wg      sync.WaitGroup

	sendMu    sync.Mutex
	sendAddrs map[string]*net.UDPAddr
}

// NewOSCService creates the service. Coordinator is required.
func NewOSCService(config OSCConfig) *OSCService {
	return &OSCService{
		config:    config,
		sendAddrs: make(map[string]*net.UDPAddr),
	}
}

// Start binds the UDP socket and begins the receive loop.
func (s *OSCService) Start() error {
	if s.running.Load() {
		return fmt.Errorf("osc service already running")
	}

	conn, err := net.ListenPacket("udp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	s.conn = conn
	s.running.Store(true)

	s.wg.Add(1)
	go s.readLoop()
	return nil
}

// Stop closes the socket and waits for the receive loop.
func (s *OSCService) Stop() error {
	if !s.running.Load() {
		return nil
	}
	s.running.Store(false)
	err := s.conn.Close()
	s.wg.Wait()
	return err
}

// LocalAddr returns the bound address, nil before Start.
func (s *OSCService) LocalAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// AddSendAddr registers a peer for outbound value messages.
func (s *OSCService) AddSendAddr(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("invalid send address %s: %w", addr, err)
	}
	s.sendMu.Lock()
	s.sendAddrs[addr] = udpAddr
	s.sendMu.Unlock()
	return nil
}

// RemoveSendAddr drops a registered peer.
func (s *OSCService) RemoveSendAddr(addr string) {
	s.sendMu.Lock()
	delete(s.sendAddrs, addr)
	s.sendMu.Unlock()
}

// Send encodes the message once and writes it to every registered
// peer. Per-peer write errors are logged, not returned; UDP delivery
// is best effort.
func (s *OSCService) Send(msg *osc.Message) error {
	if !s.running.Load() {
		return fmt.Errorf("osc service not running")
	}
	data, err := osc.Encode(msg)
	if err != nil {
		return err
	}

	s.sendMu.Lock()
	addrs := make([]*net.UDPAddr, 0, len(s.sendAddrs))
	for _, a := range s.sendAddrs {
		addrs = append(addrs, a)
	}
	s.sendMu.Unlock()

	for _, a := range addrs {
		if _, err := s.conn.WriteTo(data, a); err != nil {
			s.logError(err.Error(), "osc send", a.String())
		}
	}

	if l := s.config.Logger; l != nil {
		l.Log(log.Event{
			Timestamp: time.Now(),
			Direction: log.DirectionOut,
			Transport: log.TransportOSC,
			Category:  log.CategoryNotify,
			Path:      msg.Addr,
			Notify:    &log.NotifyEvent{Command: cmdPathChanged, Subscribers: len(addrs)},
		})
	}
	return nil
}

func (s *OSCService) readLoop() {
	defer s.wg.Done()

	buf := make([]byte, maxOSCPacket)
	for s.running.Load() {
		n, from, err := s.conn.ReadFrom(buf)
		if err != nil {
			// Socket closed on Stop or transient error.
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		packet, err := osc.Decode(data)
		if err != nil {
			s.logError(err.Error(), "osc decode", from.String())
			continue
		}
		enqueuePacket(s.config.Coordinator, packet)

		if l := s.config.Logger; l != nil {
			if msg, ok := packet.(*osc.Message); ok {
				l.Log(log.Event{
					Timestamp:  time.Now(),
					Direction:  log.DirectionIn,
					Transport:  log.TransportOSC,
					Category:   log.CategoryEdit,
					RemoteAddr: from.String(),
					Path:       msg.Addr,
					Edit:       &log.EditEvent{Kind: "SET", Origin: "network", Tags: model.TagsOf(msg.Args)},
				})
			}
		}
	}
}

func (s *OSCService) logError(msg, context, remote string) {
	if l := s.config.Logger; l != nil {
		l.Log(log.Event{
			Timestamp:  time.Now(),
			Direction:  log.DirectionIn,
			Transport:  log.TransportOSC,
			Category:   log.CategoryError,
			RemoteAddr: remote,
			Error:      &log.ErrorEvent{Message: msg, Context: context},
		})
	}
}
