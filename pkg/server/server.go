package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/oscquery/oscquery-go/pkg/config"
	"github.com/oscquery/oscquery-go/pkg/discovery"
	"github.com/oscquery/oscquery-go/pkg/log"
	"github.com/oscquery/oscquery-go/pkg/model"
	"github.com/oscquery/oscquery-go/pkg/notify"
	"github.com/oscquery/oscquery-go/pkg/osc"
	"github.com/oscquery/oscquery-go/pkg/query"
	"github.com/oscquery/oscquery-go/pkg/transport"
	"github.com/oscquery/oscquery-go/pkg/tree"
)

var (
	// ErrAlreadyStarted is returned by Start on a running server.
	ErrAlreadyStarted = errors.New("server already started")

	// ErrNotStarted is returned by Stop on a server that is not running.
	ErrNotStarted = errors.New("server not started")
)

// shutdownTimeout bounds the graceful HTTP shutdown in Stop.
const shutdownTimeout = 5 * time.Second

// Server orchestrates an OSCQuery server: the namespace coordinator,
// the query resolver, the HTTP/WebSocket endpoint, the OSC UDP socket
// and mDNS advertisement.
type Server struct {
	mu sync.Mutex

	config config.Config

	coord    *tree.Coordinator
	notifier *notify.Notifier
	resolver *query.Resolver

	httpServer *http.Server
	httpLn     net.Listener
	hub        *transport.WSHub
	oscService *transport.OSCService
	advertiser discovery.Advertiser

	// Logger for debug output (optional)
	logger *slog.Logger

	// Protocol logger for structured event capture
	protocolLogger log.Logger
	ownsProtoLog   bool

	// HOST_INFO snapshot, written at Start. Guarded separately so
	// request handlers never contend with the server-wide lock.
	infoMu sync.Mutex
	info   query.HostInfo

	running bool
	stopped bool
}

// New creates a server from a validated config. The namespace is usable
// immediately; transports come up on Start.
func New(cfg config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	queueLen := cfg.QueueLen
	if queueLen == 0 {
		queueLen = notify.DefaultQueueLen
	}

	s := &Server{
		config:         cfg,
		notifier:       notify.New(queueLen),
		logger:         slog.New(slog.DiscardHandler),
		protocolLogger: &log.NoopLogger{},
	}
	s.coord = tree.NewCoordinator(tree.New(), s.notifier)
	s.resolver = query.NewResolver(s.coord)
	return s, nil
}

// SetLogger installs a debug logger. Call before Start.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger != nil {
		s.logger = logger
	}
}

// SetProtocolLogger installs a protocol event logger, overriding the
// protocol_log config file. Call before Start. The server does not
// close a logger installed this way.
func (s *Server) SetProtocolLogger(logger log.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger != nil {
		s.protocolLogger = logger
		s.ownsProtoLog = false
	}
}

// Start brings up the transports and, when enabled, mDNS advertisement.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyStarted
	}
	if s.stopped {
		return fmt.Errorf("server cannot be restarted after Stop")
	}

	if s.config.ProtocolLog != "" && s.usingNoopProtoLog() {
		fl, err := log.NewFileLogger(s.config.ProtocolLog)
		if err != nil {
			return fmt.Errorf("failed to open protocol log: %w", err)
		}
		s.protocolLogger = fl
		s.ownsProtoLog = true
	}

	s.hub = transport.NewWSHub(transport.WSConfig{
		Coordinator: s.coord,
		Notifier:    s.notifier,
		Logger:      s.protocolLogger,
	})

	if s.config.OSCAddr != "" {
		svc := transport.NewOSCService(transport.OSCConfig{
			Address:     s.config.OSCAddr,
			Coordinator: s.coord,
			Logger:      s.protocolLogger,
		})
		if err := svc.Start(); err != nil {
			s.teardownLocked()
			return err
		}
		s.oscService = svc
	}

	ln, err := net.Listen("tcp", s.config.HTTPAddr)
	if err != nil {
		s.teardownLocked()
		return fmt.Errorf("failed to listen on %s: %w", s.config.HTTPAddr, err)
	}
	s.httpLn = ln

	handler := transport.NewHTTPHandler(transport.HTTPConfig{
		Resolver: s.resolver,
		HostInfo: s.hostInfo,
		Hub:      s.hub,
		Logger:   s.protocolLogger,
	})
	s.httpServer = &http.Server{Handler: handler}
	// Capture locals: the goroutine may outlive Stop resetting the
	// fields under s.mu.
	httpSrv, logger := s.httpServer, s.logger
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
		}
	}()

	info := query.HostInfo{Name: s.config.Name}
	info.WSIP, info.WSPort = addrHostPort(ln.Addr())
	if s.oscService != nil {
		info.OSCIP, info.OSCPort = addrHostPort(s.oscService.LocalAddr())
	}
	s.infoMu.Lock()
	s.info = info
	s.infoMu.Unlock()

	if s.config.MDNS {
		adv, err := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
		if err != nil {
			s.teardownLocked()
			return err
		}
		info := discovery.Info{
			Name:     s.config.Name,
			HTTPPort: addrPort(ln.Addr()),
		}
		if s.oscService != nil {
			info.OSCPort = addrPort(s.oscService.LocalAddr())
		}
		if err := adv.Advertise(ctx, info); err != nil {
			// Advertised discovery is best effort; the server still
			// works for clients that know the address.
			s.logger.Warn("mdns advertise failed", "error", err)
		} else {
			s.advertiser = adv
		}
	}

	s.running = true
	s.logger.Info("oscquery server started",
		"http", ln.Addr().String(),
		"osc", s.config.OSCAddr,
		"mdns", s.advertiser != nil)
	return nil
}

func (s *Server) usingNoopProtoLog() bool {
	_, isNoop := s.protocolLogger.(*log.NoopLogger)
	return isNoop
}

// Stop tears down transports, discovery and the coordinator. The
// namespace cannot be used after Stop.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrNotStarted
	}
	s.running = false
	s.stopped = true

	s.teardownLocked()
	s.coord.Close()

	if s.ownsProtoLog {
		if closer, ok := s.protocolLogger.(*log.FileLogger); ok {
			_ = closer.Close()
		}
		s.ownsProtoLog = false
	}

	s.logger.Info("oscquery server stopped")
	return nil
}

func (s *Server) teardownLocked() {
	if s.advertiser != nil {
		s.advertiser.StopAll()
		s.advertiser = nil
	}
	if s.hub != nil {
		s.hub.Close()
		s.hub = nil
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		_ = s.httpServer.Shutdown(ctx)
		cancel()
		s.httpServer = nil
		s.httpLn = nil
	}
	if s.oscService != nil {
		_ = s.oscService.Stop()
		s.oscService = nil
	}
}

// HTTPAddr returns the bound HTTP address, nil before Start.
func (s *Server) HTTPAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpLn == nil {
		return nil
	}
	return s.httpLn.Addr()
}

// OSCAddr returns the bound OSC UDP address, nil when OSC is disabled
// or the server is not running.
func (s *Server) OSCAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.oscService == nil {
		return nil
	}
	return s.oscService.LocalAddr()
}

// hostInfo returns the HOST_INFO snapshot taken at Start. It must not
// take s.mu: requests in flight during Stop would otherwise stall the
// HTTP shutdown until its timeout.
func (s *Server) hostInfo() query.HostInfo {
	s.infoMu.Lock()
	defer s.infoMu.Unlock()
	return s.info
}

// AddNode inserts a node, creating intermediate containers as needed.
func (s *Server) AddNode(path string, spec tree.Spec) error {
	_, err := s.coord.Submit(context.Background(), tree.Edit{
		Kind:   tree.EditInsert,
		Origin: tree.OriginHost,
		Path:   path,
		Spec:   spec,
	})
	return err
}

// RemoveNode deletes the node and its subtree.
func (s *Server) RemoveNode(path string) error {
	_, err := s.coord.Submit(context.Background(), tree.Edit{
		Kind:   tree.EditRemove,
		Origin: tree.OriginHost,
		Path:   path,
	})
	return err
}

// SetValue replaces a node's value content. Host writes bypass the
// access check but are still clipped and type checked. The stored
// values after clipping are returned.
func (s *Server) SetValue(path string, values ...model.Value) ([]model.Value, error) {
	res, err := s.coord.Submit(context.Background(), tree.Edit{
		Kind:   tree.EditSet,
		Origin: tree.OriginHost,
		Path:   path,
		Values: values,
	})
	if err != nil {
		return nil, err
	}
	return res.Stored, nil
}

// GetValue returns a node's current value content.
func (s *Server) GetValue(path string) ([]model.Value, error) {
	var (
		values []model.Value
		err    error
	)
	s.coord.View(func(t *tree.Tree) {
		var node *tree.Node
		node, err = t.Resolve(path)
		if err != nil {
			return
		}
		values = node.Values()
	})
	return values, err
}

// Trigger announces a node's current value without changing it: WS
// subscribers get a PATH_CHANGED plus the OSC relay, and registered UDP
// peers get the message. Use it for impulse methods and for values
// changed out of band.
func (s *Server) Trigger(path string) error {
	var (
		values []model.Value
		err    error
	)
	s.coord.View(func(t *tree.Tree) {
		var node *tree.Node
		node, err = t.Resolve(path)
		if err != nil {
			return
		}
		if node.IsContainer() {
			err = fmt.Errorf("%w: cannot trigger container %s", tree.ErrValidation, path)
			return
		}
		values = node.Values()
	})
	if err != nil {
		return err
	}

	s.notifier.PathChanged(path, values)

	s.mu.Lock()
	svc := s.oscService
	s.mu.Unlock()
	if svc != nil {
		if err := svc.Send(&osc.Message{Addr: path, Args: values}); err != nil {
			return err
		}
	}
	return nil
}

// AddOSCPeer registers a UDP address to receive outbound OSC messages.
func (s *Server) AddOSCPeer(addr string) error {
	s.mu.Lock()
	svc := s.oscService
	s.mu.Unlock()
	if svc == nil {
		return fmt.Errorf("osc transport not running")
	}
	return svc.AddSendAddr(addr)
}

// RemoveOSCPeer drops a registered UDP peer.
func (s *Server) RemoveOSCPeer(addr string) {
	s.mu.Lock()
	svc := s.oscService
	s.mu.Unlock()
	if svc != nil {
		svc.RemoveSendAddr(addr)
	}
}

// Coordinator exposes the namespace coordinator for advanced use such
// as batched edits or custom views.
func (s *Server) Coordinator() *tree.Coordinator { return s.coord }

// addrHostPort splits a net.Addr into host and port.
func addrHostPort(addr net.Addr) (string, int) {
	if addr == nil {
		return "", 0
	}
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "", 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

// addrPort returns the port of a net.Addr, zero when unknown.
func addrPort(addr net.Addr) int {
	_, port := addrHostPort(addr)
	return port
}
