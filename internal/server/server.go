package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/rangectl/internal/discovery"
	"github.com/muurk/rangectl/internal/logging"
)

// DefaultPort is the port `rangectl serve` listens on
const DefaultPort = 8787

// Config holds the server configuration
type Config struct {
	Host string
	Port int // 0 picks a free port

	CertPath string // Serve TLS when both paths are set
	KeyPath  string

	Advertise bool   // Register over mDNS
	Name      string // mDNS instance name (default: hostname)
	Version   string // Advertised in TXT records

	Devices map[string]DeviceSpec
	Strict  bool // Reject devices not listed in Devices
}

// Server is the backend simulator: a WebSocket and REST front end over a Hub.
type Server struct {
	config     *Config
	hub        *Hub
	tlsConfig  *tls.Config
	httpServer *http.Server
	listener   net.Listener
	ad         *discovery.Advertisement

	wg      sync.WaitGroup
	mu      sync.Mutex
	clients map[*client]struct{}
	closing bool
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	s := &Server{
		config:  config,
		hub:     NewHub(config.Devices, config.Strict),
		clients: make(map[*client]struct{}),
	}

	if config.CertPath != "" || config.KeyPath != "" {
		tlsConfig, err := NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		s.tlsConfig = tlsConfig
	}

	s.httpServer = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         s.tlsConfig,
	}
	return s, nil
}

// Hub returns the device store.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the HTTP handler, for embedding or tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Listen binds the listening socket.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve listens (if Listen was not called), advertises and serves until ctx
// ends.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	logging.Info("Starting rangectl backend",
		zap.String("addr", s.listener.Addr().String()),
		zap.Bool("tls", s.tlsConfig != nil),
		zap.Strings("devices", s.hub.Devices()),
	)

	if s.config.Advertise {
		if err := s.advertise(); err != nil {
			// Serving still works without mDNS.
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) advertise() error {
	name := s.config.Name
	if name == "" {
		host, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("cannot determine instance name: %w", err)
		}
		name = host
	}

	port := s.listener.Addr().(*net.TCPAddr).Port
	txt := discovery.TXTRecords(s.config.Version, s.hub.Devices())
	if s.tlsConfig != nil {
		txt = append(txt, discovery.TXTTLS+"=1")
	}

	ad, err := discovery.Advertise(name, port, txt)
	if err != nil {
		return err
	}
	s.ad = ad
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.ad.Shutdown()

	// Stops the listener and idle HTTP connections; hijacked WebSocket
	// connections are ours to close.
	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	s.closing = true
	for c := range s.clients {
		logging.Info("Closing active connection", zap.String("remote_addr", c.addr))
		c.close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// GetActiveConnections returns the number of active WebSocket connections
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) track(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.clients[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}
