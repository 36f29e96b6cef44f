// Package server runs the session protocol over TCP. Each accepted
// connection gets its own goroutine that reads one frame, hands it to the
// router and writes exactly one response before reading the next.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/creditshop/internal/metrics"
	"github.com/mcoot/creditshop/internal/protocol"
	"github.com/mcoot/creditshop/internal/router"
	"github.com/mcoot/creditshop/internal/session"
)

// Config holds configuration for the TCP server
type Config struct {
	Addr            string
	MaxFrameBytes   int
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default TCP server configuration
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:65432",
		MaxFrameBytes:   protocol.DefaultMaxFrameBytes,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Handler routes one raw frame for a connection
type Handler interface {
	HandleFrame(ctx context.Context, connID string, frame []byte) router.Result
}

// Server accepts client connections and supervises their goroutines
type Server struct {
	config   Config
	handler  Handler
	sessions *session.Table
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[string]net.Conn
	closing  bool
	wg       sync.WaitGroup
}

// New creates a new TCP server
func New(config Config, handler Handler, sessions *session.Table, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		config:   config,
		handler:  handler,
		sessions: sessions,
		metrics:  m,
		logger:   logger,
		conns:    make(map[string]net.Conn),
	}
}

// Listen binds the configured address without accepting yet
func (s *Server) Listen() error {
	l, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	return nil
}

// Start binds if needed and serves until Shutdown. It returns nil after a
// clean shutdown.
func (s *Server) Start() error {
	s.mu.Lock()
	bound := s.listener != nil
	s.mu.Unlock()
	if !bound {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	return s.serve()
}

func (s *Server) serve() error {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()

	s.logger.Info("starting TCP server", slog.String("addr", l.Addr().String()))

	var backoff time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			if s.isClosing() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
			s.logger.Warn("accept failed, retrying",
				slog.String("error", err.Error()),
				slog.Duration("backoff", backoff))
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()

	connID := uuid.NewString()
	logger := s.logger.With(
		slog.String("conn_id", connID),
		slog.String("remote_addr", conn.RemoteAddr().String()))

	if !s.track(connID, conn) {
		conn.Close()
		return
	}
	s.sessions.Open(connID)
	s.metrics.ConnectionOpened()
	logger.Debug("connection opened")

	defer func() {
		nickname, _ := s.sessions.Resolve(connID)
		s.sessions.Close(connID)
		s.untrack(connID)
		conn.Close()
		s.metrics.ConnectionClosed()
		logger.Debug("connection closed", slog.String("nickname", nickname))
	}()

	reader := protocol.NewFrameReader(conn, s.config.MaxFrameBytes)
	writer := protocol.NewFrameWriter(conn)

	for {
		frame, err := reader.Next()
		if err != nil {
			s.logReadError(logger, err)
			return
		}

		// Requests are never cancelled mid-flight, shutdown only stops reads
		result := s.handler.HandleFrame(context.Background(), connID, frame)

		if s.config.WriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		}
		if err := writer.Write(result.Response); err != nil {
			logger.Warn("dropping connection after write failure", slog.String("error", err.Error()))
			return
		}
		if result.Close {
			return
		}
	}
}

func (s *Server) logReadError(logger *slog.Logger, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF):
		logger.Debug("client disconnected")
	case errors.Is(err, protocol.ErrFrameTooLong):
		logger.Warn("dropping connection after oversized frame",
			slog.Int("max_frame_bytes", s.config.MaxFrameBytes))
	case s.isClosing() && errors.As(err, &netErr) && netErr.Timeout():
		logger.Debug("connection closed for shutdown")
	default:
		logger.Warn("dropping connection after read failure", slog.String("error", err.Error()))
	}
}

// track registers a live connection. It refuses once shutdown has begun.
func (s *Server) track(connID string, conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[connID] = conn
	return true
}

func (s *Server) untrack(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, connID)
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Shutdown stops accepting and interrupts every blocked read. A request
// already being handled still gets its response written. Connections that
// have not finished by the deadline are closed forcibly.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down TCP server")

	s.mu.Lock()
	s.closing = true
	l := s.listener
	conns := make([]net.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if l != nil {
		if err := l.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("closing listener", slog.String("error", err.Error()))
		}
	}
	for _, c := range conns {
		_ = c.SetReadDeadline(time.Now())
	}

	shutdownCtx := ctx
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("TCP server stopped")
		return nil
	case <-shutdownCtx.Done():
		s.mu.Lock()
		for _, c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
		return fmt.Errorf("shutdown error: %w", shutdownCtx.Err())
	}
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// ActiveConnections returns the number of live connections
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
