package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/danmuck/edgewire/internal/observability"
	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/protocol/dispatch"
	"github.com/danmuck/edgewire/internal/protocol/schema"
	"github.com/rs/zerolog/log"
)

// Service accepts ingest connections and runs one dispatcher per connection.
type Service struct {
	cfg  ServiceConfig
	reg  *schema.Registry
	sink dispatch.Sink

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	active    atomic.Int64
	ready     atomic.Bool
	startedAt time.Time
}

// NewService wires a registry and sink into a listener service. A nil
// registry uses the built-in schemas; a nil sink logs every message.
func NewService(cfg ServiceConfig, reg *schema.Registry, sink dispatch.Sink) *Service {
	def := DefaultServiceConfig()
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.ReadBuffer <= 0 {
		cfg.ReadBuffer = def.ReadBuffer
	}
	if reg == nil {
		reg = schema.Default()
	}
	if sink == nil {
		sink = MetricsSink{Next: NewLogSink(log.Logger)}
	}
	observability.RegisterMetrics()
	return &Service{
		cfg:       cfg,
		reg:       reg,
		sink:      sink,
		conns:     make(map[net.Conn]struct{}),
		startedAt: time.Now(),
	}
}

// Run listens on the configured addresses and blocks until SIGINT/SIGTERM.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.cfg.Validate(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	log.Info().
		Str("addr", ln.Addr().String()).
		Strs("schemas", s.reg.Names()).
		Msg("server.Service.Run listening")

	adminErr := make(chan error, 1)
	if addr := strings.TrimSpace(s.cfg.AdminAddr); addr != "" {
		go func() {
			adminErr <- s.serveAdmin(ctx, addr)
		}()
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve(ctx, ln)
	}()
	select {
	case err := <-serveErr:
		return err
	case err := <-adminErr:
		if err != nil {
			stop()
			<-serveErr
			return err
		}
		return <-serveErr
	}
}

// Serve runs the accept loop on ln until ctx is canceled.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		s.ready.Store(false)
		s.closeAllConns()
		_ = ln.Close()
	}()

	s.ready.Store(true)
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.ready.Store(false)
			// connections cannot outlive the accept loop
			s.closeAllConns()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Error().Err(err).Msg("server.Service.Serve accept failed")
			return err
		}
		s.trackConn(conn)
		if ctx.Err() != nil {
			// raced with shutdown after closeAllConns ran
			_ = conn.Close()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// ActiveConnections is the number of open ingest connections.
func (s *Service) ActiveConnections() int64 {
	return s.active.Load()
}

func (s *Service) Ready() bool {
	return s.ready.Load()
}

func (s *Service) Registry() *schema.Registry {
	return s.reg
}

func (s *Service) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)

	remote := conn.RemoteAddr().String()
	logger := log.With().Str("remote", remote).Logger()
	ctx = logger.WithContext(ctx)

	active := s.active.Add(1)
	observability.ConnOpened()
	logger.Info().Int64("active_clients", active).Msg("server.session client connected")

	d := dispatch.New(s.reg, s.sink, dispatch.WithReadBuffer(s.cfg.ReadBuffer))
	err := d.Run(ctx, &deadlineReader{conn: conn, timeout: s.cfg.ReadTimeout})

	remaining := s.active.Add(-1)
	observability.ConnClosed()
	stats := d.Stats()
	class, failed := closeOutcome(err)
	if !failed {
		event := logger.Info().
			Uint64("bytes", stats.Bytes).
			Uint64("messages", stats.Messages).
			Int64("active_clients", remaining)
		if class != "" {
			event = event.Str("class", class)
		}
		event.Msg("server.session client disconnected")
		return
	}

	observability.RecordConnError(class)
	logger.Warn().
		Str("class", class).
		Err(err).
		Uint64("bytes", stats.Bytes).
		Uint64("messages", stats.Messages).
		Int64("active_clients", remaining).
		Msg("server.session closing connection")
}

// closeOutcome classifies how a connection ended. Peer EOF and server
// shutdown are not failures.
func closeOutcome(err error) (class string, failed bool) {
	if err == nil {
		return "", false
	}
	class = errorClass(err)
	return class, class != "shutdown"
}

// errorClass buckets a connection's terminal error for metrics and logs.
func errorClass(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, schema.ErrUnknownMessageType):
		return "unknown_message_type"
	case errors.Is(err, schema.ErrUnknownSchema):
		return "unknown_schema"
	case errors.Is(err, codec.ErrTruncated):
		return "truncated"
	case errors.Is(err, dispatch.ErrIncompleteMessage):
		return "incomplete"
	case errors.Is(err, dispatch.ErrEmit):
		return "sink"
	case errors.Is(err, context.Canceled), errors.Is(err, net.ErrClosed):
		return "shutdown"
	case errors.Is(err, os.ErrDeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "transport"
	}
}

// deadlineReader refreshes the read deadline before every read and counts
// bytes received.
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	if r.timeout > 0 {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
			return 0, err
		}
	}
	n, err := r.conn.Read(p)
	if n > 0 {
		observability.RecordBytes(n)
	}
	return n, err
}

var _ io.Reader = (*deadlineReader)(nil)

func (s *Service) serveAdmin(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.AdminRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("server.Service.serveAdmin listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Service) trackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Service) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

func (s *Service) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}
