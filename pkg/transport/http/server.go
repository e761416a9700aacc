package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bruecke-dev/bruecke/pkg/registry"
	"github.com/bruecke-dev/bruecke/pkg/transport"
)

// Server wraps an http.Server with the bridge adapter and manages the full
// lifecycle including startup and graceful shutdown.
type Server struct {
	httpServer *http.Server
	adapter    *Adapter
	reg        *registry.Registry
	config     ServerConfig
	logger     *slog.Logger
}

// ServerConfig holds configuration for the bridge server.
type ServerConfig struct {
	Addr              string
	RequestTimeout    time.Duration
	MaxConcurrent     int
	NotifyBodyLimit   int
	MessageBodyLimit  int64
	KeepaliveInterval time.Duration
	ShutdownTimeout   time.Duration
	Logger            *slog.Logger
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	cfg := DefaultConfig()
	return ServerConfig{
		Addr:              cfg.Addr,
		RequestTimeout:    cfg.RequestTimeout,
		MaxConcurrent:     cfg.MaxConcurrent,
		NotifyBodyLimit:   cfg.NotifyBodyLimit,
		MessageBodyLimit:  cfg.MessageBodyLimit,
		KeepaliveInterval: cfg.KeepaliveInterval,
		ShutdownTimeout:   30 * time.Second,
		Logger:            slog.Default(),
	}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.config.Addr = addr }
}

// WithRequestTimeout sets the host decision budget for bounded routes.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.RequestTimeout = d }
}

// WithMaxConcurrent sets the admission limit for counted requests.
func WithMaxConcurrent(n int) ServerOption {
	return func(s *Server) { s.config.MaxConcurrent = n }
}

// WithNotifyBodyLimit sets the body ceiling applied to host notifications.
func WithNotifyBodyLimit(n int) ServerOption {
	return func(s *Server) { s.config.NotifyBodyLimit = n }
}

// WithMessageBodyLimit sets the hard cap on the fire-and-forget channel.
func WithMessageBodyLimit(n int64) ServerOption {
	return func(s *Server) { s.config.MessageBodyLimit = n }
}

// WithKeepaliveInterval sets the SSE idle window before a keepalive comment.
func WithKeepaliveInterval(d time.Duration) ServerOption {
	return func(s *Server) { s.config.KeepaliveInterval = d }
}

// WithShutdownTimeout sets the graceful shutdown deadline.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.ShutdownTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.config.Logger = l; s.logger = l }
}

// NewServer creates a bridge server signaling the given notifier. The
// registry is shared with the decision API; pass the same instance to
// transport.NewBridge. Default middleware (recovery, logging) is applied
// to the notifier automatically.
func NewServer(reg *registry.Registry, notifier transport.Notifier, opts ...ServerOption) *Server {
	s := &Server{
		reg:    reg,
		config: DefaultServerConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	adapterCfg := Config{
		Addr:              s.config.Addr,
		RequestTimeout:    s.config.RequestTimeout,
		MaxConcurrent:     s.config.MaxConcurrent,
		NotifyBodyLimit:   s.config.NotifyBodyLimit,
		MessageBodyLimit:  s.config.MessageBodyLimit,
		KeepaliveInterval: s.config.KeepaliveInterval,
	}

	defaultMW := []transport.Middleware{
		transport.Recovery(s.logger),
		transport.Logging(s.logger),
	}

	s.adapter = NewAdapter(reg, notifier, adapterCfg, defaultMW...)

	// WriteTimeout stays zero: SSE responses outlive any fixed deadline.
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.adapter.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// ListenAndServe starts the server and blocks until a shutdown signal
// (SIGINT or SIGTERM) is received. It then force-completes every pending
// request and gracefully shuts down, waiting for in-flight requests to
// unwind within the configured timeout.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.listenAndServeWithContext(ctx)
}

func (s *Server) listenAndServeWithContext(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("server starting", slog.String("addr", s.config.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	return s.shutdown()
}

// ServeOn starts the server on the given listener. Used for testing.
func (s *Server) ServeOn(ln net.Listener) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	// Unblock every parked worker first; otherwise Shutdown waits the full
	// deadline on requests nobody will ever answer.
	n := s.reg.RemoveAll()
	s.logger.Info("shutting down gracefully",
		slog.Int("pending_completed", n),
		slog.Duration("timeout", s.config.ShutdownTimeout))

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Shutdown force-completes all pending requests and shuts the server down
// with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	s.reg.RemoveAll()
	return s.httpServer.Shutdown(ctx)
}
