// Package server provides HTTP server initialization and management.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/pkg/config"
)

// Options holds the listener settings of the checkout server.
type Options struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// OptionsFromConfig reads the server settings from the environment config.
func OptionsFromConfig() Options {
	return Options{
		Port:            config.Port,
		ReadTimeout:     config.ServerReadTimeout,
		WriteTimeout:    config.ServerWriteTimeout,
		IdleTimeout:     config.ServerIdleTimeout,
		ShutdownTimeout: config.ServerShutdownTimeout,
	}
}

// Server serves the checkout pages and the admin API.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *logging.ChanneledLogger
}

// New creates a server for handler. A zero ShutdownTimeout means Stop waits
// as long as its context allows.
func New(opts Options, handler http.Handler, logger *logging.ChanneledLogger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + opts.Port,
			Handler:      handler,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  opts.IdleTimeout,
		},
		shutdownTimeout: opts.ShutdownTimeout,
		logger:          logger,
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start listens on the configured port and serves until Stop.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return s.Serve(l)
}

// Serve accepts connections on l until Stop.
func (s *Server) Serve(l net.Listener) error {
	s.logger.System().Info("Starting HTTP server", "address", l.Addr().String())

	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the HTTP server. Open websocket streams are
// hijacked connections and are closed by the broadcaster, not here.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Shutdown().Info("Shutting down HTTP server...", "timeout", s.shutdownTimeout)
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}
