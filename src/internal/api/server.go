package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/maksimkurb/keen-ipmon/src/internal/log"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates an API server for the handler on listenAddr.
func NewServer(listenAddr string, h *Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         listenAddr,
			Handler:      NewRouter(h),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Listen binds the listening socket, so bind errors surface before the
// daemon reports itself started.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Serve serves requests until Stop is called. It calls Listen if needed.
// Serve is not safe for concurrent use.
func (s *Server) Serve() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	log.Infof("[API] Serving status API on http://%s/api/v1/status", s.Addr())
	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		// Serve closed the listener; the next call binds a new one.
		s.listener = nil
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the API server
func (s *Server) Stop(ctx context.Context) error {
	log.Infof("[API] Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}
