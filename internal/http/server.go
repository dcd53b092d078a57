package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Server wraps the storefront's HTTP listener so main can start it in a
// goroutine and drain it on shutdown.
type Server struct {
	httpServer *http.Server
}

func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  time.Minute,
		},
	}
}

// Start blocks serving requests until the listener fails or Shutdown runs.
// A clean shutdown is not an error.
func (s *Server) Start() error {
	log.Printf("Listening on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listener failed: %w", err)
	}

	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests,
// bounded by the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Draining connections...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown incomplete: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
