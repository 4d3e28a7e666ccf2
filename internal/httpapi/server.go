package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	maxHeaderBytes    = 1 << 20
	readHeaderTimeout = 10 * time.Second
	// commands wait on the upstream API, whose own timeout is 10s
	writeTimeout = 30 * time.Second
	idleTimeout  = 60 * time.Second
)

// Server wraps an *http.Server to provide start/shutdown lifecycle.
type Server struct {
	httpServer *http.Server
}

// NewServer configures a server for addr ("8080" or ":8080").
func NewServer(addr string, handler http.Handler) *Server {
	if addr != "" && !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	return &Server{httpServer: &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}}
}

// Addr is the listen address after normalization.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run blocks serving requests. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
