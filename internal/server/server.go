// package server contains the router, middleware & handlers for the download service
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tri/internal/shared"
	"github.com/desertthunder/tri/internal/tasks"
)

const shutdownTimeout = 10 * time.Second

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, request ids, panic recovery, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the download service.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Downloader runs one download request to completion. Implemented by [tasks.Orchestrator].
type Downloader interface {
	Run(ctx context.Context, progress chan<- tasks.ProgressUpdate, req tasks.Request) (*tasks.Outcome, error)
}

// NewRouter builds the service's routes: POST /dl and GET /health behind the
// request id, logging and recovery middleware.
func NewRouter(d Downloader, cfg shared.ServerConfig, logger *log.Logger) (*BasicRouter, error) {
	download, err := NewDownloadHandler(d, cfg.BodyLimit, cfg.VerboseErrors, logger)
	if err != nil {
		return nil, err
	}

	r := NewBasicRouter()
	r.Use(RequestID(), Logging(logger), Recover(logger))
	r.Handler(download)
	r.Handler(HealthHandler{})
	return r, nil
}

// Server owns the listening [http.Server].
type Server struct {
	addr       string
	handler    http.Handler
	logger     *log.Logger
	httpServer *http.Server
}

// New creates a server for handler listening on addr.
func New(addr string, handler http.Handler, logger *log.Logger) *Server {
	return &Server{
		addr:    addr,
		handler: handler,
		logger:  logger,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until ctx is canceled, then shuts down gracefully, letting
// in-flight requests finish for up to ten seconds.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
