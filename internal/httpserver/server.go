package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	shutdownGrace = 10 * time.Second
	// writeSlack lets a handler that hit the request timeout still write
	// its 503 before the connection is cut.
	writeSlack = 5 * time.Second
)

// Server is one named listener. The admin UI and the metrics endpoint each
// get their own.
type Server struct {
	name   string
	server *http.Server
	logger *slog.Logger
}

func New(name, addr string, requestTimeout time.Duration, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		name: name,
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       requestTimeout,
			WriteTimeout:      requestTimeout + writeSlack,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger.With("server", name),
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("HTTP server starting", "addr", ln.Addr().String())
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
