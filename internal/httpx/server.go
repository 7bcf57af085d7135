package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const defaultShutdownTimeout = 5 * time.Second

// Server ties an http.Server to a context: Run serves until the context is
// canceled, then drains in-flight requests before returning.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

func New(addr string, h http.Handler) *Server {
	return NewWithTimeout(addr, h, defaultShutdownTimeout)
}

// NewWithTimeout bounds how long shutdown waits for in-flight requests before
// closing the remaining connections.
func NewWithTimeout(addr string, h http.Handler, shutdownTimeout time.Duration) *Server {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &Server{
		srv:             &http.Server{Addr: addr, Handler: h},
		shutdownTimeout: shutdownTimeout,
	}
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(sctx); err != nil {
			// Drain window expired; drop whatever is still in flight.
			return s.srv.Close()
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
