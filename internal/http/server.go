package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coticdev/usersapp/internal/observability/logger"
)

// ServerOptions ajusta timeouts del servidor HTTP.
type ServerOptions struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server envuelve http.Server con apagado ordenado.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

// NewServer crea el servidor sobre addr con el handler dado.
func NewServer(addr string, handler http.Handler, opts ServerOptions) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		},
		shutdownTimeout: opts.ShutdownTimeout,
	}
}

// Run sirve hasta que ctx se cancele y entonces apaga ordenadamente.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("servidor escuchando", logger.Any("addr", s.srv.Addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		logger.L().Info("apagando servidor")
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
