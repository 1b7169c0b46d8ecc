package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/jimlawless/whereami"
	"github.com/spams12/gege/internal/cfg"
	"github.com/spams12/gege/pkg/e"
)

const (
	readHeaderTimeout = 2 * time.Second
	maxHeaderBytes    = 64 << 10
)

// Server обслуживает REST API витрины.
type Server struct {
	httpServer *http.Server
}

func NewServer(handler http.Handler, cfg *cfg.HTTPConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort("", cfg.Port),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			MaxHeaderBytes:    maxHeaderBytes,
		},
	}
}

// Run слушает порт из конфигурации и блокируется до остановки сервера.
func (s *Server) Run() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return s.Serve(lis)
}

// Serve принимает соединения на готовом listener. Штатная остановка не считается ошибкой.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Stop дожидается активных запросов, пока не истечёт ctx, затем рвёт соединения.
func (s *Server) Stop(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		_ = s.httpServer.Close()
	}

	return e.Wrap(whereami.WhereAmI(), err)
}
