package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"pulse/internal/api"
)

// OpsServer is the operator-facing listener. It exposes live registry
// state and is meant to bind on localhost only.
type OpsServer struct {
	log    *slog.Logger
	server *http.Server
	wg     sync.WaitGroup
}

func NewOpsServer(log *slog.Logger, handlers *api.API, addr string) *OpsServer {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /debug/sessions", handlers.SessionsHandler)
	mux.HandleFunc("GET /debug/rooms", handlers.RoomsHandler)

	if addr == "" {
		addr = "localhost:8081"
	}

	return &OpsServer{
		log: log,
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

func (s *OpsServer) Start() error {
	s.log.Info("ops server started", "addr", s.server.Addr)
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *OpsServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
