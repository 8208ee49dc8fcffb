package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"pulse/internal/api"
	"pulse/internal/engine"
	"pulse/internal/ws"
)

type APIServer struct {
	log    *slog.Logger
	server *http.Server
	wg     sync.WaitGroup
}

func NewAPIServer(log *slog.Logger, eng *engine.Engine, handlers *api.API, resolver ws.IdentityResolver, addr string) *APIServer {
	server := ws.NewServer(log, eng, resolver)

	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("GET /api/rooms/{kind}/{id}/messages", handlers.MessagesHandler)
	mux.HandleFunc("GET /healthz", handlers.HealthzHandler)

	// WebSocket endpoint
	mux.HandleFunc("/ws", server.HandleConnections)

	if addr == "" {
		addr = ":8080"
	}

	return &APIServer{
		log: log,
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

func (s *APIServer) Start() error {
	s.log.Info("server started", "addr", s.server.Addr)
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
