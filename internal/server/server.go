package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/rentzmp/rentz-server/internal/connid"
	"github.com/rentzmp/rentz-server/internal/room"
)

// Server owns the WebSocket endpoint and the background room reaper
type Server struct {
	addr         string
	upgrader     websocket.Upgrader
	logger       *log.Logger
	service      *Service
	registry     *room.Registry
	reapInterval time.Duration
}

// NewServer creates the WebSocket server
func NewServer(addr string, logger *log.Logger, service *Service, registry *room.Registry, reapInterval time.Duration) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				// In production, implement proper origin checking
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:       logger.WithPrefix("server"),
		service:      service,
		registry:     registry,
		reapInterval: reapInterval,
	}
}

// Run serves WebSocket traffic and sweeps idle rooms until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	httpServer := &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting WebSocket server", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return s.registry.RunReaper(ctx, s.reapInterval)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// handleWebSocket upgrades the request and runs the connection to completion
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	id := connid.New()
	client := NewConnection(id, conn, s.service, s.logger)
	s.service.Register(client)
	s.logger.Info("Client connected", "conn", id)

	client.Start()

	hello, err := NewMessage(MessageTypeHello, HelloData{ID: id})
	if err == nil {
		_ = client.SendMessage(hello)
	}

	go func() {
		<-client.Done()
		s.service.HandleDisconnect(client)
		s.logger.Info("Client disconnected", "conn", id)
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
