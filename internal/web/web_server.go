package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/BetterCallFirewall/techscope/internal/broker"
	"github.com/BetterCallFirewall/techscope/internal/config"
	"github.com/BetterCallFirewall/techscope/internal/host"
	"github.com/BetterCallFirewall/techscope/internal/models"
	"github.com/BetterCallFirewall/techscope/internal/orchestrator"
	"github.com/BetterCallFirewall/techscope/internal/websocket"
)

// Server открывает оркестратор для UI: команды по HTTP, события по websocket.
type Server struct {
	config       config.WebConfig
	orchestrator *orchestrator.Orchestrator
	browser      *host.Browser
	events       *broker.Broker[models.Event]
	hub          *websocket.Hub
	server       *http.Server
}

func NewServer(cfg config.WebConfig, orch *orchestrator.Orchestrator, browser *host.Browser, events *broker.Broker[models.Event]) *Server {
	return &Server{
		config:       cfg,
		orchestrator: orch,
		browser:      browser,
		events:       events,
		hub:          websocket.NewHub(),
	}
}

// Handler собирает роутер.
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(LoggingMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Get("/ws", s.hub.ServeWS)

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/detect", s.handleDetect)
		rt.Get("/technologies", s.handleTechnologies)

		rt.Get("/tabs", s.wrap(s.handleListTabs))
		rt.Post("/tabs", s.wrap(s.handleOpenTab))
		rt.Route("/tabs/{id}", func(tab chi.Router) {
			tab.Get("/state", s.wrap(s.handleTabState))
			tab.Put("/activate", s.wrap(s.handleActivateTab))
			tab.Put("/snapshot", s.wrap(s.handleAttachSnapshot))
			tab.Post("/requests", s.wrap(s.handleObserveRequests))
			tab.Delete("/", s.wrap(s.handleCloseTab))
		})
	})

	return mux
}

// Run обслуживает запросы до отмены ctx, затем мягко останавливается.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.config.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		s.pumpEvents(ctx)
		return nil
	})
	g.Go(func() error {
		log.Printf("🌐 Web server listening on %s", s.config.ListenAddr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return s.Stop()
	})
	return g.Wait()
}

func (s *Server) Stop() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// pumpEvents пересылает события оркестратора websocket клиентам.
func (s *Server) pumpEvents(ctx context.Context) {
	events := s.events.Subscribe(models.EventsTopic)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.hub.Broadcast(string(event.Type), event)
		}
	}
}
