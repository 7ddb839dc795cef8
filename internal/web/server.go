package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vitos/crypto_bot_fleet/internal/usecase"
	"go.uber.org/zap"
)

// Server exposes the read surface consumed by renderers plus the fleet control
// endpoints. It never mutates core state directly; every write goes through a
// scheduler, agent or store operation.
type Server struct {
	router       *http.ServeMux
	server       *http.Server
	store        *usecase.Store
	scheduler    *usecase.Scheduler
	agent        *usecase.AdaptiveAgent
	feedInterval time.Duration
	logger       *zap.Logger
}

func NewServer(
	port int,
	store *usecase.Store,
	scheduler *usecase.Scheduler,
	agent *usecase.AdaptiveAgent,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:       http.NewServeMux(),
		store:        store,
		scheduler:    scheduler,
		agent:        agent,
		feedInterval: 2 * time.Second,
		logger:       logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Read surface
	s.router.HandleFunc("GET /api/bots", s.handleListBots)
	s.router.HandleFunc("GET /api/bots/{id}", s.handleGetBot)
	s.router.HandleFunc("GET /api/bots/{id}/model", s.handleGetBotModel)
	s.router.HandleFunc("GET /api/market", s.handleMarket)
	s.router.HandleFunc("GET /api/trades", s.handleTrades)
	s.router.HandleFunc("GET /api/decisions", s.handleDecisions)
	s.router.HandleFunc("GET /api/stats", s.handleStats)
	s.router.HandleFunc("GET /api/analysis", s.handleAnalysis)
	s.router.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.router.HandleFunc("GET /status", s.handleStatus)

	// Fleet control
	s.router.HandleFunc("POST /api/fleet/start", s.handleFleetStart)
	s.router.HandleFunc("POST /api/fleet/stop", s.handleFleetStop)
	s.router.HandleFunc("POST /api/bots/{id}/toggle", s.handleToggleBot)
	s.router.HandleFunc("POST /api/bots/{id}/optimize", s.handleOptimizeBot)
	s.router.HandleFunc("PUT /api/settings", s.handleUpdateSettings)

	// Snapshot transfer
	s.router.HandleFunc("GET /api/export", s.handleExport)
	s.router.HandleFunc("POST /api/import", s.handleImport)

	// Live state feed
	s.router.HandleFunc("GET /ws", s.handleStateFeed)
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
