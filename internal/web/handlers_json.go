package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/vitos/crypto_bot_fleet/internal/domain"
	"go.uber.org/zap"
)

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) botID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid bot id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) handleListBots(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.Bots())
}

func (s *Server) handleGetBot(w http.ResponseWriter, r *http.Request) {
	id, ok := s.botID(w, r)
	if !ok {
		return
	}
	bot, err := s.store.Bot(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.writeJSON(w, bot)
}

func (s *Server) handleGetBotModel(w http.ResponseWriter, r *http.Request) {
	id, ok := s.botID(w, r)
	if !ok {
		return
	}
	if _, err := s.store.Bot(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	model, exists := s.agent.Model(id)
	if !exists {
		http.Error(w, "no learning history for bot", http.StatusNotFound)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"model":   model,
		"history": model.History(),
	})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.MarketData())
}

func limitParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return fallback
	}
	return limit
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.Trades(limitParam(r, 50)))
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.Decisions(limitParam(r, 20)))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.Stats())
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"analysis":   s.agent.Analysis(),
		"confidence": s.agent.Confidence(),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "invalid settings payload", http.StatusBadRequest)
		return
	}
	s.store.UpdateSettings(settings)
	s.writeJSON(w, settings)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"running": s.scheduler.Running(),
		"stats":   s.store.Stats(),
	})
}

func (s *Server) handleFleetStart(w http.ResponseWriter, r *http.Request) {
	s.scheduler.Start()
	s.writeJSON(w, map[string]bool{"running": true})
}

func (s *Server) handleFleetStop(w http.ResponseWriter, r *http.Request) {
	s.scheduler.Stop()
	s.writeJSON(w, map[string]bool{"running": false})
}

func (s *Server) handleToggleBot(w http.ResponseWriter, r *http.Request) {
	id, ok := s.botID(w, r)
	if !ok {
		return
	}
	if err := s.scheduler.ToggleBot(id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrBotNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	bot, err := s.store.Bot(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.writeJSON(w, bot)
}

func (s *Server) handleOptimizeBot(w http.ResponseWriter, r *http.Request) {
	id, ok := s.botID(w, r)
	if !ok {
		return
	}
	result, err := s.agent.OptimizeBot(id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrBotNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	s.writeJSON(w, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="fleet_snapshot.json"`)
	s.writeJSON(w, s.store.Export())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 16<<20))
	if err != nil {
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	if err := s.store.Import(raw); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Info("Snapshot imported")
	s.writeJSON(w, map[string]bool{"imported": true})
}
