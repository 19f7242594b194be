package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/mssb/matchmaker/internal/ws"
	"github.com/mssb/matchmaker/pkg/types"
)

var logger = logrus.WithFields(logrus.Fields{
	"app":       "matchmaking",
	"component": "api",
})

// Matchmaker is the engine surface the API drives.
type Matchmaker interface {
	EnterQueue(ctx context.Context, playerID, displayName, mode string) (*types.MatchResult, error)
	ExitQueue(playerID string) bool
	Status() types.QueueStatus
}

type router struct {
	h  *ws.Hub
	mm Matchmaker
}

func NewRouter(h *ws.Hub, mm Matchmaker) http.Handler {
	r := &router{h: h, mm: mm}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.Post("/queue", r.handleQueue)
	mux.Post("/dequeue", r.handleDequeue)
	mux.Get("/status", r.handleStatus)
	mux.Get("/ws", r.handleWS)

	return mux
}

func (r *router) handleQueue(w http.ResponseWriter, req *http.Request) {
	var p types.JoinRequest
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.PlayerID == "" {
		http.Error(w, "missing player_id", http.StatusBadRequest)
		return
	}
	if p.DisplayName == "" {
		p.DisplayName = p.PlayerID
	}

	res, err := r.mm.EnterQueue(req.Context(), p.PlayerID, p.DisplayName, p.Mode)
	if errors.Is(err, types.ErrInvalidMode) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.WithError(err).WithField("player", p.PlayerID).Error("enter queue failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"queued": res == nil, "match": res, "at": time.Now()})
}

func (r *router) handleDequeue(w http.ResponseWriter, req *http.Request) {
	var p types.LeaveRequest
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.PlayerID == "" {
		http.Error(w, "missing player_id", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"removed": r.mm.ExitQueue(p.PlayerID)})
}

func (r *router) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, r.mm.Status())
}

func (r *router) handleWS(w http.ResponseWriter, req *http.Request) {
	ws.ServeWS(r.h, w, req)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Warn("writing response")
	}
}
