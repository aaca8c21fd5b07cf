package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/calvinwijaya/blackjack/internal/game"
	"github.com/calvinwijaya/blackjack/internal/report"
	"github.com/calvinwijaya/blackjack/internal/store"
	"github.com/coder/quartz"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Config holds what the handlers need to run server-held sessions.
type Config struct {
	Clock       quartz.Clock
	DealerDelay time.Duration
	Logger      *logrus.Logger
}

// Handlers contains all the API handlers
type Handlers struct {
	records  store.RecordStore
	sessions *store.Sessions
	hub      *Hub
	cfg      Config
	logger   *logrus.Logger
}

// NewHandlers creates a new instance of Handlers
func NewHandlers(records store.RecordStore, sessions *store.Sessions, hub *Hub, cfg Config) *Handlers {
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Handlers{
		records:  records,
		sessions: sessions,
		hub:      hub,
		cfg:      cfg,
		logger:   cfg.Logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Persistence endpoint; method checking is done by the handler
	r.HandleFunc("/api/game", h.RecordGame)
	r.HandleFunc("/api/game/{id}", h.GetRecord).Methods("GET")
	r.HandleFunc("/api/stats", h.GetStats).Methods("GET")

	// Session endpoints
	r.HandleFunc("/api/session", h.NewSession).Methods("POST")
	r.HandleFunc("/api/session/{id}", h.GetSession).Methods("GET")
	r.HandleFunc("/api/session/{id}", h.DeleteSession).Methods("DELETE")
	r.HandleFunc("/api/session/{id}/draw", h.command(game.CommandDraw)).Methods("POST")
	r.HandleFunc("/api/session/{id}/stand", h.command(game.CommandStand)).Methods("POST")
	r.HandleFunc("/api/session/{id}/round", h.command(game.CommandNewRound)).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		response(w, http.StatusOK, map[string]bool{"ok": true})
	}).Methods("GET")

	// WebSocket endpoint
	if h.hub != nil {
		r.HandleFunc("/ws", h.hub.WebSocketHandler)
	}
}

// response helper function to send JSON responses
func response(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// error response helper function
func errorResponse(w http.ResponseWriter, status int, message string) {
	response(w, status, map[string]string{"error": message})
}

// clientIP returns the caller's address. RemoteAddr is either host:port from
// the listener or a bare IP set by the RealIP middleware.
func clientIP(r *http.Request) (string, bool) {
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return "", false
	}
	return ip.String(), true
}

type recordGameRequest struct {
	Win             *bool `json:"win"`
	PlayerHandTotal *int  `json:"playerHandTotal"`
	DealerHandTotal *int  `json:"dealerHandTotal"`
}

// RecordGame stores the outcome of a finished round
func (h *Handlers) RecordGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		errorResponse(w, http.StatusBadRequest, "Unsupported method")
		return
	}

	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		errorResponse(w, http.StatusBadRequest, "Content-Type must be application/json")
		return
	}

	var req recordGameRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// the body is exactly one JSON object
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Win == nil || req.PlayerHandTotal == nil || req.DealerHandTotal == nil {
		errorResponse(w, http.StatusBadRequest, "win, playerHandTotal and dealerHandTotal are required")
		return
	}

	ip, ok := clientIP(r)
	if !ok {
		errorResponse(w, http.StatusBadRequest, "Unable to determine client address")
		return
	}

	id, err := h.records.SaveRecord(r.Context(), store.Record{
		IP:              ip,
		Win:             *req.Win,
		PlayerHandTotal: *req.PlayerHandTotal,
		DealerHandTotal: *req.DealerHandTotal,
	})
	if err != nil {
		h.logger.WithError(err).WithField("ip", ip).Error("Failed to save game record")
		errorResponse(w, http.StatusInternalServerError, "Failed to save game")
		return
	}

	response(w, http.StatusCreated, map[string]string{"id": id})
}

// GetRecord returns a stored record
func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.records.GetRecord(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		errorResponse(w, http.StatusNotFound, "Game not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("Failed to load game record")
		errorResponse(w, http.StatusInternalServerError, "Error retrieving game")
		return
	}

	response(w, http.StatusOK, rec)
}

// GetStats returns win/loss/draw counts, optionally for a single ip
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.records.Stats(r.Context(), r.URL.Query().Get("ip"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute stats")
		errorResponse(w, http.StatusInternalServerError, "Error retrieving statistics")
		return
	}

	response(w, http.StatusOK, stats)
}

// NewSession starts a server-held game session for the caller
func (h *Handlers) NewSession(w http.ResponseWriter, r *http.Request) {
	ip, ok := clientIP(r)
	if !ok {
		errorResponse(w, http.StatusBadRequest, "Unable to determine client address")
		return
	}

	cfg := game.SessionConfig{
		Clock:       h.cfg.Clock,
		DealerDelay: h.cfg.DealerDelay,
		Reporter:    &report.StoreReporter{Store: h.records, IP: ip},
		Logger:      h.logger.WithField("ip", ip),
	}
	if h.hub != nil {
		cfg.OnChange = h.hub.BroadcastSession
	}

	s := game.NewSession(cfg)
	h.sessions.Save(s)

	response(w, http.StatusCreated, s.Snapshot())
}

// GetSession returns the current view of a session
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}

	response(w, http.StatusOK, s.Snapshot())
}

// DeleteSession ends a session
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(mux.Vars(r)["id"]); err != nil {
		errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type commandResponse struct {
	Applied bool          `json:"applied"`
	Game    game.Snapshot `json:"game"`
}

// command returns a handler that applies cmd to the session in the path.
// A command the session cannot take right now is reported, not failed.
func (h *Handlers) command(cmd game.Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.sessions.Get(mux.Vars(r)["id"])
		if err != nil {
			errorResponse(w, http.StatusNotFound, "Session not found")
			return
		}

		snap, err := s.Apply(cmd)
		if err != nil && !errors.Is(err, game.ErrInvalidTransition) {
			errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}

		response(w, http.StatusOK, commandResponse{Applied: err == nil, Game: snap})
	}
}
