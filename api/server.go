package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wricardo/snake-game/game/engine"
	"github.com/wricardo/snake-game/game/level"
	"github.com/wricardo/snake-game/game/service"
	"github.com/wricardo/snake-game/game/session"
	"github.com/wricardo/snake-game/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service  service.GameService
	hub      *websocket.Hub
	gatherer prometheus.Gatherer
	router   *mux.Router
}

// Option configures a Server
type Option func(*Server)

// WithMetricsGatherer exposes g on /metrics
func WithMetricsGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a new API server
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/snapshot", s.handleSnapshot).Methods("GET")
	api.HandleFunc("/sessions/{id}/play", s.handlePlay).Methods("POST")
	api.HandleFunc("/sessions/{id}/bulk-play", s.handleBulkPlay).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")

	// Real-time play
	api.HandleFunc("/sessions/{id}/steer", s.handleSteer).Methods("POST")
	api.HandleFunc("/sessions/{id}/start", s.handleStart).Methods("POST")
	api.HandleFunc("/sessions/{id}/stop", s.handleStop).Methods("POST")

	// Levels
	api.HandleFunc("/levels", s.handleListLevels).Methods("GET")
	api.HandleFunc("/levels", s.handleSaveLevel).Methods("POST")
	api.HandleFunc("/levels/{name}", s.handleGetLevel).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError picks the status for an error returned by the service
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	var parseErr *engine.ParseError
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, level.ErrLevelNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidDirection),
		errors.Is(err, service.ErrTooManyMoves),
		errors.Is(err, level.ErrInvalidLevel),
		errors.Is(err, level.ErrInvalidLevelName),
		errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrGameOver),
		errors.Is(err, service.ErrSessionRunning),
		errors.Is(err, service.ErrSessionNotRunning),
		errors.Is(err, level.ErrReadOnly):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// directionRequest is the body of play and steer
type directionRequest struct {
	Direction string `json:"direction"`
}

func decodeDirection(r *http.Request) (string, error) {
	var req directionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", errors.New("Invalid request body")
	}
	if req.Direction == "" {
		return "", errors.New("direction is required")
	}
	return req.Direction, nil
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level string `json:"level,omitempty"`
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Level == "" {
		req.Level = r.URL.Query().Get("level")
	}

	info, err := s.service.CreateSession(r.Context(), req.Level)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetSnapshot(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	direction, err := decodeDirection(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Play(r.Context(), sessionID, direction)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Compact server log for observability
	if st := result.Step; st != nil {
		status := "OK"
		if !result.Success {
			status = result.GameOverCode
		}
		fmt.Printf("[PLAY] session=%s %s->%s (%d,%d)->(%d,%d) len=%d food=%t status=%s\n",
			sessionID, st.Dir, st.Applied, st.From.X, st.From.Y, st.To.X, st.To.Y, st.Length, st.FoodAte, status)
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulkPlay(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Directions []string `json:"directions"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Directions) == 0 {
		respondError(w, http.StatusBadRequest, "directions are required")
		return
	}

	result, err := s.service.BulkPlay(r.Context(), sessionID, req.Directions)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	stop := result.StopReasonCode
	if stop == "" {
		stop = "none"
	}
	fmt.Printf("[BULK] session=%s exec=%d/%d stop=%s end=(%d,%d) len=%d score_delta=%d\n",
		sessionID, result.MovesExecuted, result.RequestedMoves, stop, result.EndHead.X, result.EndHead.Y, result.EndLength, result.ScoreDelta)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Game reset successfully",
		"state":   state,
	})
}

// Real-time Handlers

func (s *Server) handleSteer(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	direction, err := decodeDirection(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.service.Steer(r.Context(), sessionID, direction)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Start(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Stop(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// Level Handlers

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.service.ListLevels(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, levels)
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], level.Extension)

	detail, err := s.service.LoadLevel(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Plain text for editors and the level checker
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, detail.Text)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleSaveLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string   `json:"name"`
		Text string   `json:"text,omitempty"`
		Rows []string `json:"rows,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Level name is required")
		return
	}
	text := req.Text
	if text == "" && len(req.Rows) > 0 {
		text = strings.Join(req.Rows, "\n") + "\n"
	}
	if text == "" {
		respondError(w, http.StatusBadRequest, "Level text or rows are required")
		return
	}

	info, err := s.service.SaveLevel(r.Context(), req.Name, text)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Level saved successfully",
		"level_id": info.LevelID,
		"level":    info,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "WebSocket not available", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	// Verify session exists
	if _, err := s.service.GetSession(context.Background(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
