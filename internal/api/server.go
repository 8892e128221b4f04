// Package api serves the simulation state over HTTP for rendering consumers.
// Every endpoint is read-only; live state comes from a Hub the runner
// publishes into, so no handler touches the environment directly.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/talgya/surf-world/internal/env"
	"github.com/talgya/surf-world/internal/ocean"
	"github.com/talgya/surf-world/internal/persistence"
)

const (
	maxStreamConns   = 8
	defaultListLimit = 20
	maxListLimit     = 500
	writeWait        = 5 * time.Second
)

// Server serves the latest snapshot, the depth grid and recorded episodes.
type Server struct {
	Hub     *Hub
	Depth   *ocean.DepthField
	DB      *persistence.DB // nil disables the episode endpoints
	Port    int
	Origins []string // extra CORS origins; localhost dev servers are always allowed

	streamConns int32
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	dbLimiter := NewRateLimiter(120, time.Minute)

	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	v1.HandleFunc("/depth", s.handleDepth).Methods(http.MethodGet)
	v1.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	v1.HandleFunc("/totals", RateLimitMiddleware(dbLimiter, s.handleTotals)).Methods(http.MethodGet)
	v1.HandleFunc("/episodes", RateLimitMiddleware(dbLimiter, s.handleEpisodes)).Methods(http.MethodGet)
	v1.HandleFunc("/episodes/{id}", RateLimitMiddleware(dbLimiter, s.handleEpisode)).Methods(http.MethodGet)

	return corsMiddleware(s.Origins)(r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "db", s.DB != nil)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		slog.Info("HTTP API stopped")
		return nil
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
func corsMiddleware(extra []string) func(http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range extra {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed[origin] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Hub.Stats()
	status := map[string]any{
		"name":        "surfsim",
		"episodes":    st.Episodes,
		"steps":       st.Steps,
		"subscribers": st.Subscribers,
		"dropped":     st.Dropped,
		"streams":     atomic.LoadInt32(&s.streamConns),
	}
	if snap, ok := s.Hub.Latest(); ok {
		status["episode"] = snap.Episode
		status["step"] = snap.Step
		status["time"] = snap.Time
		status["mode"] = snap.Surfer.Mode
	}
	if st.LastEpisode != nil {
		status["last_episode"] = st.LastEpisode
	}
	writeJSON(w, status)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.Hub.Latest()
	if !ok {
		http.Error(w, "no state published yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	if s.Depth == nil {
		http.Error(w, "depth field not available", http.StatusServiceUnavailable)
		return
	}
	width, length := s.Depth.Dimensions()
	writeJSON(w, map[string]any{
		"rows":      s.Depth.Rows(),
		"cols":      s.Depth.Cols(),
		"cell_size": s.Depth.CellSize(),
		"width":     width,
		"length":    length,
		"stats":     s.Depth.Summary(),
		"grid":      s.Depth.Samples(),
	})
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	eps, err := s.DB.RecentEpisodes(limit)
	if err != nil {
		slog.Error("list episodes failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if eps == nil {
		eps = []env.Summary{}
	}
	writeJSON(w, eps)
}

func (s *Server) handleEpisode(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	id := mux.Vars(r)["id"]

	sum, err := s.DB.Episode(id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "episode not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("episode lookup failed", "episode", id, "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	events, err := s.DB.EpisodeEvents(id)
	if err != nil {
		slog.Error("episode events failed", "episode", id, "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []env.Event{}
	}

	writeJSON(w, map[string]any{
		"summary": sum,
		"events":  events,
	})
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	t, err := s.DB.Totals()
	if err != nil {
		slog.Error("totals failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, t)
}

// handleStream upgrades to a websocket and pushes one JSON snapshot per
// published step, starting with the latest one.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := atomic.AddInt32(&s.streamConns, 1)
	defer atomic.AddInt32(&s.streamConns, -1)
	if current > maxStreamConns {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	subID, ch := s.Hub.Subscribe()
	defer s.Hub.Unsubscribe(subID)
	slog.Info("stream client connected", "sub_id", subID)

	// The read loop is what notices a client-side close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if snap, ok := s.Hub.Latest(); ok {
		if err := writeFrame(conn, snap); err != nil {
			return
		}
	}

	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if err := writeFrame(conn, snap); err != nil {
				slog.Debug("stream write failed", "sub_id", subID, "error", err)
				return
			}
		case <-closed:
			slog.Info("stream client disconnected", "sub_id", subID)
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, snap env.Snapshot) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(snap)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
