package internal

import (
	"encoding/json"
	"net/http"
)

// Server bundles the pieces the HTTP surface needs. The websocket
// endpoint carries all chat traffic; these handlers only expose
// read-only operational views.
type Server struct {
	hub     *Hub
	gateway *Gateway
	metrics *Metrics
}

func NewServer(hub *Hub, gateway *Gateway, metrics *Metrics) *Server {
	return &Server{hub: hub, gateway: gateway, metrics: metrics}
}

func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	ServeWS(s.hub, s.gateway, w, r)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": s.hub.ActiveConnections(),
	})
}

// HandleRooms lists rooms that currently have members, with counts.
func (s *Server) HandleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rooms": s.gateway.ActiveRooms()})
}

// HandleTyping exposes the live typing set for a room.
func (s *Server) HandleTyping(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"room": room, "typing": s.gateway.TypingIn(room)})
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
