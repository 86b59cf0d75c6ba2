package internal

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

type Metrics struct {
	auths       atomic.Uint64
	intents     atomic.Uint64
	messages    atomic.Uint64
	errors      atomic.Uint64
	activeConns atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncAuth() {
	m.auths.Add(1)
}

func (m *Metrics) IncIntent() {
	m.intents.Add(1)
}

func (m *Metrics) IncMessage() {
	m.messages.Add(1)
}

func (m *Metrics) IncError() {
	m.errors.Add(1)
}

func (m *Metrics) IncConn() {
	m.activeConns.Add(1)
}

func (m *Metrics) DecConn() {
	m.activeConns.Add(-1)
}

func (m *Metrics) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{
		"auths_total":        m.auths.Load(),
		"intents_total":      m.intents.Load(),
		"messages_total":     m.messages.Load(),
		"errors_total":       m.errors.Load(),
		"active_connections": m.activeConns.Load(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
