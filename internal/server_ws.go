package internal

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 8192
)

// Hub tracks every live websocket session by its transport-assigned id
// and delivers outbound events to them. It is the EventSink the gateway
// broadcasts through.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	metrics *Metrics
	log     *slog.Logger
}

func NewHub(metrics *Metrics, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Hub{clients: make(map[string]*Client), metrics: metrics, log: log}
}

// Emit marshals an event onto the session's send queue. A session that
// cannot keep up gets its queue closed, which tears the connection down
// in writePump.
func (hub *Hub) Emit(sessionID string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		hub.log.Error("event marshal failed", "event", event.Name, "err", err)
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	client, ok := hub.clients[sessionID]
	if !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
		close(client.send)
		delete(hub.clients, sessionID)
	}
}

func (hub *Hub) add(client *Client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.clients[client.sessionID] = client
}

func (hub *Hub) remove(sessionID string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if client, ok := hub.clients[sessionID]; ok {
		delete(hub.clients, sessionID)
		close(client.send)
	}
}

// ActiveConnections reports the number of live sessions.
func (hub *Hub) ActiveConnections() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.clients)
}

// Client wraps a single websocket connection and its buffered send queue.
type Client struct {
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// all origins are allowed in development; tighten this when the
		// server is exposed publicly.
		return true
	},
}

// ServeWS upgrades the request, assigns the session id, and starts the
// read/write pumps. Everything after the upgrade speaks the intent and
// event envelopes.
func ServeWS(hub *Hub, gateway *Gateway, writer http.ResponseWriter, request *http.Request) {
	websocketConn, err := upgrader.Upgrade(writer, request, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	client := &Client{
		sessionID: uuid.NewString(),
		conn:      websocketConn,
		send:      make(chan []byte, 256),
	}
	hub.add(client)
	hub.metrics.IncConn()
	hub.log.Info("session connected", "session", client.sessionID, "remote", request.RemoteAddr)

	go client.writePump()
	go client.readPump(hub, gateway)
}

func (client *Client) readPump(hub *Hub, gateway *Gateway) {
	defer func() {
		gateway.Disconnect(client.sessionID)
		hub.remove(client.sessionID)
		hub.metrics.DecConn()
		_ = client.conn.Close()
	}()
	client.conn.SetReadLimit(maxMsgSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			// normal close or read error, deferred cleanup runs.
			break
		}
		var intent Intent
		if err := json.Unmarshal(payload, &intent); err != nil || intent.Name == "" {
			hub.Emit(client.sessionID, Event{Name: EventError, Data: ErrorPayload{Kind: "validation", Message: "malformed intent envelope"}})
			continue
		}
		gateway.HandleIntent(client.sessionID, intent)
	}
}

func (client *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()
	for {
		select {
		case message, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
