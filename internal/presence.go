package internal

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Session is one connected participant. The registry hands out value
// copies; the pointer it keeps internally never leaves this file.
type Session struct {
	ID          string    `json:"socketId"`
	Username    string    `json:"username"`
	Avatar      string    `json:"avatar"`
	CurrentRoom string    `json:"currentRoom"`
	Online      bool      `json:"online"`
	LastSeen    time.Time `json:"lastSeen"`
}

// Registry owns the set of active sessions and enforces username
// uniqueness (case-sensitive). All methods are safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	usernames   map[string]string // username -> session id
	defaultRoom string
}

func NewRegistry(defaultRoom string) *Registry {
	if defaultRoom == "" {
		defaultRoom = "global"
	}
	return &Registry{
		sessions:    make(map[string]*Session),
		usernames:   make(map[string]string),
		defaultRoom: defaultRoom,
	}
}

// DefaultRoom is the room every freshly registered session starts in.
func (r *Registry) DefaultRoom() string {
	return r.defaultRoom
}

// Register inserts a new session. The username check and the insert run
// under one lock so two connections can never race into the same name.
func (r *Registry) Register(sessionID, username, avatar string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.usernames[username]; taken {
		return Session{}, fmt.Errorf("%w: %q", ErrUsernameTaken, username)
	}
	session := &Session{
		ID:          sessionID,
		Username:    username,
		Avatar:      avatar,
		CurrentRoom: r.defaultRoom,
		Online:      true,
		LastSeen:    time.Now(),
	}
	r.sessions[sessionID] = session
	r.usernames[username] = sessionID
	return *session, nil
}

// Unregister removes a session and releases its username for reuse.
func (r *Registry) Unregister(sessionID string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, notFound("session", sessionID)
	}
	delete(r.usernames, session.Username)
	delete(r.sessions, sessionID)
	session.Online = false
	session.LastSeen = time.Now()
	return *session, nil
}

// Get returns the session for a transport id.
func (r *Registry) Get(sessionID string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, notFound("session", sessionID)
	}
	return *session, nil
}

// GetByUsername resolves a username to its live session.
func (r *Registry) GetByUsername(username string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.usernames[username]
	if !ok {
		return Session{}, notFound("user", username)
	}
	return *r.sessions[id], nil
}

// SetRoom moves a session to a room. Idempotent when already there.
func (r *Registry) SetRoom(sessionID, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return notFound("session", sessionID)
	}
	if session.CurrentRoom == room {
		return nil
	}
	session.CurrentRoom = room
	session.LastSeen = time.Now()
	return nil
}

// ListOnline returns a username-ordered snapshot of online sessions.
// A non-empty roomFilter restricts the listing to that room.
func (r *Registry) ListOnline(roomFilter string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		if roomFilter != "" && session.CurrentRoom != roomFilter {
			continue
		}
		sessions = append(sessions, *session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Username < sessions[j].Username
	})
	return sessions
}
