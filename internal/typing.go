package internal

import (
	"sort"
	"sync"
	"time"
)

// DefaultTypingTimeout is how long a typing signal stays visible
// without a refresh.
const DefaultTypingTimeout = time.Second

// TypingTracker keeps short-lived per-room "who is typing" state.
// Entries expire lazily; Sweep exists only for memory hygiene and is
// never required for correctness.
type TypingTracker struct {
	mu      sync.Mutex
	rooms   map[string]map[string]time.Time // room -> username -> expiry
	timeout time.Duration
	now     func() time.Time
}

func NewTypingTracker(timeout time.Duration) *TypingTracker {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	return &TypingTracker{
		rooms:   make(map[string]map[string]time.Time),
		timeout: timeout,
		now:     time.Now,
	}
}

// Start inserts or refreshes the typing entry for (room, username).
func (t *TypingTracker) Start(room, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	users, ok := t.rooms[room]
	if !ok {
		users = make(map[string]time.Time)
		t.rooms[room] = users
	}
	users[username] = t.now().Add(t.timeout)
}

// Stop removes the entry immediately. Stopping an absent entry is fine.
func (t *TypingTracker) Stop(room, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remove(room, username)
}

// StopAll clears the user's typing state in every room, used when a
// session disconnects.
func (t *TypingTracker) StopAll(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for room := range t.rooms {
		t.remove(room, username)
	}
}

// ActiveIn returns the usernames currently typing in a room, sorted.
// Expired entries are dropped on the way out.
func (t *TypingTracker) ActiveIn(room string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	var active []string
	for username, expiry := range t.rooms[room] {
		if expiry.After(now) {
			active = append(active, username)
		} else {
			t.remove(room, username)
		}
	}
	sort.Strings(active)
	return active
}

// Sweep drops every expired entry across all rooms.
func (t *TypingTracker) Sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for room, users := range t.rooms {
		for username, expiry := range users {
			if !expiry.After(now) {
				delete(users, username)
			}
		}
		if len(users) == 0 {
			delete(t.rooms, room)
		}
	}
}

func (t *TypingTracker) remove(room, username string) {
	users, ok := t.rooms[room]
	if !ok {
		return
	}
	delete(users, username)
	if len(users) == 0 {
		delete(t.rooms, room)
	}
}
