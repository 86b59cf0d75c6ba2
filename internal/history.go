package internal

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Message kinds. Image messages carry an opaque attachment reference
// that the server never interprets.
const (
	KindText  = "text"
	KindImage = "image"
)

// Message is one chat or private message. Everything except Reactions
// and ReadBy is immutable after append.
type Message struct {
	ID            string              `json:"id"`
	Sender        string              `json:"sender"`
	Content       string              `json:"content"`
	CreatedAt     time.Time           `json:"timestamp"`
	Room          string              `json:"room"`
	Kind          string              `json:"type"`
	AttachmentRef string              `json:"fileUrl,omitempty"`
	IsPrivate     bool                `json:"isPrivate"`
	Recipient     string              `json:"recipient,omitempty"`
	Reactions     map[string][]string `json:"reactions"`
	ReadBy        []string            `json:"readBy"`
}

// clone deep-copies the mutable annotation fields so callers can never
// reach back into the log's own storage.
func (m *Message) clone() Message {
	out := *m
	out.Reactions = make(map[string][]string, len(m.Reactions))
	for symbol, users := range m.Reactions {
		out.Reactions[symbol] = append([]string(nil), users...)
	}
	out.ReadBy = append([]string(nil), m.ReadBy...)
	return out
}

// ConversationKey derives the history key for a private exchange from
// the unordered username pair, so both directions land in one log.
func ConversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "dm:" + a + "|" + b
}

// IsConversationKey reports whether a room key names a private
// conversation rather than a named room.
func IsConversationKey(room string) bool {
	return strings.HasPrefix(room, "dm:")
}

// ConversationParticipants returns the two usernames behind a dm key.
func ConversationParticipants(key string) (string, string, bool) {
	rest, ok := strings.CutPrefix(key, "dm:")
	if !ok {
		return "", "", false
	}
	a, b, ok := strings.Cut(rest, "|")
	return a, b, ok
}

// MessageLog keeps bounded per-room message history. Each room holds at
// most `limit` messages; appending beyond that evicts the oldest entry.
type MessageLog struct {
	mu    sync.Mutex
	rooms map[string][]*Message
	limit int
	now   func() time.Time
}

const DefaultHistoryLimit = 100

func NewMessageLog(limit int) *MessageLog {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MessageLog{
		rooms: make(map[string][]*Message),
		limit: limit,
		now:   time.Now,
	}
}

// Append stores a message, assigning its id and timestamp when absent.
// Private messages are keyed (and stamped) with the conversation key so
// later reaction/read/search calls can address them.
func (l *MessageLog) Append(m Message) Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = l.now()
	}
	if m.ID == "" {
		m.ID = newMessageID(m.CreatedAt)
	}
	if m.Kind == "" {
		m.Kind = KindText
	}
	if m.IsPrivate {
		m.Room = ConversationKey(m.Sender, m.Recipient)
	}
	if m.Reactions == nil {
		m.Reactions = make(map[string][]string)
	}
	if m.ReadBy == nil {
		m.ReadBy = []string{}
	}

	stored := m.clone()
	entries := append(l.rooms[m.Room], &stored)
	if len(entries) > l.limit {
		entries = entries[len(entries)-l.limit:]
	}
	l.rooms[m.Room] = entries
	return m
}

// Recent returns up to limit messages, newest first, skipping offset
// newest entries. Unknown rooms yield an empty slice.
func (l *MessageLog) Recent(room string, limit, offset int) []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.rooms[room]
	if limit <= 0 {
		limit = len(entries)
	}
	end := len(entries) - offset
	if end < 0 {
		end = 0
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	out := make([]Message, 0, end-start)
	for i := end - 1; i >= start; i-- {
		out = append(out, entries[i].clone())
	}
	return out
}

// FindByID looks a message up under its room (or conversation) key.
func (l *MessageLog) FindByID(room, id string) (Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg, err := l.find(room, id)
	if err != nil {
		return Message{}, err
	}
	return msg.clone(), nil
}

// AddReaction records username under the reaction symbol. Reacting
// twice with the same symbol is a no-op.
func (l *MessageLog) AddReaction(room, id, username, symbol string) (Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg, err := l.find(room, id)
	if err != nil {
		return Message{}, err
	}
	users := msg.Reactions[symbol]
	for _, u := range users {
		if u == username {
			return msg.clone(), nil
		}
	}
	msg.Reactions[symbol] = append(users, username)
	return msg.clone(), nil
}

// MarkRead adds username to the read set. The sender never appears in
// its own message's ReadBy.
func (l *MessageLog) MarkRead(room, id, username string) (Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg, err := l.find(room, id)
	if err != nil {
		return Message{}, err
	}
	if username == msg.Sender {
		return msg.clone(), nil
	}
	for _, u := range msg.ReadBy {
		if u == username {
			return msg.clone(), nil
		}
	}
	msg.ReadBy = append(msg.ReadBy, username)
	return msg.clone(), nil
}

// Search scans a room's history for a case-insensitive content
// substring, preserving stored (oldest-first) order.
func (l *MessageLog) Search(room, query string) []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	needle := strings.ToLower(query)
	return lo.FilterMap(l.rooms[room], func(msg *Message, _ int) (Message, bool) {
		if !strings.Contains(strings.ToLower(msg.Content), needle) {
			return Message{}, false
		}
		return msg.clone(), true
	})
}

func (l *MessageLog) find(room, id string) (*Message, error) {
	for _, msg := range l.rooms[room] {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, notFound("message", id)
}

// newMessageID builds a time-prefixed id so ids sort chronologically;
// the uuid suffix disambiguates messages created in the same millisecond.
func newMessageID(at time.Time) string {
	return fmt.Sprintf("%d-%s", at.UnixMilli(), uuid.NewString()[:8])
}
