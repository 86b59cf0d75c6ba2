package internal

import "time"

// Outbound event names, one per gateway effect. The set is closed: the
// gateway never emits anything outside this list.
const (
	EventAuthenticated     = "authenticated"
	EventAuthError         = "auth_error"
	EventUserJoined        = "user_joined"
	EventOnlineUsers       = "online_users"
	EventMessageHistory    = "message_history"
	EventNewMessage        = "new_message"
	EventMessageSent       = "message_sent"
	EventUserTyping        = "user_typing"
	EventUserStoppedTyping = "user_stopped_typing"
	EventRoomJoined        = "room_joined"
	EventUserJoinedRoom    = "user_joined_room"
	EventUserLeftRoom      = "user_left_room"
	EventReactionAdded     = "reaction_added"
	EventMessageRead       = "message_read"
	EventSearchResults     = "search_results"
	EventUserLeft          = "user_left"
	EventError             = "error"
)

// Event is the outbound envelope written to a session's transport.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// EventSink is the transport seam: the gateway computes who should see
// an event and hands delivery off to whatever implements this.
type EventSink interface {
	Emit(sessionID string, event Event)
}

// Per-event payload shapes. These mirror the public projections of
// Session and Message; nothing internal leaks through them.

type UserJoinedPayload struct {
	Username  string    `json:"username"`
	SessionID string    `json:"socketId"`
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
}

type MessageHistoryPayload struct {
	Room     string    `json:"room"`
	Messages []Message `json:"messages"`
}

type RoomJoinedPayload struct {
	Room string `json:"room"`
}

type TypingPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

type ReactionAddedPayload struct {
	MessageID string              `json:"messageId"`
	Room      string              `json:"room"`
	Reaction  string              `json:"reaction"`
	Username  string              `json:"user"`
	Reactions map[string][]string `json:"reactions"`
}

type MessageReadPayload struct {
	MessageID string   `json:"messageId"`
	Room      string   `json:"room"`
	Reader    string   `json:"reader"`
	ReadBy    []string `json:"readBy"`
}

type SearchResultsPayload struct {
	Room    string    `json:"room"`
	Query   string    `json:"query"`
	Results []Message `json:"results"`
}

type UserLeftPayload struct {
	Username  string    `json:"username"`
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func errorEvent(err error) Event {
	return Event{Name: EventError, Data: ErrorPayload{Kind: ErrorKind(err), Message: err.Error()}}
}
