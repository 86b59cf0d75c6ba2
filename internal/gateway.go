package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// Read receipt delivery targets, selectable via configuration because
// the product behavior is still undecided.
const (
	ReadReceiptToReader = "reader"
	ReadReceiptToSender = "sender"
)

// GatewayConfig carries the knobs the gateway honors at runtime.
type GatewayConfig struct {
	DefaultRoom       string
	HistoryFetch      int    // messages sent with message_history
	MaxMessageLength  int    // content bound in characters
	ReadReceiptTarget string // ReadReceiptToReader or ReadReceiptToSender
}

func (c *GatewayConfig) applyDefaults() {
	if c.DefaultRoom == "" {
		c.DefaultRoom = "global"
	}
	if c.HistoryFetch <= 0 {
		c.HistoryFetch = 50
	}
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = 1000
	}
	if c.ReadReceiptTarget == "" {
		c.ReadReceiptTarget = ReadReceiptToReader
	}
}

// Gateway is the single entry point for inbound intents. It validates
// against the registry, mutates the log / tracker / router, and emits
// outbound events through the sink. A gateway-wide mutex serializes
// intent handling so no handler ever observes another's partial state.
type Gateway struct {
	mu       sync.Mutex
	registry *Registry
	history  *MessageLog
	typing   *TypingTracker
	router   *RoomRouter
	sink     EventSink
	limiter  *RateLimiter
	metrics  *Metrics
	validate *validator.Validate
	log      *slog.Logger
	cfg      GatewayConfig
}

func NewGateway(registry *Registry, history *MessageLog, typing *TypingTracker, router *RoomRouter, sink EventSink, limiter *RateLimiter, metrics *Metrics, log *slog.Logger, cfg GatewayConfig) *Gateway {
	cfg.applyDefaults()
	if log == nil {
		log = slog.Default()
	}
	if limiter == nil {
		limiter = NewRateLimiter(defaultRateLimitBurst, defaultRateLimitWindow)
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Gateway{
		registry: registry,
		history:  history,
		typing:   typing,
		router:   router,
		sink:     sink,
		limiter:  limiter,
		metrics:  metrics,
		validate: newIntentValidator(),
		log:      log,
		cfg:      cfg,
	}
}

// HandleIntent processes one inbound intent to completion. Failures are
// reported only to the originating session; internal faults are caught
// here and never propagate into the transport loop.
func (g *Gateway) HandleIntent(sessionID string, intent Intent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("intent handler panic", "intent", intent.Name, "session", sessionID, "panic", r)
			g.metrics.IncError()
			g.sink.Emit(sessionID, Event{Name: EventError, Data: ErrorPayload{Kind: "internal", Message: "internal error"}})
		}
	}()
	g.metrics.IncIntent()

	var err error
	switch intent.Name {
	case IntentAuthenticate:
		err = g.handleAuthenticate(sessionID, intent.Data)
	case IntentSendMessage:
		err = g.handleSendMessage(sessionID, intent.Data)
	case IntentTypingStart:
		err = g.handleTyping(sessionID, intent.Data, true)
	case IntentTypingStop:
		err = g.handleTyping(sessionID, intent.Data, false)
	case IntentJoinRoom:
		err = g.handleJoinRoom(sessionID, intent.Data)
	case IntentLeaveRoom:
		err = g.handleLeaveRoom(sessionID, intent.Data)
	case IntentAddReaction:
		err = g.handleAddReaction(sessionID, intent.Data)
	case IntentMarkRead:
		err = g.handleMarkRead(sessionID, intent.Data)
	case IntentSearchMessages:
		err = g.handleSearch(sessionID, intent.Data)
	default:
		err = fmt.Errorf("%w: unknown intent %q", ErrValidation, intent.Name)
	}

	if err != nil {
		g.metrics.IncError()
		g.log.Warn("intent rejected", "intent", intent.Name, "session", sessionID, "kind", ErrorKind(err), "err", err)
		if intent.Name == IntentAuthenticate {
			g.sink.Emit(sessionID, Event{Name: EventAuthError, Data: ErrorPayload{Kind: ErrorKind(err), Message: err.Error()}})
			return
		}
		g.sink.Emit(sessionID, errorEvent(err))
	}
}

// Disconnect tears a session down: registry removal, typing cleanup,
// and the departure broadcasts. Safe to call for unregistered sessions.
func (g *Gateway) Disconnect(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	session, err := g.registry.Unregister(sessionID)
	if err != nil {
		return // never authenticated, nothing to announce
	}
	g.typing.StopAll(session.Username)
	g.limiter.Forget(sessionID)
	g.log.Info("session disconnected", "session", sessionID, "username", session.Username)

	left := UserLeftPayload{Username: session.Username, Room: session.CurrentRoom, Timestamp: time.Now()}
	for _, member := range g.router.MembersOf(session.CurrentRoom) {
		g.sink.Emit(member.ID, Event{Name: EventUserLeft, Data: left})
	}
	online := g.registry.ListOnline("")
	for _, target := range online {
		g.sink.Emit(target.ID, Event{Name: EventOnlineUsers, Data: online})
	}
}

func (g *Gateway) handleAuthenticate(sessionID string, raw json.RawMessage) error {
	payload, err := decodeIntent[AuthenticatePayload](g.validate, raw)
	if err != nil {
		return err
	}
	avatar := payload.Avatar
	if avatar == "" {
		avatar = defaultAvatarRef(payload.Username)
	}
	session, err := g.registry.Register(sessionID, payload.Username, avatar)
	if err != nil {
		return err
	}
	g.metrics.IncAuth()
	g.log.Info("session authenticated", "session", sessionID, "username", session.Username)

	g.sink.Emit(sessionID, Event{Name: EventAuthenticated, Data: session})
	joined := UserJoinedPayload{Username: session.Username, SessionID: sessionID, Room: session.CurrentRoom, Timestamp: time.Now()}
	for _, member := range g.router.MembersOf(session.CurrentRoom) {
		if member.ID == sessionID {
			continue
		}
		g.sink.Emit(member.ID, Event{Name: EventUserJoined, Data: joined})
	}
	g.sink.Emit(sessionID, Event{Name: EventOnlineUsers, Data: g.registry.ListOnline("")})
	g.emitHistory(sessionID, session.CurrentRoom)
	return nil
}

func (g *Gateway) handleSendMessage(sessionID string, raw json.RawMessage) error {
	sender, err := g.registry.Get(sessionID)
	if err != nil {
		return ErrNotAuthenticated
	}
	payload, err := decodeIntent[SendMessagePayload](g.validate, raw)
	if err != nil {
		return err
	}
	if strings.TrimSpace(payload.Content) == "" && payload.AttachmentRef == "" {
		return fmt.Errorf("%w: message needs content or an attachment", ErrValidation)
	}
	if len([]rune(payload.Content)) > g.cfg.MaxMessageLength {
		return fmt.Errorf("%w: content exceeds %d characters", ErrValidation, g.cfg.MaxMessageLength)
	}
	if !g.limiter.Allow(sessionID) {
		return fmt.Errorf("%w: slow down", ErrRateLimited)
	}

	msg := Message{
		Sender:        sender.Username,
		Content:       payload.Content,
		Room:          payload.Room,
		Kind:          payload.Kind,
		AttachmentRef: payload.AttachmentRef,
		IsPrivate:     payload.IsPrivate,
		Recipient:     payload.Recipient,
	}

	if payload.IsPrivate {
		// Resolve the recipient before touching the log so an offline
		// recipient leaves no trace behind.
		recipient, err := g.router.PrivateTargets(payload.Recipient)
		if err != nil {
			return err
		}
		stored := g.history.Append(msg)
		g.metrics.IncMessage()
		g.typing.Stop(sender.CurrentRoom, sender.Username)
		g.sink.Emit(recipient.ID, Event{Name: EventNewMessage, Data: stored})
		g.sink.Emit(sessionID, Event{Name: EventMessageSent, Data: stored})
		return nil
	}

	if msg.Room == "" {
		msg.Room = sender.CurrentRoom
	}
	stored := g.history.Append(msg)
	g.metrics.IncMessage()
	g.typing.Stop(stored.Room, sender.Username)
	for _, target := range g.router.RoomTargets(stored.Room) {
		g.sink.Emit(target.ID, Event{Name: EventNewMessage, Data: stored})
	}
	return nil
}

func (g *Gateway) handleTyping(sessionID string, raw json.RawMessage, start bool) error {
	session, err := g.registry.Get(sessionID)
	if err != nil {
		return ErrNotAuthenticated
	}
	payload, err := decodeIntent[TypingPayloadIn](g.validate, raw)
	if err != nil {
		return err
	}
	room := payload.Room
	if room == "" {
		room = session.CurrentRoom
	}
	name := EventUserStoppedTyping
	if start {
		g.typing.Start(room, session.Username)
		name = EventUserTyping
	} else {
		g.typing.Stop(room, session.Username)
	}
	data := TypingPayload{Username: session.Username, Room: room}
	for _, member := range g.router.MembersOf(room) {
		if member.ID == sessionID {
			continue
		}
		g.sink.Emit(member.ID, Event{Name: name, Data: data})
	}
	return nil
}

func (g *Gateway) handleJoinRoom(sessionID string, raw json.RawMessage) error {
	session, err := g.registry.Get(sessionID)
	if err != nil {
		return ErrNotAuthenticated
	}
	payload, err := decodeIntent[JoinRoomPayload](g.validate, raw)
	if err != nil {
		return err
	}
	previous, err := g.router.Join(sessionID, payload.Room)
	if err != nil {
		return err
	}
	g.sink.Emit(sessionID, Event{Name: EventRoomJoined, Data: RoomJoinedPayload{Room: payload.Room}})
	if previous != payload.Room {
		joined := UserJoinedPayload{Username: session.Username, SessionID: sessionID, Room: payload.Room, Timestamp: time.Now()}
		for _, member := range g.router.MembersOf(payload.Room) {
			if member.ID == sessionID {
				continue
			}
			g.sink.Emit(member.ID, Event{Name: EventUserJoinedRoom, Data: joined})
		}
	}
	g.emitHistory(sessionID, payload.Room)
	return nil
}

func (g *Gateway) handleLeaveRoom(sessionID string, raw json.RawMessage) error {
	session, err := g.registry.Get(sessionID)
	if err != nil {
		return ErrNotAuthenticated
	}
	payload, err := decodeIntent[LeaveRoomPayload](g.validate, raw)
	if err != nil {
		return err
	}
	if err := g.router.Leave(sessionID, payload.Room); err != nil {
		return err
	}
	left := UserLeftPayload{Username: session.Username, Room: payload.Room, Timestamp: time.Now()}
	for _, member := range g.router.MembersOf(payload.Room) {
		if member.ID == sessionID {
			continue
		}
		g.sink.Emit(member.ID, Event{Name: EventUserLeftRoom, Data: left})
	}
	if session.CurrentRoom == payload.Room {
		g.sink.Emit(sessionID, Event{Name: EventRoomJoined, Data: RoomJoinedPayload{Room: g.registry.DefaultRoom()}})
		g.emitHistory(sessionID, g.registry.DefaultRoom())
	}
	return nil
}

func (g *Gateway) handleAddReaction(sessionID string, raw json.RawMessage) error {
	session, err := g.registry.Get(sessionID)
	if err != nil {
		return ErrNotAuthenticated
	}
	payload, err := decodeIntent[ReactionPayload](g.validate, raw)
	if err != nil {
		return err
	}
	msg, err := g.history.AddReaction(payload.Room, payload.MessageID, session.Username, payload.Reaction)
	if err != nil {
		return err
	}
	data := ReactionAddedPayload{
		MessageID: msg.ID,
		Room:      payload.Room,
		Reaction:  payload.Reaction,
		Username:  session.Username,
		Reactions: msg.Reactions,
	}
	for _, target := range g.router.RoomTargets(payload.Room) {
		g.sink.Emit(target.ID, Event{Name: EventReactionAdded, Data: data})
	}
	return nil
}

func (g *Gateway) handleMarkRead(sessionID string, raw json.RawMessage) error {
	session, err := g.registry.Get(sessionID)
	if err != nil {
		return ErrNotAuthenticated
	}
	payload, err := decodeIntent[MarkReadPayload](g.validate, raw)
	if err != nil {
		return err
	}
	msg, err := g.history.MarkRead(payload.Room, payload.MessageID, session.Username)
	if err != nil {
		return err
	}
	data := MessageReadPayload{MessageID: msg.ID, Room: payload.Room, Reader: session.Username, ReadBy: msg.ReadBy}
	target := sessionID
	if g.cfg.ReadReceiptTarget == ReadReceiptToSender {
		if senderSession, err := g.registry.GetByUsername(msg.Sender); err == nil {
			target = senderSession.ID
		}
	}
	g.sink.Emit(target, Event{Name: EventMessageRead, Data: data})
	return nil
}

func (g *Gateway) handleSearch(sessionID string, raw json.RawMessage) error {
	if _, err := g.registry.Get(sessionID); err != nil {
		return ErrNotAuthenticated
	}
	payload, err := decodeIntent[SearchPayload](g.validate, raw)
	if err != nil {
		return err
	}
	results := g.history.Search(payload.Room, payload.Query)
	g.sink.Emit(sessionID, Event{Name: EventSearchResults, Data: SearchResultsPayload{
		Room:    payload.Room,
		Query:   payload.Query,
		Results: results,
	}})
	return nil
}

// TypingIn exposes the current typing set of a room, used by the HTTP
// surface and handy for tests.
func (g *Gateway) TypingIn(room string) []string {
	return g.typing.ActiveIn(room)
}

// ActiveRooms lists rooms that currently have at least one member,
// with member counts, for the HTTP surface.
func (g *Gateway) ActiveRooms() map[string]int {
	sessions := g.registry.ListOnline("")
	counts := lo.CountValuesBy(sessions, func(s Session) string { return s.CurrentRoom })
	return counts
}

func (g *Gateway) emitHistory(sessionID, room string) {
	g.sink.Emit(sessionID, Event{Name: EventMessageHistory, Data: MessageHistoryPayload{
		Room:     room,
		Messages: g.history.Recent(room, g.cfg.HistoryFetch, 0),
	}})
}

func defaultAvatarRef(username string) string {
	return "https://ui-avatars.com/api/?name=" + username + "&background=random"
}
