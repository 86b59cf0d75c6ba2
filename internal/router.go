package internal

import "fmt"

// RoomRouter coordinates room membership on top of the registry and
// computes broadcast target sets. Membership is derived state: a session
// is in exactly the room its registry entry names.
type RoomRouter struct {
	registry *Registry
}

func NewRoomRouter(registry *Registry) *RoomRouter {
	return &RoomRouter{registry: registry}
}

// Join moves a session into a room and returns the room it came from.
// Joining the room the session is already in is a no-op ack.
func (rt *RoomRouter) Join(sessionID, room string) (previous string, err error) {
	session, err := rt.registry.Get(sessionID)
	if err != nil {
		return "", err
	}
	if err := rt.registry.SetRoom(sessionID, room); err != nil {
		return "", err
	}
	return session.CurrentRoom, nil
}

// Leave drops the session out of a room, returning it to the default
// room. With the one-room-per-session model an explicit leave of any
// other room does nothing.
func (rt *RoomRouter) Leave(sessionID, room string) error {
	session, err := rt.registry.Get(sessionID)
	if err != nil {
		return err
	}
	if session.CurrentRoom != room {
		return nil
	}
	return rt.registry.SetRoom(sessionID, rt.registry.DefaultRoom())
}

// MembersOf lists the sessions currently in a room.
func (rt *RoomRouter) MembersOf(room string) []Session {
	return rt.registry.ListOnline(room)
}

// RoomTargets is the broadcast set for a room message. Echo is enabled:
// the sender is part of its own room and receives its own message once.
// A dm conversation key resolves to whichever of the two participants
// is online, regardless of the room they sit in.
func (rt *RoomRouter) RoomTargets(room string) []Session {
	if a, b, ok := ConversationParticipants(room); ok {
		var targets []Session
		for _, username := range []string{a, b} {
			if session, err := rt.registry.GetByUsername(username); err == nil {
				targets = append(targets, session)
			}
		}
		return targets
	}
	return rt.registry.ListOnline(room)
}

// PrivateTargets resolves the single recipient session for a private
// message. Delivery is keyed by identity, not room membership.
func (rt *RoomRouter) PrivateTargets(recipient string) (Session, error) {
	session, err := rt.registry.GetByUsername(recipient)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %q", ErrRecipientOffline, recipient)
	}
	return session, nil
}
