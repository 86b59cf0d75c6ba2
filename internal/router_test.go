package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newPopulatedRouter(t *testing.T) (*RoomRouter, *Registry) {
	t.Helper()
	registry := NewRegistry("global")
	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := registry.Register("s-"+name, name, "")
		require.NoError(t, err)
	}
	return NewRoomRouter(registry), registry
}

func TestJoinReturnsPreviousRoom(t *testing.T) {
	req := require.New(t)
	router, registry := newPopulatedRouter(t)

	previous, err := router.Join("s-alice", "tech")
	req.NoError(err)
	req.Equal("global", previous)

	session, err := registry.Get("s-alice")
	req.NoError(err)
	req.Equal("tech", session.CurrentRoom)

	// joining the current room again acks without moving
	previous, err = router.Join("s-alice", "tech")
	req.NoError(err)
	req.Equal("tech", previous)

	_, err = router.Join("ghost", "tech")
	req.ErrorIs(err, ErrNotFound)
}

func TestLeaveReturnsToDefaultRoom(t *testing.T) {
	req := require.New(t)
	router, registry := newPopulatedRouter(t)

	_, err := router.Join("s-alice", "tech")
	req.NoError(err)

	// leaving a room the session is not in changes nothing
	req.NoError(router.Leave("s-alice", "music"))
	session, err := registry.Get("s-alice")
	req.NoError(err)
	req.Equal("tech", session.CurrentRoom)

	req.NoError(router.Leave("s-alice", "tech"))
	session, err = registry.Get("s-alice")
	req.NoError(err)
	req.Equal("global", session.CurrentRoom)

	req.ErrorIs(router.Leave("ghost", "tech"), ErrNotFound)
}

func TestRoomTargetsIncludeSender(t *testing.T) {
	req := require.New(t)
	router, _ := newPopulatedRouter(t)

	_, err := router.Join("s-carol", "tech")
	req.NoError(err)

	targets := router.RoomTargets("global")
	req.Len(targets, 2)
	req.Equal("alice", targets[0].Username)
	req.Equal("bob", targets[1].Username)
}

func TestRoomTargetsResolveConversationKeys(t *testing.T) {
	req := require.New(t)
	router, registry := newPopulatedRouter(t)

	// participants get the message no matter which room they sit in
	_, err := router.Join("s-bob", "tech")
	req.NoError(err)

	targets := router.RoomTargets(ConversationKey("alice", "bob"))
	req.Len(targets, 2)

	_, err = registry.Unregister("s-bob")
	req.NoError(err)
	targets = router.RoomTargets(ConversationKey("alice", "bob"))
	req.Len(targets, 1)
	req.Equal("alice", targets[0].Username)
}

func TestPrivateTargetsRequireOnlineRecipient(t *testing.T) {
	req := require.New(t)
	router, _ := newPopulatedRouter(t)

	session, err := router.PrivateTargets("bob")
	req.NoError(err)
	req.Equal("s-bob", session.ID)

	_, err = router.PrivateTargets("nobody")
	req.ErrorIs(err, ErrRecipientOffline)
}
