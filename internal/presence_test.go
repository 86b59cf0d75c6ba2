package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterEnforcesUniqueUsernames(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry("global")

	session, err := registry.Register("s1", "alice", "")
	req.NoError(err)
	req.Equal("alice", session.Username)
	req.Equal("global", session.CurrentRoom)
	req.True(session.Online)

	_, err = registry.Register("s2", "alice", "")
	req.ErrorIs(err, ErrUsernameTaken)

	// usernames are case-sensitive, so Alice is a different user.
	_, err = registry.Register("s2", "Alice", "")
	req.NoError(err)
}

func TestUnregisterReleasesUsername(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry("global")

	_, err := registry.Register("s1", "alice", "")
	req.NoError(err)

	session, err := registry.Unregister("s1")
	req.NoError(err)
	req.Equal("alice", session.Username)
	req.False(session.Online)

	_, err = registry.Unregister("s1")
	req.ErrorIs(err, ErrNotFound)

	_, err = registry.Register("s2", "alice", "")
	req.NoError(err)
}

func TestLookups(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry("global")

	_, err := registry.Register("s1", "alice", "avatar-ref")
	req.NoError(err)

	byID, err := registry.Get("s1")
	req.NoError(err)
	req.Equal("alice", byID.Username)
	req.Equal("avatar-ref", byID.Avatar)

	byName, err := registry.GetByUsername("alice")
	req.NoError(err)
	req.Equal("s1", byName.ID)

	_, err = registry.Get("nope")
	req.ErrorIs(err, ErrNotFound)
	_, err = registry.GetByUsername("bob")
	req.ErrorIs(err, ErrNotFound)
}

func TestSetRoomIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry("global")

	_, err := registry.Register("s1", "alice", "")
	req.NoError(err)
	req.NoError(registry.SetRoom("s1", "tech"))
	req.NoError(registry.SetRoom("s1", "tech"))

	session, err := registry.Get("s1")
	req.NoError(err)
	req.Equal("tech", session.CurrentRoom)

	req.ErrorIs(registry.SetRoom("ghost", "tech"), ErrNotFound)
}

func TestListOnlineSortsAndFilters(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry("global")

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := registry.Register("s-"+name, name, "")
		req.NoError(err)
	}
	req.NoError(registry.SetRoom("s-bob", "tech"))

	all := registry.ListOnline("")
	req.Len(all, 3)
	req.Equal([]string{all[0].Username, all[1].Username, all[2].Username}, []string{"alice", "bob", "carol"})

	tech := registry.ListOnline("tech")
	req.Len(tech, 1)
	req.Equal("bob", tech[0].Username)

	req.Empty(registry.ListOnline("empty-room"))
}
