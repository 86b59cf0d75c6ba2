package internal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(0)

	stored := log.Append(Message{Sender: "alice", Content: "hi", Room: "global"})
	req.NotEmpty(stored.ID)
	req.False(stored.CreatedAt.IsZero())
	req.Equal(KindText, stored.Kind)

	found, err := log.FindByID("global", stored.ID)
	req.NoError(err)
	req.Equal(stored.Content, found.Content)
	req.Equal(stored.Sender, found.Sender)
	req.Equal(stored.Room, found.Room)
}

func TestAppendEvictsOldestBeyondCap(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(3)

	first := log.Append(Message{Sender: "alice", Content: "msg 0", Room: "global"})
	for i := 1; i <= 3; i++ {
		log.Append(Message{Sender: "alice", Content: fmt.Sprintf("msg %d", i), Room: "global"})
	}

	recent := log.Recent("global", 3, 0)
	req.Len(recent, 3)
	for _, msg := range recent {
		req.NotEqual(first.ID, msg.ID)
	}
	_, err := log.FindByID("global", first.ID)
	req.ErrorIs(err, ErrNotFound)
}

func TestRecentOrderingAndOffset(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(10)

	for i := 0; i < 5; i++ {
		log.Append(Message{Sender: "alice", Content: fmt.Sprintf("msg %d", i), Room: "global"})
	}

	newest := log.Recent("global", 2, 0)
	req.Len(newest, 2)
	req.Equal("msg 4", newest[0].Content)
	req.Equal("msg 3", newest[1].Content)

	offset := log.Recent("global", 2, 1)
	req.Len(offset, 2)
	req.Equal("msg 3", offset[0].Content)
	req.Equal("msg 2", offset[1].Content)

	req.Empty(log.Recent("unknown-room", 10, 0))
}

func TestAddReactionIsIdempotent(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(10)
	stored := log.Append(Message{Sender: "bob", Content: "nice", Room: "global"})

	_, err := log.AddReaction("global", stored.ID, "alice", "👍")
	req.NoError(err)
	msg, err := log.AddReaction("global", stored.ID, "alice", "👍")
	req.NoError(err)
	req.Equal([]string{"alice"}, msg.Reactions["👍"])

	msg, err = log.AddReaction("global", stored.ID, "carol", "👍")
	req.NoError(err)
	req.Equal([]string{"alice", "carol"}, msg.Reactions["👍"])

	_, err = log.AddReaction("global", "missing-id", "alice", "👍")
	req.ErrorIs(err, ErrNotFound)
}

func TestMarkReadExcludesSender(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(10)
	stored := log.Append(Message{Sender: "alice", Content: "hello", Room: "global"})

	msg, err := log.MarkRead("global", stored.ID, "alice")
	req.NoError(err)
	req.Empty(msg.ReadBy)

	_, err = log.MarkRead("global", stored.ID, "bob")
	req.NoError(err)
	msg, err = log.MarkRead("global", stored.ID, "bob")
	req.NoError(err)
	req.Equal([]string{"bob"}, msg.ReadBy)

	_, err = log.MarkRead("global", "missing-id", "bob")
	req.ErrorIs(err, ErrNotFound)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(2)

	target := log.Append(Message{Sender: "alice", Content: "Hello World", Room: "global"})
	log.Append(Message{Sender: "bob", Content: "unrelated", Room: "global"})

	results := log.Search("global", "hello")
	req.Len(results, 1)
	req.Equal(target.ID, results[0].ID)

	// pushing the message past the cap removes it from search results.
	log.Append(Message{Sender: "bob", Content: "filler", Room: "global"})
	req.Empty(log.Search("global", "hello"))

	req.Empty(log.Search("unknown-room", "hello"))
}

func TestSearchPreservesStoredOrder(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(10)
	log.Append(Message{Sender: "alice", Content: "hello once", Room: "global"})
	log.Append(Message{Sender: "alice", Content: "nope", Room: "global"})
	log.Append(Message{Sender: "alice", Content: "hello twice", Room: "global"})

	results := log.Search("global", "hello")
	req.Len(results, 2)
	req.Equal("hello once", results[0].Content)
	req.Equal("hello twice", results[1].Content)
}

func TestPrivateMessagesShareOneConversation(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(10)

	fromAlice := log.Append(Message{Sender: "alice", Content: "psst", IsPrivate: true, Recipient: "bob"})
	fromBob := log.Append(Message{Sender: "bob", Content: "what", IsPrivate: true, Recipient: "alice"})

	key := ConversationKey("bob", "alice")
	req.Equal(key, ConversationKey("alice", "bob"))
	req.Equal(key, fromAlice.Room)
	req.Equal(key, fromBob.Room)

	history := log.Recent(key, 10, 0)
	req.Len(history, 2)
}

func TestConversationKeyHelpers(t *testing.T) {
	req := require.New(t)
	req.True(IsConversationKey("dm:alice|bob"))
	req.False(IsConversationKey("global"))

	a, b, ok := ConversationParticipants("dm:alice|bob")
	req.True(ok)
	req.Equal("alice", a)
	req.Equal("bob", b)

	_, _, ok = ConversationParticipants("global")
	req.False(ok)
}

func TestReturnedMessagesAreCopies(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(10)
	stored := log.Append(Message{Sender: "alice", Content: "hi", Room: "global"})

	// mutating a returned message must not leak into the log.
	found, err := log.FindByID("global", stored.ID)
	req.NoError(err)
	found.Reactions["💥"] = []string{"mallory"}
	found.ReadBy = append(found.ReadBy, "mallory")

	clean, err := log.FindByID("global", stored.ID)
	req.NoError(err)
	req.Empty(clean.Reactions)
	req.Empty(clean.ReadBy)
}
