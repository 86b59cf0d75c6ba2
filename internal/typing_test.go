package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock lets the tests advance time without sleeping.
type fakeClock struct {
	at time.Time
}

func (c *fakeClock) now() time.Time          { return c.at }
func (c *fakeClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func newTrackedClock(timeout time.Duration) (*TypingTracker, *fakeClock) {
	tracker := NewTypingTracker(timeout)
	clock := &fakeClock{at: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)}
	tracker.now = clock.now
	return tracker, clock
}

func TestStartRefreshesExpiry(t *testing.T) {
	req := require.New(t)
	tracker, clock := newTrackedClock(time.Second)

	tracker.Start("global", "alice")
	clock.advance(800 * time.Millisecond)
	tracker.Start("global", "alice")
	clock.advance(800 * time.Millisecond)

	req.Equal([]string{"alice"}, tracker.ActiveIn("global"))
}

func TestEntriesExpireLazily(t *testing.T) {
	req := require.New(t)
	tracker, clock := newTrackedClock(time.Second)

	tracker.Start("global", "alice")
	clock.advance(1100 * time.Millisecond)
	req.Empty(tracker.ActiveIn("global"))
}

func TestStopRemovesImmediately(t *testing.T) {
	req := require.New(t)
	tracker, _ := newTrackedClock(time.Second)

	tracker.Start("global", "alice")
	tracker.Stop("global", "alice")
	req.Empty(tracker.ActiveIn("global"))

	// stopping an absent entry is harmless
	tracker.Stop("global", "ghost")
	tracker.Stop("no-such-room", "alice")
}

func TestStopAllClearsEveryRoom(t *testing.T) {
	req := require.New(t)
	tracker, _ := newTrackedClock(time.Second)

	tracker.Start("global", "alice")
	tracker.Start("tech", "alice")
	tracker.Start("tech", "bob")

	tracker.StopAll("alice")
	req.Empty(tracker.ActiveIn("global"))
	req.Equal([]string{"bob"}, tracker.ActiveIn("tech"))
}

func TestActiveInSortsUsernames(t *testing.T) {
	req := require.New(t)
	tracker, _ := newTrackedClock(time.Second)

	tracker.Start("global", "carol")
	tracker.Start("global", "alice")
	tracker.Start("global", "bob")
	req.Equal([]string{"alice", "bob", "carol"}, tracker.ActiveIn("global"))
}

func TestSweepDropsOnlyExpired(t *testing.T) {
	req := require.New(t)
	tracker, clock := newTrackedClock(time.Second)

	tracker.Start("global", "alice")
	clock.advance(900 * time.Millisecond)
	tracker.Start("global", "bob")
	clock.advance(200 * time.Millisecond)

	tracker.Sweep()
	req.Equal([]string{"bob"}, tracker.ActiveIn("global"))
}
