package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadServerConfig()
	req.NoError(err)
	req.Equal(":8080", cfg.Addr)
	req.Equal("/ws", cfg.WSPath)
	req.Equal("global", cfg.DefaultRoom)
	req.Equal(100, cfg.HistoryLimit)
	req.Equal(50, cfg.HistoryFetch)
	req.Equal(time.Second, cfg.TypingTimeout)
	req.Equal(30*time.Second, cfg.TypingSweep)
	req.Equal(1000, cfg.MaxMessageLength)
	req.Equal("reader", cfg.ReadReceiptTarget)
	req.Equal(5, cfg.RateLimitBurst)
	req.Equal(3*time.Second, cfg.RateLimitWindow)
}

func TestLoadServerConfigFromEnvironment(t *testing.T) {
	req := require.New(t)
	t.Setenv("CHATWIRE_ADDR", ":9090")
	t.Setenv("CHATWIRE_DEFAULT_ROOM", "lobby")
	t.Setenv("CHATWIRE_HISTORY_LIMIT", "25")
	t.Setenv("CHATWIRE_TYPING_TIMEOUT", "2s")
	t.Setenv("CHATWIRE_READ_RECEIPT_TARGET", "sender")

	cfg, err := LoadServerConfig()
	req.NoError(err)
	req.Equal(":9090", cfg.Addr)
	req.Equal("lobby", cfg.DefaultRoom)
	req.Equal(25, cfg.HistoryLimit)
	req.Equal(2*time.Second, cfg.TypingTimeout)
	req.Equal("sender", cfg.ReadReceiptTarget)
}

func TestLoadServerConfigRejectsBadValues(t *testing.T) {
	req := require.New(t)
	t.Setenv("CHATWIRE_HISTORY_LIMIT", "not-a-number")

	_, err := LoadServerConfig()
	req.Error(err)
}
