package app

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ServerConfig defines how the chat backend runs. Every field can be
// set through the environment with the CHATWIRE_ prefix.
type ServerConfig struct {
	Addr              string        `envconfig:"ADDR" default:":8080"`
	WSPath            string        `envconfig:"WS_PATH" default:"/ws"`
	DefaultRoom       string        `envconfig:"DEFAULT_ROOM" default:"global"`
	HistoryLimit      int           `envconfig:"HISTORY_LIMIT" default:"100"`
	HistoryFetch      int           `envconfig:"HISTORY_FETCH" default:"50"`
	TypingTimeout     time.Duration `envconfig:"TYPING_TIMEOUT" default:"1s"`
	TypingSweep       time.Duration `envconfig:"TYPING_SWEEP" default:"30s"`
	MaxMessageLength  int           `envconfig:"MAX_MESSAGE_LENGTH" default:"1000"`
	ReadReceiptTarget string        `envconfig:"READ_RECEIPT_TARGET" default:"reader"`
	RateLimitBurst    int           `envconfig:"RATE_LIMIT_BURST" default:"5"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"3s"`
}

// ClientConfig defines the parameters the TUI client needs.
type ClientConfig struct {
	ServerURL string
	Username  string
	Room      string
}

// LoadServerConfig reads the server configuration from the environment.
func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	err := envconfig.Process("chatwire", &cfg)
	return cfg, err
}
