package main

import (
	"flag"
	"fmt"
	"os"

	"chatwire/internal/app"
)

func main() {
	defaultServer := envOrDefault("CHATWIRE_SERVER", "ws://localhost:8080/ws")
	defaultUser := envOrDefault("CHATWIRE_USER", "")

	serverURL := flag.String("server", defaultServer, "WebSocket URL (e.g., ws://localhost:8080/ws)")
	username := flag.String("user", defaultUser, "username to authenticate with")
	flag.Parse()

	args := flag.Args()
	var room string
	if len(args) >= 1 {
		room = args[0]
	}

	cfg := app.ClientConfig{
		ServerURL: *serverURL,
		Username:  *username,
		Room:      room,
	}

	if err := app.RunClient(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
