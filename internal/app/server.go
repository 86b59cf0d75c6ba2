package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	intrnl "chatwire/internal"
)

// ServerHandle represents a running HTTP/WebSocket server instance.
type ServerHandle struct {
	addr   string
	server *http.Server
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Addr returns the actual listen address (after the OS allocated a port).
func (h *ServerHandle) Addr() string {
	return h.addr
}

// Stop triggers a graceful shutdown with the provided context deadline.
func (h *ServerHandle) Stop(ctx context.Context) error {
	if h == nil || h.server == nil {
		return nil
	}
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	h.cancel()
	return h.server.Shutdown(ctx)
}

// Wait blocks until the server exits.
func (h *ServerHandle) Wait() error {
	if h == nil {
		return nil
	}
	<-h.done
	return h.err
}

// RunServer wires the registry, message log, typing tracker, router and
// gateway together, registers routes, and starts serving in the
// background. Call Stop/Wait to manage its lifecycle.
func RunServer(ctx context.Context, cfg ServerConfig, log *slog.Logger) (*ServerHandle, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.WSPath == "" {
		cfg.WSPath = "/ws"
	}

	metrics := intrnl.NewMetrics()
	hub := intrnl.NewHub(metrics, log)
	registry := intrnl.NewRegistry(cfg.DefaultRoom)
	history := intrnl.NewMessageLog(cfg.HistoryLimit)
	typing := intrnl.NewTypingTracker(cfg.TypingTimeout)
	router := intrnl.NewRoomRouter(registry)
	limiter := intrnl.NewRateLimiter(cfg.RateLimitBurst, cfg.RateLimitWindow)
	gateway := intrnl.NewGateway(registry, history, typing, router, hub, limiter, metrics, log, intrnl.GatewayConfig{
		DefaultRoom:       cfg.DefaultRoom,
		HistoryFetch:      cfg.HistoryFetch,
		MaxMessageLength:  cfg.MaxMessageLength,
		ReadReceiptTarget: cfg.ReadReceiptTarget,
	})
	server := intrnl.NewServer(hub, gateway, metrics)

	routes := mux.NewRouter()
	routes.HandleFunc(cfg.WSPath, server.ServeWS)
	routes.HandleFunc("/healthz", server.HandleHealth).Methods(http.MethodGet)
	routes.HandleFunc("/rooms", server.HandleRooms).Methods(http.MethodGet)
	routes.HandleFunc("/typing", server.HandleTyping).Methods(http.MethodGet)
	routes.Handle("/metrics", server.MetricsHandler()).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: routes,
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)

	handle := &ServerHandle{
		addr:   listener.Addr().String(),
		server: httpServer,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	// periodic typing sweep, purely for memory hygiene.
	if cfg.TypingSweep > 0 {
		go func() {
			ticker := time.NewTicker(cfg.TypingSweep)
			defer ticker.Stop()
			for {
				select {
				case <-runCtx.Done():
					return
				case <-ticker.C:
					typing.Sweep()
				}
			}
		}()
	}

	go func() {
		<-runCtx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server shutdown error", "err", err)
		}
	}()

	go handle.serve(listener)

	return handle, nil
}

func (h *ServerHandle) serve(listener net.Listener) {
	defer close(h.done)
	err := h.server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	h.err = err
}
