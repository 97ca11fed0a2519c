// Package api provides the HTTP REST API and WebSocket server for Show Logic Core.
//
// It exposes action management, manual and remote activation, the running
// set, the trigger history and operator notifications to control surfaces
// (the show editor, stage tablets, stream decks).
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/show-logic-core/internal/action"
	"github.com/nerrad567/show-logic-core/internal/audit"
	"github.com/nerrad567/show-logic-core/internal/dispatch"
	"github.com/nerrad567/show-logic-core/internal/infrastructure/config"
	"github.com/nerrad567/show-logic-core/internal/infrastructure/logging"
	"github.com/nerrad567/show-logic-core/internal/notify"
	"github.com/nerrad567/show-logic-core/internal/showstate"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// WebSocket broadcast channels.
const (
	ChannelRunning = "actions.running"
	ChannelHistory = "actions.history"
	ChannelToast   = "toast"

	relayBuffer = 16
)

// MQTTClient is the part of *mqtt.Client the server uses.
type MQTTClient interface {
	PublishJSON(topic string, v any, retained bool) error
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Registry *action.Registry
	Engine   *action.Engine
	Triggers *dispatch.Table
	Namer    *action.Namer
	Notices  *notify.Center
	State    *showstate.Store
	MQTT     MQTTClient       // optional; slide edits are not published without it
	Audit    audit.Repository // optional; action edits are not audited without it
	Version  string
}

// Server is the HTTP API server for Show Logic Core.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	registry  *action.Registry
	engine    *action.Engine
	triggers  *dispatch.Table
	namer     *action.Namer
	notices   *notify.Center
	state     *showstate.Store
	mqtt      MQTTClient
	audit     audit.Repository
	version   string
	server    *http.Server
	hub       *Hub
	tickets   *ticketStore
	startTime time.Time
	cancel    context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("action registry is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("action engine is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		registry:  deps.Registry,
		engine:    deps.Engine,
		triggers:  deps.Triggers,
		namer:     deps.Namer,
		notices:   deps.Notices,
		state:     deps.State,
		mqtt:      deps.MQTT,
		audit:     deps.Audit,
		version:   deps.Version,
		tickets:   newTicketStore(),
		startTime: time.Now(),
	}
	if s.namer == nil {
		var source action.NameSource
		if deps.State != nil {
			source = deps.State
		}
		s.namer = action.NewNamer(source, deps.Registry)
	}
	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, relays engine and notification changes to
// WebSocket clients, and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	s.hub.SetSnapshot(s.channelSnapshot)
	go s.hub.Run(srvCtx)
	go s.tickets.cleanLoop(srvCtx)
	s.relayEvents(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// relayEvents forwards running-set, history and notification changes to
// WebSocket subscribers until ctx is cancelled.
func (s *Server) relayEvents(ctx context.Context) {
	running, stopRunning := s.engine.Running().Subscribe(relayBuffer)
	history, stopHistory := s.engine.History().Subscribe(relayBuffer)

	var toasts <-chan []string
	stopToasts := func() {}
	if s.notices != nil {
		toasts, stopToasts = s.notices.Subscribe(relayBuffer)
	}

	go func() {
		defer stopRunning()
		defer stopHistory()
		defer stopToasts()

		for {
			select {
			case <-ctx.Done():
				return
			case ids := <-running:
				s.hub.Broadcast(ChannelRunning, map[string]any{"running": ids})
			case entries := <-history:
				s.hub.Broadcast(ChannelHistory, map[string]any{"history": entries})
			case pending := <-toasts:
				s.hub.Broadcast(ChannelToast, map[string]any{"pending": pending})
			}
		}
	}()
}

// channelSnapshot returns the current payload of a broadcast channel.
func (s *Server) channelSnapshot(channel string) (any, bool) {
	switch channel {
	case ChannelRunning:
		return map[string]any{"running": s.engine.Running().Snapshot()}, true
	case ChannelHistory:
		return map[string]any{"history": s.engine.History().Entries()}, true
	case ChannelToast:
		if s.notices == nil {
			return nil, false
		}
		return map[string]any{"pending": s.notices.Pending()}, true
	}
	return nil, false
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
