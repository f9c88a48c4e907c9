// Command stacktower starts the Stack Tower game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server, reusing a running API or starting an internal one
//
// Flags control host/port, the preset directory, log level, the auto-tick
// frame rate and an optional ngrok tunnel for external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/stacktower/api"
	"github.com/wricardo/stacktower/game/config"
	"github.com/wricardo/stacktower/game/service"
	"github.com/wricardo/stacktower/game/session"
	"github.com/wricardo/stacktower/logging"
	"github.com/wricardo/stacktower/transport/mcp"
	"github.com/wricardo/stacktower/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Stack Tower Server"
)

const (
	defaultPort       = 8080
	defaultHost       = "localhost"
	defaultConfigDir  = "configs"
	defaultFrameRate  = 60
	defaultSessionTTL = 24 * time.Hour
	cleanupInterval   = time.Hour
)

// tunnelEnv holds ngrok settings read from the environment
type tunnelEnv struct {
	Enabled bool `env:"NGROK_ENABLED"`
	// AuthToken is the ngrok token from NGROK_AUTHTOKEN.
	AuthToken string `env:"NGROK_AUTHTOKEN"`
	// AuthTokenAlt accepts the underscored NGROK_AUTH_TOKEN spelling.
	AuthTokenAlt string `env:"NGROK_AUTH_TOKEN"`
	Domain       string `env:"NGROK_DOMAIN"`
}

func (t tunnelEnv) token() string {
	if t.AuthToken != "" {
		return t.AuthToken
	}
	return t.AuthTokenAlt
}

// app bundles the wired services shared by every mode
type app struct {
	logger   *slog.Logger
	sessions *session.Manager
	service  service.GameService
	registry *prometheus.Registry
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "stacktower",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: defaultPort, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: defaultHost, Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "config-dir", Value: defaultConfigDir, Usage: "Directory containing game presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.IntFlag{Name: "frame-rate", Value: defaultFrameRate, Usage: "Ticks per second for auto-tick sessions (0 disables)", Sources: cli.EnvVars("FRAME_RATE")},
			&cli.DurationFlag{Name: "session-ttl", Value: defaultSessionTTL, Usage: "Idle time before a session is removed", Sources: cli.EnvVars("SESSION_TTL")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel (or NGROK_ENABLED)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (or NGROK_DOMAIN)"},
		},
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  runServerCommand,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server backed by the HTTP API",
				Action:  runStdioCommand,
			},
		},
	}
}

// initializeServices wires session/config managers, metrics and the game service
func initializeServices(configDir string, logger *slog.Logger) (*app, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sessionManager := session.NewManager(logger)
	gameService := service.NewGameService(sessionManager, configManager,
		service.WithLogger(logger),
		service.WithMetrics(service.NewMetrics(registry)),
	)

	logger.Info("services initialized", "config_dir", configDir, "presets", configManager.Count())

	return &app{
		logger:   logger,
		sessions: sessionManager,
		service:  gameService,
		registry: registry,
	}, nil
}

func setup(cmd *cli.Command) (*app, error) {
	logger := logging.NewLogger(os.Stderr, logging.ParseLevel(cmd.String("log-level")))
	return initializeServices(cmd.String("config-dir"), logger)
}

// startBackground runs the hub and the housekeeping routines until ctx is done
func (rt *app) startBackground(ctx context.Context, wg *sync.WaitGroup, hub *websocket.Hub, frameRate int, ttl time.Duration) {
	wg.Add(3)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, rt.sessions, ttl, rt.logger)
	}()
	go func() {
		defer wg.Done()
		frameRoutine(ctx, rt.service, hub, frameRate)
	}()
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	logger := rt.logger
	logger.Info("starting", "app", AppName, "version", Version, "mode", "server")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	hub := websocket.NewHub(logger)
	rt.startBackground(ctx, &wg, hub, cmd.Int("frame-rate"), cmd.Duration("session-ttl"))

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	handler := newHTTPHandler(rt, hub, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		logger.Info("endpoints",
			"api", fmt.Sprintf("http://%s/api", addr),
			"websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr),
			"metrics", fmt.Sprintf("http://%s/metrics", addr))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	tunnel, err := env.ParseAs[tunnelEnv]()
	if err != nil {
		logger.Warn("failed to parse ngrok environment", "error", err)
	}
	if cmd.Bool("ngrok") {
		tunnel.Enabled = true
	}
	if d := cmd.String("ngrok-domain"); d != "" {
		tunnel.Domain = d
	}
	if tunnel.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runTunnel(ctx, tunnel, handler, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	wg.Wait()
	logger.Info("server stopped")
	return nil
}

// newHTTPHandler builds the API router with the /mcp endpoint mounted
func newHTTPHandler(rt *app, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(rt.service, hub,
		api.WithLogger(rt.logger),
		api.WithGatherer(rt.registry),
	)

	mcpClient := mcp.NewClient(baseURL)
	apiServer.Router().Handle("/mcp", mcpHandler(mcpClient.GetMCPServer())).Methods("POST")
	return apiServer
}

// mcpHandler serves single JSON-RPC messages over HTTP
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		if response == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runTunnel exposes handler through ngrok until ctx is done
func runTunnel(ctx context.Context, t tunnelEnv, handler http.Handler, logger *slog.Logger) {
	if t.token() == "" {
		logger.Warn("ngrok enabled but no auth token provided (set NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	logger.Info("starting ngrok tunnel")
	endpoint := ngrokConfig.HTTPEndpoint()
	if t.Domain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(t.Domain))
		logger.Info("using custom ngrok domain", "domain", t.Domain)
	}

	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(t.token()))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "error", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", "error", err)
		}
	}()

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established",
		"url", ngrokURL,
		"api", ngrokURL+"/api",
		"websocket", ngrokURL+"/ws?session=<session_id>",
		"mcp", ngrokURL+"/mcp")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				logger.Info("cleaned up expired sessions", "count", removed)
			}
		}
	}
}

// frameRoutine ticks auto-tick sessions at frameRate and pushes their state
// to watching WebSocket clients
func frameRoutine(ctx context.Context, svc service.GameService, hub *websocket.Hub, frameRate int) {
	if frameRate <= 0 {
		return
	}

	ticker := time.NewTicker(time.Second / time.Duration(frameRate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			tickFrame(ctx, svc, hub, now.Sub(last).Seconds())
			last = now
		}
	}
}

// tickFrame advances auto-tick sessions once and returns the IDs whose
// state was broadcast
func tickFrame(ctx context.Context, svc service.GameService, hub *websocket.Hub, deltaTime float64) []string {
	var sent []string
	for _, id := range svc.TickAutoSessions(ctx, deltaTime) {
		if hub == nil || !hub.HasClients(id) {
			continue
		}
		// Reading the state marks the session accessed, so watched
		// sessions outlive the TTL while unwatched ones expire.
		state, err := svc.GetGameState(ctx, id)
		if err != nil {
			continue
		}
		hub.BroadcastToSession(id, state)
		sent = append(sent, id)
	}
	return sent
}

func runStdioCommand(ctx context.Context, cmd *cli.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	logger := rt.logger
	logger.Info("starting", "app", AppName, "version", Version, "mode", "stdio-mcp")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	externalURL := fmt.Sprintf("http://%s:%d", cmd.String("host"), cmd.Int("port"))
	baseURL := externalURL

	var wg sync.WaitGroup
	defer wg.Wait()

	if apiAvailable(externalURL) {
		logger.Info("external API server found, using it for MCP", "url", externalURL)
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())

		hub := websocket.NewHub(logger)
		rt.startBackground(ctx, &wg, hub, cmd.Int("frame-rate"), cmd.Duration("session-ttl"))

		httpServer := &http.Server{Handler: newHTTPHandler(rt, hub, baseURL)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", "error", err)
			}
		}()
		defer httpServer.Close()

		logger.Info("internal HTTP server started", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", "api", baseURL)

	err = server.ServeStdio(mcpClient.GetMCPServer())
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a Stack Tower API answers at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
