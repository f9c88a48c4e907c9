package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/stacktower/game/engine"
	"github.com/wricardo/stacktower/game/service"
)

const (
	// maxTickChunk matches the largest delta the REST tick endpoint accepts
	maxTickChunk = 1.0

	// maxTickSeconds bounds how far tick_and_place may advance in one call
	maxTickSeconds = 60.0
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Stack Tower",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Stack Tower - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Stack as many layers as possible. A tile swings back and forth along one axis above the tower;
place it while it lines up with the tile below. Overhang is cut away and the footprint shrinks.
When a tile misses completely the game is over.

AVAILABLE TOOLS:
- create_session: Create new game session
- list_sessions / get_session: Inspect sessions
- game_state: Current tower state, including how long to wait for perfect alignment
- tick: Advance the swing clock by some seconds
- place: Drop the swinging tile where it is
- tick_and_place: Advance the clock, then drop the tile
- reset_game: Start a new tower
- placement_history: View past placements
- list_configs: List available presets
- tile_color: Color a preset gives a tile at a given score
- game_instructions: Full rules`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional preset selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use (optional, see list_configs)",
				},
				"auto_tick": map[string]interface{}{
					"type":        "boolean",
					"description": "Let the server advance the swing in real time (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current tower state and an alignment hint for the swinging tile",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tick",
		Description: "Advance the session clock, moving the swinging tile",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"seconds": map[string]interface{}{
					"type":        "number",
					"description": "Seconds to advance (0 to 60)",
				},
			},
			Required: []string{"session_id", "seconds"},
		},
	}, c.handleTick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place",
		Description: "Drop the swinging tile onto the tower",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why now is the moment to drop",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before placing",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handlePlace)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tick_and_place",
		Description: "Advance the clock by some seconds, then drop the swinging tile",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"seconds": map[string]interface{}{
					"type":        "number",
					"description": "Seconds to advance before placing (0 to 60)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the chosen timing",
				},
			},
			Required: []string{"session_id", "seconds"},
		},
	}, c.handleTickAndPlace)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the tower to its initial state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "placement_history",
		Description: "Get placement history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handlePlacementHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tile_color",
		Description: "Get the color a preset assigns to a tile at a given score",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"score": map[string]interface{}{
					"type":        "integer",
					"description": "Score (layer) of the tile",
				},
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset (optional, defaults to the server default)",
				},
			},
			Required: []string{"score"},
		},
	}, c.handleTileColor)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)
	autoTick, _ := args["auto_tick"].(bool)

	body := map[string]interface{}{}
	if configID != "" {
		body["config_id"] = configID
	}
	if autoTick {
		body["auto_tick"] = true
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		score := 0
		if s.GameState != nil {
			score = s.GameState.Score()
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Score: %d, Created: %s)\n",
			s.ID, s.ConfigName, score, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	// The session carries the preset, which the alignment hint needs
	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatGameState(session.GameState)
	if hint := formatAlignmentHint(session.GameState, session.GameConfig); hint != "" {
		result += "\n" + hint
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	seconds, _ := args["seconds"].(float64)

	tick, err := c.advance(ctx, sessionID, seconds)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTickResult(tick)), nil
}

func (c *Client) handlePlace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	reset, _ := args["reset"].(bool)

	var result service.PlaceResult
	body := map[string]interface{}{"reset": reset}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/place"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlaceResult(&result)), nil
}

func (c *Client) handleTickAndPlace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	seconds, _ := args["seconds"].(float64)

	if _, err := c.advance(ctx, sessionID, seconds); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.PlaceResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/place"), map[string]interface{}{}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Advanced %.3fs, then placed.\n\n%s", seconds, formatPlaceResult(&result))), nil
}

// advance ticks a session in chunks the REST endpoint accepts
func (c *Client) advance(ctx context.Context, sessionID string, seconds float64) (*service.TickResult, error) {
	if seconds < 0 || seconds > maxTickSeconds || math.IsNaN(seconds) {
		return nil, fmt.Errorf("seconds must be between 0 and %g", maxTickSeconds)
	}

	var tick service.TickResult
	remaining := seconds
	for {
		step := math.Min(remaining, maxTickChunk)
		body := map[string]float64{"delta_time": step}
		if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/tick"), body, &tick); err != nil {
			return nil, err
		}
		remaining -= step
		if remaining <= 0 || tick.GameOver {
			return &tick, nil
		}
	}
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string             `json:"message"`
		State   *engine.StackState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handlePlacementHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Footprint: %.1f, Margin: %.1f, Combo threshold: %d, Capacity: %d\n\n",
			config.Name, config.ConfigID, config.Description,
			config.MaxBound, config.ErrorMargin, config.ComboThreshold, config.Capacity)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleTileColor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	score, ok := args["score"].(float64)
	if !ok || score < 0 {
		return mcp.NewToolResultError("score must be a non-negative integer"), nil
	}
	configID, _ := args["config_id"].(string)

	path := fmt.Sprintf("/api/colors/%d", int(score))
	if configID != "" {
		path += "?config=" + url.QueryEscape(configID)
	}

	var info service.ColorInfo
	if err := c.apiCall(ctx, "GET", path, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Score %d in %s: %s", info.Score, info.ConfigID, info.Hex)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Stack Tower - Complete Instructions

GAME OBJECTIVE:
Build the tallest tower you can. Every placed tile adds one layer and one point.

GAME MECHANICS:
• The active tile swings along one horizontal axis: position = sin(phase) * max_bound
• phase grows by oscillation_speed for every second ticked
• Each placement flips the swing axis between x and z
• Placing within error_margin of the tile below snaps it perfectly into place and builds a combo
• A longer combo than combo_threshold grows the footprint back by bounds_gain (never past max_bound)
• Otherwise the overhang is cut off as debris and the footprint shrinks by the offset
• Missing the tile below entirely ends the game

TIMING:
• game_state reports the seconds until the swinging tile lines up with the tile below
• tick_and_place with that value gives a perfect placement
• The swing repeats every 2π / oscillation_speed seconds

TOOLS:
• create_session → game_state → tick_and_place, repeat
• placement_history shows every hit, cut and growth
• reset_game starts over on the same preset

Good luck building!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nConfig: %s\nAuto tick: %v\nCreated: %s\n",
		session.ID, session.ConfigName, session.AutoTick, session.CreatedAt.Format(time.RFC3339))
	if session.GameState != nil {
		b.WriteString("\n")
		b.WriteString(formatGameState(session.GameState))
	}
	return b.String()
}

func formatGameState(state *engine.StackState) string {
	if state == nil || len(state.Tiles) == 0 {
		return "No game state available\n"
	}

	active := state.ActiveTile()
	var b strings.Builder
	if state.GameOver {
		fmt.Fprintf(&b, "GAME OVER - final score %d\n", state.Score())
	}
	fmt.Fprintf(&b, "Score: %d\nCombo: %d\n", state.Score(), state.Combo)
	fmt.Fprintf(&b, "Footprint: %.2f x %.2f\n", state.Bounds.Width, state.Bounds.Depth)
	fmt.Fprintf(&b, "Swing axis: %s (phase %.3f)\n", state.Axis, state.Phase)
	fmt.Fprintf(&b, "Active tile: x=%.2f z=%.2f\n", active.Center.X, active.Center.Z)
	fmt.Fprintf(&b, "Tile below: x=%.2f z=%.2f\n", state.LastTile.Center.X, state.LastTile.Center.Z)
	if !state.GameOver {
		fmt.Fprintf(&b, "Current offset on %s: %.2f\n",
			state.Axis, state.LastTile.Center.Along(state.Axis)-active.Center.Along(state.Axis))
	}
	return b.String()
}

// formatAlignmentHint reports how long until the swinging tile is centered
// over the tile below
func formatAlignmentHint(state *engine.StackState, cfg *engine.Config) string {
	if state == nil || cfg == nil || state.GameOver {
		return ""
	}
	wait, ok := secondsToAlign(state, cfg)
	if !ok {
		return "The swing never lines up exactly; place when the offset is smallest.\n"
	}
	return fmt.Sprintf("Perfect alignment in %.3fs (use tick_and_place with seconds=%.3f)\n", wait, wait)
}

// secondsToAlign returns the smallest non-negative wait after which
// sin(phase)*MaxBound equals the tile below on the swing axis
func secondsToAlign(state *engine.StackState, cfg *engine.Config) (float64, bool) {
	if cfg.OscillationSpeed <= 0 || cfg.MaxBound <= 0 {
		return 0, false
	}
	target := state.LastTile.Center.Along(state.Axis) / cfg.MaxBound
	if target < -1 || target > 1 {
		return 0, false
	}

	a := math.Asin(target)
	best := math.Inf(1)
	for _, root := range []float64{a, math.Pi - a} {
		d := math.Mod(root-state.Phase, 2*math.Pi)
		if d < 0 {
			d += 2 * math.Pi
		}
		best = math.Min(best, d)
	}
	return best / cfg.OscillationSpeed, true
}

func formatTickResult(tick *service.TickResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase: %.3f\nActive tile: x=%.2f z=%.2f\n", tick.Phase, tick.ActiveTile.Center.X, tick.ActiveTile.Center.Z)
	if tick.GameOver {
		b.WriteString("Game is over; the tile no longer moves.\n")
	}
	return b.String()
}

func formatPlaceResult(result *service.PlaceResult) string {
	var b strings.Builder
	if result.Outcome == engine.OutcomeGameOver {
		b.WriteString("✗ Missed\n")
	} else {
		b.WriteString("✓ Placed\n")
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}
	fmt.Fprintf(&b, "Score: %d\nCombo: %d\nFootprint: %.2f x %.2f\n",
		result.Score, result.Combo, result.Bounds.Width, result.Bounds.Depth)
	if p := result.Placement; p != nil {
		fmt.Fprintf(&b, "Result: %s (offset %.2f on %s)\n", p.Result, p.Delta, p.Axis)
	}
	for _, ev := range result.Events {
		if ev.Type == service.EventDebris {
			fmt.Fprintf(&b, "Debris: %s\n", ev.Message)
		}
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Placement History (Page %d/%d, Total: %d):\n\n",
		history.Page, history.TotalPages, history.TotalPlacements)

	for _, p := range history.Placements {
		fmt.Fprintf(&b, "#%d layer %d %s: %s offset %.2f → %.2f x %.2f (combo %d)\n",
			p.Number, p.Layer, p.Axis, p.Result, p.Delta, p.Bounds.Width, p.Bounds.Depth, p.Combo)
	}

	if history.HasNext {
		b.WriteString("\nMore placements available on the next page.\n")
	}
	return b.String()
}
