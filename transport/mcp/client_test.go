package mcp

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/stacktower/game/engine"
	"github.com/wricardo/stacktower/game/service"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func sampleState() *engine.StackState {
	e := engine.NewEngineWithDefaults()
	e.Tick(0.3)
	return e.GetState().Clone()
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080/"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}
	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "ab12"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api/sessions/ab12", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "ab12" {
		t.Errorf("Expected id ab12, got %v", response["id"])
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://invalid-url-that-does-not-exist:9999")
		if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
			t.Error("Expected error for invalid URL")
		}
	})

	t.Run("plain status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error") {
			t.Errorf("Expected 'API error', got: %v", err)
		}
	})

	t.Run("json error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session zz: session not found"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || err.Error() != "session zz: session not found" {
			t.Errorf("Expected API message, got: %v", err)
		}
	})
}

func TestClient_createSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["config_id"] != "easy" || body["auto_tick"] != true {
			t.Errorf("Unexpected body %v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.SessionInfo{
			ID:         "ab12",
			ConfigName: "easy",
			AutoTick:   true,
			GameState:  sampleState(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(),
		callRequest("create_session", map[string]interface{}{"config_id": "easy", "auto_tick": true}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Session: ab12", "Config: easy", "Auto tick: true", "Score: 0"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_tickAndPlaceChunksTicks(t *testing.T) {
	var (
		mu     sync.Mutex
		deltas []float64
		placed bool
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/sessions/ab12/tick":
			var body struct {
				DeltaTime float64 `json:"delta_time"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			deltas = append(deltas, body.DeltaTime)
			json.NewEncoder(w).Encode(service.TickResult{Phase: 1})
		case "/api/sessions/ab12/place":
			placed = true
			json.NewEncoder(w).Encode(service.PlaceResult{
				Success: true,
				Outcome: engine.OutcomeSuccess,
				Score:   1,
				Message: "Perfect! Combo x1",
				Placement: &engine.PlacementEntry{
					Number: 1, Axis: engine.AxisX, Result: engine.ResultHit,
				},
			})
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleTickAndPlace(context.Background(),
		callRequest("tick_and_place", map[string]interface{}{"session_id": "ab12", "seconds": 2.5}))
	if err != nil {
		t.Fatalf("tick_and_place failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "✓ Placed") || !strings.Contains(text, "Result: hit") {
		t.Errorf("Unexpected result: %s", text)
	}

	mu.Lock()
	defer mu.Unlock()
	if !placed {
		t.Error("Expected place to be called")
	}
	expected := []float64{1, 1, 0.5}
	if len(deltas) != len(expected) {
		t.Fatalf("Expected %d ticks, got %v", len(expected), deltas)
	}
	for i := range expected {
		if math.Abs(deltas[i]-expected[i]) > 1e-9 {
			t.Errorf("Tick %d: expected %v, got %v", i, expected[i], deltas[i])
		}
	}
}

func TestClient_tickRejectsBadSeconds(t *testing.T) {
	client := NewClient("http://localhost:1")

	for _, seconds := range []float64{-1, maxTickSeconds + 1} {
		result, err := client.handleTick(context.Background(),
			callRequest("tick", map[string]interface{}{"session_id": "ab12", "seconds": seconds}))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !result.IsError {
			t.Errorf("Expected tool error for seconds=%v", seconds)
		}
	}
}

func TestClient_placementHistoryQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "5" || q.Get("order") != "asc" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(service.HistoryResponse{
			Placements: []engine.PlacementEntry{
				{Number: 6, Layer: 6, Axis: engine.AxisZ, Result: engine.ResultCut, Delta: -4.5,
					Bounds: engine.Bounds{Width: 70, Depth: 65.5}},
			},
			TotalPlacements: 6,
			Page:            2,
			TotalPages:      2,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handlePlacementHistory(context.Background(), callRequest("placement_history",
		map[string]interface{}{"session_id": "ab12", "page": 2.0, "limit": 5.0, "order": "asc"}))
	if err != nil {
		t.Fatalf("placement_history failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Page 2/2, Total: 6") || !strings.Contains(text, "#6 layer 6 z: cut offset -4.50") {
		t.Errorf("Unexpected history: %s", text)
	}
}

func TestClient_tileColor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/colors/9" || r.URL.Query().Get("config") != "hard" {
			t.Errorf("Unexpected request %s", r.URL.String())
		}
		json.NewEncoder(w).Encode(service.ColorInfo{Score: 9, ConfigID: "hard", Hex: "#123456"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleTileColor(context.Background(),
		callRequest("tile_color", map[string]interface{}{"score": 9.0, "config_id": "hard"}))
	if err != nil {
		t.Fatalf("tile_color failed: %v", err)
	}
	if text := resultText(t, result); text != "Score 9 in hard: #123456" {
		t.Errorf("Unexpected text %q", text)
	}
}

func TestFormatGameState(t *testing.T) {
	state := sampleState()
	result := formatGameState(state)

	for _, field := range []string{"Score: 0", "Combo: 0", "Swing axis: x", "Current offset on x"} {
		if !strings.Contains(result, field) {
			t.Errorf("Expected field '%s' in formatted output, got: %s", field, result)
		}
	}

	state.GameOver = true
	if !strings.Contains(formatGameState(state), "GAME OVER") {
		t.Error("Expected GAME OVER banner")
	}

	if formatGameState(nil) != "No game state available\n" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestSecondsToAlign(t *testing.T) {
	cfg := engine.DefaultConfig()

	e, err := engine.NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.Tick(0.4)

	wait, ok := secondsToAlign(e.GetState(), cfg)
	if !ok {
		t.Fatal("Expected an alignment time")
	}
	if wait < 0 || wait >= 2*math.Pi/cfg.OscillationSpeed {
		t.Fatalf("Wait %v outside one swing period", wait)
	}

	// Waiting exactly that long lines the tile up with the one below
	e.Tick(wait)
	state := e.GetState()
	offset := state.LastTile.Center.Along(state.Axis) - state.ActiveTile().Center.Along(state.Axis)
	if math.Abs(offset) > 1e-6 {
		t.Errorf("Expected alignment after waiting, offset %v", offset)
	}

	noSpeed := *cfg
	noSpeed.OscillationSpeed = 0
	if _, ok := secondsToAlign(state, &noSpeed); ok {
		t.Error("Frozen swing should never align")
	}
}

func TestFormatPlaceResult_GameOver(t *testing.T) {
	result := formatPlaceResult(&service.PlaceResult{
		Outcome: engine.OutcomeGameOver,
		Score:   12,
		Message: "Game over! Final score: 12",
	})

	if !strings.Contains(result, "✗ Missed") || !strings.Contains(result, "Final score: 12") {
		t.Errorf("Unexpected output: %s", result)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callRequest("game_instructions", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{"Stack Tower - Complete Instructions", "GAME OBJECTIVE:", "TIMING:", "error_margin"} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}
