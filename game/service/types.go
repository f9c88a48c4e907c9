package service

import (
	"time"

	"github.com/wricardo/stacktower/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	AutoTick       bool               `json:"auto_tick"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.StackState `json:"game_state"`
	GameConfig     *engine.Config     `json:"game_config"`
}

// PlaceResult contains the result of a place operation
type PlaceResult struct {
	Success   bool                   `json:"success"`
	Outcome   engine.Outcome         `json:"outcome"`
	Score     int                    `json:"score"`
	Combo     int                    `json:"combo"`
	Bounds    engine.Bounds          `json:"bounds"`
	Placement *engine.PlacementEntry `json:"placement,omitempty"`
	GameState *engine.StackState     `json:"game_state"`
	Message   string                 `json:"message"`
	Events    []GameEvent            `json:"events"`
}

// TickResult contains the state after advancing a session's clock
type TickResult struct {
	Phase       float64            `json:"phase"`
	ActiveTile  engine.Tile        `json:"active_tile"`
	StackOffset float64            `json:"stack_offset"`
	GameOver    bool               `json:"game_over"`
	GameState   *engine.StackState `json:"game_state,omitempty"`
}

// Event types
const (
	EventDebris   = "debris"
	EventGameOver = "game_over"
	EventScore    = "score"
	EventReset    = "reset"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"` // "debris", "game_over", "score", "reset"
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Score     int          `json:"score,omitempty"`
	Position  *engine.Vec3 `json:"position,omitempty"`
	Size      *engine.Vec3 `json:"size,omitempty"`
	Color     string       `json:"color,omitempty"`
}

// HistoryOptions configures placement history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated placement history
type HistoryResponse struct {
	Placements      []engine.PlacementEntry `json:"placements"`
	TotalPlacements int                     `json:"total_placements"`
	Page            int                     `json:"page"`
	PageSize        int                     `json:"page_size"`
	TotalPages      int                     `json:"total_pages"`
	HasNext         bool                    `json:"has_next"`
	HasPrevious     bool                    `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename       string  `json:"filename"`
	ConfigID       string  `json:"config_id"` // The identifier to use for session creation
	Name           string  `json:"name"`      // Display name
	Description    string  `json:"description"`
	MaxBound       float64 `json:"max_bound"`
	ErrorMargin    float64 `json:"error_margin"`
	ComboThreshold int     `json:"combo_threshold"`
	Capacity       int     `json:"capacity"`
}

// ColorInfo is the cosmetic color of a tile at a given score
type ColorInfo struct {
	Score    int    `json:"score"`
	ConfigID string `json:"config_id"`
	Hex      string `json:"hex"`
}
