package engine

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *StackState
	Reset() *StackState
	IsGameOver() bool
	GetScore() int
	GetCombo() int
	GetBounds() Bounds
	GetActiveTile() Tile

	// Frame and input operations
	Tick(deltaTime float64)
	Place() Outcome

	// Configuration
	GetConfig() *Config

	// History
	GetPlacementHistory() []PlacementEntry
	GetLastPlacement() *PlacementEntry

	// Cosmetics
	TileColor(score int) colorful.Color
}

// Listener receives notifications from Place. Calls are synchronous and
// the engine does not wait on any work they start.
type Listener interface {
	// OnDebrisSpawned reports the overhang cut off a tile
	OnDebrisSpawned(position, size Vec3)
	// OnGameOver fires once, with the tile that failed to land
	OnGameOver(tile Tile)
	// OnScoreChanged fires after every successful placement
	OnScoreChanged(score int)
}

// NopListener ignores every notification
type NopListener struct{}

func (NopListener) OnDebrisSpawned(position, size Vec3) {}
func (NopListener) OnGameOver(tile Tile)                {}
func (NopListener) OnScoreChanged(score int)            {}

// StackEngine implements the Engine interface
type StackEngine struct {
	state    *StackState
	config   *Config
	palette  [PaletteSize]colorful.Color
	listener Listener
}

// NewEngine creates a new stack engine with the provided configuration.
// A nil listener is replaced with NopListener.
func NewEngine(config *Config, listener Listener) (*StackEngine, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	if listener == nil {
		listener = NopListener{}
	}

	e := &StackEngine{
		config:   config,
		palette:  config.palette(),
		listener: listener,
	}
	e.state = e.initState()

	return e, nil
}

// NewEngineWithDefaults creates a new stack engine with the classic tuning
func NewEngineWithDefaults() *StackEngine {
	e, err := NewEngine(DefaultConfig(), nil)
	if err != nil {
		panic(fmt.Sprintf("engine: default config is invalid: %v", err))
	}
	return e
}

// SetListener replaces the notification target
func (e *StackEngine) SetListener(l Listener) {
	if l == nil {
		l = NopListener{}
	}
	e.listener = l
}

// GetState returns the live game state
func (e *StackEngine) GetState() *StackState {
	return e.state
}

// Reset starts a new game with the same configuration
func (e *StackEngine) Reset() *StackState {
	e.state = e.initState()
	return e.state
}

// IsGameOver returns whether the game has ended
func (e *StackEngine) IsGameOver() bool {
	return e.state.GameOver
}

// GetScore returns the number of successful placements
func (e *StackEngine) GetScore() int {
	return e.state.Layer
}

// GetCombo returns the current run of non-cut placements
func (e *StackEngine) GetCombo() int {
	return e.state.Combo
}

// GetBounds returns the footprint the next tile inherits
func (e *StackEngine) GetBounds() Bounds {
	return e.state.Bounds
}

// GetActiveTile returns a copy of the swinging tile
func (e *StackEngine) GetActiveTile() Tile {
	return e.state.ActiveTile()
}

// GetConfig returns the engine configuration
func (e *StackEngine) GetConfig() *Config {
	return e.config
}

// GetPlacementHistory returns every placement since the game started
func (e *StackEngine) GetPlacementHistory() []PlacementEntry {
	return e.state.Placements
}

// GetLastPlacement returns the most recent placement, or nil if none
func (e *StackEngine) GetLastPlacement() *PlacementEntry {
	if len(e.state.Placements) == 0 {
		return nil
	}
	return &e.state.Placements[len(e.state.Placements)-1]
}

// TileColor returns the cosmetic color for a score
func (e *StackEngine) TileColor(score int) colorful.Color {
	return TileColor(score, e.config.ColorFrequency, e.palette)
}

// Tick advances the oscillation by deltaTime seconds and moves the active
// tile. After game over only the phase and the stack descent keep moving.
func (e *StackEngine) Tick(deltaTime float64) {
	s := e.state
	s.Phase += deltaTime * e.config.OscillationSpeed

	if !s.GameOver {
		e.positionActive()
	}

	target := -float64(s.Layer) * e.config.Ratio
	f := math.Min(1, math.Max(0, e.config.MoveSpeed*deltaTime))
	s.StackOffset += (target - s.StackOffset) * f
}

// positionActive places the active tile according to the current phase
func (e *StackEngine) positionActive() {
	s := e.state
	active := &s.Tiles[s.ActiveIndex]
	active.Center = active.Center.
		With(s.Axis, math.Sin(s.Phase)*e.config.MaxBound).
		With(s.Axis.Other(), s.LockedOffset)
	active.Center.Y = float64(s.Layer) * e.config.Ratio
}

// initState builds the ring for a fresh game. Slot N-1 swings on layer 0
// and slot i rests on layer -(i+1), so walking the cursor downward always
// recycles the bottom-most tile.
func (e *StackEngine) initState() *StackState {
	cfg := e.config
	n := cfg.Capacity
	full := Bounds{Width: cfg.MaxBound, Depth: cfg.MaxBound}
	color := e.colorHex(0)

	tiles := make([]Tile, n)
	for i := range tiles {
		layer := -(i + 1)
		if i == n-1 {
			layer = 0
		}
		tiles[i] = Tile{
			Slot:   i,
			Center: Vec3{Y: float64(layer) * cfg.Ratio},
			Size:   sizeOf(full, cfg.Ratio),
			Color:  color,
		}
	}

	s := &StackState{
		Tiles:       tiles,
		ActiveIndex: n - 1,
		Bounds:      full,
		Axis:        AxisX,
		LastTile: Tile{
			Slot:   -1,
			Center: Vec3{Y: -cfg.Ratio},
			Size:   sizeOf(full, cfg.Ratio),
			Color:  color,
		},
		ConfigName: cfg.Name,
		Placements: []PlacementEntry{},
	}
	if n > 1 {
		s.LastTile = tiles[0]
	}

	e.state = s
	e.positionActive()
	return s
}

func (e *StackEngine) colorHex(score int) string {
	return e.TileColor(score).Clamped().Hex()
}

func sizeOf(b Bounds, ratio float64) Vec3 {
	return Vec3{X: b.Width, Y: ratio, Z: b.Depth}
}
