package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/stacktower/game/engine"
)

// EventRecorder collects engine notifications as GameEvents until they are
// drained. Each event gets a fresh ID so renderers can track debris bodies.
type EventRecorder struct {
	config *engine.Config
	now    func() time.Time

	mu     sync.Mutex
	events []GameEvent
}

var _ engine.Listener = (*EventRecorder)(nil)

// NewEventRecorder creates a recorder that colors debris with the given config
func NewEventRecorder(config *engine.Config) *EventRecorder {
	return &EventRecorder{
		config: config,
		now:    time.Now,
	}
}

// OnDebrisSpawned records a debris event
func (r *EventRecorder) OnDebrisSpawned(position, size engine.Vec3) {
	pos, sz := position, size
	layer := engine.Tile{Center: position}.Layer(r.config.Ratio)
	r.add(GameEvent{
		Type:     EventDebris,
		Message:  fmt.Sprintf("Debris %.2f x %.2f fell from layer %d", size.X, size.Z, layer),
		Score:    layer,
		Position: &pos,
		Size:     &sz,
		Color:    engine.TileColorHex(r.config, layer),
	})
}

// OnGameOver records the end of the game
func (r *EventRecorder) OnGameOver(tile engine.Tile) {
	pos, sz := tile.Center, tile.Size
	layer := tile.Layer(r.config.Ratio)
	r.add(GameEvent{
		Type:     EventGameOver,
		Message:  fmt.Sprintf("Game over! Final score: %d", layer),
		Score:    layer,
		Position: &pos,
		Size:     &sz,
		Color:    tile.Color,
	})
}

// OnScoreChanged records a successful placement
func (r *EventRecorder) OnScoreChanged(score int) {
	r.add(GameEvent{
		Type:    EventScore,
		Message: fmt.Sprintf("Score: %d", score),
		Score:   score,
		Color:   engine.TileColorHex(r.config, score),
	})
}

// RecordReset records a game reset
func (r *EventRecorder) RecordReset() {
	r.add(GameEvent{
		Type:    EventReset,
		Message: "Game reset to initial state",
	})
}

// Drain returns the pending events and clears them
func (r *EventRecorder) Drain() []GameEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.events
	r.events = nil
	if events == nil {
		events = []GameEvent{}
	}
	return events
}

func (r *EventRecorder) add(ev GameEvent) {
	ev.ID = uuid.NewString()
	ev.Timestamp = r.now()

	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}
