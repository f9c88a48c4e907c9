package main

import (
	"github.com/wricardo/stacktower/game/engine"
)

// gravity in stack units per second squared
const gravity = 400.0

// debris is a falling offcut
type debris struct {
	Pos   engine.Vec3
	Size  engine.Vec3
	Color string
	vy    float64
}

// game owns the engine and the purely cosmetic falling debris
type game struct {
	engine *engine.StackEngine
	cfg    *engine.Config
	debris []debris
}

func newGame(cfg *engine.Config) (*game, error) {
	g := &game{cfg: cfg}
	e, err := engine.NewEngine(cfg, g)
	if err != nil {
		return nil, err
	}
	g.engine = e
	return g, nil
}

// OnDebrisSpawned implements engine.Listener
func (g *game) OnDebrisSpawned(pos, size engine.Vec3) {
	layer := 0
	if g.cfg.Ratio > 0 {
		layer = int(pos.Y/g.cfg.Ratio + 0.5)
	}
	g.debris = append(g.debris, debris{
		Pos:   pos,
		Size:  size,
		Color: engine.TileColorHex(g.cfg, layer),
	})
}

// OnGameOver implements engine.Listener
func (g *game) OnGameOver(tile engine.Tile) {}

// OnScoreChanged implements engine.Listener
func (g *game) OnScoreChanged(score int) {}

// step advances the engine and lets debris fall, dropping pieces that have
// left the view
func (g *game) step(dt float64) {
	g.engine.Tick(dt)

	floor := -g.engine.GetState().StackOffset - float64(viewDepth)*g.cfg.Ratio
	kept := g.debris[:0]
	for _, d := range g.debris {
		d.vy += gravity * dt
		d.Pos.Y -= d.vy * dt
		if d.Pos.Y+d.Size.Y >= floor {
			kept = append(kept, d)
		}
	}
	g.debris = kept
}

func (g *game) place() engine.Outcome {
	return g.engine.Place()
}

func (g *game) reset() {
	g.engine.Reset()
	g.debris = g.debris[:0]
}
