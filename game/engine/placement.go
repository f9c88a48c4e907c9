package engine

import (
	"math"
	"time"
)

// Place drops the active tile onto the stack. A drop that misses the tile
// below by more than the error margin is cut down to the overlap and the
// overhang is reported as debris. A drop within the margin snaps onto the
// tile below and extends the combo. Once the game is over Place returns
// OutcomeGameOver without touching the state.
func (e *StackEngine) Place() Outcome {
	s := e.state
	if s.GameOver {
		return OutcomeGameOver
	}

	axis := s.Axis
	active := &s.Tiles[s.ActiveIndex]
	delta := s.LastTile.Center.Along(axis) - active.Center.Along(axis)

	entry := PlacementEntry{
		Number:    len(s.Placements) + 1,
		Layer:     s.Layer,
		Axis:      axis,
		Delta:     delta,
		Timestamp: time.Now().Unix(),
	}

	if math.Abs(delta) > e.config.ErrorMargin {
		s.Combo = 0
		remain := s.Bounds.Along(axis) - math.Abs(delta)
		if remain <= 0 {
			s.GameOver = true
			entry.Result = ResultGameOver
			entry.Bounds = s.Bounds
			s.Placements = append(s.Placements, entry)
			e.listener.OnGameOver(*active)
			return OutcomeGameOver
		}
		e.cut(active, delta, remain)
		entry.Result = ResultCut
	} else {
		entry.Result = e.hit(active)
	}

	e.advance(*active)

	entry.Bounds = s.Bounds
	entry.Combo = s.Combo
	s.Placements = append(s.Placements, entry)

	e.listener.OnScoreChanged(s.Layer)
	return OutcomeSuccess
}

// cut shrinks the active tile to the overlap with the tile below and
// reports the overhang
func (e *StackEngine) cut(active *Tile, delta, remain float64) {
	s := e.state
	axis := s.Axis
	moving := active.Center.Along(axis)

	s.Bounds = s.Bounds.With(axis, remain)
	active.Size = sizeOf(s.Bounds, e.config.Ratio)

	// The overhang sits on the side of the active tile facing away from
	// the tile below.
	along := moving - remain/2
	if delta < 0 {
		along = moving + remain/2
	}
	pos := active.Center.With(axis, along)
	size := Vec3{Y: e.config.Ratio}.
		With(axis, math.Abs(delta)-e.config.DebrisClearance).
		With(axis.Other(), s.Bounds.Along(axis.Other()))
	e.listener.OnDebrisSpawned(pos, size)

	last := s.LastTile.Center
	active.Center = active.Center.
		With(axis, (last.Along(axis)+moving)/2).
		With(axis.Other(), last.Along(axis.Other()))
}

// hit snaps the active tile onto the tile below, growing the footprint
// back once the combo is long enough
func (e *StackEngine) hit(active *Tile) PlacementResult {
	s := e.state
	cfg := e.config
	result := ResultHit

	if s.Combo > cfg.ComboThreshold {
		grown := math.Min(s.Bounds.Along(s.Axis)+cfg.BoundsGain, cfg.MaxBound)
		s.Bounds = s.Bounds.With(s.Axis, grown)
		active.Size = sizeOf(s.Bounds, cfg.Ratio)
		result = ResultGrow
	}
	s.Combo++

	active.Center.X = s.LastTile.Center.X
	active.Center.Z = s.LastTile.Center.Z
	return result
}

// advance commits the placed tile and recycles the next ring slot as the
// new active tile
func (e *StackEngine) advance(placed Tile) {
	s := e.state

	s.LockedOffset = placed.Center.Along(s.Axis)
	s.Axis = s.Axis.Other()
	s.Layer++
	s.LastTile = placed

	s.ActiveIndex--
	if s.ActiveIndex < 0 {
		s.ActiveIndex = len(s.Tiles) - 1
	}

	next := &s.Tiles[s.ActiveIndex]
	next.Size = sizeOf(s.Bounds, e.config.Ratio)
	next.Color = e.colorHex(s.Layer)
	e.positionActive()
}
