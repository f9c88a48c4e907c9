package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

type debris struct {
	pos, size Vec3
}

type recordingListener struct {
	debris    []debris
	gameOvers []Tile
	scores    []int
}

func (r *recordingListener) OnDebrisSpawned(pos, size Vec3) {
	r.debris = append(r.debris, debris{pos: pos, size: size})
}

func (r *recordingListener) OnGameOver(tile Tile) {
	r.gameOvers = append(r.gameOvers, tile)
}

func (r *recordingListener) OnScoreChanged(score int) {
	r.scores = append(r.scores, score)
}

func newTestEngine(t *testing.T) (*StackEngine, *recordingListener) {
	t.Helper()
	l := &recordingListener{}
	e, err := NewEngine(DefaultConfig(), l)
	require.NoError(t, err)
	return e, l
}

// moveActive puts the active tile at v on the oscillation axis
func moveActive(e *StackEngine, v float64) {
	s := e.GetState()
	active := &s.Tiles[s.ActiveIndex]
	active.Center = active.Center.With(s.Axis, v)
}

func TestNewEngine(t *testing.T) {
	e, _ := newTestEngine(t)

	s := e.GetState()
	assert.Equal(t, 0, e.GetScore())
	assert.Equal(t, 0, e.GetCombo())
	assert.False(t, e.IsGameOver())
	assert.Equal(t, AxisX, s.Axis)
	assert.Equal(t, Bounds{Width: 70, Depth: 70}, e.GetBounds())
	assert.Equal(t, "classic", s.ConfigName)
	assert.Empty(t, e.GetPlacementHistory())
	assert.Nil(t, e.GetLastPlacement())

	assert.Equal(t, Vec3{X: 0, Y: -20, Z: 0}, s.LastTile.Center)
	assert.Equal(t, Vec3{X: 70, Y: 20, Z: 70}, s.LastTile.Size)
}

func TestNewEngine_RingLayout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 4
	e, err := NewEngine(cfg, nil)
	require.NoError(t, err)

	s := e.GetState()
	require.Len(t, s.Tiles, 4)
	assert.Equal(t, 3, s.ActiveIndex)
	assert.Equal(t, 0, s.Tiles[3].Layer(cfg.Ratio))
	for i := 0; i < 3; i++ {
		assert.Equal(t, -(i + 1), s.Tiles[i].Layer(cfg.Ratio), "slot %d", i)
		assert.Equal(t, i, s.Tiles[i].Slot)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max bound", func(c *Config) { c.MaxBound = 0 }},
		{"negative max bound", func(c *Config) { c.MaxBound = -5 }},
		{"zero capacity", func(c *Config) { c.Capacity = 0 }},
		{"zero ratio", func(c *Config) { c.Ratio = 0 }},
		{"missing name", func(c *Config) { c.Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			e, err := NewEngine(cfg, nil)
			assert.Error(t, err)
			assert.Nil(t, e)
		})
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	e := NewEngineWithDefaults()
	require.NotNil(t, e)
	assert.Equal(t, DefaultCapacity, len(e.GetState().Tiles))
}

func TestEngine_Tick(t *testing.T) {
	e, _ := newTestEngine(t)

	e.Tick(0.2)
	s := e.GetState()
	assert.InDelta(t, 0.5, s.Phase, eps)

	active := e.GetActiveTile()
	assert.InDelta(t, 70*math.Sin(0.5), active.Center.X, eps)
	assert.InDelta(t, 0, active.Center.Z, eps)
	assert.InDelta(t, 0, active.Center.Y, eps)
}

func TestEngine_TickZeroDoesNotMove(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Tick(0.37)
	before := e.GetActiveTile()

	e.Tick(0)
	assert.Equal(t, before, e.GetActiveTile())
}

func TestEngine_TickStaysInsideMaxBound(t *testing.T) {
	e, _ := newTestEngine(t)
	for i := 0; i < 500; i++ {
		e.Tick(1.0 / 60)
		x := e.GetActiveTile().Center.X
		assert.LessOrEqual(t, math.Abs(x), 70.0+eps)
	}
}

func TestEngine_StackOffsetEasesDown(t *testing.T) {
	e, _ := newTestEngine(t)
	require.Equal(t, OutcomeSuccess, e.Place())

	e.Tick(0.1)
	assert.InDelta(t, -10, e.GetState().StackOffset, eps)

	e.Tick(1)
	assert.InDelta(t, -20, e.GetState().StackOffset, eps)
}

func TestEngine_PlaceHit(t *testing.T) {
	e, l := newTestEngine(t)
	moveActive(e, -5)

	assert.Equal(t, OutcomeSuccess, e.Place())

	s := e.GetState()
	assert.Equal(t, Bounds{Width: 70, Depth: 70}, s.Bounds)
	assert.Equal(t, 1, s.Combo)
	assert.Equal(t, 1, s.Layer)
	assert.Empty(t, l.debris)
	assert.Equal(t, []int{1}, l.scores)

	// snapped onto the tile below
	assert.InDelta(t, 0, s.LastTile.Center.X, eps)
	assert.InDelta(t, 0, s.LastTile.Center.Z, eps)
	assert.Equal(t, AxisZ, s.Axis)

	last := e.GetLastPlacement()
	require.NotNil(t, last)
	assert.Equal(t, ResultHit, last.Result)
	assert.InDelta(t, 5, last.Delta, eps)
}

func TestEngine_PlaceCut(t *testing.T) {
	e, l := newTestEngine(t)
	moveActive(e, -15)

	assert.Equal(t, OutcomeSuccess, e.Place())

	s := e.GetState()
	assert.InDelta(t, 55, s.Bounds.Width, eps)
	assert.InDelta(t, 70, s.Bounds.Depth, eps)
	assert.Equal(t, 0, s.Combo)
	assert.Equal(t, 1, s.Layer)

	require.Len(t, l.debris, 1)
	d := l.debris[0]
	assert.InDelta(t, -42.5, d.pos.X, eps)
	assert.InDelta(t, 0, d.pos.Y, eps)
	assert.InDelta(t, 0, d.pos.Z, eps)
	assert.InDelta(t, 14.99, d.size.X, eps)
	assert.InDelta(t, 20, d.size.Y, eps)
	assert.InDelta(t, 70, d.size.Z, eps)

	placed := s.LastTile
	assert.InDelta(t, -7.5, placed.Center.X, eps)
	assert.InDelta(t, 55, placed.Size.X, eps)
	assert.InDelta(t, -7.5, s.LockedOffset, eps)

	// next tile swings along Z, locked to the placed tile's X
	next := e.GetActiveTile()
	assert.InDelta(t, -7.5, next.Center.X, eps)
	assert.InDelta(t, 20, next.Center.Y, eps)
	assert.InDelta(t, 55, next.Size.X, eps)
	assert.InDelta(t, 70, next.Size.Z, eps)

	assert.Equal(t, ResultCut, e.GetLastPlacement().Result)
}

func TestEngine_PlaceCutPositiveSide(t *testing.T) {
	e, l := newTestEngine(t)
	moveActive(e, 20)

	require.Equal(t, OutcomeSuccess, e.Place())
	require.Len(t, l.debris, 1)

	// active spans [-15, 55], tile below spans [-35, 35]
	assert.InDelta(t, 50, e.GetBounds().Width, eps)
	assert.InDelta(t, 45, l.debris[0].pos.X, eps)
	assert.InDelta(t, 10, e.GetState().LastTile.Center.X, eps)
}

func TestEngine_PlaceCutAlongZ(t *testing.T) {
	e, l := newTestEngine(t)
	require.Equal(t, OutcomeSuccess, e.Place())
	require.Equal(t, AxisZ, e.GetState().Axis)

	moveActive(e, 30)
	require.Equal(t, OutcomeSuccess, e.Place())

	b := e.GetBounds()
	assert.InDelta(t, 70, b.Width, eps)
	assert.InDelta(t, 40, b.Depth, eps)

	require.Len(t, l.debris, 1)
	d := l.debris[0]
	assert.InDelta(t, 50, d.pos.Z, eps)
	assert.InDelta(t, 20, d.pos.Y, eps)
	assert.InDelta(t, 29.99, d.size.Z, eps)
	assert.InDelta(t, 70, d.size.X, eps)
	assert.InDelta(t, 15, e.GetState().LastTile.Center.Z, eps)
}

func TestEngine_ErrorMarginIsInclusive(t *testing.T) {
	e, l := newTestEngine(t)
	moveActive(e, -10)

	require.Equal(t, OutcomeSuccess, e.Place())
	assert.Equal(t, 1, e.GetCombo())
	assert.Empty(t, l.debris)
	assert.InDelta(t, 70, e.GetBounds().Width, eps)
}

func TestEngine_GameOver(t *testing.T) {
	e, l := newTestEngine(t)
	e.GetState().Bounds.Width = 8
	moveActive(e, -15)

	assert.Equal(t, OutcomeGameOver, e.Place())
	assert.True(t, e.IsGameOver())
	assert.Equal(t, 0, e.GetScore())
	assert.InDelta(t, 8, e.GetBounds().Width, eps)
	require.Len(t, l.gameOvers, 1)
	assert.Empty(t, l.debris)
	assert.Empty(t, l.scores)
	assert.Equal(t, ResultGameOver, e.GetLastPlacement().Result)

	// later drops change nothing and do not notify again
	before := e.GetState().Clone()
	assert.Equal(t, OutcomeGameOver, e.Place())
	assert.Len(t, l.gameOvers, 1)
	assert.Equal(t, before, e.GetState())
}

func TestEngine_GameOverAtExactlyZero(t *testing.T) {
	e, l := newTestEngine(t)
	e.GetState().Bounds.Width = 15
	moveActive(e, 15)

	assert.Equal(t, OutcomeGameOver, e.Place())
	assert.Len(t, l.gameOvers, 1)
}

func TestEngine_TickAfterGameOverFreezesTile(t *testing.T) {
	e, _ := newTestEngine(t)
	e.GetState().Bounds.Width = 8
	moveActive(e, -15)
	require.Equal(t, OutcomeGameOver, e.Place())

	before := e.GetActiveTile()
	e.Tick(0.5)
	assert.Equal(t, before, e.GetActiveTile())
	assert.InDelta(t, 1.25, e.GetState().Phase, eps)
}

func TestEngine_ComboGrowsFootprint(t *testing.T) {
	e, _ := newTestEngine(t)
	s := e.GetState()
	s.Combo = 4
	s.Bounds.Width = 60
	moveActive(e, 3)

	require.Equal(t, OutcomeSuccess, e.Place())
	assert.InDelta(t, 65, e.GetBounds().Width, eps)
	assert.Equal(t, 5, e.GetCombo())
	assert.InDelta(t, 65, s.LastTile.Size.X, eps)
	assert.Equal(t, ResultGrow, e.GetLastPlacement().Result)
}

func TestEngine_ComboGrowthClampsAtMaxBound(t *testing.T) {
	e, _ := newTestEngine(t)
	s := e.GetState()
	s.Combo = 10
	s.Bounds.Width = 68

	require.Equal(t, OutcomeSuccess, e.Place())
	assert.InDelta(t, 70, e.GetBounds().Width, eps)
}

func TestEngine_ComboAtThresholdDoesNotGrow(t *testing.T) {
	e, _ := newTestEngine(t)
	s := e.GetState()
	s.Combo = 3
	s.Bounds.Width = 60

	require.Equal(t, OutcomeSuccess, e.Place())
	assert.InDelta(t, 60, e.GetBounds().Width, eps)
	assert.Equal(t, 4, e.GetCombo())
}

func TestEngine_ComboResetsOnCut(t *testing.T) {
	e, l := newTestEngine(t)

	for i, off := range []float64{4, -6, 10} {
		s := e.GetState()
		moveActive(e, s.LastTile.Center.Along(s.Axis)+off)
		require.Equal(t, OutcomeSuccess, e.Place())
		assert.Equal(t, i+1, e.GetCombo(), "hit %d", i+1)
	}
	require.Empty(t, l.debris)

	s := e.GetState()
	require.Equal(t, AxisZ, s.Axis)
	moveActive(e, s.LastTile.Center.Z+20)
	require.Equal(t, OutcomeSuccess, e.Place())

	assert.Equal(t, 0, e.GetCombo())
	assert.Equal(t, 4, e.GetScore())
	assert.InDelta(t, 50, e.GetBounds().Depth, eps)
	require.Len(t, l.debris, 1)
	assert.InDelta(t, 19.99, l.debris[0].size.Z, eps)
	assert.Equal(t, ResultCut, e.GetLastPlacement().Result)
}

func TestEngine_RingWraps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 3
	e, err := NewEngine(cfg, nil)
	require.NoError(t, err)

	want := []int{1, 0, 2, 1}
	for i, idx := range want {
		require.Equal(t, OutcomeSuccess, e.Place())
		assert.Equal(t, idx, e.GetState().ActiveIndex, "placement %d", i+1)
		assert.InDelta(t, float64(i+1)*cfg.Ratio, e.GetActiveTile().Center.Y, eps)
	}
	assert.Equal(t, 4, e.GetScore())
}

func TestEngine_SingleSlotRing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 1
	e, err := NewEngine(cfg, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.Equal(t, OutcomeSuccess, e.Place())
	}
	assert.Equal(t, 0, e.GetState().ActiveIndex)
	assert.Equal(t, 3, e.GetScore())
	assert.InDelta(t, 40, e.GetState().LastTile.Center.Y, eps)
}

func TestEngine_BoundsStayPositive(t *testing.T) {
	e, _ := newTestEngine(t)
	offsets := []float64{-15, 12, -20, 11, 25, -9, 30, 14}

	for _, off := range offsets {
		moveActive(e, e.GetState().LastTile.Center.Along(e.GetState().Axis)+off)
		if e.Place() == OutcomeGameOver {
			break
		}
		b := e.GetBounds()
		assert.Greater(t, b.Width, 0.0)
		assert.Greater(t, b.Depth, 0.0)
		assert.LessOrEqual(t, b.Width, 70.0)
		assert.LessOrEqual(t, b.Depth, 70.0)
	}
}

func TestEngine_PlacementHistory(t *testing.T) {
	e, _ := newTestEngine(t)
	moveActive(e, 2)
	e.Place()
	moveActive(e, 25)
	e.Place()

	history := e.GetPlacementHistory()
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Number)
	assert.Equal(t, AxisX, history[0].Axis)
	assert.Equal(t, ResultHit, history[0].Result)
	assert.Equal(t, 2, history[1].Number)
	assert.Equal(t, 1, history[1].Layer)
	assert.Equal(t, AxisZ, history[1].Axis)
	assert.Equal(t, ResultCut, history[1].Result)
	assert.InDelta(t, 45, history[1].Bounds.Depth, eps)
	assert.NotZero(t, history[1].Timestamp)
}

func TestEngine_NewTileColor(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Place()

	want := e.TileColor(1).Clamped().Hex()
	assert.Equal(t, want, e.GetActiveTile().Color)
}

func TestEngine_Reset(t *testing.T) {
	e, _ := newTestEngine(t)
	moveActive(e, -15)
	e.Place()
	e.Place()
	e.Tick(1)

	s := e.Reset()
	assert.Equal(t, 0, s.Layer)
	assert.Equal(t, 0, s.Combo)
	assert.False(t, s.GameOver)
	assert.Equal(t, Bounds{Width: 70, Depth: 70}, s.Bounds)
	assert.Equal(t, AxisX, s.Axis)
	assert.Zero(t, s.Phase)
	assert.Empty(t, s.Placements)
	assert.Same(t, s, e.GetState())
}

func TestEngine_SetListener(t *testing.T) {
	e, first := newTestEngine(t)
	second := &recordingListener{}
	e.SetListener(second)

	e.Place()
	assert.Empty(t, first.scores)
	assert.Equal(t, []int{1}, second.scores)

	e.SetListener(nil)
	assert.NotPanics(t, func() { e.Place() })
}

func TestStackState_Clone(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Place()

	c := e.GetState().Clone()
	c.Tiles[0].Center.X = 999
	assert.NotEqual(t, 999.0, e.GetState().Tiles[0].Center.X)

	// history stays with the engine
	assert.Nil(t, c.Placements)
	assert.Len(t, e.GetPlacementHistory(), 1)
}

func TestStackState_JSONOmitsHistory(t *testing.T) {
	e, _ := newTestEngine(t)
	empty, err := json.Marshal(e.GetState())
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		require.Equal(t, OutcomeSuccess, e.Place())
	}
	require.Len(t, e.GetPlacementHistory(), 200)

	data, err := json.Marshal(e.GetState())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "placements")
	// Only the numbers in the snapshot grow, never its shape
	assert.Less(t, len(data), len(empty)+200)
}
