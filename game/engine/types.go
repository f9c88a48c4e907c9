package engine

// Axis is a horizontal axis a tile can swing along
type Axis string

const (
	AxisX Axis = "x"
	AxisZ Axis = "z"
)

// Other returns the perpendicular horizontal axis
func (a Axis) Other() Axis {
	if a == AxisX {
		return AxisZ
	}
	return AxisX
}

// Outcome is the result of a placement
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeGameOver Outcome = "game_over"
)

// PlacementResult classifies how a placement resolved
type PlacementResult string

const (
	ResultHit      PlacementResult = "hit"
	ResultGrow     PlacementResult = "grow"
	ResultCut      PlacementResult = "cut"
	ResultGameOver PlacementResult = "game_over"
)

// Validation constants
const (
	MinCapacity = 1
	MaxCapacity = 256
	PaletteSize = 4
)

// Vec3 is a point or extent in stack space. Y is up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Along returns the component on the given horizontal axis
func (v Vec3) Along(a Axis) float64 {
	if a == AxisX {
		return v.X
	}
	return v.Z
}

// With returns a copy of v with the component on axis a replaced
func (v Vec3) With(a Axis, value float64) Vec3 {
	if a == AxisX {
		v.X = value
	} else {
		v.Z = value
	}
	return v
}

// Bounds is a footprint size: full width along X and depth along Z
type Bounds struct {
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`
}

// Along returns the extent on the given axis
func (b Bounds) Along(a Axis) float64 {
	if a == AxisX {
		return b.Width
	}
	return b.Depth
}

// With returns a copy of b with the extent on axis a replaced
func (b Bounds) With(a Axis, value float64) Bounds {
	if a == AxisX {
		b.Width = value
	} else {
		b.Depth = value
	}
	return b
}

// Tile is one slab of the stack
type Tile struct {
	Slot   int    `json:"slot"`
	Center Vec3   `json:"center"`
	Size   Vec3   `json:"size"` // full extents; Size.Y is the layer thickness
	Color  string `json:"color,omitempty"`
}

// Layer returns the stack layer the tile sits on
func (t Tile) Layer(ratio float64) int {
	if ratio == 0 {
		return 0
	}
	l := t.Center.Y / ratio
	if l < 0 {
		return int(l - 0.5)
	}
	return int(l + 0.5)
}

// PlacementEntry records a single placement in the game history
type PlacementEntry struct {
	Number    int             `json:"number"`
	Layer     int             `json:"layer"`
	Axis      Axis            `json:"axis"`
	Delta     float64         `json:"delta"`
	Result    PlacementResult `json:"result"`
	Bounds    Bounds          `json:"bounds"`
	Combo     int             `json:"combo"`
	Timestamp int64           `json:"timestamp"`
}

// StackState represents the complete game state
type StackState struct {
	Tiles        []Tile  `json:"tiles"`
	ActiveIndex  int     `json:"active_index"`
	Layer        int     `json:"layer"` // doubles as the score
	Combo        int     `json:"combo"`
	Bounds       Bounds  `json:"bounds"`
	Axis         Axis    `json:"axis"`
	Phase        float64 `json:"phase"`
	LockedOffset float64 `json:"locked_offset"`
	LastTile     Tile    `json:"last_tile"`
	GameOver     bool    `json:"game_over"`
	ConfigName   string  `json:"config_name"`

	// StackOffset eases toward -Layer*Ratio so hosts can keep the active
	// layer in view the way a camera follows the tower.
	StackOffset float64 `json:"stack_offset"`

	// Placements grows with every drop; it is read through
	// GetPlacementHistory and kept out of per-frame snapshots.
	Placements []PlacementEntry `json:"-"`
}

// ActiveTile returns a copy of the tile currently swinging
func (s *StackState) ActiveTile() Tile {
	return s.Tiles[s.ActiveIndex]
}

// Score returns the number of successful placements
func (s *StackState) Score() int {
	return s.Layer
}

// Clone returns a snapshot for renderers. Tiles are deep copied and the
// placement history is left out.
func (s *StackState) Clone() *StackState {
	if s == nil {
		return nil
	}
	c := *s
	c.Tiles = make([]Tile, len(s.Tiles))
	copy(c.Tiles, s.Tiles)
	c.Placements = nil
	return &c
}
