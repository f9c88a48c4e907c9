// Package engine provides the core game logic for the Stack Tower game.
//
// The engine package implements the game mechanics including:
//   - Oscillation of the active tile along the X or Z axis
//   - Placement, overlap cutting and debris spawning
//   - Combo tracking and footprint regrowth
//   - Cosmetic per-score tile coloring
//   - Configuration defaults and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by StackEngine. StackState holds the ring of tiles and the
// running counters, while Config holds the tuning constants fixed at
// construction time.
//
// Usage:
//
//	eng, err := engine.NewEngine(engine.DefaultConfig(), listener)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Once per frame
//	eng.Tick(frameSeconds)
//
//	// On every confirm input
//	if eng.Place() == engine.OutcomeGameOver {
//		// show end-of-game UI
//	}
//
// Game Rules:
//
// A tile swings back and forth above the stack. Dropping it keeps the part
// that overlaps the tile below; the overhang is cut off as debris and the
// footprint shrinks. Drops within the error margin snap perfectly onto the
// tile below and build a combo; long combos grow the footprint back. The
// game ends when a cut would leave nothing to stand on.
//
// The engine is single-threaded. Callers that share an engine between
// goroutines must serialize access themselves.
package engine
