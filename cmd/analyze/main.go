// Command analyze prints quick, human-readable heuristics about the presets
// in a config directory: how fast the tile swings, how wide the perfect
// window is, how many cuts a tower can absorb and how long a combo must run
// to win the footprint back.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/stacktower/game/config"
	"github.com/wricardo/stacktower/game/engine"
	"github.com/wricardo/stacktower/logging"
)

// Unbounded marks a count with no finite limit
const Unbounded = -1

// Analysis holds the derived numbers for one preset
type Analysis struct {
	ConfigID string `json:"config_id"`
	Name     string `json:"name"`

	// Seconds for one full swing cycle, 0 when the tile never moves
	Period float64 `json:"period"`
	// Tile speed through the centre, in stack units per second
	PeakSpeed float64 `json:"peak_speed"`
	// Seconds per pass during which a centred drop is a perfect hit
	HitWindow float64 `json:"hit_window"`
	// Share of the swing cycle spent inside the hit window
	HitFraction float64 `json:"hit_fraction"`

	// Smallest possible cuts a full footprint survives
	MaxCuts int `json:"max_cuts"`
	// Consecutive perfect hits to win back one minimal cut
	RegainOneCut int `json:"regain_one_cut"`
	// Consecutive perfect hits to grow from a sliver to the full footprint
	RegainFull int `json:"regain_full"`
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Print heuristics for Stack Tower presets",
		ArgsUsage: "[preset...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of text"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := logging.NewLogger(os.Stderr, logging.ParseLevel(cmd.String("log-level")))
			analyses, err := analyzeDir(cmd.String("config-dir"), cmd.Args().Slice(), logger)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(analyses)
			}
			for _, a := range analyses {
				printAnalysis(out, a)
			}
			return nil
		},
	}
}

// analyzeDir analyzes the named presets, or every valid preset when names is empty
func analyzeDir(dir string, names []string, logger *slog.Logger) ([]Analysis, error) {
	manager, err := config.NewManager(dir)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		infos, err := manager.ListConfigs()
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			names = append(names, info.ConfigID)
		}
	}

	analyses := make([]Analysis, 0, len(names))
	for _, name := range names {
		cfg, err := manager.LoadConfig(name)
		if err != nil {
			logger.Warn("skipping preset", "preset", name, "error", err)
			continue
		}
		a := Analyze(cfg)
		a.ConfigID = name
		analyses = append(analyses, a)
		logger.Debug("analyzed preset", "preset", name)
	}
	return analyses, nil
}

// Analyze derives the heuristics for a single preset
func Analyze(cfg *engine.Config) Analysis {
	a := Analysis{
		Name:         cfg.Name,
		PeakSpeed:    cfg.MaxBound * cfg.OscillationSpeed,
		MaxCuts:      maxCuts(cfg.MaxBound, cfg.ErrorMargin),
		RegainOneCut: hitsToRegain(cfg.ErrorMargin, cfg.BoundsGain, cfg.ComboThreshold),
		RegainFull:   hitsToRegain(cfg.MaxBound, cfg.BoundsGain, cfg.ComboThreshold),
	}

	// |sin(phase)| * MaxBound <= ErrorMargin around each zero crossing
	half := math.Pi / 2
	if cfg.ErrorMargin < cfg.MaxBound {
		half = math.Asin(cfg.ErrorMargin / cfg.MaxBound)
	}
	a.HitFraction = 2 * half / math.Pi

	if cfg.OscillationSpeed > 0 {
		a.Period = 2 * math.Pi / cfg.OscillationSpeed
		a.HitWindow = 2 * half / cfg.OscillationSpeed
	}
	return a
}

// maxCuts counts cuts just over margin that a full footprint absorbs
func maxCuts(maxBound, margin float64) int {
	if margin <= 0 {
		return Unbounded
	}
	return int(math.Ceil(maxBound/margin)) - 1
}

// hitsToRegain counts consecutive hits needed to grow back loss. The first
// threshold+1 hits of a combo never grow the footprint.
func hitsToRegain(loss, gain float64, threshold int) int {
	if loss <= 0 {
		return 0
	}
	if gain <= 0 {
		return Unbounded
	}
	return threshold + 1 + int(math.Ceil(loss/gain))
}

func printAnalysis(w io.Writer, a Analysis) {
	fmt.Fprintf(w, "\n=== %s (%s) ===\n", a.ConfigID, a.Name)
	if a.Period == 0 {
		fmt.Fprintf(w, "Swing: frozen\n")
	} else {
		fmt.Fprintf(w, "Swing period: %.2fs, peak speed %.1f units/s\n", a.Period, a.PeakSpeed)
		fmt.Fprintf(w, "Perfect window: %.3fs per pass (%.1f%% of the cycle)\n", a.HitWindow, a.HitFraction*100)
	}
	fmt.Fprintf(w, "Survivable minimal cuts: %s\n", count(a.MaxCuts))
	fmt.Fprintf(w, "Hits to regain one cut: %s\n", count(a.RegainOneCut))
	fmt.Fprintf(w, "Hits to regain full footprint: %s\n", count(a.RegainFull))

	if a.MaxCuts != Unbounded && a.MaxCuts < 3 {
		fmt.Fprintf(w, "⚠️  Very unforgiving: only %d cuts before a miss is inevitable\n", a.MaxCuts)
	}
	if a.RegainOneCut == Unbounded {
		fmt.Fprintf(w, "⚠️  Footprint never grows back (bounds_gain is 0)\n")
	}
}

func count(n int) string {
	if n == Unbounded {
		return "unbounded"
	}
	return fmt.Sprintf("%d", n)
}
