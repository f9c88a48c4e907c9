// Command validate checks the game presets in a config directory. For each
// JSON or YAML file it checks:
//   - the file decodes and passes engine validation
//   - the swing actually moves
//   - the perfect window lasts at least one rendered frame
//   - the tower survives more than one cut
//
// Across the directory it also flags presets that share a name.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/stacktower/game/config"
	"github.com/wricardo/stacktower/game/engine"
)

var errInvalid = errors.New("some presets have errors")

// ValidationResult captures the outcome of validating a single file.
// Messages starting with ✓ are informational; the rest are errors.
type ValidationResult struct {
	File   string
	Name   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) pass(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validatePreset loads one preset file and checks it is playable at the
// given frame rate
func validatePreset(filePath string, frameRate float64) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	cfg, err := config.Decode(result.File, data)
	if err != nil {
		result.fail("Invalid %s: %v", strings.TrimPrefix(filepath.Ext(filePath), "."), err)
		return result
	}
	result.Name = cfg.Name

	if err := engine.ValidateConfig(cfg); err != nil {
		result.fail("%v", err)
		return result
	}
	result.pass("Engine accepts %q", cfg.Name)

	if cfg.OscillationSpeed == 0 {
		result.fail("Swing is frozen: every drop lands centred")
	} else {
		window := 2 * math.Asin(cfg.ErrorMargin/cfg.MaxBound) / cfg.OscillationSpeed
		frame := 1 / frameRate
		if window < frame {
			result.fail("Perfect window %.4fs is shorter than one frame (%.4fs at %.0f fps)", window, frame, frameRate)
		} else {
			result.pass("Perfect window %.3fs (%.1f frames)", window, window/frame)
		}
	}

	// The smallest cut removes just over ErrorMargin
	if cfg.ErrorMargin > 0 && cfg.MaxBound <= 2*cfg.ErrorMargin {
		result.fail("Footprint %.1f allows only one cut over margin %.1f", cfg.MaxBound, cfg.ErrorMargin)
	} else {
		result.pass("Footprint survives repeated cuts")
	}

	return result
}

// validateDir validates every preset file in dir, sorted by file name
func validateDir(dir string, frameRate float64) ([]ValidationResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading config directory: %w", err)
	}

	var results []ValidationResult
	owners := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || !config.IsSupported(filepath.Ext(entry.Name())) {
			continue
		}
		result := validatePreset(filepath.Join(dir, entry.Name()), frameRate)
		if result.Name != "" {
			if first, ok := owners[result.Name]; ok {
				result.fail("Name %q is already used by %s", result.Name, first)
			} else {
				owners[result.Name] = result.File
			}
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })
	return results, nil
}

// report prints results and returns whether they were all valid
func report(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
			continue
		}

		fmt.Fprintln(w, "❌ INVALID")
		allValid = false
		for _, err := range result.Errors {
			if !strings.HasPrefix(err, "✓") {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All presets are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some presets have errors")
	}
	return allValid
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check Stack Tower presets for errors and playability",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.FloatFlag{Name: "frame-rate", Value: 60, Usage: "Frame rate the perfect window is checked against"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			frameRate := cmd.Float("frame-rate")
			if frameRate <= 0 {
				return fmt.Errorf("frame-rate must be positive")
			}
			results, err := validateDir(cmd.String("config-dir"), frameRate)
			if err != nil {
				return err
			}
			if !report(out, results) {
				return errInvalid
			}
			return nil
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
