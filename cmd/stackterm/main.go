// Command stackterm plays Stack Tower in the terminal. It runs a single
// engine in-process and draws the tower from the side along both axes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/stacktower/game/config"
	"github.com/wricardo/stacktower/game/engine"
	"github.com/wricardo/stacktower/logging"
)

const frameInterval = 16 * time.Millisecond // ~60 FPS

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "stackterm",
		Usage:     "Play Stack Tower in the terminal",
		ArgsUsage: "[preset]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error", Sources: cli.EnvVars("LOG_LEVEL")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := logging.NewLogger(os.Stderr, logging.ParseLevel(cmd.String("log-level")))

			cfg, err := loadPreset(cmd.String("config-dir"), cmd.Args().First(), logger)
			if err != nil {
				return err
			}
			g, err := newGame(cfg)
			if err != nil {
				return fmt.Errorf("preset %q: %w", cfg.Name, err)
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return err
			}
			if err := screen.Init(); err != nil {
				return err
			}
			defer screen.Fini()

			run(ctx, screen, g)
			return nil
		},
	}
}

// loadPreset resolves a preset by name. An empty name picks the directory
// default; a missing directory falls back to the built-in tuning.
func loadPreset(dir, name string, logger *slog.Logger) (*engine.Config, error) {
	manager, err := config.NewManager(dir)
	if err != nil {
		if name != "" {
			return nil, err
		}
		logger.Warn("using built-in tuning", "error", err)
		return engine.DefaultConfig(), nil
	}
	if name == "" {
		return manager.GetDefault(), nil
	}
	return manager.LoadConfig(name)
}

// handleEvent applies one terminal event and reports whether to quit
func (g *game) handleEvent(screen tcell.Screen, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyEnter:
			g.place()
		case tcell.KeyRune:
			switch ev.Rune() {
			case ' ':
				g.place()
			case 'r', 'R':
				g.reset()
			case 'q', 'Q':
				return true
			}
		}
	case *tcell.EventResize:
		screen.Sync()
	case nil:
		// screen finalized
		return true
	}
	return false
}

func run(ctx context.Context, screen tcell.Screen, g *game) {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			events <- ev
			if ev == nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	last := time.Now()
	g.draw(screen)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if g.handleEvent(screen, ev) {
				return
			}
		case now := <-ticker.C:
			g.step(now.Sub(last).Seconds())
			last = now
			g.draw(screen)
		}
	}
}
