package engine

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Default tuning, measured in stack units where one layer is Ratio thick.
const (
	DefaultRatio            = 20.0
	DefaultMaxBound         = 3.5 * DefaultRatio
	DefaultErrorMargin      = 0.5 * DefaultRatio
	DefaultBoundsGain       = 0.25 * DefaultRatio
	DefaultComboThreshold   = 3
	DefaultOscillationSpeed = 2.5
	DefaultMoveSpeed        = 5.0
	DefaultCapacity         = 16
	DefaultDebrisClearance  = 0.01
	DefaultColorFrequency   = 0.15
)

// DefaultPalette is the four-stop color ramp used when a config has none
var DefaultPalette = []string{"#f6d365", "#fda085", "#a18cd1", "#5ee7df"}

// Config holds the tuning constants of a game. It is fixed once an engine
// has been constructed from it.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`

	Ratio            float64 `json:"ratio" yaml:"ratio"`
	MaxBound         float64 `json:"max_bound" yaml:"max_bound"`
	ErrorMargin      float64 `json:"error_margin" yaml:"error_margin"`
	BoundsGain       float64 `json:"bounds_gain" yaml:"bounds_gain"`
	ComboThreshold   int     `json:"combo_threshold" yaml:"combo_threshold"`
	OscillationSpeed float64 `json:"oscillation_speed" yaml:"oscillation_speed"`
	MoveSpeed        float64 `json:"move_speed" yaml:"move_speed"`
	Capacity         int     `json:"capacity" yaml:"capacity"`
	DebrisClearance  float64 `json:"debris_clearance" yaml:"debris_clearance"`

	ColorFrequency float64  `json:"color_frequency" yaml:"color_frequency"`
	Palette        []string `json:"palette,omitempty" yaml:"palette,omitempty"`
}

// DefaultConfig returns the classic tuning
func DefaultConfig() *Config {
	return &Config{
		Name:             "classic",
		Description:      "Classic stack tower tuning",
		Ratio:            DefaultRatio,
		MaxBound:         DefaultMaxBound,
		ErrorMargin:      DefaultErrorMargin,
		BoundsGain:       DefaultBoundsGain,
		ComboThreshold:   DefaultComboThreshold,
		OscillationSpeed: DefaultOscillationSpeed,
		MoveSpeed:        DefaultMoveSpeed,
		Capacity:         DefaultCapacity,
		DebrisClearance:  DefaultDebrisClearance,
		ColorFrequency:   DefaultColorFrequency,
		Palette:          append([]string(nil), DefaultPalette...),
	}
}

// ValidateConfig checks a configuration for values the engine cannot run with
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if strings.TrimSpace(config.Name) == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Ratio <= 0 {
		return fmt.Errorf("config validation: ratio must be positive, got %v", config.Ratio)
	}
	if config.MaxBound <= 0 {
		return fmt.Errorf("config validation: max_bound must be positive, got %v", config.MaxBound)
	}
	if config.ErrorMargin < 0 {
		return fmt.Errorf("config validation: error_margin must not be negative, got %v", config.ErrorMargin)
	}
	if config.ErrorMargin >= config.MaxBound {
		return fmt.Errorf("config validation: error_margin (%v) must be smaller than max_bound (%v)",
			config.ErrorMargin, config.MaxBound)
	}
	if config.BoundsGain < 0 {
		return fmt.Errorf("config validation: bounds_gain must not be negative, got %v", config.BoundsGain)
	}
	if config.ComboThreshold < 0 {
		return fmt.Errorf("config validation: combo_threshold must not be negative, got %d", config.ComboThreshold)
	}
	if config.OscillationSpeed < 0 {
		return fmt.Errorf("config validation: oscillation_speed must not be negative, got %v", config.OscillationSpeed)
	}
	if config.MoveSpeed < 0 {
		return fmt.Errorf("config validation: move_speed must not be negative, got %v", config.MoveSpeed)
	}
	if config.Capacity < MinCapacity || config.Capacity > MaxCapacity {
		return fmt.Errorf("config validation: capacity must be between %d and %d, got %d",
			MinCapacity, MaxCapacity, config.Capacity)
	}
	// Debris narrower than nothing would invert; the smallest cut is just over ErrorMargin.
	if config.DebrisClearance < 0 || (config.DebrisClearance > 0 && config.DebrisClearance >= config.ErrorMargin) {
		return fmt.Errorf("config validation: debris_clearance must be in [0, error_margin), got %v", config.DebrisClearance)
	}
	if len(config.Palette) != 0 {
		if _, err := ParsePalette(config.Palette); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
	}

	return nil
}

// ParsePalette decodes exactly four hex colors
func ParsePalette(hexes []string) ([PaletteSize]colorful.Color, error) {
	var palette [PaletteSize]colorful.Color
	if len(hexes) != PaletteSize {
		return palette, fmt.Errorf("palette must have %d colors, got %d", PaletteSize, len(hexes))
	}
	for i, h := range hexes {
		c, err := colorful.Hex(strings.TrimSpace(h))
		if err != nil {
			return palette, fmt.Errorf("palette[%d] %q: %w", i, h, err)
		}
		palette[i] = c
	}
	return palette, nil
}

// palette returns the parsed palette, falling back to DefaultPalette
func (c *Config) palette() [PaletteSize]colorful.Color {
	if p, err := ParsePalette(c.Palette); err == nil {
		return p
	}
	p, _ := ParsePalette(DefaultPalette)
	return p
}
