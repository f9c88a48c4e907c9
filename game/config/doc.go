// Package config provides preset management for the Stack Tower game.
//
// The config package handles:
//   - Loading tuning presets from JSON or YAML files
//   - Validation through engine.ValidateConfig
//   - Default preset selection
//   - Preset discovery and listing
//
// Preset Format:
//
// Presets live in a config directory as name.json, name.yaml or name.yml.
// Fields use snake_case keys (max_bound, error_margin, bounds_gain, ...).
// Any field a preset leaves out keeps its classic value, so a preset only
// needs to list what it changes:
//
//	name: easy
//	error_margin: 18
//	combo_threshold: 1
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	hard, err := manager.LoadConfig("hard")
//	def := manager.GetDefault()
//	presets, err := manager.ListConfigs()
//
// The default preset is "classic" when the directory has one, otherwise
// the first valid preset, otherwise the built-in classic tuning.
package config
