package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/stacktower/game/engine"
)

func createValidConfig(name string) *engine.Config {
	config := engine.DefaultConfig()
	config.Name = name
	config.Description = "Preset " + name
	return config
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.Config) {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func writeRaw(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", filename, err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("classic preset becomes default", func(t *testing.T) {
		dir := t.TempDir()
		classic := createValidConfig("Classic Preset")
		writeConfigFile(t, dir, "classic", classic)
		writeConfigFile(t, dir, "another", createValidConfig("Another"))

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Classic Preset" {
			t.Errorf("Expected classic preset as default, got %q", got)
		}
	})

	t.Run("first preset when classic missing", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "zeta", createValidConfig("Zeta"))
		writeConfigFile(t, dir, "alpha", createValidConfig("Alpha"))

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Alpha" {
			t.Errorf("Expected first preset Alpha as default, got %q", got)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		if _, err := NewManager("/non/existent/path"); err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory falls back to built-in tuning", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager should succeed without presets, got: %v", err)
		}
		def := manager.GetDefault()
		if def == nil || def.Name != "classic" || def.MaxBound != engine.DefaultMaxBound {
			t.Errorf("Expected built-in classic default, got %+v", def)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
	writeRaw(t, dir, "easy.yaml", `
name: Easy
description: Wide margin
error_margin: 18
bounds_gain: 10
combo_threshold: 1
oscillation_speed: 1.5
`)
	writeRaw(t, dir, "tiny.yml", "capacity: 4\n")
	writeRaw(t, dir, "broken.json", "{not json")
	writeRaw(t, dir, "invalid.json", `{"name": "Invalid", "max_bound": -1}`)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("json by name", func(t *testing.T) {
		config, err := manager.LoadConfig("classic")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Classic" {
			t.Errorf("Expected name Classic, got %q", config.Name)
		}
	})

	t.Run("yaml keeps unspecified defaults", func(t *testing.T) {
		config, err := manager.LoadConfig("easy")
		if err != nil {
			t.Fatalf("Failed to load yaml config: %v", err)
		}
		if config.ErrorMargin != 18 || config.BoundsGain != 10 || config.ComboThreshold != 1 {
			t.Errorf("Unexpected yaml values: %+v", config)
		}
		if config.MaxBound != engine.DefaultMaxBound || config.Ratio != engine.DefaultRatio {
			t.Errorf("Expected unspecified fields to keep defaults, got %+v", config)
		}
	})

	t.Run("yml with extension and no name", func(t *testing.T) {
		config, err := manager.LoadConfig("tiny.yml")
		if err != nil {
			t.Fatalf("Failed to load yml config: %v", err)
		}
		if config.Name != "tiny" || config.Capacity != 4 {
			t.Errorf("Expected file-named preset with capacity 4, got %+v", config)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := manager.LoadConfig("missing")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := manager.LoadConfig("broken")
		if err == nil || errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected parse error, got %v", err)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := manager.LoadConfig("invalid")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
	writeConfigFile(t, dir, "hard", createValidConfig("Hard"))
	writeRaw(t, dir, "easy.yaml", "name: Easy\n")
	writeRaw(t, dir, "invalid.json", `{"name": "Invalid", "capacity": 0}`)
	writeRaw(t, dir, "notes.txt", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configs, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}

	want := []string{"classic", "easy", "hard"}
	if len(configs) != len(want) {
		t.Fatalf("Expected %d configs, got %d", len(want), len(configs))
	}
	for i, id := range want {
		if configs[i].ConfigID != id {
			t.Errorf("configs[%d]: expected %q, got %q", i, id, configs[i].ConfigID)
		}
	}
	if configs[1].Filename != "easy.yaml" || configs[1].Name != "Easy" {
		t.Errorf("Unexpected yaml entry: %+v", configs[1])
	}
	if configs[0].MaxBound != engine.DefaultMaxBound || configs[0].Capacity != engine.DefaultCapacity {
		t.Errorf("Unexpected tuning summary: %+v", configs[0])
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
	writeConfigFile(t, dir, "hard", createValidConfig("Hard"))

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("hard"); err != nil {
		t.Fatalf("Failed to set default: %v", err)
	}
	if manager.GetDefault().Name != "Hard" {
		t.Errorf("Expected Hard as default, got %q", manager.GetDefault().Name)
	}

	if err := manager.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	custom := createValidConfig("Custom")
	custom.ErrorMargin = 4
	if err := manager.SaveConfig("custom", custom); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "custom.json")); err != nil {
		t.Errorf("Expected custom.json on disk: %v", err)
	}

	// Reload from disk rather than cache
	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("Failed to refresh cache: %v", err)
	}
	loaded, err := manager.LoadConfig("custom")
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.ErrorMargin != 4 || loaded.Name != "Custom" {
		t.Errorf("Saved config did not round-trip: %+v", loaded)
	}

	t.Run("invalid config rejected", func(t *testing.T) {
		bad := createValidConfig("Bad")
		bad.Capacity = 0
		if err := manager.SaveConfig("bad", bad); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("path in name rejected", func(t *testing.T) {
		if err := manager.SaveConfig("../escape", createValidConfig("Escape")); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 5; i++ {
		writeConfigFile(t, dir, fmt.Sprintf("config%d", i), createValidConfig(fmt.Sprintf("Config%d", i)))
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := manager.LoadConfig(fmt.Sprintf("config%d", id%5+1)); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	if manager.Count() < 5 {
		t.Errorf("Expected at least 5 configs in cache, got %d", manager.Count())
	}
}

func TestManager_CachingBehavior(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
	writeConfigFile(t, dir, "test", createValidConfig("Test"))

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	first, err := manager.LoadConfig("test")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	for i := 0; i < 10; i++ {
		config, err := manager.LoadConfig("test.json")
		if err != nil {
			t.Fatalf("Failed to load config on iteration %d: %v", i, err)
		}
		if config != first {
			t.Errorf("Expected cached pointer on iteration %d", i)
		}
	}

	if manager.Count() != 2 {
		t.Errorf("Expected 2 configs in cache, got %d", manager.Count())
	}
}
