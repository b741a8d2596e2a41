// Copyright 2025 The GitGud Authors. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 1366, cfg.Window.Width)
	require.Equal(t, 768, cfg.Window.Height)
	require.Equal(t, "GitGud", cfg.Window.Title)
	require.Equal(t, [3]float32{1, 0.5, 0}, cfg.Scene.Light.Color)
	require.Equal(t, float32(350.2), cfg.Scene.Light.Intensity)
	require.Equal(t, [3]float32{6, 1, 6}, cfg.Scene.Floor.Scale)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glade.toml")
	data := `
[window]
width = 800
height = 600
title = "park"

[render]
clear_color = [0.1, 0.2, 0.3]

[scene]
seed = 42
orbit_speed = 0.5

[scene.bush]
translation = [1.0, 0.5, -3.0]
rotation = [0.0, 1.0, 0.0]
scale = [0.4, 0.4, 0.4]

[scene.plants]
min_count = 4
max_count = 6
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 800, cfg.Window.Width)
	require.Equal(t, 600, cfg.Window.Height)
	require.Equal(t, "park", cfg.Window.Title)
	require.Equal(t, [3]float32{0.1, 0.2, 0.3}, cfg.Render.ClearColor)
	require.Equal(t, int64(42), cfg.Scene.Seed)
	require.Equal(t, float32(0.5), cfg.Scene.OrbitSpeed)
	require.Equal(t, [3]float32{1, 0.5, -3}, cfg.Scene.Bush.Translation)
	require.Equal(t, 4, cfg.Scene.Plants.MinCount)
	require.Equal(t, 6, cfg.Scene.Plants.MaxCount)
	// Unset sections and fields keep their defaults.
	require.Equal(t, float32(50), cfg.Camera.FOVY)
	require.Equal(t, float32(10), cfg.Scene.Plants.Spread)
	require.Equal(t, [3]float32{-2, -30, -5}, cfg.Scene.Light.Position)
	require.Equal(t, "models", cfg.Assets.ModelDir)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadUnreadableFile(t *testing.T) {
	// A directory where the file should be is an error, not defaults.
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[window\nwidth="), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.Window.Width = 0 },
		func(c *Config) { c.Window.Height = -1 },
		func(c *Config) { c.Window.Title = "" },
		func(c *Config) { c.Camera.FOVY = 0 },
		func(c *Config) { c.Camera.FOVY = 180 },
		func(c *Config) { c.Camera.Near = 0 },
		func(c *Config) { c.Camera.Far = c.Camera.Near },
		func(c *Config) { c.Camera.MoveSpeed = 0 },
		func(c *Config) { c.Camera.LookSpeed = -2 },
		func(c *Config) { c.Render.ClearColor[1] = 1.5 },
		func(c *Config) { c.Render.ClearColor[2] = -0.1 },
		func(c *Config) { c.Scene.Plants.MinCount = -1 },
		func(c *Config) { c.Scene.Plants.MaxCount = c.Scene.Plants.MinCount - 1 },
		func(c *Config) { c.Scene.Plants.Spread = 0 },
		func(c *Config) { c.Scene.Plants.MinScale = 0 },
		func(c *Config) { c.Scene.Plants.MaxScale = 0.1 },
		func(c *Config) { c.Scene.Light.Intensity = -1 },
		func(c *Config) { c.Scene.Light.Radius = 0 },
		func(c *Config) { c.Assets.ShaderDir = "" },
		func(c *Config) { c.Assets.ModelDir = "" },
	}
	for i, mutate := range bad {
		cfg := Default()
		mutate(&cfg)
		require.Errorf(t, cfg.Validate(), "case %d", i)
	}
}
