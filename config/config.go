// Copyright 2025 The GitGud Authors. All rights reserved.

// Package config defines the runtime configuration of the demo.
//
// Every field has a sensible default, so a missing or partial TOML
// file is not an error. Loading layers the file over Default and then
// validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the root of the configuration tree.
type Config struct {
	Window Window `toml:"window"`
	Render Render `toml:"render"`
	Camera Camera `toml:"camera"`
	Scene  Scene  `toml:"scene"`
	Assets Assets `toml:"assets"`
}

// Window configures the presentation surface.
type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

// Render configures frame presentation.
type Render struct {
	ClearColor [3]float32 `toml:"clear_color"`
}

// Camera configures projection and movement.
// FOVY is the vertical field of view in degrees.
type Camera struct {
	FOVY      float32 `toml:"fovy"`
	Near      float32 `toml:"near"`
	Far       float32 `toml:"far"`
	MoveSpeed float32 `toml:"move_speed"`
	LookSpeed float32 `toml:"look_speed"`
}

// Scene configures scene population. The placements carry the demo's
// layout; they are plain data so a TOML file can rearrange the park
// without a rebuild.
//
// Seed 0 selects a time-based seed, so every run scatters the plants
// differently. OrbitSpeed is the angular speed, in radians per
// second, at which the point lights revolve around the vertical axis;
// 0 keeps the scene static.
type Scene struct {
	Seed       int64     `toml:"seed"`
	OrbitSpeed float32   `toml:"orbit_speed"`
	Floor      Placement `toml:"floor"`
	Statue     Placement `toml:"statue"`
	Tree       Placement `toml:"tree"`
	Bench      Placement `toml:"bench"`
	Bush       Placement `toml:"bush"`
	Plants     Scatter   `toml:"plants"`
	Light      Light     `toml:"light"`
}

// Placement positions one entity. Rotation is Euler angles in
// radians, applied in Y-X-Z order.
type Placement struct {
	Translation [3]float32 `toml:"translation"`
	Rotation    [3]float32 `toml:"rotation"`
	Scale       [3]float32 `toml:"scale"`
}

// Scatter bounds the random plant placement. Counts are inclusive;
// x and z are drawn from [-Spread, Spread] and a uniform scalar scale
// from [MinScale, MaxScale]. Height is the fixed y of the ground
// plane.
type Scatter struct {
	MinCount int     `toml:"min_count"`
	MaxCount int     `toml:"max_count"`
	Spread   float32 `toml:"spread"`
	MinScale float32 `toml:"min_scale"`
	MaxScale float32 `toml:"max_scale"`
	Height   float32 `toml:"height"`
}

// Light parameterizes the scene's point light.
type Light struct {
	Intensity float32    `toml:"intensity"`
	Radius    float32    `toml:"radius"`
	Color     [3]float32 `toml:"color"`
	Position  [3]float32 `toml:"position"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window: Window{
			Width:  1366,
			Height: 768,
			Title:  "GitGud",
		},
		Render: Render{
			ClearColor: [3]float32{0.01, 0.01, 0.01},
		},
		Camera: Camera{
			FOVY:      50,
			Near:      0.1,
			Far:       100,
			MoveSpeed: 3,
			LookSpeed: 1.5,
		},
		Scene: Scene{
			Floor: Placement{
				Translation: [3]float32{0, 0.5, 0},
				Scale:       [3]float32{6, 1, 6},
			},
			Statue: Placement{
				Translation: [3]float32{1, -0.2, 0},
				Scale:       [3]float32{0.2, 0.2, 0.2},
			},
			Tree: Placement{
				Translation: [3]float32{0.5, 0.5, 0},
				Scale:       [3]float32{0.1, 0.1, 0.1},
			},
			Bench: Placement{
				Translation: [3]float32{2.5, 0.5, -2},
				Rotation:    [3]float32{0, -0.8, 0},
				Scale:       [3]float32{0.5, 0.5, 0.5},
			},
			Bush: Placement{
				Translation: [3]float32{-2, 0.5, 4},
				Rotation:    [3]float32{0, 2, 0},
				Scale:       [3]float32{0.5, 0.5, 0.5},
			},
			Plants: Scatter{
				MinCount: 8,
				MaxCount: 15,
				Spread:   10,
				MinScale: 0.3,
				MaxScale: 1,
				Height:   0.5,
			},
			Light: Light{
				Intensity: 350.2,
				Radius:    1,
				Color:     [3]float32{1, 0.5, 0},
				Position:  [3]float32{-2, -30, -5},
			},
		},
		Assets: Assets{
			ShaderDir: "shaders",
			ModelDir:  "models",
		},
	}
}

// Assets locates files loaded at startup.
type Assets struct {
	ShaderDir string `toml:"shader_dir"`
	ModelDir  string `toml:"model_dir"`
}

// Load reads a TOML file over the defaults and validates the result.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first nonsensical field it finds.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return newErr("window dimensions must be positive")
	case c.Window.Title == "":
		return newErr("window title must not be empty")
	case !inUnit(c.Render.ClearColor):
		return newErr("clear color components must be in [0, 1]")
	case c.Camera.FOVY <= 0 || c.Camera.FOVY >= 180:
		return newErr("camera fovy must be in (0, 180)")
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return newErr("camera planes must satisfy 0 < near < far")
	case c.Camera.MoveSpeed <= 0 || c.Camera.LookSpeed <= 0:
		return newErr("camera speeds must be positive")
	case c.Scene.Plants.MinCount < 0 || c.Scene.Plants.MaxCount < c.Scene.Plants.MinCount:
		return newErr("plant counts must satisfy 0 <= min <= max")
	case c.Scene.Plants.Spread <= 0:
		return newErr("plant spread must be positive")
	case c.Scene.Plants.MinScale <= 0 || c.Scene.Plants.MaxScale < c.Scene.Plants.MinScale:
		return newErr("plant scales must satisfy 0 < min <= max")
	case c.Scene.Light.Intensity < 0:
		return newErr("light intensity must not be negative")
	case c.Scene.Light.Radius <= 0:
		return newErr("light radius must be positive")
	case c.Assets.ShaderDir == "" || c.Assets.ModelDir == "":
		return newErr("asset directories must not be empty")
	}
	return nil
}

func inUnit(v [3]float32) bool {
	for _, x := range v {
		if x < 0 || x > 1 {
			return false
		}
	}
	return true
}

// newErr creates a new configuration error.
func newErr(s string) error { return errors.New("config: " + s) }
