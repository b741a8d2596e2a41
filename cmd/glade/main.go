// Copyright 2025 The GitGud Authors. All rights reserved.

// Command glade renders a small park scene in a window. It reads an
// optional TOML configuration file and otherwise runs on built-in
// defaults; see the config package for the file layout.
package main

import (
	"flag"
	"log/slog"
	"os"
	"runtime"

	"github.com/pkg/profile"

	"github.com/gitgud/glade"
	"github.com/gitgud/glade/config"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	var (
		confPath   = flag.String("config", "glade.toml", "TOML configuration `file` (built-in defaults when absent)")
		debug      = flag.Bool("debug", false, "enable the Vulkan validation layer and debug logging")
		cpuProfile = flag.String("cpuprofile", "", "write a CPU profile to `dir`")
		seed       = flag.Int64("seed", 0, "override the scene seed (0 keeps the configured one)")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*confPath, *seed, *debug, *cpuProfile); err != nil {
		slog.Error("glade failed", "err", err)
		os.Exit(1)
	}
}

func run(confPath string, seed int64, debug bool, profileDir string) error {
	cfg, err := config.Load(confPath)
	if err != nil {
		return err
	}
	if seed != 0 {
		cfg.Scene.Seed = seed
	}

	if profileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(profileDir), profile.NoShutdownHook).Stop()
	}

	app, err := glade.New(cfg, glade.Options{Validation: debug})
	if err != nil {
		return err
	}
	defer app.Destroy()
	return app.Run()
}
