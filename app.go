// Copyright 2025 The GitGud Authors. All rights reserved.

// Package glade is a small real-time park scene renderer. It opens a
// window, brings up a Vulkan device and swapchain, populates a fixed
// park layout (a floor, a statue, trees, benches, bushes, scattered
// plants and an orange sun light) and runs a frame loop with a
// keyboard-driven fly camera until the window is closed.
//
// The cmd/glade command wires this package to flags and a TOML
// configuration file.
package glade

import (
	"log/slog"
	"math/rand"
	"time"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/gitgud/glade/camera"
	"github.com/gitgud/glade/config"
	"github.com/gitgud/glade/device"
	"github.com/gitgud/glade/input"
	"github.com/gitgud/glade/internal/unsafex"
	"github.com/gitgud/glade/model"
	"github.com/gitgud/glade/object"
	"github.com/gitgud/glade/render"
	"github.com/gitgud/glade/rendersys"
	"github.com/gitgud/glade/window"
)

// Options are the command-line toggles that do not belong in the
// configuration file.
type Options struct {
	// Validation enables the Khronos validation layer when present.
	Validation bool
}

// App owns the window, the device and the scene for the lifetime of
// the program. New brings everything up; Run loops until the window
// is closed; Destroy tears it all down.
type App struct {
	cfg      config.Config
	win      *window.Window
	dev      *device.Device
	renderer *render.Renderer
	pool     *device.Pool

	objects *object.Map
	loader  *model.Loader
	rng     *rand.Rand

	// load resolves a model file name to a shared Model. It is a
	// field so scene population can run against a stub in tests.
	load func(name string) (*model.Model, error)
}

// New builds the application and populates the scene. On error,
// everything constructed so far is destroyed.
func New(cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		objects: object.NewMap(),
	}
	fail := func(err error) (*App, error) {
		a.Destroy()
		return nil, err
	}

	seed := cfg.Scene.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	a.rng = rand.New(rand.NewSource(seed))
	slog.Debug("scene rng seeded", "seed", seed)

	var err error
	if a.win, err = window.New(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title); err != nil {
		return fail(err)
	}
	devOpts := device.Options{AppName: cfg.Window.Title, Validation: opts.Validation}
	if a.dev, err = device.New(a.win, devOpts); err != nil {
		return fail(err)
	}
	if a.renderer, err = render.NewRenderer(a.win, a.dev); err != nil {
		return fail(err)
	}
	a.renderer.ClearColor = cfg.Render.ClearColor

	a.pool, err = device.NewPoolBuilder(a.dev).
		SetMaxSets(render.MaxFramesInFlight).
		AddPoolSize(vk.DescriptorTypeUniformBuffer, render.MaxFramesInFlight).
		Build()
	if err != nil {
		return fail(err)
	}

	a.loader = model.NewLoader(a.dev, cfg.Assets.ModelDir)
	a.load = a.loader.Load

	if err = a.populate(); err != nil {
		return fail(err)
	}
	slog.Info("scene populated", "entities", a.objects.Len())
	return a, nil
}

// Run executes the frame loop until the window requests close. It
// waits for the device to go idle before releasing per-run resources,
// so Destroy can run immediately after.
func (a *App) Run() error {
	uboSize := vk.DeviceSize(unsafe.Sizeof(rendersys.GlobalUBO{}))
	var uboBufs [render.MaxFramesInFlight]*device.Buffer
	for i := range uboBufs {
		buf, err := device.NewBuffer(a.dev, uboSize, 1,
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit), 1)
		if err != nil {
			return err
		}
		defer buf.Destroy()
		if err := buf.Map(); err != nil {
			return err
		}
		uboBufs[i] = buf
	}

	setLayout, err := device.NewSetLayoutBuilder(a.dev).
		AddBinding(0, vk.DescriptorTypeUniformBuffer,
			vk.ShaderStageFlags(vk.ShaderStageAllGraphics), 1).
		Build()
	if err != nil {
		return err
	}
	defer setLayout.Destroy()

	var globalSets [render.MaxFramesInFlight]vk.DescriptorSet
	for i := range globalSets {
		set, err := device.NewWriter(setLayout, a.pool).
			WriteBuffer(0, uboBufs[i].DescriptorInfo()).
			Build()
		if err != nil {
			return err
		}
		globalSets[i] = set
	}

	simple, err := rendersys.NewSimple(a.dev, a.renderer.RenderPass(),
		setLayout.Handle(), a.cfg.Assets.ShaderDir)
	if err != nil {
		return err
	}
	defer simple.Destroy()
	lights, err := rendersys.NewPointLight(a.dev, a.renderer.RenderPass(),
		setLayout.Handle(), a.cfg.Assets.ShaderDir, a.cfg.Scene.OrbitSpeed)
	if err != nil {
		return err
	}
	defer lights.Destroy()

	cam := camera.New()
	viewer := newViewer()
	ctrl := input.NewController(a.cfg.Camera.MoveSpeed, a.cfg.Camera.LookSpeed)

	// Runs before the deferred destroys above, so nothing in flight
	// is released early.
	defer a.dev.WaitIdle()

	slog.Info("entering frame loop")
	last := time.Now()
	for !a.win.ShouldClose() {
		a.win.PollEvents()

		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		ctrl.MoveInPlaneXZ(a.win, dt, &viewer)
		cam.SetViewYXZ(viewer.Translation, viewer.Rotation)
		cam.SetPerspective(mgl32.DegToRad(a.cfg.Camera.FOVY),
			a.renderer.AspectRatio(), a.cfg.Camera.Near, a.cfg.Camera.Far)

		cmd, err := a.renderer.BeginFrame()
		if err != nil {
			return err
		}
		if cmd == nil {
			// Swapchain was rebuilt; nothing to draw this iteration.
			continue
		}

		frameIndex := a.renderer.FrameIndex()
		frame := rendersys.FrameInfo{
			FrameIndex: frameIndex,
			FrameTime:  dt,
			Cmd:        cmd,
			Camera:     cam,
			GlobalSet:  globalSets[frameIndex],
			Objects:    a.objects,
		}

		ubo := rendersys.NewGlobalUBO()
		ubo.Projection = cam.Projection()
		ubo.View = cam.View()
		ubo.InverseView = cam.InverseView()
		lights.Update(&frame, &ubo)
		uboBufs[frameIndex].Write(unsafex.StructBytes(&ubo))
		if err := uboBufs[frameIndex].Flush(); err != nil {
			return err
		}

		a.renderer.BeginRenderPass(cmd)
		// Opaque geometry first, then the blended light billboards.
		simple.Render(&frame)
		lights.Render(&frame)
		a.renderer.EndRenderPass(cmd)
		if err := a.renderer.EndFrame(); err != nil {
			return err
		}
	}
	return nil
}

// newViewer returns the camera rig transform, backed away from the
// scene origin and carrying unit scale like every live transform.
func newViewer() object.Transform {
	return object.Transform{
		Translation: mgl32.Vec3{0, 0, -2.5},
		Scale:       mgl32.Vec3{1, 1, 1},
	}
}

// Destroy releases everything New created. It is safe to call on a
// partially constructed App.
func (a *App) Destroy() {
	if a.loader != nil {
		a.loader.DestroyAll()
		a.loader = nil
	}
	if a.pool != nil {
		a.pool.Destroy()
		a.pool = nil
	}
	if a.renderer != nil {
		a.renderer.Destroy()
		a.renderer = nil
	}
	if a.dev != nil {
		a.dev.Destroy()
		a.dev = nil
	}
	if a.win != nil {
		a.win.Destroy()
		a.win = nil
	}
}
