// Copyright 2025 The GitGud Authors. All rights reserved.

// Package window wraps GLFW for Vulkan rendering.
//
// GLFW requires its calls to happen on the main OS thread, so the
// package locks the initial goroutine to it. Everything here must be
// called from the goroutine that runs main.
package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
)

func init() {
	runtime.LockOSThread()
}

// Window is a GLFW window with a Vulkan-capable surface.
type Window struct {
	win     *glfw.Window
	width   int
	height  int
	resized bool
}

// New initializes GLFW and the Vulkan loader and opens a resizable
// window without an OpenGL context. It fails if the system has no
// Vulkan loader available.
func New(width, height int, title string) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("window: glfw init: %w", err)
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, newWinErr("vulkan not supported")
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window: vulkan init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window: create: %w", err)
	}
	w := &Window{win: win, width: width, height: height}
	win.SetFramebufferSizeCallback(w.onFramebufferResize)
	return w, nil
}

func (w *Window) onFramebufferResize(_ *glfw.Window, width, height int) {
	w.width = width
	w.height = height
	w.resized = true
}

// CreateSurface creates a Vulkan surface for the window.
func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.win.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("window: create surface: %w", err)
	}
	return vk.SurfaceFromPointer(ptr), nil
}

// RequiredExtensions returns the instance extensions GLFW needs to
// present to this window.
func (w *Window) RequiredExtensions() []string {
	return w.win.GetRequiredInstanceExtensions()
}

// Extent returns the framebuffer size in pixels.
func (w *Window) Extent() (width, height int) {
	return w.win.GetFramebufferSize()
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool {
	return w.win.ShouldClose()
}

// PollEvents processes pending window events.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitForRestore blocks while the framebuffer has zero area, which
// happens when the window is minimized.
func (w *Window) WaitForRestore() {
	for {
		width, height := w.win.GetFramebufferSize()
		if width != 0 && height != 0 {
			return
		}
		glfw.WaitEvents()
	}
}

// Resized reports whether the framebuffer changed size since the last
// ResetResized.
func (w *Window) Resized() bool { return w.resized }

// ResetResized clears the resize flag.
func (w *Window) ResetResized() { w.resized = false }

// Key identifies a keyboard key.
type Key = glfw.Key

// Keys commonly bound to camera movement.
const (
	KeyA     = glfw.KeyA
	KeyD     = glfw.KeyD
	KeyW     = glfw.KeyW
	KeyS     = glfw.KeyS
	KeyE     = glfw.KeyE
	KeyQ     = glfw.KeyQ
	KeyLeft  = glfw.KeyLeft
	KeyRight = glfw.KeyRight
	KeyUp    = glfw.KeyUp
	KeyDown  = glfw.KeyDown
)

// Pressed reports whether key is currently held down.
func (w *Window) Pressed(key Key) bool {
	return w.win.GetKey(key) == glfw.Press
}

// Destroy closes the window and shuts GLFW down.
func (w *Window) Destroy() {
	w.win.Destroy()
	glfw.Terminate()
}

// newWinErr creates a new window error.
func newWinErr(s string) error { return errors.New("window: " + s) }
