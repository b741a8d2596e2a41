// Copyright 2025 The GitGud Authors. All rights reserved.

package render

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/gitgud/glade/device"
	"github.com/gitgud/glade/window"
)

// Renderer pairs a swapchain with per-frame command buffers and keeps
// both alive across window resizes. A frame is bracketed by
// BeginFrame/EndFrame, with the render pass bracketed inside it.
type Renderer struct {
	win *window.Window
	dev *device.Device
	sc  *SwapChain

	// ClearColor is the color attachment clear value. Changing it
	// takes effect on the next BeginRenderPass.
	ClearColor [3]float32

	cmds         []vk.CommandBuffer
	currentImage uint32
	frameIndex   int
	frameStarted bool
}

// NewRenderer builds the swapchain for the window's current size and
// allocates one command buffer per frame in flight.
func NewRenderer(win *window.Window, dev *device.Device) (*Renderer, error) {
	r := &Renderer{win: win, dev: dev, ClearColor: [3]float32{0.01, 0.01, 0.01}}
	if err := r.recreateSwapChain(); err != nil {
		return nil, err
	}
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        dev.CommandPool(),
		CommandBufferCount: MaxFramesInFlight,
	}
	r.cmds = make([]vk.CommandBuffer, MaxFramesInFlight)
	if err := vk.Error(vk.AllocateCommandBuffers(dev.Handle(), &allocInfo, r.cmds)); err != nil {
		r.sc.Destroy()
		return nil, fmt.Errorf("render: allocate command buffers: %w", err)
	}
	return r, nil
}

// recreateSwapChain rebuilds the swapchain for the current
// framebuffer size, blocking while the window is minimized.
// Image and depth formats must survive the rebuild, otherwise every
// pipeline built against the render pass would be stale.
func (r *Renderer) recreateSwapChain() error {
	r.win.WaitForRestore()
	width, height := r.win.Extent()
	extent := vk.Extent2D{Width: uint32(width), Height: uint32(height)}
	r.dev.WaitIdle()

	if r.sc == nil {
		sc, err := NewSwapChain(r.dev, extent)
		if err != nil {
			return err
		}
		r.sc = sc
		return nil
	}
	old := r.sc
	sc, err := NewSwapChainFrom(r.dev, extent, old)
	if err != nil {
		old.Destroy()
		r.sc = nil
		return err
	}
	compatible := old.CompatibleWith(sc)
	old.Destroy()
	r.sc = sc
	if !compatible {
		return newRenderErr("swapchain image or depth format changed")
	}
	return nil
}

// BeginFrame acquires the next image and starts recording.
// A nil command buffer with a nil error means the swapchain was just
// rebuilt and the frame should be skipped.
func (r *Renderer) BeginFrame() (vk.CommandBuffer, error) {
	if r.frameStarted {
		panic("render: BeginFrame inside an open frame")
	}
	imageIndex, err := r.sc.Acquire()
	if errors.Is(err, ErrOutOfDate) {
		if err := r.recreateSwapChain(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.currentImage = imageIndex
	r.frameStarted = true

	cmd := r.cmds[r.frameIndex]
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if err := vk.Error(vk.BeginCommandBuffer(cmd, &beginInfo)); err != nil {
		r.frameStarted = false
		return nil, fmt.Errorf("render: begin command buffer: %w", err)
	}
	return cmd, nil
}

// EndFrame finishes recording and submits the frame. A resize or an
// out-of-date swapchain triggers a rebuild and is not an error.
func (r *Renderer) EndFrame() error {
	if !r.frameStarted {
		panic("render: EndFrame without an open frame")
	}
	cmd := r.cmds[r.frameIndex]
	if err := vk.Error(vk.EndCommandBuffer(cmd)); err != nil {
		return fmt.Errorf("render: end command buffer: %w", err)
	}
	err := r.sc.Submit(cmd, r.currentImage)
	if errors.Is(err, ErrOutOfDate) || r.win.Resized() {
		r.win.ResetResized()
		err = r.recreateSwapChain()
	}
	r.frameStarted = false
	r.frameIndex = (r.frameIndex + 1) % MaxFramesInFlight
	return err
}

// BeginRenderPass starts the swapchain render pass on the acquired
// image, clearing color and depth, and sets the dynamic viewport and
// scissor to cover the whole image.
func (r *Renderer) BeginRenderPass(cmd vk.CommandBuffer) {
	if !r.frameStarted {
		panic("render: BeginRenderPass without an open frame")
	}
	var clearValues [2]vk.ClearValue
	clearValues[0].SetColor([]float32{r.ClearColor[0], r.ClearColor[1], r.ClearColor[2], 1})
	clearValues[1].SetDepthStencil(1, 0)

	extent := r.sc.Extent()
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  r.sc.RenderPass(),
		Framebuffer: r.sc.Framebuffer(r.currentImage),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues[:],
	}
	vk.CmdBeginRenderPass(cmd, &beginInfo, vk.SubpassContentsInline)

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{viewport})
	scissor := vk.Rect2D{Offset: vk.Offset2D{X: 0, Y: 0}, Extent: extent}
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{scissor})
}

// EndRenderPass closes the swapchain render pass.
func (r *Renderer) EndRenderPass(cmd vk.CommandBuffer) {
	if !r.frameStarted {
		panic("render: EndRenderPass without an open frame")
	}
	vk.CmdEndRenderPass(cmd)
}

// RenderPass returns the swapchain's render pass, which pipelines are
// built against.
func (r *Renderer) RenderPass() vk.RenderPass { return r.sc.RenderPass() }

// AspectRatio returns the swapchain's width over height.
func (r *Renderer) AspectRatio() float32 { return r.sc.AspectRatio() }

// FrameIndex returns the current frame-in-flight slot.
// Only valid between BeginFrame and EndFrame.
func (r *Renderer) FrameIndex() int {
	if !r.frameStarted {
		panic("render: FrameIndex without an open frame")
	}
	return r.frameIndex
}

// FrameInProgress reports whether a frame bracket is open.
func (r *Renderer) FrameInProgress() bool { return r.frameStarted }

// Destroy frees the command buffers and the swapchain.
// The device must be idle.
func (r *Renderer) Destroy() {
	if len(r.cmds) > 0 {
		vk.FreeCommandBuffers(r.dev.Handle(), r.dev.CommandPool(), uint32(len(r.cmds)), r.cmds)
		r.cmds = nil
	}
	if r.sc != nil {
		r.sc.Destroy()
		r.sc = nil
	}
}

// newRenderErr creates a new renderer error.
func newRenderErr(s string) error { return errors.New("render: " + s) }
