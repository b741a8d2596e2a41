// Copyright 2025 The GitGud Authors. All rights reserved.

// Package render drives presentation: it owns the swapchain, the
// per-frame command buffers and the graphics pipelines, and exposes
// the begin/end bracket the frame loop records into.
package render

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/gitgud/glade/device"
)

// MaxFramesInFlight is the number of frames the CPU may record ahead
// of the GPU. Per-frame resources (command buffers, uniform buffers,
// descriptor sets) are arrays of this size.
const MaxFramesInFlight = 2

// ErrOutOfDate reports that the swapchain no longer matches the
// surface and must be rebuilt before rendering can continue.
var ErrOutOfDate = errors.New("render: swapchain out of date")

// SwapChain owns the presentation images and everything tied to their
// identity: depth buffers, render pass, framebuffers and the
// per-frame synchronization objects.
type SwapChain struct {
	dev *device.Device

	swapchain   vk.Swapchain
	imageFormat vk.Format
	depthFormat vk.Format
	extent      vk.Extent2D

	images       []vk.Image
	imageViews   []vk.ImageView
	depthImages  []vk.Image
	depthMems    []vk.DeviceMemory
	depthViews   []vk.ImageView
	renderPass   vk.RenderPass
	framebuffers []vk.Framebuffer

	imageAvailable []vk.Semaphore
	renderFinished []vk.Semaphore
	inFlight       []vk.Fence
	imagesInFlight []vk.Fence
	currentFrame   int
}

// NewSwapChain builds a swapchain for the given framebuffer extent.
func NewSwapChain(dev *device.Device, extent vk.Extent2D) (*SwapChain, error) {
	return newSwapChain(dev, extent, vk.NullSwapchain)
}

// NewSwapChainFrom builds a replacement swapchain, handing the old
// one to the driver so in-flight presents can finish. The old
// swapchain must still be destroyed by its owner afterwards.
func NewSwapChainFrom(dev *device.Device, extent vk.Extent2D, old *SwapChain) (*SwapChain, error) {
	return newSwapChain(dev, extent, old.swapchain)
}

func newSwapChain(dev *device.Device, extent vk.Extent2D, old vk.Swapchain) (*SwapChain, error) {
	s := &SwapChain{dev: dev}
	err := s.createSwapchain(extent, old)
	if err == nil {
		err = s.createImageViews()
	}
	if err == nil {
		err = s.createRenderPass()
	}
	if err == nil {
		err = s.createDepthResources()
	}
	if err == nil {
		err = s.createFramebuffers()
	}
	if err == nil {
		err = s.createSyncObjects()
	}
	if err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *SwapChain) createSwapchain(windowExtent vk.Extent2D, old vk.Swapchain) error {
	caps, formats, modes := s.dev.SwapChainSupport()
	surfaceFormat := chooseSurfaceFormat(formats)
	presentMode := choosePresentMode(modes)
	extent := chooseExtent(caps, windowExtent)

	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          s.dev.Surface(),
		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     old,
	}
	graphics, present := s.dev.QueueFamilies()
	if graphics != present {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{graphics, present}
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(s.dev.Handle(), &createInfo, nil, &swapchain)); err != nil {
		return fmt.Errorf("render: create swapchain: %w", err)
	}
	s.swapchain = swapchain
	s.imageFormat = surfaceFormat.Format
	s.extent = extent

	var count uint32
	vk.GetSwapchainImages(s.dev.Handle(), s.swapchain, &count, nil)
	s.images = make([]vk.Image, count)
	vk.GetSwapchainImages(s.dev.Handle(), s.swapchain, &count, s.images)
	return nil
}

func (s *SwapChain) createImageViews() error {
	s.imageViews = make([]vk.ImageView, len(s.images))
	for i, img := range s.images {
		view, err := s.createImageView(img, s.imageFormat, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			return err
		}
		s.imageViews[i] = view
	}
	return nil
}

func (s *SwapChain) createImageView(img vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(s.dev.Handle(), &createInfo, nil, &view)); err != nil {
		return vk.NullImageView, fmt.Errorf("render: create image view: %w", err)
	}
	return view, nil
}

func (s *SwapChain) createRenderPass() error {
	depthFormat, err := s.findDepthFormat()
	if err != nil {
		return err
	}
	s.depthFormat = depthFormat

	colorAttachment := vk.AttachmentDescription{
		Format:         s.imageFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	depthAttachment := vk.AttachmentDescription{
		Format:         depthFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	colorRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}
	depthRef := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       []vk.AttachmentReference{colorRef},
		PDepthStencilAttachment: &depthRef,
	}
	dependency := vk.SubpassDependency{
		SrcSubpass: vk.SubpassExternal,
		DstSubpass: 0,
		SrcStageMask: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) |
			vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
		SrcAccessMask: 0,
		DstStageMask: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) |
			vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit) |
			vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
	}

	attachments := []vk.AttachmentDescription{colorAttachment, depthAttachment}
	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(s.dev.Handle(), &createInfo, nil, &renderPass)); err != nil {
		return fmt.Errorf("render: create render pass: %w", err)
	}
	s.renderPass = renderPass
	return nil
}

func (s *SwapChain) findDepthFormat() (vk.Format, error) {
	return s.dev.FindSupportedFormat(
		[]vk.Format{vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint},
		vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit))
}

// createDepthResources creates one depth image per swapchain image,
// so every acquired image renders against its own depth buffer.
func (s *SwapChain) createDepthResources() error {
	n := len(s.images)
	s.depthImages = make([]vk.Image, n)
	s.depthMems = make([]vk.DeviceMemory, n)
	s.depthViews = make([]vk.ImageView, n)
	for i := 0; i < n; i++ {
		createInfo := vk.ImageCreateInfo{
			SType:     vk.StructureTypeImageCreateInfo,
			ImageType: vk.ImageType2d,
			Extent: vk.Extent3D{
				Width:  s.extent.Width,
				Height: s.extent.Height,
				Depth:  1,
			},
			MipLevels:     1,
			ArrayLayers:   1,
			Format:        s.depthFormat,
			Tiling:        vk.ImageTilingOptimal,
			InitialLayout: vk.ImageLayoutUndefined,
			Usage:         vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
			Samples:       vk.SampleCount1Bit,
			SharingMode:   vk.SharingModeExclusive,
		}
		img, mem, err := s.dev.CreateImage(&createInfo, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
		if err != nil {
			return err
		}
		s.depthImages[i] = img
		s.depthMems[i] = mem
		view, err := s.createImageView(img, s.depthFormat, vk.ImageAspectFlags(vk.ImageAspectDepthBit))
		if err != nil {
			return err
		}
		s.depthViews[i] = view
	}
	return nil
}

func (s *SwapChain) createFramebuffers() error {
	s.framebuffers = make([]vk.Framebuffer, len(s.imageViews))
	for i := range s.imageViews {
		attachments := []vk.ImageView{s.imageViews[i], s.depthViews[i]}
		createInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      s.renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           s.extent.Width,
			Height:          s.extent.Height,
			Layers:          1,
		}
		var fb vk.Framebuffer
		if err := vk.Error(vk.CreateFramebuffer(s.dev.Handle(), &createInfo, nil, &fb)); err != nil {
			return fmt.Errorf("render: create framebuffer %d: %w", i, err)
		}
		s.framebuffers[i] = fb
	}
	return nil
}

func (s *SwapChain) createSyncObjects() error {
	s.imageAvailable = make([]vk.Semaphore, MaxFramesInFlight)
	s.renderFinished = make([]vk.Semaphore, MaxFramesInFlight)
	s.inFlight = make([]vk.Fence, MaxFramesInFlight)
	s.imagesInFlight = make([]vk.Fence, len(s.images))

	semInfo := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	// Fences start signaled so the first wait on each frame returns
	// immediately.
	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	for i := 0; i < MaxFramesInFlight; i++ {
		if err := vk.Error(vk.CreateSemaphore(s.dev.Handle(), &semInfo, nil, &s.imageAvailable[i])); err != nil {
			return fmt.Errorf("render: create semaphore: %w", err)
		}
		if err := vk.Error(vk.CreateSemaphore(s.dev.Handle(), &semInfo, nil, &s.renderFinished[i])); err != nil {
			return fmt.Errorf("render: create semaphore: %w", err)
		}
		if err := vk.Error(vk.CreateFence(s.dev.Handle(), &fenceInfo, nil, &s.inFlight[i])); err != nil {
			return fmt.Errorf("render: create fence: %w", err)
		}
	}
	return nil
}

// Acquire blocks until the current frame slot is free and acquires
// the next presentation image. It returns ErrOutOfDate when the
// swapchain must be rebuilt.
func (s *SwapChain) Acquire() (uint32, error) {
	fences := []vk.Fence{s.inFlight[s.currentFrame]}
	vk.WaitForFences(s.dev.Handle(), 1, fences, vk.True, math.MaxUint64)

	var imageIndex uint32
	res := vk.AcquireNextImage(s.dev.Handle(), s.swapchain, math.MaxUint64,
		s.imageAvailable[s.currentFrame], vk.NullFence, &imageIndex)
	switch {
	case res == vk.ErrorOutOfDate:
		return 0, ErrOutOfDate
	case res != vk.Success && res != vk.Suboptimal:
		return 0, fmt.Errorf("render: acquire image: %w", vk.Error(res))
	}
	return imageIndex, nil
}

// Submit hands the recorded command buffer to the graphics queue and
// queues the image for presentation. It returns ErrOutOfDate when the
// present reports an out-of-date or suboptimal swapchain.
func (s *SwapChain) Submit(cmd vk.CommandBuffer, imageIndex uint32) error {
	// A previous frame may still be rendering to this image.
	if s.imagesInFlight[imageIndex] != vk.NullFence {
		vk.WaitForFences(s.dev.Handle(), 1, []vk.Fence{s.imagesInFlight[imageIndex]}, vk.True, math.MaxUint64)
	}
	s.imagesInFlight[imageIndex] = s.inFlight[s.currentFrame]

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{s.imageAvailable[s.currentFrame]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{s.renderFinished[s.currentFrame]},
	}
	vk.ResetFences(s.dev.Handle(), 1, []vk.Fence{s.inFlight[s.currentFrame]})
	if err := vk.Error(vk.QueueSubmit(s.dev.GraphicsQueue(), 1, []vk.SubmitInfo{submitInfo}, s.inFlight[s.currentFrame])); err != nil {
		return fmt.Errorf("render: queue submit: %w", err)
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{s.renderFinished[s.currentFrame]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.swapchain},
		PImageIndices:      []uint32{imageIndex},
	}
	res := vk.QueuePresent(s.dev.PresentQueue(), &presentInfo)
	s.currentFrame = (s.currentFrame + 1) % MaxFramesInFlight

	switch {
	case res == vk.ErrorOutOfDate || res == vk.Suboptimal:
		return ErrOutOfDate
	case res != vk.Success:
		return fmt.Errorf("render: queue present: %w", vk.Error(res))
	}
	return nil
}

// RenderPass returns the pass framebuffers were built for.
func (s *SwapChain) RenderPass() vk.RenderPass { return s.renderPass }

// Framebuffer returns the framebuffer for a swapchain image.
func (s *SwapChain) Framebuffer(imageIndex uint32) vk.Framebuffer {
	return s.framebuffers[imageIndex]
}

// Extent returns the swapchain image size in pixels.
func (s *SwapChain) Extent() vk.Extent2D { return s.extent }

// AspectRatio returns width over height of the swapchain images.
func (s *SwapChain) AspectRatio() float32 {
	return float32(s.extent.Width) / float32(s.extent.Height)
}

// ImageCount returns the number of presentation images.
func (s *SwapChain) ImageCount() int { return len(s.images) }

// CompatibleWith reports whether other uses the same image and depth
// formats, which makes render passes interchangeable between them.
func (s *SwapChain) CompatibleWith(other *SwapChain) bool {
	return s.imageFormat == other.imageFormat && s.depthFormat == other.depthFormat
}

// Destroy releases all swapchain resources.
// The device must be idle.
func (s *SwapChain) Destroy() {
	dev := s.dev.Handle()
	for _, view := range s.imageViews {
		vk.DestroyImageView(dev, view, nil)
	}
	s.imageViews = nil
	if s.swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(dev, s.swapchain, nil)
		s.swapchain = vk.NullSwapchain
	}
	for i := range s.depthImages {
		vk.DestroyImageView(dev, s.depthViews[i], nil)
		vk.DestroyImage(dev, s.depthImages[i], nil)
		vk.FreeMemory(dev, s.depthMems[i], nil)
	}
	s.depthImages, s.depthMems, s.depthViews = nil, nil, nil
	for _, fb := range s.framebuffers {
		vk.DestroyFramebuffer(dev, fb, nil)
	}
	s.framebuffers = nil
	if s.renderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(dev, s.renderPass, nil)
		s.renderPass = vk.NullRenderPass
	}
	for i := range s.imageAvailable {
		vk.DestroySemaphore(dev, s.imageAvailable[i], nil)
		vk.DestroySemaphore(dev, s.renderFinished[i], nil)
		vk.DestroyFence(dev, s.inFlight[i], nil)
	}
	s.imageAvailable, s.renderFinished, s.inFlight = nil, nil, nil
}

func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

// choosePresentMode prefers mailbox for low latency without tearing
// and falls back to fifo, which every driver must support.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			slog.Debug("present mode", "mode", "mailbox")
			return m
		}
	}
	slog.Debug("present mode", "mode", "fifo")
	return vk.PresentModeFifo
}

func chooseExtent(caps vk.SurfaceCapabilities, windowExtent vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampU32(windowExtent.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampU32(windowExtent.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clampU32(v, lo, hi uint32) uint32 {
	return min(max(v, lo), hi)
}
