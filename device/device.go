// Copyright 2025 The GitGud Authors. All rights reserved.

// Package device owns the Vulkan instance and logical device.
//
// It creates the instance, binds the window surface, selects a
// physical device that can render to it and exposes the queues,
// command pool and memory helpers the rest of the renderer builds on.
// All GPU resources created here live until Destroy.
package device

import (
	"errors"
	"fmt"
	"log/slog"

	vk "github.com/goki/vulkan"

	"github.com/gitgud/glade/window"
)

const validationLayer = "VK_LAYER_KHRONOS_validation\x00"

var deviceExtensions = []string{vk.KhrSwapchainExtensionName + "\x00"}

// ErrNoDevice reports that no physical device can render to the surface.
var ErrNoDevice = errors.New("device: no suitable GPU found")

// Options configures device creation.
type Options struct {
	// AppName names the application to the driver.
	AppName string
	// Validation enables the Khronos validation layer.
	// Creation fails if the layer is requested but not installed.
	Validation bool
}

// Device wraps the Vulkan objects shared by every renderer component.
type Device struct {
	win      *window.Window
	instance vk.Instance
	surface  vk.Surface
	physical vk.PhysicalDevice
	device   vk.Device
	families queueFamilies

	graphicsQueue vk.Queue
	presentQueue  vk.Queue
	commandPool   vk.CommandPool

	props vk.PhysicalDeviceProperties
}

// queueFamilies holds the queue family indices rendering requires.
type queueFamilies struct {
	graphics    uint32
	present     uint32
	hasGraphics bool
	hasPresent  bool
}

func (q queueFamilies) complete() bool { return q.hasGraphics && q.hasPresent }

// New creates the instance, surface, logical device and command pool
// for rendering to win.
func New(win *window.Window, opts Options) (*Device, error) {
	d := &Device{win: win}
	if err := d.createInstance(opts); err != nil {
		return nil, err
	}
	surface, err := win.CreateSurface(d.instance)
	if err != nil {
		d.Destroy()
		return nil, err
	}
	d.surface = surface
	if err := d.pickPhysical(); err != nil {
		d.Destroy()
		return nil, err
	}
	if err := d.createLogical(opts); err != nil {
		d.Destroy()
		return nil, err
	}
	if err := d.createCommandPool(); err != nil {
		d.Destroy()
		return nil, err
	}
	return d, nil
}

func (d *Device) createInstance(opts Options) error {
	layers := []string{}
	if opts.Validation {
		ok, err := hasLayer(validationLayer)
		if err != nil {
			return err
		}
		if !ok {
			return newDevErr("validation layer requested but not installed")
		}
		layers = append(layers, validationLayer)
		slog.Info("validation layer enabled")
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(opts.AppName),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "glade\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.MakeVersion(1, 1, 0),
	}
	extensions := safeStrings(d.win.RequiredExtensions())
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}
	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&createInfo, nil, &instance)); err != nil {
		return fmt.Errorf("device: create instance: %w", err)
	}
	d.instance = instance
	return vk.InitInstance(instance)
}

// pickPhysical selects a device that can render to the surface,
// preferring a discrete GPU when more than one qualifies.
func (d *Device) pickPhysical() error {
	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(d.instance, &count, nil)); err != nil {
		return fmt.Errorf("device: enumerate GPUs: %w", err)
	}
	if count == 0 {
		return ErrNoDevice
	}
	physicals := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(d.instance, &count, physicals)); err != nil {
		return fmt.Errorf("device: enumerate GPUs: %w", err)
	}
	slog.Debug("enumerated GPUs", "count", count)

	found := false
	for _, phys := range physicals {
		fams, ok := d.suitable(phys)
		if !ok {
			continue
		}
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(phys, &props)
		props.Deref()
		if !found {
			found = true
			d.physical = phys
			d.families = fams
			d.props = props
		}
		if props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			d.physical = phys
			d.families = fams
			d.props = props
			break
		}
	}
	if !found {
		return ErrNoDevice
	}
	slog.Debug("using GPU", "name", vk.ToString(d.props.DeviceName[:]))
	return nil
}

// suitable reports whether phys can drive the renderer. The device
// must have graphics and present queues, carry the swapchain
// extension, offer at least one surface format and present mode and
// support sampler anisotropy.
func (d *Device) suitable(phys vk.PhysicalDevice) (queueFamilies, bool) {
	fams := d.findQueueFamilies(phys)
	if !fams.complete() || !hasDeviceExtensions(phys) {
		return fams, false
	}
	_, formats, modes := querySwapChainSupport(phys, d.surface)
	if len(formats) == 0 || len(modes) == 0 {
		return fams, false
	}
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(phys, &features)
	features.Deref()
	return fams, features.SamplerAnisotropy.B()
}

func (d *Device) findQueueFamilies(phys vk.PhysicalDevice) queueFamilies {
	var fams queueFamilies
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(phys, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(phys, &count, props)
	for i := range props {
		props[i].Deref()
		if !fams.hasGraphics && props[i].QueueCount > 0 &&
			props[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			fams.graphics = uint32(i)
			fams.hasGraphics = true
		}
		var supported vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(phys, uint32(i), d.surface, &supported)
		if !fams.hasPresent && props[i].QueueCount > 0 && supported.B() {
			fams.present = uint32(i)
			fams.hasPresent = true
		}
		if fams.complete() {
			break
		}
	}
	return fams
}

func hasDeviceExtensions(phys vk.PhysicalDevice) bool {
	var count uint32
	vk.EnumerateDeviceExtensionProperties(phys, "", &count, nil)
	props := make([]vk.ExtensionProperties, count)
	vk.EnumerateDeviceExtensionProperties(phys, "", &count, props)
	available := make(map[string]bool, count)
	for i := range props {
		props[i].Deref()
		available[vk.ToString(props[i].ExtensionName[:])] = true
	}
	for _, want := range deviceExtensions {
		if !available[vk.ToString([]byte(want))] {
			return false
		}
	}
	return true
}

func (d *Device) createLogical(opts Options) error {
	unique := []uint32{d.families.graphics}
	if d.families.present != d.families.graphics {
		unique = append(unique, d.families.present)
	}
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(unique))
	for i, fam := range unique {
		queueInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: fam,
			QueueCount:       1,
			PQueuePriorities: []float32{1},
		}
	}
	layers := []string{}
	if opts.Validation {
		layers = append(layers, validationLayer)
	}
	createInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: uint32(len(queueInfos)),
		PQueueCreateInfos:    queueInfos,
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			SamplerAnisotropy: vk.True,
		}},
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: deviceExtensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}
	var dev vk.Device
	if err := vk.Error(vk.CreateDevice(d.physical, &createInfo, nil, &dev)); err != nil {
		return fmt.Errorf("device: create logical device: %w", err)
	}
	d.device = dev
	var queue vk.Queue
	vk.GetDeviceQueue(dev, d.families.graphics, 0, &queue)
	d.graphicsQueue = queue
	vk.GetDeviceQueue(dev, d.families.present, 0, &queue)
	d.presentQueue = queue
	return nil
}

func (d *Device) createCommandPool() error {
	createInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.families.graphics,
		Flags: vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit |
			vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(d.device, &createInfo, nil, &pool)); err != nil {
		return fmt.Errorf("device: create command pool: %w", err)
	}
	d.commandPool = pool
	return nil
}

// Handle returns the logical device.
func (d *Device) Handle() vk.Device { return d.device }

// GraphicsQueue returns the queue used for draw submission.
func (d *Device) GraphicsQueue() vk.Queue { return d.graphicsQueue }

// PresentQueue returns the queue used for presentation.
func (d *Device) PresentQueue() vk.Queue { return d.presentQueue }

// CommandPool returns the pool command buffers are allocated from.
func (d *Device) CommandPool() vk.CommandPool { return d.commandPool }

// Surface returns the window surface.
func (d *Device) Surface() vk.Surface { return d.surface }

// QueueFamilies returns the graphics and present family indices.
func (d *Device) QueueFamilies() (graphics, present uint32) {
	return d.families.graphics, d.families.present
}

// Properties returns the properties of the selected physical device.
func (d *Device) Properties() vk.PhysicalDeviceProperties { return d.props }

// SwapChainSupport queries the current surface capabilities.
// It is re-queried on every swapchain build because the capabilities
// change when the window is resized.
func (d *Device) SwapChainSupport() (vk.SurfaceCapabilities, []vk.SurfaceFormat, []vk.PresentMode) {
	return querySwapChainSupport(d.physical, d.surface)
}

func querySwapChainSupport(phys vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, []vk.SurfaceFormat, []vk.PresentMode) {
	var caps vk.SurfaceCapabilities
	vk.GetPhysicalDeviceSurfaceCapabilities(phys, surface, &caps)
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	var count uint32
	vk.GetPhysicalDeviceSurfaceFormats(phys, surface, &count, nil)
	formats := make([]vk.SurfaceFormat, count)
	if count > 0 {
		vk.GetPhysicalDeviceSurfaceFormats(phys, surface, &count, formats)
		for i := range formats {
			formats[i].Deref()
		}
	}

	count = 0
	vk.GetPhysicalDeviceSurfacePresentModes(phys, surface, &count, nil)
	modes := make([]vk.PresentMode, count)
	if count > 0 {
		vk.GetPhysicalDeviceSurfacePresentModes(phys, surface, &count, modes)
	}
	return caps, formats, modes
}

// FindMemoryType returns the index of a memory type matching the
// filter and holding all requested property flags.
func (d *Device) FindMemoryType(typeFilter uint32, props vk.MemoryPropertyFlags) (uint32, error) {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.physical, &memProps)
	memProps.Deref()
	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memProps.MemoryTypes[i].Deref()
		if typeFilter&(1<<i) != 0 &&
			memProps.MemoryTypes[i].PropertyFlags&props == props {
			return i, nil
		}
	}
	return 0, newDevErr("no suitable memory type")
}

// FindSupportedFormat returns the first candidate format the device
// supports with the given tiling and features.
func (d *Device) FindSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	for _, format := range candidates {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(d.physical, format, &props)
		props.Deref()
		switch tiling {
		case vk.ImageTilingLinear:
			if props.LinearTilingFeatures&features == features {
				return format, nil
			}
		case vk.ImageTilingOptimal:
			if props.OptimalTilingFeatures&features == features {
				return format, nil
			}
		}
	}
	return 0, newDevErr("no supported format among candidates")
}

// CreateBuffer creates a buffer and binds fresh device memory to it.
func (d *Device) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var buf vk.Buffer
	if err := vk.Error(vk.CreateBuffer(d.device, &createInfo, nil, &buf)); err != nil {
		return vk.NullBuffer, vk.NullDeviceMemory, fmt.Errorf("device: create buffer: %w", err)
	}
	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.device, buf, &req)
	req.Deref()
	memType, err := d.FindMemoryType(req.MemoryTypeBits, props)
	if err != nil {
		vk.DestroyBuffer(d.device, buf, nil)
		return vk.NullBuffer, vk.NullDeviceMemory, err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memType,
	}
	var mem vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(d.device, &allocInfo, nil, &mem)); err != nil {
		vk.DestroyBuffer(d.device, buf, nil)
		return vk.NullBuffer, vk.NullDeviceMemory, fmt.Errorf("device: allocate buffer memory: %w", err)
	}
	vk.BindBufferMemory(d.device, buf, mem, 0)
	return buf, mem, nil
}

// CreateImage creates an image and binds fresh device memory to it.
func (d *Device) CreateImage(createInfo *vk.ImageCreateInfo, props vk.MemoryPropertyFlags) (vk.Image, vk.DeviceMemory, error) {
	var img vk.Image
	if err := vk.Error(vk.CreateImage(d.device, createInfo, nil, &img)); err != nil {
		return vk.NullImage, vk.NullDeviceMemory, fmt.Errorf("device: create image: %w", err)
	}
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, img, &req)
	req.Deref()
	memType, err := d.FindMemoryType(req.MemoryTypeBits, props)
	if err != nil {
		vk.DestroyImage(d.device, img, nil)
		return vk.NullImage, vk.NullDeviceMemory, err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memType,
	}
	var mem vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(d.device, &allocInfo, nil, &mem)); err != nil {
		vk.DestroyImage(d.device, img, nil)
		return vk.NullImage, vk.NullDeviceMemory, fmt.Errorf("device: allocate image memory: %w", err)
	}
	vk.BindImageMemory(d.device, img, mem, 0)
	return img, mem, nil
}

// CopyBuffer copies size bytes from src to dst through a one-shot
// command buffer and waits for the copy to finish.
func (d *Device) CopyBuffer(src, dst vk.Buffer, size vk.DeviceSize) error {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        d.commandPool,
		CommandBufferCount: 1,
	}
	cmds := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(d.device, &allocInfo, cmds)); err != nil {
		return fmt.Errorf("device: allocate copy command buffer: %w", err)
	}
	defer vk.FreeCommandBuffers(d.device, d.commandPool, 1, cmds)

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	vk.BeginCommandBuffer(cmds[0], &beginInfo)
	vk.CmdCopyBuffer(cmds[0], src, dst, 1, []vk.BufferCopy{{Size: size}})
	vk.EndCommandBuffer(cmds[0])

	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    cmds,
	}
	if err := vk.Error(vk.QueueSubmit(d.graphicsQueue, 1, []vk.SubmitInfo{submit}, vk.NullFence)); err != nil {
		return fmt.Errorf("device: submit copy: %w", err)
	}
	if err := vk.Error(vk.QueueWaitIdle(d.graphicsQueue)); err != nil {
		return fmt.Errorf("device: wait for copy: %w", err)
	}
	return nil
}

// WaitIdle blocks until the device finishes all submitted work.
func (d *Device) WaitIdle() {
	if d.device != vk.Device(vk.NullHandle) {
		vk.DeviceWaitIdle(d.device)
	}
}

// Destroy releases every Vulkan object the device owns.
// The device must be idle.
func (d *Device) Destroy() {
	if d.commandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(d.device, d.commandPool, nil)
		d.commandPool = vk.NullCommandPool
	}
	if d.device != vk.Device(vk.NullHandle) {
		vk.DestroyDevice(d.device, nil)
		d.device = vk.Device(vk.NullHandle)
	}
	if d.surface != vk.NullSurface {
		vk.DestroySurface(d.instance, d.surface, nil)
		d.surface = vk.NullSurface
	}
	if d.instance != vk.Instance(vk.NullHandle) {
		vk.DestroyInstance(d.instance, nil)
		d.instance = vk.Instance(vk.NullHandle)
	}
}

func hasLayer(name string) (bool, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return false, fmt.Errorf("device: enumerate layers: %w", err)
	}
	props := make([]vk.LayerProperties, count)
	if count > 0 {
		if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
			return false, fmt.Errorf("device: enumerate layers: %w", err)
		}
	}
	want := vk.ToString([]byte(name))
	for i := range props {
		props[i].Deref()
		if vk.ToString(props[i].LayerName[:]) == want {
			return true, nil
		}
	}
	return false, nil
}

// safeString null-terminates s for handoff to C.
func safeString(s string) string {
	if len(s) == 0 {
		return "\x00"
	}
	if s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

func safeStrings(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = safeString(s)
	}
	return out
}

// newDevErr creates a new device error.
func newDevErr(s string) error { return errors.New("device: " + s) }
