// Copyright 2025 The GitGud Authors. All rights reserved.

package device

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// Buffer couples a vk.Buffer with its memory and an optional host
// mapping. A buffer holds instanceCount instances of instanceSize
// bytes, each aligned to the given minimum offset alignment, which
// matters for uniform buffers addressed with dynamic offsets.
type Buffer struct {
	dev    *Device
	buf    vk.Buffer
	mem    vk.DeviceMemory
	mapped unsafe.Pointer

	instanceSize  vk.DeviceSize
	alignmentSize vk.DeviceSize
	size          vk.DeviceSize
	usage         vk.BufferUsageFlags
	memProps      vk.MemoryPropertyFlags
}

// alignSize rounds instanceSize up to a multiple of minOffsetAlignment.
// A zero or one alignment leaves the size untouched.
func alignSize(instanceSize, minOffsetAlignment vk.DeviceSize) vk.DeviceSize {
	if minOffsetAlignment > 1 {
		return (instanceSize + minOffsetAlignment - 1) &^ (minOffsetAlignment - 1)
	}
	return instanceSize
}

// NewBuffer creates a device buffer sized for instanceCount instances
// of instanceSize bytes. Pass minOffsetAlignment 1 unless the buffer
// is indexed with dynamic offsets.
func NewBuffer(d *Device, instanceSize vk.DeviceSize, instanceCount int, usage vk.BufferUsageFlags, memProps vk.MemoryPropertyFlags, minOffsetAlignment vk.DeviceSize) (*Buffer, error) {
	b := &Buffer{
		dev:           d,
		instanceSize:  instanceSize,
		alignmentSize: alignSize(instanceSize, minOffsetAlignment),
		usage:         usage,
		memProps:      memProps,
	}
	b.size = b.alignmentSize * vk.DeviceSize(instanceCount)
	var err error
	b.buf, b.mem, err = d.CreateBuffer(b.size, usage, memProps)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Map makes the whole buffer host visible.
// The memory must have been allocated host visible.
func (b *Buffer) Map() error {
	if err := vk.Error(vk.MapMemory(b.dev.Handle(), b.mem, 0, b.size, 0, &b.mapped)); err != nil {
		return fmt.Errorf("device: map buffer: %w", err)
	}
	return nil
}

// Unmap releases the host mapping, if any.
func (b *Buffer) Unmap() {
	if b.mapped != nil {
		vk.UnmapMemory(b.dev.Handle(), b.mem)
		b.mapped = nil
	}
}

// Write copies data to the start of the mapped buffer.
func (b *Buffer) Write(data []byte) {
	b.WriteAt(data, 0)
}

// WriteAt copies data to the mapped buffer at the given offset.
// The buffer must be mapped.
func (b *Buffer) WriteAt(data []byte, offset vk.DeviceSize) {
	dst := unsafe.Pointer(uintptr(b.mapped) + uintptr(offset))
	vk.Memcopy(dst, data)
}

// Flush makes all host writes visible to the device.
// Required after Write when the memory is not host coherent.
func (b *Buffer) Flush() error {
	return b.FlushAt(vk.DeviceSize(vk.WholeSize), 0)
}

// FlushAt flushes a range of the buffer's memory.
func (b *Buffer) FlushAt(size, offset vk.DeviceSize) error {
	ranges := []vk.MappedMemoryRange{{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: b.mem,
		Offset: offset,
		Size:   size,
	}}
	if err := vk.Error(vk.FlushMappedMemoryRanges(b.dev.Handle(), 1, ranges)); err != nil {
		return fmt.Errorf("device: flush buffer: %w", err)
	}
	return nil
}

// DescriptorInfo describes the whole buffer for a descriptor write.
func (b *Buffer) DescriptorInfo() vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.buf,
		Offset: 0,
		Range:  b.size,
	}
}

// Handle returns the underlying vk.Buffer.
func (b *Buffer) Handle() vk.Buffer { return b.buf }

// Size returns the total buffer size in bytes.
func (b *Buffer) Size() vk.DeviceSize { return b.size }

// Destroy unmaps and frees the buffer and its memory.
func (b *Buffer) Destroy() {
	b.Unmap()
	if b.buf != vk.NullBuffer {
		vk.DestroyBuffer(b.dev.Handle(), b.buf, nil)
		b.buf = vk.NullBuffer
	}
	if b.mem != vk.NullDeviceMemory {
		vk.FreeMemory(b.dev.Handle(), b.mem, nil)
		b.mem = vk.NullDeviceMemory
	}
}
