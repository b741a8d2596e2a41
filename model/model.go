// Copyright 2025 The GitGud Authors. All rights reserved.

// Package model loads meshes and owns their GPU buffers.
//
// A mesh starts as a Builder, either filled by the OBJ parser or by
// hand, and becomes a Model once its vertex and index data are
// uploaded to device-local memory. Models are immutable after upload
// and are meant to be shared by any number of scene objects.
package model

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/gitgud/glade/device"
	"github.com/gitgud/glade/internal/unsafex"
)

// Vertex is the vertex layout consumed by the render pipelines.
// Fields are laid out to match the shader input locations in order.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// BindingDescriptions returns the vertex buffer binding layout.
func BindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}}
}

// AttributeDescriptions returns the per-attribute vertex layout.
func AttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{Binding: 0, Location: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Position))},
		{Binding: 0, Location: 1, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Color))},
		{Binding: 0, Location: 2, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Normal))},
		{Binding: 0, Location: 3, Format: vk.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.UV))},
	}
}

// Builder accumulates mesh data before upload.
type Builder struct {
	Vertices []Vertex
	Indices  []uint32
}

// Model is an uploaded mesh.
type Model struct {
	dev *device.Device

	vertexBuffer *device.Buffer
	vertexCount  uint32

	indexBuffer *device.Buffer
	indexCount  uint32
}

// New uploads the builder's data to device-local buffers.
// The builder must hold at least three vertices. Index data is
// optional; without it the model draws its vertices in order.
func New(dev *device.Device, b *Builder) (*Model, error) {
	if len(b.Vertices) < 3 {
		return nil, newModelErr("mesh needs at least 3 vertices")
	}
	m := &Model{dev: dev, vertexCount: uint32(len(b.Vertices))}
	var err error
	m.vertexBuffer, err = upload(dev, unsafex.SliceBytes(b.Vertices), vk.BufferUsageVertexBufferBit)
	if err != nil {
		return nil, err
	}
	if len(b.Indices) > 0 {
		m.indexCount = uint32(len(b.Indices))
		m.indexBuffer, err = upload(dev, unsafex.SliceBytes(b.Indices), vk.BufferUsageIndexBufferBit)
		if err != nil {
			m.vertexBuffer.Destroy()
			return nil, err
		}
	}
	return m, nil
}

// Load parses an OBJ file and uploads it.
func Load(dev *device.Device, path string) (*Model, error) {
	b, err := LoadOBJ(path)
	if err != nil {
		return nil, err
	}
	return New(dev, b)
}

// upload pushes data through a host-visible staging buffer into a new
// device-local buffer with the given usage.
func upload(dev *device.Device, data []byte, usage vk.BufferUsageFlagBits) (*device.Buffer, error) {
	size := vk.DeviceSize(len(data))
	staging, err := device.NewBuffer(dev, size, 1,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit), 1)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()
	if err := staging.Map(); err != nil {
		return nil, err
	}
	staging.Write(data)

	buf, err := device.NewBuffer(dev, size, 1,
		vk.BufferUsageFlags(usage|vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), 1)
	if err != nil {
		return nil, err
	}
	if err := dev.CopyBuffer(staging.Handle(), buf.Handle(), size); err != nil {
		buf.Destroy()
		return nil, err
	}
	return buf, nil
}

// Bind attaches the model's buffers to a command buffer.
func (m *Model) Bind(cmd vk.CommandBuffer) {
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{m.vertexBuffer.Handle()}, []vk.DeviceSize{0})
	if m.indexBuffer != nil {
		vk.CmdBindIndexBuffer(cmd, m.indexBuffer.Handle(), 0, vk.IndexTypeUint32)
	}
}

// Draw records a draw of the whole mesh.
// The model must be bound to cmd first.
func (m *Model) Draw(cmd vk.CommandBuffer) {
	if m.indexBuffer != nil {
		vk.CmdDrawIndexed(cmd, m.indexCount, 1, 0, 0, 0)
		return
	}
	vk.CmdDraw(cmd, m.vertexCount, 1, 0, 0)
}

// Destroy frees the model's GPU buffers.
func (m *Model) Destroy() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Destroy()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Destroy()
		m.indexBuffer = nil
	}
}

// newModelErr creates a new model error.
func newModelErr(s string) error { return errors.New("model: " + s) }

// pathErr prefixes an error with the file it came from.
func pathErr(path string, err error) error {
	return fmt.Errorf("model: %s: %w", path, err)
}
