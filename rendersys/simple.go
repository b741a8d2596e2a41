// Copyright 2025 The GitGud Authors. All rights reserved.

package rendersys

import (
	"path/filepath"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/gitgud/glade/device"
	"github.com/gitgud/glade/model"
	"github.com/gitgud/glade/render"
)

// SimplePush is the per-object push constant block of the simple
// pipeline. NormalMatrix is the 3x3 normal matrix embedded in a mat4
// so the block matches the shader declaration.
type SimplePush struct {
	ModelMatrix  mgl32.Mat4
	NormalMatrix mgl32.Mat4
}

// Simple draws every object that has a model, lit by the global
// ambient term and point light array.
type Simple struct {
	dev      *device.Device
	layout   vk.PipelineLayout
	pipeline *render.Pipeline
}

// NewSimple builds the opaque geometry pipeline against the given
// render pass. Shader binaries are read from shaderDir.
func NewSimple(dev *device.Device, renderPass vk.RenderPass, globalLayout vk.DescriptorSetLayout, shaderDir string) (*Simple, error) {
	layout, err := newPipelineLayout(dev, globalLayout, uint32(unsafe.Sizeof(SimplePush{})))
	if err != nil {
		return nil, err
	}
	cfg := render.DefaultPipelineConfig()
	cfg.BindingDescriptions = model.BindingDescriptions()
	cfg.AttributeDescriptions = model.AttributeDescriptions()
	cfg.Layout = layout
	cfg.RenderPass = renderPass
	p, err := render.NewPipeline(dev,
		filepath.Join(shaderDir, "simple.vert.spv"),
		filepath.Join(shaderDir, "simple.frag.spv"),
		cfg)
	if err != nil {
		vk.DestroyPipelineLayout(dev.Handle(), layout, nil)
		return nil, err
	}
	return &Simple{dev: dev, layout: layout, pipeline: p}, nil
}

// Render records one draw per object with a model, in insertion
// order. Objects without a model are skipped.
func (s *Simple) Render(frame *FrameInfo) {
	s.pipeline.Bind(frame.Cmd)
	vk.CmdBindDescriptorSets(frame.Cmd, vk.PipelineBindPointGraphics, s.layout,
		0, 1, []vk.DescriptorSet{frame.GlobalSet}, 0, nil)

	for obj := range frame.Objects.All() {
		if obj.Model == nil {
			continue
		}
		push := SimplePush{
			ModelMatrix:  obj.Transform.Mat4(),
			NormalMatrix: obj.Transform.NormalMatrix().Mat4(),
		}
		vk.CmdPushConstants(frame.Cmd, s.layout, pushStages,
			0, uint32(unsafe.Sizeof(push)), unsafe.Pointer(&push))
		obj.Model.Bind(frame.Cmd)
		obj.Model.Draw(frame.Cmd)
	}
}

// Destroy releases the pipeline and its layout.
func (s *Simple) Destroy() {
	s.pipeline.Destroy()
	vk.DestroyPipelineLayout(s.dev.Handle(), s.layout, nil)
	s.layout = vk.NullPipelineLayout
}
