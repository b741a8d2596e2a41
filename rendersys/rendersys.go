// Copyright 2025 The GitGud Authors. All rights reserved.

// Package rendersys implements the per-frame draw passes of the demo.
// Each system owns one graphics pipeline and its layout; all of them
// share a single global descriptor set carrying the frame's uniform
// data. Systems are constructed once after the swapchain render pass
// exists and record into the command buffer handed to them in a
// FrameInfo.
package rendersys

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/gitgud/glade/camera"
	"github.com/gitgud/glade/device"
	"github.com/gitgud/glade/object"
)

// MaxLights is the fixed capacity of the point light array in the
// global uniform block. It must match the array length declared in
// the fragment shaders.
const MaxLights = 10

// pushStages covers both stages that read push constants in the demo
// shaders.
const pushStages = vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit)

// FrameInfo bundles everything a render system needs to record one
// frame. It is rebuilt by the application every iteration of the main
// loop and passed by pointer; systems must not retain it.
type FrameInfo struct {
	FrameIndex int
	FrameTime  float32
	Cmd        vk.CommandBuffer
	Camera     *camera.Camera
	GlobalSet  vk.DescriptorSet
	Objects    *object.Map
}

// PointLightData is one element of the light array in GlobalUBO.
// Position is a point in world space with w=1; Color carries the
// light color in xyz and its intensity in w.
type PointLightData struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

// GlobalUBO is the per-frame uniform block, laid out to match the
// std140 GlobalUbo declaration in the shaders byte for byte. The
// trailing pads round the block up to a 16-byte multiple.
type GlobalUBO struct {
	Projection   mgl32.Mat4
	View         mgl32.Mat4
	InverseView  mgl32.Mat4
	AmbientColor mgl32.Vec4
	PointLights  [MaxLights]PointLightData
	NumLights    int32
	pad0         int32
	pad1         int32
	pad2         int32
}

// NewGlobalUBO returns a block with identity matrices and a dim white
// ambient term. The caller overwrites the matrices every frame.
func NewGlobalUBO() GlobalUBO {
	return GlobalUBO{
		Projection:   mgl32.Ident4(),
		View:         mgl32.Ident4(),
		InverseView:  mgl32.Ident4(),
		AmbientColor: mgl32.Vec4{1, 1, 1, 0.02},
	}
}

// newPipelineLayout builds a layout with the global descriptor set
// and a single push constant range of pushSize bytes visible to the
// vertex and fragment stages.
func newPipelineLayout(dev *device.Device, globalLayout vk.DescriptorSetLayout, pushSize uint32) (vk.PipelineLayout, error) {
	info := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         1,
		PSetLayouts:            []vk.DescriptorSetLayout{globalLayout},
		PushConstantRangeCount: 1,
		PPushConstantRanges: []vk.PushConstantRange{{
			StageFlags: pushStages,
			Offset:     0,
			Size:       pushSize,
		}},
	}
	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(dev.Handle(), &info, nil, &layout); res != vk.Success {
		return vk.NullPipelineLayout, fmt.Errorf("rendersys: create pipeline layout: %w", vk.Error(res))
	}
	return layout, nil
}
