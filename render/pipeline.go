// Copyright 2025 The GitGud Authors. All rights reserved.

package render

import (
	"fmt"
	"os"

	vk "github.com/goki/vulkan"

	"github.com/gitgud/glade/device"
	"github.com/gitgud/glade/internal/unsafex"
)

// PipelineConfig collects the fixed-function state for a graphics
// pipeline. Layout and RenderPass must be set by the caller; the rest
// comes from DefaultPipelineConfig and is meant to be tweaked before
// the pipeline is built.
type PipelineConfig struct {
	BindingDescriptions   []vk.VertexInputBindingDescription
	AttributeDescriptions []vk.VertexInputAttributeDescription

	InputAssembly        vk.PipelineInputAssemblyStateCreateInfo
	Rasterization        vk.PipelineRasterizationStateCreateInfo
	Multisample          vk.PipelineMultisampleStateCreateInfo
	ColorBlendAttachment vk.PipelineColorBlendAttachmentState
	DepthStencil         vk.PipelineDepthStencilStateCreateInfo
	DynamicStates        []vk.DynamicState

	Layout     vk.PipelineLayout
	RenderPass vk.RenderPass
	Subpass    uint32
}

// DefaultPipelineConfig returns opaque triangle-list state with depth
// testing on and dynamic viewport and scissor, which lets pipelines
// survive window resizes untouched.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		InputAssembly: vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vk.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: vk.False,
		},
		Rasterization: vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			LineWidth:   1,
			CullMode:    vk.CullModeFlags(vk.CullModeNone),
			FrontFace:   vk.FrontFaceCounterClockwise,
		},
		Multisample: vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		ColorBlendAttachment: vk.PipelineColorBlendAttachmentState{
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit |
				vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
			BlendEnable: vk.False,
		},
		DepthStencil: vk.PipelineDepthStencilStateCreateInfo{
			SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:  vk.True,
			DepthWriteEnable: vk.True,
			DepthCompareOp:   vk.CompareOpLess,
		},
		DynamicStates: []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor},
	}
}

// EnableAlphaBlending switches the color attachment to standard
// source-over blending.
func (c *PipelineConfig) EnableAlphaBlending() {
	c.ColorBlendAttachment = vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit |
			vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
		BlendEnable:         vk.True,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
	}
}

// Pipeline is a graphics pipeline plus the shader modules it was
// built from.
type Pipeline struct {
	dev      *device.Device
	pipeline vk.Pipeline
	vert     vk.ShaderModule
	frag     vk.ShaderModule
}

// NewPipeline builds a graphics pipeline from two SPIR-V files and
// the given config.
func NewPipeline(dev *device.Device, vertPath, fragPath string, cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Layout == vk.NullPipelineLayout {
		return nil, newRenderErr("pipeline config has no layout")
	}
	if cfg.RenderPass == vk.NullRenderPass {
		return nil, newRenderErr("pipeline config has no render pass")
	}
	p := &Pipeline{dev: dev}
	var err error
	if p.vert, err = loadShaderModule(dev, vertPath); err != nil {
		return nil, err
	}
	if p.frag, err = loadShaderModule(dev, fragPath); err != nil {
		p.Destroy()
		return nil, err
	}

	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: p.vert,
			PName:  "main\x00",
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: p.frag,
			PName:  "main\x00",
		},
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(cfg.BindingDescriptions)),
		PVertexBindingDescriptions:      cfg.BindingDescriptions,
		VertexAttributeDescriptionCount: uint32(len(cfg.AttributeDescriptions)),
		PVertexAttributeDescriptions:    cfg.AttributeDescriptions,
	}
	// Viewport and scissor are dynamic; only their counts matter here.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{cfg.ColorBlendAttachment},
	}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(cfg.DynamicStates)),
		PDynamicStates:    cfg.DynamicStates,
	}

	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &cfg.InputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &cfg.Rasterization,
		PMultisampleState:   &cfg.Multisample,
		PDepthStencilState:  &cfg.DepthStencil,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              cfg.Layout,
		RenderPass:          cfg.RenderPass,
		Subpass:             cfg.Subpass,
		BasePipelineIndex:   -1,
	}
	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(dev.Handle(), vk.PipelineCache(vk.NullHandle),
		1, []vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines)
	if err := vk.Error(res); err != nil {
		p.Destroy()
		return nil, fmt.Errorf("render: create pipeline: %w", err)
	}
	p.pipeline = pipelines[0]
	return p, nil
}

// loadShaderModule reads a SPIR-V file and wraps it in a shader module.
func loadShaderModule(dev *device.Device, path string) (vk.ShaderModule, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return vk.NullShaderModule, fmt.Errorf("render: %w", err)
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return vk.NullShaderModule, fmt.Errorf("render: %s: not SPIR-V (%d bytes)", path, len(code))
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    unsafex.Uint32s(code),
	}
	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(dev.Handle(), &createInfo, nil, &module)); err != nil {
		return vk.NullShaderModule, fmt.Errorf("render: %s: %w", path, err)
	}
	return module, nil
}

// Bind makes the pipeline current on cmd.
func (p *Pipeline) Bind(cmd vk.CommandBuffer) {
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, p.pipeline)
}

// Destroy releases the pipeline and its shader modules.
func (p *Pipeline) Destroy() {
	if p.vert != vk.NullShaderModule {
		vk.DestroyShaderModule(p.dev.Handle(), p.vert, nil)
		p.vert = vk.NullShaderModule
	}
	if p.frag != vk.NullShaderModule {
		vk.DestroyShaderModule(p.dev.Handle(), p.frag, nil)
		p.frag = vk.NullShaderModule
	}
	if p.pipeline != vk.NullPipeline {
		vk.DestroyPipeline(p.dev.Handle(), p.pipeline, nil)
		p.pipeline = vk.NullPipeline
	}
}
