// Copyright 2025 The GitGud Authors. All rights reserved.

package rendersys

import (
	"cmp"
	"log/slog"
	"path/filepath"
	"slices"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/gitgud/glade/device"
	"github.com/gitgud/glade/object"
	"github.com/gitgud/glade/render"
)

// PointLightPush is the per-light push constant block of the point
// light pipeline. Color carries intensity in w, Radius the billboard
// radius in world units.
type PointLightPush struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
	Radius   float32
	pad0     float32
	pad1     float32
	pad2     float32
}

// PointLight draws every light-carrying object as a camera-facing
// billboard disc and publishes the light array into the global
// uniform block each frame.
type PointLight struct {
	dev        *device.Device
	layout     vk.PipelineLayout
	pipeline   *render.Pipeline
	orbitSpeed float32
}

// NewPointLight builds the billboard pipeline against the given
// render pass. The billboard corners are generated in the vertex
// shader, so the pipeline has no vertex input. orbitSpeed is the
// angular speed, in radians per second, at which Update revolves the
// lights around the scene's vertical axis; zero leaves them in place.
func NewPointLight(dev *device.Device, renderPass vk.RenderPass, globalLayout vk.DescriptorSetLayout, shaderDir string, orbitSpeed float32) (*PointLight, error) {
	layout, err := newPipelineLayout(dev, globalLayout, uint32(unsafe.Sizeof(PointLightPush{})))
	if err != nil {
		return nil, err
	}
	cfg := render.DefaultPipelineConfig()
	cfg.EnableAlphaBlending()
	cfg.Layout = layout
	cfg.RenderPass = renderPass
	p, err := render.NewPipeline(dev,
		filepath.Join(shaderDir, "point_light.vert.spv"),
		filepath.Join(shaderDir, "point_light.frag.spv"),
		cfg)
	if err != nil {
		vk.DestroyPipelineLayout(dev.Handle(), layout, nil)
		return nil, err
	}
	return &PointLight{dev: dev, layout: layout, pipeline: p, orbitSpeed: orbitSpeed}, nil
}

// Update copies the scene's lights into ubo and sets NumLights. When
// an orbit speed was configured it first revolves each light around
// the world Y axis by speed*FrameTime. Lights beyond MaxLights are
// dropped.
func (s *PointLight) Update(frame *FrameInfo, ubo *GlobalUBO) {
	var rot mgl32.Mat4
	if s.orbitSpeed != 0 {
		rot = mgl32.HomogRotate3D(s.orbitSpeed*frame.FrameTime, mgl32.Vec3{0, -1, 0})
	}

	n := 0
	dropped := 0
	for obj := range frame.Objects.All() {
		if obj.Light == nil {
			continue
		}
		if n == MaxLights {
			dropped++
			continue
		}
		if s.orbitSpeed != 0 {
			obj.Transform.Translation = rot.Mul4x1(obj.Transform.Translation.Vec4(1)).Vec3()
		}
		ubo.PointLights[n] = PointLightData{
			Position: obj.Transform.Translation.Vec4(1),
			Color:    obj.Color.Vec4(obj.Light.Intensity),
		}
		n++
	}
	ubo.NumLights = int32(n)
	if dropped > 0 {
		slog.Debug("point light capacity exceeded", "max", MaxLights, "dropped", dropped)
	}
}

// Render draws the lights farthest first so nearer billboards blend
// over those behind them.
func (s *PointLight) Render(frame *FrameInfo) {
	type entry struct {
		obj    *object.Object
		distSq float32
	}
	var lights []entry
	camPos := frame.Camera.Position()
	for obj := range frame.Objects.All() {
		if obj.Light == nil {
			continue
		}
		off := camPos.Sub(obj.Transform.Translation)
		lights = append(lights, entry{obj, off.Dot(off)})
	}
	slices.SortFunc(lights, func(a, b entry) int {
		return cmp.Compare(b.distSq, a.distSq)
	})

	s.pipeline.Bind(frame.Cmd)
	vk.CmdBindDescriptorSets(frame.Cmd, vk.PipelineBindPointGraphics, s.layout,
		0, 1, []vk.DescriptorSet{frame.GlobalSet}, 0, nil)

	for _, l := range lights {
		push := PointLightPush{
			Position: l.obj.Transform.Translation.Vec4(1),
			Color:    l.obj.Color.Vec4(l.obj.Light.Intensity),
			Radius:   l.obj.Transform.Scale[0],
		}
		vk.CmdPushConstants(frame.Cmd, s.layout, pushStages,
			0, uint32(unsafe.Sizeof(push)), unsafe.Pointer(&push))
		vk.CmdDraw(frame.Cmd, 6, 1, 0, 0)
	}
}

// Destroy releases the pipeline and its layout.
func (s *PointLight) Destroy() {
	s.pipeline.Destroy()
	vk.DestroyPipelineLayout(s.dev.Handle(), s.layout, nil)
	s.layout = vk.NullPipelineLayout
}
