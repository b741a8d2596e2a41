// Copyright 2025 The GitGud Authors. All rights reserved.

package rendersys

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gitgud/glade/object"
)

func TestPointLightUpdate(t *testing.T) {
	objs := object.NewMap()
	objs.New() // no light, must be skipped
	l1 := objs.NewPointLight(5, 0.5, mgl32.Vec3{1, 0, 0})
	l1.Transform.Translation = mgl32.Vec3{1, -2, 3}
	l2 := objs.NewPointLight(350.2, 1, mgl32.Vec3{1, 0.5, 0})
	l2.Transform.Translation = mgl32.Vec3{-2, -30, -5}

	var sys PointLight
	ubo := NewGlobalUBO()
	sys.Update(&FrameInfo{FrameTime: 0.016, Objects: objs}, &ubo)

	if ubo.NumLights != 2 {
		t.Fatalf("NumLights = %d, want 2", ubo.NumLights)
	}
	want0 := PointLightData{
		Position: mgl32.Vec4{1, -2, 3, 1},
		Color:    mgl32.Vec4{1, 0, 0, 5},
	}
	if ubo.PointLights[0] != want0 {
		t.Errorf("PointLights[0] = %+v, want %+v", ubo.PointLights[0], want0)
	}
	want1 := PointLightData{
		Position: mgl32.Vec4{-2, -30, -5, 1},
		Color:    mgl32.Vec4{1, 0.5, 0, 350.2},
	}
	if ubo.PointLights[1] != want1 {
		t.Errorf("PointLights[1] = %+v, want %+v", ubo.PointLights[1], want1)
	}

	// Without an orbit speed the light transforms stay put.
	if l1.Transform.Translation != (mgl32.Vec3{1, -2, 3}) {
		t.Errorf("light 1 moved to %v", l1.Transform.Translation)
	}
	if l2.Transform.Translation != (mgl32.Vec3{-2, -30, -5}) {
		t.Errorf("light 2 moved to %v", l2.Transform.Translation)
	}
}

func TestPointLightUpdateCapacity(t *testing.T) {
	objs := object.NewMap()
	for i := 0; i < MaxLights+3; i++ {
		l := objs.NewPointLight(1, 1, mgl32.Vec3{1, 1, 1})
		l.Transform.Translation = mgl32.Vec3{float32(i), 0, 0}
	}

	var sys PointLight
	ubo := NewGlobalUBO()
	sys.Update(&FrameInfo{Objects: objs}, &ubo)

	if ubo.NumLights != MaxLights {
		t.Fatalf("NumLights = %d, want %d", ubo.NumLights, MaxLights)
	}
	for i := 0; i < MaxLights; i++ {
		if got := ubo.PointLights[i].Position.X(); got != float32(i) {
			t.Errorf("PointLights[%d].Position.X = %v, want %d", i, got, i)
		}
	}
}

func TestPointLightUpdateOrbit(t *testing.T) {
	objs := object.NewMap()
	l := objs.NewPointLight(1, 1, mgl32.Vec3{1, 1, 1})
	l.Transform.Translation = mgl32.Vec3{1, 0, 0}

	sys := PointLight{orbitSpeed: math32.Pi / 2}
	ubo := NewGlobalUBO()
	sys.Update(&FrameInfo{FrameTime: 1, Objects: objs}, &ubo)

	// A quarter turn about {0,-1,0} carries +X onto +Z.
	want := mgl32.Vec3{0, 0, 1}
	if !l.Transform.Translation.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("orbited translation = %v, want about %v", l.Transform.Translation, want)
	}
	got := ubo.PointLights[0].Position.Vec3()
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("UBO position = %v, want about %v", got, want)
	}
	if ubo.PointLights[0].Position.W() != 1 {
		t.Errorf("UBO position w = %v, want 1", ubo.PointLights[0].Position.W())
	}
}
