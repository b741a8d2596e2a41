// Copyright 2025 The GitGud Authors. All rights reserved.

package input

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gitgud/glade/object"
	"github.com/gitgud/glade/window"
)

type fakeKeys map[window.Key]bool

func (f fakeKeys) Pressed(k window.Key) bool { return f[k] }

func unitTransform() object.Transform {
	return object.Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

func TestNoKeysNoMotion(t *testing.T) {
	c := NewController(3, 1.5)
	tr := unitTransform()
	c.MoveInPlaneXZ(fakeKeys{}, 0.016, &tr)
	if tr.Translation != (mgl32.Vec3{}) || tr.Rotation != (mgl32.Vec3{}) {
		t.Fatalf("idle keys moved the transform: %+v", tr)
	}
}

func TestMoveForward(t *testing.T) {
	c := NewController(3, 1.5)
	tr := unitTransform()
	c.MoveInPlaneXZ(fakeKeys{window.KeyW: true}, 0.5, &tr)
	// Zero yaw faces +Z.
	want := mgl32.Vec3{0, 0, 1.5}
	if !tr.Translation.ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("forward translation = %v, want %v", tr.Translation, want)
	}
}

func TestMoveFollowsYaw(t *testing.T) {
	c := NewController(2, 1.5)
	tr := unitTransform()
	tr.Rotation[1] = math32.Pi / 2
	c.MoveInPlaneXZ(fakeKeys{window.KeyW: true}, 1, &tr)
	// Quarter turn makes forward +X.
	want := mgl32.Vec3{2, 0, 0}
	if !tr.Translation.ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("yawed translation = %v, want %v", tr.Translation, want)
	}
}

func TestDiagonalIsNormalized(t *testing.T) {
	c := NewController(3, 1.5)
	tr := unitTransform()
	c.MoveInPlaneXZ(fakeKeys{window.KeyW: true, window.KeyD: true}, 1, &tr)
	if got := tr.Translation.Len(); !mgl32.FloatEqualThreshold(got, 3, 1e-4) {
		t.Fatalf("diagonal speed = %v, want 3", got)
	}
}

func TestMoveUpIsWorldUp(t *testing.T) {
	c := NewController(1, 1.5)
	tr := unitTransform()
	tr.Rotation[0] = 1 // pitched, must not affect vertical motion
	c.MoveInPlaneXZ(fakeKeys{window.KeyE: true}, 1, &tr)
	want := mgl32.Vec3{0, -1, 0}
	if !tr.Translation.ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("up translation = %v, want %v", tr.Translation, want)
	}
}

func TestLookRight(t *testing.T) {
	c := NewController(3, 2)
	tr := unitTransform()
	c.MoveInPlaneXZ(fakeKeys{window.KeyRight: true}, 0.25, &tr)
	if !mgl32.FloatEqualThreshold(tr.Rotation[1], 0.5, 1e-5) {
		t.Fatalf("yaw = %v, want 0.5", tr.Rotation[1])
	}
	if tr.Translation != (mgl32.Vec3{}) {
		t.Fatalf("look moved the transform: %v", tr.Translation)
	}
}

func TestPitchClamped(t *testing.T) {
	c := NewController(3, 100)
	tr := unitTransform()
	c.MoveInPlaneXZ(fakeKeys{window.KeyUp: true}, 1, &tr)
	if tr.Rotation[0] != 1.5 {
		t.Fatalf("pitch = %v, want clamped to 1.5", tr.Rotation[0])
	}
	c.MoveInPlaneXZ(fakeKeys{window.KeyDown: true}, 1, &tr)
	c.MoveInPlaneXZ(fakeKeys{window.KeyDown: true}, 1, &tr)
	if tr.Rotation[0] != -1.5 {
		t.Fatalf("pitch = %v, want clamped to -1.5", tr.Rotation[0])
	}
}

func TestYawWraps(t *testing.T) {
	c := NewController(3, 1)
	tr := unitTransform()
	// Look left from zero: the yaw must wrap into [0, 2pi).
	c.MoveInPlaneXZ(fakeKeys{window.KeyLeft: true}, 0.5, &tr)
	if tr.Rotation[1] < 0 || tr.Rotation[1] >= 2*math32.Pi {
		t.Fatalf("yaw = %v, want within [0, 2pi)", tr.Rotation[1])
	}
	if !mgl32.FloatEqualThreshold(tr.Rotation[1], 2*math32.Pi-0.5, 1e-4) {
		t.Fatalf("yaw = %v, want %v", tr.Rotation[1], 2*math32.Pi-0.5)
	}
}
