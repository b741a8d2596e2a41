// Copyright 2025 The GitGud Authors. All rights reserved.

package object

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestTransformMat4Identity(t *testing.T) {
	tr := Transform{Scale: mgl32.Vec3{1, 1, 1}}
	if got := tr.Mat4(); !got.ApproxEqualThreshold(mgl32.Ident4(), 1e-6) {
		t.Fatalf("identity transform:\n%v", got)
	}
}

func TestTransformMat4Translation(t *testing.T) {
	tr := Transform{
		Translation: mgl32.Vec3{1, -2.5, 3},
		Scale:       mgl32.Vec3{1, 1, 1},
	}
	want := mgl32.Translate3D(1, -2.5, 3)
	if got := tr.Mat4(); !got.ApproxEqualThreshold(want, 1e-6) {
		t.Fatalf("translation:\ngot\n%v\nwant\n%v", got, want)
	}
}

// Mat4 must match the composition translate * rotY * rotX * rotZ * scale.
func TestTransformMat4Composition(t *testing.T) {
	transforms := []Transform{
		{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0.3, 0, 0}},
		{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, -1.2, 0}},
		{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 0, 2.1}},
		{mgl32.Vec3{2, 0.5, -4}, mgl32.Vec3{0.3, 1, 6}, mgl32.Vec3{0.7, -2.9, 1.8}},
		{mgl32.Vec3{-10, 10, 0.1}, mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{3.1, 0.2, -0.6}},
	}
	for i, tr := range transforms {
		want := mgl32.Translate3D(tr.Translation[0], tr.Translation[1], tr.Translation[2]).
			Mul4(mgl32.HomogRotate3DY(tr.Rotation[1])).
			Mul4(mgl32.HomogRotate3DX(tr.Rotation[0])).
			Mul4(mgl32.HomogRotate3DZ(tr.Rotation[2])).
			Mul4(mgl32.Scale3D(tr.Scale[0], tr.Scale[1], tr.Scale[2]))
		if got := tr.Mat4(); !got.ApproxEqualThreshold(want, 1e-5) {
			t.Fatalf("transform %d:\ngot\n%v\nwant\n%v", i, got, want)
		}
	}
}

// NormalMatrix must equal the inverse transpose of Mat4's linear part.
func TestTransformNormalMatrix(t *testing.T) {
	transforms := []Transform{
		{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 0, 0}},
		{mgl32.Vec3{1, 2, 3}, mgl32.Vec3{2, 2, 2}, mgl32.Vec3{0.4, 1.1, 0}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{6, 1, 6}, mgl32.Vec3{-0.2, 0.9, 1.5}},
	}
	for i, tr := range transforms {
		want := tr.Mat4().Mat3().Inv().Transpose()
		if got := tr.NormalMatrix(); !got.ApproxEqualThreshold(want, 1e-4) {
			t.Fatalf("transform %d:\ngot\n%v\nwant\n%v", i, got, want)
		}
	}
}
