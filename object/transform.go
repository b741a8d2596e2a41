// Copyright 2025 The GitGud Authors. All rights reserved.

package object

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Transform places an object in the scene.
// Rotation holds Tait-Bryan angles in radians, applied in Y, X, Z order.
type Transform struct {
	Translation mgl32.Vec3
	Scale       mgl32.Vec3
	Rotation    mgl32.Vec3
}

// Mat4 returns the affine transform
// translate * rotateY * rotateX * rotateZ * scale
// with the rotations expanded into a single matrix.
func (t *Transform) Mat4() mgl32.Mat4 {
	c3, s3 := math32.Cos(t.Rotation[2]), math32.Sin(t.Rotation[2])
	c2, s2 := math32.Cos(t.Rotation[0]), math32.Sin(t.Rotation[0])
	c1, s1 := math32.Cos(t.Rotation[1]), math32.Sin(t.Rotation[1])
	return mgl32.Mat4{
		t.Scale[0] * (c1*c3 + s1*s2*s3), t.Scale[0] * (c2 * s3), t.Scale[0] * (c1*s2*s3 - c3*s1), 0,
		t.Scale[1] * (c3*s1*s2 - c1*s3), t.Scale[1] * (c2 * c3), t.Scale[1] * (c1*c3*s2 + s1*s3), 0,
		t.Scale[2] * (c2 * s1), t.Scale[2] * (-s2), t.Scale[2] * (c1 * c2), 0,
		t.Translation[0], t.Translation[1], t.Translation[2], 1,
	}
}

// NormalMatrix returns the inverse transpose of the linear part of Mat4.
// It is the matrix that carries normals through a non-uniform scale.
func (t *Transform) NormalMatrix() mgl32.Mat3 {
	c3, s3 := math32.Cos(t.Rotation[2]), math32.Sin(t.Rotation[2])
	c2, s2 := math32.Cos(t.Rotation[0]), math32.Sin(t.Rotation[0])
	c1, s1 := math32.Cos(t.Rotation[1]), math32.Sin(t.Rotation[1])
	ix, iy, iz := 1/t.Scale[0], 1/t.Scale[1], 1/t.Scale[2]
	return mgl32.Mat3{
		ix * (c1*c3 + s1*s2*s3), ix * (c2 * s3), ix * (c1*s2*s3 - c3*s1),
		iy * (c3*s1*s2 - c1*s3), iy * (c2 * c3), iy * (c1*c3*s2 + s1*s3),
		iz * (c2 * s1), iz * (-s2), iz * (c1 * c2),
	}
}
