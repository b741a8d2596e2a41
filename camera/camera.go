// Copyright 2025 The GitGud Authors. All rights reserved.

// Package camera maintains the projection and view matrices used to
// render a scene.
//
// Matrices target Vulkan clip space: right-handed, +Y down and a
// [0, 1] depth range. The world convention matches, so -Y is up and
// the camera looks down +Z when its rotation is zero.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera holds the current projection and view.
// The zero value is not ready for use; call New.
type Camera struct {
	proj    mgl32.Mat4
	view    mgl32.Mat4
	invView mgl32.Mat4
}

// New returns a camera with identity projection and view.
func New() *Camera {
	return &Camera{
		proj:    mgl32.Ident4(),
		view:    mgl32.Ident4(),
		invView: mgl32.Ident4(),
	}
}

// SetOrthographic sets a box-shaped projection volume.
// The box spans [left, right] x [top, bottom] x [near, far] in view
// space and maps onto Vulkan's canonical volume.
func (c *Camera) SetOrthographic(left, right, top, bottom, near, far float32) {
	c.proj = mgl32.Mat4{
		2 / (right - left), 0, 0, 0,
		0, 2 / (bottom - top), 0, 0,
		0, 0, 1 / (far - near), 0,
		-(right + left) / (right - left), -(bottom + top) / (bottom - top), -near / (far - near), 1,
	}
}

// SetPerspective sets a frustum projection.
// fovy is the vertical field of view in radians; aspect is width over
// height and must be non-zero. Depth maps to [0, 1] with near at 0.
func (c *Camera) SetPerspective(fovy, aspect, near, far float32) {
	tanHalf := math32.Tan(fovy / 2)
	c.proj = mgl32.Mat4{
		1 / (aspect * tanHalf), 0, 0, 0,
		0, 1 / tanHalf, 0, 0,
		0, 0, far / (far - near), 1,
		0, 0, -(far * near) / (far - near), 0,
	}
}

// SetViewDirection points the camera along direction from position.
// direction must be non-zero and up must not be parallel to it.
func (c *Camera) SetViewDirection(position, direction, up mgl32.Vec3) {
	w := direction.Normalize()
	u := w.Cross(up).Normalize()
	v := w.Cross(u)
	c.setView(position, u, v, w)
}

// SetViewTarget points the camera at target from position.
func (c *Camera) SetViewTarget(position, target, up mgl32.Vec3) {
	c.SetViewDirection(position, target.Sub(position), up)
}

// SetViewYXZ derives the view from a position and Tait-Bryan angles
// in radians, applied in Y, X, Z order. It is the inverse of the
// matching object transform, so a camera and an object given the same
// position and rotation coincide.
func (c *Camera) SetViewYXZ(position, rotation mgl32.Vec3) {
	c3, s3 := math32.Cos(rotation[2]), math32.Sin(rotation[2])
	c2, s2 := math32.Cos(rotation[0]), math32.Sin(rotation[0])
	c1, s1 := math32.Cos(rotation[1]), math32.Sin(rotation[1])
	u := mgl32.Vec3{c1*c3 + s1*s2*s3, c2 * s3, c1*s2*s3 - c3*s1}
	v := mgl32.Vec3{c3*s1*s2 - c1*s3, c2 * c3, c1*c3*s2 + s1*s3}
	w := mgl32.Vec3{c2 * s1, -s2, c1 * c2}
	c.setView(position, u, v, w)
}

// setView builds view and inverse view from an orthonormal basis.
func (c *Camera) setView(p, u, v, w mgl32.Vec3) {
	c.view = mgl32.Mat4{
		u[0], v[0], w[0], 0,
		u[1], v[1], w[1], 0,
		u[2], v[2], w[2], 0,
		-u.Dot(p), -v.Dot(p), -w.Dot(p), 1,
	}
	c.invView = mgl32.Mat4{
		u[0], u[1], u[2], 0,
		v[0], v[1], v[2], 0,
		w[0], w[1], w[2], 0,
		p[0], p[1], p[2], 1,
	}
}

// Projection returns the current projection matrix.
func (c *Camera) Projection() mgl32.Mat4 { return c.proj }

// View returns the current view matrix.
func (c *Camera) View() mgl32.Mat4 { return c.view }

// InverseView returns the current inverse view matrix.
func (c *Camera) InverseView() mgl32.Mat4 { return c.invView }

// Position returns the camera's world-space position.
func (c *Camera) Position() mgl32.Vec3 {
	return mgl32.Vec3{c.invView[12], c.invView[13], c.invView[14]}
}
