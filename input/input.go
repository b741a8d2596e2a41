// Copyright 2025 The GitGud Authors. All rights reserved.

// Package input translates keyboard state into camera-rig motion.
package input

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gitgud/glade/object"
	"github.com/gitgud/glade/window"
)

// Keys below this squared length count as no input at all.
const epsilon = 1e-7

// KeyState reports whether a key is held down. *window.Window
// implements it; tests substitute their own state to stay headless.
type KeyState interface {
	Pressed(key window.Key) bool
}

// Keymap binds movement actions to keys.
type Keymap struct {
	MoveLeft     window.Key
	MoveRight    window.Key
	MoveForward  window.Key
	MoveBackward window.Key
	MoveUp       window.Key
	MoveDown     window.Key
	LookLeft     window.Key
	LookRight    window.Key
	LookUp       window.Key
	LookDown     window.Key
}

// DefaultKeymap binds WASD plus E/Q for movement and the arrow keys
// for looking around.
func DefaultKeymap() Keymap {
	return Keymap{
		MoveLeft:     window.KeyA,
		MoveRight:    window.KeyD,
		MoveForward:  window.KeyW,
		MoveBackward: window.KeyS,
		MoveUp:       window.KeyE,
		MoveDown:     window.KeyQ,
		LookLeft:     window.KeyLeft,
		LookRight:    window.KeyRight,
		LookUp:       window.KeyUp,
		LookDown:     window.KeyDown,
	}
}

// Controller applies keyboard movement to a transform.
type Controller struct {
	Keys      Keymap
	MoveSpeed float32
	LookSpeed float32
}

// NewController returns a controller with the default keymap.
func NewController(moveSpeed, lookSpeed float32) *Controller {
	return &Controller{
		Keys:      DefaultKeymap(),
		MoveSpeed: moveSpeed,
		LookSpeed: lookSpeed,
	}
}

// MoveInPlaneXZ rotates tr from the look keys and translates it in
// the horizontal plane from the move keys, scaled by the frame time
// dt in seconds. Pitch is clamped so the rig cannot flip over and yaw
// wraps into [0, 2pi). Up/down movement stays axis aligned, so the
// rig height does not drift while looking around.
func (c *Controller) MoveInPlaneXZ(keys KeyState, dt float32, tr *object.Transform) {
	var rotate mgl32.Vec3
	if keys.Pressed(c.Keys.LookRight) {
		rotate[1]++
	}
	if keys.Pressed(c.Keys.LookLeft) {
		rotate[1]--
	}
	if keys.Pressed(c.Keys.LookUp) {
		rotate[0]++
	}
	if keys.Pressed(c.Keys.LookDown) {
		rotate[0]--
	}
	if rotate.Dot(rotate) > epsilon {
		tr.Rotation = tr.Rotation.Add(rotate.Normalize().Mul(c.LookSpeed * dt))
	}
	tr.Rotation[0] = mgl32.Clamp(tr.Rotation[0], -1.5, 1.5)
	tr.Rotation[1] = wrapAngle(tr.Rotation[1])

	yaw := tr.Rotation[1]
	forward := mgl32.Vec3{math32.Sin(yaw), 0, math32.Cos(yaw)}
	right := mgl32.Vec3{forward[2], 0, -forward[0]}
	up := mgl32.Vec3{0, -1, 0}

	var move mgl32.Vec3
	if keys.Pressed(c.Keys.MoveForward) {
		move = move.Add(forward)
	}
	if keys.Pressed(c.Keys.MoveBackward) {
		move = move.Sub(forward)
	}
	if keys.Pressed(c.Keys.MoveRight) {
		move = move.Add(right)
	}
	if keys.Pressed(c.Keys.MoveLeft) {
		move = move.Sub(right)
	}
	if keys.Pressed(c.Keys.MoveUp) {
		move = move.Add(up)
	}
	if keys.Pressed(c.Keys.MoveDown) {
		move = move.Sub(up)
	}
	if move.Dot(move) > epsilon {
		tr.Translation = tr.Translation.Add(move.Normalize().Mul(c.MoveSpeed * dt))
	}
}

// wrapAngle maps a into [0, 2pi).
func wrapAngle(a float32) float32 {
	const twoPi = 2 * math32.Pi
	return a - twoPi*math32.Floor(a/twoPi)
}
