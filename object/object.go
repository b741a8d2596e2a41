// Copyright 2025 The GitGud Authors. All rights reserved.

// Package object defines the entities that make up a scene.
//
// An Object is a bag of optional components hanging off a transform:
// a renderable model, a flat color and, for light emitters, a point
// light. Objects are created through a Map, which hands out unique
// IDs and preserves insertion order so that traversal is
// deterministic frame over frame.
package object

import (
	"iter"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kamstrup/intmap"

	"github.com/gitgud/glade/model"
)

// ID identifies an Object within its Map.
type ID uint32

// PointLight turns the owning object into a light emitter.
// The light's radius lives in Transform.Scale[0].
type PointLight struct {
	Intensity float32
}

// Object is a scene entity.
// Model and Light are optional; either may be nil.
type Object struct {
	id ID

	Transform Transform
	Color     mgl32.Vec3
	Model     *model.Model
	Light     *PointLight
}

// ID returns the identifier assigned by the owning Map.
func (o *Object) ID() ID { return o.id }

// Map owns a set of objects.
// It is not safe for concurrent use.
type Map struct {
	next  ID
	order []*Object
	index *intmap.Map[ID, *Object]
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{index: intmap.New[ID, *Object](64)}
}

// New creates an empty object with a fresh ID and unit scale.
func (m *Map) New() *Object {
	o := &Object{
		id: m.next,
		Transform: Transform{
			Scale: mgl32.Vec3{1, 1, 1},
		},
	}
	m.next++
	m.order = append(m.order, o)
	m.index.Put(o.id, o)
	return o
}

// NewPointLight creates an object carrying a point light.
func (m *Map) NewPointLight(intensity, radius float32, color mgl32.Vec3) *Object {
	o := m.New()
	o.Color = color
	o.Transform.Scale[0] = radius
	o.Light = &PointLight{Intensity: intensity}
	return o
}

// Get returns the object with the given ID, if any.
func (m *Map) Get(id ID) (*Object, bool) {
	return m.index.Get(id)
}

// Len returns the number of objects in the map.
func (m *Map) Len() int { return len(m.order) }

// All yields the objects in insertion order.
func (m *Map) All() iter.Seq[*Object] {
	return func(yield func(*Object) bool) {
		for _, o := range m.order {
			if !yield(o) {
				return
			}
		}
	}
}
