// Copyright 2025 The GitGud Authors. All rights reserved.

package object

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestMapNew(t *testing.T) {
	m := NewMap()
	o := m.New()
	if o.Transform.Scale != (mgl32.Vec3{1, 1, 1}) {
		t.Fatalf("New: scale = %v, want unit", o.Transform.Scale)
	}
	if o.Model != nil || o.Light != nil {
		t.Fatal("New: components must start nil")
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
}

func TestMapUniqueIDs(t *testing.T) {
	m := NewMap()
	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		var o *Object
		if i%3 == 0 {
			o = m.NewPointLight(1, 0.1, mgl32.Vec3{1, 1, 1})
		} else {
			o = m.New()
		}
		if seen[o.ID()] {
			t.Fatalf("duplicate ID %d", o.ID())
		}
		seen[o.ID()] = true
	}
}

func TestMapGet(t *testing.T) {
	m := NewMap()
	a := m.New()
	b := m.New()
	if got, ok := m.Get(a.ID()); !ok || got != a {
		t.Fatalf("Get(%d) = %v, %v", a.ID(), got, ok)
	}
	if got, ok := m.Get(b.ID()); !ok || got != b {
		t.Fatalf("Get(%d) = %v, %v", b.ID(), got, ok)
	}
	if _, ok := m.Get(12345); ok {
		t.Fatal("Get of unknown ID succeeded")
	}
}

func TestMapOrder(t *testing.T) {
	m := NewMap()
	var want []ID
	for i := 0; i < 20; i++ {
		want = append(want, m.New().ID())
	}
	var got []ID
	for o := range m.All() {
		got = append(got, o.ID())
	}
	if len(got) != len(want) {
		t.Fatalf("All yielded %d objects, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("All order differs at %d: got %d, want %d", i, got[i], want[i])
		}
	}
	// Breaking out early must be safe.
	n := 0
	for range m.All() {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("early break: visited %d", n)
	}
}

func TestNewPointLight(t *testing.T) {
	m := NewMap()
	o := m.NewPointLight(0.8, 0.05, mgl32.Vec3{1, 0.5, 0})
	if o.Light == nil {
		t.Fatal("NewPointLight: nil light component")
	}
	if o.Light.Intensity != 0.8 {
		t.Fatalf("intensity = %v, want 0.8", o.Light.Intensity)
	}
	if o.Transform.Scale[0] != 0.05 {
		t.Fatalf("radius = %v, want 0.05", o.Transform.Scale[0])
	}
	if o.Color != (mgl32.Vec3{1, 0.5, 0}) {
		t.Fatalf("color = %v", o.Color)
	}
	if o.Model != nil {
		t.Fatal("NewPointLight: model must be nil")
	}
}
