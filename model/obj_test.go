// Copyright 2025 The GitGud Authors. All rights reserved.

package model

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestParseOBJTriangle(t *testing.T) {
	const src = `
# a single triangle
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`
	b, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Vertices) != 3 {
		t.Fatalf("vertices = %d, want 3", len(b.Vertices))
	}
	if len(b.Indices) != 3 {
		t.Fatalf("indices = %d, want 3", len(b.Indices))
	}
	if b.Vertices[1].Position != (mgl32.Vec3{1, 0, 0}) {
		t.Fatalf("vertex 1 position = %v", b.Vertices[1].Position)
	}
	// No color tail means white.
	if b.Vertices[0].Color != (mgl32.Vec3{1, 1, 1}) {
		t.Fatalf("default color = %v, want white", b.Vertices[0].Color)
	}
}

func TestParseOBJQuadTriangulation(t *testing.T) {
	const src = `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`
	b, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Indices) != 6 {
		t.Fatalf("indices = %d, want 6 (two triangles)", len(b.Indices))
	}
	if len(b.Vertices) != 4 {
		t.Fatalf("vertices = %d, want 4 after merging", len(b.Vertices))
	}
	want := []uint32{0, 1, 2, 0, 2, 3}
	for i, idx := range want {
		if b.Indices[i] != idx {
			t.Fatalf("indices = %v, want %v", b.Indices, want)
		}
	}
}

func TestParseOBJSharedVerticesMerge(t *testing.T) {
	// Two triangles sharing an edge across separate f statements.
	const src = `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
f 1//1 2//1 3//1
f 1//1 3//1 4//1
`
	b, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Vertices) != 4 {
		t.Fatalf("vertices = %d, want 4 after merging", len(b.Vertices))
	}
	if len(b.Indices) != 6 {
		t.Fatalf("indices = %d, want 6", len(b.Indices))
	}
	if b.Vertices[0].Normal != (mgl32.Vec3{0, 0, 1}) {
		t.Fatalf("normal = %v", b.Vertices[0].Normal)
	}
}

func TestParseOBJVertexColors(t *testing.T) {
	const src = `
v 0 0 0 1 0 0
v 1 0 0 0 1 0
v 0 1 0 0 0 1
f 1 2 3
`
	b, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	want := []mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i, c := range want {
		if b.Vertices[i].Color != c {
			t.Fatalf("vertex %d color = %v, want %v", i, b.Vertices[i].Color, c)
		}
	}
}

func TestParseOBJFullReferences(t *testing.T) {
	const src = `
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 -1 0
f 1/1/1 2/2/1 3/3/1
`
	b, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if b.Vertices[1].UV != (mgl32.Vec2{1, 0}) {
		t.Fatalf("uv = %v, want (1,0)", b.Vertices[1].UV)
	}
	if b.Vertices[2].Normal != (mgl32.Vec3{0, -1, 0}) {
		t.Fatalf("normal = %v, want (0,-1,0)", b.Vertices[2].Normal)
	}
}

func TestParseOBJNegativeIndices(t *testing.T) {
	// Negative indices count back from the most recent element.
	const src = `
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
f -3//-1 -2//-1 -1//-1
`
	b, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Vertices) != 3 {
		t.Fatalf("vertices = %d, want 3", len(b.Vertices))
	}
	if b.Vertices[0].Position != (mgl32.Vec3{0, 0, 0}) {
		t.Fatalf("vertex 0 position = %v, want origin", b.Vertices[0].Position)
	}
	if b.Vertices[2].Position != (mgl32.Vec3{0, 1, 0}) {
		t.Fatalf("vertex 2 position = %v, want (0,1,0)", b.Vertices[2].Position)
	}
	if b.Vertices[1].Normal != (mgl32.Vec3{0, 0, 1}) {
		t.Fatalf("normal = %v, want (0,0,1)", b.Vertices[1].Normal)
	}
}

func TestParseOBJIgnoresUnknownStatements(t *testing.T) {
	const src = `
mtllib scene.mtl
o floor
g main
s off
usemtl grass
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`
	b, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Vertices) != 3 {
		t.Fatalf("vertices = %d, want 3", len(b.Vertices))
	}
}

func TestParseOBJErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"bad float", "v 0 zero 0\n"},
		{"short vertex", "v 1 2\n"},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"index out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n"},
		{"negative index out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -4 1 2\n"},
		{"index zero", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"},
		{"bad normal ref", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//1 2//1 3//1\n"},
	}
	for _, c := range cases {
		if _, err := ParseOBJ(strings.NewReader(c.src)); err == nil {
			t.Errorf("%s: no error", c.name)
		}
	}
}

func TestLoadOBJMissingFile(t *testing.T) {
	if _, err := LoadOBJ("testdata/definitely-missing.obj"); err == nil {
		t.Fatal("no error for missing file")
	}
}
