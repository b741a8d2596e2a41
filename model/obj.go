// Copyright 2025 The GitGud Authors. All rights reserved.

package model

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// The OBJ reader covers the subset of Wavefront OBJ the bundled
// assets use: v (with the common vertex-color extension), vt, vn and
// f with any of the v, v/vt, v//vn and v/vt/vn reference forms, with
// positive or negative indices. Faces with more than three corners
// are fan triangulated. Identical vertices are merged so shared
// corners index the same vertex. Grouping, material and free-form
// statements are skipped.

// LoadOBJ parses the OBJ file at path into a Builder.
func LoadOBJ(path string) (*Builder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	defer f.Close()
	b, err := parseOBJ(f)
	if err != nil {
		return nil, pathErr(path, err)
	}
	return b, nil
}

// ParseOBJ parses OBJ data from r into a Builder.
func ParseOBJ(r io.Reader) (*Builder, error) {
	b, err := parseOBJ(r)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return b, nil
}

type objParser struct {
	positions []mgl32.Vec3
	colors    []mgl32.Vec3
	normals   []mgl32.Vec3
	uvs       []mgl32.Vec2

	b     Builder
	dedup map[Vertex]uint32
}

func parseOBJ(r io.Reader) (*Builder, error) {
	p := &objParser{dedup: make(map[Vertex]uint32)}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		var err error
		switch fields[0] {
		case "v":
			err = p.vertex(fields[1:])
		case "vt":
			err = p.texcoord(fields[1:])
		case "vn":
			err = p.normal(fields[1:])
		case "f":
			err = p.face(fields[1:])
		default:
			// Comments, grouping and material statements.
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &p.b, nil
}

// vertex handles "v x y z" with an optional "r g b" color tail.
// Vertices without a color are white.
func (p *objParser) vertex(args []string) error {
	pos, err := parseVec3(args)
	if err != nil {
		return fmt.Errorf("vertex: %w", err)
	}
	p.positions = append(p.positions, pos)
	color := mgl32.Vec3{1, 1, 1}
	if len(args) >= 6 {
		if color, err = parseVec3(args[3:]); err != nil {
			return fmt.Errorf("vertex color: %w", err)
		}
	}
	p.colors = append(p.colors, color)
	return nil
}

func (p *objParser) texcoord(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("texcoord: want 2 components, have %d", len(args))
	}
	u, err := parseFloat(args[0])
	if err != nil {
		return fmt.Errorf("texcoord: %w", err)
	}
	v, err := parseFloat(args[1])
	if err != nil {
		return fmt.Errorf("texcoord: %w", err)
	}
	p.uvs = append(p.uvs, mgl32.Vec2{u, v})
	return nil
}

func (p *objParser) normal(args []string) error {
	n, err := parseVec3(args)
	if err != nil {
		return fmt.Errorf("normal: %w", err)
	}
	p.normals = append(p.normals, n)
	return nil
}

func (p *objParser) face(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("face: want at least 3 vertices, have %d", len(args))
	}
	corners := make([]Vertex, len(args))
	for i, ref := range args {
		v, err := p.resolve(ref)
		if err != nil {
			return fmt.Errorf("face: %w", err)
		}
		corners[i] = v
	}
	for i := 2; i < len(corners); i++ {
		p.addVertex(corners[0])
		p.addVertex(corners[i-1])
		p.addVertex(corners[i])
	}
	return nil
}

// resolve turns a face reference like "3/1/2" into a full vertex.
func (p *objParser) resolve(ref string) (Vertex, error) {
	var v Vertex
	parts := strings.Split(ref, "/")
	i, err := lookup(parts[0], len(p.positions))
	if err != nil {
		return v, fmt.Errorf("position %q: %w", ref, err)
	}
	v.Position = p.positions[i]
	v.Color = p.colors[i]
	if len(parts) > 1 && parts[1] != "" {
		i, err := lookup(parts[1], len(p.uvs))
		if err != nil {
			return v, fmt.Errorf("texcoord %q: %w", ref, err)
		}
		v.UV = p.uvs[i]
	}
	if len(parts) > 2 && parts[2] != "" {
		i, err := lookup(parts[2], len(p.normals))
		if err != nil {
			return v, fmt.Errorf("normal %q: %w", ref, err)
		}
		v.Normal = p.normals[i]
	}
	return v, nil
}

// addVertex appends an index for v, reusing a previous vertex when an
// identical one was already added.
func (p *objParser) addVertex(v Vertex) {
	if i, ok := p.dedup[v]; ok {
		p.b.Indices = append(p.b.Indices, i)
		return
	}
	i := uint32(len(p.b.Vertices))
	p.dedup[v] = i
	p.b.Vertices = append(p.b.Vertices, v)
	p.b.Indices = append(p.b.Indices, i)
}

// lookup converts an OBJ index into a slice index for a list of n
// elements. Positive indices are 1-based and negative indices count
// back from the end of the list, so -1 is the last element. Zero is
// never a valid OBJ index.
func lookup(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		i += n + 1
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("index %s out of range for %d elements", s, n)
	}
	return i - 1, nil
}

func parseVec3(args []string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	if len(args) < 3 {
		return v, fmt.Errorf("want 3 components, have %d", len(args))
	}
	for i := 0; i < 3; i++ {
		f, err := parseFloat(args[i])
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

func parseFloat(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}
