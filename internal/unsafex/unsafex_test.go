// Copyright 2025 The GitGud Authors. All rights reserved.

package unsafex

import "testing"

func TestStructBytes(t *testing.T) {
	var v struct {
		A uint32
		B [3]float32
	}
	b := StructBytes(&v)
	if len(b) != 16 {
		t.Fatalf("StructBytes: len = %d, want 16", len(b))
	}
	// The view aliases v, so writes through it must land in v.
	b[0], b[1], b[2], b[3] = 0x78, 0x56, 0x34, 0x12
	if v.A == 0 {
		t.Fatal("StructBytes: write through view did not alias the struct")
	}
}

func TestSliceBytes(t *testing.T) {
	if b := SliceBytes([]float32(nil)); b != nil {
		t.Fatalf("SliceBytes(nil) = %v, want nil", b)
	}
	s := []uint16{1, 2, 3}
	b := SliceBytes(s)
	if len(b) != 6 {
		t.Fatalf("SliceBytes: len = %d, want 6", len(b))
	}
	b[0] = 0xff
	b[1] = 0xff
	if s[0] != 0xffff {
		t.Fatalf("SliceBytes: write through view did not alias the slice (s[0] = %#x)", s[0])
	}
}

func TestUint32s(t *testing.T) {
	if u := Uint32s(nil); u != nil {
		t.Fatalf("Uint32s(nil) = %v, want nil", u)
	}
	b := make([]byte, 8)
	for i := range b {
		b[i] = 0xab
	}
	u := Uint32s(b)
	if len(u) != 2 {
		t.Fatalf("Uint32s: len = %d, want 2", len(u))
	}
	if u[0] != 0xabababab || u[1] != 0xabababab {
		t.Fatalf("Uint32s: got %#x, %#x, want 0xabababab twice", u[0], u[1])
	}
}
