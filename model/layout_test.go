// Copyright 2025 The GitGud Authors. All rights reserved.

package model

import (
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// The vertex struct is handed to the GPU as raw bytes, so its layout
// must match what the pipelines declare.
func TestVertexLayout(t *testing.T) {
	if size := unsafe.Sizeof(Vertex{}); size != 44 {
		t.Fatalf("vertex size = %d, want 44", size)
	}
	bindings := BindingDescriptions()
	if len(bindings) != 1 || bindings[0].Stride != 44 {
		t.Fatalf("binding = %+v", bindings)
	}
	attrs := AttributeDescriptions()
	wantOffsets := []uint32{0, 12, 24, 36}
	if len(attrs) != len(wantOffsets) {
		t.Fatalf("attribute count = %d, want %d", len(attrs), len(wantOffsets))
	}
	for i, a := range attrs {
		if a.Offset != wantOffsets[i] {
			t.Fatalf("attribute %d offset = %d, want %d", i, a.Offset, wantOffsets[i])
		}
		if a.Location != uint32(i) || a.Binding != 0 {
			t.Fatalf("attribute %d = %+v", i, a)
		}
	}
	if attrs[3].Format != vk.FormatR32g32Sfloat {
		t.Fatalf("uv format = %v", attrs[3].Format)
	}
}
