// Copyright 2025 The GitGud Authors. All rights reserved.

package device

import (
	"strings"
	"testing"

	vk "github.com/goki/vulkan"
)

func uboLayout() *SetLayout {
	return &SetLayout{
		bindings: map[uint32]vk.DescriptorSetLayoutBinding{
			0: {
				Binding:         0,
				DescriptorType:  vk.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,
				StageFlags:      vk.ShaderStageFlags(vk.ShaderStageAllGraphics),
			},
		},
	}
}

func TestSetLayoutBuilderAccumulates(t *testing.T) {
	b := NewSetLayoutBuilder(nil).
		AddBinding(0, vk.DescriptorTypeUniformBuffer, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 1).
		AddBinding(1, vk.DescriptorTypeCombinedImageSampler, vk.ShaderStageFlags(vk.ShaderStageFragmentBit), 1)
	if len(b.bindings) != 2 {
		t.Fatalf("bindings = %d, want 2", len(b.bindings))
	}
	if b.bindings[1].DescriptorType != vk.DescriptorTypeCombinedImageSampler {
		t.Fatalf("binding 1 type = %v", b.bindings[1].DescriptorType)
	}
	// Redeclaring a binding replaces it.
	b.AddBinding(0, vk.DescriptorTypeCombinedImageSampler, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 1)
	if len(b.bindings) != 2 {
		t.Fatalf("bindings after redeclare = %d, want 2", len(b.bindings))
	}
	if b.bindings[0].DescriptorType != vk.DescriptorTypeCombinedImageSampler {
		t.Fatalf("binding 0 type = %v after redeclare", b.bindings[0].DescriptorType)
	}
}

func TestPoolBuilderAccumulates(t *testing.T) {
	b := NewPoolBuilder(nil).
		AddPoolSize(vk.DescriptorTypeUniformBuffer, 2).
		AddPoolSize(vk.DescriptorTypeCombinedImageSampler, 4).
		SetMaxSets(8).
		SetFlags(vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit))
	if len(b.sizes) != 2 {
		t.Fatalf("pool sizes = %d, want 2", len(b.sizes))
	}
	if b.sizes[1].DescriptorCount != 4 {
		t.Fatalf("second pool size count = %d, want 4", b.sizes[1].DescriptorCount)
	}
	if b.maxSets != 8 {
		t.Fatalf("maxSets = %d, want 8", b.maxSets)
	}
	if b.flags == 0 {
		t.Fatal("flags not recorded")
	}
}

func TestPoolBuilderDefaultsToOneSet(t *testing.T) {
	if b := NewPoolBuilder(nil); b.maxSets != 1 {
		t.Fatalf("default maxSets = %d, want 1", b.maxSets)
	}
}

func TestWriterRejectsUnknownBinding(t *testing.T) {
	// The bad binding must fail Build before the pool is ever used,
	// so a zero pool is safe here.
	w := NewWriter(uboLayout(), &Pool{}).
		WriteBuffer(3, vk.DescriptorBufferInfo{})
	if _, err := w.Build(); err == nil {
		t.Fatal("no error for write to undeclared binding")
	} else if !strings.Contains(err.Error(), "binding 3") {
		t.Fatalf("error %q does not name the binding", err)
	}
}

func TestWriterRejectsUnknownImageBinding(t *testing.T) {
	w := NewWriter(uboLayout(), &Pool{}).
		WriteImage(1, vk.DescriptorImageInfo{})
	if _, err := w.Build(); err == nil {
		t.Fatal("no error for image write to undeclared binding")
	}
}

func TestWriterQueuesTypedWrites(t *testing.T) {
	w := NewWriter(uboLayout(), &Pool{}).
		WriteBuffer(0, vk.DescriptorBufferInfo{Range: 544})
	if w.err != nil {
		t.Fatal(w.err)
	}
	if len(w.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(w.writes))
	}
	// The descriptor type comes from the layout, not the caller.
	if w.writes[0].DescriptorType != vk.DescriptorTypeUniformBuffer {
		t.Fatalf("write type = %v, want uniform buffer", w.writes[0].DescriptorType)
	}
	if w.writes[0].DstBinding != 0 {
		t.Fatalf("write binding = %d, want 0", w.writes[0].DstBinding)
	}
}
