// Copyright 2025 The GitGud Authors. All rights reserved.

package device

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// SetLayout wraps a descriptor set layout and remembers its bindings
// so writers can validate against them.
type SetLayout struct {
	dev      *Device
	layout   vk.DescriptorSetLayout
	bindings map[uint32]vk.DescriptorSetLayoutBinding
}

// SetLayoutBuilder accumulates bindings for a SetLayout.
type SetLayoutBuilder struct {
	dev      *Device
	bindings map[uint32]vk.DescriptorSetLayoutBinding
}

// NewSetLayoutBuilder starts an empty layout.
func NewSetLayoutBuilder(dev *Device) *SetLayoutBuilder {
	return &SetLayoutBuilder{
		dev:      dev,
		bindings: make(map[uint32]vk.DescriptorSetLayoutBinding),
	}
}

// AddBinding declares one binding slot. Each binding number may be
// declared once.
func (b *SetLayoutBuilder) AddBinding(binding uint32, typ vk.DescriptorType, stages vk.ShaderStageFlags, count uint32) *SetLayoutBuilder {
	b.bindings[binding] = vk.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  typ,
		DescriptorCount: count,
		StageFlags:      stages,
	}
	return b
}

// Build creates the layout.
func (b *SetLayoutBuilder) Build() (*SetLayout, error) {
	bindings := make([]vk.DescriptorSetLayoutBinding, 0, len(b.bindings))
	for _, binding := range b.bindings {
		bindings = append(bindings, binding)
	}
	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if err := vk.Error(vk.CreateDescriptorSetLayout(b.dev.Handle(), &createInfo, nil, &layout)); err != nil {
		return nil, fmt.Errorf("device: create set layout: %w", err)
	}
	return &SetLayout{dev: b.dev, layout: layout, bindings: b.bindings}, nil
}

// Handle returns the vk.DescriptorSetLayout.
func (l *SetLayout) Handle() vk.DescriptorSetLayout { return l.layout }

// Destroy releases the layout.
func (l *SetLayout) Destroy() {
	if l.layout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(l.dev.Handle(), l.layout, nil)
		l.layout = vk.NullDescriptorSetLayout
	}
}

// Pool wraps a descriptor pool.
type Pool struct {
	dev  *Device
	pool vk.DescriptorPool
}

// PoolBuilder accumulates pool sizes for a Pool.
type PoolBuilder struct {
	dev     *Device
	sizes   []vk.DescriptorPoolSize
	maxSets uint32
	flags   vk.DescriptorPoolCreateFlags
}

// NewPoolBuilder starts a pool description with room for one set.
func NewPoolBuilder(dev *Device) *PoolBuilder {
	return &PoolBuilder{dev: dev, maxSets: 1}
}

// AddPoolSize reserves count descriptors of the given type.
func (b *PoolBuilder) AddPoolSize(typ vk.DescriptorType, count uint32) *PoolBuilder {
	b.sizes = append(b.sizes, vk.DescriptorPoolSize{Type: typ, DescriptorCount: count})
	return b
}

// SetMaxSets caps how many sets the pool can allocate.
func (b *PoolBuilder) SetMaxSets(n uint32) *PoolBuilder {
	b.maxSets = n
	return b
}

// SetFlags sets pool creation flags.
func (b *PoolBuilder) SetFlags(flags vk.DescriptorPoolCreateFlags) *PoolBuilder {
	b.flags = flags
	return b
}

// Build creates the pool.
func (b *PoolBuilder) Build() (*Pool, error) {
	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(b.sizes)),
		PPoolSizes:    b.sizes,
		MaxSets:       b.maxSets,
		Flags:         b.flags,
	}
	var pool vk.DescriptorPool
	if err := vk.Error(vk.CreateDescriptorPool(b.dev.Handle(), &createInfo, nil, &pool)); err != nil {
		return nil, fmt.Errorf("device: create descriptor pool: %w", err)
	}
	return &Pool{dev: b.dev, pool: pool}, nil
}

// Allocate takes one set with the given layout from the pool.
func (p *Pool) Allocate(layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	var set vk.DescriptorSet
	if err := vk.Error(vk.AllocateDescriptorSets(p.dev.Handle(), &allocInfo, &set)); err != nil {
		return vk.NullDescriptorSet, fmt.Errorf("device: allocate descriptor set: %w", err)
	}
	return set, nil
}

// Destroy releases the pool and every set allocated from it.
func (p *Pool) Destroy() {
	if p.pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(p.dev.Handle(), p.pool, nil)
		p.pool = vk.NullDescriptorPool
	}
}

// Writer builds a descriptor set against a layout, one binding write
// at a time.
type Writer struct {
	layout *SetLayout
	pool   *Pool
	writes []vk.WriteDescriptorSet
	err    error
}

// NewWriter starts a writer for the given layout and pool.
func NewWriter(layout *SetLayout, pool *Pool) *Writer {
	return &Writer{layout: layout, pool: pool}
}

// WriteBuffer queues a buffer write for a binding.
func (w *Writer) WriteBuffer(binding uint32, info vk.DescriptorBufferInfo) *Writer {
	desc, ok := w.layout.bindings[binding]
	if !ok {
		w.err = newDevErr(fmt.Sprintf("layout has no binding %d", binding))
		return w
	}
	w.writes = append(w.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DescriptorType:  desc.DescriptorType,
		DescriptorCount: 1,
		PBufferInfo:     []vk.DescriptorBufferInfo{info},
	})
	return w
}

// WriteImage queues an image write for a binding.
func (w *Writer) WriteImage(binding uint32, info vk.DescriptorImageInfo) *Writer {
	desc, ok := w.layout.bindings[binding]
	if !ok {
		w.err = newDevErr(fmt.Sprintf("layout has no binding %d", binding))
		return w
	}
	w.writes = append(w.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DescriptorType:  desc.DescriptorType,
		DescriptorCount: 1,
		PImageInfo:      []vk.DescriptorImageInfo{info},
	})
	return w
}

// Build allocates a set and applies the queued writes.
func (w *Writer) Build() (vk.DescriptorSet, error) {
	if w.err != nil {
		return vk.NullDescriptorSet, w.err
	}
	set, err := w.pool.Allocate(w.layout.Handle())
	if err != nil {
		return vk.NullDescriptorSet, err
	}
	w.Overwrite(set)
	return set, nil
}

// Overwrite applies the queued writes to an existing set.
func (w *Writer) Overwrite(set vk.DescriptorSet) {
	for i := range w.writes {
		w.writes[i].DstSet = set
	}
	vk.UpdateDescriptorSets(w.layout.dev.Handle(), uint32(len(w.writes)), w.writes, 0, nil)
}
