// Copyright 2025 The GitGud Authors. All rights reserved.

// Package unsafex provides raw memory views used to feed Go
// values to the Vulkan API.
// The views alias the original storage; they must not outlive it.
package unsafex

import "unsafe"

// StructBytes returns the memory of *p as a byte slice.
// T must not contain pointers.
func StructBytes[T any](p *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), unsafe.Sizeof(*p))
}

// SliceBytes returns the backing array of s as a byte slice.
// T must not contain pointers.
func SliceBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), uintptr(len(s))*unsafe.Sizeof(s[0]))
}

// Uint32s reinterprets b as a slice of native-endian uint32.
// It is used to hand SPIR-V bytecode to shader module creation,
// so len(b) must be a multiple of 4.
func Uint32s(b []byte) []uint32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), len(b)/4)
}
