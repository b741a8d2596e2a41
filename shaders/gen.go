// Copyright 2025 The GitGud Authors. All rights reserved.

// Package shaders holds the GLSL sources of the demo's pipelines.
//
// The renderer loads SPIR-V binaries at runtime from the configured
// shader directory; regenerate them next to the sources with
//
//	go generate ./shaders
//
// glslc ships with the Vulkan SDK. The point light array length in
// the GlobalUbo block must match rendersys.MaxLights.
package shaders

//go:generate glslc --target-env=vulkan1.1 simple.vert -o simple.vert.spv
//go:generate glslc --target-env=vulkan1.1 simple.frag -o simple.frag.spv
//go:generate glslc --target-env=vulkan1.1 point_light.vert -o point_light.vert.spv
//go:generate glslc --target-env=vulkan1.1 point_light.frag -o point_light.frag.spv
