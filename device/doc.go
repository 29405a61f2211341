// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device is the graphics device abstraction consumed by the
// post-process layer.
//
// The post-process layer never creates a GPU device. It receives an Engine
// that exposes device capabilities, allocates render targets, creates
// program variants and executes full-screen draws. The host application
// owns the underlying GPU device and hands it over as a DeviceHandle.
//
// # Engines
//
// SoftwareEngine is a CPU reference engine. Render targets are backed by
// *image.RGBA64 and the built-in programs (pass-through, kernel blur,
// highlight extraction, bloom merge) are evaluated on the CPU, so whole
// pipelines can run headless and be inspected in tests:
//
//	engine := device.NewSoftwareEngine(640, 480)
//	tex, err := engine.CreateRenderTarget(device.DefaultTextureDescriptor(640, 480, device.TextureTypeUnsignedByte))
//
// Every draw is recorded; see Recorder.
package device
