// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Errors returned by engines.
var (
	ErrInvalidDescriptor = errors.New("device: invalid texture descriptor")
	ErrDisposed          = errors.New("device: resource disposed")
	ErrUnknownProgram    = errors.New("device: unknown program")
)

// DeviceHandle provides GPU device access from the host application.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider so any gpucontext
// host can drive an engine directly.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used for CPU-only engines where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

var _ DeviceHandle = NullDeviceHandle{}

// TextureType is the component type of a render target.
type TextureType int

const (
	// TextureTypeUnsignedByte is 8 bits per channel, normalized.
	TextureTypeUnsignedByte TextureType = iota
	// TextureTypeHalfFloat is 16-bit float per channel.
	TextureTypeHalfFloat
	// TextureTypeFloat is 32-bit float per channel.
	TextureTypeFloat
)

// String returns the type name.
func (t TextureType) String() string {
	switch t {
	case TextureTypeUnsignedByte:
		return "UnsignedByte"
	case TextureTypeHalfFloat:
		return "HalfFloat"
	case TextureTypeFloat:
		return "Float"
	default:
		return fmt.Sprintf("TextureType(%d)", int(t))
	}
}

// Format returns the RGBA texture format for the type.
func (t TextureType) Format() gputypes.TextureFormat {
	switch t {
	case TextureTypeHalfFloat:
		return gputypes.TextureFormatRGBA16Float
	case TextureTypeFloat:
		return gputypes.TextureFormatRGBA32Float
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// TextureDescriptor describes a render target.
type TextureDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Width and Height are the texture size in pixels.
	Width  uint32
	Height uint32

	// Type selects the component type and, through Format, the pixel format.
	Type TextureType

	// SampleCount is the MSAA sample count. Use 1 for no multisampling.
	SampleCount uint32

	// Usage specifies how the texture will be used.
	Usage gputypes.TextureUsage
}

// DefaultTextureDescriptor returns a descriptor usable both as a render
// attachment and as a sampled input.
func DefaultTextureDescriptor(width, height uint32, typ TextureType) TextureDescriptor {
	return TextureDescriptor{
		Width:       width,
		Height:      height,
		Type:        typ,
		SampleCount: 1,
		Usage:       gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment,
	}
}

// Format returns the pixel format of the descriptor.
func (d TextureDescriptor) Format() gputypes.TextureFormat { return d.Type.Format() }

// Validate checks the descriptor against the engine capabilities.
func (d TextureDescriptor) Validate(caps Caps) error {
	if d.Width == 0 || d.Height == 0 {
		return fmt.Errorf("%w: %q has zero size %dx%d", ErrInvalidDescriptor, d.Label, d.Width, d.Height)
	}
	if d.Width > caps.MaxTextureSize || d.Height > caps.MaxTextureSize {
		return fmt.Errorf("%w: %q size %dx%d exceeds %d", ErrInvalidDescriptor, d.Label, d.Width, d.Height, caps.MaxTextureSize)
	}
	if d.SampleCount == 0 || d.SampleCount > caps.MaxSamples {
		return fmt.Errorf("%w: %q sample count %d not in [1, %d]", ErrInvalidDescriptor, d.Label, d.SampleCount, caps.MaxSamples)
	}
	if d.Usage&gputypes.TextureUsageRenderAttachment == 0 {
		return fmt.Errorf("%w: %q is not a render attachment", ErrInvalidDescriptor, d.Label)
	}
	switch d.Type {
	case TextureTypeHalfFloat:
		if !caps.HalfFloatRender {
			return fmt.Errorf("%w: %q half-float targets unsupported", ErrInvalidDescriptor, d.Label)
		}
	case TextureTypeFloat:
		if !caps.FloatRender {
			return fmt.Errorf("%w: %q float targets unsupported", ErrInvalidDescriptor, d.Label)
		}
	}
	return nil
}

// Caps describes the capabilities the post-process layer reads from a
// device.
type Caps struct {
	// MaxVaryingVectors is the number of vec4 interpolators a fragment
	// program can receive. Blur taps beyond it use computed offsets.
	MaxVaryingVectors int

	// MaxTextureSize is the largest 2D texture dimension.
	MaxTextureSize uint32

	// MaxSamples is the largest MSAA sample count for render targets.
	MaxSamples uint32

	// SupportsMSAA reports whether multisampled render targets exist.
	SupportsMSAA bool

	// HalfFloatRender and FloatRender report float render-target support.
	HalfFloatRender bool
	FloatRender     bool

	// WGSL reports that programs are compiled from WGSL, which reserves one
	// interpolator for the uv coordinate.
	WGSL bool
}

// DefaultCaps returns the capabilities of a baseline WebGPU device.
func DefaultCaps() Caps {
	limits := gputypes.DefaultLimits()
	return Caps{
		MaxVaryingVectors: 16,
		MaxTextureSize:    limits.MaxTextureDimension2D,
		MaxSamples:        4,
		SupportsMSAA:      true,
		HalfFloatRender:   true,
		FloatRender:       true,
		WGSL:              true,
	}
}

// ClampSamples clamps a requested sample count to [1, MaxSamples].
func (c Caps) ClampSamples(samples int) int {
	if samples < 1 {
		return 1
	}
	if !c.SupportsMSAA {
		return 1
	}
	if uint32(samples) > c.MaxSamples { //nolint:gosec // samples >= 1
		return int(c.MaxSamples)
	}
	return samples
}
