// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"image"
	"image/color"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/postfx/shader"
)

// Engine is the graphics device as seen by the post-process layer.
type Engine interface {
	// Handle returns the host device handle.
	Handle() DeviceHandle

	// Caps returns the device capabilities.
	Caps() Caps

	// RenderSize returns the size of the default framebuffer in pixels,
	// already divided by the hardware scaling level.
	RenderSize() (width, height int)

	// HardwareScalingLevel returns the ratio between the canvas size and
	// the render size. 1 means one render pixel per canvas pixel.
	HardwareScalingLevel() float32

	// CreateRenderTarget allocates a render target.
	CreateRenderTarget(desc TextureDescriptor) (Texture, error)

	// CreateProgram returns the program variant for a source name and
	// define set. Creation never fails; a broken variant reports it
	// through Ready and Err.
	CreateProgram(name string, defines shader.Defines, index map[string]int) Program

	// Upload copies an image into a render target, resampling it to the
	// target size. A nil target is the default framebuffer.
	Upload(dst Texture, src image.Image) error

	// Clear fills a render target. A nil target is the default framebuffer.
	Clear(dst Texture, c color.Color) error

	// Draw executes one full-screen draw.
	Draw(call DrawCall) error
}

// Texture is a render target.
type Texture interface {
	// Label returns the debug label.
	Label() string

	// Width returns the texture width in pixels.
	Width() uint32

	// Height returns the texture height in pixels.
	Height() uint32

	// Format returns the texture pixel format.
	Format() gputypes.TextureFormat

	// Type returns the component type.
	Type() TextureType

	// Samples returns the MSAA sample count.
	Samples() uint32

	// Destroy releases the texture. Destroy is idempotent.
	Destroy()

	// Destroyed reports whether Destroy has been called.
	Destroyed() bool
}

// Program is a compiled program variant.
type Program interface {
	// Name returns the source name.
	Name() string

	// Key returns the structural hash of the variant.
	Key() uint64

	// Defines returns the define set the variant was built with.
	Defines() shader.Defines

	// Ready reports whether the variant can be drawn.
	Ready() bool

	// Err returns the preprocessing or compilation error, if any.
	Err() error
}

// DrawCall is one full-screen draw.
type DrawCall struct {
	// Label names the draw for debugging, usually the pass name.
	Label string

	// Program is the variant to execute.
	Program Program

	// Bindings holds uniforms and sampled textures.
	Bindings *Bindings

	// Target receives the output. A nil target is the default framebuffer.
	Target Texture
}
