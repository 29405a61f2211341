// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/postfx/shader"
)

// SoftwareEngine is a CPU reference Engine.
//
// Render targets are *image.RGBA64 images regardless of their declared
// type, so float targets are clamped to [0, 1]. Programs are still
// preprocessed (and compiled when a Compiler is configured) so variant
// failures surface exactly as on a GPU engine. Every built-in program has a
// CPU version; draws with any other program copy textureSampler through.
type SoftwareEngine struct {
	caps     Caps
	width    int
	height   int
	scaling  float32
	variants *shader.VariantCache
	programs map[string]cpuProgram
	screen   *image.RGBA64
	recorder Recorder
	live     int
}

// SoftwareOption configures a SoftwareEngine.
type SoftwareOption func(*softwareOptions)

type softwareOptions struct {
	caps     Caps
	compiler shader.Compiler
	library  *shader.Library
}

// WithCaps overrides the reported device capabilities.
func WithCaps(c Caps) SoftwareOption {
	return func(o *softwareOptions) { o.caps = c }
}

// WithCompiler compiles every program variant with c. Without a compiler
// variants are only preprocessed.
func WithCompiler(c shader.Compiler) SoftwareOption {
	return func(o *softwareOptions) { o.compiler = c }
}

// WithLibrary replaces the built-in program sources.
func WithLibrary(l *shader.Library) SoftwareOption {
	return func(o *softwareOptions) { o.library = l }
}

// NewSoftwareEngine creates a CPU engine with a canvas of the given size.
func NewSoftwareEngine(width, height int, opts ...SoftwareOption) *SoftwareEngine {
	o := softwareOptions{caps: DefaultCaps()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.library == nil {
		o.library = shader.DefaultLibrary()
	}
	e := &SoftwareEngine{
		caps:     o.caps,
		width:    max(width, 1),
		height:   max(height, 1),
		scaling:  1,
		variants: shader.NewVariantCache(o.library, o.compiler, 0),
		programs: builtinPrograms(),
	}
	e.resizeScreen()
	return e
}

// Handle returns a NullDeviceHandle.
func (e *SoftwareEngine) Handle() DeviceHandle { return NullDeviceHandle{} }

// Caps returns the configured capabilities.
func (e *SoftwareEngine) Caps() Caps { return e.caps }

// RenderSize returns the canvas size divided by the hardware scaling level.
func (e *SoftwareEngine) RenderSize() (width, height int) {
	return scaledSize(e.width, e.scaling), scaledSize(e.height, e.scaling)
}

// HardwareScalingLevel returns the hardware scaling level.
func (e *SoftwareEngine) HardwareScalingLevel() float32 { return e.scaling }

// SetSize resizes the canvas. Callers notify the scene afterwards.
func (e *SoftwareEngine) SetSize(width, height int) {
	e.width, e.height = max(width, 1), max(height, 1)
	e.resizeScreen()
}

// SetHardwareScalingLevel changes the hardware scaling level. Values <= 0
// are ignored.
func (e *SoftwareEngine) SetHardwareScalingLevel(level float32) {
	if level <= 0 {
		return
	}
	e.scaling = level
	e.resizeScreen()
}

// Screen returns the default framebuffer.
func (e *SoftwareEngine) Screen() *image.RGBA64 { return e.screen }

// Recorder returns the draw recorder.
func (e *SoftwareEngine) Recorder() *Recorder { return &e.recorder }

// Variants returns the program variant cache.
func (e *SoftwareEngine) Variants() *shader.VariantCache { return e.variants }

// LiveTextures returns the number of render targets not yet destroyed.
func (e *SoftwareEngine) LiveTextures() int { return e.live }

// CreateRenderTarget allocates an RGBA64-backed render target.
func (e *SoftwareEngine) CreateRenderTarget(desc TextureDescriptor) (Texture, error) {
	if err := desc.Validate(e.caps); err != nil {
		return nil, err
	}
	e.live++
	return &softTexture{
		engine: e,
		desc:   desc,
		img:    image.NewRGBA64(image.Rect(0, 0, int(desc.Width), int(desc.Height))),
	}, nil
}

// CreateProgram returns a cached program variant.
func (e *SoftwareEngine) CreateProgram(name string, defines shader.Defines, index map[string]int) Program {
	return softProgram{v: e.variants.Get(name, defines, index)}
}

// Upload resamples src into dst with bilinear filtering. Uniform images
// fill dst. Sources larger than the maximum texture size are clipped to it
// from their top-left corner.
func (e *SoftwareEngine) Upload(dst Texture, src image.Image) error {
	img, err := e.image(dst)
	if err != nil {
		return err
	}
	if u, ok := src.(*image.Uniform); ok {
		draw.Draw(img, img.Bounds(), u, image.Point{}, draw.Src)
		return nil
	}
	sb := uploadBounds(src.Bounds(), int(e.caps.MaxTextureSize))
	if sb.Empty() {
		return fmt.Errorf("%w: upload to %q from empty image", ErrInvalidDescriptor, dst.Label())
	}
	draw.BiLinear.Scale(img, img.Bounds(), src, sb, draw.Src, nil)
	return nil
}

func uploadBounds(b image.Rectangle, limit int) image.Rectangle {
	if limit <= 0 {
		return b
	}
	return b.Intersect(image.Rect(b.Min.X, b.Min.Y, b.Min.X+limit, b.Min.Y+limit))
}

// Clear fills dst with c.
func (e *SoftwareEngine) Clear(dst Texture, c color.Color) error {
	img, err := e.image(dst)
	if err != nil {
		return err
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return nil
}

// Draw evaluates the program on the CPU and records the call.
func (e *SoftwareEngine) Draw(call DrawCall) error {
	if call.Program == nil {
		return fmt.Errorf("%w: draw %q has no program", ErrUnknownProgram, call.Label)
	}
	if !call.Program.Ready() {
		err := call.Program.Err()
		if errors.Is(err, shader.ErrUnknownSource) {
			return fmt.Errorf("%w: %s: %w", ErrUnknownProgram, call.Program.Name(), err)
		}
		return fmt.Errorf("device: draw %q: %w", call.Label, err)
	}
	if call.Bindings == nil {
		call.Bindings = NewBindings()
	}
	dst, err := e.image(call.Target)
	if err != nil {
		return err
	}
	for _, name := range call.Bindings.TextureNames() {
		if call.Bindings.Texture(name).Destroyed() {
			return fmt.Errorf("%w: draw %q samples destroyed %q", ErrDisposed, call.Label, name)
		}
	}

	run, ok := e.programs[call.Program.Name()]
	if !ok {
		run = passThrough
	}
	if err := run(dst, call); err != nil {
		return fmt.Errorf("device: draw %q: %w", call.Label, err)
	}
	e.recorder.record(call, dst.Bounds())
	return nil
}

func (e *SoftwareEngine) image(t Texture) (*image.RGBA64, error) {
	if t == nil {
		return e.screen, nil
	}
	st, ok := t.(*softTexture)
	if !ok || st.engine != e {
		return nil, fmt.Errorf("%w: texture %q belongs to another engine", ErrInvalidDescriptor, t.Label())
	}
	if st.destroyed {
		return nil, fmt.Errorf("%w: texture %q", ErrDisposed, st.desc.Label)
	}
	return st.img, nil
}

func (e *SoftwareEngine) resizeScreen() {
	w, h := e.RenderSize()
	e.screen = image.NewRGBA64(image.Rect(0, 0, w, h))
}

func scaledSize(size int, scaling float32) int {
	return max(int(math.Ceil(float64(size)/float64(scaling))), 1)
}

var _ Engine = (*SoftwareEngine)(nil)

type softTexture struct {
	engine    *SoftwareEngine
	desc      TextureDescriptor
	img       *image.RGBA64
	destroyed bool
}

func (t *softTexture) Label() string                  { return t.desc.Label }
func (t *softTexture) Width() uint32                  { return t.desc.Width }
func (t *softTexture) Height() uint32                 { return t.desc.Height }
func (t *softTexture) Format() gputypes.TextureFormat { return t.desc.Format() }
func (t *softTexture) Type() TextureType              { return t.desc.Type }
func (t *softTexture) Samples() uint32                { return t.desc.SampleCount }
func (t *softTexture) Destroyed() bool                { return t.destroyed }

func (t *softTexture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.img = nil
	t.engine.live--
}

// Image returns the backing image of a software render target, or nil
// when t is not one.
func Image(t Texture) *image.RGBA64 {
	st, ok := t.(*softTexture)
	if !ok {
		return nil
	}
	return st.img
}

type softProgram struct {
	v *shader.Variant
}

func (p softProgram) Name() string            { return p.v.Name }
func (p softProgram) Key() uint64             { return p.v.Key }
func (p softProgram) Defines() shader.Defines { return p.v.Defines }
func (p softProgram) Ready() bool             { return p.v.Ready() }
func (p softProgram) Err() error              { return p.v.Err }
