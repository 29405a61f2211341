package postprocess

import (
	"errors"
	"fmt"
	"image/color"
	"math/bits"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/device"
	"github.com/gogpu/postfx/internal/hook"
	"github.com/gogpu/postfx/shader"
)

// ErrNotReady is returned when a chain holds a pass whose program is not
// ready yet.
var ErrNotReady = errors.New("postprocess: pass not ready")

// Options describes a pass.
type Options struct {
	// Program is the source name in the engine's shader library.
	Program string

	// Uniforms and Samplers list the inputs the program reads besides
	// textureSampler. They are informational and appear in logs.
	Uniforms []string
	Samplers []string

	// Defines and Index select the program variant.
	Defines shader.Defines
	Index   map[string]int

	// Ratio scales the input texture relative to the render size. Zero
	// means 1.
	Ratio float32

	// AlwaysForcePOT floors the input texture size to a power of two.
	AlwaysForcePOT bool

	// Reusable allows the pass to appear more than once in a camera chain.
	Reusable bool

	// TextureType is the component type of the input texture.
	TextureType device.TextureType

	// BlockCompilation defers program creation until the first Compile,
	// UpdateEffect or chain run.
	BlockCompilation bool
}

// ApplyEvent is passed to OnApply hooks right before a pass draws.
type ApplyEvent struct {
	Pass     *Pass
	Bindings *device.Bindings

	// Skip makes the chain copy the input through instead of running the
	// program for this frame.
	Skip bool
}

// Pass is one full-screen program invocation.
type Pass struct {
	name    string
	engine  device.Engine
	opts    Options
	defines shader.Defines
	index   map[string]int
	program device.Program

	texture device.Texture
	output  device.Texture
	shared  *Pass
	samples int

	// AutoClear clears the input texture before the previous stage renders
	// into it.
	AutoClear bool

	// ClearColor is used when AutoClear is set.
	ClearColor color.Color

	onApply  hook.List[*ApplyEvent]
	disposed bool
}

// New creates a pass. The program is created immediately unless
// opts.BlockCompilation is set.
func New(engine device.Engine, name string, opts Options) *Pass {
	if opts.Ratio <= 0 {
		opts.Ratio = 1
	}
	p := &Pass{
		name:       name,
		engine:     engine,
		opts:       opts,
		defines:    opts.Defines.Clone(),
		index:      opts.Index,
		samples:    1,
		AutoClear:  true,
		ClearColor: color.Transparent,
	}
	if !opts.BlockCompilation {
		p.Compile()
	}
	return p
}

// Name returns the pass name.
func (p *Pass) Name() string { return p.name }

// ProgramName returns the program source name.
func (p *Pass) ProgramName() string { return p.opts.Program }

// Engine returns the engine the pass draws with.
func (p *Pass) Engine() device.Engine { return p.engine }

// Program returns the current program variant, or nil while compilation
// is blocked.
func (p *Pass) Program() device.Program { return p.program }

// Defines returns a copy of the current define set.
func (p *Pass) Defines() shader.Defines { return p.defines.Clone() }

// Compile creates the program variant if it does not exist yet.
func (p *Pass) Compile() {
	if p.program != nil {
		return
	}
	p.program = p.engine.CreateProgram(p.opts.Program, p.defines, p.index)
	if err := p.program.Err(); err != nil {
		postfx.Logger().Warn("postprocess: program unavailable",
			"pass", p.name, "program", p.opts.Program, "err", err)
	}
}

// UpdateEffect switches the pass to the variant for defines and index.
// Equal define sets reuse the cached variant.
func (p *Pass) UpdateEffect(defines shader.Defines, index map[string]int) {
	p.defines = defines.Clone()
	p.index = index
	p.program = nil
	p.Compile()
}

// IsReady reports whether the program exists and is ready to draw.
func (p *Pass) IsReady() bool {
	return p.program != nil && p.program.Ready()
}

// IsSupported reports whether the program can work. A pass whose
// compilation is still blocked counts as supported.
func (p *Pass) IsSupported() bool {
	return p.program == nil || p.program.Ready()
}

// Ratio returns the size ratio of the input texture.
func (p *Pass) Ratio() float32 { return p.opts.Ratio }

// AlwaysForcePOT reports whether the input size is floored to a power of
// two.
func (p *Pass) AlwaysForcePOT() bool { return p.opts.AlwaysForcePOT }

// Reusable reports whether the pass may appear twice in a chain.
func (p *Pass) Reusable() bool { return p.opts.Reusable }

// Samples returns the MSAA sample count of the input texture.
func (p *Pass) Samples() int { return p.samples }

// SetSamples changes the MSAA sample count, clamped to the device limit.
// The input texture is reallocated on the next activation.
func (p *Pass) SetSamples(n int) {
	n = p.engine.Caps().ClampSamples(n)
	if n == p.samples {
		return
	}
	p.samples = n
	p.releaseTexture()
}

// ShareOutputWith makes the pass render from other's input texture instead
// of its own. It returns p.
func (p *Pass) ShareOutputWith(other *Pass) *Pass {
	if other == p {
		return p
	}
	p.releaseTexture()
	p.shared = other
	return p
}

// UseOwnOutput stops sharing.
func (p *Pass) UseOwnOutput() {
	p.shared = nil
}

// SharedWith returns the pass whose texture p uses, or nil.
func (p *Pass) SharedWith() *Pass { return p.shared }

// OnApply registers a hook run before every draw of the pass.
func (p *Pass) OnApply(fn func(*ApplyEvent)) hook.Handle { return p.onApply.Add(fn) }

// RemoveOnApply unregisters an OnApply hook.
func (p *Pass) RemoveOnApply(h hook.Handle) bool { return p.onApply.Remove(h) }

// InputTexture returns the texture the previous stage renders into, or nil
// before the first activation.
func (p *Pass) InputTexture() device.Texture {
	if p.shared != nil {
		return p.shared.InputTexture()
	}
	return p.texture
}

// OutputTexture returns the texture the pass rendered into during the
// current frame, or nil when it renders to the default framebuffer.
func (p *Pass) OutputTexture() device.Texture { return p.output }

// Size returns the input texture size for a render size.
func (p *Pass) Size(renderWidth, renderHeight int) (width, height uint32) {
	if p.shared != nil {
		return p.shared.Size(renderWidth, renderHeight)
	}
	limit := p.engine.Caps().MaxTextureSize
	fit := func(v int) uint32 {
		s := max(uint32(float32(v)*p.opts.Ratio), 1) //nolint:gosec // non-negative render size
		if p.opts.AlwaysForcePOT {
			s = 1 << (bits.Len32(s) - 1)
		}
		return min(s, limit)
	}
	return fit(renderWidth), fit(renderHeight)
}

// Activate makes sure the input texture exists for the render size and
// clears it when AutoClear is set. It returns the texture to render into.
func (p *Pass) Activate(renderWidth, renderHeight int) (device.Texture, error) {
	if p.disposed {
		return nil, fmt.Errorf("%w: pass %q", device.ErrDisposed, p.name)
	}
	tex, err := p.ensureTexture(renderWidth, renderHeight)
	if err != nil {
		return nil, err
	}
	if p.AutoClear {
		if err := p.engine.Clear(tex, p.ClearColor); err != nil {
			return nil, err
		}
	}
	return tex, nil
}

func (p *Pass) ensureTexture(renderWidth, renderHeight int) (device.Texture, error) {
	if p.shared != nil {
		return p.shared.ensureTexture(renderWidth, renderHeight)
	}
	w, h := p.Size(renderWidth, renderHeight)
	if t := p.texture; t != nil && !t.Destroyed() && t.Width() == w && t.Height() == h {
		return t, nil
	}
	p.releaseTexture()

	desc := device.DefaultTextureDescriptor(w, h, p.opts.TextureType)
	desc.Label = p.name
	desc.SampleCount = uint32(p.samples) //nolint:gosec // clamped by SetSamples
	tex, err := p.engine.CreateRenderTarget(desc)
	if err != nil {
		return nil, fmt.Errorf("postprocess: pass %q: %w", p.name, err)
	}
	postfx.Logger().Debug("postprocess: input texture allocated",
		"pass", p.name, "width", w, "height", h, "samples", p.samples)
	p.texture = tex
	return tex, nil
}

// Apply prepares the bindings of one draw: textureSampler is bound to the
// input texture, then OnApply hooks run.
func (p *Pass) Apply() *ApplyEvent {
	ev := &ApplyEvent{Pass: p, Bindings: device.NewBindings()}
	ev.Bindings.SetTexture("textureSampler", p.InputTexture())
	p.onApply.Notify(ev)
	return ev
}

// Disposed reports whether Dispose has been called.
func (p *Pass) Disposed() bool { return p.disposed }

// Dispose detaches the pass from the given cameras and releases its input
// texture. A disposed pass cannot be activated again.
func (p *Pass) Dispose(cameras ...Camera) {
	for _, c := range cameras {
		if c != nil {
			c.DetachPostProcess(p)
		}
	}
	if p.disposed {
		return
	}
	p.disposed = true
	p.releaseTexture()
	p.shared = nil
	p.output = nil
	p.onApply.Clear()
}

func (p *Pass) releaseTexture() {
	if p.texture != nil {
		p.texture.Destroy()
		p.texture = nil
	}
}

// String returns the pass name.
func (p *Pass) String() string { return p.name }
