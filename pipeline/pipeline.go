package pipeline

import (
	"slices"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/device"
	"github.com/gogpu/postfx/postprocess"
)

// Pipeline is what a Manager drives. *RenderPipeline implements it;
// composite pipelines embed it and override Rebuild and Dispose.
type Pipeline interface {
	Name() string
	IsSupported() bool
	Update()
	Rebuild()
	Dispose()
	AttachCameras(cameras []postprocess.Camera, unique bool) []postprocess.Camera
	DetachCameras(cameras ...postprocess.Camera)
	EnableEffect(name string, cameras ...postprocess.Camera)
	DisableEffect(name string, cameras ...postprocess.Camera)
}

// RenderPipeline is a named, ordered collection of render effects.
type RenderPipeline struct {
	name    string
	engine  device.Engine
	effects map[string]*RenderEffect
	order   []string
	cameras []postprocess.Camera
}

// NewRenderPipeline creates an empty pipeline.
func NewRenderPipeline(engine device.Engine, name string) *RenderPipeline {
	return &RenderPipeline{
		name:    name,
		engine:  engine,
		effects: make(map[string]*RenderEffect),
	}
}

// Name returns the pipeline name.
func (p *RenderPipeline) Name() string { return p.name }

// Engine returns the engine the pipeline was created with.
func (p *RenderPipeline) Engine() device.Engine { return p.engine }

// AddEffect registers an effect. An effect with the same name is replaced
// in place.
func (p *RenderPipeline) AddEffect(e *RenderEffect) {
	if _, ok := p.effects[e.Name()]; !ok {
		p.order = append(p.order, e.Name())
	}
	p.effects[e.Name()] = e
}

// Effect returns the effect registered under name, or nil.
func (p *RenderPipeline) Effect(name string) *RenderEffect { return p.effects[name] }

// Effects returns the effects in registration order.
func (p *RenderPipeline) Effects() []*RenderEffect {
	out := make([]*RenderEffect, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.effects[name])
	}
	return out
}

// ResetEffects forgets every effect without detaching it.
func (p *RenderPipeline) ResetEffects() {
	clear(p.effects)
	p.order = p.order[:0]
}

// Cameras returns the attached cameras.
func (p *RenderPipeline) Cameras() []postprocess.Camera { return p.cameras }

// AttachCameras attaches cameras to every effect. When unique is set,
// cameras already attached are dropped from the returned list, which is
// the list that was actually attached; otherwise the input list is
// returned unchanged.
func (p *RenderPipeline) AttachCameras(cameras []postprocess.Camera, unique bool) []postprocess.Camera {
	cameras = slices.Clone(cameras)
	kept := cameras[:0]
	for _, c := range cameras {
		if c == nil {
			continue
		}
		if slices.Contains(p.cameras, c) {
			if unique {
				continue
			}
		} else {
			p.cameras = append(p.cameras, c)
		}
		kept = append(kept, c)
	}
	for _, e := range p.Effects() {
		e.Attach(kept...)
	}
	postfx.Logger().Debug("pipeline: cameras attached", "pipeline", p.name, "cameras", len(kept))
	return kept
}

// DetachCameras detaches cameras from every effect, then forgets them.
func (p *RenderPipeline) DetachCameras(cameras ...postprocess.Camera) {
	for _, e := range p.Effects() {
		e.Detach(cameras...)
	}
	for _, c := range cameras {
		p.cameras = removeCamera(p.cameras, c)
	}
}

// EnableEffect enables the named effect on cameras. Unknown names are
// ignored.
func (p *RenderPipeline) EnableEffect(name string, cameras ...postprocess.Camera) {
	if e := p.effects[name]; e != nil {
		e.Enable(cameras...)
	}
}

// DisableEffect disables the named effect on cameras. Unknown names are
// ignored.
func (p *RenderPipeline) DisableEffect(name string, cameras ...postprocess.Camera) {
	if e := p.effects[name]; e != nil {
		e.Disable(cameras...)
	}
}

// IsSupported reports whether every effect is supported.
func (p *RenderPipeline) IsSupported() bool {
	for _, e := range p.effects {
		if !e.IsSupported() {
			return false
		}
	}
	return true
}

// Update runs the per-frame hooks of every effect.
func (p *RenderPipeline) Update() {
	for _, e := range p.Effects() {
		e.Update()
	}
}

// Rebuild is called after a device reset. A plain pipeline has nothing to
// recreate.
func (p *RenderPipeline) Rebuild() {}

// EnableMSAAOnFirstPostProcess requests samples on the first pass of the
// first effect. It reports false when the device has no multisampled
// render targets.
func (p *RenderPipeline) EnableMSAAOnFirstPostProcess(samples int) bool {
	if !p.engine.Caps().SupportsMSAA {
		return false
	}
	if len(p.order) == 0 {
		return true
	}
	first := p.effects[p.order[0]]
	for _, c := range first.Cameras() {
		if passes := first.Passes(c); len(passes) > 0 {
			passes[0].SetSamples(samples)
			return true
		}
	}
	if passes := first.AllPasses(); len(passes) > 0 {
		passes[0].SetSamples(samples)
	}
	return true
}

// Dispose detaches every camera. Passes are owned by whoever created the
// effects and are not disposed.
func (p *RenderPipeline) Dispose() {
	p.DetachCameras(slices.Clone(p.cameras)...)
}

var _ Pipeline = (*RenderPipeline)(nil)
