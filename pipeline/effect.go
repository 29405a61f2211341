package pipeline

import (
	"slices"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/internal/hook"
	"github.com/gogpu/postfx/postprocess"
)

// Factory creates the passes of a render effect. Returning no passes is
// valid; the effect then contributes nothing.
type Factory func() []*postprocess.Pass

// RenderEffect is a named set of passes that can be attached to cameras.
//
// A single-instance effect shares one set of passes between all cameras;
// otherwise the factory runs once per camera.
type RenderEffect struct {
	name           string
	factory        Factory
	singleInstance bool

	shared    []*postprocess.Pass
	perCamera map[postprocess.Camera][]*postprocess.Pass
	indices   map[postprocess.Camera][]int
	cameras   []postprocess.Camera

	onUpdate hook.List[*RenderEffect]
}

// NewRenderEffect creates a render effect.
func NewRenderEffect(name string, factory Factory, singleInstance bool) *RenderEffect {
	return &RenderEffect{
		name:           name,
		factory:        factory,
		singleInstance: singleInstance,
		perCamera:      make(map[postprocess.Camera][]*postprocess.Pass),
		indices:        make(map[postprocess.Camera][]int),
	}
}

// Name returns the effect name.
func (e *RenderEffect) Name() string { return e.name }

// SingleInstance reports whether all cameras share one set of passes.
func (e *RenderEffect) SingleInstance() bool { return e.singleInstance }

// Passes returns the passes used for camera, or nil before the first
// attach. For a single-instance effect camera is ignored.
func (e *RenderEffect) Passes(camera postprocess.Camera) []*postprocess.Pass {
	if e.singleInstance {
		return e.shared
	}
	return e.perCamera[camera]
}

// AllPasses returns every materialized pass.
func (e *RenderEffect) AllPasses() []*postprocess.Pass {
	if e.singleInstance {
		return e.shared
	}
	var out []*postprocess.Pass
	for _, c := range e.cameras {
		out = append(out, e.perCamera[c]...)
	}
	return out
}

// Indices returns the positions of the passes in the pass list of camera.
func (e *RenderEffect) Indices(camera postprocess.Camera) []int { return e.indices[camera] }

// Cameras returns the attached cameras in attach order.
func (e *RenderEffect) Cameras() []postprocess.Camera { return e.cameras }

// IsAttached reports whether camera is attached.
func (e *RenderEffect) IsAttached(camera postprocess.Camera) bool {
	_, ok := e.indices[camera]
	return ok
}

// OnUpdate registers a per-frame hook.
func (e *RenderEffect) OnUpdate(fn func(*RenderEffect)) hook.Handle { return e.onUpdate.Add(fn) }

// Update runs the per-frame hooks.
func (e *RenderEffect) Update() { e.onUpdate.Notify(e) }

// IsSupported reports whether every materialized pass can work.
func (e *RenderEffect) IsSupported() bool {
	for _, p := range e.AllPasses() {
		if p != nil && !p.IsSupported() {
			return false
		}
	}
	return true
}

func (e *RenderEffect) materialize(camera postprocess.Camera) []*postprocess.Pass {
	if e.singleInstance {
		if e.shared == nil && e.factory != nil {
			e.shared = e.factory()
		}
		return e.shared
	}
	passes, ok := e.perCamera[camera]
	if !ok && e.factory != nil {
		passes = e.factory()
		e.perCamera[camera] = passes
	}
	return passes
}

// Attach appends the passes to each camera not attached yet and records
// where they landed.
func (e *RenderEffect) Attach(cameras ...postprocess.Camera) {
	for _, c := range cameras {
		if c == nil || e.IsAttached(c) {
			continue
		}
		passes := e.materialize(c)
		indices := make([]int, 0, len(passes))
		for _, p := range passes {
			indices = append(indices, c.AttachPostProcess(p, -1))
		}
		e.indices[c] = indices
		e.cameras = append(e.cameras, c)
		postfx.Logger().Debug("pipeline: effect attached",
			"effect", e.name, "camera", c.Name(), "indices", indices)
	}
}

// Detach removes the passes from each camera. The passes are kept and
// reused by a later Attach.
func (e *RenderEffect) Detach(cameras ...postprocess.Camera) {
	for _, c := range cameras {
		if c == nil || !e.IsAttached(c) {
			continue
		}
		for _, p := range e.Passes(c) {
			c.DetachPostProcess(p)
		}
		delete(e.indices, c)
		e.cameras = removeCamera(e.cameras, c)
	}
}

// Enable puts the passes back at their recorded indices where the slot is
// empty. Programs are not recreated.
func (e *RenderEffect) Enable(cameras ...postprocess.Camera) {
	for _, c := range cameras {
		indices, ok := e.indices[c]
		if !ok {
			continue
		}
		for j, p := range e.Passes(c) {
			if j >= len(indices) {
				break
			}
			at := indices[j]
			list := c.PostProcesses()
			if at >= 0 && at < len(list) && list[at] != nil {
				continue
			}
			c.AttachPostProcess(p, at)
		}
	}
}

// Disable removes the passes from each camera, keeping the recorded
// indices.
func (e *RenderEffect) Disable(cameras ...postprocess.Camera) {
	for _, c := range cameras {
		if !e.IsAttached(c) {
			continue
		}
		for _, p := range e.Passes(c) {
			c.DetachPostProcess(p)
		}
	}
}

// DisposePasses detaches and disposes the passes used for each camera and
// forgets them. A later Attach runs the factory anew. Shared passes of a
// single-instance effect are disposed for every camera at once.
func (e *RenderEffect) DisposePasses(cameras ...postprocess.Camera) {
	if e.singleInstance {
		e.Detach(slices.Concat(cameras, e.cameras)...)
		for _, p := range e.shared {
			p.Dispose(cameras...)
		}
		e.shared = nil
		return
	}
	for _, c := range cameras {
		e.Detach(c)
		for _, p := range e.perCamera[c] {
			p.Dispose(c)
		}
		delete(e.perCamera, c)
	}
}

func removeCamera(list []postprocess.Camera, c postprocess.Camera) []postprocess.Camera {
	for i, x := range list {
		if x == c {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
