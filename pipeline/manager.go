package pipeline

import (
	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/postprocess"
)

// Manager is the registry of the pipelines of one scene.
type Manager struct {
	pipelines map[string]Pipeline
	order     []string
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{pipelines: make(map[string]Pipeline)}
}

// AddPipeline registers p under its name, replacing any previous pipeline
// with that name.
func (m *Manager) AddPipeline(p Pipeline) {
	if _, ok := m.pipelines[p.Name()]; !ok {
		m.order = append(m.order, p.Name())
	}
	m.pipelines[p.Name()] = p
}

// Pipeline returns the pipeline registered under name, or nil.
func (m *Manager) Pipeline(name string) Pipeline { return m.pipelines[name] }

// Pipelines returns the pipelines in registration order.
func (m *Manager) Pipelines() []Pipeline {
	out := make([]Pipeline, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.pipelines[name])
	}
	return out
}

// RemovePipeline forgets a pipeline without disposing it.
func (m *Manager) RemovePipeline(name string) {
	if _, ok := m.pipelines[name]; !ok {
		return
	}
	delete(m.pipelines, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// AttachCamerasToRenderPipeline attaches cameras to the named pipeline.
// It returns the cameras actually attached.
func (m *Manager) AttachCamerasToRenderPipeline(name string, cameras []postprocess.Camera, unique bool) []postprocess.Camera {
	p := m.pipelines[name]
	if p == nil {
		return nil
	}
	return p.AttachCameras(cameras, unique)
}

// DetachCamerasFromRenderPipeline detaches cameras from the named pipeline.
func (m *Manager) DetachCamerasFromRenderPipeline(name string, cameras ...postprocess.Camera) {
	if p := m.pipelines[name]; p != nil {
		p.DetachCameras(cameras...)
	}
}

// EnableEffectInPipeline enables an effect of the named pipeline.
func (m *Manager) EnableEffectInPipeline(name, effect string, cameras ...postprocess.Camera) {
	if p := m.pipelines[name]; p != nil {
		p.EnableEffect(effect, cameras...)
	}
}

// DisableEffectInPipeline disables an effect of the named pipeline.
func (m *Manager) DisableEffectInPipeline(name, effect string, cameras ...postprocess.Camera) {
	if p := m.pipelines[name]; p != nil {
		p.DisableEffect(effect, cameras...)
	}
}

// Update runs once per frame. Unsupported pipelines are disposed and
// removed; the others are updated.
func (m *Manager) Update() {
	for _, p := range m.Pipelines() {
		if !p.IsSupported() {
			postfx.Logger().Info("pipeline: unsupported pipeline removed", "pipeline", p.Name())
			p.Dispose()
			m.RemovePipeline(p.Name())
			continue
		}
		p.Update()
	}
}

// Rebuild asks every pipeline to recreate its device resources.
func (m *Manager) Rebuild() {
	for _, p := range m.Pipelines() {
		p.Rebuild()
	}
}

// Dispose disposes and removes every pipeline.
func (m *Manager) Dispose() {
	for _, p := range m.Pipelines() {
		p.Dispose()
	}
	clear(m.pipelines)
	m.order = nil
}
