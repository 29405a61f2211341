package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/device"
	"github.com/gogpu/postfx/internal/hook"
	"github.com/gogpu/postfx/pipeline"
	"github.com/gogpu/postfx/postprocess"
)

// Scene owns cameras and the per-scene post-process state.
type Scene struct {
	engine device.Engine

	// AutoClear clears the default framebuffer at the start of each frame.
	AutoClear bool

	// ClearColor is used when AutoClear is set.
	ClearColor color.Color

	cameras         []*Camera
	activeCameras   []*Camera
	activeCamera    *Camera
	imageProcessing *ImageProcessingConfiguration
	manager         *pipeline.Manager
	depthRenderers  []*DepthRenderer

	afterRenderTargets hook.List[*Scene]
	resize             hook.List[*Scene]

	content image.Image
	depth   image.Image
	frames  int
}

// New creates an empty scene rendered by engine.
func New(engine device.Engine) *Scene {
	return &Scene{
		engine:          engine,
		AutoClear:       true,
		ClearColor:      color.Black,
		imageProcessing: newImageProcessingConfiguration(),
	}
}

// Engine returns the engine.
func (s *Scene) Engine() device.Engine { return s.engine }

// AddCamera creates a camera.
func (s *Scene) AddCamera(name string) *Camera {
	c := &Camera{name: name, scene: s, MinZ: 1, MaxZ: 10000}
	s.cameras = append(s.cameras, c)
	return c
}

// RemoveCamera removes a camera from the scene and disposes its depth
// renderer.
func (s *Scene) RemoveCamera(c *Camera) {
	s.cameras = slices.DeleteFunc(s.cameras, func(x *Camera) bool { return x == c })
	s.activeCameras = slices.DeleteFunc(s.activeCameras, func(x *Camera) bool { return x == c })
	s.DisableDepthRenderer(c)
}

// Cameras returns every camera.
func (s *Scene) Cameras() []*Camera { return s.cameras }

// SetActiveCameras selects the cameras rendered each frame. With none set
// the first camera is rendered.
func (s *Scene) SetActiveCameras(cameras ...*Camera) {
	s.activeCameras = slices.Clone(cameras)
}

// ActiveCameras returns the cameras selected with SetActiveCameras.
func (s *Scene) ActiveCameras() []*Camera { return s.activeCameras }

// ActiveCamera returns the camera being rendered, or the first camera
// outside of Render.
func (s *Scene) ActiveCamera() *Camera {
	if s.activeCamera != nil {
		return s.activeCamera
	}
	if len(s.cameras) > 0 {
		return s.cameras[0]
	}
	return nil
}

// ImageProcessingConfiguration returns the scene-wide image processing
// state.
func (s *Scene) ImageProcessingConfiguration() *ImageProcessingConfiguration {
	return s.imageProcessing
}

// PipelineManager returns the pipeline manager, creating it on first use.
func (s *Scene) PipelineManager() *pipeline.Manager {
	if s.manager == nil {
		s.manager = pipeline.NewManager()
	}
	return s.manager
}

// EnableDepthRenderer returns the depth renderer of c, creating it if
// needed.
func (s *Scene) EnableDepthRenderer(c *Camera) *DepthRenderer {
	if r := s.DepthRenderer(c); r != nil {
		return r
	}
	r := &DepthRenderer{scene: s, camera: c}
	s.depthRenderers = append(s.depthRenderers, r)
	return r
}

// DisableDepthRenderer disposes the depth renderer of c.
func (s *Scene) DisableDepthRenderer(c *Camera) {
	s.depthRenderers = slices.DeleteFunc(s.depthRenderers, func(r *DepthRenderer) bool {
		if r.camera != c {
			return false
		}
		r.dispose()
		return true
	})
}

// DepthRenderer returns the depth renderer of c, or nil.
func (s *Scene) DepthRenderer(c *Camera) *DepthRenderer {
	for _, r := range s.depthRenderers {
		if r.camera == c {
			return r
		}
	}
	return nil
}

// OnAfterRenderTargets registers a hook run for each rendered camera after
// its render targets (depth maps) are ready and before its passes run.
func (s *Scene) OnAfterRenderTargets(fn func(*Scene)) hook.Handle {
	return s.afterRenderTargets.Add(fn)
}

// RemoveAfterRenderTargets unregisters an after-render-targets hook.
func (s *Scene) RemoveAfterRenderTargets(h hook.Handle) bool {
	return s.afterRenderTargets.Remove(h)
}

// OnResize registers a hook run by NotifyResize.
func (s *Scene) OnResize(fn func(*Scene)) hook.Handle { return s.resize.Add(fn) }

// RemoveOnResize unregisters a resize hook.
func (s *Scene) RemoveOnResize(h hook.Handle) bool { return s.resize.Remove(h) }

// NotifyResize must be called after the engine render size or hardware
// scaling level changed.
func (s *Scene) NotifyResize() { s.resize.Notify(s) }

// SetContent sets the image the scene renders and its depth. depth may be
// nil, in which case depth maps are cleared to the far plane.
func (s *Scene) SetContent(content, depth image.Image) {
	s.content, s.depth = content, depth
}

// Frames returns the number of rendered frames.
func (s *Scene) Frames() int { return s.frames }

// Render renders one frame.
func (s *Scene) Render() error {
	s.frames++
	if s.manager != nil {
		s.manager.Update()
	}
	if s.AutoClear {
		if err := s.engine.Clear(nil, s.ClearColor); err != nil {
			return fmt.Errorf("scene: clear: %w", err)
		}
	}

	cameras := s.activeCameras
	if len(cameras) == 0 && len(s.cameras) > 0 {
		cameras = s.cameras[:1]
	}
	defer func() { s.activeCamera = nil }()
	for _, c := range cameras {
		s.activeCamera = c
		if err := s.renderCamera(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scene) renderCamera(c *Camera) error {
	if r := s.DepthRenderer(c); r != nil {
		if err := r.render(s.depth); err != nil {
			return err
		}
	}
	s.afterRenderTargets.Notify(s)

	chain := postprocess.NewChain(s.engine, c)
	target, err := chain.Begin()
	if errors.Is(err, postprocess.ErrNotReady) {
		c.skipped++
		postfx.Logger().Debug("scene: post-process not ready, rendering directly", "camera", c.name)
		return s.drawContent(nil)
	}
	if err != nil {
		return fmt.Errorf("scene: camera %q: %w", c.name, err)
	}
	if err := s.drawContent(target); err != nil {
		return err
	}
	if chain.Len() == 0 {
		return nil
	}
	if err := chain.Finish(); err != nil {
		return fmt.Errorf("scene: camera %q: %w", c.name, err)
	}
	return nil
}

func (s *Scene) drawContent(target device.Texture) error {
	if s.content == nil {
		return nil
	}
	if err := s.engine.Upload(target, s.content); err != nil {
		return fmt.Errorf("scene: draw content: %w", err)
	}
	return nil
}

// Dispose disposes the pipeline manager and depth renderers.
func (s *Scene) Dispose() {
	if s.manager != nil {
		s.manager.Dispose()
	}
	for _, r := range s.depthRenderers {
		r.dispose()
	}
	s.depthRenderers = nil
	s.afterRenderTargets.Clear()
	s.resize.Clear()
}
