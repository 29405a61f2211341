package scene

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/device"
)

// DepthRenderer renders the depth map of one camera.
type DepthRenderer struct {
	scene   *Scene
	camera  *Camera
	texture device.Texture
}

// Camera returns the camera the map is rendered for.
func (r *DepthRenderer) Camera() *Camera { return r.camera }

// DepthMap returns the depth texture at the current render size. The
// texture is reallocated after a resize, so holders must fetch it again
// once NotifyResize has run.
func (r *DepthRenderer) DepthMap() device.Texture {
	t, err := r.ensure()
	if err != nil {
		postfx.Logger().Warn("scene: depth map unavailable", "camera", r.camera.name, "err", err)
		return nil
	}
	return t
}

func (r *DepthRenderer) ensure() (device.Texture, error) {
	e := r.scene.engine
	w, h := e.RenderSize()
	if t := r.texture; t != nil && !t.Destroyed() && t.Width() == uint32(w) && t.Height() == uint32(h) { //nolint:gosec // render size is positive
		return t, nil
	}
	r.dispose()
	desc := device.DefaultTextureDescriptor(uint32(w), uint32(h), device.TextureTypeUnsignedByte) //nolint:gosec // render size is positive
	desc.Label = "depth:" + r.camera.name
	t, err := e.CreateRenderTarget(desc)
	if err != nil {
		return nil, fmt.Errorf("scene: depth map for %q: %w", r.camera.name, err)
	}
	r.texture = t
	return t, nil
}

func (r *DepthRenderer) render(depth image.Image) error {
	t, err := r.ensure()
	if err != nil {
		return err
	}
	if depth == nil {
		return r.scene.engine.Clear(t, color.White)
	}
	return r.scene.engine.Upload(t, depth)
}

func (r *DepthRenderer) dispose() {
	if r.texture != nil {
		r.texture.Destroy()
		r.texture = nil
	}
}
