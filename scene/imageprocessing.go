package scene

import (
	"image/color"

	"github.com/gogpu/postfx/device"
	"github.com/gogpu/postfx/internal/hook"
	"github.com/gogpu/postfx/shader"
)

// ToneMapping selects the tone mapping operator.
type ToneMapping int

const (
	// ToneMappingStandard is the Hable-style standard operator.
	ToneMappingStandard ToneMapping = iota
	// ToneMappingACES is the ACES filmic operator.
	ToneMappingACES
)

// ImageProcessingSettings are the user-facing image processing values.
type ImageProcessingSettings struct {
	Exposure           float32
	Contrast           float32
	ToneMappingEnabled bool
	ToneMappingType    ToneMapping
	VignetteEnabled    bool
	VignetteWeight     float32
	VignetteStretch    float32
	VignetteColor      color.NRGBA
	VignetteCenter     [2]float32
	ColorCurvesEnabled bool
	ColorCurves        ColorCurves

	// FromLinearSpace converts the output to gamma space.
	FromLinearSpace bool
}

// DefaultImageProcessingSettings returns neutral settings.
func DefaultImageProcessingSettings() ImageProcessingSettings {
	return ImageProcessingSettings{
		Exposure:        1,
		Contrast:        1,
		VignetteWeight:  1.5,
		VignetteColor:   color.NRGBA{A: 255},
		ColorCurves:     DefaultColorCurves(),
		FromLinearSpace: true,
	}
}

// ImageProcessingConfiguration is the scene-wide image processing state.
type ImageProcessingConfiguration struct {
	settings           ImageProcessingSettings
	applyByPostProcess bool
	onChange           hook.List[struct{}]
}

func newImageProcessingConfiguration() *ImageProcessingConfiguration {
	return &ImageProcessingConfiguration{settings: DefaultImageProcessingSettings()}
}

// Settings returns the current settings.
func (c *ImageProcessingConfiguration) Settings() ImageProcessingSettings { return c.settings }

// SetSettings replaces the settings and notifies change hooks.
func (c *ImageProcessingConfiguration) SetSettings(s ImageProcessingSettings) {
	c.settings = s
	c.onChange.Notify(struct{}{})
}

// ApplyByPostProcess reports whether image processing runs as a
// post-process instead of inside materials.
func (c *ImageProcessingConfiguration) ApplyByPostProcess() bool { return c.applyByPostProcess }

// SetApplyByPostProcess changes where image processing runs.
func (c *ImageProcessingConfiguration) SetApplyByPostProcess(v bool) {
	if c.applyByPostProcess == v {
		return
	}
	c.applyByPostProcess = v
	c.onChange.Notify(struct{}{})
}

// OnChange registers a change hook.
func (c *ImageProcessingConfiguration) OnChange(fn func(struct{})) hook.Handle {
	return c.onChange.Add(fn)
}

// RemoveOnChange unregisters a change hook.
func (c *ImageProcessingConfiguration) RemoveOnChange(h hook.Handle) bool {
	return c.onChange.Remove(h)
}

// Defines returns the program defines for the current settings. Settings
// that do nothing produce no define.
func (c *ImageProcessingConfiguration) Defines() shader.Defines {
	s := c.settings
	d := shader.NewDefines()
	if s.Exposure != 1 {
		d.Flag("EXPOSURE")
	}
	if s.Contrast != 1 {
		d.Flag("CONTRAST")
	}
	if s.ToneMappingEnabled {
		d.Flag("TONEMAPPING")
		if s.ToneMappingType == ToneMappingACES {
			d.Flag("TONEMAPPING_ACES")
		}
	}
	if s.VignetteEnabled {
		d.Flag("VIGNETTE")
	}
	if s.ColorCurvesEnabled {
		d.Flag("COLORCURVES")
	}
	if s.FromLinearSpace {
		d.Flag("GAMMA")
	}
	return d
}

// Bind sets the uniforms for the current settings.
func (c *ImageProcessingConfiguration) Bind(b *device.Bindings) {
	s := c.settings
	b.SetFloat("exposureLinear", s.Exposure)
	b.SetFloat("contrast", s.Contrast)
	b.SetFloat("vignetteWeight", s.VignetteWeight)
	b.SetFloat("vignetteStretch", s.VignetteStretch)
	b.SetFloat4("vignetteColor",
		float32(s.VignetteColor.R)/255, float32(s.VignetteColor.G)/255,
		float32(s.VignetteColor.B)/255, float32(s.VignetteColor.A)/255)
	b.SetFloat2("vignetteCenter", s.VignetteCenter[0], s.VignetteCenter[1])

	neutral, positive, negative := s.ColorCurves.Uniforms()
	b.SetFloat4("colorCurveNeutral", neutral[0], neutral[1], neutral[2], neutral[3])
	b.SetFloat4("colorCurvePositive", positive[0], positive[1], positive[2], positive[3])
	b.SetFloat4("colorCurveNegative", negative[0], negative[1], negative[2], negative[3])
}
