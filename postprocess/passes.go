package postprocess

import (
	"strconv"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/device"
	"github.com/gogpu/postfx/internal/hook"
	"github.com/gogpu/postfx/shader"
)

// NewPassThrough creates a pass that copies its input.
func NewPassThrough(engine device.Engine, name string, ratio float32) *Pass {
	return New(engine, name, Options{Program: "pass", Ratio: ratio})
}

// ExtractHighlights keeps the pixels whose luminance reaches a threshold.
type ExtractHighlights struct {
	*Pass

	Threshold float32
	Exposure  float32
}

// NewExtractHighlights creates a highlight extraction pass.
func NewExtractHighlights(engine device.Engine, name string, opts Options) *ExtractHighlights {
	opts.Program = "extract_highlights"
	opts.Uniforms = []string{"threshold", "exposure"}
	e := &ExtractHighlights{Pass: New(engine, name, opts), Threshold: 0.9, Exposure: 1}
	e.OnApply(func(ev *ApplyEvent) {
		ev.Bindings.SetFloat("threshold", e.Threshold)
		ev.Bindings.SetFloat("exposure", e.Exposure)
	})
	return e
}

// BloomMerge adds a blurred highlight texture over the original image.
type BloomMerge struct {
	*Pass

	Weight float32
}

// NewBloomMerge creates a merge pass reading the input of original and the
// output of blurred.
func NewBloomMerge(engine device.Engine, name string, original, blurred *Pass, weight float32, opts Options) *BloomMerge {
	opts.Program = "bloom_merge"
	opts.Uniforms = []string{"bloomWeight"}
	opts.Samplers = []string{"bloomBlur"}
	m := &BloomMerge{Pass: New(engine, name, opts), Weight: weight}
	m.OnApply(func(ev *ApplyEvent) {
		ev.Bindings.SetTexture("textureSampler", original.InputTexture())
		ev.Bindings.SetTexture("bloomBlur", blurred.OutputTexture())
		ev.Bindings.SetFloat("bloomWeight", m.Weight)
	})
	return m
}

// CircleOfConfusion computes the per-pixel blur amount from depth.
type CircleOfConfusion struct {
	*Pass

	// Lens parameters, in scene units.
	FocalLength   float32
	FStop         float32
	FocusDistance float32
	LensSize      float32

	// Near and Far are the camera clip planes used to linearize depth.
	Near float32
	Far  float32

	// DepthTexture is the linear depth of the scene. The pass is skipped
	// while it is nil.
	DepthTexture device.Texture
}

// NewCircleOfConfusion creates a circle of confusion pass.
func NewCircleOfConfusion(engine device.Engine, name string, opts Options) *CircleOfConfusion {
	opts.Program = "circle_of_confusion"
	opts.Uniforms = []string{"cameraMinMaxZ", "focusDistance", "cocPrecalculation"}
	opts.Samplers = []string{"depthSampler"}
	c := &CircleOfConfusion{
		Pass:          New(engine, name, opts),
		FocalLength:   50,
		FStop:         1.4,
		FocusDistance: 2000,
		LensSize:      50,
		Near:          1,
		Far:           10000,
	}
	c.OnApply(c.bind)
	return c
}

// Precalculation returns the lens term shared by every pixel.
func (c *CircleOfConfusion) Precalculation() float32 {
	aperture := c.LensSize / c.FStop
	return aperture * c.FocalLength / (c.FocusDistance - c.FocalLength)
}

func (c *CircleOfConfusion) bind(ev *ApplyEvent) {
	if c.DepthTexture == nil {
		postfx.Logger().Warn("postprocess: depth texture missing, circle of confusion skipped", "pass", c.Name())
		ev.Skip = true
		return
	}
	ev.Bindings.SetTexture("depthSampler", c.DepthTexture)
	ev.Bindings.SetFloat("focusDistance", c.FocusDistance)
	ev.Bindings.SetFloat("cocPrecalculation", c.Precalculation())
	ev.Bindings.SetFloat2("cameraMinMaxZ", c.Near, c.Far-c.Near)
}

// NewDepthOfFieldMerge creates the pass blending the original image with
// progressively blurred steps according to the circle of confusion.
func NewDepthOfFieldMerge(engine device.Engine, name string, original, coc *Pass, blurSteps []*Pass, opts Options) *Pass {
	defines := opts.Defines.Clone()
	defines.SetInt("BLUR_LEVELS", max(len(blurSteps)-1, 0))
	opts.Program = "depth_of_field_merge"
	opts.Defines = defines
	opts.Index = map[string]int{"blurSteps": len(blurSteps)}
	opts.Samplers = []string{"circleOfConfusionSampler"}
	for i := range blurSteps {
		opts.Samplers = append(opts.Samplers, blurStepName(i))
	}
	p := New(engine, name, opts)
	p.OnApply(func(ev *ApplyEvent) {
		ev.Bindings.SetTexture("textureSampler", original.InputTexture())
		ev.Bindings.SetTexture("circleOfConfusionSampler", coc.OutputTexture())
		for i, step := range blurSteps {
			ev.Bindings.SetTexture(blurStepName(len(blurSteps)-i-1), step.OutputTexture())
		}
	})
	return p
}

func blurStepName(i int) string {
	return "blurStep" + strconv.Itoa(i)
}

// Sharpen enhances edges.
type Sharpen struct {
	*Pass

	EdgeAmount  float32
	ColorAmount float32
}

// NewSharpen creates a sharpen pass.
func NewSharpen(engine device.Engine, name string, opts Options) *Sharpen {
	opts.Program = "sharpen"
	opts.Uniforms = []string{"sharpnessAmounts", "screenSize"}
	s := &Sharpen{Pass: New(engine, name, opts), EdgeAmount: 0.3, ColorAmount: 1}
	s.OnApply(func(ev *ApplyEvent) {
		if in := s.InputTexture(); in != nil {
			ev.Bindings.SetFloat2("screenSize", float32(in.Width()), float32(in.Height()))
		}
		ev.Bindings.SetFloat2("sharpnessAmounts", s.EdgeAmount, s.ColorAmount)
	})
	return s
}

// Grain adds film grain noise.
type Grain struct {
	*Pass

	Intensity float32
	Animated  bool

	seed float32
}

// NewGrain creates a grain pass.
func NewGrain(engine device.Engine, name string, opts Options) *Grain {
	opts.Program = "grain"
	opts.Uniforms = []string{"intensity", "animatedSeed"}
	g := &Grain{Pass: New(engine, name, opts), Intensity: 30}
	g.OnApply(func(ev *ApplyEvent) {
		ev.Bindings.SetFloat("intensity", g.Intensity)
		ev.Bindings.SetFloat("animatedSeed", g.seed)
	})
	return g
}

// Seed returns the current noise seed.
func (g *Grain) Seed() float32 { return g.seed }

// Advance moves the noise seed when the grain is animated.
func (g *Grain) Advance() {
	if !g.Animated {
		return
	}
	g.seed += 0.1
	if g.seed > 10 {
		g.seed -= 10
	}
}

// ChromaticAberration splits color channels away from a center.
type ChromaticAberration struct {
	*Pass

	AberrationAmount float32
	RadialIntensity  float32
	Direction        [2]float32
	Centre           [2]float32
}

// NewChromaticAberration creates a chromatic aberration pass.
func NewChromaticAberration(engine device.Engine, name string, opts Options) *ChromaticAberration {
	opts.Program = "chromatic_aberration"
	opts.Uniforms = []string{"chromaticAberration", "screenSize", "direction", "radialIntensity", "centerPosition"}
	c := &ChromaticAberration{
		Pass:             New(engine, name, opts),
		AberrationAmount: 30,
		Centre:           [2]float32{0.5, 0.5},
	}
	c.OnApply(func(ev *ApplyEvent) {
		if in := c.InputTexture(); in != nil {
			ev.Bindings.SetFloat2("screenSize", float32(in.Width()), float32(in.Height()))
		}
		ev.Bindings.SetFloat("chromaticAberration", c.AberrationAmount)
		ev.Bindings.SetFloat("radialIntensity", c.RadialIntensity)
		ev.Bindings.SetFloat2("direction", c.Direction[0], c.Direction[1])
		ev.Bindings.SetFloat2("centerPosition", c.Centre[0], c.Centre[1])
	})
	return c
}

// NewFXAA creates a fast approximate anti-aliasing pass.
func NewFXAA(engine device.Engine, name string, opts Options) *Pass {
	opts.Program = "fxaa"
	opts.Uniforms = []string{"texelSize"}
	p := New(engine, name, opts)
	p.OnApply(func(ev *ApplyEvent) {
		if in := p.InputTexture(); in != nil {
			ev.Bindings.SetFloat2("texelSize", 1/float32(in.Width()), 1/float32(in.Height()))
		}
	})
	return p
}

// ImageProcessingConfig is the image processing state a pass renders.
type ImageProcessingConfig interface {
	// Defines returns the program defines for the current state.
	Defines() shader.Defines

	// Bind sets the uniforms for the current state.
	Bind(b *device.Bindings)

	// SetApplyByPostProcess records whether image processing runs as a
	// post-process instead of inside materials.
	SetApplyByPostProcess(v bool)

	// OnChange registers a hook run after every change.
	OnChange(fn func(struct{})) hook.Handle

	// RemoveOnChange unregisters a change hook.
	RemoveOnChange(h hook.Handle) bool
}

// ImageProcessing applies exposure, vignette, tone mapping, contrast, color
// curves and gamma.
type ImageProcessing struct {
	*Pass

	config ImageProcessingConfig
	change hook.Handle
}

// NewImageProcessing creates an image processing pass bound to config.
// Creating the pass moves image processing to the post-process path.
func NewImageProcessing(engine device.Engine, name string, config ImageProcessingConfig, opts Options) *ImageProcessing {
	opts.Program = "image_processing"
	opts.Uniforms = []string{
		"exposureLinear", "contrast",
		"vignetteWeight", "vignetteStretch", "vignetteColor", "vignetteCenter",
		"colorCurveNeutral", "colorCurvePositive", "colorCurveNegative",
	}
	opts.Defines = config.Defines()
	ip := &ImageProcessing{Pass: New(engine, name, opts), config: config}
	config.SetApplyByPostProcess(true)
	ip.change = config.OnChange(func(struct{}) {
		if ip.Disposed() {
			return
		}
		if d := config.Defines(); !d.Equal(ip.defines) {
			ip.UpdateEffect(d, nil)
		}
	})
	ip.OnApply(func(ev *ApplyEvent) { config.Bind(ev.Bindings) })
	return ip
}

// Configuration returns the bound configuration.
func (ip *ImageProcessing) Configuration() ImageProcessingConfig { return ip.config }

// Dispose releases the pass, stops following configuration changes and
// moves image processing back to materials.
func (ip *ImageProcessing) Dispose(cameras ...Camera) {
	if ip.Disposed() {
		return
	}
	ip.config.RemoveOnChange(ip.change)
	ip.config.SetApplyByPostProcess(false)
	ip.Pass.Dispose(cameras...)
}
