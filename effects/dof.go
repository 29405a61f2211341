package effects

import (
	"math"

	"github.com/gogpu/postfx/device"
	"github.com/gogpu/postfx/pipeline"
	"github.com/gogpu/postfx/postprocess"
)

// DepthOfFieldName is the render effect name of DepthOfField.
const DepthOfFieldName = "depth of field"

// BlurLevel is the quality of the depth of field blur.
type BlurLevel int

const (
	// BlurLevelLow uses one blur step.
	BlurLevelLow BlurLevel = iota
	// BlurLevelMedium uses two blur steps.
	BlurLevelMedium
	// BlurLevelHigh uses three blur steps.
	BlurLevelHigh
)

// String returns the level name.
func (l BlurLevel) String() string {
	switch l {
	case BlurLevelMedium:
		return "Medium"
	case BlurLevelHigh:
		return "High"
	default:
		return "Low"
	}
}

// Steps returns the number of blur steps and the kernel size of the level.
func (l BlurLevel) Steps() (count int, kernel float64) {
	switch l {
	case BlurLevelHigh:
		return 3, 51
	case BlurLevelMedium:
		return 2, 31
	default:
		return 1, 15
	}
}

// DepthOfField blurs the scene according to the distance from the focus
// plane.
type DepthOfField struct {
	*pipeline.RenderEffect

	level  BlurLevel
	coc    *postprocess.CircleOfConfusion
	blurY  []*postprocess.Blur
	blurX  []*postprocess.Blur
	merge  *postprocess.Pass
	passes []*postprocess.Pass
}

// DepthOfFieldOptions configures NewDepthOfField.
type DepthOfFieldOptions struct {
	BlurLevel        BlurLevel
	DepthTexture     device.Texture
	TextureType      device.TextureType
	BlockCompilation bool
}

// NewDepthOfField creates a depth of field effect.
func NewDepthOfField(engine device.Engine, opts DepthOfFieldOptions) *DepthOfField {
	d := &DepthOfField{level: opts.BlurLevel}

	cocType := device.TextureTypeUnsignedByte
	if engine.Caps().HalfFloatRender {
		cocType = device.TextureTypeHalfFloat
	}
	d.coc = postprocess.NewCircleOfConfusion(engine, "circleOfConfusion", postprocess.Options{
		Ratio:            1,
		TextureType:      cocType,
		BlockCompilation: opts.BlockCompilation,
	})
	d.coc.DepthTexture = opts.DepthTexture

	count, kernel := opts.BlurLevel.Steps()
	adjusted := kernel / math.Pow(2, float64(count-1))
	ratio := float32(1)
	for i := 0; i < count; i++ {
		var image *postprocess.Pass
		if i == 0 {
			image = d.coc.Pass
		}
		blurY := postprocess.NewBlur(engine, "vertical blur", postprocess.BlurOptions{
			Direction:         [2]float32{0, 1},
			Kernel:            adjusted,
			Ratio:             ratio,
			TextureType:       opts.TextureType,
			BlockCompilation:  opts.BlockCompilation,
			CircleOfConfusion: d.coc.Pass,
			ImageToBlur:       image,
		})
		blurY.AutoClear = false

		ratio = 0.75 / float32(math.Pow(2, float64(i)))
		blurX := postprocess.NewBlur(engine, "horizontal blur", postprocess.BlurOptions{
			Direction:         [2]float32{1, 0},
			Kernel:            adjusted,
			Ratio:             ratio,
			TextureType:       opts.TextureType,
			BlockCompilation:  opts.BlockCompilation,
			CircleOfConfusion: d.coc.Pass,
		})
		blurX.AutoClear = false

		d.blurY = append(d.blurY, blurY)
		d.blurX = append(d.blurX, blurX)
	}

	d.passes = []*postprocess.Pass{d.coc.Pass}
	steps := make([]*postprocess.Pass, len(d.blurX))
	for i := range d.blurX {
		d.passes = append(d.passes, d.blurY[i].Pass, d.blurX[i].Pass)
		steps[i] = d.blurX[i].Pass
	}
	d.merge = postprocess.NewDepthOfFieldMerge(engine, "dofMerge", d.coc.Pass, d.coc.Pass, steps, postprocess.Options{
		Ratio:            ratio,
		TextureType:      opts.TextureType,
		BlockCompilation: opts.BlockCompilation,
	})
	d.merge.AutoClear = false
	d.passes = append(d.passes, d.merge)

	d.RenderEffect = pipeline.NewRenderEffect(DepthOfFieldName, func() []*postprocess.Pass { return d.passes }, true)
	return d
}

// BlurLevel returns the blur quality.
func (d *DepthOfField) BlurLevel() BlurLevel { return d.level }

// FocalLength returns the focal length of the lens.
func (d *DepthOfField) FocalLength() float32 { return d.coc.FocalLength }

// SetFocalLength sets the focal length of the lens.
func (d *DepthOfField) SetFocalLength(v float32) { d.coc.FocalLength = v }

// FStop returns the aperture f-number.
func (d *DepthOfField) FStop() float32 { return d.coc.FStop }

// SetFStop sets the aperture f-number.
func (d *DepthOfField) SetFStop(v float32) { d.coc.FStop = v }

// FocusDistance returns the distance of the focus plane.
func (d *DepthOfField) FocusDistance() float32 { return d.coc.FocusDistance }

// SetFocusDistance sets the distance of the focus plane.
func (d *DepthOfField) SetFocusDistance(v float32) { d.coc.FocusDistance = v }

// LensSize returns the lens diameter.
func (d *DepthOfField) LensSize() float32 { return d.coc.LensSize }

// SetLensSize sets the lens diameter.
func (d *DepthOfField) SetLensSize(v float32) { d.coc.LensSize = v }

// DepthTexture returns the depth texture read by the circle of confusion.
func (d *DepthOfField) DepthTexture() device.Texture { return d.coc.DepthTexture }

// SetDepthTexture sets the depth texture and the clip planes used to
// linearize it.
func (d *DepthOfField) SetDepthTexture(t device.Texture, near, far float32) {
	d.coc.DepthTexture = t
	d.coc.Near, d.coc.Far = near, far
}

// Passes returns the passes in execution order.
func (d *DepthOfField) Passes() []*postprocess.Pass { return d.passes }

// FirstPass returns the pass the previous stage renders into.
func (d *DepthOfField) FirstPass() *postprocess.Pass { return d.coc.Pass }

// IsReady reports whether every pass can draw.
func (d *DepthOfField) IsReady() bool {
	for _, p := range d.passes {
		if !p.IsReady() {
			return false
		}
	}
	return true
}

// UpdateEffects compiles passes whose compilation was blocked.
func (d *DepthOfField) UpdateEffects() {
	for _, p := range d.passes {
		p.Compile()
	}
}

// DisposeEffects disposes the passes for the given cameras.
func (d *DepthOfField) DisposeEffects(cameras ...postprocess.Camera) {
	for _, p := range d.passes {
		p.Dispose(cameras...)
	}
}
