package effects

import (
	"github.com/gogpu/postfx/device"
	"github.com/gogpu/postfx/pipeline"
	"github.com/gogpu/postfx/postprocess"
)

// BloomName is the render effect name of Bloom.
const BloomName = "bloom"

// Bloom makes bright areas bleed into their surroundings: highlights are
// extracted, blurred at a reduced resolution and added back.
type Bloom struct {
	*pipeline.RenderEffect

	scale float32

	downscale *postprocess.ExtractHighlights
	blurX     *postprocess.Blur
	blurY     *postprocess.Blur
	merge     *postprocess.BloomMerge
	passes    []*postprocess.Pass
}

// BloomOptions configures NewBloom.
type BloomOptions struct {
	// Scale is the resolution ratio of the blur passes.
	Scale float32

	// Weight is the strength of the blurred highlights.
	Weight float32

	// Kernel is the blur kernel size at full resolution.
	Kernel float64

	TextureType      device.TextureType
	BlockCompilation bool
}

// NewBloom creates a bloom effect.
func NewBloom(engine device.Engine, opts BloomOptions) *Bloom {
	b := &Bloom{scale: opts.Scale}

	b.downscale = postprocess.NewExtractHighlights(engine, "highlights", postprocess.Options{
		Ratio:            1,
		TextureType:      opts.TextureType,
		BlockCompilation: opts.BlockCompilation,
	})
	blur := func(name string, dir [2]float32) *postprocess.Blur {
		p := postprocess.NewBlur(engine, name, postprocess.BlurOptions{
			Direction:        dir,
			Kernel:           10,
			Ratio:            opts.Scale,
			AlwaysForcePOT:   true,
			TextureType:      opts.TextureType,
			BlockCompilation: opts.BlockCompilation,
		})
		p.AutoClear = false
		return p
	}
	b.blurX = blur("horizontal blur", [2]float32{1, 0})
	b.blurY = blur("vertical blur", [2]float32{0, 1})
	b.SetKernel(opts.Kernel)

	b.merge = postprocess.NewBloomMerge(engine, "bloomMerge", b.downscale.Pass, b.blurY.Pass, opts.Weight, postprocess.Options{
		Ratio:            1,
		TextureType:      opts.TextureType,
		BlockCompilation: opts.BlockCompilation,
	})
	b.merge.AutoClear = false

	b.passes = []*postprocess.Pass{b.downscale.Pass, b.blurX.Pass, b.blurY.Pass, b.merge.Pass}
	b.RenderEffect = pipeline.NewRenderEffect(BloomName, func() []*postprocess.Pass { return b.passes }, true)
	return b
}

// Scale returns the blur resolution ratio.
func (b *Bloom) Scale() float32 { return b.scale }

// Threshold returns the luminance threshold of highlight extraction.
func (b *Bloom) Threshold() float32 { return b.downscale.Threshold }

// SetThreshold sets the luminance threshold.
func (b *Bloom) SetThreshold(v float32) { b.downscale.Threshold = v }

// SetExposure sets the exposure applied before thresholding. It follows
// the scene image processing exposure.
func (b *Bloom) SetExposure(v float32) { b.downscale.Exposure = v }

// Weight returns the strength of the blurred highlights.
func (b *Bloom) Weight() float32 { return b.merge.Weight }

// SetWeight sets the strength of the blurred highlights.
func (b *Bloom) SetWeight(v float32) { b.merge.Weight = v }

// Kernel returns the blur kernel size at full resolution.
func (b *Bloom) Kernel() float64 { return b.blurX.Kernel() / float64(b.scale) }

// SetKernel sets the blur kernel size at full resolution. The blurs run at
// Scale, so their kernel is scaled too.
func (b *Bloom) SetKernel(v float64) {
	b.blurX.SetKernel(v * float64(b.scale))
	b.blurY.SetKernel(v * float64(b.scale))
}

// Passes returns the passes in execution order.
func (b *Bloom) Passes() []*postprocess.Pass { return b.passes }

// FirstPass returns the pass the previous stage renders into.
func (b *Bloom) FirstPass() *postprocess.Pass { return b.downscale.Pass }

// IsReady reports whether every pass can draw.
func (b *Bloom) IsReady() bool {
	for _, p := range b.passes {
		if !p.IsReady() {
			return false
		}
	}
	return true
}

// UpdateEffects compiles passes whose compilation was blocked.
func (b *Bloom) UpdateEffects() {
	for _, p := range b.passes {
		p.Compile()
	}
}

// DisposeEffects disposes the passes for the given cameras.
func (b *Bloom) DisposeEffects(cameras ...postprocess.Camera) {
	for _, p := range b.passes {
		p.Dispose(cameras...)
	}
}
