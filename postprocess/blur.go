package postprocess

import (
	"strconv"

	"github.com/gogpu/postfx/device"
	"github.com/gogpu/postfx/internal/kernel"
	"github.com/gogpu/postfx/shader"
)

// BlurOptions configures a Blur pass.
type BlurOptions struct {
	// Direction is the blur axis in texels, usually (1,0) or (0,1).
	Direction [2]float32

	// Kernel is the desired kernel size in texels.
	Kernel float64

	Ratio            float32
	AlwaysForcePOT   bool
	TextureType      device.TextureType
	BlockCompilation bool

	// PackedFloat reads and writes depth packed in RGBA8.
	PackedFloat bool

	// CircleOfConfusion enables the depth-aware variant, weighting each tap
	// by the output of this pass.
	CircleOfConfusion *Pass

	// ImageToBlur, when set, blurs the input of that pass instead of the
	// blur's own input.
	ImageToBlur *Pass
}

// Blur is a separable Gaussian blur along one axis.
type Blur struct {
	*Pass

	direction [2]float32
	ideal     float64
	spec      kernel.Spec
	opts      BlurOptions
	caps      device.Caps
}

// NewBlur creates a blur pass.
func NewBlur(engine device.Engine, name string, opts BlurOptions) *Blur {
	b := &Blur{direction: opts.Direction, opts: opts, caps: engine.Caps()}
	b.ideal = max(opts.Kernel, 1)
	b.spec = b.compute()

	samplers := []string{}
	if opts.CircleOfConfusion != nil {
		samplers = append(samplers, "circleOfConfusionSampler")
	}
	defines, index := kernelDefines(b.spec, opts.CircleOfConfusion != nil)
	b.Pass = New(engine, name, Options{
		Program:          "kernel_blur",
		Uniforms:         []string{"delta"},
		Samplers:         samplers,
		Defines:          defines,
		Index:            index,
		Ratio:            opts.Ratio,
		AlwaysForcePOT:   opts.AlwaysForcePOT,
		TextureType:      opts.TextureType,
		BlockCompilation: opts.BlockCompilation,
	})
	b.OnApply(b.bind)
	return b
}

// Direction returns the blur axis.
func (b *Blur) Direction() [2]float32 { return b.direction }

// Kernel returns the desired kernel size.
func (b *Blur) Kernel() float64 { return b.ideal }

// Spec returns the computed kernel.
func (b *Blur) Spec() kernel.Spec { return b.spec }

// SetKernel changes the desired kernel size and switches to the matching
// program variant. Sizes that snap to the same kernel reuse the variant.
func (b *Blur) SetKernel(v float64) {
	v = max(v, 1)
	if v == b.ideal {
		return
	}
	b.ideal = v
	b.spec = b.compute()
	defines, index := kernelDefines(b.spec, b.opts.CircleOfConfusion != nil)
	if b.opts.BlockCompilation && b.Program() == nil {
		b.defines, b.index = defines, index
		return
	}
	b.UpdateEffect(defines, index)
}

func (b *Blur) compute() kernel.Spec {
	return kernel.Compute(b.ideal, kernel.Options{
		MaxVaryingVectors: b.caps.MaxVaryingVectors,
		WGSL:              b.caps.WGSL,
		DepthAware:        b.opts.CircleOfConfusion != nil,
		PackedFloat:       b.opts.PackedFloat,
	})
}

func (b *Blur) bind(ev *ApplyEvent) {
	in := b.InputTexture()
	if src := b.opts.ImageToBlur; src != nil {
		ev.Bindings.SetTexture("textureSampler", src.InputTexture())
	}
	if in != nil {
		ev.Bindings.SetFloat2("delta",
			b.direction[0]/float32(in.Width()),
			b.direction[1]/float32(in.Height()))
	}
	if coc := b.opts.CircleOfConfusion; coc != nil {
		ev.Bindings.SetTexture("circleOfConfusionSampler", coc.OutputTexture())
	}
}

func kernelDefines(spec kernel.Spec, depthAware bool) (shader.Defines, map[string]int) {
	d := shader.NewDefines()
	for i, t := range spec.VaryingTaps() {
		n := strconv.Itoa(i)
		d.SetFloat("KERNEL_OFFSET"+n, t.Offset)
		d.SetFloat("KERNEL_WEIGHT"+n, t.Weight)
	}
	for i, t := range spec.DependentTaps() {
		n := strconv.Itoa(i)
		d.SetFloat("KERNEL_DEP_OFFSET"+n, t.Offset)
		d.SetFloat("KERNEL_DEP_WEIGHT"+n, t.Weight)
	}
	if spec.HasCenterWeight {
		d.SetFloat("CENTER_WEIGHT", spec.CenterWeight)
	}
	if depthAware {
		d.Flag("DOF")
	}
	if spec.PackedFloat {
		d.Flag("PACKEDFLOAT")
	}
	return d, map[string]int{
		"varyingCount": len(spec.VaryingTaps()),
		"depCount":     spec.DepCount,
	}
}
