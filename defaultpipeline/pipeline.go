package defaultpipeline

import (
	"slices"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/device"
	"github.com/gogpu/postfx/effects"
	"github.com/gogpu/postfx/internal/hook"
	"github.com/gogpu/postfx/pipeline"
	"github.com/gogpu/postfx/postprocess"
	"github.com/gogpu/postfx/scene"
)

// Render effect names, in build order.
const (
	EffectDepthOfField        = effects.DepthOfFieldName
	EffectBloom               = effects.BloomName
	EffectImageProcessing     = "image processing"
	EffectSharpen             = "sharpen"
	EffectGrain               = "grain"
	EffectChromaticAberration = "chromatic aberration"
	EffectFXAA                = "fxaa"
)

// Pipeline is the standard post-process pipeline of a scene.
//
// Bloom, depth of field, sharpen, grain and chromatic aberration are
// created once and reused by every build. Image processing and FXAA are
// recreated by each build.
type Pipeline struct {
	*pipeline.RenderPipeline

	scene  *scene.Scene
	engine device.Engine
	cfg    Config

	hdr         bool
	textureType device.TextureType
	scaleLevel  float32

	buildAllowed bool
	disposed     bool
	toAttach     []*scene.Camera
	cameras      []*scene.Camera

	bloom           *effects.Bloom
	dof             *effects.DepthOfField
	sharpen         *postprocess.Sharpen
	grain           *postprocess.Grain
	chromatic       *postprocess.ChromaticAberration
	imageProcessing *postprocess.ImageProcessing
	fxaa            *postprocess.Pass

	// Texture sharing state of the build in progress.
	prev       *postprocess.Pass
	prevPrev   *postprocess.Pass
	hasCleared bool

	depthHook   hook.Handle
	depthHooked bool
	resizeHook  hook.Handle
	ipHook      hook.Handle
	onBuild     hook.List[*Pipeline]
}

// New creates a pipeline, registers it with the scene pipeline manager and
// builds it unless WithoutAutomaticBuild is given. Without WithCameras the
// pipeline is attached to every camera of the scene.
func New(sc *scene.Scene, name string, opts ...Option) *Pipeline {
	o := options{automatic: true, config: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.config.Validate(); err != nil {
		postfx.Logger().Warn("defaultpipeline: initial config rejected, using defaults", "pipeline", name, "err", err)
		o.config = DefaultConfig()
	}
	if !o.camerasSet {
		o.cameras = sc.Cameras()
	}

	engine := sc.Engine()
	p := &Pipeline{
		RenderPipeline: pipeline.NewRenderPipeline(engine, name),
		scene:          sc,
		engine:         engine,
		cfg:            o.config,
		scaleLevel:     1,
		toAttach:       slices.Clone(o.cameras),
	}
	if l := engine.HardwareScalingLevel(); l > 0 {
		p.scaleLevel = l
	}
	p.setTextureType(p.cfg.HDR)

	p.bloom = p.newBloom(true)
	p.dof = p.newDepthOfField(true)
	p.sharpen = postprocess.NewSharpen(engine, "sharpen", p.passOptions(true))
	p.grain = postprocess.NewGrain(engine, "grain", p.passOptions(true))
	p.chromatic = postprocess.NewChromaticAberration(engine, "chromaticAberration", p.passOptions(true))
	p.applyTunables()

	ipc := sc.ImageProcessingConfiguration()
	p.bloom.SetExposure(ipc.Settings().Exposure)
	p.ipHook = ipc.OnChange(func(struct{}) {
		p.bloom.SetExposure(ipc.Settings().Exposure)
	})
	p.resizeHook = sc.OnResize(func(*scene.Scene) { p.Resize() })

	sc.PipelineManager().AddPipeline(p)

	p.buildAllowed = o.automatic
	p.build()
	return p
}

// Scene returns the owning scene.
func (p *Pipeline) Scene() *scene.Scene { return p.scene }

// Config returns the current configuration. Tunables changed directly on
// the sub-effects are reflected.
func (p *Pipeline) Config() Config {
	cfg := p.cfg
	cfg.BloomWeight = p.bloom.Weight()
	cfg.BloomThreshold = p.bloom.Threshold()
	cfg.SharpenEdgeAmount = p.sharpen.EdgeAmount
	cfg.SharpenColorAmount = p.sharpen.ColorAmount
	cfg.GrainIntensity = p.grain.Intensity
	cfg.GrainAnimated = p.grain.Animated
	cfg.ChromaticAberrationAmount = p.chromatic.AberrationAmount
	return cfg
}

// Apply replaces the configuration. Sub-effects whose construction
// depends on a changed value are recreated, keeping their tunables, and the
// pipeline is rebuilt when the set of passes changes. Tunables alone never
// rebuild.
func (p *Pipeline) Apply(cfg Config) error {
	if p.disposed {
		return ErrDisposed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	old := p.Config()
	p.cfg = cfg

	if cfg.HDR != old.HDR {
		p.setTextureType(cfg.HDR)
		p.reconstructAll()
	} else {
		if cfg.BloomScale != old.BloomScale {
			p.reconstructBloom()
		}
		if cfg.DepthOfFieldBlurLevel != old.DepthOfFieldBlurLevel {
			p.reconstructDepthOfField()
		}
	}
	p.applyTunables()

	if old.topology(cfg) {
		p.build()
	}
	return nil
}

// HDR reports whether intermediate textures use a floating point format.
func (p *Pipeline) HDR() bool { return p.hdr }

// TextureType returns the component type of intermediate textures.
func (p *Pipeline) TextureType() device.TextureType { return p.textureType }

// Bloom returns the bloom effect.
func (p *Pipeline) Bloom() *effects.Bloom { return p.bloom }

// DepthOfField returns the depth of field effect.
func (p *Pipeline) DepthOfField() *effects.DepthOfField { return p.dof }

// Sharpen returns the sharpen pass.
func (p *Pipeline) Sharpen() *postprocess.Sharpen { return p.sharpen }

// Grain returns the grain pass.
func (p *Pipeline) Grain() *postprocess.Grain { return p.grain }

// ChromaticAberration returns the chromatic aberration pass.
func (p *Pipeline) ChromaticAberration() *postprocess.ChromaticAberration { return p.chromatic }

// ImageProcessing returns the image processing pass of the last build, or
// nil.
func (p *Pipeline) ImageProcessing() *postprocess.ImageProcessing { return p.imageProcessing }

// FXAA returns the FXAA pass of the last build, or nil.
func (p *Pipeline) FXAA() *postprocess.Pass { return p.fxaa }

// AttachedCameras returns the cameras of the last build.
func (p *Pipeline) AttachedCameras() []*scene.Camera { return p.cameras }

// OnBuild registers a hook run after every build.
func (p *Pipeline) OnBuild(fn func(*Pipeline)) hook.Handle { return p.onBuild.Add(fn) }

// RemoveOnBuild unregisters a build hook.
func (p *Pipeline) RemoveOnBuild(h hook.Handle) bool { return p.onBuild.Remove(h) }

// AddCamera adds a camera to the pipeline and rebuilds it.
func (p *Pipeline) AddCamera(c *scene.Camera) {
	if p.disposed || c == nil {
		return
	}
	p.toAttach = append(p.toAttach, c)
	p.build()
}

// RemoveCamera removes a camera from the pipeline and rebuilds it.
func (p *Pipeline) RemoveCamera(c *scene.Camera) {
	i := slices.Index(p.toAttach, c)
	if p.disposed || i < 0 {
		return
	}
	p.toAttach = slices.Delete(p.toAttach, i, i+1)
	p.build()
}

// Prepare builds the pipeline once, even when automatic builds are off.
func (p *Pipeline) Prepare() {
	allowed := p.buildAllowed
	p.buildAllowed = true
	p.build()
	p.buildAllowed = allowed
}

// Rebuild recreates the pass chain, for instance after a device reset.
func (p *Pipeline) Rebuild() { p.build() }

// Resize follows a change of the render size or hardware scaling level.
// The scene calls it from NotifyResize.
func (p *Pipeline) Resize() {
	if p.disposed {
		return
	}
	if l := p.engine.HardwareScalingLevel(); l > 0 {
		p.scaleLevel = l
	}
	p.bloom.SetKernel(p.bloomKernel())
	p.build()
}

// Dispose disposes every pass, detaches the cameras, restores scene auto
// clear and removes the pipeline from the scene manager.
func (p *Pipeline) Dispose() {
	if p.disposed {
		return
	}
	p.buildAllowed = false
	p.onBuild.Clear()

	cams := cameraList(p.cameras)
	p.disposeTransient()
	p.bloom.DisposeEffects(cams...)
	p.dof.DisposeEffects(cams...)
	p.sharpen.Dispose(cams...)
	p.grain.Dispose(cams...)
	p.chromatic.Dispose(cams...)

	mgr := p.scene.PipelineManager()
	mgr.DetachCamerasFromRenderPipeline(p.Name(), cams...)
	p.scene.AutoClear = true
	p.scene.RemoveOnResize(p.resizeHook)
	p.scene.ImageProcessingConfiguration().RemoveOnChange(p.ipHook)
	p.unhookDepth()
	p.RenderPipeline.Dispose()
	p.disposed = true

	if mgr.Pipeline(p.Name()) == pipeline.Pipeline(p) {
		mgr.RemovePipeline(p.Name())
	}
	postfx.Logger().Debug("defaultpipeline: disposed", "pipeline", p.Name())
}

func (p *Pipeline) build() {
	if !p.buildAllowed || p.disposed {
		return
	}
	p.scene.AutoClear = true

	p.disposeTransient()
	mgr := p.scene.PipelineManager()
	mgr.DetachCamerasFromRenderPipeline(p.Name(), cameraList(p.cameras)...)
	p.cameras = slices.Clone(p.toAttach)
	p.ResetEffects()
	p.prev, p.prevPrev, p.hasCleared = nil, nil, false

	if p.cfg.DepthOfField {
		p.bindDepth()
		if !p.dof.IsReady() {
			p.dof.UpdateEffects()
		}
		p.AddEffect(p.dof.RenderEffect)
		p.share(p.dof.FirstPass(), true)
	} else {
		p.unhookDepth()
	}

	if p.cfg.Bloom {
		if !p.bloom.IsReady() {
			p.bloom.UpdateEffects()
		}
		p.AddEffect(p.bloom.RenderEffect)
		p.share(p.bloom.FirstPass(), true)
	}

	if p.cfg.ImageProcessing {
		ipc := p.scene.ImageProcessingConfiguration()
		p.imageProcessing = postprocess.NewImageProcessing(p.engine, "imageProcessing", ipc, p.passOptions(false))
		if p.hdr {
			p.AddEffect(pipeline.NewRenderEffect(EffectImageProcessing, single(p.imageProcessing.Pass), true))
			p.share(p.imageProcessing.Pass, true)
		} else {
			ipc.SetApplyByPostProcess(false)
		}
		if len(p.cameras) == 0 {
			ipc.SetApplyByPostProcess(false)
		}
	}

	if p.cfg.Sharpen {
		p.sharpen.Compile()
		p.AddEffect(pipeline.NewRenderEffect(EffectSharpen, single(p.sharpen.Pass), true))
		p.share(p.sharpen.Pass, false)
	}

	if p.cfg.Grain {
		p.grain.Compile()
		e := pipeline.NewRenderEffect(EffectGrain, single(p.grain.Pass), true)
		e.OnUpdate(func(*pipeline.RenderEffect) { p.grain.Advance() })
		p.AddEffect(e)
		p.share(p.grain.Pass, false)
	}

	if p.cfg.ChromaticAberration {
		p.chromatic.Compile()
		p.AddEffect(pipeline.NewRenderEffect(EffectChromaticAberration, single(p.chromatic.Pass), true))
		p.share(p.chromatic.Pass, false)
	}

	if p.cfg.FXAA {
		p.fxaa = postprocess.NewFXAA(p.engine, "fxaa", postprocess.Options{Ratio: 1, TextureType: device.TextureTypeUnsignedByte})
		p.AddEffect(pipeline.NewRenderEffect(EffectFXAA, single(p.fxaa), true))
		p.share(p.fxaa, true)
	}

	if len(p.cameras) > 0 {
		mgr.AttachCamerasToRenderPipeline(p.Name(), cameraList(p.cameras), false)
	}

	active := p.scene.ActiveCamera()
	if len(p.scene.ActiveCameras()) > 1 || (active != nil && !slices.Contains(p.cameras, active)) {
		p.scene.AutoClear = true
	}

	if !p.EnableMSAAOnFirstPostProcess(p.cfg.Samples) && p.cfg.Samples > 1 {
		postfx.Logger().Warn("defaultpipeline: MSAA unavailable on this device", "pipeline", p.Name(), "samples", p.cfg.Samples)
	}

	postfx.Logger().Debug("defaultpipeline: built",
		"pipeline", p.Name(), "effects", len(p.Effects()), "cameras", len(p.cameras))
	p.onBuild.Notify(p)
}

// share sets the auto clear flag of the first pass of an effect and picks
// its input texture.
//
// The first pass of a build clears and takes over from the scene clear.
// A sharing pass renders into the texture of the sharing pass two
// positions back, which is free again by then. Passes that skip sharing
// keep their own texture and leave the history untouched.
func (p *Pipeline) share(pass *postprocess.Pass, skip bool) {
	if p.hasCleared {
		pass.AutoClear = false
	} else {
		pass.AutoClear = true
		p.scene.AutoClear = false
		p.hasCleared = true
	}
	if skip {
		return
	}
	if p.prevPrev != nil {
		pass.ShareOutputWith(p.prevPrev)
	} else {
		pass.UseOwnOutput()
	}
	if p.prev != nil {
		p.prevPrev = p.prev
	}
	p.prev = pass
}

// bindDepth gives the depth of field its depth texture. With several
// cameras the texture changes per camera, so it is looked up every frame.
func (p *Pipeline) bindDepth() {
	if len(p.cameras) > 1 {
		for _, c := range p.cameras {
			p.scene.EnableDepthRenderer(c)
		}
		if !p.depthHooked {
			p.depthHook = p.scene.OnAfterRenderTargets(func(s *scene.Scene) {
				c := s.ActiveCamera()
				if slices.Contains(p.cameras, c) {
					p.dof.SetDepthTexture(s.EnableDepthRenderer(c).DepthMap(), c.MinZ, c.MaxZ)
				}
			})
			p.depthHooked = true
		}
		return
	}
	p.unhookDepth()
	if len(p.cameras) == 1 {
		c := p.cameras[0]
		p.dof.SetDepthTexture(p.scene.EnableDepthRenderer(c).DepthMap(), c.MinZ, c.MaxZ)
	}
}

func (p *Pipeline) unhookDepth() {
	if p.depthHooked {
		p.scene.RemoveAfterRenderTargets(p.depthHook)
		p.depthHooked = false
	}
}

func (p *Pipeline) disposeTransient() {
	cams := cameraList(p.cameras)
	if p.imageProcessing != nil {
		p.imageProcessing.Dispose(cams...)
		p.imageProcessing = nil
	}
	if p.fxaa != nil {
		p.fxaa.Dispose(cams...)
		p.fxaa = nil
	}
}

func (p *Pipeline) setTextureType(hdr bool) {
	caps := p.engine.Caps()
	p.hdr = hdr && (caps.HalfFloatRender || caps.FloatRender)
	switch {
	case p.hdr && caps.HalfFloatRender:
		p.textureType = device.TextureTypeHalfFloat
	case p.hdr:
		p.textureType = device.TextureTypeFloat
	default:
		p.textureType = device.TextureTypeUnsignedByte
	}
}

func (p *Pipeline) passOptions(block bool) postprocess.Options {
	return postprocess.Options{Ratio: 1, TextureType: p.textureType, BlockCompilation: block}
}

// bloomKernel is the configured kernel in render pixels.
func (p *Pipeline) bloomKernel() float64 {
	return p.cfg.BloomKernel / float64(p.scaleLevel)
}

func (p *Pipeline) newBloom(block bool) *effects.Bloom {
	return effects.NewBloom(p.engine, effects.BloomOptions{
		Scale:            p.cfg.BloomScale,
		Weight:           p.cfg.BloomWeight,
		Kernel:           p.bloomKernel(),
		TextureType:      p.textureType,
		BlockCompilation: block,
	})
}

func (p *Pipeline) newDepthOfField(block bool) *effects.DepthOfField {
	return effects.NewDepthOfField(p.engine, effects.DepthOfFieldOptions{
		BlurLevel:        p.cfg.DepthOfFieldBlurLevel,
		TextureType:      p.textureType,
		BlockCompilation: block,
	})
}

func (p *Pipeline) reconstructBloom() {
	old := p.bloom
	p.bloom = p.newBloom(false)
	p.bloom.SetThreshold(old.Threshold())
	p.bloom.SetExposure(p.scene.ImageProcessingConfiguration().Settings().Exposure)
	old.DisposeEffects(cameraList(p.cameras)...)
}

func (p *Pipeline) reconstructDepthOfField() {
	old := p.dof
	p.dof = p.newDepthOfField(false)
	p.dof.SetFocalLength(old.FocalLength())
	p.dof.SetFStop(old.FStop())
	p.dof.SetFocusDistance(old.FocusDistance())
	p.dof.SetLensSize(old.LensSize())
	old.DisposeEffects(cameraList(p.cameras)...)
}

// reconstructAll recreates every reused pass after the texture type
// changed.
func (p *Pipeline) reconstructAll() {
	cams := cameraList(p.cameras)
	p.reconstructBloom()
	p.reconstructDepthOfField()

	sharpen := postprocess.NewSharpen(p.engine, "sharpen", p.passOptions(false))
	p.sharpen.Dispose(cams...)
	p.sharpen = sharpen

	grain := postprocess.NewGrain(p.engine, "grain", p.passOptions(false))
	p.grain.Dispose(cams...)
	p.grain = grain

	chromatic := postprocess.NewChromaticAberration(p.engine, "chromaticAberration", p.passOptions(false))
	chromatic.RadialIntensity = p.chromatic.RadialIntensity
	chromatic.Direction = p.chromatic.Direction
	chromatic.Centre = p.chromatic.Centre
	p.chromatic.Dispose(cams...)
	p.chromatic = chromatic
}

func (p *Pipeline) applyTunables() {
	p.bloom.SetWeight(p.cfg.BloomWeight)
	p.bloom.SetThreshold(p.cfg.BloomThreshold)
	p.bloom.SetKernel(p.bloomKernel())
	p.sharpen.EdgeAmount = p.cfg.SharpenEdgeAmount
	p.sharpen.ColorAmount = p.cfg.SharpenColorAmount
	p.grain.Intensity = p.cfg.GrainIntensity
	p.grain.Animated = p.cfg.GrainAnimated
	p.chromatic.AberrationAmount = p.cfg.ChromaticAberrationAmount
}

func single(pass *postprocess.Pass) pipeline.Factory {
	return func() []*postprocess.Pass { return []*postprocess.Pass{pass} }
}

func cameraList(cameras []*scene.Camera) []postprocess.Camera {
	out := make([]postprocess.Camera, len(cameras))
	for i, c := range cameras {
		out[i] = c
	}
	return out
}

var _ pipeline.Pipeline = (*Pipeline)(nil)
