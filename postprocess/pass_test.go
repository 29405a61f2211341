package postprocess

import (
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/postfx/device"
	"github.com/gogpu/postfx/internal/hook"
	"github.com/gogpu/postfx/shader"
)

// listCamera is a minimal Camera keeping passes in a slice.
type listCamera struct {
	name   string
	passes []*Pass
}

func (c *listCamera) Name() string { return c.name }

func (c *listCamera) AttachPostProcess(p *Pass, insertAt int) int {
	if insertAt < 0 || insertAt >= len(c.passes) {
		c.passes = append(c.passes, p)
		return len(c.passes) - 1
	}
	c.passes[insertAt] = p
	return insertAt
}

func (c *listCamera) DetachPostProcess(p *Pass) {
	for i, q := range c.passes {
		if q == p {
			c.passes[i] = nil
		}
	}
}

func (c *listCamera) PostProcesses() []*Pass { return c.passes }

func TestPassSize(t *testing.T) {
	caps := device.DefaultCaps()
	caps.MaxTextureSize = 512
	e := device.NewSoftwareEngine(1000, 600, device.WithCaps(caps))

	tests := []struct {
		name  string
		opts  Options
		wantW uint32
		wantH uint32
	}{
		{"full", Options{Program: "pass"}, 512, 512},
		{"half", Options{Program: "pass", Ratio: 0.5}, 500, 300},
		{"pot", Options{Program: "pass", Ratio: 0.5, AlwaysForcePOT: true}, 256, 256},
		{"tiny", Options{Program: "pass", Ratio: 0.0001}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(e, tt.name, tt.opts)
			w, h := p.Size(e.RenderSize())
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Size() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestPassSharesInputTexture(t *testing.T) {
	e := device.NewSoftwareEngine(16, 16)
	a := NewPassThrough(e, "a", 1)
	b := NewPassThrough(e, "b", 1)

	texA, err := a.Activate(e.RenderSize())
	if err != nil {
		t.Fatalf("Activate(a): %v", err)
	}
	b.ShareOutputWith(a)
	texB, err := b.Activate(e.RenderSize())
	if err != nil {
		t.Fatalf("Activate(b): %v", err)
	}
	if texA != texB {
		t.Error("sharing pass should render from the shared texture")
	}
	if b.SharedWith() != a {
		t.Error("SharedWith() should return a")
	}
	if e.LiveTextures() != 1 {
		t.Errorf("LiveTextures() = %d, want 1", e.LiveTextures())
	}

	b.UseOwnOutput()
	if _, err := b.Activate(e.RenderSize()); err != nil {
		t.Fatalf("Activate(b): %v", err)
	}
	if e.LiveTextures() != 2 {
		t.Errorf("LiveTextures() after UseOwnOutput = %d, want 2", e.LiveTextures())
	}
}

func TestPassSamples(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	p := NewPassThrough(e, "p", 1)
	first, _ := p.Activate(e.RenderSize())

	p.SetSamples(16)
	if p.Samples() != int(e.Caps().MaxSamples) {
		t.Errorf("Samples() = %d, want %d", p.Samples(), e.Caps().MaxSamples)
	}
	second, err := p.Activate(e.RenderSize())
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !first.Destroyed() || second.Samples() != e.Caps().MaxSamples {
		t.Error("changing samples should reallocate the input texture")
	}
}

func TestPassBlockCompilation(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	p := New(e, "deferred", Options{Program: "fxaa", BlockCompilation: true})
	if p.Program() != nil {
		t.Fatal("program should not exist while compilation is blocked")
	}
	if p.IsReady() {
		t.Error("IsReady() = true before compilation")
	}
	if !p.IsSupported() {
		t.Error("IsSupported() = false before compilation")
	}
	p.Compile()
	if !p.IsReady() {
		t.Errorf("IsReady() = false after Compile: %v", p.Program().Err())
	}
}

func TestPassUnsupportedProgram(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	p := New(e, "broken", Options{Program: "does_not_exist"})
	if p.IsSupported() {
		t.Error("IsSupported() = true for a missing program")
	}
}

func TestPassDispose(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	cam := &listCamera{name: "cam"}
	p := NewPassThrough(e, "p", 1)
	cam.AttachPostProcess(p, -1)
	if _, err := p.Activate(e.RenderSize()); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	p.Dispose(cam)
	if cam.passes[0] != nil {
		t.Error("Dispose should detach from the camera")
	}
	if e.LiveTextures() != 0 {
		t.Errorf("LiveTextures() = %d, want 0", e.LiveTextures())
	}
	if _, err := p.Activate(e.RenderSize()); !errors.Is(err, device.ErrDisposed) {
		t.Errorf("Activate after Dispose = %v, want ErrDisposed", err)
	}
}

func TestBlurKernelVariants(t *testing.T) {
	e := device.NewSoftwareEngine(32, 32)
	b := NewBlur(e, "blur", BlurOptions{Direction: [2]float32{1, 0}, Kernel: 15})
	if b.Spec().Size != 13 {
		t.Errorf("Spec().Size = %d, want 13", b.Spec().Size)
	}
	if !b.IsReady() {
		t.Fatalf("blur not ready: %v", b.Program().Err())
	}
	compiles := e.Variants().Compiles()
	key := b.Program().Key()

	b.SetKernel(14)
	if b.Spec().Size != 13 {
		t.Errorf("Spec().Size after SetKernel(14) = %d, want 13", b.Spec().Size)
	}
	if b.Program().Key() != key || e.Variants().Compiles() != compiles {
		t.Error("kernels snapping to the same size should reuse the variant")
	}

	b.SetKernel(31)
	if b.Program().Key() == key {
		t.Error("a different kernel size should select a new variant")
	}
}

func TestBlurDepthAwareDefines(t *testing.T) {
	e := device.NewSoftwareEngine(32, 32)
	coc := NewCircleOfConfusion(e, "coc", Options{})
	b := NewBlur(e, "dofblur", BlurOptions{Direction: [2]float32{0, 1}, Kernel: 15, CircleOfConfusion: coc.Pass})
	d := b.Defines()
	if !d.Has("DOF") || !d.Has("CENTER_WEIGHT") {
		t.Errorf("depth-aware defines = %v, want DOF and CENTER_WEIGHT", d.Names())
	}
	if !b.IsReady() {
		t.Errorf("depth-aware blur not ready: %v", b.Program().Err())
	}
}

type fakeProcessing struct {
	defines        shader.Defines
	byPostProcess  bool
	changes        hook.List[struct{}]
	boundExposures int
}

func (f *fakeProcessing) Defines() shader.Defines { return f.defines.Clone() }

func (f *fakeProcessing) Bind(b *device.Bindings) {
	f.boundExposures++
	b.SetFloat("exposureLinear", 1)
}

func (f *fakeProcessing) SetApplyByPostProcess(v bool) { f.byPostProcess = v }

func (f *fakeProcessing) OnChange(fn func(struct{})) hook.Handle { return f.changes.Add(fn) }

func (f *fakeProcessing) RemoveOnChange(h hook.Handle) bool { return f.changes.Remove(h) }

func TestImageProcessingFollowsConfiguration(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	cfg := &fakeProcessing{defines: shader.NewDefines()}
	ip := NewImageProcessing(e, "ip", cfg, Options{})
	if !cfg.byPostProcess {
		t.Error("creating the pass should enable the post-process path")
	}
	key := ip.Program().Key()

	cfg.defines.Flag("TONEMAPPING")
	cfg.changes.Notify(struct{}{})
	if ip.Program().Key() == key {
		t.Error("configuration change should switch the variant")
	}

	ip.Dispose()
	if cfg.changes.Len() != 0 {
		t.Error("Dispose should remove the change hook")
	}
	if cfg.byPostProcess {
		t.Error("Dispose should disable the post-process path")
	}
	cfg.byPostProcess = true
	ip.Dispose()
	if !cfg.byPostProcess {
		t.Error("a second Dispose should not touch the configuration")
	}
}

func TestChainRun(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	cam := &listCamera{name: "cam"}
	first := NewPassThrough(e, "first", 1)
	second := NewPassThrough(e, "second", 0.5)
	cam.AttachPostProcess(first, -1)
	cam.AttachPostProcess(nil, -1)
	cam.AttachPostProcess(second, -1)

	chain := NewChain(e, cam)
	if chain.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", chain.Len())
	}
	scene, err := chain.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := e.Clear(scene, color.White); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := chain.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	recs := e.Recorder().Records()
	if len(recs) != 2 {
		t.Fatalf("recorded %d draws, want 2", len(recs))
	}
	if recs[0].Target != "second" || recs[0].Width != 4 {
		t.Errorf("first draw = %+v, want target second at 4px", recs[0])
	}
	if recs[1].Target != "" {
		t.Errorf("last draw target = %q, want default framebuffer", recs[1].Target)
	}
	if first.OutputTexture() != second.InputTexture() || second.OutputTexture() != nil {
		t.Error("outputs should follow the chain")
	}
	if got := e.Screen().RGBA64At(3, 3); got.R != 0xffff {
		t.Errorf("screen = %v, want white", got)
	}
}

func TestChainNotReady(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	cam := &listCamera{name: "cam"}
	cam.AttachPostProcess(New(e, "broken", Options{Program: "does_not_exist"}), -1)

	if _, err := NewChain(e, cam).Begin(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Begin() = %v, want ErrNotReady", err)
	}
}

func TestChainSkipsCircleOfConfusionWithoutDepth(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	cam := &listCamera{name: "cam"}
	coc := NewCircleOfConfusion(e, "coc", Options{})
	cam.AttachPostProcess(coc.Pass, -1)

	chain := NewChain(e, cam)
	if _, err := chain.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := chain.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	recs := e.Recorder().Records()
	if len(recs) != 1 || recs[0].Program != "pass" {
		t.Errorf("records = %+v, want one pass-through draw", recs)
	}
}

func TestCircleOfConfusionPrecalculation(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	c := NewCircleOfConfusion(e, "coc", Options{})
	c.LensSize, c.FStop, c.FocalLength, c.FocusDistance = 50, 2, 50, 1050
	if got := c.Precalculation(); got != 1.25 {
		t.Errorf("Precalculation() = %v, want 1.25", got)
	}
}

func TestGrainAdvance(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	g := NewGrain(e, "grain", Options{})
	g.Advance()
	if g.Seed() != 0 {
		t.Error("static grain should keep its seed")
	}
	g.Animated = true
	g.Advance()
	if g.Seed() == 0 {
		t.Error("animated grain should advance its seed")
	}
}
