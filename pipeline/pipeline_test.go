package pipeline

import (
	"slices"
	"testing"

	"github.com/gogpu/postfx/device"
	"github.com/gogpu/postfx/postprocess"
)

// holeCamera keeps nil holes on detach and trims trailing ones.
type holeCamera struct {
	name   string
	passes []*postprocess.Pass
}

func (c *holeCamera) Name() string { return c.name }

func (c *holeCamera) AttachPostProcess(p *postprocess.Pass, insertAt int) int {
	if insertAt < 0 {
		c.passes = append(c.passes, p)
		return len(c.passes) - 1
	}
	for len(c.passes) <= insertAt {
		c.passes = append(c.passes, nil)
	}
	if c.passes[insertAt] == nil {
		c.passes[insertAt] = p
	} else {
		c.passes = slices.Insert(c.passes, insertAt, p)
	}
	return insertAt
}

func (c *holeCamera) DetachPostProcess(p *postprocess.Pass) {
	for i, q := range c.passes {
		if q == p {
			c.passes[i] = nil
		}
	}
	for len(c.passes) > 0 && c.passes[len(c.passes)-1] == nil {
		c.passes = c.passes[:len(c.passes)-1]
	}
}

func (c *holeCamera) PostProcesses() []*postprocess.Pass { return c.passes }

func passFactory(e device.Engine, calls *int, names ...string) Factory {
	return func() []*postprocess.Pass {
		*calls++
		out := make([]*postprocess.Pass, len(names))
		for i, n := range names {
			out[i] = postprocess.NewPassThrough(e, n, 1)
		}
		return out
	}
}

func TestRenderEffectSingleInstance(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	var calls int
	eff := NewRenderEffect("blur", passFactory(e, &calls, "x", "y"), true)
	a, b := &holeCamera{name: "a"}, &holeCamera{name: "b"}

	eff.Attach(a, b)
	if calls != 1 {
		t.Errorf("factory calls = %d, want 1", calls)
	}
	if a.passes[0] != b.passes[0] {
		t.Error("single-instance effect should share passes between cameras")
	}
	if got := eff.Indices(a); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("Indices(a) = %v, want [0 1]", got)
	}

	eff.Attach(a)
	if len(a.passes) != 2 || len(eff.Indices(a)) != 2 {
		t.Error("attaching an attached camera should be a no-op")
	}
}

func TestRenderEffectPerCamera(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	var calls int
	eff := NewRenderEffect("blur", passFactory(e, &calls, "x"), false)
	a, b := &holeCamera{name: "a"}, &holeCamera{name: "b"}

	eff.Attach(a, b)
	if calls != 2 {
		t.Errorf("factory calls = %d, want 2", calls)
	}
	if a.passes[0] == b.passes[0] {
		t.Error("per-camera effect should create passes per camera")
	}
	if len(eff.AllPasses()) != 2 {
		t.Errorf("AllPasses() = %d passes, want 2", len(eff.AllPasses()))
	}
}

func TestRenderEffectAttachDetachAttachRestoresIndices(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	var calls int
	cam := &holeCamera{name: "cam"}
	cam.AttachPostProcess(postprocess.NewPassThrough(e, "scene", 1), -1)

	first := NewRenderEffect("first", passFactory(e, &calls, "f0", "f1"), true)
	second := NewRenderEffect("second", passFactory(e, &calls, "s0"), true)
	first.Attach(cam)
	second.Attach(cam)
	want := map[*RenderEffect][]int{
		first:  slices.Clone(first.Indices(cam)),
		second: slices.Clone(second.Indices(cam)),
	}

	second.Detach(cam)
	first.Detach(cam)
	first.Attach(cam)
	second.Attach(cam)

	for eff, indices := range want {
		if got := eff.Indices(cam); !slices.Equal(got, indices) {
			t.Errorf("%s indices = %v, want %v", eff.Name(), got, indices)
		}
	}
	if calls != 2 {
		t.Errorf("factory calls = %d, want 2 (passes reused)", calls)
	}
}

func TestRenderEffectEnableDisable(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	var calls int
	cam := &holeCamera{name: "cam"}
	a := NewRenderEffect("a", passFactory(e, &calls, "a0"), true)
	b := NewRenderEffect("b", passFactory(e, &calls, "b0"), true)
	a.Attach(cam)
	b.Attach(cam)

	a.Disable(cam)
	if cam.passes[0] != nil || cam.passes[1] == nil {
		t.Fatalf("after Disable(a) passes = %v, want [nil b0]", cam.passes)
	}
	a.Enable(cam)
	if cam.passes[0] == nil || cam.passes[0].Name() != "a0" || len(cam.passes) != 2 {
		t.Errorf("after Enable(a) passes = %v, want [a0 b0]", cam.passes)
	}

	b.Disable(cam)
	b.Enable(cam)
	if len(cam.passes) != 2 || cam.passes[1].Name() != "b0" {
		t.Errorf("after toggling b passes = %v, want [a0 b0]", cam.passes)
	}
	if calls != 2 {
		t.Errorf("factory calls = %d, want 2", calls)
	}
}

func TestRenderEffectEmptyFactory(t *testing.T) {
	eff := NewRenderEffect("empty", func() []*postprocess.Pass { return nil }, false)
	cam := &holeCamera{name: "cam"}
	eff.Attach(cam)
	if len(cam.passes) != 0 {
		t.Error("empty factory should contribute nothing")
	}
	if !eff.IsSupported() {
		t.Error("empty effect should be supported")
	}
}

func TestRenderEffectDisposePasses(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	var calls int
	eff := NewRenderEffect("e", passFactory(e, &calls, "p"), true)
	cam := &holeCamera{name: "cam"}
	eff.Attach(cam)
	p := cam.passes[0]

	eff.DisposePasses(cam)
	if !p.Disposed() || len(cam.passes) != 0 || eff.IsAttached(cam) {
		t.Error("DisposePasses should detach and dispose")
	}
	eff.Attach(cam)
	if calls != 2 || cam.passes[0] == p {
		t.Error("attach after DisposePasses should create new passes")
	}
}

func TestRenderPipelineEffects(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	var calls int
	p := NewRenderPipeline(e, "pipe")
	p.AddEffect(NewRenderEffect("a", passFactory(e, &calls, "a0"), true))
	p.AddEffect(NewRenderEffect("b", passFactory(e, &calls, "b0"), true))
	replacement := NewRenderEffect("a", passFactory(e, &calls, "a1"), true)
	p.AddEffect(replacement)

	effects := p.Effects()
	if len(effects) != 2 || effects[0] != replacement || effects[1].Name() != "b" {
		t.Errorf("Effects() = %v, want [a(replacement) b]", effects)
	}
}

func TestRenderPipelineAttachUnique(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	var calls int
	p := NewRenderPipeline(e, "pipe")
	p.AddEffect(NewRenderEffect("a", passFactory(e, &calls, "a0"), true))
	a, b := &holeCamera{name: "a"}, &holeCamera{name: "b"}

	p.AttachCameras([]postprocess.Camera{a}, false)
	got := p.AttachCameras([]postprocess.Camera{a, b}, true)
	if len(got) != 1 || got[0] != b {
		t.Errorf("unique attach returned %v, want [b]", got)
	}
	if len(p.Cameras()) != 2 {
		t.Errorf("Cameras() = %d, want 2", len(p.Cameras()))
	}
	if len(a.passes) != 1 {
		t.Errorf("camera a has %d passes, want 1", len(a.passes))
	}

	got = p.AttachCameras([]postprocess.Camera{a}, false)
	if len(got) != 1 {
		t.Errorf("non-unique attach returned %v, want [a]", got)
	}

	p.DetachCameras(a)
	if len(p.Cameras()) != 1 || len(a.passes) != 0 {
		t.Error("DetachCameras should detach and forget the camera")
	}
}

func TestRenderPipelineUnknownEffectIsNoop(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	var calls int
	p := NewRenderPipeline(e, "pipe")
	p.AddEffect(NewRenderEffect("a", passFactory(e, &calls, "a0"), true))
	cam := &holeCamera{name: "cam"}
	p.AttachCameras([]postprocess.Camera{cam}, false)
	before := slices.Clone(cam.passes)

	p.EnableEffect("missing", cam)
	p.DisableEffect("missing", cam)
	if !slices.Equal(cam.passes, before) || len(p.Effects()) != 1 {
		t.Error("unknown effect names should not change the pipeline")
	}
}

func TestRenderPipelineMSAA(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	var calls int
	p := NewRenderPipeline(e, "pipe")
	p.AddEffect(NewRenderEffect("a", passFactory(e, &calls, "a0", "a1"), true))
	cam := &holeCamera{name: "cam"}
	p.AttachCameras([]postprocess.Camera{cam}, false)

	if !p.EnableMSAAOnFirstPostProcess(4) {
		t.Fatal("EnableMSAAOnFirstPostProcess = false on an MSAA device")
	}
	if cam.passes[0].Samples() != 4 || cam.passes[1].Samples() != 1 {
		t.Error("only the first pass should be multisampled")
	}

	caps := device.DefaultCaps()
	caps.SupportsMSAA = false
	noMSAA := NewRenderPipeline(device.NewSoftwareEngine(8, 8, device.WithCaps(caps)), "pipe")
	if noMSAA.EnableMSAAOnFirstPostProcess(4) {
		t.Error("EnableMSAAOnFirstPostProcess = true without MSAA")
	}
}
