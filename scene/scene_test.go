package scene

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/postfx/device"
	"github.com/gogpu/postfx/postprocess"
)

func names(passes []*postprocess.Pass) []string {
	out := make([]string, len(passes))
	for i, p := range passes {
		if p == nil {
			out[i] = "-"
			continue
		}
		out[i] = p.Name()
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCameraAttachPostProcess(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	cam := New(e).AddCamera("cam")
	a := postprocess.NewPassThrough(e, "a", 1)
	b := postprocess.NewPassThrough(e, "b", 1)
	c := postprocess.NewPassThrough(e, "c", 1)
	d := postprocess.NewPassThrough(e, "d", 1)

	if got := cam.AttachPostProcess(a, -1); got != 0 {
		t.Errorf("append index = %d, want 0", got)
	}
	if got := cam.AttachPostProcess(b, 3); got != 3 {
		t.Errorf("padded index = %d, want 3", got)
	}
	if want := []string{"a", "-", "-", "b"}; !equal(names(cam.PostProcesses()), want) {
		t.Errorf("passes = %v, want %v", names(cam.PostProcesses()), want)
	}
	cam.AttachPostProcess(c, 1)
	cam.AttachPostProcess(d, 0)
	if want := []string{"d", "a", "c", "-", "b"}; !equal(names(cam.PostProcesses()), want) {
		t.Errorf("passes = %v, want %v", names(cam.PostProcesses()), want)
	}

	if got := cam.AttachPostProcess(a, -1); got != -1 {
		t.Errorf("attaching a non-reusable pass twice = %d, want -1", got)
	}
	r := postprocess.New(e, "r", postprocess.Options{Program: "pass", Reusable: true})
	cam.AttachPostProcess(r, -1)
	if got := cam.AttachPostProcess(r, -1); got == -1 {
		t.Error("a reusable pass should attach twice")
	}
}

func TestCameraDetachTrimsTrailingHoles(t *testing.T) {
	e := device.NewSoftwareEngine(8, 8)
	cam := New(e).AddCamera("cam")
	a := postprocess.NewPassThrough(e, "a", 1)
	b := postprocess.NewPassThrough(e, "b", 1)
	c := postprocess.NewPassThrough(e, "c", 1)
	cam.AttachPostProcess(a, -1)
	cam.AttachPostProcess(b, -1)
	cam.AttachPostProcess(c, -1)

	cam.DetachPostProcess(b)
	if want := []string{"a", "-", "c"}; !equal(names(cam.PostProcesses()), want) {
		t.Errorf("passes = %v, want %v", names(cam.PostProcesses()), want)
	}
	cam.DetachPostProcess(c)
	if want := []string{"a"}; !equal(names(cam.PostProcesses()), want) {
		t.Errorf("passes = %v, want %v", names(cam.PostProcesses()), want)
	}
}

func TestImageProcessingDefines(t *testing.T) {
	cfg := newImageProcessingConfiguration()
	if got := cfg.Defines().Names(); len(got) != 1 || got[0] != "GAMMA" {
		t.Errorf("default defines = %v, want [GAMMA]", got)
	}

	var changes int
	cfg.OnChange(func(struct{}) { changes++ })
	s := cfg.Settings()
	s.ToneMappingEnabled = true
	s.ToneMappingType = ToneMappingACES
	s.Exposure = 2
	cfg.SetSettings(s)

	d := cfg.Defines()
	for _, name := range []string{"TONEMAPPING", "TONEMAPPING_ACES", "EXPOSURE", "GAMMA"} {
		if !d.Has(name) {
			t.Errorf("defines missing %s", name)
		}
	}
	if d.Has("CONTRAST") || d.Has("VIGNETTE") {
		t.Error("neutral settings should not produce defines")
	}

	cfg.SetApplyByPostProcess(true)
	cfg.SetApplyByPostProcess(true)
	if changes != 2 {
		t.Errorf("change hooks ran %d times, want 2", changes)
	}
}

func uniform(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSceneRenderWithoutPasses(t *testing.T) {
	e := device.NewSoftwareEngine(4, 4)
	s := New(e)
	s.AddCamera("cam")
	s.SetContent(uniform(4, 4, color.White), nil)

	if err := s.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := e.Screen().RGBA64At(1, 1); got.R != 0xffff {
		t.Errorf("screen = %v, want white", got)
	}
	if e.Recorder().Len() != 0 {
		t.Error("no draw should be recorded without passes")
	}
}

func TestSceneRenderRunsChain(t *testing.T) {
	e := device.NewSoftwareEngine(4, 4)
	s := New(e)
	cam := s.AddCamera("cam")
	cam.AttachPostProcess(postprocess.NewPassThrough(e, "copy", 1), -1)
	s.SetContent(uniform(4, 4, color.White), nil)

	if err := s.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	recs := e.Recorder().Records()
	if len(recs) != 1 || recs[0].Inputs["textureSampler"] != "copy" {
		t.Fatalf("records = %+v, want one draw from the copy input", recs)
	}
	if got := e.Screen().RGBA64At(1, 1); got.R != 0xffff {
		t.Errorf("screen = %v, want white", got)
	}
}

func TestSceneRenderSkipsUnreadyChain(t *testing.T) {
	e := device.NewSoftwareEngine(4, 4)
	s := New(e)
	cam := s.AddCamera("cam")
	cam.AttachPostProcess(postprocess.New(e, "broken", postprocess.Options{Program: "does_not_exist"}), -1)
	s.SetContent(uniform(4, 4, color.White), nil)

	if err := s.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if cam.SkippedFrames() != 1 {
		t.Errorf("SkippedFrames() = %d, want 1", cam.SkippedFrames())
	}
	if got := e.Screen().RGBA64At(1, 1); got.R != 0xffff {
		t.Errorf("screen = %v, want content rendered directly", got)
	}
}

func TestSceneDepthAndHooks(t *testing.T) {
	e := device.NewSoftwareEngine(4, 4)
	s := New(e)
	a := s.AddCamera("a")
	b := s.AddCamera("b")
	s.SetActiveCameras(a, b)
	ra := s.EnableDepthRenderer(a)
	if s.EnableDepthRenderer(a) != ra {
		t.Error("EnableDepthRenderer should return the existing renderer")
	}

	var seen []string
	h := s.OnAfterRenderTargets(func(s *Scene) { seen = append(seen, s.ActiveCamera().Name()) })
	if err := s.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !equal(seen, []string{"a", "b"}) {
		t.Errorf("hook saw cameras %v, want [a b]", seen)
	}
	if ra.DepthMap() == nil {
		t.Error("depth map should exist after a frame")
	}
	if s.DepthRenderer(b) != nil {
		t.Error("camera b has no depth renderer")
	}

	s.RemoveAfterRenderTargets(h)
	s.DisableDepthRenderer(a)
	if s.DepthRenderer(a) != nil || e.LiveTextures() != 0 {
		t.Error("DisableDepthRenderer should release the depth map")
	}
}

func TestScenePipelineManagerIsLazy(t *testing.T) {
	s := New(device.NewSoftwareEngine(4, 4))
	if s.manager != nil {
		t.Fatal("manager should not exist before first use")
	}
	m := s.PipelineManager()
	if m == nil || s.PipelineManager() != m {
		t.Error("PipelineManager should create one manager")
	}
}

func TestSceneResizeHooks(t *testing.T) {
	e := device.NewSoftwareEngine(4, 4)
	s := New(e)
	var calls int
	s.OnResize(func(*Scene) { calls++ })
	e.SetSize(8, 8)
	s.NotifyResize()
	if calls != 1 {
		t.Errorf("resize hooks ran %d times, want 1", calls)
	}
}

func TestSceneRenderUniformContent(t *testing.T) {
	e := device.NewSoftwareEngine(4, 4)
	s := New(e)
	cam := s.AddCamera("cam")
	cam.AttachPostProcess(postprocess.NewPassThrough(e, "first", 1), -1)
	cam.AttachPostProcess(postprocess.NewPassThrough(e, "second", 0.5), -1)
	depth := s.EnableDepthRenderer(cam)
	s.SetContent(image.NewUniform(color.RGBA{R: 0xff, A: 0xff}), image.NewUniform(color.Gray{Y: 0x80}))

	if err := s.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := e.Recorder().Len(); got != 2 {
		t.Errorf("draws = %d, want 2", got)
	}
	if got := device.Image(depth.DepthMap()).RGBA64At(1, 1); got.R != 0x8080 {
		t.Errorf("depth = %v, want uniform gray", got)
	}
	for _, p := range [][2]int{{0, 0}, {3, 3}} {
		if got := e.Screen().RGBA64At(p[0], p[1]); got.R != 0xffff || got.G != 0 {
			t.Errorf("screen at %v = %v, want red", p, got)
		}
	}
}

func TestColorCurvesUniforms(t *testing.T) {
	tests := []struct {
		name     string
		edit     func(*ColorCurves)
		neutral  [4]float32
		positive [4]float32
		negative [4]float32
	}{
		{
			name:    "default",
			edit:    func(*ColorCurves) {},
			neutral: [4]float32{1, 1, 1, 1},
		},
		{
			name:    "global desaturated",
			edit:    func(c *ColorCurves) { c.Global.Saturation = -100 },
			neutral: [4]float32{1, 1, 1, 0},
		},
		{
			name:     "bright highlights",
			edit:     func(c *ColorCurves) { c.Highlights.Exposure = 100 },
			neutral:  [4]float32{1, 1, 1, 1},
			positive: [4]float32{0.5, 0.5, 0.5, 0},
		},
		{
			name:     "dark shadows",
			edit:     func(c *ColorCurves) { c.Shadows.Exposure = -100 },
			neutral:  [4]float32{1, 1, 1, 1},
			negative: [4]float32{0.5, 0.5, 0.5, 0},
		},
	}
	near := func(a, b [4]float32) bool {
		for i := range a {
			if d := a[i] - b[i]; d > 1e-5 || d < -1e-5 {
				return false
			}
		}
		return true
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultColorCurves()
			tt.edit(&c)
			n, p, m := c.Uniforms()
			if !near(n, tt.neutral) {
				t.Errorf("neutral = %v, want %v", n, tt.neutral)
			}
			if !near(p, tt.positive) {
				t.Errorf("positive = %v, want %v", p, tt.positive)
			}
			if !near(m, tt.negative) {
				t.Errorf("negative = %v, want %v", m, tt.negative)
			}
		})
	}
}

func TestColorCurvesNegativeDensityFlipsHue(t *testing.T) {
	warm := CurveAdjustment{Hue: 30, Density: 100}.grading()
	cool := CurveAdjustment{Hue: 30, Density: -100}.grading()
	if warm[0] <= warm[2] {
		t.Errorf("hue 30 grading = %v, want red above blue", warm)
	}
	if cool[0] >= cool[2] {
		t.Errorf("flipped grading = %v, want blue above red", cool)
	}
}

func TestImageProcessingColorCurves(t *testing.T) {
	cfg := newImageProcessingConfiguration()
	s := cfg.Settings()
	s.ColorCurvesEnabled = true
	s.ColorCurves.Highlights.Exposure = 100
	cfg.SetSettings(s)

	if !cfg.Defines().Has("COLORCURVES") {
		t.Error("defines missing COLORCURVES")
	}
	b := device.NewBindings()
	cfg.Bind(b)
	for _, name := range []string{"colorCurveNeutral", "colorCurvePositive", "colorCurveNegative"} {
		if got := len(b.Values(name)); got != 4 {
			t.Errorf("len(%s) = %d, want 4", name, got)
		}
	}
	if got := b.Values("colorCurvePositive")[0]; got < 0.49 || got > 0.51 {
		t.Errorf("colorCurvePositive.r = %v, want 0.5", got)
	}
}
