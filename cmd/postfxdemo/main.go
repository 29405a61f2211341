// Command postfxdemo renders a synthetic scene through the default
// post-process pipeline on the CPU engine and saves the result as PNG.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/defaultpipeline"
	"github.com/gogpu/postfx/device"
	"github.com/gogpu/postfx/effects"
	"github.com/gogpu/postfx/scene"
)

func main() {
	var (
		width   = flag.Int("width", 640, "image width")
		height  = flag.Int("height", 360, "image height")
		output  = flag.String("output", "postfx.png", "output file")
		frames  = flag.Int("frames", 1, "frames to render before saving")
		scaling = flag.Float64("scaling", 1, "hardware scaling level")
		verbose = flag.Bool("v", false, "log pipeline activity")

		bloom     = flag.Bool("bloom", true, "enable bloom")
		fxaa      = flag.Bool("fxaa", true, "enable FXAA")
		dof       = flag.String("dof", "", "depth of field blur level: low, medium or high")
		sharpen   = flag.Bool("sharpen", false, "enable sharpen")
		grain     = flag.Bool("grain", false, "enable animated grain")
		chromatic = flag.Bool("chromatic", false, "enable chromatic aberration")
		hdr       = flag.Bool("hdr", true, "use floating point intermediate textures")
		samples   = flag.Int("samples", 1, "MSAA samples on the first pass")
	)
	flag.Parse()

	if *verbose {
		postfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	engine := device.NewSoftwareEngine(*width, *height)
	engine.SetHardwareScalingLevel(float32(*scaling))

	sc := scene.New(engine)
	cam := sc.AddCamera("main")
	cam.MinZ, cam.MaxZ = 1, 100
	sc.SetContent(sceneImage(*width, *height), depthImage(*width, *height))

	cfg := defaultpipeline.DefaultConfig()
	cfg.HDR = *hdr
	cfg.Samples = *samples
	cfg.Bloom = *bloom
	cfg.FXAA = *fxaa
	cfg.Sharpen = *sharpen
	cfg.Grain = *grain
	cfg.GrainAnimated = *grain
	cfg.ChromaticAberration = *chromatic
	if *dof != "" {
		level, ok := blurLevels[*dof]
		if !ok {
			log.Fatalf("Unknown blur level %q", *dof)
		}
		cfg.DepthOfField = true
		cfg.DepthOfFieldBlurLevel = level
	}

	p := defaultpipeline.New(sc, "default", defaultpipeline.WithCameras(cam), defaultpipeline.WithoutAutomaticBuild())
	if err := p.Apply(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.DepthOfField {
		p.DepthOfField().SetFocusDistance(30)
		p.DepthOfField().SetFStop(2)
	}
	p.Prepare()

	for i := 0; i < max(*frames, 1); i++ {
		if err := sc.Render(); err != nil {
			log.Fatalf("Frame %d: %v", i, err)
		}
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	err = png.Encode(f, engine.Screen())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	log.Printf("Rendered %d frame(s) with %d draws to %s\n", sc.Frames(), engine.Recorder().Len(), *output)
	p.Dispose()
}

var blurLevels = map[string]effects.BlurLevel{
	"low":    effects.BlurLevelLow,
	"medium": effects.BlurLevelMedium,
	"high":   effects.BlurLevelHigh,
}

// sceneImage draws a dim gradient with a few bright lights.
func sceneImage(w, h int) image.Image {
	img := image.NewRGBA64(image.Rect(0, 0, w, h))
	lights := []struct {
		x, y, r float64
		c       [3]float64
	}{
		{0.25, 0.4, 0.08, [3]float64{1, 0.9, 0.6}},
		{0.6, 0.55, 0.05, [3]float64{0.6, 0.8, 1}},
		{0.8, 0.3, 0.03, [3]float64{1, 0.4, 0.3}},
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u, v := float64(x)/float64(w), float64(y)/float64(h)
			r, g, b := 0.05+0.1*v, 0.08+0.1*v, 0.15+0.15*(1-v)
			for _, l := range lights {
				d := math.Hypot((u-l.x)*float64(w)/float64(h), v-l.y)
				if d < l.r {
					r, g, b = l.c[0], l.c[1], l.c[2]
				}
			}
			img.SetRGBA64(x, y, color.RGBA64{R: unit(r), G: unit(g), B: unit(b), A: 0xffff})
		}
	}
	return img
}

// depthImage stores linear depth growing from left to right.
func depthImage(w, h int) image.Image {
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray16(x, y, color.Gray16{Y: unit(float64(x) / float64(w))})
		}
	}
	return img
}

func unit(v float64) uint16 {
	return uint16(math.Round(math.Max(0, math.Min(1, v)) * 0xffff))
}
