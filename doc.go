// Package postfx is a post-processing layer for real-time renderers.
//
// # Overview
//
// postfx chains full-screen GPU passes (blur, bloom, depth of field,
// sharpen, grain, chromatic aberration, FXAA, image processing) per camera.
// Passes are grouped into render effects, render effects into named render
// pipelines, and pipelines into a per-scene manager that attaches them to
// cameras and sweeps the ones that stop being supported.
//
// The root package only carries the shared logger. The work happens in the
// sub-packages:
//
//   - device: the graphics device contract and a CPU reference engine
//   - shader: define sets, WGSL variants and the compiled-program cache
//   - postprocess: the Pass type, the per-camera chain executor and the
//     built-in passes
//   - pipeline: RenderEffect, RenderPipeline and Manager
//   - effects: the bloom and depth-of-field composite effects
//   - scene: the scene and camera collaborators and the frame loop
//   - defaultpipeline: the composite pipeline with its rebuild algorithm
//
// # Quick Start
//
//	engine := device.NewSoftwareEngine(1280, 720)
//	sc := scene.New(engine)
//	cam := sc.AddCamera("main")
//
//	p := defaultpipeline.New(sc, "default", defaultpipeline.WithCameras(cam))
//	cfg := p.Config()
//	cfg.Bloom = true
//	cfg.FXAA = true
//	if err := p.Apply(cfg); err != nil {
//	    return err
//	}
//
//	for running {
//	    if err := sc.Render(); err != nil {
//	        return err
//	    }
//	}
//
// # Thread Safety
//
// Everything except SetLogger and Logger runs on the render loop goroutine.
// Pipelines, effects and passes are not safe for concurrent use.
package postfx
