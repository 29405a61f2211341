// Package defaultpipeline provides the standard post-process pipeline:
// depth of field, bloom, image processing, sharpen, grain, chromatic
// aberration and FXAA, in that order.
//
// A Pipeline is configured with a Config value. Apply validates the new
// configuration, reconstructs the sub-effects whose construction changed
// and rebuilds the pass chain:
//
//	p := defaultpipeline.New(sc, "default")
//	cfg := p.Config()
//	cfg.Bloom = true
//	cfg.FXAA = true
//	if err := p.Apply(cfg); err != nil {
//		return err
//	}
//
// Passes that run back to back share render targets two positions apart,
// so a chain of any length allocates at most a few textures.
package defaultpipeline
