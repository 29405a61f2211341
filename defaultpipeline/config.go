package defaultpipeline

import (
	"errors"
	"fmt"

	"github.com/gogpu/postfx/effects"
	"github.com/gogpu/postfx/scene"
)

var (
	// ErrInvalidConfig is returned by Apply for out of range values.
	ErrInvalidConfig = errors.New("defaultpipeline: invalid config")

	// ErrDisposed is returned by operations on a disposed pipeline.
	ErrDisposed = errors.New("defaultpipeline: pipeline disposed")
)

// Config is the full configuration of a Pipeline.
type Config struct {
	// HDR renders intermediate textures in a floating point format when
	// the device supports it.
	HDR bool

	// Samples is the MSAA sample count of the first pass.
	Samples int

	ImageProcessing bool
	FXAA            bool

	Bloom          bool
	BloomScale     float32
	BloomWeight    float32
	BloomKernel    float64
	BloomThreshold float32

	DepthOfField          bool
	DepthOfFieldBlurLevel effects.BlurLevel

	Sharpen            bool
	SharpenEdgeAmount  float32
	SharpenColorAmount float32

	Grain          bool
	GrainIntensity float32
	GrainAnimated  bool

	ChromaticAberration       bool
	ChromaticAberrationAmount float32
}

// DefaultConfig returns the configuration of a new pipeline: HDR and image
// processing on, every other effect off.
func DefaultConfig() Config {
	return Config{
		HDR:                       true,
		Samples:                   1,
		ImageProcessing:           true,
		BloomScale:                0.5,
		BloomWeight:               0.15,
		BloomKernel:               64,
		BloomThreshold:            0.9,
		DepthOfFieldBlurLevel:     effects.BlurLevelLow,
		SharpenEdgeAmount:         0.3,
		SharpenColorAmount:        1,
		GrainIntensity:            30,
		ChromaticAberrationAmount: 30,
	}
}

// Validate reports the first out of range value.
func (c Config) Validate() error {
	switch {
	case c.Samples < 1:
		return fmt.Errorf("%w: samples %d < 1", ErrInvalidConfig, c.Samples)
	case c.BloomScale <= 0 || c.BloomScale > 1:
		return fmt.Errorf("%w: bloom scale %v not in (0, 1]", ErrInvalidConfig, c.BloomScale)
	case c.BloomKernel < 1:
		return fmt.Errorf("%w: bloom kernel %v < 1", ErrInvalidConfig, c.BloomKernel)
	case c.BloomWeight < 0:
		return fmt.Errorf("%w: bloom weight %v < 0", ErrInvalidConfig, c.BloomWeight)
	case c.BloomThreshold < 0:
		return fmt.Errorf("%w: bloom threshold %v < 0", ErrInvalidConfig, c.BloomThreshold)
	case c.DepthOfFieldBlurLevel < effects.BlurLevelLow || c.DepthOfFieldBlurLevel > effects.BlurLevelHigh:
		return fmt.Errorf("%w: depth of field blur level %d", ErrInvalidConfig, c.DepthOfFieldBlurLevel)
	case c.GrainIntensity < 0:
		return fmt.Errorf("%w: grain intensity %v < 0", ErrInvalidConfig, c.GrainIntensity)
	}
	return nil
}

// topology reports whether going from c to next changes the pass chain.
func (c Config) topology(next Config) bool {
	return c.HDR != next.HDR ||
		c.Samples != next.Samples ||
		c.ImageProcessing != next.ImageProcessing ||
		c.FXAA != next.FXAA ||
		c.Bloom != next.Bloom ||
		c.BloomScale != next.BloomScale ||
		c.DepthOfField != next.DepthOfField ||
		c.DepthOfFieldBlurLevel != next.DepthOfFieldBlurLevel ||
		c.Sharpen != next.Sharpen ||
		c.Grain != next.Grain ||
		c.ChromaticAberration != next.ChromaticAberration
}

// Option configures New.
type Option func(*options)

type options struct {
	cameras    []*scene.Camera
	camerasSet bool
	automatic  bool
	config     Config
}

// WithCameras attaches the pipeline to cameras instead of every camera of
// the scene.
func WithCameras(cameras ...*scene.Camera) Option {
	return func(o *options) {
		o.cameras = cameras
		o.camerasSet = true
	}
}

// WithoutAutomaticBuild defers every build until Prepare is called.
func WithoutAutomaticBuild() Option {
	return func(o *options) {
		o.automatic = false
	}
}

// WithConfig replaces the initial configuration. An invalid configuration
// is ignored and logged.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}
