package scene

import (
	"slices"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/postprocess"
)

// Camera is a viewpoint with an ordered list of post-process passes.
type Camera struct {
	name  string
	scene *Scene

	// MinZ and MaxZ are the clip planes.
	MinZ float32
	MaxZ float32

	passes  []*postprocess.Pass
	skipped int
}

// Name returns the camera name.
func (c *Camera) Name() string { return c.name }

// Scene returns the owning scene.
func (c *Camera) Scene() *Scene { return c.scene }

// PostProcesses returns the pass list. Detached passes leave nil holes.
func (c *Camera) PostProcesses() []*postprocess.Pass { return c.passes }

// AttachPostProcess inserts p and returns its index.
//
// A negative insertAt appends. An empty slot at insertAt is filled; an
// occupied one shifts the following passes. Indices past the end pad the
// list with holes. A non-reusable pass that is already attached is
// rejected with -1.
func (c *Camera) AttachPostProcess(p *postprocess.Pass, insertAt int) int {
	if !p.Reusable() && slices.Contains(c.passes, p) {
		postfx.Logger().Error("scene: pass already attached", "camera", c.name, "pass", p.Name())
		return -1
	}
	switch {
	case insertAt < 0:
		c.passes = append(c.passes, p)
		return len(c.passes) - 1
	case insertAt >= len(c.passes):
		for len(c.passes) < insertAt {
			c.passes = append(c.passes, nil)
		}
		c.passes = append(c.passes, p)
	case c.passes[insertAt] == nil:
		c.passes[insertAt] = p
	default:
		c.passes = slices.Insert(c.passes, insertAt, p)
	}
	return insertAt
}

// DetachPostProcess removes every occurrence of p. Holes at the end of the
// list are trimmed so indices recorded before an attach stay reproducible.
func (c *Camera) DetachPostProcess(p *postprocess.Pass) {
	for i, q := range c.passes {
		if q == p {
			c.passes[i] = nil
		}
	}
	for len(c.passes) > 0 && c.passes[len(c.passes)-1] == nil {
		c.passes = c.passes[:len(c.passes)-1]
	}
}

// SkippedFrames returns how many frames rendered without post-processing
// because a pass was not ready.
func (c *Camera) SkippedFrames() int { return c.skipped }

var _ postprocess.Camera = (*Camera)(nil)
