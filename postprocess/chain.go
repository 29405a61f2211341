package postprocess

import (
	"fmt"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/device"
)

// Chain runs the passes of one camera for one frame.
type Chain struct {
	engine device.Engine
	passes []*Pass
}

// NewChain builds a chain over the active passes of a camera.
func NewChain(engine device.Engine, c Camera) *Chain {
	return &Chain{engine: engine, passes: Active(c)}
}

// Len returns the number of passes.
func (c *Chain) Len() int { return len(c.passes) }

// Passes returns the passes in execution order.
func (c *Chain) Passes() []*Pass { return c.passes }

// Ready compiles blocked passes and reports whether every pass can draw.
func (c *Chain) Ready() bool {
	ready := true
	for _, p := range c.passes {
		p.Compile()
		if !p.IsReady() {
			ready = false
		}
	}
	return ready
}

// Begin activates the first pass and returns the texture the scene must be
// rendered into. It returns ErrNotReady when a pass cannot draw yet and a
// nil texture when the chain is empty.
func (c *Chain) Begin() (device.Texture, error) {
	if len(c.passes) == 0 {
		return nil, nil
	}
	if !c.Ready() {
		return nil, ErrNotReady
	}
	w, h := c.engine.RenderSize()
	return c.passes[0].Activate(w, h)
}

// Finish executes every pass. Each pass renders into the input texture of
// the next one; the last renders to the default framebuffer.
func (c *Chain) Finish() error {
	w, h := c.engine.RenderSize()
	for i, p := range c.passes {
		var target device.Texture
		if i+1 < len(c.passes) {
			next, err := c.passes[i+1].Activate(w, h)
			if err != nil {
				return err
			}
			target = next
		}

		p.output = target
		ev := p.Apply()
		program := p.Program()
		if ev.Skip {
			program = c.engine.CreateProgram("pass", nil, nil)
			bindings := device.NewBindings()
			bindings.SetTexture("textureSampler", p.InputTexture())
			ev.Bindings = bindings
		}
		err := c.engine.Draw(device.DrawCall{
			Label:    p.Name(),
			Program:  program,
			Bindings: ev.Bindings,
			Target:   target,
		})
		if err != nil {
			return fmt.Errorf("postprocess: pass %d of %d: %w", i+1, len(c.passes), err)
		}
	}
	postfx.Logger().Debug("postprocess: chain executed", "passes", len(c.passes))
	return nil
}
