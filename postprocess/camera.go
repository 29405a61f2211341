package postprocess

// Camera is a viewpoint owning an ordered list of passes.
//
// Detaching a pass leaves a nil hole so the recorded indices of later passes
// stay valid.
type Camera interface {
	// Name identifies the camera in logs.
	Name() string

	// AttachPostProcess inserts p at insertAt, or appends it when insertAt
	// is negative, and returns the index it landed at. Attaching a
	// non-reusable pass that is already present returns -1.
	AttachPostProcess(p *Pass, insertAt int) int

	// DetachPostProcess removes p, leaving a hole.
	DetachPostProcess(p *Pass)

	// PostProcesses returns the pass list including holes.
	PostProcesses() []*Pass
}

// Active returns the non-nil passes of a camera in order.
func Active(c Camera) []*Pass {
	all := c.PostProcesses()
	out := make([]*Pass, 0, len(all))
	for _, p := range all {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
