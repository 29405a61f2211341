// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import "image"

// DrawRecord describes one executed draw.
type DrawRecord struct {
	Label   string
	Program string
	Key     uint64

	// Target is the label of the output texture, empty for the default
	// framebuffer.
	Target string
	Width  int
	Height int

	// Inputs maps sampler names to the labels of the bound textures.
	Inputs map[string]string
}

// Recorder keeps the draws executed by an engine in submission order.
type Recorder struct {
	records []DrawRecord
}

// Records returns the recorded draws.
func (r *Recorder) Records() []DrawRecord { return r.records }

// Len returns the number of recorded draws.
func (r *Recorder) Len() int { return len(r.records) }

// Labels returns the draw labels in submission order.
func (r *Recorder) Labels() []string {
	labels := make([]string, len(r.records))
	for i, rec := range r.records {
		labels[i] = rec.Label
	}
	return labels
}

// Reset forgets all recorded draws.
func (r *Recorder) Reset() { r.records = r.records[:0] }

func (r *Recorder) record(call DrawCall, bounds image.Rectangle) {
	rec := DrawRecord{
		Label:   call.Label,
		Program: call.Program.Name(),
		Key:     call.Program.Key(),
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Inputs:  make(map[string]string),
	}
	if call.Target != nil {
		rec.Target = call.Target.Label()
	}
	for _, name := range call.Bindings.TextureNames() {
		rec.Inputs[name] = call.Bindings.Texture(name).Label()
	}
	r.records = append(r.records, rec)
}
