// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import "slices"

// Bindings holds the uniform values and sampled textures of one draw.
// The zero value is not usable; call NewBindings.
type Bindings struct {
	floats   map[string][]float32
	textures map[string]Texture
}

// NewBindings creates an empty binding set.
func NewBindings() *Bindings {
	return &Bindings{
		floats:   make(map[string][]float32),
		textures: make(map[string]Texture),
	}
}

// SetFloat sets a scalar uniform.
func (b *Bindings) SetFloat(name string, v float32) { b.floats[name] = []float32{v} }

// SetFloat2 sets a vec2 uniform.
func (b *Bindings) SetFloat2(name string, x, y float32) { b.floats[name] = []float32{x, y} }

// SetFloat4 sets a vec4 uniform.
func (b *Bindings) SetFloat4(name string, x, y, z, w float32) {
	b.floats[name] = []float32{x, y, z, w}
}

// SetMatrix sets a column-major 4x4 matrix uniform.
func (b *Bindings) SetMatrix(name string, m [16]float32) { b.floats[name] = m[:] }

// SetTexture binds a texture to a sampler name. A nil texture unbinds it.
func (b *Bindings) SetTexture(name string, t Texture) {
	if t == nil {
		delete(b.textures, name)
		return
	}
	b.textures[name] = t
}

// Float returns the first component of a uniform.
func (b *Bindings) Float(name string) (float32, bool) {
	v, ok := b.floats[name]
	if !ok || len(v) == 0 {
		return 0, false
	}
	return v[0], true
}

// Float2 returns a vec2 uniform.
func (b *Bindings) Float2(name string) (x, y float32, ok bool) {
	v, ok := b.floats[name]
	if !ok || len(v) < 2 {
		return 0, 0, false
	}
	return v[0], v[1], true
}

// Values returns all components of a uniform.
func (b *Bindings) Values(name string) []float32 { return b.floats[name] }

// Texture returns the texture bound to a sampler name.
func (b *Bindings) Texture(name string) Texture { return b.textures[name] }

// TextureNames returns the bound sampler names in sorted order.
func (b *Bindings) TextureNames() []string {
	names := make([]string, 0, len(b.textures))
	for name := range b.textures {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Reset removes every binding.
func (b *Bindings) Reset() {
	clear(b.floats)
	clear(b.textures)
}
