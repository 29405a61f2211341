package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/internal/cache"
)

// DefaultVariantCapacity is the number of compiled variants kept by a
// VariantCache created with capacity 0.
const DefaultVariantCapacity = 256

// Variant is one preprocessed and compiled program for a define set.
type Variant struct {
	Name    string
	Key     uint64
	Defines Defines
	Index   map[string]int
	Source  string
	SPIRV   []uint32

	// Err is set when preprocessing or compilation failed. Failed variants
	// are cached too so a broken define set is not recompiled every frame.
	Err error
}

// Ready reports whether the variant compiled successfully.
func (v *Variant) Ready() bool { return v != nil && v.Err == nil }

// VariantCache builds and caches program variants keyed by program name,
// define set and loop bounds.
type VariantCache struct {
	lib      *Library
	compiler Compiler
	variants *cache.Cache[uint64, *Variant]
	compiles int
}

// NewVariantCache creates a cache over lib. compiler may be nil, in which
// case variants carry preprocessed source only.
func NewVariantCache(lib *Library, compiler Compiler, capacity int) *VariantCache {
	if capacity <= 0 {
		capacity = DefaultVariantCapacity
	}
	return &VariantCache{
		lib:      lib,
		compiler: compiler,
		variants: cache.New[uint64, *Variant](capacity, nil),
	}
}

// Library returns the source library.
func (c *VariantCache) Library() *Library { return c.lib }

// Get returns the variant for the given program and define set, building
// it on first use. Equal define sets share one variant.
func (c *VariantCache) Get(name string, defines Defines, index map[string]int) *Variant {
	key := VariantKey(name, defines, index)
	if v, ok := c.variants.Get(key); ok && v.Name == name && v.Defines.Equal(defines) && sameIndex(v.Index, index) {
		return v
	}

	v := &Variant{
		Name:    name,
		Key:     key,
		Defines: defines.Clone(),
		Index:   cloneIndex(index),
	}
	c.compiles++
	v.Source, v.Err = c.lib.Build(name, defines, index)
	if v.Err == nil && c.compiler != nil {
		v.SPIRV, v.Err = c.compiler.Compile(name, v.Source)
		if v.Err != nil && !errors.Is(v.Err, ErrCompile) {
			v.Err = fmt.Errorf("%w: %s: %w", ErrCompile, name, v.Err)
		}
	}
	if v.Err != nil {
		postfx.Logger().Warn("shader: variant failed", "program", name, "err", v.Err)
	} else {
		postfx.Logger().Debug("shader: variant built", "program", name, "key", key)
	}
	c.variants.Set(key, v)
	return v
}

// Compiles returns how many variants have been built.
func (c *VariantCache) Compiles() int { return c.compiles }

// Stats returns cache statistics.
func (c *VariantCache) Stats() cache.Stats { return c.variants.Stats() }

// Clear drops all cached variants.
func (c *VariantCache) Clear() { c.variants.Clear() }

func cloneIndex(index map[string]int) map[string]int {
	if index == nil {
		return nil
	}
	out := make(map[string]int, len(index))
	for k, v := range index {
		out[k] = v
	}
	return out
}

func sameIndex(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
