// Package cache provides the LRU used to hold compiled shader variants.
//
//	c := cache.New[uint64, *Program](64, func(key uint64, p *Program) {
//	    p.Dispose()
//	})
//	p := c.GetOrCreate(key, compile)
//
// Entries evicted by capacity pressure, removed with Delete or dropped by
// Clear are passed to the eviction callback.
//
// Cache is not safe for concurrent use; it is owned by the render loop.
package cache
