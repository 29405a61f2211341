// Package parallel splits row-oriented image work across goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MinRows is the smallest band handed to one goroutine.
const MinRows = 16

// Rows calls fn over consecutive [y0, y1) bands covering [minY, maxY) and
// waits for all of them. Bands run on up to workers goroutines; workers <= 0
// uses GOMAXPROCS. Small ranges run on the calling goroutine. The first
// error is returned.
func Rows(minY, maxY, workers int, fn func(y0, y1 int) error) error {
	n := maxY - minY
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	bands := min(workers, (n+MinRows-1)/MinRows)
	if bands <= 1 {
		return fn(minY, maxY)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	step := (n + bands - 1) / bands
	for y := minY; y < maxY; y += step {
		y0, y1 := y, min(y+step, maxY)
		g.Go(func() error { return fn(y0, y1) })
	}
	return g.Wait()
}
