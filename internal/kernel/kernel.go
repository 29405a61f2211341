// Package kernel computes separable Gaussian blur kernels tuned for GPU
// sampling.
//
// A kernel request goes through four steps:
//
//  1. The desired size is snapped to a size from a small set of shader
//     variants (odd, with an even half).
//  2. Gaussian weights are sampled over a normalized [-1, 1] domain with
//     sigma 1/3 and normalized to sum to one.
//  3. Adjacent taps are merged pairwise so that a single bilinear fetch
//     replaces two point fetches.
//  4. Taps are split between the interpolated ("varying") budget of the
//     device and a dependent-read remainder.
package kernel

import (
	"math"

	"github.com/chewxy/math32"
)

// MinSize is the smallest kernel size Compute returns.
const MinSize = 5

// sigma of the Gaussian over the normalized [-1, 1] domain (3-sigma truncation).
const sigma = float32(1.0 / 3.0)

// Options controls how taps are distributed across shader inputs.
type Options struct {
	// MaxVaryingVectors is the device's interpolator budget in vec4 rows.
	MaxVaryingVectors int

	// WGSL reserves one varying row for the position builtin.
	WGSL bool

	// DepthAware marks a depth-of-field blur. The center tap is handled by
	// the shader itself and is reported through Spec.CenterWeight.
	DepthAware bool

	// PackedFloat marks a blur that reads and writes RGBA-packed floats.
	PackedFloat bool
}

// Tap is a single texture fetch of a 1-D convolution.
type Tap struct {
	Offset float32
	Weight float32
}

// Spec is a computed blur kernel. A Spec is immutable once returned.
type Spec struct {
	// Ideal is the requested kernel size.
	Ideal float64

	// Size is the number of Gaussian samples actually used.
	Size int

	// Offsets and Weights hold the compressed taps, in fetch order.
	Offsets []float32
	Weights []float32

	// VaryingCount taps are fed through interpolators; they are the first
	// VaryingCount entries of Offsets/Weights.
	VaryingCount int

	// DepCount taps are computed per fragment; they are the entries
	// starting at DepStart.
	DepCount int
	DepStart int

	// CenterWeight is set for depth-aware kernels.
	CenterWeight    float32
	HasCenterWeight bool

	PackedFloat bool
}

// Taps returns the compressed taps as offset/weight pairs.
func (s Spec) Taps() []Tap {
	taps := make([]Tap, len(s.Offsets))
	for i := range s.Offsets {
		taps[i] = Tap{Offset: s.Offsets[i], Weight: s.Weights[i]}
	}
	return taps
}

// VaryingTaps returns the taps assigned to interpolators.
func (s Spec) VaryingTaps() []Tap {
	return s.Taps()[:s.VaryingCount]
}

// DependentTaps returns the taps computed per fragment.
func (s Spec) DependentTaps() []Tap {
	if s.DepCount == 0 {
		return nil
	}
	return s.Taps()[s.DepStart : s.DepStart+s.DepCount]
}

// NearestBest snaps an ideal kernel size to one whose size is odd and whose
// half is even. Candidates are tried in the order v, v-1, v+1, v-2, v+2 where
// v is the rounded ideal size. Each distinct size is a distinct compiled
// shader, so snapping keeps the variant count low.
//
// Any five consecutive integers contain one candidate congruent to 1 mod 4,
// so a candidate is always found for v >= -1. Results below MinSize are
// raised to MinSize, the smallest size >= 3 that satisfies the rule.
func NearestBest(ideal float64) int {
	v := int(math.Round(ideal))
	for _, k := range [...]int{v, v - 1, v + 1, v - 2, v + 2} {
		if k > 0 && k%2 != 0 && (k/2)%2 == 0 {
			return max(k, MinSize)
		}
	}
	return MinSize
}

// GaussianWeight evaluates the Gaussian PDF with sigma 1/3 at x in [-1, 1].
func GaussianWeight(x float32) float32 {
	denominator := math32.Sqrt(2*math.Pi) * sigma
	exponent := -(x * x) / (2 * sigma * sigma)
	return math32.Exp(exponent) / denominator
}

// Gaussian returns the naive per-texel taps of an n-sample kernel: offsets
// centered on zero and weights normalized to sum to one.
func Gaussian(n int) (offsets, weights []float32) {
	if n <= 1 {
		return []float32{0}, []float32{1}
	}

	offsets = make([]float32, n)
	weights = make([]float32, n)
	center := float32(n-1) / 2

	raw := make([]float64, n)
	var total float64
	for i := range n {
		u := float32(i) / float32(n-1)
		raw[i] = float64(GaussianWeight(2*u - 1))
		offsets[i] = float32(i) - center
		total += raw[i]
	}
	for i := range raw {
		weights[i] = float32(raw[i] / total)
	}
	return offsets, weights
}

// Compress merges neighbouring taps so that one bilinear fetch replaces two
// point fetches. It walks from the leftmost tap to the center in steps of
// two and mirrors every merged tap to the right side. A merged tap whose
// offset would land exactly on zero is emitted as the two original taps.
//
// For an odd number n of input taps the result never has more than
// ceil((n+1)/2) taps.
func Compress(offsets, weights []float32) ([]float32, []float32) {
	n := len(offsets)
	if n <= 1 {
		return append([]float32(nil), offsets...), append([]float32(nil), weights...)
	}

	center := float32(n-1) / 2
	centerFloor := (n - 1) / 2

	outOffsets := make([]float32, 0, n/2+2)
	outWeights := make([]float32, 0, n/2+2)
	for i := 0; float32(i) <= center; i += 2 {
		j := min(i+1, centerFloor)
		if i == j {
			outOffsets = append(outOffsets, offsets[i])
			outWeights = append(outWeights, weights[i])
			continue
		}

		sharedCell := float32(j) == center
		wj := weights[j]
		if sharedCell {
			wj *= 0.5
		}
		weight := weights[i] + wj
		offset := offsets[i] + 1/(1+weights[i]/weights[j])

		if offset == 0 {
			outOffsets = append(outOffsets, offsets[i], offsets[i+1])
			outWeights = append(outWeights, weights[i], weights[i+1])
			continue
		}
		outOffsets = append(outOffsets, offset, -offset)
		outWeights = append(outWeights, weight, weight)
	}
	return outOffsets, outWeights
}

// Compute builds the kernel for a desired blur size. The result depends
// only on desired and opts.
func Compute(desired float64, opts Options) Spec {
	desired = max(desired, 1)
	size := NearestBest(desired)

	offsets, weights := Compress(Gaussian(size))

	spec := Spec{
		Ideal:       desired,
		Size:        size,
		Offsets:     offsets,
		Weights:     weights,
		PackedFloat: opts.PackedFloat,
	}

	maxVaryingRows := opts.MaxVaryingVectors
	if opts.WGSL {
		maxVaryingRows--
	}
	// One row is taken by the center sample coordinate.
	freeVaryingVec2 := max(max(maxVaryingRows, 0)-1, 0)
	varyingCount := min(len(offsets), freeVaryingVec2)

	if opts.DepthAware && varyingCount > 0 {
		spec.CenterWeight = weights[varyingCount-1]
		spec.HasCenterWeight = true
		varyingCount--
	}
	spec.VaryingCount = varyingCount

	if freeVaryingVec2 < len(offsets) {
		spec.DepStart = freeVaryingVec2
		spec.DepCount = len(offsets) - freeVaryingVec2
	}
	return spec
}
