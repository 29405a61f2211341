// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"golang.org/x/image/draw"

	"github.com/gogpu/postfx/internal/parallel"
)

// cpuProgram evaluates a program into dst.
type cpuProgram func(dst *image.RGBA64, call DrawCall) error

func builtinPrograms() map[string]cpuProgram {
	return map[string]cpuProgram{
		"pass":                 passThrough,
		"kernel_blur":          kernelBlur,
		"extract_highlights":   extractHighlights,
		"bloom_merge":          bloomMerge,
		"circle_of_confusion":  circleOfConfusion,
		"depth_of_field_merge": depthOfFieldMerge,
		"sharpen":              sharpen,
		"grain":                grain,
		"chromatic_aberration": chromaticAberration,
		"fxaa":                 fxaa,
		"image_processing":     imageProcessing,
	}
}

type rgba [4]float64

const maxChannel = 0xffff

func pixel(img *image.RGBA64, x, y int) rgba {
	b := img.Bounds()
	x = min(max(x, b.Min.X), b.Max.X-1)
	y = min(max(y, b.Min.Y), b.Max.Y-1)
	c := img.RGBA64At(x, y)
	return rgba{
		float64(c.R) / maxChannel,
		float64(c.G) / maxChannel,
		float64(c.B) / maxChannel,
		float64(c.A) / maxChannel,
	}
}

// sample reads img at uv with bilinear filtering and clamp-to-edge
// addressing.
func sample(img *image.RGBA64, u, v float64) rgba {
	b := img.Bounds()
	fx := u*float64(b.Dx()) - 0.5
	fy := v*float64(b.Dy()) - 0.5
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	tx, ty := fx-float64(x0), fy-float64(y0)

	c00 := pixel(img, b.Min.X+x0, b.Min.Y+y0)
	c10 := pixel(img, b.Min.X+x0+1, b.Min.Y+y0)
	c01 := pixel(img, b.Min.X+x0, b.Min.Y+y0+1)
	c11 := pixel(img, b.Min.X+x0+1, b.Min.Y+y0+1)

	var out rgba
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*tx
		bottom := c01[i] + (c11[i]-c01[i])*tx
		out[i] = top + (bottom-top)*ty
	}
	return out
}

func toColor(c rgba) color.RGBA64 {
	ch := func(f float64) uint16 {
		f = min(max(f, 0), 1)
		return uint16(f*maxChannel + 0.5)
	}
	return color.RGBA64{R: ch(c[0]), G: ch(c[1]), B: ch(c[2]), A: ch(c[3])}
}

// shade runs fn for every pixel center of dst. Row bands are shaded
// concurrently; fn must only read shared state.
func shade(dst *image.RGBA64, fn func(u, v float64) rgba) error {
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	return parallel.Rows(b.Min.Y, b.Max.Y, 0, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			v := (float64(y-b.Min.Y) + 0.5) / h
			for x := b.Min.X; x < b.Max.X; x++ {
				u := (float64(x-b.Min.X) + 0.5) / w
				dst.SetRGBA64(x, y, toColor(fn(u, v)))
			}
		}
		return nil
	})
}

func input(call DrawCall, sampler string) (*image.RGBA64, error) {
	t := call.Bindings.Texture(sampler)
	if t == nil {
		return nil, fmt.Errorf("sampler %q not bound", sampler)
	}
	img := Image(t)
	if img == nil {
		return nil, fmt.Errorf("sampler %q is not a software texture", sampler)
	}
	return img, nil
}

func floatOr(call DrawCall, name string, def float32) float64 {
	if v, ok := call.Bindings.Float(name); ok {
		return float64(v)
	}
	return float64(def)
}

func passThrough(dst *image.RGBA64, call DrawCall) error {
	src, err := input(call, "textureSampler")
	if err != nil {
		return err
	}
	if src.Bounds().Size() == dst.Bounds().Size() {
		draw.Copy(dst, dst.Bounds().Min, src, src.Bounds(), draw.Src, nil)
		return nil
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return nil
}

type tap struct {
	offset float64
	weight float64
}

// taps reads the unrolled kernel from the variant defines.
func taps(call DrawCall, offsetName, weightName string) []tap {
	d := call.Program.Defines()
	var out []tap
	for i := 0; ; i++ {
		o, ok := d.Float(offsetName + strconv.Itoa(i))
		if !ok {
			return out
		}
		w, _ := d.Float(weightName + strconv.Itoa(i))
		out = append(out, tap{offset: float64(o), weight: float64(w)})
	}
}

func kernelBlur(dst *image.RGBA64, call DrawCall) error {
	src, err := input(call, "textureSampler")
	if err != nil {
		return err
	}
	dx, dy, ok := call.Bindings.Float2("delta")
	if !ok {
		return fmt.Errorf("uniform %q not set", "delta")
	}
	all := append(taps(call, "KERNEL_OFFSET", "KERNEL_WEIGHT"),
		taps(call, "KERNEL_DEP_OFFSET", "KERNEL_DEP_WEIGHT")...)

	d := call.Program.Defines()
	if !d.Has("DOF") {
		return shade(dst, func(u, v float64) rgba {
			var blend rgba
			for _, t := range all {
				s := sample(src, u+float64(dx)*t.offset, v+float64(dy)*t.offset)
				for i := range blend {
					blend[i] += s[i] * t.weight
				}
			}
			return blend
		})
	}

	coc, err := input(call, "circleOfConfusionSampler")
	if err != nil {
		return err
	}
	center, _ := d.Float("CENTER_WEIGHT")
	return shade(dst, func(u, v float64) rgba {
		var blend rgba
		s := sample(src, u, v)
		for i := range blend {
			blend[i] = s[i] * float64(center)
		}
		sum := float64(center)
		for _, t := range all {
			cu, cv := u+float64(dx)*t.offset, v+float64(dy)*t.offset
			w := t.weight * sample(coc, cu, cv)[0]
			s := sample(src, cu, cv)
			for i := range blend {
				blend[i] += s[i] * w
			}
			sum += w
		}
		if sum > 0 {
			for i := range blend {
				blend[i] /= sum
			}
		}
		return blend
	})
}

func luminance(c rgba) float64 {
	return c[0]*0.2126 + c[1]*0.7152 + c[2]*0.0722
}

func extractHighlights(dst *image.RGBA64, call DrawCall) error {
	src, err := input(call, "textureSampler")
	if err != nil {
		return err
	}
	threshold := floatOr(call, "threshold", 0.9)
	exposure := floatOr(call, "exposure", 1)
	return shade(dst, func(u, v float64) rgba {
		c := sample(src, u, v)
		if luminance(rgba{c[0] * exposure, c[1] * exposure, c[2] * exposure}) < threshold {
			return rgba{0, 0, 0, c[3]}
		}
		return c
	})
}

func bloomMerge(dst *image.RGBA64, call DrawCall) error {
	src, err := input(call, "textureSampler")
	if err != nil {
		return err
	}
	blur, err := input(call, "bloomBlur")
	if err != nil {
		return err
	}
	weight := floatOr(call, "bloomWeight", 0.15)
	return shade(dst, func(u, v float64) rgba {
		c := sample(src, u, v)
		b := sample(blur, u, v)
		for i := 0; i < 3; i++ {
			c[i] += b[i] * weight
		}
		return c
	})
}
