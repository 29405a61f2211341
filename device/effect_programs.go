// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"
	"image"
	"math"
	"strconv"
)

func float2(call DrawCall, name string) (x, y float64, err error) {
	fx, fy, ok := call.Bindings.Float2(name)
	if !ok {
		return 0, 0, fmt.Errorf("uniform %q not set", name)
	}
	return float64(fx), float64(fy), nil
}

func float4(call DrawCall, name string) (rgba, error) {
	v := call.Bindings.Values(name)
	if len(v) != 4 {
		return rgba{}, fmt.Errorf("uniform %q not set", name)
	}
	return rgba{float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3])}, nil
}

func mix(a, b, t float64) float64 { return a + (b-a)*t }

func clamp01(v float64) float64 { return min(max(v, 0), 1) }

func circleOfConfusion(dst *image.RGBA64, call DrawCall) error {
	depth, err := input(call, "depthSampler")
	if err != nil {
		return err
	}
	minZ, rangeZ, err := float2(call, "cameraMinMaxZ")
	if err != nil {
		return err
	}
	focus := floatOr(call, "focusDistance", 2000)
	pre := floatOr(call, "cocPrecalculation", 0)
	return shade(dst, func(u, v float64) rgba {
		d := sample(depth, u, v)[0]
		distance := (minZ + rangeZ*d) * 1000
		var coc float64
		if distance > 0 {
			coc = math.Abs(pre * (focus - distance) / distance)
		}
		return rgba{clamp01(coc), d, 0, 1}
	})
}

func depthOfFieldMerge(dst *image.RGBA64, call DrawCall) error {
	src, err := input(call, "textureSampler")
	if err != nil {
		return err
	}
	coc, err := input(call, "circleOfConfusionSampler")
	if err != nil {
		return err
	}
	var steps []*image.RGBA64
	for i := 0; ; i++ {
		name := "blurStep" + strconv.Itoa(i)
		if call.Bindings.Texture(name) == nil {
			break
		}
		img, err := input(call, name)
		if err != nil {
			return err
		}
		steps = append(steps, img)
	}
	levels := float64(len(steps))
	return shade(dst, func(u, v float64) rgba {
		t := sample(coc, u, v)[0] * levels
		c := sample(src, u, v)
		w := max(1-t, 0)
		var out rgba
		for i := range out {
			out[i] = c[i] * w
		}
		// steps[0] is the most blurred and sits at the top level.
		for i, step := range steps {
			w := max(1-math.Abs(t-(levels-float64(i))), 0)
			if w == 0 {
				continue
			}
			s := sample(step, u, v)
			for j := range out {
				out[j] += s[j] * w
			}
		}
		return out
	})
}

func sharpen(dst *image.RGBA64, call DrawCall) error {
	src, err := input(call, "textureSampler")
	if err != nil {
		return err
	}
	w, h, err := float2(call, "screenSize")
	if err != nil {
		return err
	}
	edgeAmount, colorAmount, err := float2(call, "sharpnessAmounts")
	if err != nil {
		return err
	}
	tx, ty := 1/w, 1/h
	return shade(dst, func(u, v float64) rgba {
		c := sample(src, u, v)
		n := sample(src, u, v-ty)
		wst := sample(src, u-tx, v)
		e := sample(src, u+tx, v)
		s := sample(src, u, v+ty)
		out := c
		for i := 0; i < 3; i++ {
			edge := n[i] + wst[i] + e[i] + s[i] - 4*c[i]
			out[i] = c[i]*colorAmount - edge*edgeAmount
		}
		return out
	})
}

func noise(x, y float64) float64 {
	v := math.Sin(x*12.9898+y*78.233) * 43758.5453
	return v - math.Floor(v)
}

func grain(dst *image.RGBA64, call DrawCall) error {
	src, err := input(call, "textureSampler")
	if err != nil {
		return err
	}
	intensity := floatOr(call, "intensity", 30)
	seed := floatOr(call, "animatedSeed", 0)
	return shade(dst, func(u, v float64) rgba {
		c := sample(src, u, v)
		g := (noise(u+seed, v+seed)*2 - 1) * intensity / 255
		amount := 1 - clamp01(luminance(c))
		for i := 0; i < 3; i++ {
			c[i] += g * amount
		}
		return c
	})
}

func chromaticAberration(dst *image.RGBA64, call DrawCall) error {
	src, err := input(call, "textureSampler")
	if err != nil {
		return err
	}
	w, h, err := float2(call, "screenSize")
	if err != nil {
		return err
	}
	amount := floatOr(call, "chromaticAberration", 30)
	radial := floatOr(call, "radialIntensity", 0)
	dx, dy, _ := call.Bindings.Float2("direction")
	cx, cy, ok := call.Bindings.Float2("centerPosition")
	if !ok {
		cx, cy = 0.5, 0.5
	}
	return shade(dst, func(u, v float64) rgba {
		ox, oy := u-float64(cx), v-float64(cy)
		ddx, ddy := float64(dx), float64(dy)
		if ddx == 0 && ddy == 0 {
			l := math.Hypot(ox+1e-6, oy)
			ddx, ddy = (ox+1e-6)/l, oy/l
		}
		scale := amount * math.Pow(math.Hypot(ox, oy), radial)
		offU, offV := ddx*scale/w, ddy*scale/h
		c := sample(src, u, v)
		c[0] = sample(src, u+offU, v+offV)[0]
		c[2] = sample(src, u-offU, v-offV)[2]
		return c
	})
}

const (
	fxaaEdgeThresholdMin = 0.0312
	fxaaEdgeThreshold    = 0.125
)

func fxaa(dst *image.RGBA64, call DrawCall) error {
	src, err := input(call, "textureSampler")
	if err != nil {
		return err
	}
	tx, ty, err := float2(call, "texelSize")
	if err != nil {
		return err
	}
	return shade(dst, func(u, v float64) rgba {
		c := sample(src, u, v)
		n := luminance(sample(src, u, v-ty))
		s := luminance(sample(src, u, v+ty))
		e := luminance(sample(src, u+tx, v))
		w := luminance(sample(src, u-tx, v))
		m := luminance(c)
		lo := min(m, n, s, e, w)
		hi := max(m, n, s, e, w)
		if hi-lo < max(fxaaEdgeThresholdMin, hi*fxaaEdgeThreshold) {
			return c
		}
		su, sv := tx, 0.0
		if math.Abs(n+s-2*m) >= math.Abs(e+w-2*m) {
			su, sv = 0, ty
		}
		a := sample(src, u+su*0.5, v+sv*0.5)
		b := sample(src, u-su*0.5, v-sv*0.5)
		var out rgba
		for i := range out {
			out[i] = (a[i] + b[i]) * 0.5
		}
		return out
	})
}

func tonemap(c float64, aces bool) float64 {
	if aces {
		return clamp01(c * (c*2.51 + 0.03) / (c*(c*2.43+0.59) + 0.14))
	}
	return 1 - math.Exp2(-1.590579*c)
}

func imageProcessing(dst *image.RGBA64, call DrawCall) error {
	src, err := input(call, "textureSampler")
	if err != nil {
		return err
	}
	d := call.Program.Defines()
	exposure := floatOr(call, "exposureLinear", 1)
	contrast := floatOr(call, "contrast", 1)
	weight := floatOr(call, "vignetteWeight", 1.5)
	stretch := floatOr(call, "vignetteStretch", 0)
	vcx, vcy, _ := call.Bindings.Float2("vignetteCenter")

	var vignette, neutral, positive, negative rgba
	if d.Has("VIGNETTE") {
		if vignette, err = float4(call, "vignetteColor"); err != nil {
			return err
		}
	}
	curves := d.Has("COLORCURVES")
	if curves {
		if neutral, err = float4(call, "colorCurveNeutral"); err != nil {
			return err
		}
		if positive, err = float4(call, "colorCurvePositive"); err != nil {
			return err
		}
		if negative, err = float4(call, "colorCurveNegative"); err != nil {
			return err
		}
	}

	return shade(dst, func(u, v float64) rgba {
		c := sample(src, u, v)
		if d.Has("EXPOSURE") {
			for i := 0; i < 3; i++ {
				c[i] *= exposure
			}
		}
		if d.Has("VIGNETTE") {
			x, y := (u-float64(vcx))*2, (v-float64(vcy))*2
			falloff := math.Pow(clamp01(1-(x*x+y*y)*stretch), weight)
			for i := 0; i < 3; i++ {
				c[i] = mix(vignette[i], c[i], falloff)
			}
		}
		if d.Has("TONEMAPPING") {
			aces := d.Has("TONEMAPPING_ACES")
			for i := 0; i < 3; i++ {
				c[i] = tonemap(c[i], aces)
			}
		}
		if d.Has("CONTRAST") {
			for i := 0; i < 3; i++ {
				if contrast < 1 {
					c[i] = mix(0.5, c[i], contrast)
				} else {
					c[i] = mix(c[i], c[i]*c[i]*(3-2*c[i]), contrast-1)
				}
			}
		}
		if curves {
			luma := luminance(c)
			up := clamp01(luma*3 - 1.5)
			down := clamp01(1.5 - luma*3)
			for i := 0; i < 3; i++ {
				k := neutral[i] + up*positive[i] - down*negative[i]
				sat := neutral[3] + up*positive[3] - down*negative[3]
				c[i] = mix(luma, c[i]*k, sat)
			}
		}
		if d.Has("GAMMA") {
			for i := 0; i < 3; i++ {
				c[i] = math.Pow(max(c[i], 0), 1/2.2)
			}
		}
		return c
	})
}
