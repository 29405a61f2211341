package scene

import "github.com/chewxy/math32"

// CurveAdjustment grades one tonal range.
//
// Hue is in degrees [0, 360]. Density, Saturation and Exposure are in
// [-100, 100]; zero leaves the range unchanged. A negative density tints
// toward the complementary hue.
type CurveAdjustment struct {
	Hue        float32
	Density    float32
	Saturation float32
	Exposure   float32
}

// ColorCurves grades shadows, midtones and highlights separately, on top of
// a global adjustment.
type ColorCurves struct {
	Global     CurveAdjustment
	Highlights CurveAdjustment
	Midtones   CurveAdjustment
	Shadows    CurveAdjustment
}

// DefaultColorCurves returns neutral curves.
func DefaultColorCurves() ColorCurves {
	neutral := CurveAdjustment{Hue: 30}
	return ColorCurves{Global: neutral, Highlights: neutral, Midtones: neutral, Shadows: neutral}
}

// Uniforms returns the neutral, positive and negative curve terms. A
// pixel of luminance l is scaled by
//
//	neutral + clamp(3l-1.5, 0, 1)*positive - clamp(1.5-3l, 0, 1)*negative
//
// and the alpha component of the result is its saturation factor.
func (c ColorCurves) Uniforms() (neutral, positive, negative [4]float32) {
	global := c.Global.grading()
	highlights := c.Highlights.grading()
	midtones := c.Midtones.grading()
	shadows := c.Shadows.grading()
	for i := range neutral {
		neutral[i] = midtones[i] * global[i]
		positive[i] = (highlights[i] - midtones[i]) * global[i]
		negative[i] = (midtones[i] - shadows[i]) * global[i]
	}
	return neutral, positive, negative
}

// grading maps the adjustment to a color multiplier and saturation factor.
func (a CurveAdjustment) grading() [4]float32 {
	hue := clamp(a.Hue, 0, 360)
	density := sliderNonlinear(clamp(a.Density, -100, 100)) * 0.5
	saturation := clamp(a.Saturation, -100, 100)
	exposure := sliderNonlinear(clamp(a.Exposure, -100, 100))
	if density < 0 {
		density = -density
		hue = math32.Mod(hue+180, 360)
	}
	r, g, b := hsb(hue, density, 50+0.25*exposure)
	return [4]float32{r * 2, g * 2, b * 2, 1 + 0.01*saturation}
}

// sliderNonlinear squares a slider value, keeping its sign, so small
// values give finer control.
func sliderNonlinear(v float32) float32 {
	x := v / 100
	x *= x
	if v < 0 {
		x = -x
	}
	return x * 100
}

// hsb converts hue in degrees and saturation and brightness in [0, 100] to
// RGB in [0, 1].
func hsb(hue, saturation, brightness float32) (r, g, b float32) {
	h := clamp(hue, 0, 360)
	s := clamp(saturation/100, 0, 1)
	v := clamp(brightness/100, 0, 1)
	if s == 0 {
		return v, v, v
	}
	h /= 60
	i := math32.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
