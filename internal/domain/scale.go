package domain

import (
	"fmt"
	"image/color"
	"math"
)

// Scale maps a quantity onto a circle radius. Units depend on the rendering
// context: screen pixels for markers, meters for geographic circles.
type Scale struct {
	MinRadius float64
	MaxRadius float64
	Round     bool
}

var (
	// PixelScale sizes screen-space markers.
	PixelScale = Scale{MinRadius: 6, MaxRadius: 60, Round: true}

	// MeterScale sizes geographic map circles.
	MeterScale = Scale{MinRadius: 8000, MaxRadius: 600000, Round: true}
)

// Radius maps value to [MinRadius, MaxRadius] along a square-root curve, so
// circle area grows linearly with the value. A non-positive maxValue yields
// MinRadius. Values outside [0, maxValue] are clamped.
func (s Scale) Radius(value, maxValue float64) float64 {
	if maxValue <= 0 || math.IsNaN(value) {
		return s.MinRadius
	}
	t := clampUnit(value / maxValue)
	r := math.Sqrt(t)*(s.MaxRadius-s.MinRadius) + s.MinRadius
	if s.Round {
		r = math.Round(r)
	}
	return math.Max(s.MinRadius, r)
}

// Color is an HSL fill colour. Saturation and Lightness are percentages.
type Color struct {
	Hue        float64
	Saturation float64
	Lightness  float64
}

// DefaultColor is used when no maximum is known.
var DefaultColor = Color{Hue: 140, Saturation: 60, Lightness: 45}

// ColorFor interpolates intensity on a fixed green hue: lightness falls from 65%
// to 35% and saturation rises from 40% to 85% as value approaches maxValue.
func ColorFor(value, maxValue float64) Color {
	if maxValue <= 0 || math.IsNaN(value) {
		return DefaultColor
	}
	t := clampUnit(value / maxValue)
	return Color{
		Hue:        140,
		Saturation: 40 + 45*t,
		Lightness:  65 - 30*t,
	}
}

// String renders the colour in CSS Color 4 syntax, e.g. "hsl(140 60% 45%)".
func (c Color) String() string {
	return fmt.Sprintf("hsl(%s %s%% %s%%)", trimFloat(c.Hue), trimFloat(c.Saturation), trimFloat(c.Lightness))
}

// MarshalText encodes the colour as its CSS string.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// RGBA converts to an opaque sRGB colour for raster output.
func (c Color) RGBA() color.RGBA {
	h := math.Mod(c.Hue, 360) / 360
	s := c.Saturation / 100
	l := c.Lightness / 100
	if s == 0 {
		v := uint8(math.Round(l * 255))
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return color.RGBA{
		R: uint8(math.Round(hueToRGB(p, q, h+1.0/3) * 255)),
		G: uint8(math.Round(hueToRGB(p, q, h) * 255)),
		B: uint8(math.Round(hueToRGB(p, q, h-1.0/3) * 255)),
		A: 255,
	}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

func clampUnit(t float64) float64 {
	return math.Min(1, math.Max(0, t))
}

// trimFloat formats with up to two decimals and no trailing zeros.
func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
