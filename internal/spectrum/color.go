// Package spectrum implements the hero-wavelength spectral color carrier
// and its conversion to/from RGB, per spec.md §3 ("Color (spectral carrier)").
package spectrum

import (
	"fmt"
	"math"

	"github.com/kazvorn/goray/internal/geom"
)

const lanes = geom.LaneCount

// Color is an 8-lane spectral sample: one radiance value per hero
// wavelength lane, matching the original's Color::value layout.
type Color struct {
	Value geom.Vec8
}

// Zero returns the zero-radiance color.
func Zero() Color { return Color{} }

// One returns a color with every lane at 1.0, the BSDF-weight identity.
func One() Color { return Color{Value: geom.Splat8(1)} }

// FromScalar returns a color with every lane set to v.
func FromScalar(v float32) Color { return Color{Value: geom.Splat8(v)} }

// Add returns the lane-wise sum.
func (c Color) Add(o Color) Color { return Color{c.Value.Add(o.Value)} }

// Mul returns the lane-wise (Hadamard) product, used when multiplying
// radiance by a BSDF/throughput color.
func (c Color) Mul(o Color) Color { return Color{c.Value.Mul(o.Value)} }

// Scale multiplies every lane by a scalar.
func (c Color) Scale(s float32) Color { return Color{c.Value.Scale(s)} }

// Max returns the largest lane value, used as the Russian-roulette
// survival probability (throughput.Max() in spec.md §4.6).
func (c Color) Max() float32 {
	m := c.Value[0]
	for _, v := range c.Value[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// AlmostZero reports whether every lane is within eps of zero.
func (c Color) AlmostZero() bool {
	const eps = 1e-7
	for _, v := range c.Value {
		if geom.Abs32(v) > eps {
			return false
		}
	}
	return true
}

// Validate reports whether every lane is finite and non-negative, the
// spectral-non-negativity invariant from spec.md §8.
func (c Color) Validate() bool {
	for _, v := range c.Value {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) || v < 0 {
			return false
		}
	}
	return true
}

func (c Color) String() string {
	return fmt.Sprintf("Color%v", c.Value)
}

// RGB is a display/emission-parameter color; materials are authored in
// RGB and promoted into the spectral domain via SampleRGB.
type RGB struct {
	R, G, B float32
}

// wavelengthToRGBWeight is a coarse analytic RGB color-matching
// approximation (sums of two-sided Gaussian lobes per red/green/blue channel).
// It is not meant to be colorimetrically exact, only to give each hero
// wavelength lane a physically plausible RGB contribution so that a
// full hero-wavelength sample reconstructs back to roughly the
// original RGB after averaging lanes.
func wavelengthToRGBWeight(nm float32) RGB {
	gauss := func(x, mu, sigma1, sigma2 float32) float32 {
		var sigma float32
		if x < mu {
			sigma = sigma1
		} else {
			sigma = sigma2
		}
		t := (x - mu) / sigma
		return float32(math.Exp(-0.5 * float64(t*t)))
	}
	r := 1.056*gauss(nm, 599.8, 37.9, 31.0) + 0.362*gauss(nm, 442.0, 16.0, 26.7) - 0.065*gauss(nm, 501.1, 20.4, 26.2)
	g := 0.821*gauss(nm, 568.8, 46.9, 40.5) + 0.286*gauss(nm, 530.9, 16.3, 31.1)
	b := 1.217*gauss(nm, 437.0, 11.8, 36.0) + 0.681*gauss(nm, 459.0, 26.0, 13.8)
	return RGB{R: geom.Clamp(r, 0, 4), G: geom.Clamp(g, 0, 4), B: geom.Clamp(b, 0, 4)}
}

// SampleRGB evaluates an RGB parameter at each lane of wl's
// wavelengths and returns the resulting spectral color, scaled so that
// averaging all 8 lanes approximately reproduces rgb.
func SampleRGB(wl Wavelength, rgb RGB) Color {
	var c Color
	for i, nm := range wl.Nm {
		w := wavelengthToRGBWeight(nm)
		norm := w.R + w.G + w.B
		if norm < 1e-6 {
			continue
		}
		// Project the RGB triple onto this wavelength's relative
		// contribution so energy is conserved across the 8 lanes.
		c.Value[i] = (rgb.R*w.R + rgb.G*w.G + rgb.B*w.B) / norm
	}
	return c
}

// ToRGB converts a spectral sample back to RGB by averaging the
// contribution of each lane's wavelength.
func (c Color) ToRGB(wl Wavelength) RGB {
	var sum RGB
	var weight float32
	for i, nm := range wl.Nm {
		w := wavelengthToRGBWeight(nm)
		norm := w.R + w.G + w.B
		if norm < 1e-6 {
			continue
		}
		sum.R += c.Value[i] * w.R / norm
		sum.G += c.Value[i] * w.G / norm
		sum.B += c.Value[i] * w.B / norm
		weight++
	}
	if weight == 0 {
		return RGB{}
	}
	return RGB{R: sum.R / weight, G: sum.G / weight, B: sum.B / weight}
}
