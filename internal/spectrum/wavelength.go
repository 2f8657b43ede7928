package spectrum

import "github.com/kazvorn/goray/internal/geom"

// MinNm and MaxNm bound the visible range a hero-wavelength sample is
// drawn from, per spec.md §3.
const (
	MinNm = 380.0
	MaxNm = 720.0
)

// Wavelength carries 8 wavelengths (in nanometers) and a flag marking
// whether a dispersive event has collapsed the sample down to a single
// active lane (the "hero" wavelength).
type Wavelength struct {
	Nm       [geom.LaneCount]float32
	IsSingle bool
}

// NewHeroWavelength draws one hero wavelength uniformly in
// [MinNm, MaxNm] and fills the remaining 7 lanes evenly spaced after
// it, wrapping around the range. This is the same "equidistant comb
// around one random hero sample" strategy used by hero-wavelength
// spectral renderers to decorrelate the lanes while keeping one
// importance-sampled degree of freedom.
func NewHeroWavelength(u float32) Wavelength {
	const span = MaxNm - MinNm
	const step = span / geom.LaneCount

	hero := MinNm + u*span
	var wl Wavelength
	for i := 0; i < geom.LaneCount; i++ {
		nm := hero + float32(i)*step
		for nm >= MaxNm {
			nm -= span
		}
		wl.Nm[i] = nm
	}
	return wl
}

// CollapseToHero collapses the sample to lane 0 only, used when a
// dispersive BSDF event fires (spec.md §4.5 "Dispersion").
func (wl Wavelength) CollapseToHero() Wavelength {
	out := wl
	out.IsSingle = true
	return out
}

// SingleWavelengthFallback returns a one-lane-nonzero color of
// magnitude geom.LaneCount so that, after the usual 1/N lane averaging
// used elsewhere, the single surviving lane still carries full energy.
func SingleWavelengthFallback() Color {
	var c Color
	c.Value[0] = geom.LaneCount
	return c
}
