package geom

import "math"

// Clamp restricts value between lo and hi. Grounded on
// voxelgame/pkg/math.Clamp, generalized from float64 to float32 since
// every hot-path quantity in the tracer is single precision.
func Clamp(value, lo, hi float32) float32 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// ClampInt restricts an integer value between lo and hi.
func ClampInt(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Smoothstep performs smooth Hermite interpolation between edge0 and edge1.
func Smoothstep(edge0, edge1, x float32) float32 {
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// PowerHeuristic combines two sampling techniques' PDFs with the
// beta=2 power heuristic, the standard MIS weighting function used by
// the path integrator's NEE/BSDF combination (spec.md §4.6).
func PowerHeuristic(nf int, fPdf float32, ng int, gPdf float32) float32 {
	f := float32(nf) * fPdf
	g := float32(ng) * gPdf
	if f+g == 0 {
		return 0
	}
	return (f * f) / (f*f + g*g)
}

// PdfAtoW converts an area-measure PDF to a solid-angle measure PDF
// given the distance to the surface and the cosine of the angle there.
func PdfAtoW(pdfA, dist, cosTheta float32) float32 {
	denom := float32(math.Abs(float64(cosTheta)))
	if denom < 1e-6 {
		return 0
	}
	return pdfA * dist * dist / denom
}

// Sqr returns x*x.
func Sqr(x float32) float32 { return x * x }

// Abs32 returns the absolute value of a float32.
func Abs32(x float32) float32 {
	return float32(math.Abs(float64(x)))
}

// Sqrtf returns the float32 square root of x, clamping negative input
// to zero so callers don't need a separate guard for rounding noise.
func Sqrtf(x float32) float32 {
	if x <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(x)))
}

// UniformSampleSphere maps two uniform [0,1) samples to a direction
// uniformly distributed over the unit sphere.
func UniformSampleSphere(u1, u2 float32) Vec3 {
	z := 1 - 2*u1
	r := Sqrtf(Clamp(1-z*z, 0, 1))
	phi := 2 * math.Pi * float64(u2)
	return Vec3{r * float32(math.Cos(phi)), r * float32(math.Sin(phi)), z}
}

// UniformSpherePdf is the constant solid-angle PDF of UniformSampleSphere.
func UniformSpherePdf() float32 {
	return 1 / (4 * float32(math.Pi))
}

// UniformSampleTriangle maps two uniform [0,1) samples to barycentric
// coordinates uniformly distributed over a triangle, the standard
// "folded square" construction.
func UniformSampleTriangle(u1, u2 float32) (b0, b1 float32) {
	su0 := Sqrtf(u1)
	return 1 - su0, u2 * su0
}
