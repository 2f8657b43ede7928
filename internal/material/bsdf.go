package material

import (
	"math"

	"github.com/kazvorn/goray/internal/geom"
	"github.com/kazvorn/goray/internal/spectrum"
)

const piF32 = float32(math.Pi)
const invPi = 1 / piF32

// Random is the minimal sampling surface a BSDF needs; renderctx.RNG
// satisfies it structurally so this package never imports renderctx.
type Random interface {
	Float() float32
	Float2() (float32, float32)
	CosineSampleHemisphere() (geom.Vec3, float32)
}

// layeredBSDF holds the compiled lobe-selection weights derived from
// a Material's authoring parameters at Compile() time.
type layeredBSDF struct {
	mat *Material

	// diffuseWeight, glossyWeight, and the implicit remainder
	// (1 - diffuseWeight - glossyWeight) are the three lobes'
	// selection probabilities, always summing to 1 for an opaque
	// material (0 for Transparent, which routes entirely to the
	// specular transmission lobe instead).
	diffuseWeight float32
	glossyWeight  float32
}

func newLayeredBSDF(m *Material) *layeredBSDF {
	if m.Transparent {
		return &layeredBSDF{mat: m}
	}

	// Fresnel-weighted split between diffuse and reflective (glossy +
	// specular) at normal incidence; metalness removes the diffuse
	// lobe entirely since a conductor has no subsurface term.
	f0 := fresnelDielectricF0(m.IoR)
	reflectProb := geom.Lerp(f0, 1, m.Metalness)
	diffuse := (1 - reflectProb) * (1 - m.Metalness)

	// The reflective mass splits between the glossy (GGX) lobe and the
	// mirror-like specular delta lobe by roughness: a perfectly smooth
	// surface samples the delta lobe, a rough one samples GGX.
	remaining := 1 - diffuse
	glossyFraction := geom.Clamp(m.Roughness*4, 0, 1)
	glossy := remaining * glossyFraction

	return &layeredBSDF{mat: m, diffuseWeight: diffuse, glossyWeight: glossy}
}

// Sample chooses exactly one BSDF lobe and returns its weight
// (color), the sampled world-space incoming direction, its PDF, and
// the event type fired, per spec.md §4.5. wl is mutated in place when
// a dispersive specular-transmission event collapses it to the hero
// wavelength.
func (m *Material) Sample(wl *spectrum.Wavelength, s *ShadingData, rng Random) (spectrum.Color, geom.Vec3, float32, EventType) {
	b := m.bsdf
	if s.OutgoingLocal[2] <= 0 {
		return spectrum.Zero(), geom.Vec3{}, 0, NullEvent
	}

	if m.Transparent {
		return b.sampleSpecularTransmission(wl, s, rng)
	}

	u := rng.Float()
	switch {
	case u < b.diffuseWeight:
		return b.sampleDiffuse(*wl, s, rng)
	case u < b.diffuseWeight+b.glossyWeight:
		return b.sampleGlossy(*wl, s, rng)
	default:
		return b.sampleSpecularReflection(*wl, s, rng)
	}
}

// Evaluate sums the BSDF value across non-delta lobes for an explicit
// incoming direction (used by NEE); delta lobes never contribute here
// since they are reachable only by sampling (spec.md §4.5).
func (m *Material) Evaluate(wl spectrum.Wavelength, s *ShadingData, incomingWorld geom.Vec3) (spectrum.Color, float32) {
	b := m.bsdf
	wi := s.ToLocal(incomingWorld)
	if wi[2] <= 0 || s.OutgoingLocal[2] <= 0 {
		return spectrum.Zero(), 0
	}

	diffuseColor, diffusePdf := b.evaluateDiffuse(wl, s, wi)
	glossyColor, glossyPdf := b.evaluateGlossy(wl, s, wi)

	color := diffuseColor.Scale(b.diffuseWeight).Add(glossyColor.Scale(b.glossyWeight))
	pdf := b.diffuseWeight*diffusePdf + b.glossyWeight*glossyPdf
	return color, pdf
}

// --- Diffuse (cosine-weighted Lambertian) ---
//
// The original's OrenNayarBSDF ships with its roughness-dependent A/B
// term commented out as dead code and a plain cosine-weighted
// Lambertian sample/evaluate in its place; this follows that same
// shipped behavior rather than the full microfacet diffuse model.

func (b *layeredBSDF) sampleDiffuse(wl spectrum.Wavelength, s *ShadingData, rng Random) (spectrum.Color, geom.Vec3, float32, EventType) {
	localDir, pdf := rng.CosineSampleHemisphere()
	if pdf <= 0 {
		return spectrum.Zero(), geom.Vec3{}, 0, NullEvent
	}
	color := spectrum.SampleRGB(wl, s.BaseColor).Scale(invPi * localDir[2])
	return color, s.ToWorld(localDir), pdf, DiffuseReflectionEvent
}

func (b *layeredBSDF) evaluateDiffuse(wl spectrum.Wavelength, s *ShadingData, wi geom.Vec3) (spectrum.Color, float32) {
	pdf := wi[2] * invPi
	color := spectrum.SampleRGB(wl, s.BaseColor).Scale(invPi * wi[2])
	return color, pdf
}

// --- Glossy (GGX + Smith G1) ---

func (b *layeredBSDF) sampleGlossy(wl spectrum.Wavelength, s *ShadingData, rng Random) (spectrum.Color, geom.Vec3, float32, EventType) {
	alpha := roughnessToAlpha(b.mat.Roughness)
	u1, u2 := rng.Float2()
	h := sampleGGXVisibleNormal(s.OutgoingLocal, alpha, u1, u2)

	wo := s.OutgoingLocal
	wi := reflect(wo, h)
	if wi[2] <= 0 {
		return spectrum.Zero(), geom.Vec3{}, 0, NullEvent
	}

	color, pdf := b.evaluateGlossy(wl, s, wi)
	if pdf <= 0 {
		return spectrum.Zero(), geom.Vec3{}, 0, NullEvent
	}
	return color, s.ToWorld(wi), pdf, GlossyReflectionEvent
}

func (b *layeredBSDF) evaluateGlossy(wl spectrum.Wavelength, s *ShadingData, wi geom.Vec3) (spectrum.Color, float32) {
	wo := s.OutgoingLocal
	h := wo.Add(wi).Normalize()
	if h[2] <= 0 {
		return spectrum.Zero(), 0
	}

	alpha := roughnessToAlpha(b.mat.Roughness)
	d := ggxD(h, alpha)
	g := smithG1(wo, alpha) * smithG1(wi, alpha)

	cosO := wo[2]
	cosI := wi[2]
	if cosO <= 0 || cosI <= 0 {
		return spectrum.Zero(), 0
	}

	cosHO := wo.Dot(h)
	fr := fresnel(b.mat, cosHO)

	denom := 4 * cosO * cosI
	value := fr.Scale(d * g / denom)

	pdfH := d * h[2]
	pdf := pdfH / (4 * cosHO)
	if pdf < 0 {
		pdf = 0
	}
	return value, pdf
}

// --- Specular (delta lobes) ---

func (b *layeredBSDF) sampleSpecularReflection(wl spectrum.Wavelength, s *ShadingData, rng Random) (spectrum.Color, geom.Vec3, float32, EventType) {
	wo := s.OutgoingLocal
	wi := geom.Vec3{-wo[0], -wo[1], wo[2]}
	fr := fresnel(b.mat, wo[2])
	color := fr.Scale(1 / wi[2])
	return color, s.ToWorld(wi), 1, SpecularReflectionEvent
}

func (b *layeredBSDF) sampleSpecularTransmission(wl *spectrum.Wavelength, s *ShadingData, rng Random) (spectrum.Color, geom.Vec3, float32, EventType) {
	wo := s.OutgoingLocal
	ior := b.mat.IoR
	if b.mat.IsDispersive {
		ior = b.mat.Dispersion.IoR(wl.Nm[0])
	}

	entering := wo[2] > 0
	eta := 1 / ior
	n := geom.Vec3{0, 0, 1}
	if !entering {
		eta = ior
		n = geom.Vec3{0, 0, -1}
	}

	wt, ok := refract(wo, n, eta)
	if !ok {
		// Total internal reflection: fall back to specular reflection.
		return b.sampleSpecularReflection(*wl, s, rng)
	}

	color := spectrum.One().Scale(1 / geom.Abs32(wt[2]))
	if b.mat.IsDispersive {
		*wl = wl.CollapseToHero()
		color = spectrum.SingleWavelengthFallback()
	}
	return color, s.ToWorld(wt), 1, SpecularRefractionEvent
}

// --- Fresnel / GGX helpers ---

func fresnelDielectricF0(ior float32) float32 {
	r0 := (ior - 1) / (ior + 1)
	return r0 * r0
}

func fresnel(m *Material, cosTheta float32) spectrum.Color {
	cosTheta = geom.Clamp(geom.Abs32(cosTheta), 0, 1)
	if m.Metalness > 0 {
		return fresnelConductor(m.IoR, m.K, cosTheta)
	}
	f0 := fresnelDielectricF0(m.IoR)
	schlick := f0 + (1-f0)*pow5(1-cosTheta)
	return spectrum.FromScalar(schlick)
}

func fresnelConductor(ior, k, cosTheta float32) spectrum.Color {
	cos2 := cosTheta * cosTheta
	sin2 := 1 - cos2
	n2 := ior * ior
	k2 := k * k

	t0 := n2 - k2 - sin2
	a2plusb2 := sqrt32safe(t0*t0 + 4*n2*k2)
	t1 := a2plusb2 + cos2
	a := sqrt32safe(0.5 * (a2plusb2 + t0))
	t2 := 2 * a * cosTheta
	rs := (t1 - t2) / (t1 + t2)

	t3 := cos2*a2plusb2 + sin2*sin2
	t4 := t2 * sin2
	rp := rs * (t3 - t4) / (t3 + t4)

	return spectrum.FromScalar(0.5 * (rs + rp))
}

func sqrt32safe(x float32) float32 {
	if x < 0 {
		return 0
	}
	return float32(math.Sqrt(float64(x)))
}

func pow5(x float32) float32 {
	x2 := x * x
	return x2 * x2 * x
}

func roughnessToAlpha(roughness float32) float32 {
	a := geom.Clamp(roughness, 0.01, 1)
	return a * a
}

// ggxD evaluates the GGX normal distribution function at the local
// half-vector h.
func ggxD(h geom.Vec3, alpha float32) float32 {
	cos2 := h[2] * h[2]
	a2 := alpha * alpha
	denom := cos2*(a2-1) + 1
	return a2 / (piF32 * denom * denom)
}

// smithG1 evaluates the Smith masking/shadowing term for direction v.
func smithG1(v geom.Vec3, alpha float32) float32 {
	cos := v[2]
	if cos <= 0 {
		return 0
	}
	a2 := alpha * alpha
	tan2 := (1 - cos*cos) / (cos * cos)
	return 2 / (1 + sqrt32safe(1+a2*tan2))
}

// sampleGGXVisibleNormal draws a microfacet normal from the GGX
// visible-normal distribution (Heitz 2018), collapsing towards the
// macro normal (mirror reflection) when alpha is near zero.
func sampleGGXVisibleNormal(wo geom.Vec3, alpha, u1, u2 float32) geom.Vec3 {
	vh := geom.Vec3{alpha * wo[0], alpha * wo[1], wo[2]}.Normalize()

	lensq := vh[0]*vh[0] + vh[1]*vh[1]
	var t1 geom.Vec3
	if lensq > 0 {
		invLen := 1 / sqrt32safe(lensq)
		t1 = geom.Vec3{-vh[1] * invLen, vh[0] * invLen, 0}
	} else {
		t1 = geom.Vec3{1, 0, 0}
	}
	t2 := vh.Cross(t1)

	r := sqrt32safe(u1)
	phi := 2 * piF32 * u2
	p1 := r * float32(math.Cos(float64(phi)))
	p2 := r * float32(math.Sin(float64(phi)))
	s := 0.5 * (1 + vh[2])
	p2 = (1-s)*sqrt32safe(1-p1*p1) + s*p2

	nh := t1.Mul(p1).Add(t2.Mul(p2)).Add(vh.Mul(sqrt32safe(geom.Abs32(1 - p1*p1 - p2*p2))))
	h := geom.Vec3{alpha * nh[0], alpha * nh[1], geom.Clamp(nh[2], 1e-6, 1)}.Normalize()
	return h
}

func reflect(v, n geom.Vec3) geom.Vec3 {
	return n.Mul(2 * v.Dot(n)).Sub(v)
}

// refract computes the refracted direction of v about n with relative
// index eta = iorIncident/iorTransmitted, reporting false on total
// internal reflection.
func refract(v, n geom.Vec3, eta float32) (geom.Vec3, bool) {
	cosI := v.Dot(n)
	sin2T := eta * eta * (1 - cosI*cosI)
	if sin2T >= 1 {
		return geom.Vec3{}, false
	}
	cosT := sqrt32safe(1 - sin2T)
	return n.Mul(eta*cosI - cosT).Sub(v.Mul(eta)), true
}
