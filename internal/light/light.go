// Package light implements the abstract light record and its four
// concrete kinds (point, area, directional, background), per spec.md
// §3 ("Light") and grounded on
// _examples/original_source/RaytracerLib/Scene/Light/*.{h,cpp}.
//
// Rather than the original's ILight vtable, every kind lives behind
// one tagged Light struct with a Kind discriminant (spec.md §9's
// "tagged variants enumerated at the component boundary" redesign
// note), so the integrator's hot path switches on a small enum
// instead of calling through an interface.
package light

import (
	"github.com/kazvorn/goray/internal/geom"
	"github.com/kazvorn/goray/internal/mesh"
	"github.com/kazvorn/goray/internal/spectrum"
)

// Kind discriminates the concrete light behind a Light value.
type Kind uint8

const (
	KindPoint Kind = iota
	KindArea
	KindDirectional
	KindBackground
)

// Random is the minimal sampling surface Illuminate needs.
type Random interface {
	Float2() (float32, float32)
}

// Light is a tagged union over the four concrete kinds this module
// supports. Only the fields relevant to Kind are meaningful.
type Light struct {
	Kind Kind

	Color spectrum.RGB

	// Point
	Position geom.Vec3

	// Area (parallelogram by default; Triangle narrows it to one
	// triangle of that parallelogram, matching AreaLight's isTriangle flag)
	P0, Edge0, Edge1 geom.Vec3
	Triangle         bool

	// Directional
	Direction geom.Vec3

	area struct {
		normal  geom.Vec3
		invArea float32
	}
}

// NewPoint builds a point (delta) light, grounded on PointLight.cpp.
func NewPoint(position geom.Vec3, color spectrum.RGB) Light {
	return Light{Kind: KindPoint, Position: position, Color: color}
}

// NewDirectional builds a directional (delta) light shining along dir,
// grounded on DirectionalLight.cpp.
func NewDirectional(dir geom.Vec3, color spectrum.RGB) Light {
	return Light{Kind: KindDirectional, Direction: dir.Normalize(), Color: color}
}

// NewBackground builds an infinite environment light with constant
// radiance, grounded on BackgroundLight.h's simplest (non-textured)
// mode.
func NewBackground(color spectrum.RGB) Light {
	return Light{Kind: KindBackground, Color: color}
}

// NewArea builds a finite-extent parallelogram (or, with triangle=true,
// a single triangle) area light from one corner and two edge vectors,
// grounded on AreaLight.cpp.
func NewArea(p0, edge0, edge1 geom.Vec3, color spectrum.RGB, triangle bool) Light {
	l := Light{Kind: KindArea, P0: p0, Edge0: edge0, Edge1: edge1, Color: color, Triangle: triangle}
	cross := edge1.Cross(edge0)
	l.area.normal = cross.Normalize()
	surfaceArea := cross.Len()
	if triangle {
		surfaceArea *= 0.5
	}
	if surfaceArea > 0 {
		l.area.invArea = 1 / surfaceArea
	}
	return l
}

// IsFinite reports whether the light has finite extent (point, area)
// as opposed to infinite extent (directional, background).
func (l Light) IsFinite() bool {
	return l.Kind == KindPoint || l.Kind == KindArea
}

// IsDelta reports whether the light is only reachable by explicit
// sampling, never by a BSDF ray hitting its surface.
func (l Light) IsDelta() bool {
	return l.Kind == KindPoint || l.Kind == KindDirectional
}

// BoundingBox returns the light's world-space bounding box, empty for
// the two infinite-extent kinds.
func (l Light) BoundingBox() geom.Box {
	switch l.Kind {
	case KindPoint:
		return geom.Box{Min: l.Position, Max: l.Position}
	case KindArea:
		b := geom.EmptyBox()
		b = geom.UnionPoint(b, l.P0)
		b = geom.UnionPoint(b, l.P0.Add(l.Edge0))
		b = geom.UnionPoint(b, l.P0.Add(l.Edge1))
		if !l.Triangle {
			b = geom.UnionPoint(b, l.P0.Add(l.Edge0).Add(l.Edge1))
		}
		return b
	default:
		return geom.EmptyBox()
	}
}

// TestRayHit reports whether a camera/BSDF ray directly hits the
// light's surface (only meaningful for the area kind; the other three
// are never hit directly, per IsDelta/background semantics).
func (l Light) TestRayHit(r geom.Ray, tMax float32) (dist float32, hit bool) {
	if l.Kind != KindArea {
		return 0, false
	}
	if h, ok := mesh.Intersect(r, mesh.ProcessedTriangle{V0: l.P0, Edge1: l.Edge0, Edge2: l.Edge1}, tMax); ok {
		return h.T, true
	}
	if !l.Triangle {
		opp := l.P0.Add(l.Edge0).Add(l.Edge1)
		if h, ok := mesh.Intersect(r, mesh.ProcessedTriangle{V0: opp, Edge1: l.Edge0.Mul(-1), Edge2: l.Edge1.Mul(-1)}, tMax); ok {
			return h.T, true
		}
	}
	return 0, false
}

// Illuminate samples a direction from shadingPoint towards the light,
// returning the direction, distance, unoccluded radiance, and the
// direct-lighting PDF in solid-angle measure, per spec.md §3's Light
// contract.
func (l Light) Illuminate(wl spectrum.Wavelength, shadingPoint geom.Vec3, rng Random) (dir geom.Vec3, dist float32, radiance spectrum.Color, pdfW float32) {
	switch l.Kind {
	case KindPoint:
		toLight := l.Position.Sub(shadingPoint)
		sqrDist := toLight.Dot(toLight)
		if sqrDist <= 0 {
			return geom.Vec3{}, 0, spectrum.Zero(), 0
		}
		dist = geom.Sqrtf(sqrDist)
		dir = toLight.Mul(1 / dist)
		pdfW = sqrDist
		radiance = spectrum.SampleRGB(wl, l.Color)
		return dir, dist, radiance, pdfW

	case KindDirectional:
		return l.Direction.Mul(-1), 1e8, spectrum.SampleRGB(wl, l.Color), 1

	case KindBackground:
		// Sampled as a distant uniform-sphere direction; callers that
		// want cosine-weighted environment sampling should prefer
		// BSDF sampling and rely on Radiance() at miss time instead.
		u1, u2 := rng.Float2()
		dir = geom.UniformSampleSphere(u1, u2)
		return dir, 1e8, spectrum.SampleRGB(wl, l.Color), geom.UniformSpherePdf()

	case KindArea:
		u1, u2 := rng.Float2()
		if l.Triangle {
			u1, u2 = geom.UniformSampleTriangle(u1, u2)
		}
		point := l.P0.Add(l.Edge0.Mul(u1)).Add(l.Edge1.Mul(u2))
		toLight := point.Sub(shadingPoint)
		sqrDist := toLight.Dot(toLight)
		if sqrDist <= 0 {
			return geom.Vec3{}, 0, spectrum.Zero(), 0
		}
		dist = geom.Sqrtf(sqrDist)
		dir = toLight.Mul(1 / dist)
		cosNormal := l.area.normal.Dot(dir.Mul(-1))
		if cosNormal < 1e-6 {
			return geom.Vec3{}, 0, spectrum.Zero(), 0
		}
		pdfW = l.area.invArea * sqrDist / cosNormal
		radiance = spectrum.SampleRGB(wl, l.Color)
		return dir, dist, radiance, pdfW
	}
	return geom.Vec3{}, 0, spectrum.Zero(), 0
}

// Radiance returns the light's emitted radiance towards a ray that hit
// it directly (area lights only) or missed the scene entirely
// (background light), plus the PDF of having sampled that point via
// Illuminate (area measure for area lights, solid angle for the
// background light), per spec.md §3's Light contract.
func (l Light) Radiance(wl spectrum.Wavelength, dir geom.Vec3, hitPoint geom.Vec3) (radiance spectrum.Color, pdfA float32) {
	switch l.Kind {
	case KindArea:
		cosNormal := l.area.normal.Dot(dir.Mul(-1))
		if cosNormal < 1e-6 {
			return spectrum.Zero(), 0
		}
		return spectrum.SampleRGB(wl, l.Color), l.area.invArea
	case KindBackground:
		return spectrum.SampleRGB(wl, l.Color), geom.UniformSpherePdf()
	default:
		return spectrum.Zero(), 0
	}
}

// EmissionRGB returns the light's authored color, used by callers that
// need the raw RGB rather than a wavelength-sampled spectral value
// (e.g. the background-miss fast path).
func (l Light) EmissionRGB() spectrum.RGB { return l.Color }
