package material

import (
	"github.com/kazvorn/goray/internal/geom"
	"github.com/kazvorn/goray/internal/spectrum"
	"github.com/kazvorn/goray/internal/texture"
)

// ShadingData is the record built at a ray/surface hit before any
// BSDF call: position, orthonormal tangent frame, UV, and the
// world/local outgoing direction, per spec.md §3 "ShadingData".
type ShadingData struct {
	Position geom.Vec3

	Tangent   geom.Vec3
	Bitangent geom.Vec3
	Normal    geom.Vec3

	UV geom.Vec2

	OutgoingWorld geom.Vec3
	OutgoingLocal geom.Vec3

	Material  *Material
	BaseColor spectrum.RGB
}

// ToLocal projects a world-space direction into the shading frame
// (z = normal).
func (s *ShadingData) ToLocal(v geom.Vec3) geom.Vec3 {
	return geom.Vec3{v.Dot(s.Tangent), v.Dot(s.Bitangent), v.Dot(s.Normal)}
}

// ToWorld lifts a local-frame direction back to world space.
func (s *ShadingData) ToWorld(v geom.Vec3) geom.Vec3 {
	return s.Tangent.Mul(v[0]).Add(s.Bitangent.Mul(v[1])).Add(s.Normal.Mul(v[2]))
}

// EvaluateShadingData finishes filling in a ShadingData after
// geometric hit data (position, UV, interpolated normal) has been
// written by the caller: it orthonormalizes the tangent frame against
// the (possibly normal-mapped) normal and resolves the base color at
// this UV, per spec.md §4.5's "local frame" paragraph.
func (m *Material) EvaluateShadingData(s *ShadingData) {
	n := s.Normal.Normalize()

	if m.NormalTexture != nil {
		sampler := texture.DefaultSampler()
		tex := m.NormalTexture.Sample(s.UV, sampler)
		perturb := geom.Vec3{tex[0]*2 - 1, tex[1]*2 - 1, tex[2]*2 - 1}
		t, b := geom.OrthonormalBasis(n)
		worldPerturb := t.Mul(perturb[0] * m.NormalMapStrength).
			Add(b.Mul(perturb[1] * m.NormalMapStrength)).
			Add(n.Mul(perturb[2]))
		n = worldPerturb.Normalize()
	}

	t, b := geom.OrthonormalBasis(n)
	s.Tangent = t
	s.Bitangent = b
	s.Normal = n
	s.OutgoingLocal = s.ToLocal(s.OutgoingWorld)

	s.BaseColor = m.BaseColor
	if m.BaseColorTexture != nil {
		sampler := texture.DefaultSampler()
		tex := m.BaseColorTexture.Sample(s.UV, sampler)
		s.BaseColor = spectrum.RGB{R: tex[0] * m.BaseColor.R, G: tex[1] * m.BaseColor.G, B: tex[2] * m.BaseColor.B}
	}
	s.Material = m
}

// GetMaskValue returns the material's alpha/mask texture value at uv,
// or 1 (fully opaque) when no mask texture is set.
func (m *Material) GetMaskValue(uv geom.Vec2) float32 {
	if m.MaskTexture == nil {
		return 1
	}
	tex := m.MaskTexture.Sample(uv, texture.DefaultSampler())
	return tex[0]
}
