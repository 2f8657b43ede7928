// Package texture defines the external texture-sampling contract.
// Nothing in this module decodes an image codec; Texture is the
// boundary a scene-loading layer implements (spec.md §6).
package texture

import "github.com/kazvorn/goray/internal/geom"

// AddressMode selects how out-of-[0,1] UV coordinates are handled.
type AddressMode uint8

const (
	Repeat AddressMode = iota
	Clamp
	Border
)

// FilterMode selects the reconstruction filter.
type FilterMode uint8

const (
	Nearest FilterMode = iota
	Bilinear
)

// SamplerDesc is the external, per-sample filtering contract.
type SamplerDesc struct {
	AddressU, AddressV AddressMode
	Filter             FilterMode
	BorderColor        geom.Vec4
	ForceLinearSpace   bool
}

// DefaultSampler returns the bilinear-repeat sampler used when a
// material references a texture without an explicit SamplerDesc.
func DefaultSampler() SamplerDesc {
	return SamplerDesc{AddressU: Repeat, AddressV: Repeat, Filter: Bilinear}
}

// Texture is an opaque external image handle. Sample evaluates the
// texture at uv under the given sampler and returns an RGBA value.
type Texture interface {
	Sample(uv geom.Vec2, sampler SamplerDesc) geom.Vec4
}
