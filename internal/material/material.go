// Package material implements the layered BSDF material model: a
// flat per-surface parameter record compiled into up to three BSDF
// lobes (diffuse, glossy, specular), per spec.md §3 ("Material") and
// §4.5.
package material

import (
	"math"

	"github.com/kazvorn/goray/internal/spectrum"
	"github.com/kazvorn/goray/internal/texture"
)

// EventType is a bitmask describing which BSDF lobe a Sample call
// produced, mirroring the original BSDF's EventType enum exactly.
type EventType uint32

const (
	NullEvent EventType = 0

	DiffuseReflectionEvent    EventType = 1 << 0
	DiffuseTransmissionEvent  EventType = 1 << 1
	GlossyReflectionEvent     EventType = 1 << 2
	GlossyRefractionEvent     EventType = 1 << 3
	SpecularReflectionEvent   EventType = 1 << 4
	SpecularRefractionEvent   EventType = 1 << 5

	DiffuseEvent     = DiffuseReflectionEvent | DiffuseTransmissionEvent
	GlossyEvent      = GlossyReflectionEvent | GlossyRefractionEvent
	SpecularEvent    = SpecularReflectionEvent | SpecularRefractionEvent
	ReflectiveEvent  = DiffuseReflectionEvent | GlossyReflectionEvent | SpecularReflectionEvent
	TransmissiveEvent = DiffuseTransmissionEvent | GlossyRefractionEvent | SpecularRefractionEvent
	AnyEvent         = DiffuseEvent | GlossyEvent | SpecularEvent
)

// IsDelta reports whether event is a specular (delta) lobe, which
// skips MIS on the following bounce (spec.md §4.6's lastSpecular).
func (e EventType) IsDelta() bool { return e&SpecularEvent != 0 }

// DispersionParams holds a three-term Sellmeier approximation's B/C
// coefficients, recovered from the original's DispersionParams.
type DispersionParams struct {
	B [3]float32
	C [3]float32
}

// IoR evaluates the Sellmeier equation at wavelength nm (nanometers),
// returning the dispersive index of refraction at that wavelength.
func (d DispersionParams) IoR(nm float32) float32 {
	lumSq := (nm / 1000) * (nm / 1000) // micrometers, squared
	n2 := float32(1)
	for i := 0; i < 3; i++ {
		n2 += d.B[i] * lumSq / (lumSq - d.C[i])
	}
	if n2 < 1 {
		return 1
	}
	return sqrt32(n2)
}

// Material is a flat record of authoring parameters, matching
// spec.md §3 "Material" plus the original's default values
// (Material.h): baseColor default (0.7,0.7,0.7), roughness 0.1,
// metalness 0, IoR 1.5, K 4.0.
type Material struct {
	DebugName string

	Emission  spectrum.RGB
	BaseColor spectrum.RGB
	Roughness float32
	Metalness float32
	IoR       float32
	K         float32 // conductor extinction coefficient

	Dispersion   DispersionParams
	IsDispersive bool
	Transparent  bool

	NormalMapStrength float32

	BaseColorTexture texture.Texture
	NormalTexture    texture.Texture
	MaskTexture      texture.Texture

	bsdf *layeredBSDF
}

// Default returns a Material with the original's default parameters.
func Default() Material {
	return Material{
		BaseColor:         spectrum.RGB{R: 0.7, G: 0.7, B: 0.7},
		Roughness:         0.1,
		Metalness:         0,
		IoR:               1.5,
		K:                 4.0,
		NormalMapStrength: 1,
	}
}

// Compile builds the material's internal BSDF lobes from its
// authoring parameters. It must be called once before Sample or
// Evaluate; materials are otherwise immutable after scene load
// (spec.md §3 "Lifetimes and ownership").
func (m *Material) Compile() {
	m.bsdf = newLayeredBSDF(m)
}

func sqrt32(x float32) float32 {
	if x <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(x)))
}
