package material

import (
	"testing"

	"github.com/kazvorn/goray/internal/geom"
	"github.com/kazvorn/goray/internal/spectrum"
)

type fixedRNG struct {
	floats []float32
	i      int
}

func (r *fixedRNG) Float() float32 {
	v := r.floats[r.i%len(r.floats)]
	r.i++
	return v
}
func (r *fixedRNG) Float2() (float32, float32) { return r.Float(), r.Float() }
func (r *fixedRNG) CosineSampleHemisphere() (geom.Vec3, float32) {
	return geom.Vec3{0, 0, 1}, invPi
}

func shadingDataFacingUp() *ShadingData {
	s := &ShadingData{
		Position:      geom.Vec3{0, 0, 0},
		Normal:        geom.Vec3{0, 0, 1},
		OutgoingWorld: geom.Vec3{0, 0, 1},
		UV:            geom.Vec2{0, 0},
	}
	s.Tangent, s.Bitangent = geom.OrthonormalBasis(s.Normal)
	s.OutgoingLocal = s.ToLocal(s.OutgoingWorld)
	s.BaseColor = spectrum.RGB{R: 0.8, G: 0.8, B: 0.8}
	return s
}

func TestDiffuseSampleProducesValidColorAndPdf(t *testing.T) {
	m := Default()
	m.Compile()
	s := shadingDataFacingUp()
	wl := spectrum.Wavelength{Nm: [8]float32{500, 500, 500, 500, 500, 500, 500, 500}}

	rng := &fixedRNG{floats: []float32{0.0}} // forces the diffuse branch (u < diffuseWeight)
	color, dir, pdf, event := m.Sample(&wl, s, rng)

	if event != DiffuseReflectionEvent {
		t.Fatalf("expected a diffuse reflection event, got %v", event)
	}
	if pdf <= 0 {
		t.Fatalf("expected positive pdf, got %v", pdf)
	}
	if !color.Validate() {
		t.Fatalf("expected a valid (non-negative, finite) color")
	}
	if dir[2] < 0 {
		t.Fatalf("expected sampled direction to stay in the upper hemisphere, got %v", dir)
	}
}

func TestSpecularReflectionIsDeltaEvent(t *testing.T) {
	m := Default()
	m.Metalness = 1
	m.Compile()
	s := shadingDataFacingUp()
	wl := spectrum.Wavelength{Nm: [8]float32{500, 500, 500, 500, 500, 500, 500, 500}}

	rng := &fixedRNG{floats: []float32{0.999}} // pushes past diffuse+glossy into specular
	_, _, pdf, event := m.Sample(&wl, s, rng)

	if !event.IsDelta() {
		t.Fatalf("expected a delta event from the specular branch, got %v", event)
	}
	if pdf != 1 {
		t.Fatalf("expected delta lobes to report pdf=1, got %v", pdf)
	}
}

func TestEvaluateReturnsZeroBelowHorizon(t *testing.T) {
	m := Default()
	m.Compile()
	s := shadingDataFacingUp()
	wl := spectrum.Wavelength{Nm: [8]float32{500, 500, 500, 500, 500, 500, 500, 500}}

	color, pdf := m.Evaluate(wl, s, geom.Vec3{0, 0, -1})
	if !color.AlmostZero() || pdf != 0 {
		t.Fatalf("expected zero contribution for a below-horizon incoming direction")
	}
}

func TestDispersiveTransmissionCollapsesWavelength(t *testing.T) {
	m := Default()
	m.Transparent = true
	m.IsDispersive = true
	m.Dispersion = DispersionParams{B: [3]float32{1.03961212, 0.231792344, 1.01046945}, C: [3]float32{0.00600069867, 0.0200179144, 103.560653}}
	m.Compile()

	s := shadingDataFacingUp()
	wl := spectrum.Wavelength{Nm: [8]float32{400, 450, 500, 550, 600, 650, 700, 720}}
	rng := &fixedRNG{floats: []float32{0.5, 0.5}}

	_, _, _, event := m.Sample(&wl, s, rng)
	if event != SpecularRefractionEvent {
		t.Fatalf("expected a specular refraction event, got %v", event)
	}
	if !wl.IsSingle {
		t.Fatalf("expected dispersive transmission to collapse the wavelength to the hero lane")
	}
}
