package camera

import (
	"testing"

	"github.com/kazvorn/goray/internal/geom"
)

type zeroRNG struct{}

func (zeroRNG) Float2() (float32, float32) { return 0.5, 0.5 }

func TestNewOrthonormalBasis(t *testing.T) {
	c := New(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, -1}, geom.Vec3{0, 1, 0}, 60, 1)

	if d := c.Forward.Dot(c.Right); d > 1e-5 || d < -1e-5 {
		t.Fatalf("forward/right should be orthogonal, dot=%v", d)
	}
	if d := c.Forward.Dot(c.Up); d > 1e-5 || d < -1e-5 {
		t.Fatalf("forward/up should be orthogonal, dot=%v", d)
	}
	if l := c.Forward.Len(); l < 0.99 || l > 1.01 {
		t.Fatalf("forward should be unit length, got %v", l)
	}
}

func TestGenerateRayCenterMatchesForward(t *testing.T) {
	c := New(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, -1}, geom.Vec3{0, 1, 0}, 60, 1)
	r := c.GenerateRay(geom.Vec2{0, 0}, zeroRNG{})

	dir := r.Dir.Normalize()
	if d := dir.Dot(c.Forward); d < 0.999 {
		t.Fatalf("a ray through NDC center should point straight down forward, dot=%v", d)
	}
}

func TestGenerateRayOffCenterDiverges(t *testing.T) {
	c := New(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, -1}, geom.Vec3{0, 1, 0}, 90, 1)
	center := c.GenerateRay(geom.Vec2{0, 0}, zeroRNG{}).Dir.Normalize()
	corner := c.GenerateRay(geom.Vec2{1, 1}, zeroRNG{}).Dir.Normalize()

	if center == corner {
		t.Fatalf("a corner ray should diverge from the center ray")
	}
}

func TestGenerateRay8FillsAllLanes(t *testing.T) {
	c := New(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, -1}, geom.Vec3{0, 1, 0}, 60, 1)
	var ndc8 [geom.LaneCount]geom.Vec2
	for i := range ndc8 {
		ndc8[i] = geom.Vec2{0, 0}
	}
	r8 := c.GenerateRay8(ndc8, zeroRNG{})
	if r8.Ray(0).Dir != r8.Ray(geom.LaneCount-1).Dir {
		t.Fatalf("identical NDC inputs should produce identical ray directions across lanes")
	}
}

func TestDepthOfFieldJittersOrigin(t *testing.T) {
	c := New(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, -1}, geom.Vec3{0, 1, 0}, 60, 1)
	c.LensRadius = 0.5
	c.FocusDistance = 2

	r1 := c.GenerateRay(geom.Vec2{0, 0}, fixedDisk{0.2, 0.8})
	r2 := c.GenerateRay(geom.Vec2{0, 0}, fixedDisk{0.8, 0.2})

	if r1.Origin == r2.Origin {
		t.Fatalf("different lens samples should produce different ray origins")
	}
}

type fixedDisk struct{ u1, u2 float32 }

func (f fixedDisk) Float2() (float32, float32) { return f.u1, f.u2 }
