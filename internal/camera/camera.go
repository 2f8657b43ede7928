// Package camera implements the external camera contract spec.md §6
// names (GenerateRay/GenerateRay8), a thin-lens pinhole camera with
// optional barrel distortion. The basis vectors are built from the
// forward direction and world up with cross products, grounded on the teacher's FPS Camera.updateVectors (the original
// voxel game's orientation logic), generalized here from a gameplay
// look-vector into a full image-plane ray generator.
package camera

import (
	"math"

	"github.com/kazvorn/goray/internal/geom"
)

// Camera is a thin-lens pinhole camera: a position/orientation plus
// the lens parameters the original scene's Camera.h would expose
// (field of view, aspect ratio, focus distance and aperture for
// depth-of-field, and a barrel-distortion coefficient).
type Camera struct {
	Position geom.Vec3
	Forward, Up, Right geom.Vec3

	FovY        float32 // vertical field of view, radians
	AspectRatio float32

	LensRadius    float32 // aperture radius; 0 disables depth-of-field
	FocusDistance float32

	// BarrelDistortion applies radial distortion k*r^2 to NDC
	// coordinates before ray generation; 0 disables it.
	BarrelDistortion float32
}

// New builds a camera looking from eye towards target, grounded on the
// teacher's NewCamera + updateVectors construction (world-up cross
// product to derive Right/Up), generalized with FOV/aspect/lens
// parameters the gameplay camera never needed.
func New(eye, target, worldUp geom.Vec3, fovYDegrees, aspectRatio float32) Camera {
	forward := target.Sub(eye).Normalize()
	right := forward.Cross(worldUp).Normalize()
	up := right.Cross(forward).Normalize()
	return Camera{
		Position:      eye,
		Forward:       forward,
		Right:         right,
		Up:            up,
		FovY:          fovYDegrees * float32(math.Pi) / 180,
		AspectRatio:   aspectRatio,
		FocusDistance: 1,
	}
}

// viewDirection maps an NDC coordinate in [-1,1]^2 (y up) to a
// world-space (unnormalized) ray direction through the image plane,
// applying barrel distortion first.
func (c Camera) viewDirection(ndc geom.Vec2) geom.Vec3 {
	if c.BarrelDistortion != 0 {
		r2 := ndc[0]*ndc[0] + ndc[1]*ndc[1]
		scale := 1 + c.BarrelDistortion*r2
		ndc = geom.Vec2{ndc[0] * scale, ndc[1] * scale}
	}
	halfHeight := float32(math.Tan(float64(c.FovY) / 2))
	halfWidth := halfHeight * c.AspectRatio
	dir := c.Forward.Add(c.Right.Mul(ndc[0] * halfWidth)).Add(c.Up.Mul(ndc[1] * halfHeight))
	return dir
}

// Random is the minimal sampling surface thin-lens jitter needs.
type Random interface {
	Float2() (float32, float32)
}

// GenerateRay builds one primary ray through NDC coordinates
// (each in [-1, 1], y up), applying thin-lens depth-of-field jitter
// when LensRadius > 0, per spec.md §6's Camera contract.
func (c Camera) GenerateRay(ndc geom.Vec2, rng Random) geom.Ray {
	dir := c.viewDirection(ndc)

	if c.LensRadius <= 0 {
		return geom.NewRay(c.Position, dir)
	}

	focusPoint := c.Position.Add(dir.Mul(c.FocusDistance / dir.Dot(c.Forward)))
	u1, u2 := rng.Float2()
	lu, lv := concentricDisk(u1, u2)
	lensOffset := c.Right.Mul(lu * c.LensRadius).Add(c.Up.Mul(lv * c.LensRadius))
	origin := c.Position.Add(lensOffset)
	return geom.NewRay(origin, focusPoint.Sub(origin))
}

// GenerateRay8 builds 8 primary rays at once, one per lane of ndc8,
// used by the SIMD-8 and packet traversal fronts.
func (c Camera) GenerateRay8(ndc8 [geom.LaneCount]geom.Vec2, rng Random) geom.Ray8 {
	var rays [geom.LaneCount]geom.Ray
	for i, ndc := range ndc8 {
		rays[i] = c.GenerateRay(ndc, rng)
	}
	return geom.NewRay8(rays)
}

func concentricDisk(u1, u2 float32) (x, y float32) {
	ox := 2*u1 - 1
	oy := 2*u2 - 1
	if ox == 0 && oy == 0 {
		return 0, 0
	}
	var r, theta float32
	if geom.Abs32(ox) > geom.Abs32(oy) {
		r = ox
		theta = (float32(math.Pi) / 4) * (oy / ox)
	} else {
		r = oy
		theta = (float32(math.Pi) / 2) - (float32(math.Pi)/4)*(ox/oy)
	}
	return r * float32(math.Cos(float64(theta))), r * float32(math.Sin(float64(theta)))
}
