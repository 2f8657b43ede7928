package geom

import "github.com/go-gl/mathgl/mgl32"

// Transform is an object's placement in world space: translation plus
// rotation, stored as a quaternion so interpolation for motion blur is
// a slerp rather than a matrix decomposition.
type Transform struct {
	Translation Vec3
	Rotation    mgl32.Quat
}

// Identity returns the no-op transform.
func Identity() Transform {
	return Transform{Translation: Zero3, Rotation: mgl32.QuatIdent()}
}

// Matrix returns the 4x4 homogeneous matrix for this transform.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).Mul4(t.Rotation.Mat4())
}

// InverseMatrix returns the matrix that maps world space into this
// transform's local space.
func (t Transform) InverseMatrix() mgl32.Mat4 {
	return t.Matrix().Inv()
}

// TransformPoint maps a point from local space into world space.
func (t Transform) TransformPoint(p Vec3) Vec3 {
	return t.Rotation.Rotate(p).Add(t.Translation)
}

// TransformDirection maps a direction from local space into world space.
func (t Transform) TransformDirection(d Vec3) Vec3 {
	return t.Rotation.Rotate(d)
}

// InverseTransformPoint maps a point from world space into local space.
func (t Transform) InverseTransformPoint(p Vec3) Vec3 {
	return t.Rotation.Inverse().Rotate(p.Sub(t.Translation))
}

// InverseTransformDirection maps a direction from world space into local space.
func (t Transform) InverseTransformDirection(d Vec3) Vec3 {
	return t.Rotation.Inverse().Rotate(d)
}

// Interpolate blends between two transforms at parameter time in
// [0, 1]: lerp for translation, slerp for rotation, matching the
// scene's motion-blur transform contract (spec.md §4.4).
func Interpolate(a, b Transform, time float32) Transform {
	return Transform{
		Translation: lerpVec3(a.Translation, b.Translation, time),
		Rotation:    mgl32.QuatSlerp(a.Rotation, b.Rotation, time),
	}
}

func lerpVec3(a, b Vec3, t float32) Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Velocity describes a per-object linear and angular velocity used to
// derive a second transform for motion blur without storing a whole
// second explicit keyframe.
type Velocity struct {
	Linear  Vec3
	Angular Vec3 // axis-angle per unit time
}

// Advance returns the transform reached by applying v to base over dt
// units of (strength-scaled) time.
func Advance(base Transform, v Velocity, dt float32) Transform {
	translated := base.Translation.Add(v.Linear.Mul(dt))
	angle := v.Angular.Len() * dt
	rotation := base.Rotation
	if angle != 0 {
		axis := v.Angular.Normalize()
		rotation = mgl32.QuatRotate(angle, axis).Mul(base.Rotation)
	}
	return Transform{Translation: translated, Rotation: rotation}
}
