package geom

// Vec8 is an 8-lane float32 bundle, the SoA building block for SIMD-8
// traversal and packet mode. There is no mgl32 equivalent and none of
// the retrieved example repos carry an 8-wide SIMD vector library (the
// closest, gioui.org/cpu, is a GPU shader IR compiler, not a lane
// vector type), so this is hand-rolled, matching the original C++'s
// own hand-written Vector8.
type Vec8 [LaneCount]float32

// Splat8 returns a Vec8 with every lane set to v.
func Splat8(v float32) Vec8 {
	var r Vec8
	for i := range r {
		r[i] = v
	}
	return r
}

// Add returns the lane-wise sum of a and b.
func (a Vec8) Add(b Vec8) Vec8 {
	var r Vec8
	for i := range r {
		r[i] = a[i] + b[i]
	}
	return r
}

// Sub returns the lane-wise difference a - b.
func (a Vec8) Sub(b Vec8) Vec8 {
	var r Vec8
	for i := range r {
		r[i] = a[i] - b[i]
	}
	return r
}

// Mul returns the lane-wise product of a and b.
func (a Vec8) Mul(b Vec8) Vec8 {
	var r Vec8
	for i := range r {
		r[i] = a[i] * b[i]
	}
	return r
}

// Scale returns every lane of a multiplied by s.
func (a Vec8) Scale(s float32) Vec8 {
	var r Vec8
	for i := range r {
		r[i] = a[i] * s
	}
	return r
}

// Min returns the lane-wise minimum of a and b.
func (a Vec8) Min(b Vec8) Vec8 {
	var r Vec8
	for i := range r {
		if a[i] < b[i] {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}

// Max returns the lane-wise maximum of a and b.
func (a Vec8) Max(b Vec8) Vec8 {
	var r Vec8
	for i := range r {
		if a[i] > b[i] {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}

// LessMask returns a bitmask with bit i set where a[i] < b[i].
func (a Vec8) LessMask(b Vec8) uint8 {
	var m uint8
	for i := range a {
		if a[i] < b[i] {
			m |= 1 << uint(i)
		}
	}
	return m
}

// HorizontalSum reduces all 8 lanes to their sum. All reductions in
// this package are deterministic left-to-right, per the spec's data
// model invariant for lane-wise reductions.
func (a Vec8) HorizontalSum() float32 {
	var s float32
	for _, v := range a {
		s += v
	}
	return s
}
