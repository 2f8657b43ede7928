package scheduler

import (
	"testing"

	"github.com/kazvorn/goray/internal/camera"
	"github.com/kazvorn/goray/internal/framebuffer"
	"github.com/kazvorn/goray/internal/geom"
	"github.com/kazvorn/goray/internal/light"
	"github.com/kazvorn/goray/internal/material"
	"github.com/kazvorn/goray/internal/scene"
	"github.com/kazvorn/goray/internal/spectrum"
)

func litSphereScene(t *testing.T) *scene.Scene {
	t.Helper()
	mat := material.Default()
	mat.BaseColor = spectrum.RGB{R: 0.8, G: 0.8, B: 0.8}

	objects := []scene.Object{
		{
			Kind:       scene.KindSphere,
			Sphere:     scene.SphereData{Radius: 1, MaterialIdx: 0},
			Transform:  geom.Transform{Translation: geom.Vec3{0, 0, -5}, Rotation: geom.Identity().Rotation},
			LightIndex: -1,
		},
	}
	lights := []light.Light{light.NewPoint(geom.Vec3{0, 2, -3}, spectrum.RGB{R: 40, G: 40, B: 40})}

	s, err := scene.Build([]material.Material{mat}, objects, lights)
	if err != nil {
		t.Fatalf("scene.Build: %v", err)
	}
	return s
}

func TestRenderFillsFramebuffer(t *testing.T) {
	s := litSphereScene(t)
	cam := camera.New(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, -1}, geom.Vec3{0, 1, 0}, 40, 1)
	fb := framebuffer.New(16, 16)

	sched := New(2)
	defer sched.Stop()

	params := DefaultParams()
	params.SamplesPerPixel = 4
	params.TileOrder = 2 // 4x4 tiles

	counters := sched.Render(s, cam, fb, params, 1)

	if fb.SamplesAccumulated != 4 {
		t.Fatalf("expected SamplesAccumulated == spp (4), got %v", fb.SamplesAccumulated)
	}
	if counters.NumPrimaryRays != int64(16*16*4) {
		t.Fatalf("expected %d primary rays, got %d", 16*16*4, counters.NumPrimaryRays)
	}

	anyNonZero := false
	for i := 0; i < len(fb.Pixels); i += 4 {
		if fb.Pixels[i] != 0 || fb.Pixels[i+1] != 0 || fb.Pixels[i+2] != 0 {
			anyNonZero = true
			break
		}
	}
	if !anyNonZero {
		t.Fatalf("expected at least one lit pixel from the central sphere")
	}
}

func TestDecodeMortonCoversTileWithoutDuplicates(t *testing.T) {
	const size = 8
	seen := make(map[[2]uint32]bool)
	for i := uint32(0); i < size*size; i++ {
		x, y := decodeMorton(i)
		if x >= size || y >= size {
			t.Fatalf("index %d decoded out of tile bounds: (%d, %d)", i, x, y)
		}
		key := [2]uint32{x, y}
		if seen[key] {
			t.Fatalf("index %d decoded to duplicate coordinate (%d, %d)", i, x, y)
		}
		seen[key] = true
	}
	if len(seen) != size*size {
		t.Fatalf("expected full coverage of an %dx%d tile, got %d unique coords", size, size, len(seen))
	}
}

func TestRenderSimdMatchesSingleOnALitSphere(t *testing.T) {
	s := litSphereScene(t)
	cam := camera.New(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, -1}, geom.Vec3{0, 1, 0}, 40, 1)

	fbSingle := framebuffer.New(16, 16)
	schedSingle := New(2)
	defer schedSingle.Stop()
	paramsSingle := DefaultParams()
	paramsSingle.SamplesPerPixel = 1
	paramsSingle.TileOrder = 3
	schedSingle.Render(s, cam, fbSingle, paramsSingle, 7)

	fbSimd := framebuffer.New(16, 16)
	schedSimd := New(2)
	defer schedSimd.Stop()
	paramsSimd := paramsSingle
	paramsSimd.Traversal = Simd
	schedSimd.Render(s, cam, fbSimd, paramsSimd, 7)

	anyNonZero := false
	for i := 0; i < len(fbSimd.Pixels); i += 4 {
		if fbSimd.Pixels[i] != 0 || fbSimd.Pixels[i+1] != 0 || fbSimd.Pixels[i+2] != 0 {
			anyNonZero = true
			break
		}
	}
	if !anyNonZero {
		t.Fatalf("expected at least one lit pixel from the central sphere under Simd traversal")
	}
	if fbSimd.SamplesAccumulated != fbSingle.SamplesAccumulated {
		t.Fatalf("expected Simd and Single to accumulate the same sample count")
	}
}

func TestRenderPacketFillsFramebufferOnAPartialTile(t *testing.T) {
	// size=4 tile over an 11x11 framebuffer leaves a partial final tile,
	// exercising renderTileBatched's padded-tail-batch path.
	s := litSphereScene(t)
	cam := camera.New(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, -1}, geom.Vec3{0, 1, 0}, 40, 1)
	fb := framebuffer.New(11, 11)

	sched := New(2)
	defer sched.Stop()

	params := DefaultParams()
	params.SamplesPerPixel = 1
	params.TileOrder = 2 // 4x4 tiles
	params.Traversal = Packet

	sched.Render(s, cam, fb, params, 3)

	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			_, _, _, a := fb.At(x, y)
			if a != 1 {
				t.Fatalf("pixel (%d,%d) missing its sample under Packet traversal, alpha=%v", x, y, a)
			}
		}
	}
}

func TestRenderIsABarrier(t *testing.T) {
	s := litSphereScene(t)
	cam := camera.New(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, -1}, geom.Vec3{0, 1, 0}, 40, 1)
	fb := framebuffer.New(8, 8)

	sched := New(1)
	defer sched.Stop()

	params := DefaultParams()
	params.SamplesPerPixel = 1
	sched.Render(s, cam, fb, params, 1)

	// If Render returned before every tile finished, some pixels would
	// have zero alpha even though a full pass completed.
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			_, _, _, a := fb.At(x, y)
			if a != 1 {
				t.Fatalf("pixel (%d,%d) missing its sample after Render returned, alpha=%v", x, y, a)
			}
		}
	}
}
