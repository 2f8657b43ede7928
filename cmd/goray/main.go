// Command goray renders a small demo scene offline and writes a
// tonemapped PNG preview, exercising every core package end to end:
// mesh preprocessing, BVH construction (with on-disk caching),
// material compilation, lights, the tile scheduler, and the path
// integrator. Flags follow the teacher's config-struct-plus-flags
// convention (spec.md §2's Configuration section), since the teacher's
// own main.go takes no CLI arguments.
package main

import (
	"crypto/sha256"
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/kazvorn/goray/internal/bvh"
	"github.com/kazvorn/goray/internal/bvhcache"
	"github.com/kazvorn/goray/internal/camera"
	"github.com/kazvorn/goray/internal/framebuffer"
	"github.com/kazvorn/goray/internal/geom"
	"github.com/kazvorn/goray/internal/light"
	"github.com/kazvorn/goray/internal/material"
	"github.com/kazvorn/goray/internal/mesh"
	"github.com/kazvorn/goray/internal/scene"
	"github.com/kazvorn/goray/internal/scheduler"
	"github.com/kazvorn/goray/internal/spectrum"
)

func logf(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Printf("[goray] "+format+"\n", args...)
	}
}

func main() {
	width := flag.Int("width", 320, "output image width")
	height := flag.Int("height", 240, "output image height")
	spp := flag.Int("spp", 16, "samples per pixel")
	depth := flag.Int("depth", 8, "maximum path depth")
	workers := flag.Int("workers", 0, "worker pool size (0 = hardware concurrency)")
	out := flag.String("out", "out.png", "output PNG path")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if err := run(*width, *height, *spp, *depth, *workers, *out, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "goray: %v\n", err)
		os.Exit(1)
	}
}

func run(width, height, spp, depth, workers int, outPath string, verbose bool) error {
	cacheMgr, err := bvhcache.NewManager(bvhcache.DefaultManagerConfig())
	if err != nil {
		return fmt.Errorf("init bvh cache: %w", err)
	}

	sc, err := buildDemoScene(cacheMgr, verbose)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}

	cam := camera.New(
		geom.Vec3{0, 1.5, 4},
		geom.Vec3{0, 0.5, 0},
		geom.Vec3{0, 1, 0},
		45, float32(width)/float32(height),
	)

	fb := framebuffer.New(width, height)

	params := scheduler.DefaultParams()
	params.SamplesPerPixel = spp
	params.Integrator.MaxRayDepth = depth

	sched := scheduler.New(workers)
	defer sched.Stop()

	logf(verbose, "rendering %dx%d at %d spp", width, height, spp)
	counters := sched.Render(sc, cam, fb, params, 0x1234567890ABCDEF)
	logf(verbose, "done: %d primary rays, %d triangle tests", counters.NumPrimaryRays, counters.NumRayTriangleTests)

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %q: %w", outPath, err)
	}
	defer f.Close()

	if err := fb.WritePreviewPNG(f); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	logf(verbose, "wrote %s", outPath)
	return nil
}

// buildDemoScene assembles a small scene: a quad floor mesh (BVH
// cached on disk), a glossy sphere, a glass box, a point light, and a
// dim background light.
func buildDemoScene(cacheMgr *bvhcache.Manager, verbose bool) (*scene.Scene, error) {
	floorMat := material.Default()
	floorMat.BaseColor = spectrum.RGB{R: 0.6, G: 0.6, B: 0.65}
	floorMat.Roughness = 0.8

	sphereMat := material.Default()
	sphereMat.BaseColor = spectrum.RGB{R: 0.9, G: 0.2, B: 0.2}
	sphereMat.Roughness = 0.15
	sphereMat.Metalness = 1

	glassMat := material.Default()
	glassMat.BaseColor = spectrum.RGB{R: 1, G: 1, B: 1}
	glassMat.Transparent = true
	glassMat.IoR = 1.5

	floorVB, err := floorMesh()
	if err != nil {
		return nil, err
	}
	floorData := loadOrBuildMeshBVH(cacheMgr, floorVB, verbose)

	objects := []scene.Object{
		{
			Kind:       scene.KindMesh,
			Mesh:       floorData,
			Transform:  geom.Identity(),
			LightIndex: -1,
		},
		{
			Kind:       scene.KindSphere,
			Sphere:     scene.SphereData{Radius: 0.6, MaterialIdx: 1},
			Transform:  geom.Transform{Translation: geom.Vec3{-0.8, 0.6, 0}, Rotation: geom.Identity().Rotation},
			LightIndex: -1,
		},
		{
			Kind:       scene.KindBox,
			Box:        scene.BoxData{HalfExtents: geom.Vec3{0.4, 0.4, 0.4}, MaterialIdx: 2},
			Transform:  geom.Transform{Translation: geom.Vec3{0.8, 0.4, 0}, Rotation: geom.Identity().Rotation},
			LightIndex: -1,
		},
	}

	lights := []light.Light{
		light.NewPoint(geom.Vec3{2, 3, 2}, spectrum.RGB{R: 20, G: 20, B: 18}),
		light.NewBackground(spectrum.RGB{R: 0.05, G: 0.07, B: 0.1}),
	}

	materials := []material.Material{floorMat, sphereMat, glassMat}

	return scene.Build(materials, objects, lights)
}

// floorMesh builds a two-triangle quad in the XZ plane, material index 0.
func floorMesh() (*mesh.VertexBuffer, error) {
	desc := mesh.MeshDesc{
		Path:         "demo/floor",
		NumTriangles: 2,
		NumVertices:  4,
		NumMaterials: 1,
		Positions: []geom.Vec3{
			{-5, 0, -5}, {5, 0, -5}, {5, 0, 5}, {-5, 0, 5},
		},
		VertexIndexBuffer:   [][3]uint32{{0, 1, 2}, {0, 2, 3}},
		MaterialIndexBuffer: []uint32{0, 0},
		Materials:           []mesh.MaterialRef{0},
	}
	return mesh.Build(desc)
}

// loadOrBuildMeshBVH hashes the mesh's processed content to a cache
// key, returning the cached BVH if present and valid, building and
// storing a fresh one otherwise (spec.md §6's cache-miss/rebuild path).
func loadOrBuildMeshBVH(cacheMgr *bvhcache.Manager, vb *mesh.VertexBuffer, verbose bool) *scene.MeshData {
	key := meshContentKey(vb)
	if cached, ok := cacheMgr.Load(key); ok {
		logf(verbose, "bvh cache hit for mesh (%d nodes)", len(cached.Nodes))
		return &scene.MeshData{VB: vb, BVH: *cached}
	}

	data := scene.BuildMesh(vb, bvh.DefaultBuildParams())
	if err := cacheMgr.Store(key, &data.BVH); err != nil {
		logf(verbose, "bvh cache store failed: %v", err)
	}
	return data
}

func meshContentKey(vb *mesh.VertexBuffer) [32]byte {
	h := sha256.New()
	for _, p := range vb.Positions {
		var buf [12]byte
		binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(p[0]))
		binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(p[1]))
		binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(p[2]))
		h.Write(buf[:])
	}
	for _, tri := range vb.Indices {
		var buf [12]byte
		binary.LittleEndian.PutUint32(buf[0:4], tri.I0)
		binary.LittleEndian.PutUint32(buf[4:8], tri.I1)
		binary.LittleEndian.PutUint32(buf[8:12], tri.I2)
		h.Write(buf[:])
	}
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}
