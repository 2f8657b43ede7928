package bvh

import (
	"testing"

	"github.com/kazvorn/goray/internal/geom"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	n := 20
	prims := make([]Primitive, n)
	for i := 0; i < n; i++ {
		prims[i] = Primitive{Box: boxAt(float32(i), float32(i%4), 0), Centroid: geom.Vec3{float32(i), float32(i % 4), 0}, Index: uint32(i)}
	}
	res := Build(prims, DefaultBuildParams())

	data, err := Encode(&res.BVH)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Nodes) != len(res.BVH.Nodes) {
		t.Fatalf("round-trip node count mismatch: got %d, want %d", len(decoded.Nodes), len(res.BVH.Nodes))
	}
	for i := range decoded.Nodes {
		if decoded.Nodes[i] != res.BVH.Nodes[i] {
			t.Fatalf("round-trip mismatch at node %d", i)
		}
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	data := []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	if _, err := Decode(data); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	res := Build([]Primitive{{Box: boxAt(0, 0, 0), Index: 0}}, DefaultBuildParams())
	data, err := Encode(&res.BVH)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode(data[:len(data)-4]); err == nil {
		t.Fatalf("expected error for truncated file")
	}
}
