package renderctx

import "testing"

func TestRNGFloatRangeAndDeterminism(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	for i := 0; i < 1000; i++ {
		fa := a.Float()
		fb := b.Float()
		if fa != fb {
			t.Fatalf("same-seed streams diverged at sample %d: %v vs %v", i, fa, fb)
		}
		if fa < 0 || fa >= 1 {
			t.Fatalf("sample %d out of [0,1): %v", i, fa)
		}
	}
}

func TestRNGDifferentSeedsDiverge(t *testing.T) {
	a := NewRNG(1)
	b := NewRNG(2)
	same := true
	for i := 0; i < 16; i++ {
		if a.Float() != b.Float() {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected distinct seeds to produce distinct streams")
	}
}

func TestCosineSampleHemispherePositiveZAndValidPdf(t *testing.T) {
	r := NewRNG(7)
	for i := 0; i < 256; i++ {
		dir, pdf := r.CosineSampleHemisphere()
		if dir[2] < 0 {
			t.Fatalf("sample %d: z component negative: %v", i, dir[2])
		}
		if pdf < 0 {
			t.Fatalf("sample %d: negative pdf %v", i, pdf)
		}
		lenSq := dir[0]*dir[0] + dir[1]*dir[1] + dir[2]*dir[2]
		if lenSq < 0.98 || lenSq > 1.02 {
			t.Fatalf("sample %d: direction not unit length, lenSq=%v", i, lenSq)
		}
	}
}
