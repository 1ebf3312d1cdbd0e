package engine

import (
	"sort"
	"sync"
	"testing"
)

func TestDeterminism(t *testing.T) {
	r1 := NewRNG(42)
	r2 := NewRNG(42)
	for i := 0; i < 1000; i++ {
		if r1.Uint32() != r2.Uint32() {
			t.Fatalf("determinism broken at iteration %d", i)
		}
	}
}

func TestDifferentSeeds(t *testing.T) {
	r1 := NewRNG(42)
	r2 := NewRNG(43)
	same := 0
	for i := 0; i < 100; i++ {
		if r1.Uint32() == r2.Uint32() {
			same++
		}
	}
	if same > 5 {
		t.Fatalf("different seeds produced %d/100 identical values", same)
	}
}

func TestFloat64Bounds(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 10000; i++ {
		v := r.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("Float64() = %f, out of [0, 1)", v)
		}
	}
}

func TestFloat64RangeBounds(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 10000; i++ {
		v := r.Float64Range(0.75, 1.25)
		if v < 0.75 || v >= 1.25 {
			t.Fatalf("Float64Range(0.75, 1.25) = %f, out of [0.75, 1.25)", v)
		}
	}
}

func TestFloat64RangeDegenerate(t *testing.T) {
	r := NewRNG(42)
	if v := r.Float64Range(2, 2); v != 2 {
		t.Fatalf("Float64Range(2, 2) = %f, want 2", v)
	}
	if v := r.Float64Range(3, 1); v != 3 {
		t.Fatalf("Float64Range(3, 1) = %f, want 3", v)
	}
}

func TestIntnBounds(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 10000; i++ {
		v := r.Intn(10)
		if v < 0 || v >= 10 {
			t.Fatalf("Intn(10) = %d, out of [0, 10)", v)
		}
	}
}

func TestIntnZero(t *testing.T) {
	r := NewRNG(42)
	if r.Intn(0) != 0 {
		t.Fatal("Intn(0) should return 0")
	}
}

func TestIntnNegative(t *testing.T) {
	r := NewRNG(42)
	if r.Intn(-5) != 0 {
		t.Fatal("Intn(-5) should return 0")
	}
}

func TestIntRangeBounds(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 10000; i++ {
		v := r.IntRange(0, 49)
		if v < 0 || v > 49 {
			t.Fatalf("IntRange(0,49) = %d, out of [0, 49]", v)
		}
	}
}

func TestIntRangeHitsBothEnds(t *testing.T) {
	r := NewRNG(42)
	sawMin, sawMax := false, false
	for i := 0; i < 10000; i++ {
		switch r.IntRange(0, 3) {
		case 0:
			sawMin = true
		case 3:
			sawMax = true
		}
	}
	if !sawMin || !sawMax {
		t.Fatalf("IntRange(0,3) never produced an endpoint: min=%v max=%v", sawMin, sawMax)
	}
}

func TestIntRangeReversed(t *testing.T) {
	r := NewRNG(42)
	// When min >= max, should return min
	v := r.IntRange(10, 5)
	if v != 10 {
		t.Fatalf("IntRange(10,5) = %d, want 10", v)
	}
}

func TestBoolProducesBoth(t *testing.T) {
	r := NewRNG(42)
	trues := 0
	for i := 0; i < 1000; i++ {
		if r.Bool() {
			trues++
		}
	}
	if trues < 400 || trues > 600 {
		t.Fatalf("Bool() returned true %d/1000 times, expected ~500", trues)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	r := NewRNG(42)
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	r.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

	sorted := append([]int(nil), items...)
	sort.Ints(sorted)
	for i, v := range sorted {
		if v != i {
			t.Fatalf("shuffle lost or duplicated elements: %v", items)
		}
	}
}

func TestShuffleDeterministic(t *testing.T) {
	a := []int{0, 1, 2, 3, 4, 5, 6, 7}
	b := []int{0, 1, 2, 3, 4, 5, 6, 7}
	NewRNG(7).Shuffle(len(a), func(i, j int) { a[i], a[j] = a[j], a[i] })
	NewRNG(7).Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different shuffles: %v vs %v", a, b)
		}
	}
}

func TestConcurrentDraws(t *testing.T) {
	r := NewRNG(9)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if v := r.Float64(); v < 0 || v >= 1 {
					t.Errorf("Float64() = %v; want [0, 1)", v)
					return
				}
			}
		}()
	}
	wg.Wait()
}
