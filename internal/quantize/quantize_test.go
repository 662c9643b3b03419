package quantize_test

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/wakeblame/internal/quantize"
)

func TestSliceEmptyRange(t *testing.T) {
	if got := quantize.Slice(5.0, 5.0); got != nil {
		t.Fatalf("Slice(5,5) = %v, want no buckets", got)
	}
}

func TestSliceWholeSeconds(t *testing.T) {
	got := quantize.Slice(10, 13)
	want := []quantize.Bucket{
		{Second: 10, Overlap: 1},
		{Second: 11, Overlap: 1},
		{Second: 12, Overlap: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Slice(10,13) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSliceSubSecondBoundaries(t *testing.T) {
	got := quantize.Slice(10.25, 12.5)
	if len(got) != 3 {
		t.Fatalf("Slice(10.25,12.5) = %v, want 3 buckets", got)
	}
	if got[0].Second != 10 || math.Abs(got[0].Overlap-0.75) > 1e-12 {
		t.Errorf("first bucket = %v, want {10 0.75}", got[0])
	}
	if got[1].Second != 11 || got[1].Overlap != 1 {
		t.Errorf("interior bucket = %v, want {11 1}", got[1])
	}
	if got[2].Second != 12 || math.Abs(got[2].Overlap-0.5) > 1e-12 {
		t.Errorf("last bucket = %v, want {12 0.5}", got[2])
	}
}

func TestSliceWithinOneSecond(t *testing.T) {
	got := quantize.Slice(10.2, 10.7)
	if len(got) != 1 {
		t.Fatalf("Slice(10.2,10.7) = %v, want 1 bucket", got)
	}
	if got[0].Second != 10 || math.Abs(got[0].Overlap-0.5) > 1e-12 {
		t.Errorf("bucket = %v, want {10 0.5}", got[0])
	}
}

// The overlaps of any sliced range must sum to exactly the range's length,
// and buckets must be consecutive whole seconds.
func TestSliceOverlapConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.Float64Range(0, 1e9).Draw(t, "start")
		length := rapid.Float64Range(0.001, 5000).Draw(t, "length")
		end := start + length

		buckets := quantize.Slice(start, end)
		if len(buckets) == 0 {
			t.Fatalf("Slice(%v,%v) produced no buckets", start, end)
		}

		sum := 0.0
		for i, b := range buckets {
			if b.Overlap <= 0 || b.Overlap > 1 {
				t.Fatalf("bucket %d overlap %v out of (0,1]", i, b.Overlap)
			}
			if i > 0 && b.Second != buckets[i-1].Second+1 {
				t.Fatalf("bucket %d second %d not consecutive after %d", i, b.Second, buckets[i-1].Second)
			}
			sum += b.Overlap
		}

		if math.Abs(sum-(end-start)) > 1e-6 {
			t.Fatalf("overlap sum %v != range length %v", sum, end-start)
		}
	})
}

func TestOccupancyAccumulates(t *testing.T) {
	occ := quantize.Occupancy{}
	occ.Record(10, 12)
	occ.Record(10.5, 11.5)

	if got := occ[10]; math.Abs(got-1.5) > 1e-12 {
		t.Errorf("occ[10] = %v, want 1.5", got)
	}
	if got := occ[11]; math.Abs(got-1.5) > 1e-12 {
		t.Errorf("occ[11] = %v, want 1.5", got)
	}
	if _, ok := occ[12]; ok {
		t.Error("occ[12] should not exist for range ending at 12")
	}
}
