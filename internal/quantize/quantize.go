// Package quantize slices continuous time ranges into whole-second buckets.
// Both interval occupancy tracking and power billing are built on the same
// slicing, so they always agree on bucket boundaries.
package quantize

import "math"

// Bucket is one whole-second slot touched by a sliced range.
type Bucket struct {
	Second  int64   // the slot, as epoch seconds truncated down
	Overlap float64 // seconds of the range that fall inside this slot
}

// Slice partitions [start, end) into consecutive one-second buckets.
// The first bucket's overlap runs from start to the next whole second (or to
// end, whichever is sooner), interior buckets overlap exactly 1.0, and the
// last bucket is truncated at end. start == end yields no buckets.
// The overlaps always sum to exactly end-start.
func Slice(start, end float64) []Bucket {
	var out []Bucket
	cursor := start
	for cursor < end {
		sec := int64(math.Floor(cursor))
		next := float64(sec + 1)
		if next > end {
			next = end
		}
		out = append(out, Bucket{Second: sec, Overlap: next - cursor})
		cursor = next
	}
	return out
}

// Occupancy tracks, per one-second bucket, how many seconds of interval time
// were held during that second. Overlapping intervals accumulate, so a value
// can exceed 1.0.
type Occupancy map[int64]float64

// Record folds the range [start, end) into the map. Repeated calls add to
// existing buckets rather than overwriting them.
func (o Occupancy) Record(start, end float64) {
	for _, b := range Slice(start, end) {
		o[b.Second] += b.Overlap
	}
}
