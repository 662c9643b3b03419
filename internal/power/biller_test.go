package power

import (
	"math"
	"strings"
	"testing"

	"github.com/fakeyudi/wakeblame/internal/event"
	"github.com/fakeyudi/wakeblame/internal/quantize"
)

// meterWith feeds constant-current samples for the inclusive second range.
func meterWith(t *testing.T, from, to int64, amps float64) *Meter {
	t.Helper()
	m := NewMeter(DefaultQuanta)
	tl := event.NewTimeline()
	for s := from; s <= to; s++ {
		m.HandleSample(float64(s), amps, tl)
	}
	return m
}

func TestBillSingleHolder(t *testing.T) {
	// One wake lock held for 5 seconds at a steady 0.1 A draws
	// 0.5 As = 0.1389 mAh.
	m := meterWith(t, 100, 104, 0.1)
	b := NewBiller(m)

	occ := quantize.Occupancy{}
	occ.Record(100, 105)

	records := []event.BlameRecord{{Name: "wake_lock", Start: 100, End: 105}}
	if err := b.Bill(records, occ, 0); err != nil {
		t.Fatalf("Bill: %v", err)
	}

	sd := b.synopsis["wake_lock"]
	if sd == nil {
		t.Fatal("no synopsis for wake_lock")
	}
	want := 0.5 * 1000 / 3600
	if math.Abs(sd.MAh-want) > 1e-6 {
		t.Errorf("MAh = %v, want %v", sd.MAh, want)
	}
	if sd.Count() != 1 {
		t.Errorf("count = %d, want 1", sd.Count())
	}
	if got := sd.TotalDuration(); got != 5 {
		t.Errorf("total duration = %v, want 5", got)
	}
}

func TestBillSplitsConcurrentHolders(t *testing.T) {
	m := meterWith(t, 0, 9, 0.2)
	b := NewBiller(m)

	occ := quantize.Occupancy{}
	occ.Record(0, 10)
	occ.Record(0, 10)

	records := []event.BlameRecord{
		{Name: "lock_a", Start: 0, End: 10},
		{Name: "lock_b", Start: 0, End: 10},
	}
	if err := b.Bill(records, occ, 0); err != nil {
		t.Fatalf("Bill: %v", err)
	}

	a := b.synopsis["lock_a"].MAh
	bb := b.synopsis["lock_b"].MAh
	if math.Abs(a-bb) > 1e-9 {
		t.Errorf("concurrent holders billed unevenly: %v vs %v", a, bb)
	}
	total := asToMAh(0.2 * 10)
	if math.Abs(a+bb-total) > 1e-9 {
		t.Errorf("billed sum = %v, want measured total %v", a+bb, total)
	}
}

func TestBillConservation(t *testing.T) {
	// Three overlapping intervals covering every metered second; the
	// billed charge must add back up to the measured charge exactly.
	m := meterWith(t, 0, 29, 0.05)
	b := NewBiller(m)

	records := []event.BlameRecord{
		{Name: "a", Start: 0, End: 30},
		{Name: "b", Start: 5, End: 20},
		{Name: "c", Start: 10, End: 25},
	}
	occ := quantize.Occupancy{}
	for _, r := range records {
		occ.Record(r.Start, r.End)
	}
	if err := b.Bill(records, occ, 0); err != nil {
		t.Fatalf("Bill: %v", err)
	}

	sum := 0.0
	for _, sd := range b.synopsis {
		sum += sd.MAh
	}
	total := asToMAh(0.05 * 30)
	if math.Abs(sum-total) > 1e-9 {
		t.Errorf("billed sum = %v, want %v", sum, total)
	}
}

func TestBillAppliesGrace(t *testing.T) {
	m := meterWith(t, 10, 13, 0.1)
	b := NewBiller(m)

	// Occupancy already covers the grace tail, the way the matcher
	// records it.
	occ := quantize.Occupancy{}
	occ.Record(10, 14)

	records := []event.BlameRecord{{Name: "w", Start: 10, End: 12}}
	if err := b.Bill(records, occ, 2); err != nil {
		t.Fatalf("Bill: %v", err)
	}

	want := asToMAh(0.1 * 4) // seconds 10..13 inclusive
	if got := b.synopsis["w"].MAh; math.Abs(got-want) > 1e-9 {
		t.Errorf("MAh = %v, want %v (grace tail billed)", got, want)
	}
	// True duration, not the grace-extended one.
	if got := b.synopsis["w"].TotalDuration(); got != 2 {
		t.Errorf("duration = %v, want 2", got)
	}
}

func TestBillRejectsOverclaim(t *testing.T) {
	m := meterWith(t, 0, 4, 0.1)
	b := NewBiller(m)

	// Occupancy recorded for half the interval only; billing the full
	// interval would hand out more than was measured.
	occ := quantize.Occupancy{}
	occ.Record(0, 5)
	for s := range occ {
		occ[s] = 0.5
	}

	records := []event.BlameRecord{{Name: "w", Start: 0, End: 5}}
	err := b.Bill(records, occ, 0)
	if err == nil {
		t.Fatal("Bill accepted an interval exceeding its occupancy")
	}
	if !strings.Contains(err.Error(), "occupancy") {
		t.Errorf("error %q does not name the occupancy violation", err)
	}
}

func TestBillSkipsUnsampledSeconds(t *testing.T) {
	m := meterWith(t, 0, 2, 0.1) // samples only for seconds 0..2
	b := NewBiller(m)

	occ := quantize.Occupancy{}
	occ.Record(0, 10)

	records := []event.BlameRecord{{Name: "w", Start: 0, End: 10}}
	if err := b.Bill(records, occ, 0); err != nil {
		t.Fatalf("Bill: %v", err)
	}
	want := asToMAh(0.3)
	if got := b.synopsis["w"].MAh; math.Abs(got-want) > 1e-9 {
		t.Errorf("MAh = %v, want %v", got, want)
	}
}

func TestMedianDuration(t *testing.T) {
	sd := &Synopsis{}
	for _, d := range []float64{9, 1, 5} {
		sd.add("x", d, 0, 0)
	}
	if got := sd.MedianDuration(); got != 5 {
		t.Errorf("median = %v, want 5", got)
	}
	sd.add("x", 7, 0, 0)
	if got := sd.MedianDuration(); got != 7 {
		t.Errorf("median of even count = %v, want upper middle 7", got)
	}
}

func TestReportSorting(t *testing.T) {
	// A brief hot interval and a long cold one, so the two sort orders
	// disagree.
	m := NewMeter(DefaultQuanta)
	tl := event.NewTimeline()
	m.HandleSample(0, 1.0, tl)
	m.HandleSample(1, 1.0, tl)
	for s := 2; s <= 9; s++ {
		m.HandleSample(float64(s), 0.01, tl)
	}
	b := NewBiller(m)

	records := []event.BlameRecord{
		{Name: "short_hot", Start: 0, End: 2},
		{Name: "long_cold", Start: 2, End: 10},
	}
	occ := quantize.Occupancy{}
	for _, r := range records {
		occ.Record(r.Start, r.End)
	}
	if err := b.Bill(records, occ, 0); err != nil {
		t.Fatalf("Bill: %v", err)
	}

	byDuration := b.Report(false, 0)
	if byDuration.Rows[0].Name != "long_cold" {
		t.Errorf("duration sort: first row %q, want long_cold", byDuration.Rows[0].Name)
	}

	byPower := b.Report(true, 0)
	if byPower.Rows[0].Name != "short_hot" {
		t.Errorf("power sort: first row %q, want short_hot", byPower.Rows[0].Name)
	}
	if byPower.TotalCount != 2 {
		t.Errorf("total count = %d, want 2", byPower.TotalCount)
	}
	sum := byPower.Rows[0].Pct + byPower.Rows[1].Pct
	if math.Abs(sum-100) > 1e-6 {
		t.Errorf("percentages sum to %v, want 100", sum)
	}
}
