package power

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/fakeyudi/wakeblame/internal/event"
	"github.com/fakeyudi/wakeblame/internal/quantize"
)

// asToMAh converts accumulated amp-seconds to milliamp-hours.
func asToMAh(ampSecs float64) float64 {
	return ampSecs * 1000 / 60 / 60
}

// Synopsis aggregates every billed interval sharing one name.
type Synopsis struct {
	Name      string
	MAh       float64
	FirstSeen string

	durations []float64
}

func (s *Synopsis) add(name string, duration, mah float64, at float64) {
	s.Name = name
	s.durations = append(s.durations, duration)
	s.MAh += mah
	if s.FirstSeen == "" {
		s.FirstSeen = time.Unix(int64(at), 0).Format("15:04:05")
	}
}

func (s *Synopsis) Count() int { return len(s.durations) }

func (s *Synopsis) TotalDuration() float64 { return lo.Sum(s.durations) }

// MedianDuration is the middle element of the sorted duration list (the
// upper one for even counts).
func (s *Synopsis) MedianDuration() float64 {
	sorted := append([]float64(nil), s.durations...)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}

// Biller attributes the metered charge to blame records.
type Biller struct {
	meter    *Meter
	synopsis map[string]*Synopsis
}

func NewBiller(meter *Meter) *Biller {
	return &Biller{meter: meter, synopsis: make(map[string]*Synopsis)}
}

// Bill walks the blame records in emission order and assigns each its
// proportional share of the measured charge, extending every record by
// graceSecs. An interval claiming more of a second than the recorded
// occupancy is a bookkeeping defect and fails the whole run.
func (b *Biller) Bill(records []event.BlameRecord, occ quantize.Occupancy, graceSecs int) error {
	for _, rec := range records {
		ampSecs, err := b.rangePower(rec.Start, rec.End+float64(graceSecs), occ)
		if err != nil {
			return fmt.Errorf("billing %q: %w", rec.Name, err)
		}
		sd, ok := b.synopsis[rec.Name]
		if !ok {
			sd = &Synopsis{}
			b.synopsis[rec.Name] = sd
		}
		sd.add(rec.Name, rec.End-rec.Start, asToMAh(ampSecs), rec.Start)
	}
	return nil
}

// rangePower sums the interval's proportional share of each second in
// [start, end). During any one second the interval may have been held for
// only part of the second while others were held too; the share is
// overlap / total-held-time, never more than 1.
func (b *Biller) rangePower(start, end float64, occ quantize.Occupancy) (float64, error) {
	total := 0.0
	for _, bk := range quantize.Slice(start, end) {
		amps, ok := b.meter.samples[bk.Second]
		if !ok {
			continue // no sample for this second contributes no charge
		}
		held := occ[bk.Second]
		share := bk.Overlap / held
		if share > 1.0+1e-9 {
			return 0, fmt.Errorf(
				"second %d: interval overlap %.6fs exceeds recorded occupancy %.6fs",
				bk.Second, bk.Overlap, held)
		}
		total += amps * share
	}
	return total, nil
}

// Row is one rendered synopsis line.
type Row struct {
	Name       string  `json:"name"`
	MAh        float64 `json:"mah"`
	Pct        float64 `json:"pct"`
	Count      int     `json:"count"`
	TotalSecs  float64 `json:"total_secs"`
	AvgSecs    float64 `json:"avg_secs"`
	MedianSecs float64 `json:"median_secs"`
	FirstSeen  string  `json:"first_seen"`
}

// BillReport is the final per-name accounting, sorted for display.
type BillReport struct {
	HasPower     bool    `json:"has_power"`
	Samples      int     `json:"samples"`
	TotalMAh     float64 `json:"total_mah"`
	AvgMilliamps float64 `json:"avg_milliamps"`
	TopMAh       float64 `json:"top_mah"`
	TopAmpSecs   float64 `json:"top_amp_secs"`
	SortByPower  bool    `json:"sort_by_power"`
	GraceSecs    int     `json:"grace_secs"`
	TotalCount   int     `json:"total_count"`
	BilledMAh    float64 `json:"billed_mah"`
	Rows         []Row   `json:"rows"`
}

// Report renders the synopsis map into sorted rows. Percentages are taken
// against the total measured charge, not the billed sum, so unattributed
// charge shows up as a shortfall.
func (b *Biller) Report(sortByPower bool, graceSecs int) BillReport {
	rep := BillReport{
		HasPower:    b.meter.lines > 0,
		Samples:     b.meter.lines,
		TotalMAh:    asToMAh(b.meter.totalAmps),
		TopMAh:      asToMAh(b.meter.topAmps),
		TopAmpSecs:  b.meter.topAmps,
		SortByPower: sortByPower,
		GraceSecs:   graceSecs,
	}
	if b.meter.lines > 0 {
		rep.AvgMilliamps = b.meter.totalAmps / float64(b.meter.lines) * 1000
	}

	for _, sd := range b.synopsis {
		pct := 0.0
		if rep.TotalMAh > 0 {
			pct = sd.MAh * 100 / rep.TotalMAh
		}
		count := sd.Count()
		rep.Rows = append(rep.Rows, Row{
			Name:       sd.Name,
			MAh:        sd.MAh,
			Pct:        pct,
			Count:      count,
			TotalSecs:  sd.TotalDuration(),
			AvgSecs:    sd.TotalDuration() / float64(count),
			MedianSecs: sd.MedianDuration(),
			FirstSeen:  sd.FirstSeen,
		})
		rep.TotalCount += count
		rep.BilledMAh += sd.MAh
	}

	byPower := sortByPower && rep.HasPower
	sort.Slice(rep.Rows, func(i, j int) bool {
		if byPower {
			return rep.Rows[i].MAh > rep.Rows[j].MAh
		}
		return rep.Rows[i].TotalSecs > rep.Rows[j].TotalSecs
	})
	return rep
}
