// Package power consumes the power-monitor sample stream and proportionally
// attributes the measured charge to blame-category intervals.
package power

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fakeyudi/wakeblame/internal/event"
)

// DefaultQuanta is the default presentation window length in seconds.
const DefaultQuanta = 15

// A window averaging above this current counts as "active" for the
// presentation side channel.
const topThresh = 0.01 // amps

// Window is one fixed-length aggregate of raw power samples, kept for
// presentation only; billing always works from the raw per-second samples.
type Window struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	AmpSecs float64 `json:"amp_secs"`
	Avg     float64 `json:"avg_amps"`
}

// Meter collects the raw sample stream: a per-second amps map for billing
// plus the fixed-window aggregation side channel.
type Meter struct {
	quanta int

	samples    map[int64]float64
	totalAmps  float64
	topAmps    float64
	lines      int
	quantaAmps float64
	startSecs  float64
	windows    []Window
}

func NewMeter(quanta int) *Meter {
	if quanta <= 0 {
		quanta = DefaultQuanta
	}
	return &Meter{quanta: quanta, samples: make(map[int64]float64)}
}

// HandleSample consumes one (second, amps) pair. Duplicate seconds
// overwrite. When a window boundary is crossed, one descriptive "power"
// interval is added to the timeline, plus an "activepower" twin when the
// window's charge clears the active threshold.
func (m *Meter) HandleSample(secs, amps float64, tl *event.Timeline) {
	m.lines++
	if m.startSecs == 0 {
		m.startSecs = secs
	}
	m.quantaAmps += amps
	m.totalAmps += amps
	m.samples[int64(secs)] = amps

	if math.Mod(secs, float64(m.quanta)) != 0 {
		return
	}
	avg := m.quantaAmps / float64(m.quanta)
	name := fmt.Sprintf("%.3f As (%.3f A avg)", m.quantaAmps, avg)
	tl.Add("power", name, m.startSecs, secs)
	m.windows = append(m.windows, Window{Start: m.startSecs, End: secs, AmpSecs: m.quantaAmps, Avg: avg})

	if m.quantaAmps > topThresh*float64(m.quanta) {
		m.topAmps += m.quantaAmps
		tl.Add("activepower", name, m.startSecs, secs)
	}

	m.quantaAmps = 0
	m.startSecs = secs
}

// Windows returns the presentation aggregates in stream order.
func (m *Meter) Windows() []Window {
	return m.windows
}

// Samples returns the per-second current map.
func (m *Meter) Samples() map[int64]float64 {
	return m.samples
}

// ReadSamples parses "<epoch-seconds> <amps>" lines from r, shifts each
// timestamp by offset (host/device clock skew), and hands the pair to
// handle. Malformed lines are skipped and counted.
func ReadSamples(r io.Reader, offset float64, handle func(secs, amps float64)) (int, error) {
	skipped := 0
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			skipped++
			continue
		}
		secs, err1 := strconv.ParseFloat(fields[0], 64)
		amps, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}
		handle(secs+offset, amps)
	}
	if err := sc.Err(); err != nil {
		return skipped, fmt.Errorf("scan power samples: %w", err)
	}
	return skipped, nil
}
