// Package report assembles one analysis run into a renderable document and
// serializes it as HTML, plain text, or JSON.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/wakeblame/internal/event"
	"github.com/fakeyudi/wakeblame/internal/power"
)

// Report is the complete result of one analysis run.
type Report struct {
	ID          uuid.UUID `json:"id"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
	Legacy      bool      `json:"legacy"`

	StartTime float64 `json:"start_time"`
	StopTime  float64 `json:"stop_time"`

	SearchProc string   `json:"search_proc,omitempty"`
	Matches    []string `json:"matches,omitempty"`

	Timeline   *event.Timeline `json:"timeline"`
	Highlights *event.Timeline `json:"highlights"`

	Bill         power.BillReport  `json:"bill"`
	PowerWindows []power.Window    `json:"power_windows,omitempty"`
	Procs        []event.ProcEntry `json:"procs,omitempty"`

	SkippedLines int      `json:"skipped_lines,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Renderer serializes a Report to bytes.
type Renderer interface {
	Render(rep *Report) ([]byte, error)
}

// ElapsedMinutes is the whole-minute span of the analyzed history.
func (r *Report) ElapsedMinutes() int {
	return int((r.StopTime - r.StartTime) / 60)
}

// showCompleteTime reports whether timestamps need a date component, which
// only matters once the history spans more than a day.
func (r *Report) showCompleteTime() bool {
	return r.StopTime-r.StartTime > 24*60*60
}

// TimeRange renders the local start and stop times for display headers.
func (r *Report) TimeRange() string {
	return fmt.Sprintf("%s - %s",
		humanTime(r.StartTime, r.showCompleteTime()),
		humanTime(r.StopTime, r.showCompleteTime()))
}

func humanTime(t float64, complete bool) string {
	lt := time.Unix(int64(t), 0)
	if complete {
		return lt.Format("2006-01-02 15:04:05")
	}
	return lt.Format("15:04:05")
}
