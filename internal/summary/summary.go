// Package summary derives percent-coverage rows from categories whose raw
// intervals are too dense to read at timeline scale.
package summary

import (
	"fmt"

	"github.com/fakeyudi/wakeblame/internal/event"
	"github.com/fakeyudi/wakeblame/internal/quantize"
)

// Categories lists the timeline rows worth summarizing; their intervals tend
// to be short and frequent.
var Categories = []string{"wake_lock", "running"}

const windowSecs = 60

// Generate appends a "<cat>_pct" row per summarized category, one interval
// per minute window, labeled with the integer percentage of seconds the
// category was present. Windows at or below floor are suppressed, as are
// windows with no presence at all. A negative floor disables summarization.
func Generate(tl *event.Timeline, startTime, endTime float64, floor int) {
	if floor < 0 {
		return
	}
	for _, cat := range Categories {
		generateRow(tl, cat, startTime, endTime, floor)
	}
}

func generateRow(tl *event.Timeline, cat string, startTime, endTime float64, floor int) {
	if !tl.Has(cat) {
		return
	}
	rowName := cat + "_pct"

	occ := quantize.Occupancy{}
	for _, iv := range tl.Rows(cat) {
		occ.Record(float64(iv.Start), float64(iv.End))
	}

	for ws := int64(startTime); ws < int64(endTime); ws += windowSecs {
		we := ws + windowSecs
		found := 0
		for sec := ws; sec < we; sec++ {
			if _, ok := occ[sec]; ok {
				found++
			}
		}
		if found == 0 {
			continue
		}
		pct := found * 100 / windowSecs
		if pct > floor {
			tl.Add(rowName, fmt.Sprintf("%s=%d", rowName, pct), float64(ws), float64(we))
		}
	}
}
