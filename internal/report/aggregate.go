package report

import (
	"strings"

	"github.com/samber/lo"

	"github.com/fakeyudi/wakeblame/internal/event"
)

// wifi_suppl states worth keeping when collapsing a burst of transitions.
var wifiTrackingStates = []string{"disconn", "completed", "disabled", "scanning"}

// Aggregate collapses visual noise before rendering: duplicate rows starting
// in the same second are dropped, and a burst of wifi_suppl transitions
// sharing one second collapses into a single arrow-chain row. The input
// timeline is left untouched.
func Aggregate(tl *event.Timeline) *event.Timeline {
	out := event.NewTimeline()
	for _, cat := range tl.Categories() {
		groups, order := groupByStart(tl.Rows(cat))
		for _, start := range order {
			var merged []event.Interval
			if cat == "wifi_suppl" {
				merged = combineWifiStates(groups[start], start)
			} else {
				merged = dedupe(groups[start])
			}
			for _, iv := range merged {
				out.Add(cat, iv.Name, float64(iv.Start), float64(iv.End))
			}
		}
	}
	return out
}

func groupByStart(rows []event.Interval) (map[int64][]event.Interval, []int64) {
	groups := make(map[int64][]event.Interval)
	var order []int64
	for _, iv := range rows {
		if _, seen := groups[iv.Start]; !seen {
			order = append(order, iv.Start)
		}
		groups[iv.Start] = append(groups[iv.Start], iv)
	}
	return groups, order
}

func dedupe(rows []event.Interval) []event.Interval {
	seen := make(map[event.Interval]bool, len(rows))
	var out []event.Interval
	for _, iv := range rows {
		if seen[iv] {
			continue
		}
		seen[iv] = true
		out = append(out, iv)
	}
	return out
}

// combineWifiStates keeps only the tracked supplicant states and, when more
// than one lands in the same second, replaces them with one zero-width row
// naming the whole transition chain.
func combineWifiStates(rows []event.Interval, start int64) []event.Interval {
	var selected []event.Interval
	for _, iv := range rows {
		if lo.Contains(wifiTrackingStates, wifiSupplState(iv.Name)) {
			selected = append(selected, iv)
		}
	}
	if len(selected) <= 1 {
		return dedupe(selected)
	}

	var chain strings.Builder
	chain.WriteString("wifi_suppl=")
	for i, iv := range selected {
		if i > 0 {
			chain.WriteString("->")
		}
		chain.WriteString(wifiSupplState(iv.Name))
	}
	// Carry the first row's time-range suffix onto the combined row.
	if idx := strings.Index(selected[0].Name, "("); idx >= 0 {
		chain.WriteString(selected[0].Name[idx:])
	}
	return []event.Interval{{Name: chain.String(), Start: start, End: start}}
}

// wifiSupplState extracts the state token from "wifi_suppl=<state>(...)".
func wifiSupplState(name string) string {
	_, after, ok := strings.Cut(name, "=")
	if !ok {
		return ""
	}
	state, _, _ := strings.Cut(after, "(")
	return state
}
