package report

import (
	"fmt"
	"strings"

	"github.com/fakeyudi/wakeblame/internal/power"
)

// Awake threshold in mA, for the header line only.
const topThreshMilliamps = 10.0

// TextRenderer renders the report as plain text for terminals and logs.
type TextRenderer struct{}

func (r *TextRenderer) Render(rep *Report) ([]byte, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Battery history analysis for %s\n", rep.Source)
	if rep.Legacy {
		sb.WriteString("WARNING: legacy format detected; history information is limited\n")
	}
	fmt.Fprintf(&sb, "Local time %s, %dm elapsed\n\n", rep.TimeRange(), rep.ElapsedMinutes())

	if rep.SearchProc != "" && len(rep.Matches) > 1 {
		fmt.Fprintf(&sb, "WARNING: multiple matches found for %q:\n", rep.SearchProc)
		for _, match := range rep.Matches {
			fmt.Fprintf(&sb, "  %s\n", match)
		}
		fmt.Fprintf(&sb, "Showing result for %s\n\n", rep.Matches[0])
	}

	b := rep.Bill
	if b.HasPower {
		fmt.Fprintf(&sb, "Total power: %.3f mAh, avg %.3f mA\n", b.TotalMAh, b.AvgMilliamps)
		fmt.Fprintf(&sb, "Total power above awake threshold (%.1fmA): %.3f mAh %.3f As\n",
			topThreshMilliamps, b.TopMAh, b.TopAmpSecs)
		fmt.Fprintf(&sb, "%d samples, %d min\n\n", b.Samples, b.Samples/60)
	}

	switch {
	case b.HasPower && b.GraceSecs > 0:
		fmt.Fprintf(&sb, "Power seen during each history event, including %d seconds after each event:\n",
			b.GraceSecs)
	case b.HasPower:
		sb.WriteString("Power seen during each history event:\n")
	default:
		sb.WriteString("Event summary:\n")
	}
	for _, row := range b.Rows {
		sb.WriteString(billRowText(row, b.HasPower))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "total: %.3f mAh, %d events\n", b.BilledMAh, b.TotalCount)

	if len(rep.Procs) > 0 {
		sb.WriteString("\nProcess table:\n")
		for _, p := range rep.Procs {
			fmt.Fprintf(&sb, "%s: %s\n", p.ID, p.Name)
		}
	}

	for _, w := range rep.Warnings {
		fmt.Fprintf(&sb, "\nWARNING: %s\n", w)
	}

	return []byte(sb.String()), nil
}

// billRowText formats one synopsis line; the charge columns only appear when
// a power sample stream was supplied.
func billRowText(row power.Row, showPower bool) string {
	var sb strings.Builder
	if showPower {
		fmt.Fprintf(&sb, "%.3f mAh (%.1f%%), ", row.MAh, row.Pct)
	}
	fmt.Fprintf(&sb, "%3d events, ", row.Count)
	fmt.Fprintf(&sb, "%6.3fs total ", row.TotalSecs)
	fmt.Fprintf(&sb, "%6.3fs avg ", row.AvgSecs)
	fmt.Fprintf(&sb, "%6.3fs median: ", row.MedianSecs)
	sb.WriteString(row.Name)
	fmt.Fprintf(&sb, " (first at %s)", row.FirstSeen)
	return sb.String()
}
