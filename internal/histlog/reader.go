// Package histlog reads the battery history section of a bugreport and feeds
// its event tokens, in log order, to a caller-supplied handler. Malformed
// lines are skipped and counted, never fatal.
package histlog

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	historyHeader = "Battery History"
	historyEnd    = "Per-PID"
	resetMarker   = "RESET:TIME: "
)

// Info summarizes one pass over the history section.
type Info struct {
	StartTime   float64 // RESET:TIME anchor, epoch seconds
	StopTime    float64 // last observed event time, epoch seconds
	StopTimeStr string  // last observed elapsed-time string
	Events      int     // tokens handed to the emit callback
	Skipped     int     // lines dropped as malformed
}

var (
	quotedRe = regexp.MustCompile(`"[^"]*"`)
	wsRe     = regexp.MustCompile(`\s+`)
)

// escapeQuotedSpaces replaces whitespace runs inside quoted regions with
// underscores so a plain field split keeps quoted names intact.
func escapeQuotedSpaces(line string) string {
	return quotedRe.ReplaceAllStringFunc(line, func(m string) string {
		return wsRe.ReplaceAllString(m, "_")
	})
}

func parseResetTime(line string) (float64, error) {
	_, rest, ok := strings.Cut(strings.TrimSpace(line), resetMarker)
	if !ok {
		return 0, fmt.Errorf("no reset marker in %q", line)
	}
	t, err := time.ParseInLocation("2006-01-02-15-04-05", rest, time.Local)
	if err != nil {
		return 0, fmt.Errorf("parse reset time: %w", err)
	}
	return float64(t.Unix()), nil
}

// Read scans the history section of r and calls emit once per event token,
// strictly in log order. Battery-level changes are synthesized as
// "battery_level=N" tokens; a line carrying only an unchanged level is a
// no-op row. Lines before the "Battery History" header and after the
// "Per-PID" trailer are ignored.
func Read(r io.Reader, emit func(eventTime float64, timeStr, event string)) (Info, error) {
	var info Info
	on := false
	prevLevel := ""

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()

		if !on {
			if strings.HasPrefix(line, historyHeader) {
				on = true
			}
			continue
		}
		if strings.Contains(line, resetMarker) {
			start, err := parseResetTime(line)
			if err != nil {
				info.Skipped++
				continue
			}
			info.StartTime = start
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.Contains(line, historyEnd) {
			break
		}

		fields := strings.Fields(escapeQuotedSpaces(line))
		if len(fields) < 4 {
			info.Skipped++
			continue
		}
		level, err := strconv.Atoi(fields[2])
		if err != nil || level < 0 || level > 100 {
			info.Skipped++
			continue
		}

		timeStr := fields[0]
		delta, err := ParseDuration(timeStr)
		if err != nil {
			info.Skipped++
			continue
		}
		eventTime := info.StartTime + delta

		// battery_level is carried on every line, not logged as an event.
		if fields[2] != prevLevel {
			emit(eventTime, timeStr, "battery_level="+fields[2])
			info.Events++
		}
		for _, ev := range fields[4:] {
			if strings.TrimSpace(ev) == "" {
				continue
			}
			emit(eventTime, timeStr, ev)
			info.Events++
		}

		prevLevel = fields[2]
		info.StopTime = eventTime
		info.StopTimeStr = timeStr
	}
	if err := sc.Err(); err != nil {
		return info, fmt.Errorf("scan history: %w", err)
	}
	return info, nil
}
