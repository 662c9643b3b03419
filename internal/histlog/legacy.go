package histlog

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"
)

// IsLegacy reports whether data is a KitKat-era bugreport, detected by the
// first history timestamp counting backwards (a leading "-") instead of
// forwards from the reset anchor.
func IsLegacy(data []byte) bool {
	on := false
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !on {
			if strings.Contains(line, historyHeader) {
				on = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		lineTime := fields[0]
		if !strings.Contains(lineTime, "+") && !strings.Contains(lineTime, "-") {
			continue
		}
		return lineTime[0] == '-'
	}
	return false
}

// ConvertLegacy rewrites a KitKat-format history into the modern layout: the
// backward-counting timestamps are anchored to the dumpstate end time and
// flipped into forward elapsed-time strings under a synthesized RESET:TIME
// header.
func ConvertLegacy(data []byte) ([]byte, error) {
	endTime, err := legacyEndTime(data)
	if err != nil {
		return nil, err
	}

	var out strings.Builder
	historyStart := false
	totalDuration := -1.0

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !historyStart {
			if strings.HasPrefix(line, historyHeader) {
				historyStart = true
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.Contains(line, historyEnd) {
			break
		}

		fields := strings.Fields(escapeQuotedSpaces(strings.TrimSpace(line)))
		if len(fields) < 4 {
			continue
		}
		lineTime, level, state := fields[0], fields[1], fields[2]
		events := fields[3:]

		back, err := ParseDuration(lineTime)
		if err != nil {
			continue
		}
		if totalDuration < 0 {
			// First history line carries the full capture length.
			totalDuration = back
			start := endTime - totalDuration
			out.WriteString(historyHeader + "\n")
			fmt.Fprintf(&out, "%s%s\n", resetMarker,
				time.Unix(int64(start), 0).Format("2006-01-02-15-04-05"))
		}

		fmt.Fprintf(&out, "%s _ %s %s %s\n",
			FormatDuration(totalDuration-back), level, state, strings.Join(events, " "))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan legacy history: %w", err)
	}

	out.WriteString(historyEnd + "\n")
	return []byte(out.String()), nil
}

func legacyEndTime(data []byte) (float64, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		_, rest, ok := strings.Cut(line, "dumpstate: ")
		if !ok {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02 15:04:05", rest, time.Local)
		if err != nil {
			continue
		}
		return float64(t.Unix()), nil
	}
	return 0, fmt.Errorf("legacy bugreport: cannot find dumpstate end time")
}
