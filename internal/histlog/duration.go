package histlog

import (
	"fmt"
	"regexp"
	"time"
)

// Battery history timestamps are elapsed-time strings such as "+1d2h3m4s5ms".
// The legacy (KitKat) format uses the same shape with a leading "-".
var durationRe = regexp.MustCompile(
	`^[+-]?((?P<day>\d+)d)?((?P<hrs>\d+)h)?((?P<min>\d+)m)?((?P<sec>\d+)s)?((?P<ms>\d+)ms)?$`)

var errBadDuration = fmt.Errorf("malformed duration string")

// ParseDuration converts an elapsed-time string into seconds. The literal "0"
// is zero seconds.
func ParseDuration(s string) (float64, error) {
	if s == "0" {
		return 0, nil
	}
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", errBadDuration, s)
	}

	var secs float64
	for i, name := range durationRe.SubexpNames() {
		if m[i] == "" {
			continue
		}
		var v float64
		fmt.Sscanf(m[i], "%f", &v)
		switch name {
		case "day":
			secs += v * 24 * 60 * 60
		case "hrs":
			secs += v * 60 * 60
		case "min":
			secs += v * 60
		case "sec":
			secs += v
		case "ms":
			secs += v / 1000
		}
	}
	return secs, nil
}

// FormatDuration renders an elapsed number of seconds the way the history log
// writes it: the largest unit leads and zero-valued leading units are dropped,
// e.g. 3723.5s -> "+1h2m3s500ms".
func FormatDuration(secs float64) string {
	if secs == 0 {
		return "0"
	}
	d := time.Duration(secs * float64(time.Second)).Round(time.Millisecond)

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hrs := d / time.Hour
	d -= hrs * time.Hour
	mins := d / time.Minute
	d -= mins * time.Minute
	s := d / time.Second
	ms := (d - s*time.Second) / time.Millisecond

	out := "+"
	switch {
	case days > 0:
		out += fmt.Sprintf("%dd%dh%dm%ds", days, hrs, mins, s)
	case hrs > 0:
		out += fmt.Sprintf("%dh%dm%ds", hrs, mins, s)
	case mins > 0:
		out += fmt.Sprintf("%dm%ds", mins, s)
	case s > 0:
		out += fmt.Sprintf("%ds", s)
	}
	return out + fmt.Sprintf("%03dms", ms)
}
