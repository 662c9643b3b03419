package event

import "strings"

// Tokens are raw event strings such as "+wake_lock_in=u0a7:\"job\"". A
// leading "+" begins an interval, "-" ends one, and no marker is an
// instantaneous event.

// Category strips the begin/end marker and returns the part before "=".
func Category(e string) string {
	cat, _, _ := strings.Cut(strings.TrimLeft(e, "+-"), "=")
	return cat
}

// SubCategory returns the payload after "=" for concurrent categories, so
// simultaneously open instances stay distinguishable. Everything else shares
// the empty sub-category: at most one open instance at a time.
func SubCategory(cat, e string) string {
	if Lookup(cat).Concurrent {
		return afterEqual(e)
	}
	return ""
}

// ProcPair splits an "id:name" payload. Both strings are empty when the
// token carries no process reference.
func ProcPair(e string) (id, name string) {
	if !strings.Contains(e, ":") {
		return "", ""
	}
	id, name, _ = strings.Cut(afterEqual(e), ":")
	return id, name
}

func afterEqual(e string) string {
	_, rest, _ := strings.Cut(e, "=")
	return rest
}

func isBegin(e string) bool {
	return strings.HasPrefix(e, "+")
}

func isStandalone(e string) bool {
	return !strings.HasPrefix(e, "+") && !strings.HasPrefix(e, "-")
}

// abbrevTimeStr chops the millisecond tail off an elapsed-time string for
// the name suffix, e.g. "+1m10s103ms" -> "+1m10s".
func abbrevTimeStr(s string) string {
	parts := strings.Split(s, "s")
	if len(parts) < 3 {
		return "0s"
	}
	return parts[0] + "s"
}
