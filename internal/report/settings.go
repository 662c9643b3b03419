package report

// rowSetting pins one category to a display slot: its row order, its chart
// color, and the value treated as the idle default.
type rowSetting struct {
	Cat     string
	Color   string
	Default string
}

const defaultColor = "#4070cf"

// rowSettings fixes the top-to-bottom row order of the chart. Highlighted
// search rows render under highlight_wake_lock(_in); everything else keeps
// its category name.
var rowSettings = []rowSetting{
	{"battery_level", "#4070cf", ""},
	{"top", "#dc3912", ""},
	{"status", "#9ac658", "status=charging"},
	{"health", "#888888", "health=good"},
	{"plug", "#888888", "plug=none"},
	{"wifi_full_lock", "#888888", ""},
	{"wifi_scan", "#888888", ""},
	{"wifi_multicast", "#888888", ""},
	{"wifi_running", "#109618", ""},
	{"phone_signal_strength", "#dc3912", "phone_signal_strength=poor"},
	{"wifi_suppl", "#119fc8", ""},
	{"wifi_signal_strength", "#9900aa", ""},
	{"phone_scanning", "#dda0dd", ""},
	{"audio", "#990099", ""},
	{"brightness", "#cbb69d", "brightness=dark"},
	{"screen", "#cbb69d", ""},
	{"plugged", "#2e8b57", ""},
	{"phone_in_call", "#cbb69d", ""},
	{"wifi", "#119fc8", ""},
	{"bluetooth", "#cbb69d", ""},
	{"data_conn", "#4070cf", ""},
	{"phone_state", "#dc3912", "phone_state=off"},
	{"signal_strength", "#119fc8", ""},
	{"video", "#cbb69d", ""},
	{"low_power", "#109618", ""},
	{"fg", "#dda0dd", ""},
	{"sync", "#9900aa", ""},
	{"wake_lock_pct", "#6fae11", ""},
	{"wake_lock", "#cbb69d", ""},
	{"highlight_wake_lock", "#4070cf", ""},
	{"gps", "#ff9900", ""},
	{"running_pct", "#6fae11", ""},
	{"running", "#990099", ""},
	{"wake_reason", "#b82e2e", "wake_reason=0"},
	{"wake_lock_in", "#ff33cc", ""},
	{"highlight_wake_lock_in", "#dc3912", ""},
	{"mobile_radio", "#aa0000", ""},
	{"activepower", "#dd4477", ""},
	{"power", "#ff2222", ""},
}

var knownCats = func() map[string]bool {
	m := make(map[string]bool, len(rowSettings))
	for _, rs := range rowSettings {
		m[rs.Cat] = true
	}
	return m
}()
