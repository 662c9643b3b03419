package event

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/fakeyudi/wakeblame/internal/quantize"
)

// Options configure one matching run. The struct is built once by the caller
// and never mutated afterwards.
type Options struct {
	// BlameCategory is the category whose intervals receive proportional
	// power attribution.
	BlameCategory string
	// GraceSecs extends each blame interval's billing window past its
	// nominal end, to capture trailing resource cost.
	GraceSecs int
	// SearchProc highlights intervals owned by processes whose name
	// contains this string.
	SearchProc string
	// ShowAllWakelocks disables the noisy-name abbreviation table.
	ShowAllWakelocks bool
}

// BlameRecord is one blame-category interval with its true (un-rounded)
// bounds, retained in emission order for billing.
type BlameRecord struct {
	Name  string
	Start float64
	End   float64
}

// ProcEntry is one row of the process directory.
type ProcEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type streamKey struct {
	cat string
	sub string
}

type openEntry struct {
	name     string
	start    float64
	startStr string
}

// Matcher reconstructs closed intervals from the ordered token stream. It
// owns all open-interval and process-directory state for one run.
type Matcher struct {
	opts Options

	open  map[streamKey]openEntry
	procs map[string]string

	searchProcID string
	matches      []string

	blame []BlameRecord
	occ   quantize.Occupancy

	timeline   *Timeline
	highlights *Timeline
}

// NewMatcher wires a matcher to the timelines it emits into.
func NewMatcher(opts Options, timeline, highlights *Timeline) *Matcher {
	return &Matcher{
		opts:       opts,
		open:       make(map[streamKey]openEntry),
		procs:      make(map[string]string),
		occ:        quantize.Occupancy{},
		timeline:   timeline,
		highlights: highlights,
	}
}

// HandleEvent consumes one token. Begin tokens are held until their end
// arrives; end and instantaneous tokens emit an interval immediately.
func (m *Matcher) HandleEvent(eventTime float64, timeStr, e string) {
	if e == "" {
		return
	}
	cat := Category(e)
	flags := Lookup(cat)
	sub := SubCategory(cat, e)

	// Conditions already active when the capture opened show up unmarked
	// on the elapsed-time-zero line.
	if timeStr == "0" && isStandalone(e) && flags.Transitional {
		e = "+" + e
	}
	if strings.HasPrefix(e, "+proc") {
		m.storeProc(e)
	}
	if flags.Omit {
		return
	}

	if isBegin(e) {
		m.open[streamKey{cat, sub}] = openEntry{name: e, start: eventTime, startStr: timeStr}
		return
	}

	name, start, startStr := e, eventTime, timeStr
	if oe, ok := m.open[streamKey{cat, sub}]; ok {
		delete(m.open, streamKey{cat, sub})
		name, start, startStr = oe.name, oe.start, oe.startStr
	}
	// No matching begin means a truncated capture; the token becomes a
	// zero-width interval at its own time.
	m.emit(cat, name, start, startStr, e, eventTime, timeStr)
}

// CloseOpen force-closes every still-open interval at the stream's final
// observed time, exactly as if a matching end token had arrived.
func (m *Matcher) CloseOpen(endTime float64, endTimeStr string) {
	keys := make([]streamKey, 0, len(m.open))
	for k := range m.open {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].cat != keys[j].cat {
			return keys[i].cat < keys[j].cat
		}
		return keys[i].sub < keys[j].sub
	})
	for _, k := range keys {
		oe := m.open[k]
		delete(m.open, k)
		m.emit(k.cat, oe.name, oe.start, oe.startStr, oe.name, endTime, endTimeStr)
	}
}

func (m *Matcher) emit(cat, beginName string, start float64, startStr string,
	endName string, end float64, endStr string) {

	beginProcID, beginProcName := ProcPair(beginName)
	endProcID, endProcName := ProcPair(endName)
	full, short := m.processEventName(beginName, startStr, endStr)

	if strings.Contains(cat, "wake_lock") {
		endFull, _ := m.processEventName(endName, startStr, endStr)
		if m.searchProcID != "" && beginProcID == m.searchProcID {
			m.highlights.Add("highlight_"+cat, full, start, end)
		}
		if m.searchProcID != "" && endProcName != "" &&
			endProcName != beginProcName && endProcID == m.searchProcID {
			m.highlights.Add("highlight_"+cat, endFull, start, end)
		}
		if beginProcName != endProcName {
			// Ownership changed mid-interval: add a second row named for
			// the end owner.
			if endProcName != "" {
				m.timeline.Add(cat, endFull, start, end)
			}
			// A bare wake_lock begin with no id adds nothing once the
			// identified end-owner row exists.
			if cat == "wake_lock" && endProcID != "" && beginProcID == "" {
				return
			}
		}
	}

	if cat == m.opts.BlameCategory {
		m.blame = append(m.blame, BlameRecord{Name: short, Start: start, End: end})
		m.occ.Record(start, end+float64(m.opts.GraceSecs))
	}

	if end-start < 1 {
		// Sub-second rows get a full second so they stay visible. Billing
		// above already saw the true end time.
		end++
	}
	m.timeline.Add(cat, full, start, end)
}

// processEventName resolves and decorates a token into its display name:
// alarm payloads gain the owning process name, noisy wakelock names collapse
// to coarse labels, and the active time range is appended.
func (m *Matcher) processEventName(name, startStr, endStr string) (full, short string) {
	name = m.annotateName(name)
	name = m.abbreviateName(name)
	short = name
	full = name + "(" + abbrevTimeStr(startStr) + "-" + abbrevTimeStr(endStr) + ")"
	return full, short
}

func (m *Matcher) annotateName(name string) string {
	if !strings.Contains(name, "*alarm*") {
		return name
	}
	id, _, _ := strings.Cut(afterEqual(name), ":")
	return name + ":" + m.procs[id]
}

func (m *Matcher) abbreviateName(name string) string {
	if m.opts.ShowAllWakelocks || !strings.Contains(name, "wake_lock") {
		return name
	}
	for _, marker := range []string{
		"LocationManagerService", "NlpWakeLock", "UlrDispatching",
		"GCoreFlp", "GeofencerStateMachine", "NlpCollectorWakeLock",
		"WAKEUP_LOCATOR",
	} {
		if strings.Contains(name, marker) {
			return "LOCATION"
		}
	}
	if strings.Contains(name, "GCM") || strings.Contains(name, "C2DM") {
		return "GCM"
	}
	return name
}

// storeProc records a "+proc=<id>:<name>" declaration. Later declarations
// for the same id overwrite earlier ones. When a search name is configured,
// the first containing match is adopted; a later exact match takes over and
// resets any highlights collected for the provisional one.
func (m *Matcher) storeProc(e string) {
	id, name, ok := strings.Cut(afterEqual(e), ":")
	if !ok {
		return
	}
	m.procs[id] = name

	if m.opts.SearchProc == "" || id == "" || !strings.Contains(name, m.opts.SearchProc) {
		return
	}
	if !lo.Contains(m.matches, name) {
		m.matches = append(m.matches, name)
	}
	switch {
	case m.searchProcID == "":
		m.searchProcID = id
	case m.searchProcID != id:
		if trimOuter(name) == m.opts.SearchProc || name == m.opts.SearchProc {
			m.highlights.Reset()
			m.searchProcID = id
			m.matches[0], m.matches[len(m.matches)-1] =
				m.matches[len(m.matches)-1], m.matches[0]
		}
	}
}

// trimOuter drops the surrounding quote characters of a logged process name.
func trimOuter(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

// Blame returns the blame-category records in emission order.
func (m *Matcher) Blame() []BlameRecord {
	return m.blame
}

// Occupancy returns the per-second held time of the blame category,
// including the configured grace extension.
func (m *Matcher) Occupancy() quantize.Occupancy {
	return m.occ
}

// Matches lists process names that matched the configured search, the
// adopted one first.
func (m *Matcher) Matches() []string {
	return m.matches
}

// ProcName resolves a process id; empty when the id was never declared.
func (m *Matcher) ProcName(id string) string {
	return m.procs[id]
}

// ProcTable returns the full process directory sorted by id.
func (m *Matcher) ProcTable() []ProcEntry {
	entries := lo.MapToSlice(m.procs, func(id, name string) ProcEntry {
		return ProcEntry{ID: id, Name: name}
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}
