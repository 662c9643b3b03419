package event

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Interval is one closed occurrence of a named condition, quantized to whole
// seconds for presentation.
type Interval struct {
	Name  string `json:"name"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

// Timeline collects emitted intervals grouped by category, in emission order
// within each category.
type Timeline struct {
	rows     map[string][]Interval
	warnings []string
}

func NewTimeline() *Timeline {
	return &Timeline{rows: make(map[string][]Interval)}
}

// Add stores an interval. An end before its start indicates an upstream
// bookkeeping problem; the row is still stored (matching the original tool)
// but flagged as a warning.
func (t *Timeline) Add(cat, name string, start, end float64) {
	if end < start {
		t.warnings = append(t.warnings,
			fmt.Sprintf("%s interval %q ends before it starts (%v < %v)", cat, name, end, start))
	}
	t.rows[cat] = append(t.rows[cat], Interval{Name: name, Start: int64(start), End: int64(end)})
}

// Rows returns the intervals of one category in emission order.
func (t *Timeline) Rows(cat string) []Interval {
	return t.rows[cat]
}

func (t *Timeline) Has(cat string) bool {
	_, ok := t.rows[cat]
	return ok
}

// Categories returns all populated category names, sorted.
func (t *Timeline) Categories() []string {
	cats := make([]string, 0, len(t.rows))
	for cat := range t.rows {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}

// Len is the total interval count across categories.
func (t *Timeline) Len() int {
	n := 0
	for _, rows := range t.rows {
		n += len(rows)
	}
	return n
}

// Remove drops a whole category row.
func (t *Timeline) Remove(cat string) {
	delete(t.rows, cat)
}

// Reset discards all rows. Used when a partial highlight match is replaced
// by a complete one.
func (t *Timeline) Reset() {
	t.rows = make(map[string][]Interval)
	t.warnings = nil
}

func (t *Timeline) Warnings() []string {
	return t.warnings
}

func (t *Timeline) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.rows)
}

func (t *Timeline) UnmarshalJSON(data []byte) error {
	rows := make(map[string][]Interval)
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	t.rows = rows
	return nil
}
