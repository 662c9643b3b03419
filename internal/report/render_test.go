package report_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"pgregory.net/rapid"

	"github.com/fakeyudi/wakeblame/internal/event"
	"github.com/fakeyudi/wakeblame/internal/power"
	"github.com/fakeyudi/wakeblame/internal/report"
)

func sampleReport() *report.Report {
	tl := event.NewTimeline()
	tl.Add("wake_lock", `wake_lock="lock"(+10s-+15s)`, 1400000010, 1400000015)
	tl.Add("screen", "screen(+0s-+20s)", 1400000000, 1400000020)

	hl := event.NewTimeline()

	return &report.Report{
		ID:          uuid.New(),
		Source:      "bugreport.txt",
		GeneratedAt: time.Now(),
		StartTime:   1400000000,
		StopTime:    1400000020,
		Timeline:    tl,
		Highlights:  hl,
		Bill: power.BillReport{
			HasPower:     true,
			Samples:      20,
			TotalMAh:     0.5,
			AvgMilliamps: 90,
			TotalCount:   1,
			BilledMAh:    0.139,
			Rows: []power.Row{{
				Name: `wake_lock="lock"`, MAh: 0.139, Pct: 27.8,
				Count: 1, TotalSecs: 5, AvgSecs: 5, MedianSecs: 5,
				FirstSeen: "12:00:10",
			}},
		},
		Procs: []event.ProcEntry{{ID: "310", Name: `"com.example.app"`}},
	}
}

func TestTextRenderer(t *testing.T) {
	out, err := (&report.TextRenderer{}).Render(sampleReport())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := string(out)

	for _, want := range []string{
		"Battery history analysis for bugreport.txt",
		"Total power: 0.500 mAh, avg 90.000 mA",
		"0.139 mAh (27.8%)",
		" 5.000s total ",
		`310: "com.example.app"`,
		"total: 0.139 mAh, 1 events",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestTextRendererNoPowerShowsEventSummary(t *testing.T) {
	rep := sampleReport()
	rep.Bill.HasPower = false

	out, err := (&report.TextRenderer{}).Render(rep)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := string(out)
	if !strings.Contains(text, "Event summary:") {
		t.Error("missing Event summary header")
	}
	if strings.Contains(text, "mAh (") {
		t.Error("charge columns rendered without power data")
	}
}

func TestHTMLRendererStructure(t *testing.T) {
	rep := sampleReport()
	out, err := (&report.HTMLRenderer{}).Render(rep)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"google.visualization.Timeline",
		"dataTable.addRows([",
		"colorByRowLabel: true",
		"'#cbb69d', ", // wake_lock and screen share this color
		"Process table:",
		"</html>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html output missing %q", want)
		}
	}

	// Power data present but no wake_lock_in row: the report must say how
	// to enable full wakelock history.
	if !strings.Contains(html, "full-wake-history") {
		t.Error("missing wake_lock_in advisory")
	}
}

func TestHTMLRendererJSDatesZeroBasedMonth(t *testing.T) {
	rep := sampleReport()
	out, err := (&report.HTMLRenderer{}).Render(rep)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	lt := time.Unix(1400000000, 0)
	want := fmt.Sprintf("new Date(%d,%d,%d,", lt.Year(), int(lt.Month())-1, lt.Day())
	if !strings.Contains(string(out), want) {
		t.Errorf("html output missing %q; JS Date months are zero-based", want)
	}
}

func TestHTMLRendererMultipleMatchWarning(t *testing.T) {
	rep := sampleReport()
	rep.SearchProc = "gms"
	rep.Matches = []string{`"com.google.android.gms"`, `"com.google.android.gms.ui"`}

	out, err := (&report.HTMLRenderer{}).Render(rep)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, "Multiple matches found") {
		t.Error("missing multiple-match warning")
	}
	if !strings.Contains(html, `Showing result for "com.google.android.gms"`) {
		t.Error("missing adopted-match line")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	rep := sampleReport()
	if err := report.WriteFile(path, rep, &report.JSONRenderer{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("written report is not valid JSON: %v", err)
	}
	if decoded["source"] != "bugreport.txt" {
		t.Errorf("source = %v, want bugreport.txt", decoded["source"])
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

// Every synopsis row and process entry must survive into every rendering.
func TestRenderCompleteness(t *testing.T) {
	renderers := []report.Renderer{
		&report.TextRenderer{},
		&report.HTMLRenderer{},
		&report.JSONRenderer{},
	}

	rapid.Check(t, func(t *rapid.T) {
		rep := sampleReport()
		rep.Bill.Rows = nil

		numRows := rapid.IntRange(1, 5).Draw(t, "num_rows")
		for i := 0; i < numRows; i++ {
			rep.Bill.Rows = append(rep.Bill.Rows, power.Row{
				Name:      fmt.Sprintf("wake_lock=%d", rapid.IntRange(0, 9999).Draw(t, "lock_id")),
				MAh:       rapid.Float64Range(0, 10).Draw(t, "mah"),
				Count:     rapid.IntRange(1, 100).Draw(t, "count"),
				TotalSecs: rapid.Float64Range(0, 600).Draw(t, "total"),
				FirstSeen: "00:00:00",
			})
		}
		rep.Procs = nil
		numProcs := rapid.IntRange(1, 5).Draw(t, "num_procs")
		for i := 0; i < numProcs; i++ {
			rep.Procs = append(rep.Procs, event.ProcEntry{
				ID:   fmt.Sprintf("%d", 1000+i),
				Name: fmt.Sprintf(`"app.%d"`, rapid.IntRange(0, 9999).Draw(t, "app")),
			})
		}

		for _, r := range renderers {
			out, err := r.Render(rep)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			text := string(out)
			for _, row := range rep.Bill.Rows {
				if !strings.Contains(text, row.Name) {
					t.Errorf("%T output missing synopsis %q", r, row.Name)
				}
			}
			for _, p := range rep.Procs {
				if !strings.Contains(text, p.ID) {
					t.Errorf("%T output missing process %q", r, p.ID)
				}
			}
		}
	})
}
