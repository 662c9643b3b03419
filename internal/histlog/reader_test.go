package histlog

import (
	"strings"
	"testing"
	"time"
)

type recorded struct {
	time    float64
	timeStr string
	event   string
}

func readAll(t *testing.T, log string) (Info, []recorded) {
	t.Helper()
	var got []recorded
	info, err := Read(strings.NewReader(log), func(eventTime float64, timeStr, event string) {
		got = append(got, recorded{eventTime, timeStr, event})
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return info, got
}

const sampleLog = `Battery History
RESET:TIME: 2015-03-10-11-00-00
0 _ 100 s -wifi +running +wake_lock=u0a7:"*alarm*:com.x"
+5s000ms _ 100 s -running
+10s000ms _ 099 s +wifi
garbage line
+15s000ms _ 250 s +bogus_level_line
+20s000ms _ 099 s "quoted name here"=done
Per-PID stats:
+25s000ms _ 099 s +never_seen
`

func TestReadEmitsInLogOrder(t *testing.T) {
	info, got := readAll(t, sampleLog)

	anchor, err := time.ParseInLocation("2006-01-02-15-04-05", "2015-03-10-11-00-00", time.Local)
	if err != nil {
		t.Fatal(err)
	}
	start := float64(anchor.Unix())
	if info.StartTime != start {
		t.Fatalf("StartTime = %v, want %v", info.StartTime, start)
	}

	want := []recorded{
		{start, "0", "battery_level=100"},
		{start, "0", "-wifi"},
		{start, "0", "+running"},
		{start, "0", `+wake_lock=u0a7:"*alarm*:com.x"`},
		{start + 5, "+5s000ms", "-running"},
		{start + 10, "+10s000ms", "battery_level=099"},
		{start + 10, "+10s000ms", "+wifi"},
		{start + 20, "+20s000ms", `"quoted_name_here"=done`},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if info.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2 (garbage line, bogus level)", info.Skipped)
	}
	if info.StopTime != start+20 {
		t.Errorf("StopTime = %v, want %v", info.StopTime, start+20)
	}
	if info.StopTimeStr != "+20s000ms" {
		t.Errorf("StopTimeStr = %q, want +20s000ms", info.StopTimeStr)
	}
}

func TestReadIgnoresPreamble(t *testing.T) {
	log := "some dumpsys noise\n+1s000ms _ 50 s +wifi\n" + sampleLog
	_, got := readAll(t, log)
	for _, r := range got {
		if r.timeStr == "+1s000ms" {
			t.Fatal("line before Battery History header was not ignored")
		}
	}
}

func TestReadStopsAtTrailer(t *testing.T) {
	_, got := readAll(t, sampleLog)
	for _, r := range got {
		if r.event == "+never_seen" {
			t.Fatal("event after Per-PID trailer was not ignored")
		}
	}
}

func TestReadUnchangedLevelIsNoOp(t *testing.T) {
	log := `Battery History
RESET:TIME: 2015-03-10-11-00-00
0 _ 100 s +wifi
+5s000ms _ 100 s
+10s000ms _ 100 s
Per-PID
`
	info, got := readAll(t, log)
	if len(got) != 2 {
		t.Fatalf("got %d events %v, want battery_level + wifi only", len(got), got)
	}
	// Lines with only an unchanged battery level still advance the clock.
	if info.StopTimeStr != "+10s000ms" {
		t.Errorf("StopTimeStr = %q, want +10s000ms", info.StopTimeStr)
	}
}
