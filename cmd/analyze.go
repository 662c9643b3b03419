package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/wakeblame/internal/event"
	"github.com/fakeyudi/wakeblame/internal/histlog"
	"github.com/fakeyudi/wakeblame/internal/power"
	"github.com/fakeyudi/wakeblame/internal/report"
	"github.com/fakeyudi/wakeblame/internal/store"
	"github.com/fakeyudi/wakeblame/internal/summary"
)

var analyzeOpts struct {
	showAllWakelocks bool
	graceSecs        int
	searchProc       string
	powerFile        string
	powerOffset      int
	powerQuanta      int
	reportName       string
	summarizePct     int
	sortByDuration   bool
	format           string
	output           string
	dbPath           string
	watch            bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <bugreport>",
	Short: "Rebuild the event timeline from a battery history log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		applyConfigDefaults(cmd)

		if err := analyzeOnce(input); err != nil {
			return err
		}
		if analyzeOpts.watch {
			return watchAndReanalyze(input)
		}
		return nil
	},
}

// applyConfigDefaults fills unset flags from the merged config.
func applyConfigDefaults(cmd *cobra.Command) {
	c := GetConfig()
	if !cmd.Flags().Changed("grace") && c.GraceSecs != nil {
		analyzeOpts.graceSecs = *c.GraceSecs
	}
	if !cmd.Flags().Changed("quanta") && c.PowerQuanta != nil {
		analyzeOpts.powerQuanta = *c.PowerQuanta
	}
	if !cmd.Flags().Changed("offset") && c.PowerOffset != nil {
		analyzeOpts.powerOffset = *c.PowerOffset
	}
	if !cmd.Flags().Changed("summarize") && c.SummarizePct != nil {
		analyzeOpts.summarizePct = *c.SummarizePct
	}
	if !cmd.Flags().Changed("search") && c.SearchProc != "" {
		analyzeOpts.searchProc = c.SearchProc
	}
	if !cmd.Flags().Changed("all-wakelocks") && c.ShowAllWakelocks {
		analyzeOpts.showAllWakelocks = true
	}
	if !cmd.Flags().Changed("sort-by-time") && c.SortByDuration {
		analyzeOpts.sortByDuration = true
	}
	if !cmd.Flags().Changed("format") && c.DefaultFormat != "" {
		analyzeOpts.format = c.DefaultFormat
	}
}

func analyzeOnce(input string) error {
	rep, err := runAnalysis(input)
	if err != nil {
		return err
	}

	renderer, ext, err := rendererFor(analyzeOpts.format)
	if err != nil {
		return err
	}

	outputPath := analyzeOpts.output
	if outputPath == "" {
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		dir := GetConfig().OutputDir
		if dir == "" {
			dir = "."
		}
		outputPath = filepath.Join(dir, base+ext)
	}
	if err := report.WriteFile(outputPath, rep, renderer); err != nil {
		return err
	}

	if analyzeOpts.dbPath != "" {
		s, err := store.Open(analyzeOpts.dbPath)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.SaveReport(context.Background(), rep); err != nil {
			return err
		}
	}

	for _, w := range rep.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Printf("Report written to %s\n", outputPath)
	return nil
}

// runAnalysis performs the whole pipeline for one input file: legacy
// conversion, interval reconstruction, summary rows, power metering, and
// billing.
func runAnalysis(input string) (*report.Report, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", input, err)
	}

	legacy := histlog.IsLegacy(data)
	if legacy {
		if data, err = histlog.ConvertLegacy(data); err != nil {
			return nil, fmt.Errorf("converting legacy format: %w", err)
		}
	}

	timeline := event.NewTimeline()
	highlights := event.NewTimeline()
	matcher := event.NewMatcher(event.Options{
		BlameCategory:    GetConfig().BlameCategory,
		GraceSecs:        analyzeOpts.graceSecs,
		SearchProc:       analyzeOpts.searchProc,
		ShowAllWakelocks: analyzeOpts.showAllWakelocks,
	}, timeline, highlights)

	info, err := histlog.Read(bytes.NewReader(data), matcher.HandleEvent)
	if err != nil {
		return nil, fmt.Errorf("reading battery history: %w", err)
	}
	matcher.CloseOpen(info.StopTime, info.StopTimeStr)

	summary.Generate(timeline, info.StartTime, info.StopTime, analyzeOpts.summarizePct)

	meter := power.NewMeter(analyzeOpts.powerQuanta)
	if analyzeOpts.powerFile != "" {
		f, err := os.Open(analyzeOpts.powerFile)
		if err != nil {
			return nil, fmt.Errorf("opening power file: %w", err)
		}
		_, err = power.ReadSamples(f, float64(analyzeOpts.powerOffset),
			func(secs, amps float64) {
				meter.HandleSample(secs, amps, timeline)
			})
		f.Close()
		if err != nil {
			return nil, err
		}
	}

	biller := power.NewBiller(meter)
	if err := biller.Bill(matcher.Blame(), matcher.Occupancy(), analyzeOpts.graceSecs); err != nil {
		// A billing failure means the occupancy bookkeeping is wrong;
		// the numbers cannot be trusted, so refuse to produce a report.
		return nil, err
	}

	source := input
	if analyzeOpts.reportName != "" {
		source = analyzeOpts.reportName
	}
	return &report.Report{
		ID:           uuid.New(),
		Source:       source,
		GeneratedAt:  time.Now(),
		Legacy:       legacy,
		StartTime:    info.StartTime,
		StopTime:     info.StopTime,
		SearchProc:   analyzeOpts.searchProc,
		Matches:      matcher.Matches(),
		Timeline:     timeline,
		Highlights:   highlights,
		Bill:         biller.Report(!analyzeOpts.sortByDuration, analyzeOpts.graceSecs),
		PowerWindows: meter.Windows(),
		Procs:        matcher.ProcTable(),
		SkippedLines: info.Skipped,
		Warnings:     timeline.Warnings(),
	}, nil
}

func rendererFor(format string) (report.Renderer, string, error) {
	switch format {
	case "", "html":
		return &report.HTMLRenderer{}, ".html", nil
	case "text":
		return &report.TextRenderer{}, ".txt", nil
	case "json":
		return &report.JSONRenderer{}, ".json", nil
	default:
		return nil, "", fmt.Errorf("unknown format %q (want html, text, or json)", format)
	}
}

// watchAndReanalyze re-runs the analysis whenever the input file changes.
func watchAndReanalyze(input string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which drops a
	// watch held on the file itself.
	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return fmt.Errorf("watching %s: %w", input, err)
	}
	fmt.Printf("Watching %s for changes (ctrl+c to stop)\n", input)

	target := filepath.Clean(input)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := analyzeOnce(input); err != nil {
				fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		}
	}
}

func init() {
	f := analyzeCmd.Flags()
	f.BoolVarP(&analyzeOpts.showAllWakelocks, "all-wakelocks", "a", false, "show all wakelocks individually instead of coarse labels")
	f.IntVarP(&analyzeOpts.graceSecs, "grace", "e", 0, "bill each event for this many extra seconds after it ends")
	f.StringVarP(&analyzeOpts.searchProc, "search", "n", "", "highlight rows for the process matching this name or PID")
	f.StringVarP(&analyzeOpts.powerFile, "power", "p", "", "power monitor sample file (\"<epoch-secs> <amps>\" lines)")
	f.IntVar(&analyzeOpts.powerOffset, "offset", 0, "seconds to add to power sample timestamps")
	f.IntVarP(&analyzeOpts.powerQuanta, "quanta", "q", power.DefaultQuanta, "power chart window length in seconds")
	f.StringVarP(&analyzeOpts.reportName, "name", "r", "", "report title (defaults to the input filename)")
	f.IntVarP(&analyzeOpts.summarizePct, "summarize", "s", -1, "add summary rows for windows above this percentage; negative disables")
	f.BoolVarP(&analyzeOpts.sortByDuration, "sort-by-time", "t", false, "sort the synopsis by held time instead of charge")
	f.StringVar(&analyzeOpts.format, "format", "", "output format: html, text, or json (overrides config)")
	f.StringVarP(&analyzeOpts.output, "output", "o", "", "output file path")
	f.StringVar(&analyzeOpts.dbPath, "db", "", "also archive the run to this SQLite database")
	f.BoolVar(&analyzeOpts.watch, "watch", false, "re-run the analysis whenever the input file changes")
	rootCmd.AddCommand(analyzeCmd)
}
