package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/wakeblame/internal/event"
	"github.com/fakeyudi/wakeblame/internal/report"
	"github.com/fakeyudi/wakeblame/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <bugreport | report.json>",
	Short: "Browse an analysis interactively",
	Long: `Analyze a bugreport and browse the result in the terminal.

The argument may also be a JSON report written by a previous analyze run,
which is loaded as-is instead of re-analyzing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		rep, err := loadOrAnalyze(cmd, path, data)
		if err != nil {
			return err
		}

		// Piped output gets the plain rendering without asking.
		if plainOutput || !term.IsTerminal(os.Stdout.Fd()) {
			out, err := (&report.TextRenderer{}).Render(rep)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		}
		return tui.Run(rep, path)
	},
}

// loadOrAnalyze decides what the argument is: a saved JSON report is loaded
// directly, anything else goes through the full analysis pipeline.
func loadOrAnalyze(cmd *cobra.Command, path string, data []byte) (*report.Report, error) {
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err == nil && rep.Source != "" {
		if rep.Timeline == nil {
			rep.Timeline = event.NewTimeline()
		}
		if rep.Highlights == nil {
			rep.Highlights = event.NewTimeline()
		}
		return &rep, nil
	}

	applyConfigDefaults(cmd)
	return runAnalysis(path)
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "print a plain-text summary instead of the TUI")
	viewCmd.Flags().StringVarP(&analyzeOpts.powerFile, "power", "p", "", "power monitor sample file")
	viewCmd.Flags().StringVarP(&analyzeOpts.searchProc, "search", "n", "", "highlight events for this process")
	rootCmd.AddCommand(viewCmd)
}
