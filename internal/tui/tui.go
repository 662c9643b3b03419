// Package tui provides a Bubble Tea TUI for browsing analysis reports.
package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/wakeblame/internal/event"
	"github.com/fakeyudi/wakeblame/internal/report"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	// Active tab: bright, underlined
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	// Inactive tab: muted
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	// Separator between tabs
	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	// Section heading inside a tab
	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	// Key=value label
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	sparkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	// Selected row in the Timeline tab
	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabTimeline
	tabPower
	tabSynopsis
	tabProcesses
	tabCount
)

var tabNames = [tabCount]string{
	"Summary", "Timeline", "Power", "Synopsis", "Processes",
}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	rep       *report.Report
	timeline  *event.Timeline
	cats      []string
	filename  string
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	// Synopsis tab: sort by charge instead of held time
	sortByPower bool
	// Timeline tab: cursor position and expanded set
	catCursor    int
	expandedCats map[int]bool
}

// New creates a new TUI model for the given report and source filename.
func New(rep *report.Report, filename string) Model {
	tl := report.Aggregate(rep.Timeline)
	m := Model{
		rep:          rep,
		timeline:     tl,
		cats:         tl.Categories(),
		filename:     filepath.Base(filename),
		sortByPower:  rep.Bill.SortByPower,
		expandedCats: make(map[int]bool),
	}
	return m
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3", "4", "5":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "s":
			if m.activeTab == tabSynopsis && m.rep.Bill.HasPower {
				m.sortByPower = !m.sortByPower
				m.rebuildSynopsisViewport()
			}
		case "up", "k":
			if m.activeTab == tabTimeline && m.catCursor > 0 {
				m.catCursor--
				m.rebuildTimelineViewport()
				return m, nil
			}
		case "down", "j":
			if m.activeTab == tabTimeline && m.catCursor < len(m.cats)-1 {
				m.catCursor++
				m.rebuildTimelineViewport()
				return m, nil
			}
		case "enter", " ":
			if m.activeTab == tabTimeline && len(m.cats) > 0 {
				if m.expandedCats[m.catCursor] {
					delete(m.expandedCats, m.catCursor)
				} else {
					m.expandedCats[m.catCursor] = true
				}
				m.rebuildTimelineViewport()
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  wakeblame  " + m.filename)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-5 jump  q quit"
	if m.activeTab == tabSynopsis && m.rep.Bill.HasPower {
		order := "held time"
		if m.sortByPower {
			order = "charge"
		}
		hint += "  s sort (" + order + ")"
	}
	if m.activeTab == tabTimeline {
		hint += "  ↑/↓ select  enter expand/collapse"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(
		hint + strings.Repeat(" ", pad) + pct,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) rebuildTimelineViewport() {
	m.viewports[tabTimeline].SetContent(m.renderTab(tabTimeline))
}

func (m *Model) rebuildSynopsisViewport() {
	m.viewports[tabSynopsis].SetContent(m.renderTab(tabSynopsis))
	m.viewports[tabSynopsis].GotoTop()
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabTimeline:
		return m.renderTimeline()
	case tabPower:
		return m.renderPower()
	case tabSynopsis:
		return m.renderSynopsis()
	case tabProcesses:
		return m.renderProcesses()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func bullet(text string) string {
	return bulletStyle.Render("  •") + "  " + text + "\n"
}

func (m *Model) renderSummary() string {
	var sb strings.Builder
	sb.WriteString(heading("Analysis Summary"))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-14s", label)) + "  " + value + "\n")
	}
	row("Source:", m.rep.Source)
	row("Local time:", m.rep.TimeRange())
	row("Elapsed:", fmt.Sprintf("%dm", m.rep.ElapsedMinutes()))
	if m.rep.Legacy {
		row("Format:", "legacy (limited history)")
	}
	if m.rep.SearchProc != "" {
		row("Searched:", m.rep.SearchProc)
	}

	sb.WriteString(heading("Counts"))
	row("Categories:", fmt.Sprintf("%d", len(m.cats)))
	row("Intervals:", fmt.Sprintf("%d", m.timeline.Len()))
	row("Processes:", fmt.Sprintf("%d", len(m.rep.Procs)))
	if m.rep.SkippedLines > 0 {
		row("Skipped:", fmt.Sprintf("%d lines", m.rep.SkippedLines))
	}

	if m.rep.Bill.HasPower {
		sb.WriteString(heading("Power"))
		row("Total:", fmt.Sprintf("%.3f mAh", m.rep.Bill.TotalMAh))
		row("Average:", fmt.Sprintf("%.3f mA", m.rep.Bill.AvgMilliamps))
		row("Samples:", fmt.Sprintf("%d (%d min)", m.rep.Bill.Samples, m.rep.Bill.Samples/60))
	}

	if len(m.rep.Matches) > 1 {
		sb.WriteString(heading("Search Matches"))
		for _, match := range m.rep.Matches {
			sb.WriteString(bullet(match))
		}
	}

	if len(m.rep.Warnings) > 0 {
		sb.WriteString(heading("Warnings"))
		for _, w := range m.rep.Warnings {
			sb.WriteString(warnStyle.Render("  ! ") + w + "\n")
		}
	}
	return sb.String()
}

func (m *Model) renderTimeline() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Timeline Categories (%d)", len(m.cats))))
	if len(m.cats) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for i, cat := range m.cats {
		rows := m.timeline.Rows(cat)
		expanded := m.expandedCats[i]

		toggle := dimStyle.Render("  ▶ ")
		if expanded {
			toggle = dimStyle.Render("  ▼ ")
		}
		line := fmt.Sprintf("%s%-24s %s", toggle, cat,
			dimStyle.Render(fmt.Sprintf("%d intervals", len(rows))))
		if i == m.catCursor {
			line = selectedRowStyle.Width(m.width - 2).Render(line)
		}
		sb.WriteString(line + "\n")

		if expanded {
			for _, iv := range rows {
				span := timeStyle.Render(fmt.Sprintf("%ds", iv.End-iv.Start))
				sb.WriteString(fmt.Sprintf("      %s  %s\n", span, iv.Name))
			}
		}
	}
	return sb.String()
}

func (m *Model) renderPower() string {
	var sb strings.Builder
	wins := m.rep.PowerWindows
	sb.WriteString(heading(fmt.Sprintf("Power Windows (%d)", len(wins))))
	if len(wins) == 0 {
		sb.WriteString(dimStyle.Render("  (no power samples supplied)") + "\n")
		return sb.String()
	}

	values := make([]float64, len(wins))
	for i, w := range wins {
		values[i] = w.AmpSecs
	}
	sparkW := m.width - 4
	sb.WriteString("  " + renderSparkline(values, sparkW) + "\n\n")

	for _, w := range wins {
		sb.WriteString(fmt.Sprintf("  %s  %7.3f As  %.3f A avg\n",
			timeStyle.Render(fmt.Sprintf("%.0f", w.Start)), w.AmpSecs, w.Avg))
	}
	return sb.String()
}

func (m *Model) renderSynopsis() string {
	var sb strings.Builder
	rows := make([]struct {
		name string
		sort float64
		text string
	}, 0, len(m.rep.Bill.Rows))
	for _, r := range m.rep.Bill.Rows {
		key := r.TotalSecs
		if m.sortByPower && m.rep.Bill.HasPower {
			key = r.MAh
		}
		var text string
		if m.rep.Bill.HasPower {
			text = fmt.Sprintf("%.3f mAh (%4.1f%%)  %3d events  %7.3fs held  %s",
				r.MAh, r.Pct, r.Count, r.TotalSecs, r.Name)
		} else {
			text = fmt.Sprintf("%3d events  %7.3fs held  %s", r.Count, r.TotalSecs, r.Name)
		}
		rows = append(rows, struct {
			name string
			sort float64
			text string
		}{r.Name, key, text})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].sort > rows[j].sort })

	sb.WriteString(heading(fmt.Sprintf("Blame Synopsis (%d)", len(rows))))
	if len(rows) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, r := range rows {
		sb.WriteString("  " + r.text + "\n")
	}
	sb.WriteString(fmt.Sprintf("\n  total: %.3f mAh, %d events\n",
		m.rep.Bill.BilledMAh, m.rep.Bill.TotalCount))
	return sb.String()
}

func (m *Model) renderProcesses() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Process Table (%d)", len(m.rep.Procs))))
	if len(m.rep.Procs) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, p := range m.rep.Procs {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %8s", p.ID)) + "  " + p.Name + "\n")
	}
	return sb.String()
}

// ── Helpers ───────────────────────────────────────────────────────────────────

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// renderSparkline draws values as a block-character strip at most w cells
// wide, downsampling when there are more values than cells.
func renderSparkline(values []float64, w int) string {
	if len(values) == 0 || w < 1 {
		return ""
	}

	if len(values) > w {
		step := float64(len(values)) / float64(w)
		sampled := make([]float64, w)
		for i := 0; i < w; i++ {
			idx := int(float64(i) * step)
			if idx >= len(values) {
				idx = len(values) - 1
			}
			sampled[i] = values[idx]
		}
		values = sampled
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	rng := maxV - minV
	if rng == 0 {
		rng = 1
	}

	var sb strings.Builder
	for _, v := range values {
		idx := int((v - minV) / rng * float64(len(sparkBlocks)-1))
		sb.WriteRune(sparkBlocks[idx])
	}
	return sparkStyle.Render(sb.String())
}

// Run starts the TUI for the given report.
func Run(rep *report.Report, filename string) error {
	p := tea.NewProgram(New(rep, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
