package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gridtwin/pkg/contingency"
	"gridtwin/pkg/logging"
	"gridtwin/pkg/metrics"
	"gridtwin/pkg/report"
	"gridtwin/pkg/study"
	"gridtwin/pkg/topology"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			MarginLeft(2).
			MarginTop(1)

	paramBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 2).
			MarginLeft(2)

	summaryBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 2).
			MarginLeft(2).
			MarginTop(1)

	secureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	criticalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true).
			MarginLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)

	focusedLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF00FF"))
	blurredLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

type field int

const (
	fieldWind field = iota
	fieldLoad
	fieldHVDC
	fieldCount
)

type keyMap struct {
	Tab   key.Binding
	Run   key.Binding
	Space key.Binding
	Quit  key.Binding
	Up    key.Binding
	Down  key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	Run: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run study"),
	),
	Space: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "toggle hvdc"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("up/k", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("down/j", "scroll down"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Run, k.Space, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Run, k.Space},
		{k.Up, k.Down, k.Quit},
	}
}

type model struct {
	windInput   textinput.Model
	loadInput   textinput.Model
	hvdcEnabled bool
	focus       field

	resultTable table.Model
	rep         *report.Report
	errMsg      string
	running     bool
	elapsed     time.Duration

	help   help.Model
	keys   keyMap
	width  int
	height int
}

type studyDoneMsg struct {
	rep     *report.Report
	err     error
	elapsed time.Duration
}

func initialModel() model {
	cfg := topology.DefaultConfig()

	wind := textinput.New()
	wind.SetValue(strconv.FormatFloat(cfg.WindMW, 'f', 0, 64))
	wind.CharLimit = 6
	wind.Width = 8
	wind.Focus()

	load := textinput.New()
	load.SetValue(strconv.FormatFloat(cfg.LoadMW, 'f', 0, 64))
	load.CharLimit = 6
	load.Width = 8

	columns := []table.Column{
		{Title: "Event", Width: 30},
		{Title: "Kind", Width: 8},
		{Title: "Status", Width: 18},
		{Title: "Loading %", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(8),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	return model{
		windInput:   wind,
		loadInput:   load,
		hvdcEnabled: cfg.HVDC.Enabled,
		resultTable: t,
		help:        help.New(),
		keys:        keys,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case studyDoneMsg:
		m.running = false
		m.elapsed = msg.elapsed
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.rep = nil
		} else {
			m.errMsg = ""
			m.rep = msg.rep
			m.resultTable.SetRows(toTableRows(msg.rep))
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			m.focus = (m.focus + 1) % fieldCount
			m.windInput.Blur()
			m.loadInput.Blur()
			switch m.focus {
			case fieldWind:
				m.windInput.Focus()
			case fieldLoad:
				m.loadInput.Focus()
			}

		case key.Matches(msg, m.keys.Space) && m.focus == fieldHVDC:
			m.hvdcEnabled = !m.hvdcEnabled

		case key.Matches(msg, m.keys.Run):
			if !m.running {
				cfg, err := m.readConfig()
				if err != nil {
					m.errMsg = err.Error()
					break
				}
				m.running = true
				m.errMsg = ""
				cmds = append(cmds, runStudyCmd(cfg))
			}
		}
	}

	switch m.focus {
	case fieldWind:
		m.windInput, cmd = m.windInput.Update(msg)
		cmds = append(cmds, cmd)
	case fieldLoad:
		m.loadInput, cmd = m.loadInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.resultTable, cmd = m.resultTable.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m model) readConfig() (topology.Config, error) {
	cfg := topology.DefaultConfig()

	wind, err := strconv.ParseFloat(strings.TrimSpace(m.windInput.Value()), 64)
	if err != nil {
		return cfg, fmt.Errorf("wind generation must be a number")
	}
	load, err := strconv.ParseFloat(strings.TrimSpace(m.loadInput.Value()), 64)
	if err != nil {
		return cfg, fmt.Errorf("industrial load must be a number")
	}

	cfg.WindMW = wind
	cfg.LoadMW = load
	cfg.HVDC.Enabled = m.hvdcEnabled
	return cfg, nil
}

func runStudyCmd(cfg topology.Config) tea.Cmd {
	return func() tea.Msg {
		started := time.Now()
		rep, err := study.Run(context.Background(), cfg,
			study.WithLogger(logging.NewNopLogger()),
			study.WithMetrics(metrics.DefaultRegistry()))
		return studyDoneMsg{rep: rep, err: err, elapsed: time.Since(started)}
	}
}

func toTableRows(rep *report.Report) []table.Row {
	rows := make([]table.Row, 0, len(rep.Rows)+1)
	rows = append(rows, table.Row{
		"base case (all in service)", "-", string(rep.BaseCase.Status), formatLoading(rep.BaseCase),
	})
	for _, r := range rep.Rows {
		rows = append(rows, table.Row{
			"trip " + r.ElementID, string(r.Kind), string(r.Status), formatLoading(r),
		})
	}
	return rows
}

func formatLoading(r report.Row) string {
	if r.Outcome != contingency.OutcomeSolved {
		return "-"
	}
	return fmt.Sprintf("%.1f", r.MaxLoadingPct)
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Grid Planning Digital Twin - N-1 Contingency Analysis"))
	s.WriteString("\n\n")
	s.WriteString(paramBoxStyle.Render(m.renderParams()))
	s.WriteString("\n\n")

	switch {
	case m.running:
		s.WriteString(helpStyle.Render("solving contingencies..."))
	case m.errMsg != "":
		s.WriteString(errorStyle.Render("study failed: " + m.errMsg))
	case m.rep != nil:
		s.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(m.resultTable.View()))
		s.WriteString("\n")
		s.WriteString(summaryBoxStyle.Render(m.renderSummary()))
	default:
		s.WriteString(helpStyle.Render("adjust the corridor parameters and press enter to run"))
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return s.String()
}

func (m model) renderParams() string {
	label := func(f field, text string) string {
		if m.focus == f {
			return focusedLabel.Render("> " + text)
		}
		return blurredLabel.Render("  " + text)
	}
	hvdcState := "off"
	if m.hvdcEnabled {
		hvdcState = "on"
	}
	return strings.Join([]string{
		label(fieldWind, "North Wind Generation (MW): ") + m.windInput.View(),
		label(fieldLoad, "South Industrial Load (MW):  ") + m.loadInput.View(),
		label(fieldHVDC, "DC Corridor: ") + hvdcState,
	}, "\n")
}

func (m model) renderSummary() string {
	rep := m.rep
	s := rep.Summary

	verdict := criticalStyle.Render(rep.Recommendation)
	if rep.N1Secure {
		if s.Warnings > 0 {
			verdict = warningStyle.Render(rep.Recommendation)
		} else {
			verdict = secureStyle.Render(rep.Recommendation)
		}
	}

	lines := []string{
		fmt.Sprintf("base case loading: %.1f %%   critical: %d   warnings: %d   run time: %s",
			rep.BaseCase.MaxLoadingPct, s.Critical+s.Diverged, s.Warnings, m.elapsed.Round(time.Millisecond)),
		verdict,
	}
	return strings.Join(lines, "\n")
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running program: %v\n", err)
		os.Exit(1)
	}
}
