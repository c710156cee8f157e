package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gridtwin/pkg/contingency"
	"gridtwin/pkg/report"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			MarginTop(1)

	tableStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	headerRowStyle = lipgloss.NewStyle().Bold(true)

	secureStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	skippedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	adviceSecure = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true).
			MarginTop(1)
	adviceAction = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

func statusStyle(s report.Status) lipgloss.Style {
	switch s {
	case report.StatusSecure:
		return secureStyle
	case report.StatusWarning:
		return warningStyle
	case report.StatusCritical, report.StatusCollapse:
		return criticalStyle
	default:
		return skippedStyle
	}
}

func renderReport(rep *report.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("N-1 Contingency Analysis"))
	b.WriteString("\n\n")

	var rows strings.Builder
	rows.WriteString(headerRowStyle.Render(fmt.Sprintf("%-28s %-10s %-18s %10s", "Event", "Kind", "Status", "Loading %")))
	rows.WriteString("\n")
	rows.WriteString(formatRow("base case (all in service)", "-", rep.BaseCase))
	for _, row := range rep.Rows {
		rows.WriteString("\n")
		rows.WriteString(formatRow("trip "+row.ElementID, string(row.Kind), row))
	}
	b.WriteString(tableStyle.Render(rows.String()))
	b.WriteString("\n")

	s := rep.Summary
	b.WriteString(fmt.Sprintf("\nscenarios: %d  solved: %d  diverged: %d  skipped: %d  critical: %d  warnings: %d",
		s.Total, s.Solved, s.Diverged, s.Skipped, s.Critical, s.Warnings))
	if s.WorstElementID != "" {
		b.WriteString(fmt.Sprintf("\nworst case: trip %s at %.1f %% loading", s.WorstElementID, s.WorstLoadingPct))
	}

	advice := adviceAction
	if rep.N1Secure {
		advice = adviceSecure
	}
	b.WriteString("\n")
	b.WriteString(advice.Render(rep.Recommendation))

	return b.String()
}

func formatRow(event, kind string, row report.Row) string {
	loading := "-"
	if row.Outcome == contingency.OutcomeSolved {
		loading = fmt.Sprintf("%.1f", row.MaxLoadingPct)
	}
	line := fmt.Sprintf("%-28s %-10s %-18s %10s", event, kind, row.Status, loading)
	return statusStyle(row.Status).Render(line)
}

func renderError(err error) string {
	return errorStyle.Render("study failed: " + err.Error())
}
