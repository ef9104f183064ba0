package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"docforge/internal/document"
)

// Semantic colors for diagnostic output.
var (
	colorError   = lipgloss.Color("#e53935") // Red
	colorWarning = lipgloss.Color("#FFC107") // Yellow
	colorInfo    = lipgloss.Color("#2196F3") // Blue
	colorSuccess = lipgloss.Color("#8BC34A") // Lime Green
	colorMuted   = lipgloss.Color("#808080")
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

// printDiagnostics writes a styled listing of all findings.
func printDiagnostics(diags []document.Diagnostic) {
	for _, d := range diags {
		var tag string
		switch d.Severity {
		case document.SeverityError:
			tag = errorStyle.Render("ERROR")
		case document.SeverityWarning:
			tag = warningStyle.Render("WARN ")
		default:
			tag = infoStyle.Render("INFO ")
		}
		loc := d.Doc
		if d.Line > 0 {
			loc = fmt.Sprintf("%s:%d", d.Doc, d.Line)
		}
		fmt.Printf("%s %s %s %s\n", tag, mutedStyle.Render(loc), mutedStyle.Render("["+d.Check+"]"), d.Message)
	}
}

// printSummary writes the one-line outcome.
func printSummary(diags []document.Diagnostic, failed bool) {
	errs, warns, infos := document.CountBySeverity(diags)
	line := fmt.Sprintf("%d errors, %d warnings, %d notes", errs, warns, infos)
	if failed {
		fmt.Println(errorStyle.Render("FAIL") + " " + line)
	} else {
		fmt.Println(successStyle.Render("OK") + "   " + line)
	}
}
