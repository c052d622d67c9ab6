package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/componentize-go/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// result is the outcome of one test package.
type result struct {
	err   error
	pkg   string
	path  string
	state pipeline.State
}

// printSummary writes one aligned line per package.
func printSummary(w io.Writer, results []result) {
	width := 0
	for _, r := range results {
		width = max(width, len(r.pkg))
	}
	pkgCol := lipgloss.NewStyle().Width(width + 2)

	var failed int
	for _, r := range results {
		var status, detail string
		if r.err != nil {
			failed++
			status = errorStyle.Render("FAIL")
			detail = firstLine(r.err.Error())
		} else {
			status = okStyle.Render("ok  ")
			detail = pathStyle.Render(r.path) + " " + helpStyle.Render("("+r.state.String()+")")
		}
		fmt.Fprintf(w, "%s %s%s\n", status, pkgCol.Render(r.pkg), detail)
	}
	if failed > 0 {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("%d of %d packages failed", failed, len(results))))
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
