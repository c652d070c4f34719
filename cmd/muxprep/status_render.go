package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"muxprep/internal/history"
	"muxprep/internal/normalize"
	"muxprep/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// statusLabelWidth aligns the bracketed status after "<label>:".
const statusLabelWidth = 20

type statusStyle struct {
	tag   string
	color string
}

var statusStyles = map[statusKind]statusStyle{
	statusInfo:  {tag: "INFO", color: ansiBlue},
	statusOK:    {tag: "OK", color: ansiGreen},
	statusWarn:  {tag: "WARN", color: ansiYellow},
	statusError: {tag: "ERROR", color: ansiRed},
}

func (k statusKind) style() statusStyle {
	if style, ok := statusStyles[k]; ok {
		return style
	}
	return statusStyles[statusInfo]
}

func paint(text, color string, colorize bool) string {
	if !colorize || color == "" {
		return text
	}
	return color + text + ansiReset
}

// renderStatusLine renders "  <label>:  [TAG] message", coloured as a whole.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := kind.style()
	status := "[" + style.tag + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", status)
	return paint(line, style.color, colorize)
}

// outcomeKind maps a file outcome to the kind used in tables and summaries.
func outcomeKind(status history.Status) statusKind {
	switch status {
	case history.StatusSucceeded:
		return statusOK
	case history.StatusSkipped, history.StatusPlanned:
		return statusInfo
	case history.StatusRejected:
		return statusWarn
	default:
		return statusError
	}
}

func colorStatus(status history.Status, colorize bool) string {
	return paint(string(status), outcomeKind(status).style().color, colorize)
}

// preflightKind reports missing optional tools as warnings rather than OK.
func preflightKind(r preflight.Result) statusKind {
	switch {
	case !r.Passed:
		return statusError
	case strings.HasPrefix(r.Detail, "optional"):
		return statusWarn
	default:
		return statusOK
	}
}

// normalizationKind colours the terminal normalization state of a plan.
func normalizationKind(state normalize.State) statusKind {
	switch state {
	case normalize.StateApplying:
		return statusOK
	case normalize.StateFailed:
		return statusWarn
	default:
		return statusInfo
	}
}

// renderCounts renders "3 succeeded, 1 failed" in status order, skipping
// zero counts.
func renderCounts(counts map[history.Status]int, colorize bool) string {
	order := []history.Status{
		history.StatusSucceeded, history.StatusPlanned, history.StatusSkipped,
		history.StatusRejected, history.StatusFailed,
	}
	parts := make([]string, 0, len(order))
	for _, status := range order {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, colorStatus(status, colorize)))
		}
	}
	return strings.Join(parts, ", ")
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	return []string{
		paint(heading, ansiBlue, colorize),
		paint(strings.Repeat("-", len(heading)), ansiBlue, colorize),
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
