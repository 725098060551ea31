package main

import (
	"cmp"
	"fmt"
	"io"
	"strings"

	"prama/internal/deps"
	"prama/internal/preflight"
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

const (
	statusLabelWidth = 26
	statusIndent     = "  "
)

// statusStyles holds the bracketed label and ANSI color for each kind.
var statusStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	status := "[" + style.label + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", status)
	if !colorize {
		return line
	}
	return style.color + line + ansiReset
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	return isTerminal(writer)
}

// dependencyLines renders a summary line followed by one line per dependency.
// Missing optional dependencies are warnings; missing required ones are errors.
func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := []string{dependencySummary(statuses, colorize)}
	for _, status := range statuses {
		kind, message := statusOK, "Ready"
		switch {
		case status.Available && status.Command != "":
			message = fmt.Sprintf("Ready (command: %s)", status.Command)
		case !status.Available:
			kind = statusError
			if status.Optional {
				kind = statusWarn
			}
			message = cmp.Or(strings.TrimSpace(status.Detail), "not available")
		}
		lines = append(lines, renderStatusLine(status.Name, kind, message, colorize))
	}
	return lines
}

func dependencySummary(statuses []deps.Status, colorize bool) string {
	var names []string
	for _, status := range deps.Missing(statuses) {
		names = append(names, status.Name)
	}
	if len(names) == 0 {
		return renderStatusLine("Summary", statusOK, "All required dependencies available", colorize)
	}
	return renderStatusLine("Summary", statusError, "Missing "+strings.Join(names, ", "), colorize)
}

func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, result := range results {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	return lines
}
