package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	label  string
	colors text.Colors
}{
	statusInfo:  {"INFO", text.Colors{text.FgBlue}},
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusWarn:  {"WARN", text.Colors{text.FgYellow}},
	statusError: {"ERROR", text.Colors{text.FgRed, text.Bold}},
}

const statusLabelWidth = 22

// renderStatusLine formats "  label:   [KIND] message", coloured by kind.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	status := "[" + style.label + "]"
	if message != "" {
		status += " " + message
	}
	line := "  " + text.AlignLeft.Apply(label+":", statusLabelWidth) + " " + status
	if colorize {
		return style.colors.Sprint(line)
	}
	return line
}

// checkKind maps a check to a status. Failed checks that do not block a run
// are warnings.
func checkKind(passed, blocking bool) statusKind {
	switch {
	case passed:
		return statusOK
	case blocking:
		return statusError
	default:
		return statusWarn
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	lines := []string{heading, strings.Repeat("-", len(heading))}
	if colorize {
		for i := range lines {
			lines[i] = statusStyles[statusInfo].colors.Sprint(lines[i])
		}
	}
	return lines
}

func shouldColorize(w io.Writer) bool {
	if _, off := os.LookupEnv("NO_COLOR"); off {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
