// Package render turns span sequences into presentation output for the
// relens CLI tool: ANSI-highlighted text for terminals, marker-delimited
// plain text for pipes, and JSON for downstream tooling. Every format
// preserves the spans' original order, so the full input text is always
// reconstructable from the output.
package render

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/pcorbett/relens/internal/segment"
)

// markers that delimit matched spans in plain output
const (
	matchOpen  = "«"
	matchClose = "»"
)

// highlight treatment for matched spans; lipgloss degrades this to plain
// text automatically when the output profile has no color support
var matchStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("16")).
	Background(lipgloss.Color("220"))

// Highlight renders spans as a single string with matched regions styled
// for terminal display and unmatched regions passed through verbatim.
func Highlight(spans []segment.Span) string {
	var out strings.Builder
	for _, s := range spans {
		if s.IsMatch && s.Content != "" {
			out.WriteString(matchStyle.Render(s.Content))
		} else {
			out.WriteString(s.Content)
		}
	}
	return out.String()
}

// Plain renders spans with matched regions wrapped in « » markers,
// suitable for piped output where ANSI styling would be noise.
func Plain(spans []segment.Span) string {
	var out strings.Builder
	for _, s := range spans {
		if s.IsMatch {
			out.WriteString(matchOpen)
			out.WriteString(s.Content)
			out.WriteString(matchClose)
		} else {
			out.WriteString(s.Content)
		}
	}
	return out.String()
}

// JSON renders spans as an indented JSON array. An empty segmentation
// marshals as [] rather than null so consumers always receive an array.
func JSON(spans []segment.Span) (string, error) {
	if spans == nil {
		spans = []segment.Span{}
	}
	data, err := json.MarshalIndent(spans, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal spans: %w", err)
	}
	return string(data), nil
}

// IsTerminal reports whether f is attached to a terminal; callers use this
// to pick Highlight for interactive sessions and Plain when piped.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
