// Package app contains the core application logic for the relens CLI tool,
// separated from flag parsing and other CLI concerns. It wires the pipeline
// together: gather text from sources, optionally reduce HTML to matchable
// text, segment the text against the pattern, and render the spans.
package app

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/pcorbett/relens/internal/extract"
	"github.com/pcorbett/relens/internal/fetch"
	"github.com/pcorbett/relens/internal/render"
	"github.com/pcorbett/relens/internal/segment"
	"github.com/pcorbett/relens/internal/spinner"
)

// OutputFormat selects how the span sequence is rendered.
type OutputFormat int

const (
	// ANSI-highlighted text for terminals
	Highlight OutputFormat = iota
	// marker-delimited text for pipes
	Plain
	// the span sequence as a JSON array
	JSON
)

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	switch f {
	case Highlight:
		return "Highlight"
	case Plain:
		return "Plain"
	case JSON:
		return "JSON"
	default:
		return "Unknown"
	}
}

// Config holds all configuration options for one relens run.
type Config struct {
	Pattern    string   // regex source in ECMA-262 dialect
	Flags      string   // regex flag string, e.g. "gm"
	Sources    []string // file paths, URLs, or "-" for stdin
	Output     OutputFormat
	CountOnly  bool   // print only the number of matches
	HTML       bool   // reduce HTML sources to readable text before matching
	Selector   string // CSS selector scoping HTML extraction (implies HTML)
	IncludeAll bool   // skip readability filtering during HTML extraction
	Quiet      bool   // suppress warnings and progress output
	Debug      bool
}

// Run executes the main relens pipeline with the given configuration and
// returns the rendered output.
func Run(ctx context.Context, cfg Config) (string, error) {
	if len(cfg.Sources) == 0 {
		return "", fmt.Errorf("no sources provided")
	}

	text, err := gatherText(ctx, cfg)
	if err != nil {
		return "", err
	}

	// segmentation absorbs invalid patterns into an all-unmatched fallback,
	// so surface the reason separately
	if cfg.Pattern != "" && !cfg.Quiet {
		if _, err := segment.Compile(cfg.Pattern, segment.NormalizeFlags(cfg.Flags)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v; rendering text unmatched\n", err)
		}
	}

	if cfg.CountOnly {
		return fmt.Sprintf("%d\n", segment.Count(text, cfg.Pattern, cfg.Flags)), nil
	}

	return Render(segment.Segment(text, cfg.Pattern, cfg.Flags), cfg.Output)
}

// Render turns a span sequence into final output in the requested format,
// guaranteeing a trailing newline.
func Render(spans []segment.Span, format OutputFormat) (string, error) {
	var out string
	switch format {
	case JSON:
		rendered, err := render.JSON(spans)
		if err != nil {
			return "", err
		}
		out = rendered
	case Plain:
		out = render.Plain(spans)
	default:
		out = render.Highlight(spans)
	}

	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

// gatherText reads every source and joins their text with blank lines.
// Individual source failures produce warnings and processing continues; only
// a total failure is an error.
func gatherText(ctx context.Context, cfg Config) (string, error) {
	var combined strings.Builder

	for _, source := range cfg.Sources {
		text, err := readSource(ctx, source, cfg)
		if err != nil {
			if !cfg.Quiet {
				fmt.Fprintf(os.Stderr, "Warning: failed to process source %q: %v\n", source, err)
			}
			continue
		}

		if combined.Len() > 0 {
			combined.WriteString("\n\n")
		}
		combined.WriteString(text)
	}

	if combined.Len() == 0 {
		return "", fmt.Errorf("no content read from any source")
	}
	return combined.String(), nil
}

// readSource fetches one source and applies HTML extraction when configured.
func readSource(ctx context.Context, source string, cfg Config) (string, error) {
	if fetch.IsURL(source) && !cfg.Quiet {
		sp := spinner.New(ctx, os.Stderr, fmt.Sprintf("Fetching %s...", source))
		sp.Start()
		defer sp.Stop()
	}

	content, err := fetch.ReadAll(ctx, source)
	if err != nil {
		return "", err
	}

	if cfg.HTML || cfg.Selector != "" {
		var baseURL *url.URL
		if fetch.IsURL(source) {
			baseURL, _ = url.Parse(source) // ignore parse errors, extraction works with nil
		}
		text, err := extract.ToText(strings.NewReader(content), cfg.Selector, cfg.IncludeAll, baseURL)
		if err != nil {
			return "", fmt.Errorf("failed to extract text: %w", err)
		}
		return text, nil
	}

	return content, nil
}
