// Package segment provides the match segmentation core for the relens CLI tool.
//
// Given arbitrary text, a regex pattern string, and a flag string, it produces
// an ordered sequence of labeled spans that partitions the text into matched
// and unmatched regions. The segmentation is a pure function of its three
// inputs: no shared state, no I/O, deterministic output. It is designed to be
// safe against degenerate input: a malformed pattern never produces an error
// (the whole text comes back as one unmatched span), and zero-width matches
// (anchors, lookarounds) cannot loop forever.
//
// Patterns use the ECMA-262 dialect via dlclark/regexp2, which supports
// lookarounds and backreferences that Go's RE2-based stdlib engine cannot
// express.
package segment

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// matchDeadline bounds a single match attempt. regexp2 is a backtracking
// engine, so a pathological pattern over a large input can otherwise run for
// an unbounded time.
const matchDeadline = 1 * time.Second

// Span is one contiguous region of the original text.
type Span struct {
	// exact substring of the original text (may be empty for a zero-width match)
	Content string `json:"content"`
	// whether this region matched the pattern
	IsMatch bool `json:"isMatch"`
	// rune offset into the original text; meaningful only when IsMatch is true
	StartOffset int `json:"startOffset"`
}

// NormalizeFlags guarantees the global/match-all flag is present, appending
// "g" if missing. All other characters pass through verbatim: duplicates and
// ordering are preserved, and validation is left to Compile.
func NormalizeFlags(flags string) string {
	if strings.ContainsRune(flags, 'g') {
		return flags
	}
	return flags + "g"
}

// Compile builds a regexp2 engine from an ECMA-262 pattern and flag string.
//
// Flag letters map as follows: i → IgnoreCase, m → Multiline, s → Singleline,
// u → Unicode. The g, d, y, and v flags are accepted but have no engine-level
// effect here: global scanning is how Segment and Count always operate, and
// the engine natively works on runes rather than UTF-16 units. Any other
// letter is a compile error.
//
// Callers that want an "invalid pattern" indicator can call Compile directly;
// Segment itself absorbs compile failure into its fail-soft output.
func Compile(pattern, flags string) (*regexp2.Regexp, error) {
	opts := regexp2.None
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'u':
			opts |= regexp2.Unicode
		case 'g', 'd', 'y', 'v':
			// accepted, no engine-level equivalent
		default:
			return nil, fmt.Errorf("unknown regex flag %q", string(f))
		}
	}

	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern: %w", err)
	}
	re.MatchTimeout = matchDeadline
	return re, nil
}

// Segment partitions text into an ordered sequence of matched and unmatched
// spans. Concatenating the span contents in order always reconstructs text
// exactly, and no unmatched span is ever empty.
//
// Degenerate inputs have defined, non-error outputs: empty text yields an
// empty sequence; an empty or syntactically invalid pattern yields a single
// unmatched span wrapping the whole text. The fail-soft behavior on invalid
// patterns keeps callers responsive while a pattern is mid-edit.
func Segment(text, pattern, flags string) []Span {
	if text == "" {
		return nil
	}
	if pattern == "" {
		return []Span{{Content: text}}
	}

	re, err := Compile(pattern, NormalizeFlags(flags))
	if err != nil {
		return []Span{{Content: text}}
	}

	runes := []rune(text)
	spans := make([]Span, 0, 8)
	lastIndex := 0

	forEachMatch(re, runes, func(start, length int, matched string) {
		if start > lastIndex {
			spans = append(spans, Span{Content: string(runes[lastIndex:start])})
		}
		spans = append(spans, Span{Content: matched, IsMatch: true, StartOffset: start})
		lastIndex = start + length
	})

	if lastIndex < len(runes) {
		spans = append(spans, Span{Content: string(runes[lastIndex:])})
	}
	return spans
}

// Count reports how many times the pattern matches the text, with the same
// flag normalization and fail-soft semantics as Segment: empty or invalid
// patterns count zero matches.
func Count(text, pattern, flags string) int {
	if text == "" || pattern == "" {
		return 0
	}
	re, err := Compile(pattern, NormalizeFlags(flags))
	if err != nil {
		return 0
	}

	n := 0
	forEachMatch(re, []rune(text), func(int, int, string) { n++ })
	return n
}

// forEachMatch runs an iterative global search over runes, invoking visit for
// every match in order. When a match consumes zero runes the search cursor is
// forced forward by one rune; zero-width assertions would otherwise match at
// the same position indefinitely. A match-time error (deadline exceeded)
// stops the scan, leaving the remainder unvisited.
func forEachMatch(re *regexp2.Regexp, runes []rune, visit func(start, length int, matched string)) {
	searchAt := 0
	for searchAt <= len(runes) {
		m, err := re.FindRunesMatchStartingAt(runes, searchAt)
		if err != nil || m == nil {
			return
		}

		visit(m.Index, m.Length, m.String())

		if m.Length == 0 {
			searchAt = m.Index + 1
		} else {
			searchAt = m.Index + m.Length
		}
	}
}
