// Package extract converts HTML sources into matchable text for the relens
// CLI tool. Regex patterns are far more useful against readable text than
// against raw markup, so HTML sources can be reduced to their main content
// (or to a CSS-selected fragment) before segmentation.
package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ToText reduces HTML to text suitable for pattern matching.
//
// A non-empty selector scopes extraction to the matching elements. With
// includeAll set, the whole document is converted without readability
// filtering. Otherwise readability extraction pulls the main content first.
// baseURL gives readability context for resolving relative links; nil is fine.
func ToText(content io.Reader, selector string, includeAll bool, baseURL *url.URL) (string, error) {
	if selector != "" {
		return selectedText(content, selector)
	}
	if includeAll {
		return wholeDocumentText(content)
	}
	return mainContentText(content, baseURL)
}

// mainContentText runs readability extraction and converts the result
func mainContentText(content io.Reader, baseURL *url.URL) (string, error) {
	if baseURL == nil {
		baseURL = &url.URL{}
	}

	article, err := readability.FromReader(content, baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract main content: %w", err)
	}
	return htmlToText(article.Content)
}

// selectedText converts only the elements matching a CSS selector
func selectedText(content io.Reader, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	selection := doc.Find(selector)
	if selection.Length() == 0 {
		return "", fmt.Errorf("no elements found matching selector: %s", selector)
	}

	var parts []string
	selection.Each(func(i int, s *goquery.Selection) {
		html, err := s.Html()
		if err != nil {
			return
		}
		// keep the enclosing tag so block structure survives conversion
		tag := goquery.NodeName(s)
		parts = append(parts, fmt.Sprintf("<%s>%s</%s>", tag, html, tag))
	})
	if len(parts) == 0 {
		return "", fmt.Errorf("failed to extract HTML from selection")
	}

	return htmlToText(strings.Join(parts, "\n"))
}

// wholeDocumentText converts the full document without filtering
func wholeDocumentText(content io.Reader) (string, error) {
	htmlBytes, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("failed to read HTML content: %w", err)
	}
	return htmlToText(string(htmlBytes))
}

// htmlToText converts an HTML fragment to markdown-flavored plain text
func htmlToText(htmlString string) (string, error) {
	converter := md.NewConverter("", true, nil)

	text, err := converter.ConvertString(htmlString)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML: %w", err)
	}

	cleaned := strings.TrimSpace(text)
	for strings.Contains(cleaned, "\n\n\n") {
		cleaned = strings.ReplaceAll(cleaned, "\n\n\n", "\n\n")
	}
	return cleaned, nil
}
