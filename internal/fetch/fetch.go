// Package fetch retrieves sample text for the relens CLI tool from local
// files, http(s) URLs, or standard input.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

// size caps keep a single invocation from loading unbounded input; matching
// happens fully in memory
const (
	MaxFileBytes = 20 * 1024 * 1024 // local files and stdin
	MaxHTTPBytes = 20 * 1024 * 1024 // HTTP bodies (Content-Length may be absent)
)

// HTTPTimeout bounds the whole request; dial and header phases get fractions of it
const HTTPTimeout = 20 * time.Second

// cappedReader wraps an io.ReadCloser and errors once the cap is exhausted
type cappedReader struct {
	io.ReadCloser
	remaining int64
	source    string
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		return 0, fmt.Errorf("content from %q exceeds size limit", c.source)
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.ReadCloser.Read(p)
	c.remaining -= int64(n)
	return n, err
}

// shared client; safe for concurrent use
var httpClient = &http.Client{
	Timeout: HTTPTimeout,
	Transport: &http.Transport{
		Dial: (&net.Dialer{
			Timeout: HTTPTimeout / 4,
		}).Dial,
		TLSHandshakeTimeout:   HTTPTimeout / 4,
		ResponseHeaderTimeout: HTTPTimeout / 2,
	},
}

// Open returns a size-capped reader for a source. Three source forms are
// recognized: "-" (or the empty string) reads standard input, strings with
// an http:// or https:// prefix are fetched over HTTP, and anything else is
// treated as a local file path.
//
// ctx controls cancellation of HTTP fetches.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case source == "-" || source == "":
		return &cappedReader{ReadCloser: os.Stdin, remaining: MaxFileBytes, source: "stdin"}, nil
	case IsURL(source):
		return openURL(ctx, source)
	default:
		return openFile(source)
	}
}

// ReadAll opens a source and drains it into a string.
func ReadAll(ctx context.Context, source string) (string, error) {
	reader, err := Open(ctx, source)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read source %q: %w", source, err)
	}
	return string(data), nil
}

// IsURL reports whether a source will be fetched over HTTP.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func openURL(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for URL %q: %w", url, err)
	}
	req.Header.Set("User-Agent", "relens/0.1")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL %q: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP request failed for URL %q: status %d", url, resp.StatusCode)
	}

	// Content-Length is advisory; the capped reader is the real guard
	return &cappedReader{ReadCloser: resp.Body, remaining: MaxHTTPBytes, source: url}, nil
}

func openFile(path string) (io.ReadCloser, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file %q does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to access file %q: %w", path, err)
	}
	if info.Size() > MaxFileBytes {
		return nil, fmt.Errorf("file %q is too large (%d bytes > %d bytes limit)", path, info.Size(), MaxFileBytes)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", path, err)
	}
	return file, nil
}
